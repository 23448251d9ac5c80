package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/google/uuid"

	"heartline/contract"
	"heartline/domain"
	"heartline/domain/event"
	"heartline/domain/search"
	"heartline/errors"
	"heartline/moderation"
)

// Router implements the connect/send/disconnect protocol of the hub.
// It consults the two registries for routing decisions, persists through the
// message repository, and fans events out to conversation members, the
// recipient's other connections, or the global presence audience.
//
// Registry calls are the only synchronized work; persistence, indexing and
// broadcasts always happen outside of any registry lock.
type Router struct {
	log       *slog.Logger
	presence  contract.IPresenceRegistry
	groups    contract.IGroupRegistry
	messages  contract.IMessageRepository
	directory contract.IUserDirectory
	index     contract.IMessageIndex
	notifier  contract.INotificationForwarder
	moderator moderation.Moderator
	telemetry chan event.Event
	taps      []contract.EventSink
}

func NewRouter(
	log *slog.Logger,
	presence contract.IPresenceRegistry,
	groups contract.IGroupRegistry,
	messages contract.IMessageRepository,
	directory contract.IUserDirectory,
	index contract.IMessageIndex,
	notifier contract.INotificationForwarder,
	moderator moderation.Moderator,
	telemetry chan event.Event,
) *Router {
	return &Router{
		log:       log,
		presence:  presence,
		groups:    groups,
		messages:  messages,
		directory: directory,
		index:     index,
		notifier:  notifier,
		moderator: moderator,
		telemetry: telemetry,
	}
}

// Tap registers permanent observer sinks, such as projections. Taps receive
// message and read events alongside the live connections. Register before
// serving traffic; the slice is not guarded.
func (r *Router) Tap(sinks ...contract.EventSink) {
	r.taps = append(r.taps, sinks...)
}

// Connect joins a connection to its conversation group, announces the updated
// membership, delivers the thread history to the caller, and publishes the
// global presence events.
//
// The thread is delivered as it stood before the join; messages addressed to
// the joining user are marked read as part of the join, after the snapshot
// was taken.
func (r *Router) Connect(ctx context.Context, conn domain.Connection, otherUsername string, sink contract.EventSink) error {
	key := domain.GroupKey(conn.Username, otherUsername)

	wentOnline := r.presence.Connect(conn.Username, conn.ID, sink)
	group := r.groups.JoinGroup(key, conn, sink)

	r.broadcast(ctx, r.groups.SinksForGroup(key), event.UpdatedGroup{Group: group})

	thread, err := r.messages.Thread(conn.Username, otherUsername)
	if err != nil {
		return fmt.Errorf("fetching thread %s: %w", key, err)
	}
	visible := visibleTo(thread, conn.Username)

	if unread := unreadIDs(visible, conn.Username); len(unread) > 0 {
		if err := r.messages.MarkRead(key, unread, time.Now().UTC()); err != nil {
			r.log.Warn("Failed to mark thread read on join", "group", key, "error", err)
		}
	}
	r.broadcast(ctx, r.taps, event.ThreadViewed{Username: conn.Username, GroupKey: key})

	if err := sink.Consume(ctx, event.MessageThread{Messages: visible}); err != nil {
		r.log.Warn("Thread delivery failed", "group", key, "error", err)
	}

	if wentOnline {
		r.broadcast(ctx, r.presence.AllSinks(conn.ID), event.UserOnline{Username: conn.Username})
		r.emit(event.Event{Type: event.WentOnlineType, Payload: event.PresenceChanged{Username: conn.Username, Online: true}})
	}

	if err := sink.Consume(ctx, event.OnlineUsers{Usernames: r.presence.OnlineUsers()}); err != nil {
		r.log.Warn("Presence snapshot delivery failed", "connection", conn.ID, "error", err)
	}
	return nil
}

// Send routes one message. Live delivery (recipient watching this exact
// conversation) marks the message read at send time; a recipient online
// elsewhere gets an out-of-band notification instead. Nothing is broadcast
// unless persistence succeeded.
func (r *Router) Send(ctx context.Context, cmd domain.SendMessageCommand) error {
	if cmd.RecipientUsername == cmd.SenderUsername {
		return errors.ErrSelfMessage
	}

	_, found, err := r.directory.FindByUsername(cmd.RecipientUsername)
	if err != nil {
		return fmt.Errorf("resolving recipient %q: %w", cmd.RecipientUsername, err)
	}
	if !found {
		return errors.ErrRecipientNotFound
	}

	content := r.censor(cmd.Content)

	sentAt := cmd.SentAt
	if sentAt.IsZero() {
		sentAt = time.Now().UTC()
	}
	message := domain.Message{
		ID:                uuid.New(),
		SenderUsername:    cmd.SenderUsername,
		RecipientUsername: cmd.RecipientUsername,
		Content:           content,
		SentAt:            sentAt,
	}

	key := domain.GroupKey(cmd.SenderUsername, cmd.RecipientUsername)
	liveRead := r.groups.IsMember(key, cmd.RecipientUsername)
	if liveRead {
		readAt := sentAt
		message.ReadAt = &readAt
	}

	if err := r.messages.Append(message); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	if err := r.index.Index(message); err != nil {
		r.log.Warn("Message indexing failed", "id", message.ID, "error", err)
	}

	if !liveRead && len(r.presence.ConnectionsFor(cmd.RecipientUsername)) > 0 {
		sender := domain.UserRecord{Username: cmd.SenderUsername}
		if record, ok, err := r.directory.FindByUsername(cmd.SenderUsername); err == nil && ok {
			sender = record
		}
		pushed := r.notifier.Forward(ctx, cmd.RecipientUsername, sender)
		r.emit(event.Event{Type: event.NotificationType, Payload: event.NotificationPushed{
			Username:    cmd.RecipientUsername,
			Connections: pushed,
		}})
	}

	r.broadcast(ctx, r.groups.SinksForGroup(key), event.NewMessage{Message: message})
	r.broadcast(ctx, r.taps, event.NewMessage{Message: message})
	r.emit(event.Event{Type: event.MessageSentType, Payload: event.MessageSent{
		GroupKey: key,
		LiveRead: liveRead,
		SentAt:   sentAt,
	}})
	return nil
}

// FetchThreadPage delivers one page of older history to the caller only.
func (r *Router) FetchThreadPage(ctx context.Context, cmd domain.ThreadPageCommand, sink contract.EventSink) error {
	page, err := r.messages.ThreadPage(cmd.RequesterUsername, cmd.RecipientUsername, cmd.PageNumber, cmd.PageSize)
	if err != nil {
		return fmt.Errorf("fetching page %d: %w", cmd.PageNumber, err)
	}
	return sink.Consume(ctx, event.MessageThread{Messages: visibleTo(page, cmd.RequesterUsername)})
}

// Search answers a /find-style query over the caller's conversation, caller only.
func (r *Router) Search(ctx context.Context, cmd domain.SearchCommand, sink contract.EventSink) error {
	key := domain.GroupKey(cmd.RequesterUsername, cmd.OtherUsername)
	query := search.Parse(cmd.RawQuery)

	matches, err := r.index.Search(ctx, key, query)
	if err != nil {
		return fmt.Errorf("searching %q: %w", query.Terms, err)
	}
	return sink.Consume(ctx, event.SearchResults{
		Query:    query.RawInput,
		Messages: visibleTo(matches, cmd.RequesterUsername),
	})
}

// Disconnect removes the connection from its group and from the presence
// registry, tells the remaining group members, and announces the user
// offline if this was their last connection. Cleanup is idempotent: a
// connection already gone from either registry is not an error.
func (r *Router) Disconnect(ctx context.Context, conn domain.Connection) {
	before, err := r.groups.LeaveGroup(conn.ID)
	if err != nil {
		// Disconnect may race with the group already being cleaned up.
		r.log.Debug("Connection left no group behind", "connection", conn.ID)
	}

	wentOffline := r.presence.Disconnect(conn.Username, conn.ID)

	if err == nil {
		if after, ok := r.groups.Group(before.Key); ok {
			r.broadcast(ctx, r.groups.SinksForGroup(before.Key), event.UpdatedGroup{Group: after})
		}
	}

	if wentOffline {
		r.broadcast(ctx, r.presence.AllSinks(conn.ID), event.UserOffline{Username: conn.Username})
		r.emit(event.Event{Type: event.WentOfflineType, Payload: event.PresenceChanged{Username: conn.Username, Online: false}})
	}
}

// DeleteMessage flags one side of a message as deleted; the repository purges
// it once both sides are flagged.
func (r *Router) DeleteMessage(username, otherUsername string, id uuid.UUID) error {
	key := domain.GroupKey(username, otherUsername)
	return r.messages.DeleteForUser(key, id, username)
}

func (r *Router) censor(content string) string {
	censored, hits := r.moderator.Censor(content)
	if len(hits) == 0 {
		return content
	}
	lang := whatlanggo.Detect(content).Lang.Iso6391()
	for _, word := range hits {
		r.emit(event.Event{Type: event.CensorshipHit, Payload: event.Censored{Word: word, Language: lang}})
	}
	return censored
}

// broadcast pushes one event to a snapshot of sinks, outside any registry lock.
func (r *Router) broadcast(ctx context.Context, sinks []contract.EventSink, e event.DomainEvent) {
	for _, sink := range sinks {
		if err := sink.Consume(ctx, e); err != nil {
			r.log.Debug("Sink rejected event", "event", e.EventName(), "error", err)
		}
	}
}

// emit forwards a telemetry event without ever blocking the protocol path.
func (r *Router) emit(e event.Event) {
	if r.telemetry == nil {
		return
	}
	select {
	case r.telemetry <- e:
	default:
		r.log.Debug("Telemetry event lost", "type", e.Type)
	}
}

func visibleTo(messages []domain.Message, username string) []domain.Message {
	visible := make([]domain.Message, 0, len(messages))
	for _, m := range messages {
		if m.VisibleTo(username) {
			visible = append(visible, m)
		}
	}
	return visible
}

func unreadIDs(messages []domain.Message, recipient string) []uuid.UUID {
	var ids []uuid.UUID
	for _, m := range messages {
		if m.RecipientUsername == recipient && !m.Read() {
			ids = append(ids, m.ID)
		}
	}
	return ids
}
