// Package ws exposes the hub over websocket and a few read-only HTTP
// endpoints. One websocket connection maps to one conversation view.
package ws

import (
	"context"
	"encoding/json"
	goerrors "errors"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"heartline/domain"
	"heartline/domain/event"
	"heartline/errors"
	"heartline/projection"
	"heartline/services"
	"heartline/sink"
)

const (
	defaultSinkBufferSize = 64
	defaultPageSize       = 20
)

type Handler struct {
	log        *slog.Logger
	hub        services.IHubService
	inbox      *projection.Inbox
	telemetry  chan<- event.Event
	bufferSize int
	validate   *validator.Validate
}

func NewHandler(log *slog.Logger, hub services.IHubService, inbox *projection.Inbox,
	telemetry chan<- event.Event, bufferSize int) *Handler {
	if bufferSize <= 0 {
		bufferSize = defaultSinkBufferSize
	}
	return &Handler{
		log:        log,
		hub:        hub,
		inbox:      inbox,
		telemetry:  telemetry,
		bufferSize: bufferSize,
		validate:   validator.New(),
	}
}

// Register mounts the websocket route and the read-only API.
func (h *Handler) Register(app *fiber.App) {
	app.Use("/api/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// GET /api/ws/chat/:username?with=<other>
	app.Get("/api/ws/chat/:username", websocket.New(h.ChatHandler))

	// GET /api/inbox/:username
	app.Get("/api/inbox/:username", h.InboxHandler)
}

// ChatHandler owns one websocket connection for its whole lifetime:
// join the conversation, pump outbound events, decode inbound frames,
// and leave on any read error.
func (h *Handler) ChatHandler(c *websocket.Conn) {
	username := c.Params("username")
	withUsername := c.Query("with")
	if username == "" || withUsername == "" || username == withUsername {
		h.log.Warn("Rejecting chat connection", "username", username, "with", withUsername)
		_ = c.Close()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn := domain.Connection{ID: uuid.NewString(), Username: username}
	connSink := sink.NewConnSink(h.bufferSize)
	connSink.OnDrop = func() { h.reportSaturated(conn.ID) }

	go h.writePump(c, connSink)

	if err := h.hub.Join(ctx, conn, withUsername, connSink); err != nil {
		h.log.Error("Join failed", "connection", conn.ID, "error", err)
		connSink.Close()
		_ = c.Close()
		return
	}
	h.log.Info("Connection opened", "connection", conn.ID, "username", username, "with", withUsername)

	defer func() {
		h.hub.Leave(ctx, conn)
		connSink.Close()
		h.log.Info("Connection closed", "connection", conn.ID, "username", username)
	}()

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			return
		}
		h.dispatch(ctx, conn, withUsername, connSink, data)
	}
}

// dispatch decodes one client frame and routes it. Protocol errors go back
// to the caller as error events; they never tear the connection down.
func (h *Handler) dispatch(ctx context.Context, conn domain.Connection, withUsername string, connSink *sink.ConnSink, data []byte) {
	var frame clientFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		h.reject(ctx, connSink, "malformed frame")
		return
	}
	if err := h.validate.Struct(frame); err != nil {
		h.reject(ctx, connSink, "missing frame type")
		return
	}

	var err error
	switch frame.Type {
	case frameSendMessage:
		err = h.onSendMessage(ctx, conn, frame.Data)
	case frameMoreMessages:
		err = h.onMoreMessages(ctx, conn, connSink, frame.Data)
	case frameSearch:
		err = h.onSearch(ctx, conn, withUsername, connSink, frame.Data)
	case frameDeleteMessage:
		err = h.onDeleteMessage(conn, withUsername, frame.Data)
	default:
		h.reject(ctx, connSink, "unknown frame type "+frame.Type)
		return
	}

	if err != nil {
		h.log.Warn("Frame handling failed", "type", frame.Type, "connection", conn.ID, "error", err)
		h.reject(ctx, connSink, publicReason(err))
	}
}

func (h *Handler) onSendMessage(ctx context.Context, conn domain.Connection, data json.RawMessage) error {
	var payload sendMessagePayload
	if err := h.decode(data, &payload); err != nil {
		return err
	}
	return h.hub.SendMessage(ctx, domain.SendMessageCommand{
		SenderUsername:    conn.Username,
		RecipientUsername: payload.RecipientUsername,
		Content:           payload.Content,
	})
}

func (h *Handler) onMoreMessages(ctx context.Context, conn domain.Connection, connSink *sink.ConnSink, data json.RawMessage) error {
	var payload moreMessagesPayload
	if err := h.decode(data, &payload); err != nil {
		return err
	}
	if payload.PageSize == 0 {
		payload.PageSize = defaultPageSize
	}
	return h.hub.MoreMessages(ctx, domain.ThreadPageCommand{
		RequesterUsername: conn.Username,
		RecipientUsername: payload.RecipientUsername,
		PageNumber:        payload.PageNumber,
		PageSize:          payload.PageSize,
	}, connSink)
}

func (h *Handler) onSearch(ctx context.Context, conn domain.Connection, withUsername string, connSink *sink.ConnSink, data json.RawMessage) error {
	var payload searchPayload
	if err := h.decode(data, &payload); err != nil {
		return err
	}
	return h.hub.SearchMessages(ctx, domain.SearchCommand{
		RequesterUsername: conn.Username,
		OtherUsername:     withUsername,
		RawQuery:          payload.Query,
	}, connSink)
}

func (h *Handler) onDeleteMessage(conn domain.Connection, withUsername string, data json.RawMessage) error {
	var payload deleteMessagePayload
	if err := h.decode(data, &payload); err != nil {
		return err
	}
	id, err := uuid.Parse(payload.ID)
	if err != nil {
		return errors.ErrInvalidPayload
	}
	return h.hub.DeleteMessage(conn.Username, withUsername, id)
}

// InboxHandler GET /api/inbox/:username
func (h *Handler) InboxHandler(c *fiber.Ctx) error {
	username := c.Params("username")
	if username == "" {
		return c.SendStatus(fiber.StatusBadRequest)
	}
	return c.JSON(fiber.Map{
		"previews": h.inbox.Previews(username),
		"unread":   h.inbox.UnreadTotal(username),
	})
}

// writePump serializes every event of one connection. It is the only
// goroutine writing to the socket.
func (h *Handler) writePump(c *websocket.Conn, connSink *sink.ConnSink) {
	for evt := range connSink.Events {
		data, err := json.Marshal(serverFrame{Type: evt.EventName(), Data: evt})
		if err != nil {
			h.log.Error("Event marshaling failed", "event", evt.EventName(), "error", err)
			continue
		}
		if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
			// Socket is gone; keep draining so the hub never blocks.
			continue
		}
	}
}

func (h *Handler) decode(data json.RawMessage, payload any) error {
	if err := json.Unmarshal(data, payload); err != nil {
		return errors.ErrInvalidPayload
	}
	if err := h.validate.Struct(payload); err != nil {
		return errors.ErrInvalidPayload
	}
	return nil
}

// reportSaturated feeds the drop counter without ever blocking the hub.
func (h *Handler) reportSaturated(connectionID string) {
	if h.telemetry == nil {
		return
	}
	select {
	case h.telemetry <- event.Event{Type: event.SinkSaturatedType, Payload: connectionID}:
	default:
	}
}

func (h *Handler) reject(ctx context.Context, connSink *sink.ConnSink, reason string) {
	if err := connSink.Consume(ctx, event.ErrorEvent{Reason: reason}); err != nil {
		h.log.Debug("Error frame dropped", "reason", reason)
	}
}

// publicReason maps internal failures to client-safe wording.
func publicReason(err error) string {
	switch {
	case goerrors.Is(err, errors.ErrSelfMessage):
		return "cannot message yourself"
	case goerrors.Is(err, errors.ErrRecipientNotFound):
		return "recipient does not exist"
	case goerrors.Is(err, errors.ErrInvalidPayload):
		return "invalid payload"
	default:
		return "internal error"
	}
}
