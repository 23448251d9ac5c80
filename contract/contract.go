//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"
	"time"

	"github.com/google/uuid"

	"heartline/domain"
	"heartline/domain/event"
	"heartline/domain/search"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is one client's delivery channel. Consume must never block on
// network I/O; transport sinks buffer and drop under backpressure.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IPresenceRegistry tracks which users currently hold live connections.
// An entry exists iff the user has at least one connection.
type IPresenceRegistry interface {
	Connect(username, connectionID string, sink EventSink) (wentOnline bool)
	Disconnect(username, connectionID string) (wentOffline bool)
	OnlineUsers() []string
	ConnectionsFor(username string) []string
	SinksFor(username string) []EventSink
	AllSinks(exceptConnectionID string) []EventSink
}

// IGroupRegistry owns conversation groups and their live membership.
type IGroupRegistry interface {
	JoinGroup(key string, conn domain.Connection, sink EventSink) domain.ConversationGroup
	LeaveGroup(connectionID string) (domain.ConversationGroup, error)
	Group(key string) (domain.ConversationGroup, bool)
	IsMember(key, username string) bool
	SinksForGroup(key string) []EventSink
}

// IUserDirectory resolves recipients against the profile store.
type IUserDirectory interface {
	FindByUsername(username string) (domain.UserRecord, bool, error)
}

// IMessageRepository is the durable side of a conversation.
type IMessageRepository interface {
	Append(message domain.Message) error
	Thread(userA, userB string) ([]domain.Message, error)
	ThreadPage(userA, userB string, pageNumber, pageSize int) ([]domain.Message, error)
	MarkRead(groupKey string, ids []uuid.UUID, readAt time.Time) error
	DeleteForUser(groupKey string, id uuid.UUID, username string) error
}

// IMessageIndex is the full-text side of a conversation.
type IMessageIndex interface {
	Index(message domain.Message) error
	Search(ctx context.Context, groupKey string, query *search.Query) ([]domain.Message, error)
}

// INotificationForwarder pushes out-of-band events to a user's live connections.
type INotificationForwarder interface {
	Forward(ctx context.Context, recipientUsername string, sender domain.UserRecord) int
}
