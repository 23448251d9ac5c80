package services

import (
	"context"

	"github.com/google/uuid"

	"heartline/contract"
	"heartline/domain"
	"heartline/runtime"
)

type IHubService interface {
	Join(ctx context.Context, conn domain.Connection, withUsername string, sink contract.EventSink) error
	SendMessage(ctx context.Context, cmd domain.SendMessageCommand) error
	MoreMessages(ctx context.Context, cmd domain.ThreadPageCommand, sink contract.EventSink) error
	SearchMessages(ctx context.Context, cmd domain.SearchCommand, sink contract.EventSink) error
	DeleteMessage(username, otherUsername string, id uuid.UUID) error
	Leave(ctx context.Context, conn domain.Connection)
}

// HubService is the transport-facing facade over the router. Handlers talk
// to this interface so the websocket layer stays decoupled from routing.
type HubService struct {
	router *runtime.Router
}

func NewHubService(router *runtime.Router) *HubService {
	return &HubService{router: router}
}

func (s *HubService) Join(ctx context.Context, conn domain.Connection, withUsername string, sink contract.EventSink) error {
	return s.router.Connect(ctx, conn, withUsername, sink)
}

func (s *HubService) SendMessage(ctx context.Context, cmd domain.SendMessageCommand) error {
	return s.router.Send(ctx, cmd)
}

func (s *HubService) MoreMessages(ctx context.Context, cmd domain.ThreadPageCommand, sink contract.EventSink) error {
	return s.router.FetchThreadPage(ctx, cmd, sink)
}

func (s *HubService) SearchMessages(ctx context.Context, cmd domain.SearchCommand, sink contract.EventSink) error {
	return s.router.Search(ctx, cmd, sink)
}

func (s *HubService) DeleteMessage(username, otherUsername string, id uuid.UUID) error {
	return s.router.DeleteMessage(username, otherUsername, id)
}

func (s *HubService) Leave(ctx context.Context, conn domain.Connection) {
	s.router.Disconnect(ctx, conn)
}
