package services

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"heartline/contract"
	"heartline/domain"
	"heartline/domain/event"
	"heartline/mocks"
	"heartline/sink"
)

func TestNotificationForwarder_ReachesEveryConnection(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// Given bob online on two devices
	first := sink.NewConnSink(4)
	second := sink.NewConnSink(4)
	presence := mocks.NewMockIPresenceRegistry(ctrl)
	presence.EXPECT().SinksFor("bob").Return([]contract.EventSink{first, second})

	forwarder := NewNotificationForwarder(slog.Default(), presence)

	// When alice's message triggers a notification
	pushed := forwarder.Forward(context.Background(), "bob", domain.UserRecord{
		Username:  "alice",
		FirstName: "Alice",
	})

	// Then both devices received the sender identity, nothing else
	req.Equal(2, pushed)
	for _, s := range []*sink.ConnSink{first, second} {
		evt := <-s.Events
		notification, ok := evt.(event.MessageNotification)
		req.True(ok)
		req.Equal("alice", notification.Username)
		req.Equal("Alice", notification.FirstName)
	}
}

func TestNotificationForwarder_RecipientGoneMeansZero(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	presence := mocks.NewMockIPresenceRegistry(ctrl)
	presence.EXPECT().SinksFor("bob").Return(nil)

	forwarder := NewNotificationForwarder(slog.Default(), presence)

	pushed := forwarder.Forward(context.Background(), "bob", domain.UserRecord{Username: "alice"})
	req.Zero(pushed)
}
