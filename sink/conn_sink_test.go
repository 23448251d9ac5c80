package sink

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"heartline/domain/event"
)

func TestConnSink_FullBufferDropsAndSignals(t *testing.T) {
	req := require.New(t)
	connSink := NewConnSink(1)
	drops := 0
	connSink.OnDrop = func() { drops++ }

	// Given a buffer already holding one event
	req.NoError(connSink.Consume(context.Background(), event.ErrorEvent{Reason: "first"}))

	// When two more arrive before the write pump drains anything
	req.NoError(connSink.Consume(context.Background(), event.ErrorEvent{Reason: "second"}))
	req.NoError(connSink.Consume(context.Background(), event.ErrorEvent{Reason: "third"}))

	// Then the overflow is counted instead of blocking the caller
	req.Equal(2, drops)
	evt := <-connSink.Events
	req.Equal("first", evt.(event.ErrorEvent).Reason)
}

func TestConnSink_ConsumeAfterCloseIsANoOp(t *testing.T) {
	req := require.New(t)
	connSink := NewConnSink(4)
	drops := 0
	connSink.OnDrop = func() { drops++ }

	connSink.Close()

	// A broadcast racing the disconnect must neither panic nor count a drop
	req.NoError(connSink.Consume(context.Background(), event.ErrorEvent{Reason: "late"}))
	req.Zero(drops)

	_, open := <-connSink.Events
	req.False(open)
}

func TestConnSink_CloseIsIdempotent(t *testing.T) {
	connSink := NewConnSink(4)
	connSink.Close()
	connSink.Close()
}
