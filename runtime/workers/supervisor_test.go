package workers

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"heartline/domain/event"
	"heartline/mocks"
)

func TestSupervisor_RestartOnPanic(t *testing.T) {
	req := require.New(t)
	log := slog.Default()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	workerMock := mocks.NewMockWorker(ctrl)

	calls := 0
	workerMock.EXPECT().
		Run(gomock.Any()).
		DoAndReturn(func(ctx context.Context) error {
			calls++
			panic("boom")
		}).
		AnyTimes()

	sup := NewSupervisor(log)

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	go sup.Add(workerMock).Run(ctx)

	// Waiting for panics and restarts
	time.Sleep(900 * time.Millisecond)

	req.GreaterOrEqual(calls, 2)
}

func TestSupervisor_StopOnSuccess(t *testing.T) {
	req := require.New(t)
	log := slog.Default()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	workerMock := mocks.NewMockWorker(ctrl)

	// Given a worker running only once
	workerMock.EXPECT().
		Run(gomock.Any()).
		Return(nil).
		Times(1)

	sup := NewSupervisor(log)

	// Given a channel to notify when Run() terminated
	done := make(chan struct{})

	go func() {
		sup.Add(workerMock).Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
		// Then supervisor detected a success, returned nil and stopped
	case <-time.After(500 * time.Millisecond):
		req.Fail("Supervisor should have stopped after worker success")
	}
}

type countingHandler struct {
	mu sync.Mutex
	n  int
}

func (h *countingHandler) Handle(event.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.n++
}

func (h *countingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.n
}

func TestTelemetryWorker_DispatchesToHandlers(t *testing.T) {
	req := require.New(t)
	log := slog.Default()

	// Given a telemetry pipeline with one counting handler
	telemetry := make(chan event.Event, 4)
	handler := &countingHandler{}
	worker := NewTelemetryWorker(log, telemetry, []event.Handler{handler})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		_ = worker.Run(ctx)
		close(done)
	}()

	// When two events flow through the channel
	telemetry <- event.Event{Type: event.MessageSentType}
	telemetry <- event.Event{Type: event.WentOnlineType}

	req.Eventually(func() bool { return handler.count() == 2 },
		time.Second, 10*time.Millisecond)

	// Then cancellation stops the worker
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("Telemetry worker should stop on context cancel")
	}
}
