// Package observability aggregates runtime metrics of the hub process.
package observability

import (
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"heartline/domain/event"
)

// HubStats is a point-in-time snapshot of the hub counters,
// shaped for the viewer and for heartbeat logging.
type HubStats struct {
	OnlineUsers       int    `json:"online_users"`
	MessagesRouted    uint64 `json:"messages_routed"`
	NotificationsSent uint64 `json:"notifications_sent"`
	CensorHits        uint64 `json:"censor_hits"`
	DroppedEvents     uint64 `json:"dropped_events"`

	AllocMemMb uint64 `json:"alloc_mem_mb"`
	NumGC      uint32 `json:"num_gc"`

	ProcessRSS uint64  `json:"process_rss"`
	ProcessCPU float64 `json:"process_cpu"`
	PidStatus  string  `json:"pid_status"`
}

// Monitor keeps the live counters. Hot-path increments are atomic;
// the snapshot under mutex is only touched by the heartbeat worker
// and the occasional reader.
type Monitor struct {
	log         *slog.Logger
	mu          sync.RWMutex
	latestStats HubStats

	messagesRouted    uint64
	notificationsSent uint64
	censorHits        uint64
	droppedEvents     uint64
	onlineUsers       int64
}

func NewMonitor(log *slog.Logger) *Monitor {
	return &Monitor{log: log}
}

// Handle plugs the monitor into the telemetry pipeline alongside the
// other handlers. Counters only; payloads are ignored here.
func (m *Monitor) Handle(evt event.Event) {
	switch evt.Type {
	case event.MessageSentType:
		atomic.AddUint64(&m.messagesRouted, 1)
	case event.NotificationType:
		atomic.AddUint64(&m.notificationsSent, 1)
	case event.CensorshipHit:
		atomic.AddUint64(&m.censorHits, 1)
	case event.SinkSaturatedType:
		atomic.AddUint64(&m.droppedEvents, 1)
	case event.WentOnlineType:
		atomic.AddInt64(&m.onlineUsers, 1)
	case event.WentOfflineType:
		atomic.AddInt64(&m.onlineUsers, -1)
	}
}

// SetProcessStats records the self metrics collected by the heartbeat worker.
func (m *Monitor) SetProcessStats(rss uint64, cpu float64, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latestStats.ProcessRSS = rss
	m.latestStats.ProcessCPU = cpu
	m.latestStats.PidStatus = status
}

// Refresh folds the atomic counters and the Go runtime metrics
// into the snapshot.
func (m *Monitor) Refresh() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.latestStats.MessagesRouted = atomic.LoadUint64(&m.messagesRouted)
	m.latestStats.NotificationsSent = atomic.LoadUint64(&m.notificationsSent)
	m.latestStats.CensorHits = atomic.LoadUint64(&m.censorHits)
	m.latestStats.DroppedEvents = atomic.LoadUint64(&m.droppedEvents)
	m.latestStats.OnlineUsers = int(atomic.LoadInt64(&m.onlineUsers))

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	m.latestStats.AllocMemMb = ms.Alloc / 1024 / 1024
	m.latestStats.NumGC = ms.NumGC
}

func (m *Monitor) GetLatest() HubStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latestStats
}

// LogSummary emits a one-line health log, throttled by the caller.
func (m *Monitor) LogSummary() {
	stats := m.GetLatest()
	m.log.Info("Hub health",
		"online_users", stats.OnlineUsers,
		"messages", stats.MessagesRouted,
		"notifications", stats.NotificationsSent,
		"censor_hits", stats.CensorHits,
		"mem_mb", stats.AllocMemMb,
		"cpu_pct", stats.ProcessCPU,
	)
}
