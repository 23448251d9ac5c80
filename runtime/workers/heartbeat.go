package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"

	"heartline/observability"
)

const heartbeatInterval = 5 * time.Second

// HeartbeatWorker collects self metrics (CPU, RAM, Status) on a fixed
// interval and folds them into the hub monitor.
type HeartbeatWorker struct {
	log     *slog.Logger
	monitor *observability.Monitor
}

func NewHeartbeatWorker(log *slog.Logger, monitor *observability.Monitor) *HeartbeatWorker {
	return &HeartbeatWorker{log: log, monitor: monitor}
}

func (w *HeartbeatWorker) Run(ctx context.Context) error {
	w.log.Info("Starting hub heartbeat worker")
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			rss, cpu, status, err := getSelfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}

			w.monitor.SetProcessStats(rss, cpu, status)
			w.monitor.Refresh()
			w.monitor.LogSummary()
		}
	}
}

// getSelfStats retrieves technical metrics (Memory, CPU, and OS Status) for the given process.
func getSelfStats(p *process.Process) (uint64, float64, string, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, "", err
	}

	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, "", err
	}

	status, err := p.Status()
	if err != nil {
		return 0, 0, "", err
	}
	return memInfo.RSS, cpuPercent, status, nil
}
