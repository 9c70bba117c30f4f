package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"

	"studio-live/observability"
)

// Monitor refreshes process-level metrics (CPU, RSS, OS status) on a fixed
// interval and folds them into the shared stats for the debug endpoint.
type Monitor struct {
	log      *slog.Logger
	stats    *observability.Stats
	interval time.Duration
}

func NewMonitor(log *slog.Logger, stats *observability.Stats, interval time.Duration) *Monitor {
	return &Monitor{
		log:      log.With(slog.String("component", "monitor")),
		stats:    stats,
		interval: interval,
	}
}

func (w *Monitor) Run(ctx context.Context) error {
	w.log.Info("Starting process monitor", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			rss, cpu, status, err := selfStats(p)
			if err != nil {
				w.log.Warn("Failed to collect self stats", "error", err)
				continue
			}
			w.stats.SetProcessStats(rss, cpu, status)
			w.log.Debug("Process stats refreshed",
				"rss_bytes", rss, "cpu_percent", cpu, "status", status)
		}
	}
}

func selfStats(p *process.Process) (uint64, float64, string, error) {
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
