package retention

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adhocore/gronx"

	"snapfeed/pkg/config"
	"snapfeed/pkg/logger"
	"snapfeed/pkg/state"
	"snapfeed/pkg/store"
	"snapfeed/pkg/telemetry"
)

var (
	windowMu sync.RWMutex
	window   = config.DefaultRetentionMaxAge
)

// SetWindow stores the retention window used by RunImmediate. Start calls
// this; tests may call it directly.
func SetWindow(d time.Duration) {
	if d <= 0 {
		return
	}
	windowMu.Lock()
	window = d
	windowMu.Unlock()
}

// Window returns the currently configured retention window.
func Window() time.Duration {
	windowMu.RLock()
	defer windowMu.RUnlock()
	return window
}

// RunImmediate triggers a single synchronous sweep with the stored window.
// The full-content listing endpoint awaits this before reading so results
// honor the retention policy between scheduler ticks.
func RunImmediate() error {
	return runOnce(Window())
}

// Start starts the sweep scheduler if enabled. Returns a cancel func.
func Start(ctx context.Context, cfg *config.Config) (context.CancelFunc, error) {
	SetWindow(cfg.RetentionMaxAge())

	if !cfg.RetentionEnabled() {
		logger.Info("retention_disabled")
		return func() {}, nil
	}

	cronExpr := cfg.Retention.Cron
	if cronExpr == "" {
		cronExpr = config.DefaultRetentionCron
	}
	if !gronx.IsValid(cronExpr) {
		logger.Error("retention_invalid_cron", "cron", cronExpr)
		return nil, fmt.Errorf("invalid retention cron expression: %s", cronExpr)
	}

	logger.Info("retention_enabled", "cron", cronExpr, "window", Window().String())
	ctx2, cancel := context.WithCancel(ctx)
	go runScheduler(ctx2, cronExpr)
	logger.Info("retention_scheduler_started")
	return cancel, nil
}

// runScheduler uses gronx to compute the next tick for the configured cron
// expression and sleeps until that time.
func runScheduler(ctx context.Context, cronExpr string) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("retention_scheduler_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("retention_nexttick_failed", "cron", cronExpr, "error", err)
			// fallback sleep then retry
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				logger.Info("retention_scheduler_stopping")
				return
			}
			continue
		}

		select {
		case <-time.After(time.Until(next)):
			if err := RunImmediate(); err != nil {
				logger.Error("retention_run_error", "error", err)
			}
		case <-ctx.Done():
			logger.Info("retention_scheduler_stopping")
			return
		}
	}
}

// writeSweepMarker records the last completed sweep under the retention
// state dir so operators can check sweep recency without log access.
// Best effort; a write failure never fails the sweep.
func writeSweepMarker(deleted, partitionErrors int) {
	dir := state.PathsVar.Retention
	if dir == "" {
		return
	}
	line := fmt.Sprintf("time=%s deleted=%d partition_errors=%d\n",
		time.Now().UTC().Format(time.RFC3339), deleted, partitionErrors)
	if err := os.WriteFile(filepath.Join(dir, "last_sweep"), []byte(line), 0o600); err != nil {
		logger.Warn("retention_marker_write_failed", "error", err)
	}
}

// runOnce performs one full sweep: compute the cutoff, enumerate every
// registered partition and purge items older than the cutoff. A partition
// enumeration failure aborts the sweep; a failure purging one partition is
// logged and does not stop the rest.
func runOnce(window time.Duration) error {
	cutoff := time.Now().UTC().UnixMilli() - window.Milliseconds()

	parts, err := store.ListPartitions()
	if err != nil {
		logger.Error("retention_enumerate_failed", "error", err)
		return err
	}

	deleted := 0
	partitionErrors := 0
	for _, p := range parts {
		n, err := store.DeleteContentOlderThan(p.Name, cutoff)
		deleted += n
		if err != nil {
			partitionErrors++
			logger.Error("retention_partition_failed", "partition", p.Name, "error", err)
			continue
		}
	}

	telemetry.ObserveSweep(deleted, partitionErrors)
	writeSweepMarker(deleted, partitionErrors)
	logger.Info("retention_sweep_done",
		"partitions", len(parts),
		"deleted", deleted,
		"partition_errors", partitionErrors,
		"cutoff_ms", cutoff,
	)
	return nil
}
