// Package retention purges soft-deleted messages after the configured TTL.
// Soft deletion only flags a record; the cron sweep here is the single place
// records are actually removed from disk.
package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"chatmesh/pkg/config"
	"chatmesh/pkg/logger"
	"chatmesh/pkg/store"
)

const defaultCron = "0 2 * * *"

// Start starts the retention scheduler if enabled. Returns a cancel func.
func Start(ctx context.Context, eff config.EffectiveConfigResult) (context.CancelFunc, error) {
	ret := eff.Config.Retention
	if !ret.Enabled {
		logger.Info("retention_disabled")
		return func() {}, nil
	}

	cronExpr := ret.Cron
	if cronExpr == "" {
		cronExpr = defaultCron
	}
	if !gronx.IsValid(cronExpr) {
		logger.Error("retention_invalid_cron", "cron", ret.Cron)
		return nil, fmt.Errorf("invalid retention cron expression: %s", ret.Cron)
	}

	logger.Info("retention_enabled", "cron", cronExpr, "ttl_days", ret.TTLDays)
	ctx2, cancel := context.WithCancel(ctx)
	go runScheduler(ctx2, cronExpr, ret.TTLDays)
	return cancel, nil
}

// runScheduler uses gronx to compute the next tick for the configured cron
// expression and sleeps until that time.
func runScheduler(ctx context.Context, cronExpr string, ttlDays int) {
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
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		select {
		case <-time.After(time.Until(next)):
			if _, err := RunOnce(ttlDays); err != nil {
				logger.Error("retention_run_error", "error", err)
			}
		case <-ctx.Done():
			logger.Info("retention_scheduler_stopping")
			return
		}
	}
}

// RunOnce purges every message soft-deleted more than ttlDays ago and
// returns how many were removed. Exported so admin tooling and tests can
// trigger a sweep on demand.
func RunOnce(ttlDays int) (int, error) {
	if ttlDays <= 0 {
		return 0, fmt.Errorf("retention ttl_days must be positive")
	}
	cutoff := time.Now().UTC().Add(-time.Duration(ttlDays) * 24 * time.Hour).UnixNano()

	ids, err := store.ListMessageIDs()
	if err != nil {
		return 0, err
	}
	expired := make(map[string]struct{})
	for _, id := range ids {
		m, err := store.GetMessage(id)
		if err != nil {
			continue
		}
		if m.IsDeleted && m.DeletedTS > 0 && m.DeletedTS < cutoff {
			expired[id] = struct{}{}
		}
	}
	if len(expired) == 0 {
		logger.Debug("retention_nothing_to_purge")
		return 0, nil
	}
	n, err := store.PurgeMessages(expired)
	if err != nil {
		return n, err
	}
	logger.Info("retention_sweep_complete", "purged", n, "cutoff", cutoff)
	return n, nil
}
