// Package sweeper closes rooms whose roster emptied, on a cron schedule.
package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"parley/pkg/conversation"
	"parley/pkg/logger"
	"parley/pkg/telemetry"
)

// Start launches the sweep scheduler and returns its cancel func. An empty
// cron expression defaults to every five minutes.
func Start(ctx context.Context, reg *conversation.Registry, cronExpr string) (context.CancelFunc, error) {
	if cronExpr == "" {
		cronExpr = "*/5 * * * *"
	}
	if !gronx.IsValid(cronExpr) {
		return nil, fmt.Errorf("invalid sweeper cron expression: %s", cronExpr)
	}
	logger.Info("sweeper_enabled", "cron", cronExpr)
	ctx2, cancel := context.WithCancel(ctx)
	go runScheduler(ctx2, reg, cronExpr)
	return cancel, nil
}

// runScheduler computes the next cron tick, sleeps until it, and sweeps.
func runScheduler(ctx context.Context, reg *conversation.Registry, cronExpr string) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("sweeper_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("sweeper_nexttick_failed", "cron", cronExpr, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		select {
		case <-time.After(time.Until(next)):
		case <-ctx.Done():
			logger.Info("sweeper_stopping")
			return
		}
		RunOnce(reg)
	}
}

// RunOnce sweeps now; exported so admin triggers and tests can force a run.
func RunOnce(reg *conversation.Registry) {
	closed := reg.CloseEmptyRooms()
	if len(closed) == 0 {
		return
	}
	telemetry.RoomsSwept.Add(float64(len(closed)))
	logger.Info("rooms_swept", "count", len(closed), "rooms", closed)
}
