// Package retention periodically removes old history entries. It never touches active
// sessions.
package retention

import (
	"context"
	"time"

	"go.uber.org/zap"

	"laundry-booking-backend/config"
)

// Pruner deletes history older than keepDays and reports how many entries went.
type Pruner interface {
	PruneHistory(ctx context.Context, keepDays int) (int64, error)
}

// Service runs the pruning loop.
type Service struct {
	cfg    config.RetentionConfig
	pruner Pruner
	log    *zap.Logger
}

func NewService(cfg config.RetentionConfig, pruner Pruner, log *zap.Logger) *Service {
	return &Service{cfg: cfg, pruner: pruner, log: log}
}

// Run prunes once immediately and then every configured interval until ctx is done.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		s.log.Info("history retention is disabled")
		return
	}
	s.log.Info("starting history retention",
		zap.Duration("interval", s.cfg.Interval),
		zap.Int("keep_days", s.cfg.KeepDays))

	s.PruneOnce(ctx)

	timer := time.NewTimer(s.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("history retention shutting down")
			return
		case <-timer.C:
			s.PruneOnce(ctx)
			timer.Reset(s.cfg.Interval)
		}
	}
}

// PruneOnce performs a single pruning round. Failures are logged and retried next round.
func (s *Service) PruneOnce(ctx context.Context) int64 {
	n, err := s.pruner.PruneHistory(ctx, s.cfg.KeepDays)
	if err != nil {
		s.log.Error("history pruning failed", zap.Error(err))
		return 0
	}
	if n > 0 {
		s.log.Info("pruned history entries", zap.Int64("deleted", n), zap.Int("keep_days", s.cfg.KeepDays))
	}
	return n
}
