// Package retention trims old completed entries from queue history.
package retention

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"walkin-queue-backend/config"
)

// Purger deletes history rows completed before a cutoff.
type Purger interface {
	PurgeHistory(ctx context.Context, before time.Time) (int64, error)
}

// Sweeper periodically purges history older than the configured max age.
type Sweeper struct {
	cfg   config.RetentionConfig
	store Purger
	log   logrus.FieldLogger
	now   func() time.Time
}

// NewSweeper creates a history sweeper.
func NewSweeper(cfg config.RetentionConfig, store Purger, log logrus.FieldLogger) *Sweeper {
	return &Sweeper{
		cfg:   cfg,
		store: store,
		log:   log.WithField("component", "retention"),
		now:   time.Now,
	}
}

// Run sweeps once immediately and then on every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		s.log.Info("history retention is disabled")
		return
	}
	s.log.WithFields(logrus.Fields{
		"interval": s.cfg.Interval.String(),
		"max_age":  s.cfg.MaxAge.String(),
	}).Info("starting history sweeper")

	s.SweepOnce(ctx)

	timer := time.NewTimer(s.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("history sweeper shutting down")
			return
		case <-timer.C:
			s.SweepOnce(ctx)
			timer.Reset(s.cfg.Interval)
		}
	}
}

// SweepOnce purges history completed more than MaxAge ago and returns how many rows went.
func (s *Sweeper) SweepOnce(ctx context.Context) int64 {
	cutoff := s.now().Add(-s.cfg.MaxAge)
	n, err := s.store.PurgeHistory(ctx, cutoff)
	if err != nil {
		s.log.WithError(err).Error("history sweep failed")
		return 0
	}
	if n > 0 {
		s.log.WithFields(logrus.Fields{"purged": n, "cutoff": cutoff}).Info("purged old history")
	}
	return n
}
