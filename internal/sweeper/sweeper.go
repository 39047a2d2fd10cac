package sweeper

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// SweepFunc removes expired entries and reports how many went
type SweepFunc func(ctx context.Context) (int64, error)

// Sweeper calls a SweepFunc on a fixed interval until its context ends.
// A failed sweep is logged and retried on the next tick.
type Sweeper struct {
	interval time.Duration
	sweep    SweepFunc
	logger   zerolog.Logger
}

type Option func(*Sweeper)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Sweeper) {
		s.logger = logger
	}
}

func New(interval time.Duration, sweep SweepFunc, options ...Option) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	s := &Sweeper{interval: interval, sweep: sweep, logger: zerolog.Nop()}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Run sweeps once immediately, then on every tick. It returns nil when ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Sweeper) runOnce(ctx context.Context) {
	removed, err := s.sweep(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error().Err(err).Msg("session sweep failed")
		}
		return
	}
	if removed > 0 {
		s.logger.Info().Int64("removed", removed).Msg("expired sessions deleted")
	}
}
