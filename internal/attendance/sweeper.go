package attendance

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper periodically evicts expired tokens so the token store does not
// grow without bound.
type Sweeper struct {
	registry *Registry
	interval time.Duration
	logger   *zap.Logger
}

// NewSweeper creates a sweeper. A non-positive interval falls back to
// five minutes.
func NewSweeper(registry *Registry, interval time.Duration, logger *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{registry: registry, interval: interval, logger: logger}
}

// Run sweeps on the interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("token sweeper stopping")
			return
		case <-ticker.C:
			n, err := s.registry.Sweep(ctx)
			if err != nil {
				s.logger.Warn("token sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				s.logger.Info("expired tokens evicted", zap.Int64("count", n))
			}
		}
	}
}
