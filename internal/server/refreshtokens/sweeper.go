package refreshtokens

import (
	"context"
	"time"

	"github.com/genesisio/genesisio/internal/logging"
	"github.com/genesisio/genesisio/internal/server/metrics"
)

// Sweeper periodically purges expired refresh tokens from the durable
// registry. Sweeps are independent and idempotent: a failed sweep is logged
// and implicitly retried by the next scheduled tick.
type Sweeper struct {
	repo     Repository
	logger   logging.Logger
	metrics  *metrics.Metrics
	interval time.Duration
}

func NewSweeper(repo Repository, logger logging.Logger, m *metrics.Metrics, interval time.Duration) *Sweeper {
	return &Sweeper{
		repo:     repo,
		logger:   logger.With("module", "token_sweeper"),
		metrics:  m,
		interval: interval,
	}
}

// Run executes sweeps at a fixed cadence until ctx is cancelled. The
// sweeper lives for the whole process; cancellation happens only at
// shutdown.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-ctx.Done():
			s.logger.Info(ctx, "stopping sweeper")
			return
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	count, err := s.repo.DeleteExpired(ctx)
	if err != nil {
		s.logger.Error(ctx, "error deleting expired tokens", "error", err)
		return
	}
	s.metrics.TokensSwept.Add(float64(count))
	s.logger.Info(ctx, "expired tokens deleted", "count", count)
}
