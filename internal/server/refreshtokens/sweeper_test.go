package refreshtokens

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/genesisio/genesisio/internal/logging"
	"github.com/genesisio/genesisio/internal/server/metrics"
	"github.com/stretchr/testify/require"
)

type countingRepo struct {
	Repository
	calls  atomic.Int64
	counts []int64
	errs   []error
}

func (r *countingRepo) DeleteExpired(ctx context.Context) (int64, error) {
	i := int(r.calls.Add(1)) - 1
	var count int64
	var err error
	if i < len(r.counts) {
		count = r.counts[i]
	}
	if i < len(r.errs) {
		err = r.errs[i]
	}
	return count, err
}

func newTestSweeper(repo Repository, interval time.Duration) *Sweeper {
	logger := logging.NewSlogLogger(slog.New(slog.DiscardHandler))
	return NewSweeper(repo, logger, metrics.New(), interval)
}

func TestSweeper_RunsOnCadence(t *testing.T) {
	repo := &countingRepo{counts: []int64{2, 0, 0, 0, 0, 0}}
	s := newTestSweeper(repo, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return repo.calls.Load() >= 2 },
		time.Second, time.Millisecond)

	cancel()
	<-done
}

func TestSweeper_ContinuesAfterFailure(t *testing.T) {
	repo := &countingRepo{
		counts: []int64{0, 1, 0, 0, 0, 0},
		errs:   []error{errors.New("db down"), nil, nil, nil, nil, nil},
	}
	s := newTestSweeper(repo, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	// The failed first sweep must not cancel subsequent ticks.
	require.Eventually(t, func() bool { return repo.calls.Load() >= 2 },
		time.Second, time.Millisecond)
}

func TestSweeper_StopsOnContextCancel(t *testing.T) {
	repo := &countingRepo{}
	s := newTestSweeper(repo, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancellation")
	}
}
