// Package codes holds pending one-time verification and password-reset
// codes. The registry is in-memory by design: a process restart loses all
// pending codes and in-flight verification flows must be restarted by the
// user.
package codes

import (
	"context"
	"sync"
	"time"

	"github.com/genesisio/genesisio/internal/common"
	"github.com/genesisio/genesisio/internal/logging"
	"github.com/genesisio/genesisio/internal/server/metrics"
	"github.com/google/uuid"
)

// DefaultTTL bounds how long an issued code stays redeemable.
const DefaultTTL = 24 * time.Hour

// DefaultSweepInterval is the cadence of the expiry sweep over pending codes.
const DefaultSweepInterval = time.Minute

// Code is a pending one-time code for a single requester email.
type Code struct {
	ID        string
	Email     string
	Code      string
	ExpiresAt time.Time
}

// Expired reports whether the code is past its redeemable window.
func (c *Code) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Registry is an owned, injectable collection of pending codes keyed by
// requester email. Multiple codes per email may coexist; consumption
// matches the most recent one. Expired records are reclaimed by a single
// periodic sweep rather than per-record timers.
type Registry struct {
	logger        logging.Logger
	metrics       *metrics.Metrics
	ttl           time.Duration
	sweepInterval time.Duration
	now           func() time.Time

	mu      sync.Mutex
	byEmail map[string][]*Code
}

func NewRegistry(logger logging.Logger, m *metrics.Metrics, ttl, sweepInterval time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}
	return &Registry{
		logger:        logger.With("module", "code_registry"),
		metrics:       m,
		ttl:           ttl,
		sweepInterval: sweepInterval,
		now:           time.Now,
		byEmail:       make(map[string][]*Code),
	}
}

// Request issues a new 8-hex-character code for email and appends it to the
// pending set. No uniqueness is enforced per email; callers own any
// one-code-per-email policy.
func (r *Registry) Request(email string) (*Code, error) {
	value, err := common.MakeRandHexString(4)
	if err != nil {
		return nil, err
	}

	code := &Code{
		ID:        uuid.NewString(),
		Email:     email,
		Code:      value,
		ExpiresAt: r.now().Add(r.ttl),
	}

	r.mu.Lock()
	r.byEmail[email] = append(r.byEmail[email], code)
	r.mu.Unlock()

	r.metrics.CodesIssued.Inc()
	return code, nil
}

// Delete removes the record from its owning bucket. Deleting a record that
// is already gone is a logged no-op, not an error.
func (r *Registry) Delete(code *Code) {
	r.mu.Lock()
	removed := r.removeLocked(code)
	r.mu.Unlock()

	if !removed {
		r.logger.Debug(context.Background(), "code already removed", "id", code.ID)
	}
}

// Consume redeems the most recent pending code for email. On success the
// record is deleted. An expired match is deleted eagerly and reported as
// common.ErrCodeExpired; no match yields common.ErrCodeNotFound.
func (r *Registry) Consume(email, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	bucket := r.byEmail[email]
	for i := len(bucket) - 1; i >= 0; i-- {
		c := bucket[i]
		if c.Code != value {
			continue
		}
		r.removeLocked(c)
		if c.Expired(r.now()) {
			r.metrics.CodesConsumed.WithLabelValues("expired").Inc()
			return common.ErrCodeExpired
		}
		r.metrics.CodesConsumed.WithLabelValues("success").Inc()
		return nil
	}

	r.metrics.CodesConsumed.WithLabelValues("not_found").Inc()
	return common.ErrCodeNotFound
}

// Pending returns the number of codes currently held for email.
func (r *Registry) Pending(email string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byEmail[email])
}

// Run sweeps expired codes at a fixed cadence until ctx is cancelled.
func (r *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(r.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := r.sweep(); n > 0 {
				r.logger.Info(ctx, "expired codes deleted", "count", n)
			}
		case <-ctx.Done():
			return
		}
	}
}

// sweep removes every expired record, re-checking expiry under the lock so
// a record deleted manually in the meantime is simply skipped.
func (r *Registry) sweep() int {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for email, bucket := range r.byEmail {
		kept := bucket[:0]
		for _, c := range bucket {
			if c.Expired(now) {
				removed++
				continue
			}
			kept = append(kept, c)
		}
		if len(kept) == 0 {
			delete(r.byEmail, email)
			continue
		}
		r.byEmail[email] = kept
	}
	return removed
}

func (r *Registry) removeLocked(code *Code) bool {
	bucket := r.byEmail[code.Email]
	for i, c := range bucket {
		if c.ID != code.ID {
			continue
		}
		bucket = append(bucket[:i], bucket[i+1:]...)
		if len(bucket) == 0 {
			delete(r.byEmail, code.Email)
		} else {
			r.byEmail[code.Email] = bucket
		}
		return true
	}
	return false
}
