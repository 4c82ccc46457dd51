// Package refreshtokens maintains the durable registry of issued refresh
// tokens and the background sweeper that reclaims expired records.
package refreshtokens

import (
	"context"
	"time"
)

type Repository interface {
	// Create persists a new record with expires_at = now + validity.
	Create(ctx context.Context, userID string, token string, validity time.Duration) error

	// Find returns the record for the given token value, or
	// common.ErrorNotFound.
	Find(ctx context.Context, token string) (*RefreshToken, error)

	// DeleteByToken removes the matching record. It reports false when no
	// record matched; "already gone" is not an error.
	DeleteByToken(ctx context.Context, token string) (bool, error)

	// DeleteExpired bulk-removes all records with expires_at <= now and
	// returns the number removed. Safe to call concurrently with Create
	// and DeleteByToken.
	DeleteExpired(ctx context.Context) (int64, error)

	// DeleteByUser removes every record belonging to userID (used after a
	// password reset to force re-authentication everywhere).
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}
