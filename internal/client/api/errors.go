package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/genesisio/genesisio/internal/common"
)

var (
	// ErrUnavailable marks transport failures: the server never produced a
	// response, so nothing can be said about the session's validity.
	ErrUnavailable = errors.New("server unavailable")
)

// ExpiredTokenError is returned when the server rejects an access token as
// expired. It carries the server-reported expiry so the UI can say when the
// session lapsed. Matches common.ErrTokenExpired via errors.Is.
type ExpiredTokenError struct {
	ExpiredAt time.Time
}

func (e *ExpiredTokenError) Error() string {
	return fmt.Sprintf("access token expired at %s", e.ExpiredAt.Format(time.RFC3339))
}

func (e *ExpiredTokenError) Is(target error) bool {
	return target == common.ErrTokenExpired
}
