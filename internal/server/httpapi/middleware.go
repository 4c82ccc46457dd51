package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/genesisio/genesisio/internal/common"
	"github.com/genesisio/genesisio/internal/server/auth"
)

type ctxKey int

const claimsKey ctxKey = iota

// claimsFromContext returns the verified claims placed by requireAuth.
func claimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok
}

// requireAuth verifies the Bearer access token. A missing or malformed
// token yields 401; an expired one yields 403 with the original expiry so
// the client can distinguish "session lapsed" from "never logged in".
func (h *Handler) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(common.AuthorizationHeaderName)
		if header == "" || !strings.HasPrefix(header, common.BearerPrefix) {
			writeMessage(w, http.StatusUnauthorized, "authorization required")
			return
		}

		claims, err := auth.ParseToken(strings.TrimPrefix(header, common.BearerPrefix), h.secretKey)
		if err != nil {
			var expired *auth.ExpiredError
			if errors.As(err, &expired) {
				writeJSON(w, http.StatusForbidden, expiredResponse{
					Message:   "token expired",
					ExpiredAt: expired.ExpiredAt,
				})
				return
			}
			writeMessage(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	}
}
