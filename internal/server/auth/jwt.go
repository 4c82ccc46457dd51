// Package auth issues and verifies the signed access tokens used by the
// platform. Tokens are stateless: validity is determined purely by the
// HMAC signature and the embedded expiry.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/genesisio/genesisio/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the identity claim set embedded in every access token.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
	Email  string `json:"email"`
	Admin  bool   `json:"admin,omitempty"`
}

// ExpiredError reports an access token that was valid but is past its TTL.
// It carries the original expiry so clients can distinguish "session lapsed"
// from "never logged in". Matches common.ErrTokenExpired via errors.Is.
type ExpiredError struct {
	ExpiredAt time.Time
}

func (e *ExpiredError) Error() string {
	return fmt.Sprintf("token expired at %s", e.ExpiredAt.Format(time.RFC3339))
}

func (e *ExpiredError) Is(target error) bool {
	return target == common.ErrTokenExpired
}

// GenerateToken mints a signed HS256 access token for the given identity.
// The TTL comes from server configuration, never from the caller of the
// HTTP API.
func GenerateToken(userID, email string, admin bool, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID: userID,
		Email:  email,
		Admin:  admin,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies a token string and returns its claims.
// Expired tokens yield *ExpiredError; any other signature or format
// failure yields common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, common.ErrInvalidToken
		}
		return secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) && claims.ExpiresAt != nil {
			return nil, &ExpiredError{ExpiredAt: claims.ExpiresAt.Time}
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
