package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/genesisio/genesisio/internal/common"
)

func TestGenerateAndParse_Success(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")

	tok, err := GenerateToken("user-123", "a@b.com", false, secret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	claims, err := ParseToken(tok, secret)
	if err != nil {
		t.Fatalf("ParseToken error: %v", err)
	}
	if claims.UserID != "user-123" {
		t.Fatalf("userID mismatch: got %q want %q", claims.UserID, "user-123")
	}
	if claims.Email != "a@b.com" {
		t.Fatalf("email mismatch: got %q", claims.Email)
	}
	if claims.Admin {
		t.Fatalf("unexpected admin flag")
	}
}

func TestParseToken_ExpiredCarriesTimestamp(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")

	before := time.Now().Add(-1 * time.Second)
	tok, err := GenerateToken("u1", "u1@x.com", false, secret, -1*time.Second)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	_, err = ParseToken(tok, secret)
	if err == nil {
		t.Fatalf("expected error for expired token, got nil")
	}
	if !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("expected common.ErrTokenExpired, got %v", err)
	}

	var expired *ExpiredError
	if !errors.As(err, &expired) {
		t.Fatalf("expected *ExpiredError, got %T", err)
	}
	// The embedded expiry must reflect the original TTL, not the parse time.
	if expired.ExpiredAt.After(time.Now()) || expired.ExpiredAt.Before(before.Add(-2*time.Second)) {
		t.Fatalf("implausible ExpiredAt: %v", expired.ExpiredAt)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken("u2", "u2@x.com", true, []byte("right-secret"), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	_, err = ParseToken(tok, []byte("wrong-secret"))
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseToken_MalformedString(t *testing.T) {
	t.Parallel()

	_, err := ParseToken("not.a.jwt", []byte("k"))
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
