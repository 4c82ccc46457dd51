// Package api is the typed HTTP client for the platform backend. It maps
// transport and status-code failures to sentinel errors so callers never
// inspect HTTP details.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/genesisio/genesisio/internal/common"
)

// API is the backend surface the session controller depends on.
type API interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Logout(ctx context.Context, refreshToken string) error
	Register(ctx context.Context, email, fullName, password string) error
	Profile(ctx context.Context, accessToken string) (*User, error)
	CheckUser(ctx context.Context, email string) (*User, error)
	ResetPassword(ctx context.Context, userID, email, code, newPassword string) error
}

// User mirrors the server's user payload.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"createdAt"`
}

// LoginResult is the outcome of a successful login.
type LoginResult struct {
	User         User   `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var result LoginResult
	err := c.call(ctx, http.MethodPost, "/api/auth/login", "",
		map[string]string{"email": email, "password": password}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	return c.call(ctx, http.MethodDelete, "/api/auth/logout", "",
		map[string]string{"refreshToken": refreshToken}, nil)
}

func (c *Client) Register(ctx context.Context, email, fullName, password string) error {
	return c.call(ctx, http.MethodPost, "/api/auth/register", "",
		map[string]string{"email": email, "fullName": fullName, "password": password}, nil)
}

func (c *Client) Profile(ctx context.Context, accessToken string) (*User, error) {
	var result struct {
		User User `json:"user"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/user", accessToken, nil, &result); err != nil {
		return nil, err
	}
	return &result.User, nil
}

func (c *Client) CheckUser(ctx context.Context, email string) (*User, error) {
	var result struct {
		User User `json:"user"`
	}
	path := "/api/auth/check-user/" + url.PathEscape(email)
	if err := c.call(ctx, http.MethodGet, path, "", nil, &result); err != nil {
		return nil, err
	}
	return &result.User, nil
}

func (c *Client) ResetPassword(ctx context.Context, userID, email, code, newPassword string) error {
	path := fmt.Sprintf("/api/auth/reset-password/%s/%s", url.PathEscape(userID), url.PathEscape(email))
	return c.call(ctx, http.MethodPost, path, "", map[string]string{
		"code":            code,
		"newPassword":     newPassword,
		"confirmPassword": newPassword,
	}, nil)
}

// call performs one request and decodes the JSON response into out (when
// non-nil). Status codes map to sentinel errors; a transport failure maps
// to ErrUnavailable.
func (c *Client) call(ctx context.Context, method, path, accessToken string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return c.statusError(resp)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) statusError(resp *http.Response) error {
	var payload struct {
		Message   string     `json:"message"`
		ExpiredAt *time.Time `json:"expiredAt"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&payload)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return common.ErrorUnauthorized
	case http.StatusForbidden:
		if payload.ExpiredAt != nil {
			return &ExpiredTokenError{ExpiredAt: *payload.ExpiredAt}
		}
		return common.ErrPasswordChangeRestricted
	case http.StatusNotFound:
		return common.ErrorNotFound
	case http.StatusBadRequest:
		if payload.Message != "" {
			return fmt.Errorf("request rejected: %s", payload.Message)
		}
		return fmt.Errorf("request rejected")
	default:
		return fmt.Errorf("%w: status %d", common.ErrorInternal, resp.StatusCode)
	}
}
