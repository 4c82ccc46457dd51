package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/genesisio/genesisio/internal/client/api"
	"github.com/genesisio/genesisio/internal/client/config"
	"github.com/genesisio/genesisio/internal/common"
	"github.com/genesisio/genesisio/internal/logging"
)

// State is the controller's lifecycle position. Transitions only move
// forward around the cycle; a failed login falls back to LoggedOut.
type State string

const (
	StateLoggedOut  State = "logged_out"
	StateLoggingIn  State = "logging_in"
	StateLoggedIn   State = "logged_in"
	StateLoggingOut State = "logging_out"
)

// ThrottleError reports a verification-code request inside the cooldown
// window. Matches common.ErrThrottleActive via errors.Is.
type ThrottleError struct {
	Remaining time.Duration
}

func (e *ThrottleError) Error() string {
	return fmt.Sprintf("wait %s before requesting another code", e.Remaining.Round(time.Second))
}

func (e *ThrottleError) Is(target error) bool {
	return target == common.ErrThrottleActive
}

// Controller owns the session lifecycle on the client: login, logout, the
// periodic profile refresh, and the code-request throttle. One controller
// serves one user session at a time.
type Controller struct {
	api    api.API
	logger logging.Logger
	kv     *FileStore

	refreshInterval time.Duration
	codeCooldown    time.Duration
	logoutTimeout   time.Duration
	now             func() time.Time

	mu              sync.Mutex
	tokens          TokenStore
	state           State
	user            *api.User
	lastCodeRequest time.Time
	cancelRefresh   context.CancelFunc
}

func NewController(apiClient api.API, tokens TokenStore, kv *FileStore,
	logger logging.Logger, cfg *config.Config) *Controller {
	return &Controller{
		api:             apiClient,
		logger:          logger.With("module", "session"),
		kv:              kv,
		tokens:          tokens,
		refreshInterval: cfg.ProfileRefreshInterval,
		codeCooldown:    cfg.CodeRequestCooldown,
		logoutTimeout:   cfg.LogoutTimeout,
		now:             time.Now,
		state:           StateLoggedOut,
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// User returns the most recently fetched profile, or nil when logged out.
func (c *Controller) User() *api.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

// Login authenticates and persists the session artifacts: the refresh token
// in the strategy-selected tier, the access token and profile in the kv
// store. On success the profile refresh loop starts.
func (c *Controller) Login(ctx context.Context, email, password string) error {
	// A re-login replaces the previous session: its refresh loop must not
	// outlive it.
	c.mu.Lock()
	cancel := c.cancelRefresh
	c.cancelRefresh = nil
	c.state = StateLoggingIn
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	result, err := c.api.Login(ctx, email, password)
	if err != nil {
		c.setState(StateLoggedOut)
		return err
	}

	c.saveRefreshToken(ctx, result.RefreshToken)
	if err := c.kv.SaveAccessToken(ctx, result.AccessToken); err != nil {
		c.logger.Warn(ctx, "saving access token failed", "error", err)
	}
	c.storeProfile(ctx, &result.User)

	refreshCtx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	c.user = &result.User
	c.state = StateLoggedIn
	c.cancelRefresh = cancel
	c.mu.Unlock()

	go c.runRefreshLoop(refreshCtx)

	return nil
}

// Logout tears the session down. The remote call runs under a bounded
// timeout and its outcome is only logged: local teardown is unconditional,
// and the controller always ends LoggedOut.
func (c *Controller) Logout(ctx context.Context) {
	c.setState(StateLoggingOut)

	c.mu.Lock()
	cancel := c.cancelRefresh
	c.cancelRefresh = nil
	tokens := c.tokens
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	if refreshToken, err := tokens.RefreshToken(ctx); err == nil {
		remoteCtx, remoteCancel := context.WithTimeout(ctx, c.logoutTimeout)
		if err := c.api.Logout(remoteCtx, refreshToken); err != nil {
			c.logger.Warn(ctx, "remote logout failed", "error", err)
		}
		remoteCancel()
	}

	if _, err := tokens.DeleteRefreshToken(ctx); err != nil {
		c.logger.Warn(ctx, "deleting refresh token failed", "error", err)
	}
	if err := c.kv.Clear(ctx); err != nil {
		c.logger.Warn(ctx, "clearing session file failed", "error", err)
	}

	c.mu.Lock()
	c.user = nil
	c.state = StateLoggedOut
	c.mu.Unlock()
}

// RequestVerificationCode asks the server to email a one-time code. Inside
// the cooldown window it returns a ThrottleError without touching the
// network; the cooldown is independent of the code's server-side lifetime.
func (c *Controller) RequestVerificationCode(ctx context.Context, email string) (*api.User, error) {
	c.mu.Lock()
	if !c.lastCodeRequest.IsZero() {
		elapsed := c.now().Sub(c.lastCodeRequest)
		if elapsed < c.codeCooldown {
			remaining := c.codeCooldown - elapsed
			c.mu.Unlock()
			return nil, &ThrottleError{Remaining: remaining}
		}
	}
	c.mu.Unlock()

	user, err := c.api.CheckUser(ctx, email)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.lastCodeRequest = c.now()
	c.mu.Unlock()

	return user, nil
}

// ResetPassword redeems an emailed code against the server.
func (c *Controller) ResetPassword(ctx context.Context, userID, email, code, newPassword string) error {
	return c.api.ResetPassword(ctx, userID, email, code, newPassword)
}

// Register creates a new account.
func (c *Controller) Register(ctx context.Context, email, fullName, password string) error {
	return c.api.Register(ctx, email, fullName, password)
}

// Profile fetches a fresh profile using the stored access token and caches
// it locally.
func (c *Controller) Profile(ctx context.Context) (*api.User, error) {
	accessToken, err := c.kv.AccessToken(ctx)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}

	user, err := c.api.Profile(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	c.storeProfile(ctx, user)
	c.mu.Lock()
	c.user = user
	c.mu.Unlock()

	return user, nil
}

// runRefreshLoop re-fetches the profile at a fixed cadence. Failures are
// logged and retried at the next tick; an expired access token surfaces to
// the user on their next explicit action.
func (c *Controller) runRefreshLoop(ctx context.Context) {
	ticker := time.NewTicker(c.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := c.Profile(ctx); err != nil {
				c.logger.Warn(ctx, "profile refresh failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// saveRefreshToken attempts the transactional tier first. A rejected write
// demotes the session to the file tier so subsequent reads and writes stay
// consistent; the failure is never surfaced.
func (c *Controller) saveRefreshToken(ctx context.Context, token string) {
	c.mu.Lock()
	tokens := c.tokens
	c.mu.Unlock()

	err := tokens.SaveRefreshToken(ctx, token)
	if err == nil {
		return
	}
	c.logger.Warn(ctx, "transactional token write rejected, falling back", "error", err)

	c.mu.Lock()
	c.tokens = c.kv
	c.mu.Unlock()

	if err := c.kv.SaveRefreshToken(ctx, token); err != nil {
		c.logger.Error(ctx, "fallback token write failed", "error", err)
	}
}

func (c *Controller) storeProfile(ctx context.Context, user *api.User) {
	data, err := json.Marshal(user)
	if err != nil {
		c.logger.Warn(ctx, "encoding profile failed", "error", err)
		return
	}
	if err := c.kv.SaveProfile(ctx, data); err != nil {
		c.logger.Warn(ctx, "caching profile failed", "error", err)
	}
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}
