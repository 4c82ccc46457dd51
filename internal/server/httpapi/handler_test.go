package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/genesisio/genesisio/internal/common"
	"github.com/genesisio/genesisio/internal/logging"
	"github.com/genesisio/genesisio/internal/server/auth"
	"github.com/genesisio/genesisio/internal/server/blobs"
	"github.com/genesisio/genesisio/internal/server/codes"
	"github.com/genesisio/genesisio/internal/server/config"
	"github.com/genesisio/genesisio/internal/server/mailer"
	"github.com/genesisio/genesisio/internal/server/metrics"
	"github.com/genesisio/genesisio/internal/server/refreshtokens"
	"github.com/genesisio/genesisio/internal/server/users"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*users.User
	byEmail map[string]*users.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: make(map[string]*users.User), byEmail: make(map[string]*users.User)}
}

func (r *memUserRepo) Create(ctx context.Context, user *users.User) (*users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	r.byID[user.ID] = user
	r.byEmail[user.Email] = user
	return user, nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byEmail[email]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

func (r *memUserRepo) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = passwordHash
	u.PasswordChangedAt = time.Now()
	return nil
}

func (r *memUserRepo) MarkVerified(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.Verified = true
	return nil
}

type memTokenRepo struct {
	mu      sync.Mutex
	byToken map[string]*refreshtokens.RefreshToken
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{byToken: make(map[string]*refreshtokens.RefreshToken)}
}

func (r *memTokenRepo) Create(ctx context.Context, userID string, token string, validity time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byToken[token] = &refreshtokens.RefreshToken{
		ID: uuid.NewString(), UserID: userID, Token: token,
		CreatedAt: time.Now(), Expires: time.Now().Add(validity),
	}
	return nil
}

func (r *memTokenRepo) Find(ctx context.Context, token string) (*refreshtokens.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.byToken[token]; ok {
		return t, nil
	}
	return nil, common.ErrorNotFound
}

func (r *memTokenRepo) DeleteByToken(ctx context.Context, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byToken[token]; !ok {
		return false, nil
	}
	delete(r.byToken, token)
	return true, nil
}

func (r *memTokenRepo) DeleteExpired(ctx context.Context) (int64, error) { return 0, nil }

func (r *memTokenRepo) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for token, t := range r.byToken {
		if t.UserID == userID {
			delete(r.byToken, token)
			n++
		}
	}
	return n, nil
}

type testServer struct {
	srv      *httptest.Server
	repo     *memUserRepo
	registry *codes.Registry
	cfg      *config.Config
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := logging.NewSlogLogger(slog.New(slog.DiscardHandler))
	m := metrics.New()
	cfg := &config.Config{}
	cfg.LoadDefaults()

	repo := newMemUserRepo()
	registry := codes.NewRegistry(logger, m, cfg.CodeTTL, cfg.CodeSweepInterval)
	svc := users.NewService(repo, newMemTokenRepo(), registry, mailer.Noop{}, m, logger, cfg)

	h := NewHandler(logger, svc, blobs.NewService(cfg), m, cfg)
	mux := http.NewServeMux()
	h.Register(mux)

	ts := &testServer{srv: httptest.NewServer(mux), repo: repo, registry: registry, cfg: cfg}
	t.Cleanup(ts.srv.Close)
	return ts
}

func (ts *testServer) addUser(t *testing.T, email, password string) *users.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u, err := ts.repo.Create(context.Background(), &users.User{
		Email: email, FullName: "Test User", PasswordHash: string(hash),
	})
	require.NoError(t, err)
	u.PasswordChangedAt = time.Now().Add(-30 * 24 * time.Hour)
	return u
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, ts.srv.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}
	resp, err := ts.srv.Client().Do(req)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	require.NoError(t, resp.Body.Close())
	return resp, decoded
}

func TestLoginEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.addUser(t, "x@y.com", "pa55word")

	resp, body := ts.do(t, http.MethodPost, "/api/auth/login", "",
		map[string]string{"email": "x@y.com", "password": "pa55word"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, body["accessToken"])
	require.NotEmpty(t, body["refreshToken"])
	require.Equal(t, "x@y.com", body["user"].(map[string]any)["email"])

	resp, _ = ts.do(t, http.MethodPost, "/api/auth/login", "",
		map[string]string{"email": "x@y.com", "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogoutEndpoint_UnknownTokenStillSucceeds(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(t, http.MethodDelete, "/api/auth/logout", "",
		map[string]string{"refreshToken": "never-issued"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "logged out", body["message"])
}

func TestProfileEndpoint_AuthStates(t *testing.T) {
	ts := newTestServer(t)
	u := ts.addUser(t, "x@y.com", "pa55word")

	t.Run("missing token", func(t *testing.T) {
		resp, _ := ts.do(t, http.MethodGet, "/api/user", "", nil)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("garbage token", func(t *testing.T) {
		resp, _ := ts.do(t, http.MethodGet, "/api/user", "garbage", nil)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("expired token carries expiry", func(t *testing.T) {
		token, err := auth.GenerateToken(u.ID, u.Email, false, []byte(ts.cfg.SecretKey), -time.Minute)
		require.NoError(t, err)

		resp, body := ts.do(t, http.MethodGet, "/api/user", token, nil)
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
		require.NotEmpty(t, body["expiredAt"])
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := auth.GenerateToken(u.ID, u.Email, false, []byte(ts.cfg.SecretKey), time.Minute)
		require.NoError(t, err)

		resp, body := ts.do(t, http.MethodGet, "/api/user", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, u.ID, body["user"].(map[string]any)["id"])
	})
}

func TestCheckUserAndResetPasswordFlow(t *testing.T) {
	ts := newTestServer(t)
	u := ts.addUser(t, "x@y.com", "oldpassword")

	resp, body := ts.do(t, http.MethodGet, "/api/auth/check-user/x@y.com", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, body["codeSent"])
	require.Equal(t, 1, ts.registry.Pending("x@y.com"))

	// Wrong code is rejected.
	resp, _ = ts.do(t, http.MethodPost, "/api/auth/reset-password/"+u.ID+"/x@y.com", "",
		map[string]string{"code": "00000000", "newPassword": "newpassword", "confirmPassword": "newpassword"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Redeem the real code.
	code, err := ts.registry.Request("x@y.com")
	require.NoError(t, err)
	resp, _ = ts.do(t, http.MethodPost, "/api/auth/reset-password/"+u.ID+"/x@y.com", "",
		map[string]string{"code": code.Code, "newPassword": "newpassword", "confirmPassword": "newpassword"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodPost, "/api/auth/login", "",
		map[string]string{"email": "x@y.com", "password": "newpassword"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCheckUserEndpoint_RecentChangeRestricted(t *testing.T) {
	ts := newTestServer(t)
	u := ts.addUser(t, "x@y.com", "pa55word")
	u.PasswordChangedAt = time.Now()

	resp, _ := ts.do(t, http.MethodGet, "/api/auth/check-user/x@y.com", "", nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestVerifyEmailEndpoint(t *testing.T) {
	ts := newTestServer(t)
	u := ts.addUser(t, "x@y.com", "pa55word")

	token, err := auth.GenerateToken(u.ID, u.Email, false, []byte(ts.cfg.SecretKey), time.Minute)
	require.NoError(t, err)

	resp, _ := ts.do(t, http.MethodGet, "/api/auth/verify-email?token="+token, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, u.Verified)

	resp, _ = ts.do(t, http.MethodGet, "/api/auth/verify-email?token=garbage", "", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRegisterEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.do(t, http.MethodPost, "/api/auth/register", "",
		map[string]string{"email": "new@y.com", "fullName": "New User", "password": "pa55word"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodPost, "/api/auth/login", "",
		map[string]string{"email": "new@y.com", "password": "pa55word"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
