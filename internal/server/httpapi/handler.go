// Package httpapi exposes the platform's HTTP/JSON API: authentication,
// profile, password reset, and presigned image URLs.
package httpapi

import (
	"errors"
	"net/http"

	"github.com/genesisio/genesisio/internal/common"
	"github.com/genesisio/genesisio/internal/logging"
	"github.com/genesisio/genesisio/internal/server/blobs"
	"github.com/genesisio/genesisio/internal/server/config"
	"github.com/genesisio/genesisio/internal/server/metrics"
	"github.com/genesisio/genesisio/internal/server/users"
)

// Handler wires HTTP endpoints to the user and blob services.
type Handler struct {
	logger    logging.Logger
	users     *users.Service
	blobs     *blobs.Service
	metrics   *metrics.Metrics
	secretKey []byte
}

func NewHandler(logger logging.Logger, userService *users.Service, blobService *blobs.Service,
	m *metrics.Metrics, cfg *config.Config) *Handler {
	return &Handler{
		logger:    logger.With("module", "httpapi"),
		users:     userService,
		blobs:     blobService,
		metrics:   m,
		secretKey: []byte(cfg.SecretKey),
	}
}

// Register wires all routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/login", h.handleLogin)
	mux.HandleFunc("DELETE /api/auth/logout", h.handleLogout)
	mux.HandleFunc("POST /api/auth/register", h.handleRegister)
	mux.HandleFunc("GET /api/auth/check-user/{email}", h.handleCheckUser)
	mux.HandleFunc("POST /api/auth/reset-password/{userId}/{email}", h.handleResetPassword)
	mux.HandleFunc("GET /api/auth/verify-email", h.handleVerifyEmail)
	mux.HandleFunc("GET /api/user", h.requireAuth(h.handleProfile))
	mux.HandleFunc("GET /api/img/upload-url", h.requireAuth(h.handleUploadURL))
	mux.HandleFunc("GET /api/img/{key...}", h.requireAuth(h.handleDownloadURL))
	mux.Handle("GET /metrics", h.metrics.Handler())
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, pair, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			writeMessage(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		h.internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		User:         toUserResponse(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		Message:      "login successful",
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	deleted, err := h.users.Logout(r.Context(), req.RefreshToken)
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	// An unknown token still reports success; the session is gone either way.
	if !deleted {
		h.logger.Debug(r.Context(), "logout for unknown refresh token")
	}
	writeMessage(w, http.StatusOK, "logged out")
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "email and password are required")
		return
	}

	if _, err := h.users.Register(r.Context(), req.Email, req.FullName, req.Password); err != nil {
		h.internalError(w, r, err)
		return
	}

	writeMessage(w, http.StatusCreated, "account created, check your email to verify it")
}

func (h *Handler) handleCheckUser(w http.ResponseWriter, r *http.Request) {
	email := r.PathValue("email")

	user, err := h.users.CheckUser(r.Context(), email)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorNotFound):
			writeMessage(w, http.StatusNotFound, "no account for this email")
		case errors.Is(err, common.ErrPasswordChangeRestricted):
			writeMessage(w, http.StatusForbidden, "password was changed recently, try again later")
		default:
			h.internalError(w, r, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, checkUserResponse{
		User:     toUserResponse(user),
		CodeSent: true,
		Message:  "verification code sent",
	})
}

func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	email := r.PathValue("email")

	var req resetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.NewPassword == "" || req.NewPassword != req.ConfirmPassword {
		writeMessage(w, http.StatusBadRequest, "passwords do not match")
		return
	}

	err := h.users.ResetPassword(r.Context(), userID, email, req.Code, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrCodeExpired):
			writeMessage(w, http.StatusBadRequest, "verification code expired")
		case errors.Is(err, common.ErrCodeNotFound):
			writeMessage(w, http.StatusBadRequest, "invalid verification code")
		case errors.Is(err, common.ErrorNotFound):
			writeMessage(w, http.StatusNotFound, "no account for this email")
		default:
			h.internalError(w, r, err)
		}
		return
	}

	writeMessage(w, http.StatusOK, "password updated, log in with the new password")
}

func (h *Handler) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeMessage(w, http.StatusBadRequest, "token is required")
		return
	}

	err := h.users.VerifyEmail(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrTokenExpired):
			writeMessage(w, http.StatusForbidden, "verification link expired")
		case errors.Is(err, common.ErrInvalidToken):
			writeMessage(w, http.StatusBadRequest, "invalid verification link")
		case errors.Is(err, common.ErrorNotFound):
			writeMessage(w, http.StatusNotFound, "account no longer exists")
		default:
			h.internalError(w, r, err)
		}
		return
	}

	writeMessage(w, http.StatusOK, "email verified")
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "authorization required")
		return
	}

	user, err := h.users.Profile(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			writeMessage(w, http.StatusNotFound, "account no longer exists")
			return
		}
		h.internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{User: toUserResponse(user), Message: "ok"})
}

func (h *Handler) handleUploadURL(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "authorization required")
		return
	}

	key, url, err := h.blobs.PresignUpload(r.Context(), claims.UserID)
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadURLResponse{Key: key, URL: url})
}

func (h *Handler) handleDownloadURL(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		writeMessage(w, http.StatusBadRequest, "key is required")
		return
	}

	url, err := h.blobs.PresignDownload(r.Context(), key)
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, downloadURLResponse{URL: url})
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	writeMessage(w, http.StatusInternalServerError, "internal error")
}
