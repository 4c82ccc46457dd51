package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/genesisio/genesisio/internal/common"
	"github.com/genesisio/genesisio/internal/logging"
	"github.com/genesisio/genesisio/internal/server/auth"
	"github.com/genesisio/genesisio/internal/server/codes"
	"github.com/genesisio/genesisio/internal/server/config"
	"github.com/genesisio/genesisio/internal/server/mailer"
	"github.com/genesisio/genesisio/internal/server/metrics"
	"github.com/genesisio/genesisio/internal/server/refreshtokens"
	"golang.org/x/crypto/bcrypt"
)

// PasswordChangeRestriction blocks password resets for accounts whose
// password was already changed within this window.
const PasswordChangeRestriction = 21 * 24 * time.Hour

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type Service struct {
	repo                         Repository
	refreshTokenRepo             refreshtokens.Repository
	codeRegistry                 *codes.Registry
	mailer                       mailer.Sender
	metrics                      *metrics.Metrics
	logger                       logging.Logger
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	verificationBaseURL          string
}

func NewService(repo Repository, refreshTokenRepo refreshtokens.Repository,
	codeRegistry *codes.Registry, sender mailer.Sender, m *metrics.Metrics,
	logger logging.Logger, cfg *config.Config) *Service {
	return &Service{
		repo:                         repo,
		refreshTokenRepo:             refreshTokenRepo,
		codeRegistry:                 codeRegistry,
		mailer:                       sender,
		metrics:                      m,
		logger:                       logger.With("module", "users"),
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		verificationBaseURL:          cfg.VerificationBaseURL,
	}
}

// Register creates an account with a bcrypt-hashed password and emails a
// signed verification link. The link token is a short-lived JWT carrying the
// new user's identity.
func (s *Service) Register(ctx context.Context, email, fullName, password string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &User{
		Email:        email,
		FullName:     fullName,
		PasswordHash: string(hash),
	}

	user, err = s.repo.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	linkToken, err := auth.GenerateToken(user.ID, user.Email, false, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}

	link := fmt.Sprintf("%s/api/auth/verify-email?token=%s", s.verificationBaseURL, linkToken)
	if err := s.mailer.Send(ctx, user.Email, "Verify your email",
		fmt.Sprintf("Follow the link to verify your account: %s", link)); err != nil {
		// Account exists; the user can request a fresh link later.
		s.logger.Warn(ctx, "verification mail failed", "error", err)
	}

	return user, nil
}

func (s *Service) generateAccessToken(user *User) (string, error) {
	return auth.GenerateToken(user.ID, user.Email, user.Admin, s.jwtSecret, s.accessTokenValidityDuration)
}

func (s *Service) generateRefreshToken() (string, error) {
	return common.MakeRandHexString(32)
}

// Login verifies credentials and issues a token pair: a signed access JWT
// plus an opaque refresh token persisted with the configured validity.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*User, *TokenPair, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.metrics.Logins.WithLabelValues("unauthorized").Inc()
			return nil, nil, common.ErrorUnauthorized
		}
		return nil, nil, common.ErrorInternal
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.metrics.Logins.WithLabelValues("unauthorized").Inc()
		return nil, nil, common.ErrorUnauthorized
	}

	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, nil, common.ErrorInternal
	}

	refreshToken, err := s.generateRefreshToken()
	if err != nil {
		return nil, nil, common.ErrorInternal
	}

	if err := s.refreshTokenRepo.Create(ctx, user.ID, refreshToken, s.refreshTokenValidityDuration); err != nil {
		return nil, nil, common.ErrorInternal
	}

	s.metrics.Logins.WithLabelValues("success").Inc()
	return user, &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Logout deletes the refresh token record. A token that is absent (already
// swept, or never issued) reports false without an error.
func (s *Service) Logout(ctx context.Context, refreshToken string) (bool, error) {
	deleted, err := s.refreshTokenRepo.DeleteByToken(ctx, refreshToken)
	if err != nil {
		return false, common.ErrorInternal
	}
	s.metrics.Logouts.Inc()
	return deleted, nil
}

// Profile returns the account record for the authenticated user.
func (s *Service) Profile(ctx context.Context, userID string) (*User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}
	return user, nil
}

// CheckUser starts a password reset: it looks the account up by email,
// enforces the post-change restriction window, issues a one-time code and
// mails it. The returned user lets the caller display the reset form.
func (s *Service) CheckUser(ctx context.Context, email string) (*User, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}

	if time.Since(user.PasswordChangedAt) < PasswordChangeRestriction {
		return nil, common.ErrPasswordChangeRestricted
	}

	code, err := s.codeRegistry.Request(user.Email)
	if err != nil {
		return nil, common.ErrorInternal
	}

	if err := s.mailer.Send(ctx, user.Email, "Password reset code",
		fmt.Sprintf("Your verification code is %s. It expires in 24 hours.", code.Code)); err != nil {
		// Undo the issued code so a dead mailbox cannot accumulate secrets.
		s.codeRegistry.Delete(code)
		return nil, common.ErrorInternal
	}

	return user, nil
}

// ResetPassword redeems a one-time code and replaces the password. All of
// the user's refresh tokens are revoked so every session must log in again.
func (s *Service) ResetPassword(ctx context.Context, userID, email, code, newPassword string) error {
	if err := s.codeRegistry.Consume(email, code); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return common.ErrorInternal
	}

	if err := s.repo.UpdatePassword(ctx, userID, string(hash)); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return common.ErrorInternal
	}

	if n, err := s.refreshTokenRepo.DeleteByUser(ctx, userID); err != nil {
		s.logger.Error(ctx, "revoking refresh tokens failed", "user_id", userID, "error", err)
	} else if n > 0 {
		s.logger.Info(ctx, "refresh tokens revoked", "user_id", userID, "count", n)
	}

	return nil
}

// VerifyEmail redeems a signed verification link token and marks the
// account verified. The numeric reset codes are a separate mechanism.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	claims, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return common.ErrTokenExpired
		}
		return common.ErrInvalidToken
	}

	if err := s.repo.MarkVerified(ctx, claims.UserID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return common.ErrorInternal
	}

	return nil
}
