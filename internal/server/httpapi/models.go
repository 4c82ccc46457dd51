package httpapi

import (
	"time"

	"github.com/genesisio/genesisio/internal/server/users"
)

type messageResponse struct {
	Message string `json:"message"`
}

type expiredResponse struct {
	Message   string    `json:"message"`
	ExpiredAt time.Time `json:"expiredAt"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"createdAt"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User         userResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	Message      string       `json:"message"`
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type registerRequest struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Password string `json:"password"`
}

type checkUserResponse struct {
	User     userResponse `json:"user"`
	CodeSent bool         `json:"codeSent"`
	Message  string       `json:"message"`
}

type resetPasswordRequest struct {
	Code            string `json:"code"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

type profileResponse struct {
	User    userResponse `json:"user"`
	Message string       `json:"message"`
}

type uploadURLResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type downloadURLResponse struct {
	URL string `json:"url"`
}

func toUserResponse(u *users.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Verified:  u.Verified,
		CreatedAt: u.CreatedAt,
	}
}
