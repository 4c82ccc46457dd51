// Package users contains the account repository and the authentication
// service: login/logout, registration, verification, and password reset.
package users

import "context"

type Repository interface {
	Create(ctx context.Context, user *User) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
	MarkVerified(ctx context.Context, id string) error
}
