package users

import "time"

// User is the account record the credential lifecycle touches. Plan,
// deposit, and KYC data live elsewhere and are not modeled here.
type User struct {
	ID                string
	Email             string
	FullName          string
	PasswordHash      string
	Admin             bool
	Verified          bool
	PasswordChangedAt time.Time
	CreatedAt         time.Time
}
