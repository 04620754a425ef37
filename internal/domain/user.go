package domain

import (
	"time"
)

// User represents a registered account in the system.
//
// The OTP fields drive the password-reset flow: both are set when a reset
// code is issued and both are cleared when the code is consumed. They are
// written and cleared together so the pair is never half-populated.
type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Mobile       string     `json:"mobile"`
	ProfilePhoto string     `json:"profile_photo,omitempty"`
	OTPCode      *string    `json:"-"`
	OTPExpiresAt *time.Time `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// HasPendingOTP reports whether a reset code is on record, regardless of
// whether it has expired. Expiry is checked separately at consumption time.
func (u *User) HasPendingOTP() bool {
	return u.OTPCode != nil && u.OTPExpiresAt != nil
}

// Token is a bearer token returned to the client after authentication.
// It is never persisted; revocation is recorded separately.
type Token struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}
