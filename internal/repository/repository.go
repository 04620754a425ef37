package repository

import (
	"context"
	"time"

	"github.com/mjheves/account-service/internal/domain"
)

// UserRepository defines the interface for account persistence operations.
type UserRepository interface {
	// Create inserts a new user into the store.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Update modifies an existing user in the store.
	Update(ctx context.Context, user *domain.User) error

	// List returns a page of users ordered by creation time.
	List(ctx context.Context, limit, offset int) ([]domain.User, error)

	// Count returns the total number of users.
	Count(ctx context.Context) (int, error)

	// SetOTP stores a password-reset code and its expiry on the user,
	// overwriting any code still pending.
	SetOTP(ctx context.Context, userID, code string, expiresAt time.Time) error

	// ConsumeOTP writes the new password hash and clears the OTP fields in a
	// single atomic statement, conditional on the stored code still matching.
	// It returns false when no row matched, meaning the code was already
	// consumed or was never issued.
	ConsumeOTP(ctx context.Context, userID, passwordHash, code string) (bool, error)

	// SetProfilePhoto stores the blob-store reference for the user's photo.
	SetProfilePhoto(ctx context.Context, userID, photoKey string) error
}

// TokenBlacklist is the revocation ledger for bearer tokens. Entries expire
// on their own once the token's natural expiry passes.
type TokenBlacklist interface {
	// Revoke records the token as revoked until expiresAt. Revoking the same
	// token twice is harmless.
	Revoke(ctx context.Context, token string, expiresAt time.Time) error

	// IsRevoked reports whether the token is on the ledger.
	IsRevoked(ctx context.Context, token string) (bool, error)
}
