package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserJSON_RedactsCredentialMaterial(t *testing.T) {
	code := "042719"
	expiresAt := time.Now().Add(5 * time.Minute)
	u := User{
		ID:           "user-123",
		Name:         "Alice",
		Email:        "alice@example.com",
		PasswordHash: "$2a$10$secret-hash",
		Mobile:       "15551234567",
		OTPCode:      &code,
		OTPExpiresAt: &expiresAt,
	}

	data, err := json.Marshal(u)
	require.NoError(t, err)

	body := string(data)
	assert.NotContains(t, body, "secret-hash")
	assert.NotContains(t, body, "042719")
	assert.Contains(t, body, "alice@example.com")
}

func TestHasPendingOTP(t *testing.T) {
	code := "042719"
	expiresAt := time.Now().Add(-time.Minute)

	var u User
	assert.False(t, u.HasPendingOTP())

	u.OTPCode = &code
	assert.False(t, u.HasPendingOTP())

	// An expired pair still counts as pending; expiry is the caller's check.
	u.OTPExpiresAt = &expiresAt
	assert.True(t, u.HasPendingOTP())
}
