package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	type payload struct {
		UserID string `json:"user_id"`
	}

	event, err := NewEvent("accounts.user.registered", "user-123", "user", "account-service", payload{UserID: "user-123"})
	require.NoError(t, err)

	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "accounts.user.registered", event.EventType)
	assert.Equal(t, "user-123", event.AggregateID)
	assert.Equal(t, "user", event.AggregateType)
	assert.Equal(t, 1, event.Version)
	assert.WithinDuration(t, time.Now(), event.Timestamp, 5*time.Second)

	var got payload
	require.NoError(t, event.UnmarshalData(&got))
	assert.Equal(t, "user-123", got.UserID)
}

func TestEventRoundTrip(t *testing.T) {
	event, err := NewEvent("accounts.user.password_changed", "user-123", "user", "account-service",
		map[string]string{"reason": "otp_reset"})
	require.NoError(t, err)
	event.WithCorrelationID("corr-42")

	raw, err := event.Marshal()
	require.NoError(t, err)

	decoded, err := UnmarshalEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, event.EventID, decoded.EventID)
	assert.Equal(t, "corr-42", decoded.CorrelationID)

	var data map[string]string
	require.NoError(t, decoded.UnmarshalData(&data))
	assert.Equal(t, "otp_reset", data["reason"])
}
