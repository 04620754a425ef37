package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleInput struct {
	Email           string `validate:"required,email"`
	OTP             string `validate:"required,len=6,numeric"`
	NewPassword     string `validate:"required,min=8"`
	ConfirmPassword string `validate:"required,eqfield=NewPassword"`
}

func TestValidate_OK(t *testing.T) {
	err := Validate(sampleInput{
		Email:           "alice@example.com",
		OTP:             "042719",
		NewPassword:     "Sup3rSecret",
		ConfirmPassword: "Sup3rSecret",
	})
	assert.NoError(t, err)
}

func TestValidate_CollectsFieldErrors(t *testing.T) {
	err := Validate(sampleInput{
		Email:           "not-an-email",
		OTP:             "12345",
		NewPassword:     "short",
		ConfirmPassword: "different",
	})
	require.Error(t, err)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)

	fields := validationErr.Fields()
	assert.Contains(t, fields, "Email")
	assert.Contains(t, fields, "OTP")
	assert.Contains(t, fields, "NewPassword")
	assert.Contains(t, fields, "ConfirmPassword")
	assert.Equal(t, "must be a valid email address", fields["Email"])
	assert.Equal(t, "must be exactly 6 characters", fields["OTP"])
}

func TestValidate_NonNumericOTP(t *testing.T) {
	err := Validate(sampleInput{
		Email:           "alice@example.com",
		OTP:             "04271x",
		NewPassword:     "Sup3rSecret",
		ConfirmPassword: "Sup3rSecret",
	})
	require.Error(t, err)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields(), "OTP")
}
