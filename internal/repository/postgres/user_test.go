package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/mjheves/account-service/pkg/errors"
	"github.com/mjheves/account-service/internal/domain"
)

var userColumns = []string{
	"id", "name", "email", "password_hash", "mobile",
	"profile_photo", "otp_code", "otp_expires_at", "created_at", "updated_at",
}

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *UserRepository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewUserRepository(mock)
}

func sampleUser() *domain.User {
	now := time.Now().UTC()
	return &domain.User{
		ID:           "6e7f0a9a-4a0a-4d6b-9a3b-111111111111",
		Name:         "Alice",
		Email:        "alice@example.com",
		PasswordHash: "$2a$10$hash",
		Mobile:       "15551234567",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestCreate(t *testing.T) {
	mock, repo := newMockRepo(t)
	u := sampleUser()

	mock.ExpectExec("INSERT INTO users").
		WithArgs(u.ID, u.Name, u.Email, u.PasswordHash, u.Mobile,
			u.ProfilePhoto, u.OTPCode, u.OTPExpiresAt, u.CreatedAt, u.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), u)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DuplicateEmail(t *testing.T) {
	mock, repo := newMockRepo(t)
	u := sampleUser()

	mock.ExpectExec("INSERT INTO users").
		WithArgs(u.ID, u.Name, u.Email, u.PasswordHash, u.Mobile,
			u.ProfilePhoto, u.OTPCode, u.OTPExpiresAt, u.CreatedAt, u.UpdatedAt).
		WillReturnError(errors.New(`ERROR: duplicate key value violates unique constraint "users_email_key" (SQLSTATE 23505)`))

	err := repo.Create(context.Background(), u)
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "ALREADY_EXISTS", appErr.Code)
}

func TestGetByEmail(t *testing.T) {
	mock, repo := newMockRepo(t)
	u := sampleUser()

	mock.ExpectQuery("(?s)SELECT (.+) FROM users").
		WithArgs(u.Email).
		WillReturnRows(pgxmock.NewRows(userColumns).AddRow(
			u.ID, u.Name, u.Email, u.PasswordHash, u.Mobile,
			"", nil, nil, u.CreatedAt, u.UpdatedAt,
		))

	got, err := repo.GetByEmail(context.Background(), u.Email)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Nil(t, got.OTPCode)
	assert.False(t, got.HasPendingOTP())
}

func TestGetByEmail_NotFound(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectQuery("(?s)SELECT (.+) FROM users").
		WithArgs("nobody@example.com").
		WillReturnRows(pgxmock.NewRows(userColumns))

	_, err := repo.GetByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGetByID_WithPendingOTP(t *testing.T) {
	mock, repo := newMockRepo(t)
	u := sampleUser()
	code := "042719"
	expiresAt := time.Now().UTC().Add(5 * time.Minute)

	mock.ExpectQuery("(?s)SELECT (.+) FROM users").
		WithArgs(u.ID).
		WillReturnRows(pgxmock.NewRows(userColumns).AddRow(
			u.ID, u.Name, u.Email, u.PasswordHash, u.Mobile,
			"", &code, &expiresAt, u.CreatedAt, u.UpdatedAt,
		))

	got, err := repo.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.OTPCode)
	assert.Equal(t, "042719", *got.OTPCode)
	assert.True(t, got.HasPendingOTP())
}

func TestList(t *testing.T) {
	mock, repo := newMockRepo(t)
	u := sampleUser()

	mock.ExpectQuery("(?s)SELECT (.+) FROM users").
		WithArgs(10, 0).
		WillReturnRows(pgxmock.NewRows(userColumns).AddRow(
			u.ID, u.Name, u.Email, u.PasswordHash, u.Mobile,
			"", nil, nil, u.CreatedAt, u.UpdatedAt,
		))

	users, err := repo.List(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, u.Email, users[0].Email)
}

func TestCount(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(7))

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, count)
}

func TestSetOTP(t *testing.T) {
	mock, repo := newMockRepo(t)
	expiresAt := time.Now().UTC().Add(5 * time.Minute)

	mock.ExpectExec("UPDATE users").
		WithArgs("042719", expiresAt, "user-123").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.SetOTP(context.Background(), "user-123", "042719", expiresAt)
	assert.NoError(t, err)
}

func TestSetOTP_UnknownUser(t *testing.T) {
	mock, repo := newMockRepo(t)
	expiresAt := time.Now().UTC().Add(5 * time.Minute)

	mock.ExpectExec("UPDATE users").
		WithArgs("042719", expiresAt, "ghost").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.SetOTP(context.Background(), "ghost", "042719", expiresAt)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestConsumeOTP(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectExec("UPDATE users").
		WithArgs("$2a$10$newhash", "user-123", "042719").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	ok, err := repo.ConsumeOTP(context.Background(), "user-123", "$2a$10$newhash", "042719")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestConsumeOTP_AlreadyConsumed(t *testing.T) {
	mock, repo := newMockRepo(t)

	// No row matches once the code was cleared by the first reset.
	mock.ExpectExec("UPDATE users").
		WithArgs("$2a$10$newhash", "user-123", "042719").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	ok, err := repo.ConsumeOTP(context.Background(), "user-123", "$2a$10$newhash", "042719")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetProfilePhoto(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectExec("UPDATE users").
		WithArgs("profile-photos/user-123.png", "user-123").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.SetProfilePhoto(context.Background(), "user-123", "profile-photos/user-123.png")
	assert.NoError(t, err)
}
