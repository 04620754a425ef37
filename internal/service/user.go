package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/mjheves/account-service/pkg/errors"
	"github.com/mjheves/account-service/internal/auth"
	"github.com/mjheves/account-service/internal/domain"
	"github.com/mjheves/account-service/internal/notifier"
	"github.com/mjheves/account-service/internal/repository"
	"github.com/mjheves/account-service/internal/storage"
)

// bcryptCost is the cost factor for bcrypt password hashing. At this cost a
// single hash takes tens of milliseconds, which is the brute-force brake.
const bcryptCost = 10

// minPasswordLength is the minimum password length required.
const minPasswordLength = 8

// otpTTL is how long a password-reset code stays valid.
const otpTTL = 5 * time.Minute

// otpSpace is the number of possible reset codes (000000-999999).
var otpSpace = big.NewInt(1000000)

// EventPublisher emits account domain events. Satisfied by event.Producer.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, user *domain.User) error
	PublishUserPasswordChanged(ctx context.Context, userID, email, reason string) error
	PublishUserProfilePhotoSet(ctx context.Context, userID, photoKey string) error
}

// UserService implements the business logic for account and auth operations.
type UserService struct {
	userRepo  repository.UserRepository
	blacklist repository.TokenBlacklist
	jwtMgr    *auth.JWTManager
	sender    notifier.Sender
	blobs     storage.BlobStore
	producer  EventPublisher
	logger    *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(
	userRepo repository.UserRepository,
	blacklist repository.TokenBlacklist,
	jwtMgr *auth.JWTManager,
	sender notifier.Sender,
	blobs storage.BlobStore,
	producer EventPublisher,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		userRepo:  userRepo,
		blacklist: blacklist,
		jwtMgr:    jwtMgr,
		sender:    sender,
		blobs:     blobs,
		producer:  producer,
		logger:    logger,
	}
}

// --- Input types ---

// RegisterInput holds the parameters for registering a new user.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Mobile   string
}

// LoginInput holds the parameters for user login.
type LoginInput struct {
	Email    string
	Password string
}

// UpdateProfileInput holds the mutable profile fields. Empty fields are left
// unchanged.
type UpdateProfileInput struct {
	Name   string
	Mobile string
}

// ResetPasswordInput holds the parameters for an OTP-based password reset.
type ResetPasswordInput struct {
	Email           string
	OTP             string
	NewPassword     string
	ConfirmPassword string
}

// --- Auth operations ---

// Register creates a new account with a bcrypt-hashed password.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	if input.Name == "" {
		return nil, apperrors.InvalidInput("name is required")
	}
	if input.Email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}
	if input.Mobile == "" {
		return nil, apperrors.InvalidInput("mobile is required")
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		Mobile:       input.Mobile,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// The store's unique index on email is the duplicate check; a race
	// between two registrations resolves there, not here.
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	// Publish registration event (non-blocking on failure).
	if err := s.producer.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, nil
}

// Login authenticates a user with email and password and issues a bearer token.
func (s *UserService) Login(ctx context.Context, input LoginInput) (*domain.User, *domain.Token, error) {
	if input.Email == "" {
		return nil, nil, apperrors.InvalidInput("email is required")
	}
	if input.Password == "" {
		return nil, nil, apperrors.InvalidInput("password is required")
	}

	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		// Same response for unknown email and bad password.
		return nil, nil, apperrors.Unauthorized("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, nil, apperrors.Unauthorized("invalid email or password")
	}

	signed, claims, err := s.jwtMgr.Generate(user.ID, user.Email)
	if err != nil {
		return nil, nil, fmt.Errorf("generate token: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, &domain.Token{
		AccessToken: signed,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

// Logout revokes the presented bearer token until its natural expiry. The
// token keeps verifying on its own; the revocation ledger is what makes the
// gateway reject it.
func (s *UserService) Logout(ctx context.Context, userID, token string, expiresAt time.Time) error {
	if token == "" {
		return apperrors.InvalidInput("token is required")
	}

	if err := s.blacklist.Revoke(ctx, token, expiresAt); err != nil {
		return apperrors.Unavailable("could not end session", err)
	}

	s.logger.InfoContext(ctx, "user logged out",
		slog.String("user_id", userID),
	)

	return nil
}

// --- OTP password reset ---

// ForgotPassword issues a fresh reset code, stores it on the account, and
// emails it to the user. A new request always replaces any code still
// pending, so at most one code is valid per account at a time.
func (s *UserService) ForgotPassword(ctx context.Context, email string) error {
	if email == "" {
		return apperrors.InvalidInput("email is required")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return apperrors.NotFoundMsg("user not found")
	}

	code, err := generateOTP()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	expiresAt := time.Now().UTC().Add(otpTTL)

	if err := s.userRepo.SetOTP(ctx, user.ID, code, expiresAt); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}

	subject := "Your password reset code"
	body := fmt.Sprintf("Your one-time password reset code is %s. It expires in %d minutes.",
		code, int(otpTTL.Minutes()))

	// The stored code is not retracted on delivery failure; a retry simply
	// overwrites it. The request still fails because no usable code reached
	// the user.
	if err := s.sender.Send(ctx, user.Email, subject, body); err != nil {
		s.logger.ErrorContext(ctx, "failed to send otp email",
			slog.String("user_id", user.ID),
			slog.String("sender", s.sender.Name()),
			slog.String("error", err.Error()),
		)
		return apperrors.Unavailable("could not send OTP email", err)
	}

	s.logger.InfoContext(ctx, "password reset requested",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return nil
}

// ResetPassword validates the submitted reset code and replaces the password.
// The password write and the OTP clear commit together; a concurrent reset
// that loses the race observes "OTP not requested".
func (s *UserService) ResetPassword(ctx context.Context, input ResetPasswordInput) error {
	if input.Email == "" {
		return apperrors.InvalidInput("email is required")
	}
	if input.OTP == "" {
		return apperrors.InvalidInput("otp is required")
	}
	if input.NewPassword == "" || input.ConfirmPassword == "" {
		return apperrors.InvalidInput("new password and confirmation are required")
	}
	if input.NewPassword != input.ConfirmPassword {
		return apperrors.InvalidInput("passwords do not match")
	}
	if err := validatePassword(input.NewPassword); err != nil {
		return err
	}

	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		return apperrors.NotFoundMsg("user not found")
	}

	if !user.HasPendingOTP() {
		return apperrors.NotFoundMsg("OTP not requested")
	}

	if subtle.ConstantTimeCompare([]byte(input.OTP), []byte(*user.OTPCode)) != 1 {
		return apperrors.Unauthorized("invalid OTP")
	}

	if time.Now().UTC().After(*user.OTPExpiresAt) {
		return apperrors.Unauthorized("OTP expired")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash new password: %w", err)
	}

	updated, err := s.userRepo.ConsumeOTP(ctx, user.ID, string(hashedPassword), input.OTP)
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	if !updated {
		// First writer wins: the code was consumed between our read and write.
		return apperrors.NotFoundMsg("OTP not requested")
	}

	if err := s.producer.PublishUserPasswordChanged(ctx, user.ID, user.Email, "otp_reset"); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.password_changed event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "password reset completed",
		slog.String("user_id", user.ID),
	)

	return nil
}

// --- Profile operations ---

// GetUser retrieves a user by ID.
func (s *UserService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateProfile changes the user's mutable profile fields. Email and
// password have their own flows and are not touched here.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Name != "" {
		user.Name = input.Name
	}
	if input.Mobile != "" {
		user.Mobile = input.Mobile
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "profile updated",
		slog.String("user_id", user.ID),
	)

	return user, nil
}

// ListUsers returns a page of users and the total count.
func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, int, error) {
	users, err := s.userRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	total, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	return users, total, nil
}

// UploadProfilePhoto stores the uploaded file in the blob store and records
// its reference on the account.
func (s *UserService) UploadProfilePhoto(ctx context.Context, userID, filename, contentType string, content io.Reader) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(path.Ext(filename))
	key := fmt.Sprintf("profile-photos/%s%s", user.ID, ext)

	storedKey, err := s.blobs.Put(ctx, key, content, contentType)
	if err != nil {
		return nil, apperrors.Unavailable("could not store profile photo", err)
	}

	if err := s.userRepo.SetProfilePhoto(ctx, user.ID, storedKey); err != nil {
		return nil, fmt.Errorf("save profile photo reference: %w", err)
	}
	user.ProfilePhoto = storedKey

	if err := s.producer.PublishUserProfilePhotoSet(ctx, user.ID, storedKey); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.profile_photo_set event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "profile photo updated",
		slog.String("user_id", user.ID),
		slog.String("photo_key", storedKey),
	)

	return user, nil
}

// --- Helpers ---

// generateOTP draws a 6-digit code uniformly from 000000-999999, keeping
// leading zeros as text.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// validatePassword checks that the password meets minimum complexity requirements.
func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	var hasUpper, hasLower, hasDigit bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasDigit = true
		}
	}

	if !hasUpper || !hasLower || !hasDigit {
		return apperrors.InvalidInput("password must contain at least one uppercase letter, one lowercase letter, and one digit")
	}

	return nil
}
