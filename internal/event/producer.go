package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/mjheves/account-service/pkg/kafka"
	"github.com/mjheves/account-service/internal/domain"
)

// Kafka topic constants for account domain events.
const (
	TopicUserRegistered       = "accounts.user.registered"
	TopicUserPasswordChanged  = "accounts.user.password_changed"
	TopicUserProfilePhotoSet  = "accounts.user.profile_photo_set"
)

// Aggregate type constant.
const AggregateTypeUser = "user"

// Source identifier for events originating from this service.
const SourceAccountService = "account-service"

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Mobile string `json:"mobile"`
}

// UserPasswordChangedData is the payload for a user.password_changed event.
// It carries no credential material, only the fact that the change happened.
type UserPasswordChangedData struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

// UserProfilePhotoSetData is the payload for a user.profile_photo_set event.
type UserProfilePhotoSetData struct {
	UserID   string `json:"user_id"`
	PhotoKey string `json:"photo_key"`
}

// Producer publishes account domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the account service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	data := UserRegisteredData{
		ID:     user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Mobile: user.Mobile,
	}

	event, err := pkgkafka.NewEvent(TopicUserRegistered, user.ID, AggregateTypeUser, SourceAccountService, data)
	if err != nil {
		return fmt.Errorf("create user.registered event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserRegistered, event); err != nil {
		return fmt.Errorf("publish user.registered event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user.registered event",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return nil
}

// PublishUserPasswordChanged publishes a user.password_changed event.
func (p *Producer) PublishUserPasswordChanged(ctx context.Context, userID, email, reason string) error {
	data := UserPasswordChangedData{
		UserID: userID,
		Email:  email,
		Reason: reason,
	}

	event, err := pkgkafka.NewEvent(TopicUserPasswordChanged, userID, AggregateTypeUser, SourceAccountService, data)
	if err != nil {
		return fmt.Errorf("create user.password_changed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserPasswordChanged, event); err != nil {
		return fmt.Errorf("publish user.password_changed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user.password_changed event",
		slog.String("user_id", userID),
	)

	return nil
}

// PublishUserProfilePhotoSet publishes a user.profile_photo_set event.
func (p *Producer) PublishUserProfilePhotoSet(ctx context.Context, userID, photoKey string) error {
	data := UserProfilePhotoSetData{
		UserID:   userID,
		PhotoKey: photoKey,
	}

	event, err := pkgkafka.NewEvent(TopicUserProfilePhotoSet, userID, AggregateTypeUser, SourceAccountService, data)
	if err != nil {
		return fmt.Errorf("create user.profile_photo_set event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserProfilePhotoSet, event); err != nil {
		return fmt.Errorf("publish user.profile_photo_set event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user.profile_photo_set event",
		slog.String("user_id", userID),
		slog.String("photo_key", photoKey),
	)

	return nil
}
