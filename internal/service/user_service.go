package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/events"
	"github.com/spec-kit/account-service/internal/repository"
	apperrors "github.com/spec-kit/account-service/pkg/util"
)

// UpdateUserInput carries optional account fields; nil means unchanged.
type UpdateUserInput struct {
	Username *string
	Email    *string
	Password *string
	Role     *domain.Role
}

// UserService implements user administration on top of the account store.
type UserService struct {
	users      repository.UserRepository
	dispatcher events.Dispatcher
	bcryptCost int
}

// NewUserService builds the service.
func NewUserService(cfg config.AuthConfig, users repository.UserRepository, dispatcher events.Dispatcher) *UserService {
	return &UserService{users: users, dispatcher: dispatcher, bcryptCost: cfg.BcryptCost}
}

// List returns all accounts.
func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// Get returns a single account by id.
func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// Update applies the provided fields to the account. Username and email moves
// conflict when another account already holds the value.
func (s *UserService) Update(ctx context.Context, id int64, in UpdateUserInput, updatedBy int64) (*domain.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var fields []string

	if in.Username != nil && *in.Username != "" && *in.Username != user.Username {
		existing, err := s.users.GetByUsername(ctx, *in.Username)
		if err == nil && existing.ID != id {
			return nil, apperrors.NewConflict("username already exists", nil)
		}
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.MapError(err)
		}
		user.Username = *in.Username
		fields = append(fields, "username")
	}

	if in.Email != nil && *in.Email != "" && *in.Email != user.Email {
		existing, err := s.users.GetByUsernameOrEmail(ctx, "", *in.Email)
		if err == nil && existing.ID != id {
			return nil, apperrors.NewConflict("email already exists", nil)
		}
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.MapError(err)
		}
		user.Email = *in.Email
		fields = append(fields, "email")
	}

	if in.Password != nil && *in.Password != "" {
		hash, err := auth.HashPassword(*in.Password, s.bcryptCost)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		user.PasswordHash = hash
		fields = append(fields, "password")
	}

	if in.Role != nil {
		user.Role = *in.Role
		fields = append(fields, "role")
	}

	user.UpdatedBy = &updatedBy
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.EventUserUpdated, user.ID, &updatedBy, events.UserUpdatedPayload{Fields: fields})
	return user, nil
}

// Delete removes the account.
func (s *UserService) Delete(ctx context.Context, id int64, deletedBy int64) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return apperrors.MapError(err)
	}

	s.publish(ctx, events.EventUserDeleted, id, &deletedBy, nil)
	return nil
}

func (s *UserService) publish(ctx context.Context, eventType events.EventType, userID int64, actorID *int64, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		ActorID:   actorID,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
