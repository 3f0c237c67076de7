package service

import (
	"context"
	"errors"
	"strings"
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

// RegisterInput carries the fields needed to create an account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     domain.Role
}

// AuthService coordinates login, logout, registration and profile flows.
type AuthService struct {
	users      repository.UserRepository
	tokens     *auth.TokenManager
	blacklist  *auth.Blacklist
	dispatcher events.Dispatcher
	bcryptCost int
}

// AuthDependencies encapsulates collaborator requirements for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Blacklist  *auth.Blacklist
	Dispatcher events.Dispatcher
}

// NewAuthService builds the service. The blacklist handed in is shared with
// the token manager so validation observes revocations immediately.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		tokens:     auth.NewTokenManager(cfg.JWTSecret, cfg.Issuer, cfg.Audience, cfg.ExpirationHours, deps.Blacklist),
		blacklist:  deps.Blacklist,
		dispatcher: deps.Dispatcher,
		bcryptCost: cfg.BcryptCost,
	}
}

// invalidCredentials is returned for unknown usernames and wrong passwords
// alike so callers cannot enumerate accounts.
func invalidCredentials() error {
	return apperrors.NewUnauthorized("invalid username or password")
}

// Login authenticates the account and issues a session token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, invalidCredentials()
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	if !auth.VerifyPassword(user.PasswordHash, password) {
		return nil, "", time.Time{}, invalidCredentials()
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.EventUserLoggedIn, user.ID, nil, nil)
	return user, token, expiresAt, nil
}

// Logout revokes the presented token. An empty token is the only failure;
// registry insertion itself cannot fail.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return apperrors.NewValidationError("token not provided", nil)
	}

	s.blacklist.Revoke(token)

	if id, ok := s.tokens.ExtractUserID(token); ok {
		s.publish(ctx, events.EventUserLoggedOut, id, nil, nil)
	}
	return nil
}

// Register creates a new account. createdBy is the acting administrator, or
// nil for self-registration.
func (s *AuthService) Register(ctx context.Context, in RegisterInput, createdBy *int64) (*domain.User, error) {
	existing, err := s.users.GetByUsernameOrEmail(ctx, in.Username, in.Email)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}
	if existing != nil {
		return nil, apperrors.NewConflict("username or email already exists", nil)
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		CreatedBy:    createdBy,
		UpdatedBy:    createdBy,
	}
	if err := s.users.Insert(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.EventUserRegistered, user.ID, createdBy, events.UserRegisteredPayload{
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role.String(),
	})
	return user, nil
}

// GetProfile returns the account for the given subject id.
func (s *AuthService) GetProfile(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

func (s *AuthService) publish(ctx context.Context, eventType events.EventType, userID int64, actorID *int64, payload interface{}) {
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
