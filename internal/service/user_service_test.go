package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/domain"
	apperrors "github.com/spec-kit/account-service/pkg/util"
)

func newTestUserService(t *testing.T) (*UserService, *AuthService, *fakeUserRepo) {
	t.Helper()
	repo := newFakeUserRepo()
	authSvc := NewAuthService(testAuthConfig(), AuthDependencies{
		UserRepo:  repo,
		Blacklist: auth.NewBlacklist(),
	})
	return NewUserService(testAuthConfig(), repo, nil), authSvc, repo
}

func strPtr(s string) *string { return &s }

func TestListAndGet(t *testing.T) {
	svc, authSvc, _ := newTestUserService(t)
	alice := seedAccount(t, authSvc, "alice", "Secret123!", domain.RoleUser)
	seedAccount(t, authSvc, "bob", "Secret123!", domain.RoleManager)

	users, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 2)

	got, err := svc.Get(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = svc.Get(context.Background(), 9999)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
}

func TestUpdateUsernameConflict(t *testing.T) {
	svc, authSvc, _ := newTestUserService(t)
	alice := seedAccount(t, authSvc, "alice", "Secret123!", domain.RoleUser)
	bob := seedAccount(t, authSvc, "bob", "Secret123!", domain.RoleUser)

	_, err := svc.Update(context.Background(), bob.ID, UpdateUserInput{
		Username: strPtr("alice"),
	}, alice.ID)
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)

	// Keeping your own username is not a conflict.
	updated, err := svc.Update(context.Background(), bob.ID, UpdateUserInput{
		Username: strPtr("bob"),
	}, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", updated.Username)
}

func TestUpdateEmailConflict(t *testing.T) {
	svc, authSvc, _ := newTestUserService(t)
	alice := seedAccount(t, authSvc, "alice", "Secret123!", domain.RoleUser)
	bob := seedAccount(t, authSvc, "bob", "Secret123!", domain.RoleUser)

	_, err := svc.Update(context.Background(), bob.ID, UpdateUserInput{
		Email: strPtr("alice@example.com"),
	}, alice.ID)
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)

	updated, err := svc.Update(context.Background(), bob.ID, UpdateUserInput{
		Email: strPtr("bob.new@example.com"),
	}, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob.new@example.com", updated.Email)
}

func TestUpdateRehashesPassword(t *testing.T) {
	svc, authSvc, repo := newTestUserService(t)
	admin := seedAccount(t, authSvc, "admin", "Secret123!", domain.RoleAdmin)
	alice := seedAccount(t, authSvc, "alice", "OldPass123!", domain.RoleUser)

	_, err := svc.Update(context.Background(), alice.ID, UpdateUserInput{
		Password: strPtr("NewPass123!"),
	}, admin.ID)
	require.NoError(t, err)

	stored, err := repo.GetByID(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.True(t, auth.VerifyPassword(stored.PasswordHash, "NewPass123!"))
	assert.False(t, auth.VerifyPassword(stored.PasswordHash, "OldPass123!"))
}

func TestUpdateRoleAndAuditStamp(t *testing.T) {
	svc, authSvc, _ := newTestUserService(t)
	admin := seedAccount(t, authSvc, "admin", "Secret123!", domain.RoleAdmin)
	alice := seedAccount(t, authSvc, "alice", "Secret123!", domain.RoleUser)

	role := domain.RoleManager
	updated, err := svc.Update(context.Background(), alice.ID, UpdateUserInput{
		Role: &role,
	}, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleManager, updated.Role)
	require.NotNil(t, updated.UpdatedBy)
	assert.Equal(t, admin.ID, *updated.UpdatedBy)
}

func TestUpdateNotFound(t *testing.T) {
	svc, _, _ := newTestUserService(t)

	_, err := svc.Update(context.Background(), 9999, UpdateUserInput{
		Username: strPtr("ghost"),
	}, 1)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
}

func TestDelete(t *testing.T) {
	svc, authSvc, _ := newTestUserService(t)
	admin := seedAccount(t, authSvc, "admin", "Secret123!", domain.RoleAdmin)
	alice := seedAccount(t, authSvc, "alice", "Secret123!", domain.RoleUser)

	require.NoError(t, svc.Delete(context.Background(), alice.ID, admin.ID))

	_, err := svc.Get(context.Background(), alice.ID)
	require.Error(t, err)

	err = svc.Delete(context.Background(), alice.ID, admin.ID)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
}
