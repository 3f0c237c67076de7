package persistence

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/domain"
)

type seedUser struct {
	username string
	email    string
	password string
	role     domain.Role
}

var defaultUsers = []seedUser{
	{username: "admin", email: "admin@example.com", password: "Admin123!", role: domain.RoleAdmin},
	{username: "manager", email: "manager@example.com", password: "Manager123!", role: domain.RoleManager},
	{username: "user", email: "user@example.com", password: "User123!", role: domain.RoleUser},
}

// SeedUsers inserts the default development accounts when the users table is
// empty. Passwords are hashed with the configured bcrypt cost.
func SeedUsers(ctx context.Context, pool *pgxpool.Pool, bcryptCost int, logger *zap.Logger) error {
	if pool == nil {
		logger.Warn("no postgres pool available; skipping seed")
		return nil
	}

	var count int64
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return fmt.Errorf("seed count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	const insert = `
        INSERT INTO users (username, email, password_hash, role)
        VALUES ($1, $2, $3, $4)`

	for _, su := range defaultUsers {
		hash, err := auth.HashPassword(su.password, bcryptCost)
		if err != nil {
			return fmt.Errorf("seed hash password: %w", err)
		}
		if _, err := pool.Exec(ctx, insert, su.username, su.email, hash, int16(su.role)); err != nil {
			return fmt.Errorf("seed insert %s: %w", su.username, err)
		}
		logger.Info("seeded account", zap.String("username", su.username), zap.String("role", su.role.String()))
	}
	return nil
}
