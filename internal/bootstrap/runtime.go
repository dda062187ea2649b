// Package bootstrap wires the runtime dependencies shared by the commands.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"recipebox/internal/cache"
	"recipebox/internal/config"
	"recipebox/internal/database"
	"recipebox/internal/middleware"
	"recipebox/internal/models"
	"recipebox/internal/repository"
	"recipebox/internal/validation"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// InitRuntime connects to the database and Redis and, in development,
// ensures the configured dev user exists. The Redis client is nil when Redis
// is not configured or unreachable.
func InitRuntime(cfg *config.Config) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	rdb := cache.Connect(context.Background(), cfg.RedisURL)

	if err := EnsureDevUser(context.Background(), cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development user: %w", err)
	}
	return db, rdb, nil
}

// EnsureDevUser creates DEV_USER_EMAIL with DEV_USER_PASSWORD when running in
// development and both are set. An existing user keeps its password.
func EnsureDevUser(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil || !strings.EqualFold(cfg.Env, "development") {
		return nil
	}
	email := validation.NormalizeEmail(cfg.DevUserEmail)
	if email == "" {
		return nil
	}
	if cfg.DevUserPassword == "" {
		return errors.New("DEV_USER_PASSWORD must be set when DEV_USER_EMAIL is set")
	}

	users := repository.NewUserRepository(db)
	existing, err := users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.DevUserPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash dev user password: %w", err)
	}
	if err := users.Create(ctx, &models.User{Email: email, Password: string(hashed)}); err != nil {
		return err
	}

	middleware.Logger.Info("development user created", slog.String("email", email))
	return nil
}
