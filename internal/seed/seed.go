package seed

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/emre/famlink/internal/app/models"
	"github.com/emre/famlink/internal/app/repositories"
	"github.com/emre/famlink/internal/config"
	"github.com/emre/famlink/internal/pkg/apperrors"
	"github.com/emre/famlink/internal/pkg/auth"
)

// CreateDefaultData seeds the default admin account from configuration.
// Skipped entirely when no admin password is configured; an existing admin
// account is left untouched.
func CreateDefaultData(ctx context.Context, dbPool *pgxpool.Pool, cfg *config.Config, lgr zerolog.Logger) error {
	if cfg.Auth.AdminPassword == "" {
		lgr.Info().Msg("No admin password configured, skipping admin seeding")
		return nil
	}

	userRepo := repositories.NewUserRepository(dbPool)

	exists, err := userRepo.UsernameExists(ctx, cfg.Auth.AdminUsername)
	if err != nil {
		lgr.Error().Err(err).Msg("Error checking for existing admin user")
		return err
	}
	if exists {
		lgr.Debug().Str("username", cfg.Auth.AdminUsername).Msg("Admin user already exists")
		return nil
	}

	lgr.Info().Str("username", cfg.Auth.AdminUsername).Msg("Creating default admin user...")

	hashedPassword, err := auth.HashPassword(cfg.Auth.AdminPassword)
	if err != nil {
		lgr.Error().Err(err).Msg("Error hashing admin password")
		return err
	}

	role := models.RoleAdmin
	_, err = userRepo.CreateUser(ctx, &models.User{
		Username: cfg.Auth.AdminUsername,
		Email:    cfg.Auth.AdminEmail,
		Password: hashedPassword,
		Name:     "Administrator",
		UserType: &role,
		IsActive: true,
	})
	if err != nil {
		// A concurrent instance may have won the race; that's fine.
		if !errors.Is(err, apperrors.ErrUsernameAlreadyExists) && !errors.Is(err, apperrors.ErrEmailAlreadyExists) {
			lgr.Error().Err(err).Msg("Error creating default admin user")
			return err
		}
	}

	lgr.Info().Msg("Default admin user created")
	return nil
}
