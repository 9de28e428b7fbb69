package seeders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"resource-system/internal/entities"
	"resource-system/internal/repositories"
	"resource-system/pkg/config"
	"resource-system/pkg/constants"
	apperrors "resource-system/pkg/errors"
	"resource-system/pkg/utils"
)

const adminFullName = "System Administrator"

// SeedAdmin creates the configured system administrator once. Missing
// credentials skip seeding. An existing account is left untouched.
func SeedAdmin(ctx context.Context, users repositories.UserRepositoryInterface, cfg config.SeederConfig, logger *zap.Logger) error {
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	if email == "" || cfg.AdminPassword == "" {
		logger.Info("SEED_ADMIN_EMAIL or SEED_ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}

	existing, err := users.FindByEmail(ctx, nil, email)
	switch {
	case err == nil:
		logger.Info("admin account already exists", zap.Uint64("userID", existing.ID))
		return nil
	case !errors.Is(err, apperrors.ErrNotFound):
		return fmt.Errorf("look up admin: %w", err)
	}

	hash, err := utils.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}
	admin := &entities.User{
		FullName: adminFullName,
		Email:    email,
		Password: hash,
		Role:     constants.RoleSystemAdmin,
		Status:   constants.UserStatusApproved,
		IsActive: true,
	}
	if _, err := users.Create(ctx, nil, admin); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	logger.Info("admin account seeded", zap.Uint64("userID", admin.ID), zap.String("email", email))
	return nil
}
