// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taibuivan/lectio/internal/platform/apperr"
	"github.com/taibuivan/lectio/internal/platform/sec"
)

// # Service Layer

// Service orchestrates business logic for user accounts.
type Service struct {
	userRepository UserRepository
	logger         *slog.Logger
}

// NewService constructs a new [Service] with its repository dependency.
func NewService(userRepo UserRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		userRepository: userRepo,
		logger:         logger,
	}
}

// # Profile Management

/*
GetProfile retrieves the public view of a user.

Parameters:
  - context: context.Context
  - username: string

Returns:
  - *Profile: The user without credentials
  - error: NotFound or storage failures
*/
func (service *Service) GetProfile(context context.Context, username string) (*Profile, error) {
	user, err := service.userRepository.FindByUsername(context, username)
	if err != nil {
		return nil, fmt.Errorf("account_service_get_profile_failed: %w", err)
	}

	profile := ProfileOf(user)
	return &profile, nil
}

// # First Boot

// BootstrapInput carries the administrator credentials seeded on an empty store.
type BootstrapInput struct {
	Username string
	Password string
}

/*
Bootstrap seeds the first administrator when the store has no users.

Description: The administrator gets level 0 and, like every account, the
default category. Nothing happens once any user exists, so repeated boots
never overwrite a changed admin password.

Parameters:
  - context: context.Context
  - input: BootstrapInput

Returns:
  - bool: true when the administrator was created by this call
  - error: Validation or storage failures
*/
func (service *Service) Bootstrap(context context.Context, input BootstrapInput) (bool, error) {
	if input.Username == "" || input.Password == "" {
		return false, apperr.ValidationError("Administrator credentials are required")
	}

	count, err := service.userRepository.Count(context)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return false, apperr.Internal(err)
	}

	admin := &User{
		Username:     input.Username,
		PasswordHash: hashedPassword,
		UserLevel:    sec.LevelAdmin,
	}
	if err := service.userRepository.Create(context, admin); err != nil {
		return false, fmt.Errorf("account_service_bootstrap_failed: %w", err)
	}

	service.logger.Warn("admin_account_seeded", slog.String("username", admin.Username))
	return true, nil
}
