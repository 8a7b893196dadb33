// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements login, self-registration and password resets.

Access tokens are HS256 JWTs carrying the username and role. There is no
server-side session: a token stays valid until it expires.

Architecture:

  - Service: Orchestrates Login, Register and ResetPassword.
  - Accounts: Persisted through [account.UserRepository].
  - Policy: Registration is gated by the persisted settings toggle.
*/
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/lectio/internal/platform/apperr"
	"github.com/taibuivan/lectio/internal/platform/sec"
	"github.com/taibuivan/lectio/internal/platform/validate"
	"github.com/taibuivan/lectio/internal/users/account"
)

// # Contracts & Types

// TokenProvider defines the contract for generating security tokens.
type TokenProvider interface {
	// GenerateAccessToken creates a signed JWT string for the given user.
	GenerateAccessToken(username string, role sec.UserRole, timeToLive time.Duration) (string, error)
}

// RegistrationPolicy reports whether self-registration is currently open.
type RegistrationPolicy interface {
	RegistrationOpen(context context.Context) (bool, error)
}

// Session is the result of a successful authentication.
type Session struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
	User      account.Profile `json:"user"`
}

// Service implements user authentication use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, registration,
// or login logic must be reviewed carefully.
type Service struct {
	userRepository account.UserRepository
	registration   RegistrationPolicy
	tokenProvider  TokenProvider
	tokenTTL       time.Duration
	logger         *slog.Logger
	now            func() time.Time
}

// NewService constructs a new auth [Service] with its dependencies.
func NewService(
	userRepo account.UserRepository,
	registration RegistrationPolicy,
	tokenProv TokenProvider,
	tokenTTL time.Duration,
	logger *slog.Logger,
) *Service {
	if tokenTTL <= 0 {
		tokenTTL = DefaultAccessTokenTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		userRepository: userRepo,
		registration:   registration,
		tokenProvider:  tokenProv,
		tokenTTL:       tokenTTL,
		logger:         logger,
		now:            time.Now,
	}
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Username  string
	Password  string
	IPAddress string
}

/*
Login validates user credentials and issues an access token.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *Session: Token with the user profile
  - err: Unauthorized for an unknown user or a wrong password
*/
func (service *Service) Login(context context.Context, input LoginInput) (*Session, error) {
	user, err := service.userRepository.FindByUsername(context, input.Username)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Unauthorized("Invalid login credentials")
		}
		return nil, err
	}

	// bcrypt compares in constant time
	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	session, err := service.issue(user)
	if err != nil {
		return nil, err
	}

	service.logger.Info("user_logged_in",
		slog.String("username", user.Username),
		slog.String("ip", input.IPAddress),
	)
	return session, nil
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new reader.
type RegisterInput struct {
	Username string
	Password string
}

/*
Register creates a reader account when registration is open.

Description: The new account gets level 1 and the default category. A
session is returned so the client is signed in right away.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *Session: Token for the new user
  - err: Forbidden when registration is closed, Conflict when the username exists
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*Session, error) {
	open, err := service.registration.RegistrationOpen(context)
	if err != nil {
		return nil, err
	}
	if !open {
		return nil, apperr.Forbidden("Registration is not allowed")
	}

	username := strings.TrimSpace(input.Username)

	hashedPassword, err := hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &account.User{
		Username:     username,
		PasswordHash: hashedPassword,
		UserLevel:    sec.LevelMember,
		CreatedAt:    service.now().UTC(),
	}

	// The primary key settles races between two registrations of one name
	if err := service.userRepository.Create(context, user); err != nil {
		if apperr.IsCode(err, apperr.CodeConflict) {
			return nil, apperr.Conflict("Username already exists")
		}
		return nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}

	service.logger.Info("user_registered", slog.String("username", user.Username))

	return service.issue(user)
}

// # Password Management

// ResetPasswordInput names the account to change and its new password.
// An empty Username means the caller's own account.
type ResetPasswordInput struct {
	Username string
	Password string
}

/*
ResetPassword replaces a password.

Description: Readers may only change their own password. Administrators may
change anyone's. Changing your own password returns a fresh session;
resetting someone else's returns nil.

Parameters:
  - context: context.Context
  - actor: *sec.AuthClaims (The authenticated caller)
  - input: ResetPasswordInput

Returns:
  - *Session: New token for a self reset, nil otherwise
  - err: Forbidden, NotFound or storage failures
*/
func (service *Service) ResetPassword(context context.Context, actor *sec.AuthClaims, input ResetPasswordInput) (*Session, error) {
	target := strings.TrimSpace(input.Username)
	if target == "" {
		target = actor.Username
	}

	self := target == actor.Username
	if !self && actor.UserRole() != sec.RoleAdmin {
		return nil, apperr.Forbidden("You do not have permission to change this user's password")
	}

	hashedPassword, err := hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	if err := service.userRepository.UpdatePassword(context, target, hashedPassword); err != nil {
		return nil, err
	}

	service.logger.Info("user_password_reset",
		slog.String("username", target),
		slog.String("actor", actor.Username),
	)

	if !self {
		return nil, nil
	}

	user, err := service.userRepository.FindByUsername(context, target)
	if err != nil {
		return nil, err
	}
	return service.issue(user)
}

// hashPassword maps the bcrypt input limit to a validation failure.
func hashPassword(password string) (string, error) {
	hashed, err := sec.HashPassword(password)
	if errors.Is(err, sec.ErrPasswordTooLong) {
		return "", validate.RequiredError(account.FieldPassword, "Password is too long")
	}
	if err != nil {
		return "", apperr.Internal(err)
	}
	return hashed, nil
}

// issue signs a token for user.
func (service *Service) issue(user *account.User) (*Session, error) {
	token, err := service.tokenProvider.GenerateAccessToken(user.Username, user.Role(), service.tokenTTL)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	return &Session{
		Token:     token,
		ExpiresAt: service.now().Add(service.tokenTTL).UTC(),
		User:      account.ProfileOf(user),
	}, nil
}
