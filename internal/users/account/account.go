// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account owns the user records of a Lectio instance.

A user is identified by its username. The store keeps a bcrypt hash of the
password and a numeric level where 0 is an administrator and 1 a reader.

# Architecture

  - Entities: User, Profile (DTO).
  - Repository: [UserRepository] on the single SQLite store.
  - Bootstrap: seeds the first administrator on an empty store.

The auth package builds its login and registration flows on top of this one.
*/
package account

import (
	"context"
	"time"

	"github.com/taibuivan/lectio/internal/platform/sec"
)

// # Field Identifiers

const (
	FieldUsername    = "username"
	FieldPassword    = "password"
	FieldNewPassword = "newPassword"
)

// # Domain Entities

// User is a stored account.
type User struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	UserLevel    int       `json:"userLevel"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Role maps the stored level to an authorization role.
func (user *User) Role() sec.UserRole {
	return sec.RoleFromLevel(user.UserLevel)
}

// IsAdmin reports whether the user holds level 0.
func (user *User) IsAdmin() bool {
	return user.UserLevel == sec.LevelAdmin
}

// Profile is the public view of a [User].
type Profile struct {
	Username  string       `json:"username"`
	UserLevel int          `json:"userLevel"`
	Role      sec.UserRole `json:"role"`
	CreatedAt time.Time    `json:"createdAt"`
}

// ProfileOf strips the credentials from a user.
func ProfileOf(user *User) Profile {
	return Profile{
		Username:  user.Username,
		UserLevel: user.UserLevel,
		Role:      user.Role(),
		CreatedAt: user.CreatedAt,
	}
}

// # Repository Contracts

// UserRepository defines the persistence contract for user accounts.
type UserRepository interface {

	/*
		Create stores a new user together with its default category.

		Parameters:
		  - context: context.Context
		  - user: *User (PasswordHash already computed)

		Returns:
		  - error: Conflict if the username is taken
	*/
	Create(context context.Context, user *User) error

	// FindByUsername loads one user or returns NotFound.
	FindByUsername(context context.Context, username string) (*User, error)

	// UpdatePassword replaces the stored hash. NotFound if the user does not exist.
	UpdatePassword(context context.Context, username, passwordHash string) error

	// Count returns how many users exist.
	Count(context context.Context) (int, error)
}
