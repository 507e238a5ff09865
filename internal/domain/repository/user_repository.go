// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"bmauth/internal/domain/entity"
)

var (
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken is returned by Create when another record already owns the email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrUserIDTaken is returned by Create when a record with the same identifier exists.
	ErrUserIDTaken = errors.New("user id already exists")
)

// UserRepository is the user directory.
type UserRepository interface {
	// Create persists a new user. The email uniqueness check and the write are a single atomic
	// operation in the storage layer: concurrent creates for the same email yield exactly one
	// success and ErrEmailTaken for the rest.
	Create(ctx context.Context, user *entity.User) error

	// FindByEmail retrieves a single user by normalized email.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// List returns every user in the directory.
	List(ctx context.Context) ([]*entity.User, error)
}
