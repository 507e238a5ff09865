// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"bmauth/internal/domain/entity"
)

// --- Input DTOs ---

// RegisterUserInput defines the data required to register a new user.
type RegisterUserInput struct {
	Name     string
	Email    string
	Password string
}

// CreateUserInput records a user whose identity already exists at the identity provider.
type CreateUserInput struct {
	ID    string
	Email string
	Name  string
}

// LoginInput defines the data required for a user to log in.
type LoginInput struct {
	Email    string
	Password string
}

// --- Output DTOs ---

// RegisterOutput returns the public view of the stored user.
type RegisterOutput struct {
	User *entity.PublicUser
}

// LoginOutput confirms a successful credential check. No session or token is issued.
type LoginOutput struct {
	Message string
}

// UserListItem pairs a directory key with the stored user.
type UserListItem struct {
	ID   string             `json:"id"`
	Data *entity.PublicUser `json:"data"`
}

// ListUsersOutput holds every user in the directory.
type ListUsersOutput struct {
	Users []*UserListItem
}

// UserUsecase defines the interface for user-related business operations.
// This is the contract that the delivery layer (e.g., API handlers) will depend on.
type UserUsecase interface {
	RegisterUser(ctx context.Context, input *RegisterUserInput) (*RegisterOutput, error)
	CreateUser(ctx context.Context, input *CreateUserInput) (*RegisterOutput, error)
	Login(ctx context.Context, input *LoginInput) (*LoginOutput, error)
	ListUsers(ctx context.Context) (*ListUsersOutput, error)
}
