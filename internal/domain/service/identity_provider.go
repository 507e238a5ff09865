package service

import (
	"context"
	"errors"
)

// ErrIdentityEmailExists is returned when the provider already holds an identity for the email.
var ErrIdentityEmailExists = errors.New("identity email already exists")

// IdentityInput describes the identity to create.
type IdentityInput struct {
	Email       string
	DisplayName string
}

// IdentityProvider issues user identifiers, e.g. Firebase Authentication.
type IdentityProvider interface {
	// CreateIdentity registers the identity and returns its identifier.
	CreateIdentity(ctx context.Context, input *IdentityInput) (string, error)

	// DeleteIdentity removes an identity, used to compensate a failed directory write.
	DeleteIdentity(ctx context.Context, uid string) error
}
