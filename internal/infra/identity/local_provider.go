package identity

import (
	"context"

	"bmauth/internal/domain/service"

	"github.com/google/uuid"
)

// localProvider issues random UUIDs. Email uniqueness is left to the directory.
type localProvider struct{}

// NewLocalProvider creates an IdentityProvider that needs no external service.
func NewLocalProvider() service.IdentityProvider {
	return localProvider{}
}

func (localProvider) CreateIdentity(_ context.Context, _ *service.IdentityInput) (string, error) {
	return uuid.NewString(), nil
}

func (localProvider) DeleteIdentity(_ context.Context, _ string) error {
	return nil
}
