package identity

import (
	"context"
	"log/slog"

	"bmauth/internal/domain/service"

	"firebase.google.com/go/v4/auth"
	"github.com/pkg/errors"
)

// authClient is the part of the Firebase Auth client the provider uses.
type authClient interface {
	CreateUser(ctx context.Context, user *auth.UserToCreate) (*auth.UserRecord, error)
	DeleteUser(ctx context.Context, uid string) error
}

// firebaseProvider registers identities in Firebase Authentication. The password is never
// sent; credentials are verified against the directory's bcrypt hash.
type firebaseProvider struct {
	client authClient
	logger *slog.Logger
}

// NewFirebaseProvider creates an IdentityProvider backed by Firebase Authentication.
func NewFirebaseProvider(client authClient, logger *slog.Logger) service.IdentityProvider {
	return &firebaseProvider{
		client: client,
		logger: logger,
	}
}

func (p *firebaseProvider) CreateIdentity(ctx context.Context, input *service.IdentityInput) (string, error) {
	params := (&auth.UserToCreate{}).Email(input.Email)
	if input.DisplayName != "" {
		params = params.DisplayName(input.DisplayName)
	}

	record, err := p.client.CreateUser(ctx, params)
	if err != nil {
		if auth.IsEmailAlreadyExists(err) {
			return "", service.ErrIdentityEmailExists
		}

		return "", errors.Wrap(err, "failed to create firebase user")
	}

	return record.UID, nil
}

func (p *firebaseProvider) DeleteIdentity(ctx context.Context, uid string) error {
	err := p.client.DeleteUser(ctx, uid)
	if err != nil && !auth.IsUserNotFound(err) {
		return errors.Wrapf(err, "failed to delete firebase user %s", uid)
	}

	return nil
}
