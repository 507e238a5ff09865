// Package identity issues user identifiers for new registrations.
package identity

import (
	"context"
	"log/slog"

	"bmauth/config"
	"bmauth/internal/domain/service"

	firebase "firebase.google.com/go/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// Params holds dependencies for the IdentityProvider, injected by Fx
type Params struct {
	fx.In

	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
	App    *firebase.App `optional:"true"`
}

// NewIdentityProvider creates the IdentityProvider for the configured provider.
func NewIdentityProvider(params Params) (service.IdentityProvider, error) {
	logger := params.Logger

	switch provider := params.Config.Identity.Provider; provider {
	case config.IdentityProviderLocal:
		logger.Info("Using local identity provider")

		return NewLocalProvider(), nil

	case config.IdentityProviderFirebase:
		if params.App == nil {
			return nil, errors.New("firebase app is required for the firebase identity provider")
		}

		client, err := params.App.Auth(params.Ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create Firebase Auth client")
		}

		logger.Info("Using Firebase identity provider")

		return NewFirebaseProvider(client, logger), nil

	default:
		return nil, errors.Errorf("unknown identity provider: %s", provider)
	}
}
