// Package persistence selects the user directory backend from configuration.
package persistence

import (
	"context"
	"log/slog"

	"bmauth/config"
	"bmauth/internal/domain/repository"
	firestorerepo "bmauth/internal/infra/persistence/firestore"
	"bmauth/internal/infra/persistence/memory"
	"bmauth/internal/infra/persistence/postgres"

	firebase "firebase.google.com/go/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// Params holds dependencies for the user directory, injected by Fx.
type Params struct {
	fx.In

	Lc     fx.Lifecycle
	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
	App    *firebase.App `optional:"true"`
}

// NewUserRepository creates the UserRepository for the configured directory provider.
func NewUserRepository(params Params) (repository.UserRepository, error) {
	cfg := params.Config.Directory
	logger := params.Logger

	switch cfg.Provider {
	case config.DirectoryProviderMemory:
		logger.Warn("Using in-memory user directory, users are lost on restart")

		return memory.NewUserRepository(), nil

	case config.DirectoryProviderFirestore:
		if params.App == nil {
			return nil, errors.New("firebase app is required for the firestore directory")
		}

		client, err := params.App.Firestore(params.Ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create Firestore client")
		}

		logger.Info("Using Firestore user directory",
			slog.String("users_collection", cfg.UsersCollection),
			slog.String("emails_collection", cfg.EmailsCollection),
		)

		params.Lc.Append(fx.Hook{
			OnStop: func(_ context.Context) error {
				logger.Info("Closing Firestore client")

				return errors.WithStack(client.Close())
			},
		})

		return firestorerepo.NewUserRepository(client, cfg.UsersCollection, cfg.EmailsCollection), nil

	case config.DirectoryProviderPostgres:
		db, err := postgres.New(postgres.Params{
			Lifecycle: params.Lc,
			Config:    params.Config,
			Logger:    logger,
		})
		if err != nil {
			return nil, err
		}

		logger.Info("Using PostgreSQL user directory")

		return postgres.NewUserRepository(db), nil

	default:
		return nil, errors.Errorf("unknown directory provider: %s", cfg.Provider)
	}
}

// Module provides the user directory FX module
//
//nolint:gochecknoglobals
var Module = fx.Options(
	fx.Provide(NewUserRepository),
)
