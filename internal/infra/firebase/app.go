// Package firebase builds the Firebase Admin SDK app shared by Firestore and Firebase Auth.
package firebase

import (
	"context"
	"log/slog"

	"bmauth/config"

	firebase "firebase.google.com/go/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"google.golang.org/api/option"
)

// Params holds dependencies for the Firebase app, injected by Fx.
type Params struct {
	fx.In

	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

// New initializes the Firebase app when a configured provider needs it.
// It returns nil otherwise, so local runs never touch Google credentials.
func New(params Params) (*firebase.App, error) {
	if !Required(params.Config) {
		return nil, nil
	}

	var fbConfig *firebase.Config
	var opts []option.ClientOption
	if fb := params.Config.Firebase; fb != nil {
		if fb.ProjectID != "" {
			fbConfig = &firebase.Config{ProjectID: fb.ProjectID}
		}
		if fb.CredentialsPath != "" {
			opts = append(opts, option.WithCredentialsFile(fb.CredentialsPath))
		}
	}

	app, err := firebase.NewApp(params.Ctx, fbConfig, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize Firebase app")
	}

	params.Logger.Info("Firebase app initialized",
		slog.String("directory_provider", params.Config.Directory.Provider),
		slog.String("identity_provider", params.Config.Identity.Provider),
	)

	return app, nil
}

// Required reports whether any configured provider is backed by Firebase.
func Required(cfg *config.Config) bool {
	return cfg.Directory.Provider == config.DirectoryProviderFirestore ||
		cfg.Identity.Provider == config.IdentityProviderFirebase
}
