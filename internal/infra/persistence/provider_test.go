package persistence

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"bmauth/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
)

func newParams(t *testing.T, provider string) Params {
	t.Helper()

	cfg := &config.Config{}
	cfg.ApplyDefaults()
	cfg.Directory.Provider = provider

	return Params{
		Lc:     fxtest.NewLifecycle(t),
		Ctx:    context.Background(),
		Config: cfg,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestNewUserRepository_Memory(t *testing.T) {
	repo, err := NewUserRepository(newParams(t, config.DirectoryProviderMemory))
	require.NoError(t, err)

	users, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestNewUserRepository_FirestoreRequiresApp(t *testing.T) {
	_, err := NewUserRepository(newParams(t, config.DirectoryProviderFirestore))
	assert.ErrorContains(t, err, "firebase app is required")
}

func TestNewUserRepository_PostgresRequiresConfig(t *testing.T) {
	_, err := NewUserRepository(newParams(t, config.DirectoryProviderPostgres))
	assert.ErrorContains(t, err, "postgres configuration is required")
}

func TestNewUserRepository_UnknownProvider(t *testing.T) {
	_, err := NewUserRepository(newParams(t, "mysql"))
	assert.ErrorContains(t, err, "unknown directory provider: mysql")
}
