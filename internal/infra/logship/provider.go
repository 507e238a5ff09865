// Package logship forwards authentication log lines to an external search index.
package logship

import (
	"context"
	"log/slog"

	"bmauth/config"
	"bmauth/internal/domain/service"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// noopShipper discards events when forwarding is disabled.
type noopShipper struct {
	logger *slog.Logger
}

func (s *noopShipper) Ship(_ context.Context, event *service.LogEvent) error {
	s.logger.Debug("[NoopLogShip] Forwarding disabled, skipping", slog.String("message", event.Message))

	return nil
}

func (s *noopShipper) Close() error {
	return nil
}

// ShipperParams holds dependencies for the LogShipper, injected by Fx
type ShipperParams struct {
	fx.In

	Lc     fx.Lifecycle
	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

// NewShipper creates the LogShipper for the configured provider.
func NewShipper(params ShipperParams) (service.LogShipper, error) {
	cfg := params.Config.LogForward
	logger := params.Logger

	var shipper service.LogShipper
	var err error

	switch cfg.Provider {
	case "", config.LogForwardProviderNone:
		logger.Info("Log forwarding disabled, using no-op shipper")

		return &noopShipper{logger: logger}, nil

	case config.LogForwardProviderElasticsearch:
		logger.Info("Forwarding logs to Elasticsearch",
			slog.String("url", cfg.URL),
			slog.String("index", cfg.Index),
		)

		shipper, err = NewElasticsearchShipper(cfg.URL, cfg.Index, cfg.Timeout, logger)
		if err != nil {
			return nil, err
		}

	case config.LogForwardProviderPubSub:
		if cfg.ProjectID == "" {
			return nil, errors.New("project ID is required for pubsub log forwarding")
		}
		if cfg.TopicID == "" {
			return nil, errors.New("topic ID is required for pubsub log forwarding")
		}

		shipper, err = NewPubSubShipper(params.Ctx, cfg.ProjectID, cfg.TopicID, logger)
		if err != nil {
			return nil, err
		}

	default:
		return nil, errors.Errorf("unknown log forward provider: %s", cfg.Provider)
	}

	params.Lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			logger.Info("Closing LogShipper")

			return shipper.Close()
		},
	})

	return shipper, nil
}
