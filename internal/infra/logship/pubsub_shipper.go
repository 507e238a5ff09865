package logship

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"bmauth/internal/domain/service"

	"cloud.google.com/go/pubsub/v2"
	pubsubpb "cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"github.com/pkg/errors"
)

// pubsubShipper publishes events to a Pub/Sub topic; a subscription can push them to the index.
type pubsubShipper struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
	logger    *slog.Logger
}

// NewPubSubShipper creates a shipper for an existing topic.
func NewPubSubShipper(ctx context.Context, projectID, topicID string, logger *slog.Logger) (service.LogShipper, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	topicPath := fmt.Sprintf("projects/%s/topics/%s", projectID, topicID)
	if _, err := client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: topicPath}); err != nil {
		client.Close()

		return nil, errors.Wrapf(err, "failed to get topic %s", topicID)
	}

	logger.Info("Google Pub/Sub log shipper initialized",
		slog.String("project_id", projectID),
		slog.String("topic_id", topicID),
	)

	return &pubsubShipper{
		client:    client,
		publisher: client.Publisher(topicID),
		logger:    logger,
	}, nil
}

func (s *pubsubShipper) Ship(ctx context.Context, event *service.LogEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return errors.WithStack(err)
	}

	attributes := map[string]string{}
	if event.Service != "" {
		attributes["service"] = event.Service
	}
	if event.RequestID != "" {
		attributes["request_id"] = event.RequestID
	}

	result := s.publisher.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attributes,
	})

	serverID, err := result.Get(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	s.logger.Debug("[GooglePubSub] Log event published", slog.String("server_id", serverID))

	return nil
}

func (s *pubsubShipper) Close() error {
	if s.publisher != nil {
		s.publisher.Stop()
	}
	if s.client != nil {
		return errors.WithStack(s.client.Close())
	}

	return nil
}
