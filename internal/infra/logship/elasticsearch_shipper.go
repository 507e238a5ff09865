package logship

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bmauth/internal/domain/service"

	"github.com/pkg/errors"
)

// elasticsearchShipper indexes each event as a document through the REST API.
type elasticsearchShipper struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewElasticsearchShipper creates a shipper posting to {baseURL}/{index}/_doc.
func NewElasticsearchShipper(baseURL, index string, timeout time.Duration, logger *slog.Logger) (service.LogShipper, error) {
	if baseURL == "" {
		return nil, errors.New("elasticsearch url is required")
	}
	if index == "" {
		return nil, errors.New("elasticsearch index is required")
	}

	endpoint, err := url.JoinPath(strings.TrimRight(baseURL, "/"), index, "_doc")
	if err != nil {
		return nil, errors.Wrapf(err, "invalid elasticsearch url %q", baseURL)
	}

	return &elasticsearchShipper{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}, nil
}

func (s *elasticsearchShipper) Ship(ctx context.Context, event *service.LogEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return errors.WithStack(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.WithStack(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if event.RequestID != "" {
		req.Header.Set("X-Request-Id", event.RequestID)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return errors.WithStack(err)
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Errorf("elasticsearch returned non-success status: %d", resp.StatusCode)
	}

	s.logger.Debug("[Elasticsearch] Log event indexed", slog.String("endpoint", s.endpoint))

	return nil
}

func (s *elasticsearchShipper) Close() error {
	s.httpClient.CloseIdleConnections()

	return nil
}
