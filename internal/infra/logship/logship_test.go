package logship

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"bmauth/config"
	deliverycontext "bmauth/internal/delivery/context"
	"bmauth/internal/domain/service"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type countingMetrics struct {
	dropped atomic.Int64
}

func (m *countingMetrics) IncRequests()               {}
func (m *countingMetrics) RecordRegistration(string) {}
func (m *countingMetrics) RecordLogin(string)        {}
func (m *countingMetrics) RecordDroppedLogEvent()    { m.dropped.Add(1) }

type recordingShipper struct {
	mu     sync.Mutex
	events []*service.LogEvent
	block  chan struct{}
	err    error
	panics bool
}

func (s *recordingShipper) Ship(_ context.Context, event *service.LogEvent) error {
	if s.block != nil {
		<-s.block
	}
	if s.panics {
		panic("sink exploded")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)

	return s.err
}

func (s *recordingShipper) Close() error { return nil }

func (s *recordingShipper) shipped() []*service.LogEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]*service.LogEvent(nil), s.events...)
}

func TestElasticsearchShipper_PostsDocument(t *testing.T) {
	var gotPath, gotRequestID string
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRequestID = r.Header.Get("X-Request-Id")
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	shipper, err := NewElasticsearchShipper(server.URL+"/", "authentication-logs", time.Second, discardLogger())
	require.NoError(t, err)
	defer shipper.Close()

	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	err = shipper.Ship(context.Background(), &service.LogEvent{Message: "Usuario registrado: a@x.com", Timestamp: ts, RequestID: "req-1"})
	require.NoError(t, err)

	assert.Equal(t, "/authentication-logs/_doc", gotPath)
	assert.Equal(t, "req-1", gotRequestID)
	assert.Equal(t, "Usuario registrado: a@x.com", gotBody["message"])
	assert.Equal(t, "2024-01-02T03:04:05Z", gotBody["timestamp"])
}

func TestElasticsearchShipper_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	shipper, err := NewElasticsearchShipper(server.URL, "logs", time.Second, discardLogger())
	require.NoError(t, err)

	err = shipper.Ship(context.Background(), &service.LogEvent{Message: "x"})
	assert.ErrorContains(t, err, "non-success status: 503")
}

func TestNewElasticsearchShipper_RequiresURLAndIndex(t *testing.T) {
	_, err := NewElasticsearchShipper("", "logs", time.Second, discardLogger())
	assert.Error(t, err)

	_, err = NewElasticsearchShipper("http://elasticsearch:9200", "", time.Second, discardLogger())
	assert.Error(t, err)
}

func TestForwarder_ShipsEventsWithRequestID(t *testing.T) {
	shipper := &recordingShipper{}
	forwarder := NewAsyncForwarder(shipper, &countingMetrics{}, discardLogger(), Options{ServiceName: "bm-auth"})
	forwarder.Start()

	ctx := deliverycontext.WithRequestID(context.Background(), "req-42")
	forwarder.Forward(ctx, "Inicio de sesión exitoso: a@x.com")

	require.NoError(t, forwarder.Stop(context.Background()))

	events := shipper.shipped()
	require.Len(t, events, 1)
	assert.Equal(t, "Inicio de sesión exitoso: a@x.com", events[0].Message)
	assert.Equal(t, "req-42", events[0].RequestID)
	assert.Equal(t, "bm-auth", events[0].Service)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestForwarder_DropsWhenQueueIsFull(t *testing.T) {
	shipper := &recordingShipper{block: make(chan struct{})}
	metrics := &countingMetrics{}
	forwarder := NewAsyncForwarder(shipper, metrics, discardLogger(), Options{QueueSize: 1})
	forwarder.Start()

	// The first event occupies the worker, the second fills the queue.
	forwarder.Forward(context.Background(), "one")
	require.Eventually(t, func() bool { return len(forwarder.queue) == 0 }, time.Second, time.Millisecond)
	forwarder.Forward(context.Background(), "two")

	done := make(chan struct{})
	go func() {
		forwarder.Forward(context.Background(), "three")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Forward blocked on a full queue")
	}
	assert.Equal(t, int64(1), metrics.dropped.Load())

	close(shipper.block)
	require.NoError(t, forwarder.Stop(context.Background()))
	assert.Len(t, shipper.shipped(), 2)
}

func TestForwarder_SurvivesShipperFailures(t *testing.T) {
	shipper := &recordingShipper{err: errors.New("connection refused")}
	forwarder := NewAsyncForwarder(shipper, &countingMetrics{}, discardLogger(), Options{})
	forwarder.Start()

	forwarder.Forward(context.Background(), "one")
	forwarder.Forward(context.Background(), "two")

	require.NoError(t, forwarder.Stop(context.Background()))
	assert.Len(t, shipper.shipped(), 2)
}

func TestForwarder_RecoversFromShipperPanic(t *testing.T) {
	shipper := &recordingShipper{panics: true}
	forwarder := NewAsyncForwarder(shipper, &countingMetrics{}, discardLogger(), Options{})
	forwarder.Start()

	forwarder.Forward(context.Background(), "one")
	forwarder.Forward(context.Background(), "two")

	assert.NoError(t, forwarder.Stop(context.Background()))
}

func TestForwarder_DropsAfterStop(t *testing.T) {
	metrics := &countingMetrics{}
	forwarder := NewAsyncForwarder(&recordingShipper{}, metrics, discardLogger(), Options{})
	forwarder.Start()
	require.NoError(t, forwarder.Stop(context.Background()))

	forwarder.Forward(context.Background(), "late")

	assert.Equal(t, int64(1), metrics.dropped.Load())
	assert.NoError(t, forwarder.Stop(context.Background()))
}

func TestForwarder_StopHonoursDeadline(t *testing.T) {
	shipper := &recordingShipper{block: make(chan struct{})}
	defer close(shipper.block)

	forwarder := NewAsyncForwarder(shipper, &countingMetrics{}, discardLogger(), Options{})
	forwarder.Start()
	forwarder.Forward(context.Background(), "stuck")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := forwarder.Stop(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestNewShipper(t *testing.T) {
	cfg := &config.Config{}
	cfg.ApplyDefaults()
	params := ShipperParams{Lc: fxtest.NewLifecycle(t), Ctx: context.Background(), Config: cfg, Logger: discardLogger()}

	shipper, err := NewShipper(params)
	require.NoError(t, err)
	assert.IsType(t, &noopShipper{}, shipper)
	assert.NoError(t, shipper.Ship(context.Background(), &service.LogEvent{Message: "x"}))

	cfg.LogForward.Provider = config.LogForwardProviderElasticsearch
	cfg.LogForward.URL = "http://elasticsearch:9200"
	cfg.LogForward.Index = "authentication-logs"
	shipper, err = NewShipper(params)
	require.NoError(t, err)
	assert.IsType(t, &elasticsearchShipper{}, shipper)

	cfg.LogForward.Provider = config.LogForwardProviderPubSub
	_, err = NewShipper(params)
	assert.ErrorContains(t, err, "project ID is required")

	cfg.LogForward.Provider = "kafka"
	_, err = NewShipper(params)
	assert.ErrorContains(t, err, "unknown log forward provider: kafka")
}

func TestNewForwarder_RunsWithLifecycle(t *testing.T) {
	cfg := &config.Config{}
	cfg.ApplyDefaults()
	cfg.Env.ServiceName = "bm-auth"

	lc := fxtest.NewLifecycle(t)
	shipper := &recordingShipper{}
	forwarder := NewForwarder(ForwarderParams{Lc: lc, Config: cfg, Logger: discardLogger(), Shipper: shipper, Metrics: &countingMetrics{}})

	lc.RequireStart()
	forwarder.Forward(context.Background(), "hello")
	lc.RequireStop()

	require.Len(t, shipper.shipped(), 1)
	assert.Equal(t, "bm-auth", shipper.shipped()[0].Service)
}
