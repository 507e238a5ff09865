package logship

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"bmauth/config"
	deliverycontext "bmauth/internal/delivery/context"
	"bmauth/internal/domain/service"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const (
	defaultQueueSize   = 256
	defaultShipTimeout = 5 * time.Second
)

// Options tunes the asynchronous forwarder.
type Options struct {
	ServiceName string
	QueueSize   int
	Timeout     time.Duration
}

// Forwarder queues events for a single background worker. When the queue is full the
// event is dropped and counted; callers never wait on the sink.
type Forwarder struct {
	shipper service.LogShipper
	metrics service.MetricsRecorder
	logger  *slog.Logger
	opts    Options
	now     func() time.Time

	mu     sync.RWMutex
	closed bool
	queue  chan *service.LogEvent
	done   chan struct{}
}

// NewAsyncForwarder creates a forwarder. Start must be called before events are shipped.
func NewAsyncForwarder(shipper service.LogShipper, metrics service.MetricsRecorder, logger *slog.Logger, opts Options) *Forwarder {
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultShipTimeout
	}

	return &Forwarder{
		shipper: shipper,
		metrics: metrics,
		logger:  logger,
		opts:    opts,
		now:     time.Now,
		queue:   make(chan *service.LogEvent, opts.QueueSize),
		done:    make(chan struct{}),
	}
}

// Forward enqueues the message without blocking.
func (f *Forwarder) Forward(ctx context.Context, message string) {
	event := &service.LogEvent{
		Message:   message,
		Timestamp: f.now().UTC(),
		RequestID: deliverycontext.GetRequestIDFromContext(ctx),
		Service:   f.opts.ServiceName,
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		f.drop(ctx, event, "forwarder stopped")

		return
	}

	select {
	case f.queue <- event:
	default:
		f.drop(ctx, event, "queue full")
	}
}

func (f *Forwarder) drop(ctx context.Context, event *service.LogEvent, reason string) {
	if f.metrics != nil {
		f.metrics.RecordDroppedLogEvent()
	}

	deliverycontext.GetLoggerOrDefault(ctx, f.logger).Warn("Dropped log event",
		slog.String("reason", reason),
		slog.String("message", event.Message),
	)
}

// Start launches the worker.
func (f *Forwarder) Start() {
	go f.run()
}

func (f *Forwarder) run() {
	defer close(f.done)

	for event := range f.queue {
		f.ship(event)
	}
}

func (f *Forwarder) ship(event *service.LogEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), f.opts.Timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("Log shipper panicked", slog.Any("panic", r))
		}
	}()

	if err := f.shipper.Ship(ctx, event); err != nil {
		f.logger.Warn("Failed to forward log event",
			slog.String("request_id", event.RequestID),
			slog.Any("error", err),
		)
	}
}

// Stop refuses new events and waits for queued ones until ctx expires.
func (f *Forwarder) Stop(ctx context.Context) error {
	f.mu.Lock()
	if !f.closed {
		f.closed = true
		close(f.queue)
	}
	f.mu.Unlock()

	select {
	case <-f.done:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "log forwarder did not drain before shutdown")
	}
}

// ForwarderParams holds dependencies for the LogForwarder, injected by Fx
type ForwarderParams struct {
	fx.In

	Lc      fx.Lifecycle
	Config  *config.Config
	Logger  *slog.Logger
	Shipper service.LogShipper
	Metrics service.MetricsRecorder
}

// NewForwarder creates the LogForwarder and ties its worker to the application lifecycle.
func NewForwarder(params ForwarderParams) service.LogForwarder {
	cfg := params.Config.LogForward
	forwarder := NewAsyncForwarder(params.Shipper, params.Metrics, params.Logger, Options{
		ServiceName: params.Config.Env.ServiceName,
		QueueSize:   cfg.QueueSize,
		Timeout:     cfg.Timeout,
	})

	params.Lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			forwarder.Start()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			params.Logger.Info("Draining log forwarder")

			return forwarder.Stop(ctx)
		},
	})

	return forwarder
}

// Module provides the log forwarding FX module
//
//nolint:gochecknoglobals
var Module = fx.Options(
	fx.Provide(NewShipper, NewForwarder),
)
