package service

import (
	"context"
	"time"
)

// LogEvent is a single textual event shipped to the search index.
type LogEvent struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
	Service   string    `json:"service,omitempty"`
}

// LogShipper delivers one event to an external sink.
type LogShipper interface {
	Ship(ctx context.Context, event *LogEvent) error

	// Close releases any resources held by the shipper
	Close() error
}

// LogForwarder is fire-and-forget: Forward never blocks on the sink and never reports failure.
type LogForwarder interface {
	Forward(ctx context.Context, message string)
}
