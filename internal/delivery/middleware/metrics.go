package middleware

import (
	"bmauth/internal/domain/service"

	"github.com/labstack/echo/v4"
)

// RequestCounter increments the request counter before the handler runs.
type RequestCounter struct {
	metrics service.MetricsRecorder
}

// NewRequestCounter creates a new request counting middleware
func NewRequestCounter(metrics service.MetricsRecorder) *RequestCounter {
	return &RequestCounter{metrics: metrics}
}

func (m *RequestCounter) Count(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		m.metrics.IncRequests()

		return next(c)
	}
}
