package handler

import (
	"bmauth/internal/infra/metrics"

	"github.com/labstack/echo/v4"
)

// MetricsHandler serves the Prometheus text exposition.
type MetricsHandler struct {
	serve echo.HandlerFunc
}

// NewMetricsHandler is the constructor for MetricsHandler, injected by Fx.
func NewMetricsHandler(recorder *metrics.Recorder) *MetricsHandler {
	return &MetricsHandler{serve: echo.WrapHandler(recorder.Handler())}
}

func (h *MetricsHandler) Expose(c echo.Context) error {
	return h.serve(c)
}
