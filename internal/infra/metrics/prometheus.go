// Package metrics exposes request and business counters through a dedicated Prometheus registry.
package metrics

import (
	"net/http"

	"bmauth/config"
	"bmauth/internal/domain/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
)

// RequestsTotalName keeps the counter name dashboards already scrape.
const RequestsTotalName = "total_solicitudes"

// Recorder owns its registry; nothing is registered on the global default registry.
type Recorder struct {
	registry      *prometheus.Registry
	requests      prometheus.Counter
	registrations *prometheus.CounterVec
	logins        *prometheus.CounterVec
	droppedLogs   prometheus.Counter
}

// Params holds dependencies for the recorder, injected by Fx.
type Params struct {
	fx.In

	Config *config.Config
}

// New creates the recorder and registers every collector on a fresh registry.
func New(params Params) *Recorder {
	namespace := ""
	if params.Config != nil && params.Config.Metrics != nil {
		namespace = params.Config.Metrics.Namespace
	}

	r := &Recorder{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      RequestsTotalName,
			Help:      "Total number of requests received",
		}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_registrations_total",
			Help:      "Total number of user registrations by outcome",
		}, []string{"outcome"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_login_attempts_total",
			Help:      "Total number of login attempts by outcome",
		}, []string{"outcome"}),
		droppedLogs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "log_forward_dropped_total",
			Help:      "Total number of log events dropped because the forward queue was full",
		}),
	}

	r.registry.MustRegister(
		r.requests,
		r.registrations,
		r.logins,
		r.droppedLogs,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// AsRecorder exposes the recorder through the domain interface.
func AsRecorder(r *Recorder) service.MetricsRecorder {
	return r
}

func (r *Recorder) IncRequests() {
	r.requests.Inc()
}

func (r *Recorder) RecordRegistration(outcome string) {
	r.registrations.WithLabelValues(outcome).Inc()
}

func (r *Recorder) RecordLogin(outcome string) {
	r.logins.WithLabelValues(outcome).Inc()
}

func (r *Recorder) RecordDroppedLogEvent() {
	r.droppedLogs.Inc()
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the text exposition format. A collection failure yields a 500.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.HTTPErrorOnError,
		Registry:      r.registry,
	})
}
