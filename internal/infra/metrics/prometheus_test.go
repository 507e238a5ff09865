package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"bmauth/config"
	"bmauth/internal/domain/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_ConcurrentIncrements(t *testing.T) {
	r := New(Params{Config: &config.Config{}})

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.IncRequests()
		}()
	}
	wg.Wait()

	assert.Equal(t, float64(50), testutil.ToFloat64(r.requests))
}

func TestRecorder_Outcomes(t *testing.T) {
	r := New(Params{Config: &config.Config{}})

	r.RecordRegistration(service.OutcomeSuccess)
	r.RecordRegistration(service.OutcomeDuplicate)
	r.RecordRegistration(service.OutcomeDuplicate)
	r.RecordLogin(service.OutcomeInvalidCredentials)
	r.RecordDroppedLogEvent()

	assert.Equal(t, float64(1), testutil.ToFloat64(r.registrations.WithLabelValues(service.OutcomeSuccess)))
	assert.Equal(t, float64(2), testutil.ToFloat64(r.registrations.WithLabelValues(service.OutcomeDuplicate)))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.logins.WithLabelValues(service.OutcomeInvalidCredentials)))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.droppedLogs))
}

func TestRecorder_HandlerExposesTextFormat(t *testing.T) {
	cfg := &config.Config{Metrics: &config.MetricsConfig{Namespace: "bm_auth"}}
	r := New(Params{Config: cfg})
	r.IncRequests()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login_metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, rec.Body.String(), "bm_auth_total_solicitudes 1")
}

type failingCollector struct {
	desc *prometheus.Desc
}

func (c failingCollector) Describe(ch chan<- *prometheus.Desc) { ch <- c.desc }

func (c failingCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.NewInvalidMetric(c.desc, errors.New("collection failed"))
}

func TestRecorder_HandlerReturns500OnCollectionFailure(t *testing.T) {
	r := New(Params{Config: &config.Config{}})
	r.Registry().MustRegister(failingCollector{
		desc: prometheus.NewDesc("broken_metric", "always fails", nil, nil),
	})

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login_metrics", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
