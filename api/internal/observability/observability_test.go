package observability

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMetrics(t *testing.T) {
	m := NewMetrics()

	m.ObserveRequest(200, 120*time.Millisecond)
	m.ObserveRequest(502, time.Second)
	m.ObserveVerdict("VERIFIED", "")
	m.ObserveVerdict("PARTIAL", "no_results")

	assert.InDelta(t, 1, testutil.ToFloat64(m.Requests.WithLabelValues("200")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Requests.WithLabelValues("502")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Verdicts.WithLabelValues("VERIFIED")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.SearchFallbacks.WithLabelValues("no_results")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.SearchFallbacks))
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics()
	m.ObserveRequest(400, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `factcheck_requests_total{code="400"} 1`)
	assert.Contains(t, string(body), "factcheck_request_duration_seconds_bucket")
}

func TestInitTracer_Disabled(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), "", "factcheck", zap.NewNop())
	require.NoError(t, err)
	shutdown(context.Background())
}
