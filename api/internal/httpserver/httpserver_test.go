package httpserver

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"factcheck/api/internal/config"
	"factcheck/api/internal/handle"
	"factcheck/api/internal/nli"
	"factcheck/api/internal/observability"
	"factcheck/api/internal/search"
	"factcheck/api/internal/verify"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fetcher struct{}

func (fetcher) FetchContext(context.Context, string) search.Context {
	return search.Real("[Snippet] Water boils at 100 degrees Celsius at sea level.", 1)
}

type engine struct{}

func (engine) Name() string     { return "stub" }
func (engine) GetModel() string { return "stub" }
func (engine) Ready() error     { return nil }
func (engine) Classify(context.Context, string) (*nli.Prediction, error) {
	return &nli.Prediction{Label: nli.Entailment, Score: 0.97}, nil
}

func newTestRouter(t *testing.T, mutate func(*config.Config)) *gin.Engine {
	t.Helper()
	cfg := config.Defaults()
	if mutate != nil {
		mutate(cfg)
	}
	log := zap.NewNop()
	m := observability.NewMetrics()
	h := handle.New(verify.New(cfg, fetcher{}, engine{}, log), m, log)
	return NewRouter(cfg, h, m, log)
}

func do(r http.Handler, method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(rec, req)
	return rec
}

func TestRoutes_Verify(t *testing.T) {
	r := newTestRouter(t, nil)

	for _, path := range []string{"/api/verify", "/.netlify/functions/verify"} {
		rec := do(r, http.MethodPost, path, `{"input":"Water boils at 100 C"}`, nil)
		require.Equal(t, http.StatusOK, rec.Code, path)

		var v nli.Verdict
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
		assert.Equal(t, nli.StatusVerified, v.Status)
		assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))
	}
}

func TestRoutes_MethodNotAllowed(t *testing.T) {
	r := newTestRouter(t, nil)

	rec := do(r, http.MethodGet, "/api/verify", "", nil)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.JSONEq(t, `{"error":"Method Not Allowed"}`, rec.Body.String())
}

func TestRoutes_HealthAndMetrics(t *testing.T) {
	r := newTestRouter(t, nil)
	do(r, http.MethodPost, "/api/verify", `{"input":"x"}`, nil)

	rec := do(r, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, "ok", rec.Body.String())

	rec = do(r, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `factcheck_verdicts_total{status="VERIFIED"} 1`)
}

func TestRoutes_RequestIDPropagates(t *testing.T) {
	r := newTestRouter(t, nil)

	rec := do(r, http.MethodGet, "/healthz", "", map[string]string{HeaderRequestID: "abc-123"})

	assert.Equal(t, "abc-123", rec.Header().Get(HeaderRequestID))
}

func TestRoutes_CORS(t *testing.T) {
	r := newTestRouter(t, func(c *config.Config) { c.CORSOrigins = []string{"https://factcheck.example"} })

	rec := do(r, http.MethodOptions, "/api/verify", "", map[string]string{
		"Origin":                        "https://factcheck.example",
		"Access-Control-Request-Method": http.MethodPost,
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://factcheck.example", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(r, http.MethodPost, "/api/verify", `{"input":"x"}`, map[string]string{"Origin": "https://evil.example"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRoutes_RateLimit(t *testing.T) {
	r := newTestRouter(t, func(c *config.Config) {
		c.RateLimitRPS = 0.001
		c.RateLimitBurst = 1
	})

	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/verify", `{"input":"x"}`, nil).Code)

	rec := do(r, http.MethodPost, "/api/verify", `{"input":"x"}`, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error"`)

	// health checks are not limited
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/healthz", "", nil).Code)
}

func TestRecovery(t *testing.T) {
	r := newTestRouter(t, nil)
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	rec := do(r, http.MethodGet, "/boom", "", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error."}`, rec.Body.String())
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	s := New(addr, newTestRouter(t, nil), zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
