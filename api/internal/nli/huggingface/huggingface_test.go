package huggingface

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"factcheck/api/internal/nli"
)

func newServer(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func TestClassify_RequestShape(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer hf-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "FACTUAL CONTEXT: x CLAIM TO VERIFY: y", body["inputs"])
		assert.Equal(t, map[string]any{
			"candidate_labels": []any{"CONTRADICTION", "ENTAILMENT", "NEUTRAL"},
			"multi_label":      false,
		}, body["parameters"])
		assert.Equal(t, map[string]any{"wait_for_model": true}, body["options"])

		_, _ = w.Write([]byte(`{"labels":["ENTAILMENT","NEUTRAL","CONTRADICTION"],"scores":[0.93,0.05,0.02]}`))
	})

	e := New("hf-key", srv.URL, zap.NewNop())
	p, err := e.Classify(t.Context(), "FACTUAL CONTEXT: x CLAIM TO VERIFY: y")

	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, nli.Entailment, p.Label)
	assert.InDelta(t, 0.93, p.Score, 1e-12)
}

func TestClassify_WrappedResponse(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"labels":["CONTRADICTION","ENTAILMENT","NEUTRAL"],"scores":[0.2,0.75,0.05]}]`))
	})

	p, err := New("k", srv.URL, zap.NewNop()).Classify(t.Context(), "text")

	require.NoError(t, err)
	assert.Equal(t, &nli.Prediction{Label: nli.Entailment, Score: 0.75}, p)
}

func TestClassify_LogsPayloadShape(t *testing.T) {
	for _, tc := range []struct {
		body  string
		shape string
	}{
		{`{"labels":["NEUTRAL"],"scores":[0.6]}`, "unwrapped"},
		{`[{"labels":["NEUTRAL"],"scores":[0.6]}]`, "wrapped"},
	} {
		t.Run(tc.shape, func(t *testing.T) {
			srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tc.body))
			})
			core, logs := observer.New(zapcore.DebugLevel)

			_, err := New("k", srv.URL, zap.New(core)).Classify(t.Context(), "text")
			require.NoError(t, err)

			entries := logs.FilterMessage("classified").All()
			require.Len(t, entries, 1)
			assert.Equal(t, tc.shape, entries[0].ContextMap()["shape"])
		})
	}
}

func TestClassify_MalformedIsIndeterminate(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"warning":"something else"}`))
	})

	p, err := New("k", srv.URL, zap.NewNop()).Classify(t.Context(), "text")

	assert.NoError(t, err)
	assert.Nil(t, p)
}

func TestClassify_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantDetails string
	}{
		{"structured error", http.StatusServiceUnavailable, `{"error":"Model is currently loading","estimated_time":20}`, "status 503: Model is currently loading"},
		{"error list", http.StatusBadRequest, `{"error":["bad inputs","too long"]}`, "status 400: bad inputs; too long"},
		{"raw text", http.StatusBadGateway, "upstream exploded", "status 502: upstream exploded"},
		{"empty body", http.StatusUnauthorized, "", "status 401: Unauthorized"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			p, err := New("k", srv.URL, zap.NewNop()).Classify(t.Context(), "text")

			assert.Nil(t, p)
			var ue *nli.UpstreamError
			require.ErrorAs(t, err, &ue)
			assert.Equal(t, tt.status, ue.StatusCode)
			assert.Equal(t, tt.wantDetails, ue.Details())
		})
	}
}

func TestClassify_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New("k", url, zap.NewNop()).Classify(t.Context(), "text")

	var ue *nli.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, 0, ue.StatusCode)
}

func TestReady(t *testing.T) {
	assert.NoError(t, New("k", "http://x", zap.NewNop()).Ready())
	assert.ErrorContains(t, New("", "http://x", zap.NewNop()).Ready(), "HUGGING_FACE_API_KEY")
	assert.ErrorContains(t, New("k", " ", zap.NewNop()).Ready(), "HF_MODEL_URL")
}
