package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"factcheck/api/internal/nli"
)

// Engine calls a Hugging Face zero-shot classification endpoint.
type Engine struct {
	APIKey   string
	ModelURL string
	httpc    *http.Client
	log      *zap.Logger
}

func New(key, modelURL string, log *zap.Logger) *Engine {
	return &Engine{
		APIKey:   strings.TrimSpace(key),
		ModelURL: strings.TrimSpace(modelURL),
		httpc:    &http.Client{},
		log:      log.Named("huggingface"),
	}
}

func (e *Engine) Name() string { return "huggingface" }

func (e *Engine) GetModel() string { return e.ModelURL }

func (e *Engine) Ready() error {
	if e.APIKey == "" {
		return errors.New("HUGGING_FACE_API_KEY is empty")
	}
	if e.ModelURL == "" {
		return errors.New("HF_MODEL_URL is empty")
	}
	return nil
}

type request struct {
	Inputs     string     `json:"inputs"`
	Parameters parameters `json:"parameters"`
	Options    options    `json:"options"`
}

type parameters struct {
	CandidateLabels []string `json:"candidate_labels"`
	MultiLabel      bool     `json:"multi_label"`
}

type options struct {
	WaitForModel bool `json:"wait_for_model"`
}

func (e *Engine) Classify(ctx context.Context, text string) (*nli.Prediction, error) {
	if err := e.Ready(); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(request{
		Inputs: text,
		Parameters: parameters{
			CandidateLabels: nli.CandidateLabelStrings(),
			MultiLabel:      false,
		},
		Options: options{WaitForModel: true},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.ModelURL, bytes.NewReader(payload))
	if err != nil {
		return nil, &nli.UpstreamError{Engine: e.Name(), Detail: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+e.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpc.Do(req)
	if err != nil {
		e.log.Error("classifier request failed", zap.Error(err))
		return nil, &nli.UpstreamError{Engine: e.Name(), Detail: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &nli.UpstreamError{Engine: e.Name(), StatusCode: resp.StatusCode, Detail: "read body: " + err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := errorMessage(resp.StatusCode, body)
		e.log.Error("classifier API error", zap.Int("status", resp.StatusCode), zap.String("detail", detail))
		return nil, &nli.UpstreamError{Engine: e.Name(), StatusCode: resp.StatusCode, Detail: detail}
	}

	r, err := nli.DecodeResponse(body)
	if err != nil {
		e.log.Warn("indeterminate classification", zap.Stringer("shape", r.Shape), zap.Error(err))
		return nil, nil
	}
	p, err := r.Payload.Best()
	if err != nil {
		e.log.Warn("indeterminate classification", zap.Stringer("shape", r.Shape), zap.Error(err))
		return nil, nil
	}
	e.log.Debug("classified",
		zap.Stringer("shape", r.Shape),
		zap.String("label", string(p.Label)),
		zap.Float64("score", p.Score),
	)
	return p, nil
}

// errorMessage prefers the "error" field of a JSON body and falls back to the
// raw text.
func errorMessage(status int, body []byte) string {
	var structured struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &structured); err == nil && len(structured.Error) > 0 {
		var s string
		if err := json.Unmarshal(structured.Error, &s); err == nil && s != "" {
			return s
		}
		var list []string
		if err := json.Unmarshal(structured.Error, &list); err == nil && len(list) > 0 {
			return strings.Join(list, "; ")
		}
		return string(structured.Error)
	}
	if raw := strings.TrimSpace(string(body)); raw != "" {
		return raw
	}
	return http.StatusText(status)
}
