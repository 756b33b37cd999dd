package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"factcheck/api/internal/nli"
)

type Engine struct {
	APIKey string
	Model  string
	System string

	base http.RoundTripper
	opts []option.ClientOption
	log  *zap.Logger
}

func New(apiKey, model, system string, log *zap.Logger, opts ...option.ClientOption) *Engine {
	return &Engine{
		APIKey: strings.TrimSpace(apiKey),
		Model:  strings.TrimSpace(model),
		System: system,
		base:   http.DefaultTransport,
		opts:   opts,
		log:    log.Named("gemini"),
	}
}

func (e *Engine) Name() string     { return "gemini" }
func (e *Engine) GetModel() string { return e.Model }

func (e *Engine) Ready() error {
	if e.APIKey == "" {
		return errors.New("GEMINI_API_KEY is empty")
	}
	if e.Model == "" {
		return errors.New("GEMINI_MODEL is empty")
	}
	return nil
}

// Classify makes exactly one generateContent request. The SDK's own retries
// are cut off by the transport.
func (e *Engine) Classify(ctx context.Context, text string) (*nli.Prediction, error) {
	if err := e.Ready(); err != nil {
		return nil, err
	}

	shot := &singleShot{base: e.base, apiKey: e.APIKey}
	opts := append([]option.ClientOption{
		option.WithAPIKey(e.APIKey),
		option.WithHTTPClient(&http.Client{Transport: shot}),
	}, e.opts...)
	cl, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, &nli.UpstreamError{Engine: e.Name(), Detail: err.Error()}
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.Model)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(0),
		ResponseMIMEType: "application/json",
	}
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(e.System)}}

	resp, err := m.GenerateContent(ctx, genai.Text(text))
	if err != nil {
		ue := e.upstream(err, shot)
		e.log.Error("generate failed", zap.Int("status", ue.StatusCode), zap.String("detail", ue.Detail))
		return nil, ue
	}
	return e.toPrediction(firstText(resp)), nil
}

// toPrediction returns nil for a reply that is not a usable classification.
func (e *Engine) toPrediction(txt string) *nli.Prediction {
	if strings.TrimSpace(txt) == "" {
		e.log.Warn("empty response")
		return nil
	}
	p, err := nli.PredictionFromText(txt)
	if err != nil {
		e.log.Warn("indeterminate classification", zap.Error(err))
		return nil
	}
	return p
}

type httpCoder interface {
	HTTPCode() int
}

// upstream prefers the status seen on the wire; SDK errors are only
// consulted when no response came back.
func (e *Engine) upstream(err error, shot *singleShot) *nli.UpstreamError {
	ue := &nli.UpstreamError{Engine: e.Name(), Detail: err.Error()}
	if shot != nil {
		if status, body := shot.failure(); status != 0 {
			ue.StatusCode = status
			ue.Detail = errorMessage(status, body)
			return ue
		}
	}
	var gerr *googleapi.Error
	var hc httpCoder
	switch {
	case errors.As(err, &gerr):
		ue.StatusCode = gerr.Code
		if gerr.Message != "" {
			ue.Detail = gerr.Message
		}
	case errors.As(err, &hc) && hc.HTTPCode() > 0:
		ue.StatusCode = hc.HTTPCode()
	}
	return ue
}

// errorMessage reads the Google API error envelope {"error": {"message": ...}}.
func errorMessage(status int, body []byte) string {
	var env struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err == nil && env.Error.Message != "" {
		return env.Error.Message
	}
	if raw := strings.TrimSpace(string(body)); raw != "" {
		return raw
	}
	return http.StatusText(status)
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
