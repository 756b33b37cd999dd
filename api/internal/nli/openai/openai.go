package openai

import (
	"context"
	"errors"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"factcheck/api/internal/nli"
)

// Engine asks an OpenAI-compatible chat endpoint for a zero-shot NLI reply.
type Engine struct {
	APIKey string
	Model  string
	System string

	client *openai.Client
	log    *zap.Logger
}

// New builds the engine. baseURL may be empty for api.openai.com.
func New(key, model, baseURL, system string, log *zap.Logger) *Engine {
	key = strings.TrimSpace(key)
	cfg := openai.DefaultConfig(key)
	if u := strings.TrimSpace(baseURL); u != "" {
		cfg.BaseURL = strings.TrimRight(u, "/")
	}
	return &Engine{
		APIKey: key,
		Model:  strings.TrimSpace(model),
		System: system,
		client: openai.NewClientWithConfig(cfg),
		log:    log.Named("openai"),
	}
}

func (e *Engine) Name() string     { return "openai" }
func (e *Engine) GetModel() string { return e.Model }

func (e *Engine) Ready() error {
	if e.APIKey == "" {
		return errors.New("OPENAI_API_KEY is empty")
	}
	if e.Model == "" {
		return errors.New("OPENAI_MODEL is empty")
	}
	return nil
}

func (e *Engine) Classify(ctx context.Context, text string) (*nli.Prediction, error) {
	if err := e.Ready(); err != nil {
		return nil, err
	}

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: e.System},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		e.log.Error("chat completion failed", zap.Error(err))
		return nil, e.upstream(err)
	}
	if len(resp.Choices) == 0 {
		e.log.Warn("no choices returned")
		return nil, nil
	}

	e.log.Debug("chat completion", zap.String("finish_reason", string(resp.Choices[0].FinishReason)))
	p, err := nli.PredictionFromText(resp.Choices[0].Message.Content)
	if err != nil {
		e.log.Warn("indeterminate classification", zap.Error(err))
		return nil, nil
	}
	return p, nil
}

func (e *Engine) upstream(err error) error {
	ue := &nli.UpstreamError{Engine: e.Name(), Detail: err.Error()}
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		ue.StatusCode = apiErr.HTTPStatusCode
		ue.Detail = apiErr.Message
	case errors.As(err, &reqErr):
		ue.StatusCode = reqErr.HTTPStatusCode
		if reqErr.Err != nil {
			ue.Detail = reqErr.Err.Error()
		}
	}
	return ue
}
