package app

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"factcheck/api/internal/config"
	"factcheck/api/internal/nli"
	"factcheck/api/internal/nli/gemini"
	"factcheck/api/internal/nli/huggingface"
	"factcheck/api/internal/nli/openai"
	"factcheck/api/internal/search"
	"factcheck/api/internal/verify"
)

// Engines builds every classifier backend. Missing credentials are not an
// error here; they surface per request through Engine.Ready.
func Engines(cfg *config.Config, log *zap.Logger) *nli.Engines {
	system := nli.SystemPrompt(cfg.PromptDir)
	return &nli.Engines{
		HuggingFace: huggingface.New(cfg.HFAPIKey, cfg.HFModelURL, log),
		Gemini:      gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel, system, log),
		OpenAI:      openai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, system, log),
	}
}

// Pipeline wires search and the configured default engine.
func Pipeline(cfg *config.Config, log *zap.Logger) (*verify.Pipeline, *nli.Engines, error) {
	engines := Engines(cfg, log)
	eng, err := engines.GetEngine(cfg.ClassifierBackend)
	if err != nil {
		return nil, nil, errors.Wrap(err, "CLASSIFIER_BACKEND")
	}
	if err := eng.Ready(); err != nil {
		log.Warn("default classifier is not configured; requests will fail with 500",
			zap.String("engine", eng.Name()), zap.Error(err))
	}
	provider := search.New(cfg, log)
	if !provider.Configured() {
		log.Warn("search credentials missing; every claim will use a fallback context")
	}
	return verify.New(cfg, provider, eng, log), engines, nil
}
