package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port string `yaml:"port"`

	// classifier
	ClassifierBackend string        `yaml:"classifier_backend"` // huggingface | gemini | openai
	HFAPIKey          string        `yaml:"hugging_face_api_key"`
	HFModelURL        string        `yaml:"hf_model_url"`
	GeminiAPIKey      string        `yaml:"gemini_api_key"`
	GeminiModel       string        `yaml:"gemini_model"`
	OpenAIAPIKey      string        `yaml:"openai_api_key"`
	OpenAIModel       string        `yaml:"openai_model"`
	OpenAIBaseURL     string        `yaml:"openai_base_url"`
	ClassifierTimeout time.Duration `yaml:"classifier_timeout"`
	PromptDir         string        `yaml:"prompt_dir"`

	// grounding
	SearchAPIKey      string        `yaml:"google_search_api_key"`
	SearchEngineID    string        `yaml:"google_search_cx"`
	SearchLanguage    string        `yaml:"search_language"`
	SearchResultCount int           `yaml:"search_result_count"`
	SearchMaxContext  int           `yaml:"search_max_context"`
	SearchTimeout     time.Duration `yaml:"search_timeout"`

	// http surface
	CORSOrigins    []string `yaml:"cors_allowed_origins"`
	RateLimitRPS   float64  `yaml:"rate_limit_rps"`
	RateLimitBurst int      `yaml:"rate_limit_burst"`

	// telegram front end
	TelegramBotToken string `yaml:"telegram_bot_token"`
	WebhookURL       string `yaml:"webhook_url"`

	OTLPEndpoint string `yaml:"otel_exporter_otlp_endpoint"`
	LogLevel     string `yaml:"log_level"`
	LogFormat    string `yaml:"log_format"`
}

func Defaults() *Config {
	return &Config{
		Port:              "8000",
		ClassifierBackend: "huggingface",
		GeminiModel:       "gemini-2.5-flash",
		OpenAIModel:       "gpt-4o-mini",
		ClassifierTimeout: 60 * time.Second,
		SearchLanguage:    "lang_en",
		SearchResultCount: 5,
		SearchMaxContext:  400,
		SearchTimeout:     10 * time.Second,
		CORSOrigins:       []string{"*"},
		RateLimitBurst:    10,
		LogLevel:          "info",
		LogFormat:         "json",
	}
}

func MustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("missing required env %s", k)
	}
	return v
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("config: ignoring bad int %s=%q", k, v)
	}
	return def
}

func getEnvFloat(k string, def float64) float64 {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("config: ignoring bad float %s=%q", k, v)
	}
	return def
}

func getEnvDuration(k string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("config: ignoring bad duration %s=%q", k, v)
	}
	return def
}

func getEnvList(k string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Load reads an optional YAML file (path may be empty) and then applies the
// environment on top of it. Credentials are not required here: a missing
// classifier key is reported per request, not at startup.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", path)
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(c *Config) {
	c.Port = getEnv("PORT", c.Port)

	c.ClassifierBackend = strings.ToLower(getEnv("CLASSIFIER_BACKEND", c.ClassifierBackend))
	c.HFAPIKey = getEnv("HUGGING_FACE_API_KEY", c.HFAPIKey)
	c.HFModelURL = getEnv("HF_MODEL_URL", c.HFModelURL)
	c.GeminiAPIKey = getEnv("GEMINI_API_KEY", c.GeminiAPIKey)
	c.GeminiModel = getEnv("GEMINI_MODEL", c.GeminiModel)
	c.OpenAIAPIKey = getEnv("OPENAI_API_KEY", c.OpenAIAPIKey)
	c.OpenAIModel = getEnv("OPENAI_MODEL", c.OpenAIModel)
	c.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", c.OpenAIBaseURL)
	c.ClassifierTimeout = getEnvDuration("CLASSIFIER_TIMEOUT", c.ClassifierTimeout)
	c.PromptDir = getEnv("PROMPT_DIR", c.PromptDir)

	c.SearchAPIKey = getEnv("GOOGLE_SEARCH_API_KEY", c.SearchAPIKey)
	c.SearchEngineID = getEnv("GOOGLE_SEARCH_CX", c.SearchEngineID)
	c.SearchLanguage = getEnv("SEARCH_LANGUAGE", c.SearchLanguage)
	c.SearchResultCount = getEnvInt("SEARCH_RESULT_COUNT", c.SearchResultCount)
	c.SearchMaxContext = getEnvInt("SEARCH_MAX_CONTEXT", c.SearchMaxContext)
	c.SearchTimeout = getEnvDuration("SEARCH_TIMEOUT", c.SearchTimeout)

	c.CORSOrigins = getEnvList("CORS_ALLOWED_ORIGINS", c.CORSOrigins)
	c.RateLimitRPS = getEnvFloat("RATE_LIMIT_RPS", c.RateLimitRPS)
	c.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", c.RateLimitBurst)

	c.TelegramBotToken = getEnv("TELEGRAM_BOT_TOKEN", c.TelegramBotToken)
	c.WebhookURL = getEnv("WEBHOOK_URL", c.WebhookURL)

	c.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.OTLPEndpoint)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
}
