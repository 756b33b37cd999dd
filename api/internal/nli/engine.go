package nli

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// Engine classifies a composed premise/hypothesis text against the fixed
// label set. A nil Prediction with a nil error means the upstream answered
// but the classification is indeterminate.
type Engine interface {
	Name() string
	GetModel() string
	// Ready reports missing credentials without touching the network.
	Ready() error
	Classify(ctx context.Context, text string) (*Prediction, error)
}

type Engines struct {
	HuggingFace Engine
	Gemini      Engine
	OpenAI      Engine
}

func (e *Engines) GetEngine(name string) (Engine, error) {
	var eng Engine
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "huggingface", "hf":
		eng = e.HuggingFace
	case "gemini":
		eng = e.Gemini
	case "gpt", "openai":
		eng = e.OpenAI
	default:
		return nil, errors.New("unknown classifier; use 'huggingface', 'gemini' or 'openai'")
	}
	if eng == nil {
		return nil, errors.New("classifier " + name + " is not configured")
	}
	return eng, nil
}

// Manager keeps a per-chat engine choice for the chat front end.
type Manager struct {
	def Engine
	m   sync.Map // chatID -> Engine
}

func NewManager(defaultEngine Engine) *Manager {
	return &Manager{def: defaultEngine}
}

func (m *Manager) Get(chatID int64) Engine {
	if v, ok := m.m.Load(chatID); ok {
		return v.(Engine)
	}
	return m.def
}

func (m *Manager) Set(chatID int64, e Engine) {
	m.m.Store(chatID, e)
}
