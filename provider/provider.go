// Package provider adapts hosted language models to a single completion interface.
package provider

import (
	"context"
	"errors"
	"fmt"

	"akut-backend/config"
	"akut-backend/models"

	"go.uber.org/zap"
)

// Provider names accepted by LLM_PROVIDER
const (
	NameOpenAI = "openai"
	NameGemini = "gemini"
)

var (
	ErrNotConfigured   = errors.New("no completion provider configured")
	ErrUnknownProvider = errors.New("unknown completion provider")
	ErrEmptyResponse   = errors.New("completion provider returned no content")
)

// Params is the generation budget of a single call
type Params struct {
	MaxTokens   int
	Temperature float32
}

// Stream is a finite, non-restartable sequence of text fragments.
// Recv returns io.EOF once the provider has finished.
type Stream interface {
	Recv() (string, error)
	Close() error
}

// Completer produces text for a list of chat messages
type Completer interface {
	Name() string
	Complete(ctx context.Context, messages []models.Message, params Params) (string, error)
	CompleteStream(ctx context.Context, messages []models.Message, params Params) (Stream, error)
}

// New builds the provider selected by cfg. An explicit provider name wins;
// otherwise OpenAI is used when its key is set, then Gemini.
// ErrNotConfigured is returned when no key is available.
func New(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) (Completer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	name := cfg.Provider
	if name == "" {
		switch {
		case cfg.OpenAIAPIKey != "":
			name = NameOpenAI
		case cfg.GeminiAPIKey != "":
			name = NameGemini
		default:
			return nil, ErrNotConfigured
		}
	}

	switch name {
	case NameOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("%w: OPENAI_API_KEY not set", ErrNotConfigured)
		}
		logger.Info("Using OpenAI completion provider", zap.String("model", cfg.OpenAIModel))
		return NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel), nil
	case NameGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("%w: GEMINI_API_KEY not set", ErrNotConfigured)
		}
		p, err := NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		logger.Info("Using Gemini completion provider", zap.String("model", cfg.GeminiModel))
		return p, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
}
