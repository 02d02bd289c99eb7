package backend

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/trondarild/categen/internal/config"
)

// Provider names.
const (
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
)

// New builds the configured provider client wrapped in a Retrier.
// Provider detection when unset: a Gemini API key (config or environment)
// selects Gemini, otherwise the local Ollama server is assumed.
func New(cfg config.Backend, logger *zap.Logger) (*Retrier, error) {
	provider := cfg.Provider
	if provider == "" {
		if cfg.APIKey != "" {
			provider = ProviderGemini
		} else {
			provider = ProviderOllama
		}
	}

	var (
		client Client
		err    error
	)
	switch provider {
	case ProviderOllama:
		client = NewOllamaClient(cfg.BaseURL, cfg.TimeoutDuration())
	case ProviderGemini:
		client, err = NewGeminiClient(cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown backend provider: %s (valid: %s, %s)",
			provider, ProviderOllama, ProviderGemini)
	}

	return NewRetrier(client, cfg.MaxRetries, logger), nil
}
