package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jwebster45206/story-sim/internal/config"
	"github.com/jwebster45206/story-sim/pkg/chat"
)

// msgNoResponse is returned by backends when the model sent back nothing.
const msgNoResponse = "(no response)"

// ErrNoProvider means no LLM backend is configured.
var ErrNoProvider = errors.New("no llm provider configured")

// LLMService defines the interface for interacting with an LLM API.
type LLMService interface {
	// InitModel prepares the model on startup.
	InitModel(ctx context.Context, modelName string) error

	// Chat returns the model's reply to messages.
	Chat(ctx context.Context, messages []chat.ChatMessage) (string, error)
}

// NewLLMService builds the backend selected by cfg.LLMProvider.
func NewLLMService(cfg *config.Config, logger *slog.Logger) (LLMService, error) {
	switch cfg.LLMProvider {
	case config.ProviderOllama:
		return NewOllamaService(cfg.LLMBaseURL, cfg.LLMModel, logger), nil
	case config.ProviderAnthropic:
		if cfg.LLMAPIKey == "" {
			return nil, fmt.Errorf("anthropic provider requires LLM_API_KEY")
		}
		svc := NewAnthropicService(cfg.LLMAPIKey, cfg.LLMModel, logger)
		if cfg.LLMBaseURL != "" {
			svc.baseURL = cfg.LLMBaseURL
		}
		return svc, nil
	case config.ProviderOpenAI:
		if cfg.LLMAPIKey == "" {
			return nil, fmt.Errorf("openai provider requires LLM_API_KEY")
		}
		return NewOpenAIService(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, logger), nil
	case config.ProviderNone, "":
		return nil, ErrNoProvider
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}
}
