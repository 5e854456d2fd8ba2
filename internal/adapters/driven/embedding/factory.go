// Package embedding constructs the embedding service for a knowledge
// base from its configured provider and model.
package embedding

import (
	"fmt"
	"time"

	"github.com/GQAdonis/Shannon/internal/adapters/driven/embedding/ollama"
	"github.com/GQAdonis/Shannon/internal/adapters/driven/embedding/openai"
	"github.com/GQAdonis/Shannon/internal/core/domain"
	"github.com/GQAdonis/Shannon/internal/core/ports/driven"
)

// Supported provider names.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Options carries provider credentials and endpoints, normally read
// from the config file and environment.
type Options struct {
	// OpenAIAPIKey authenticates against the OpenAI API.
	OpenAIAPIKey string

	// OpenAIBaseURL overrides the OpenAI endpoint (Azure, proxies).
	OpenAIBaseURL string

	// OllamaBaseURL overrides the local Ollama endpoint.
	OllamaBaseURL string

	// Dimensions overrides the model's default vector size.
	Dimensions int

	// Timeout is the per-request timeout.
	Timeout time.Duration
}

// NewService returns the embedding service for a provider and model.
// An empty provider defaults to Ollama, which needs no credentials.
func NewService(provider, model string, opts Options) (driven.EmbeddingService, error) {
	switch provider {
	case ProviderOpenAI:
		return openai.NewEmbeddingService(openai.Config{
			APIKey:     opts.OpenAIAPIKey,
			BaseURL:    opts.OpenAIBaseURL,
			Model:      model,
			Timeout:    opts.Timeout,
			Dimensions: opts.Dimensions,
		})
	case ProviderOllama, "":
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL:    opts.OllamaBaseURL,
			Model:      model,
			Timeout:    opts.Timeout,
			Dimensions: opts.Dimensions,
		}), nil
	default:
		return nil, fmt.Errorf("%w: embedding provider %q", domain.ErrUnsupportedType, provider)
	}
}

// ForKnowledgeBase builds the embedding service configured on a
// knowledge base.
func ForKnowledgeBase(kb *domain.KnowledgeBase, opts Options) (driven.EmbeddingService, error) {
	return NewService(kb.EmbeddingProvider, kb.EmbeddingModel, opts)
}
