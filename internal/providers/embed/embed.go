// Package embed provides the embedding-provider client contract of
// spec.md §6.2 and its implementations (stub, OpenAI, Vertex AI/Gemini).
package embed

import (
	"context"
	"errors"
)

// Client is the external collaborator the dense retriever (C5) depends on.
type Client interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dim() int
}

// Provider enumerates the supported embedding backends.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderVertex Provider = "vertexai"
	ProviderStub   Provider = "stub"
)

// Config configures a Client.
type Config struct {
	APIKey    string
	Model     string
	Dim       int
	ProjectID string
	Location  string
	Provider  Provider
}

// NewClient builds a Client for the configured Provider.
func NewClient(ctx context.Context, cfg *Config) (Client, error) {
	if cfg == nil {
		return nil, errors.New("embed: config is required")
	}
	switch cfg.Provider {
	case ProviderOpenAI:
		return NewOpenAIClient(cfg), nil
	case ProviderVertex:
		return NewVertexClient(ctx, cfg)
	case ProviderStub, "":
		return NewStubClient(cfg.Dim), nil
	default:
		return nil, errors.New("embed: unsupported provider: " + string(cfg.Provider))
	}
}

// StubClient returns zero-valued embeddings of the configured dimension,
// used for tests and offline development — cosine similarity against it is
// always 0, so dense retrieval still succeeds and ranks every chunk, but
// only by resumeId and sectionOrdinal, with no semantic signal.
type StubClient struct {
	dim int
}

func NewStubClient(dim int) *StubClient { return &StubClient{dim: dim} }

func (s *StubClient) Embed(ctx context.Context, text string) ([]float32, error) {
	return make([]float32, s.dim), nil
}

func (s *StubClient) Dim() int { return s.dim }
