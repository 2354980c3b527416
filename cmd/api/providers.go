package main

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"

	"github.com/seanblong/resumesearch/internal/config"
	"github.com/seanblong/resumesearch/internal/providers/embed"
	"github.com/seanblong/resumesearch/internal/providers/intent"
)

// stubLLM always fails, driving intent.DefaultExtractor straight to its
// heuristic fallback. Used only when Provider=stub, i.e. no real LLM
// backend is configured at all.
type stubLLM struct{}

func (stubLLM) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return "", errors.New("stub provider: no LLM configured")
}

// buildProviders constructs the embedding client and intent-extraction LLM
// for the configured provider.
func buildProviders(ctx context.Context, cfg *config.Specification) (embed.Client, intent.LLM, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		c := embed.NewOpenAIClient(&embed.Config{
			APIKey:    cfg.APIKey,
			Model:     cfg.EmbedModel,
			Dim:       cfg.EmbedDim,
			ProjectID: cfg.ProjectID,
		})
		return c, intent.NewOpenAILLM(cfg.APIKey, cfg.SummaryModel), nil

	case "vertexai", "google":
		embedClient, err := embed.NewVertexClient(ctx, &embed.Config{
			APIKey:    cfg.APIKey,
			Model:     cfg.EmbedModel,
			Dim:       cfg.EmbedDim,
			ProjectID: cfg.ProjectID,
			Location:  cfg.Location,
		})
		if err != nil {
			return nil, nil, err
		}

		cc := genai.ClientConfig{Backend: genai.BackendVertexAI}
		if strings.TrimSpace(cfg.APIKey) != "" {
			cc.APIKey = cfg.APIKey
		}
		if strings.TrimSpace(cfg.ProjectID) != "" {
			cc.Project = cfg.ProjectID
		}
		if strings.TrimSpace(cfg.Location) != "" {
			cc.Location = cfg.Location
		}
		llmClient, err := genai.NewClient(ctx, &cc)
		if err != nil {
			return nil, nil, err
		}
		return embedClient, intent.NewVertexLLM(llmClient, cfg.SummaryModel), nil

	case "stub":
		return embed.NewStubClient(fallbackDim(cfg.EmbedDim)), stubLLM{}, nil

	default:
		return nil, nil, errors.New("unsupported provider: " + cfg.Provider)
	}
}

func fallbackDim(dim int) int {
	if dim <= 0 {
		return 768
	}
	return dim
}
