package embed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// VertexClient embeds text using Google's Gemini / Vertex AI embedding
// models via the genai SDK.
type VertexClient struct {
	cfg    *Config
	client *genai.Client
}

func NewVertexClient(ctx context.Context, cfg *Config) (*VertexClient, error) {
	if cfg == nil {
		return nil, errors.New("vertex: config cannot be nil")
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-005"
	}
	if cfg.Dim == 0 {
		cfg.Dim = 768
	}
	if cfg.Location == "" && strings.TrimSpace(cfg.APIKey) == "" {
		cfg.Location = "us-central1"
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

	client, err := genai.NewClient(ctx, &cc)
	if err != nil {
		return nil, fmt.Errorf("vertex: failed to create client: %w", err)
	}
	return &VertexClient{cfg: cfg, client: client}, nil
}

func (c *VertexClient) Embed(ctx context.Context, text string) ([]float32, error) {
	ecfg := genai.EmbedContentConfig{TaskType: "RETRIEVAL_QUERY"}
	res, err := c.client.Models.EmbedContent(ctx, c.cfg.Model, genai.Text(text), &ecfg)
	if err != nil {
		return nil, fmt.Errorf("vertex: embedding failed: %w", err)
	}
	if res == nil || len(res.Embeddings) == 0 {
		return nil, errors.New("vertex: no embedding returned")
	}
	return res.Embeddings[0].Values, nil
}

func (c *VertexClient) Dim() int { return c.cfg.Dim }
