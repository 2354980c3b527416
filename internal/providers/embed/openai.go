package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
)

// OpenAIClient talks to OpenAI's /v1/embeddings endpoint directly over
// net/http, in the teacher's raw-JSON-envelope style (no SDK dependency
// exists in the example pack for this call shape).
type OpenAIClient struct {
	cfg  *Config
	http *http.Client
}

func NewOpenAIClient(cfg *Config) *OpenAIClient {
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	if cfg.Dim == 0 {
		switch cfg.Model {
		case "text-embedding-3-large":
			cfg.Dim = 3072
		default:
			cfg.Dim = 1536
		}
	}
	return &OpenAIClient{
		cfg:  cfg,
		http: &http.Client{Timeout: 20 * time.Second},
	}
}

func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if c.cfg.APIKey == "" {
		return nil, errors.New("openai: API key unset")
	}

	payload := map[string]string{"input": text, "model": c.cfg.Model}
	b, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://api.openai.com/v1/embeddings", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if strings.HasPrefix(c.cfg.APIKey, "sk-proj-") && c.cfg.ProjectID != "" {
		req.Header.Set("OpenAI-Project", c.cfg.ProjectID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("openai: embedding non-200")
	}

	var out struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if len(out.Data) == 0 {
		return nil, errors.New("openai: no embedding returned")
	}
	return out.Data[0].Embedding, nil
}

func (c *OpenAIClient) Dim() int { return c.cfg.Dim }
