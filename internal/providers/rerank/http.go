// Package rerank is the HTTP client for the reranker provider of
// spec.md §6.3: POST /rerank { query, documents, top_k } -> scored results.
// No rerank SDK appears anywhere in the example pack, so this client
// follows the teacher's own raw-net/http JSON-envelope idiom
// (internal/ai/openai.go) rather than inventing or vendoring one.
package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/seanblong/resumesearch/internal/rerank"
)

// Client calls a §6.3-shaped /rerank endpoint.
type Client struct {
	Endpoint string
	APIKey   string
	http     *http.Client
}

// NewClient builds a reranker Client with a bounded request timeout
// (spec.md §5 recommends 5s for reranking).
func NewClient(endpoint, apiKey string) *Client {
	return &Client{
		Endpoint: endpoint,
		APIKey:   apiKey,
		http:     &http.Client{Timeout: 5 * time.Second},
	}
}

type rerankRequest struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopK      int      `json:"top_k"`
}

type rerankResponse struct {
	Results []struct {
		Index int     `json:"index"`
		Score float64 `json:"score"`
	} `json:"results"`
}

// Rerank implements rerank.Adapter over HTTP. It does not mutate its
// inputs and is safe to call repeatedly with the same arguments.
func (c *Client) Rerank(ctx context.Context, query string, documents []string, topK int) ([]rerank.ScoredDocument, error) {
	if c.Endpoint == "" {
		return nil, errors.New("rerank: endpoint unset")
	}

	payload := rerankRequest{Query: query, Documents: documents, TopK: topK}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rerank: non-200 status %d", resp.StatusCode)
	}

	var out rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("rerank: decode failed: %w", err)
	}

	results := make([]rerank.ScoredDocument, 0, len(out.Results))
	for _, r := range out.Results {
		results = append(results, rerank.ScoredDocument{Index: r.Index, Score: r.Score})
	}
	return results, nil
}
