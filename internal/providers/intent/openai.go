package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
)

// OpenAILLM implements LLM against OpenAI's /v1/chat/completions endpoint,
// the same raw-net/http JSON-envelope call internal/ai/openai.go's
// Summarize method makes, adapted from a fixed code-summary prompt to an
// arbitrary system/user prompt pair.
type OpenAILLM struct {
	apiKey string
	model  string
	http   *http.Client
}

// NewOpenAILLM builds an OpenAILLM. model defaults to "gpt-4o-mini" to
// match the teacher's summarization default.
func NewOpenAILLM(apiKey, model string) *OpenAILLM {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAILLM{apiKey: apiKey, model: model, http: &http.Client{Timeout: 20 * time.Second}}
}

func (o *OpenAILLM) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if o.apiKey == "" {
		return "", errors.New("openai: API key unset")
	}

	payload := map[string]any{
		"model": o.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt},
		},
		"temperature": 0.2,
		"max_tokens":  400,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.openai.com/v1/chat/completions", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error struct{ Message string } `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error.Message != "" {
			return "", errors.New(e.Error.Message)
		}
		return "", errors.New(resp.Status)
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", errors.New("openai: no choices returned")
	}

	s := strings.TrimSpace(out.Choices[0].Message.Content)
	s = strings.ReplaceAll(s, "\n", " ")
	return s, nil
}
