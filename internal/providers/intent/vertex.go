package intent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// VertexLLM implements LLM using the Gemini API, following the same
// genai.Client wiring as internal/ai/vertexai.go's Summarize method.
type VertexLLM struct {
	client *genai.Client
	model  string
}

// NewVertexLLM builds a VertexLLM. model defaults to "gemini-2.0-flash" to
// match the teacher's summarization default.
func NewVertexLLM(client *genai.Client, model string) *VertexLLM {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &VertexLLM{client: client, model: model}
}

func (v *VertexLLM) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	temp := float32(0.1)
	maxTokens := int32(400)
	cfg := genai.GenerateContentConfig{
		Temperature:       &temp,
		MaxOutputTokens:   maxTokens,
		SystemInstruction: genai.Text(systemPrompt)[0],
	}

	resp, err := v.client.Models.GenerateContent(ctx, v.model, genai.Text(userPrompt), &cfg)
	if err != nil {
		return "", fmt.Errorf("intent: generate failed: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("intent: no content returned")
	}

	return strings.TrimSpace(string(resp.Candidates[0].Content.Parts[0].Text)), nil
}
