package intent

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestOpenAILLMGenerateSuccess(t *testing.T) {
	o := NewOpenAILLM("sk-test", "")
	o.http.Transport = roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("missing bearer auth header")
		}
		body := `{"choices":[{"message":{"content":"{\"mustHave\":[\"go\"]}"}}]}`
		return &http.Response{StatusCode: 200, Body: io.NopCloser(strings.NewReader(body)), Header: make(http.Header)}, nil
	})

	out, err := o.Generate(context.Background(), "system", "senior go engineer")
	if err != nil {
		t.Fatal(err)
	}
	if out != `{"mustHave":["go"]}` {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestOpenAILLMGenerateMissingAPIKey(t *testing.T) {
	o := NewOpenAILLM("", "")
	_, err := o.Generate(context.Background(), "system", "user")
	if err == nil {
		t.Fatal("expected error when API key unset")
	}
}

func TestOpenAILLMGenerateErrorResponse(t *testing.T) {
	o := NewOpenAILLM("sk-test", "")
	o.http.Transport = roundTripFunc(func(req *http.Request) (*http.Response, error) {
		body := `{"error":{"message":"rate limited"}}`
		return &http.Response{StatusCode: 429, Body: io.NopCloser(strings.NewReader(body)), Header: make(http.Header)}, nil
	})
	_, err := o.Generate(context.Background(), "system", "user")
	if err == nil || !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("expected rate limited error, got %v", err)
	}
}

func TestOpenAILLMDefaultModel(t *testing.T) {
	o := NewOpenAILLM("sk-test", "")
	if o.model != "gpt-4o-mini" {
		t.Errorf("expected default model gpt-4o-mini, got %q", o.model)
	}
}
