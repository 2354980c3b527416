package embed

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestOpenAIEmbedSuccess(t *testing.T) {
	c := NewOpenAIClient(&Config{APIKey: "sk-test"})
	c.http.Transport = roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("missing bearer auth header")
		}
		body := `{"data":[{"embedding":[0.1,0.2,0.3]}]}`
		return &http.Response{StatusCode: 200, Body: io.NopCloser(strings.NewReader(body)), Header: make(http.Header)}, nil
	})

	vec, err := c.Embed(context.Background(), "golang backend engineer")
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != 3 || vec[0] != 0.1 {
		t.Errorf("unexpected embedding: %v", vec)
	}
}

func TestOpenAIEmbedMissingAPIKey(t *testing.T) {
	c := NewOpenAIClient(&Config{})
	_, err := c.Embed(context.Background(), "text")
	if err == nil {
		t.Fatal("expected error when API key unset")
	}
}

func TestOpenAIEmbedNon200(t *testing.T) {
	c := NewOpenAIClient(&Config{APIKey: "sk-test"})
	c.http.Transport = roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: 500, Body: io.NopCloser(strings.NewReader(`{}`)), Header: make(http.Header)}, nil
	})
	_, err := c.Embed(context.Background(), "text")
	if err == nil {
		t.Fatal("expected error on non-200 response")
	}
}

func TestOpenAIDefaultDim(t *testing.T) {
	c := NewOpenAIClient(&Config{APIKey: "k", Model: "text-embedding-3-large"})
	if c.Dim() != 3072 {
		t.Errorf("expected dim 3072 for large model, got %d", c.Dim())
	}
}
