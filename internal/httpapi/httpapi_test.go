package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/seanblong/resumesearch/internal/agentic"
	"github.com/seanblong/resumesearch/internal/auth"
	"github.com/seanblong/resumesearch/internal/classic"
	"github.com/seanblong/resumesearch/internal/ledger"
	"github.com/seanblong/resumesearch/internal/providers/intent"
	"github.com/seanblong/resumesearch/internal/store"
	"github.com/seanblong/resumesearch/pkg/models"
)

type fakeLedgerStore struct{ entries []models.SkillLedgerEntry }

func (f *fakeLedgerStore) EntriesForSkills(ctx context.Context, skills []string) ([]models.SkillLedgerEntry, error) {
	return f.entries, nil
}

type fakeResumeStore struct {
	byID    map[string]models.Resume
	skills  map[string][]models.SkillLedgerEntry
	chunks  map[string][]models.Chunk
	deleted []string
}

func (f *fakeResumeStore) GetResume(ctx context.Context, id string) (models.Resume, bool, error) {
	r, ok := f.byID[id]
	return r, ok, nil
}

func (f *fakeResumeStore) SkillsForResume(ctx context.Context, id string) ([]models.SkillLedgerEntry, error) {
	return f.skills[id], nil
}

func (f *fakeResumeStore) ChunksFor(ctx context.Context, ids []string) ([]models.Chunk, error) {
	var out []models.Chunk
	for _, id := range ids {
		out = append(out, f.chunks[id]...)
	}
	return out, nil
}

func (f *fakeResumeStore) DeleteResume(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeTermMatcher struct{ hits []store.TermHit }

func (f *fakeTermMatcher) ChunksMatchingTerms(ctx context.Context, resumeIDs []string, terms []string) ([]store.TermHit, error) {
	return f.hits, nil
}

type fakeChunkFetcher struct{ chunks []models.Chunk }

func (f *fakeChunkFetcher) ChunksWithEmbeddings(ctx context.Context, resumeIDs []string) ([]models.Chunk, error) {
	return f.chunks, nil
}

type fakeEmbedder struct{ vec []float32 }

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) { return f.vec, nil }

type fakeExtractor struct{ spec models.MissionSpec }

func (f *fakeExtractor) Extract(ctx context.Context, queryText string) (models.MissionSpec, error) {
	return f.spec, nil
}

var _ intent.Extractor = (*fakeExtractor)(nil)

func newTestHandlers() (*Handlers, *fakeResumeStore) {
	resumes := &fakeResumeStore{
		byID: map[string]models.Resume{
			"r1": {ID: "r1", TotalYOE: 5, LocationCountry: "USA"},
		},
		skills: map[string][]models.SkillLedgerEntry{
			"r1": {{ResumeID: "r1", SkillCanonical: "go", Confidence: 1}},
		},
		chunks: map[string][]models.Chunk{
			"r1": {{ChunkID: "c1", ResumeID: "r1", ChunkText: "built services in go"}},
		},
	}
	ledgerStore := &fakeLedgerStore{entries: []models.SkillLedgerEntry{
		{ResumeID: "r1", SkillCanonical: "go", Confidence: 1, EvidenceCount: 1},
	}}

	orch := &classic.Orchestrator{
		Ledger:   ledgerStore,
		Resumes:  resumes,
		Lexical:  &fakeTermMatcher{},
		Dense:    &fakeChunkFetcher{},
		Embedder: &fakeEmbedder{},
	}
	pipeline := &agentic.Pipeline{
		Extractor: &fakeExtractor{spec: models.MissionSpec{MustHave: []string{"go"}}},
		Ledger:    ledgerStore,
		Resumes:   resumes,
		Lexical:   &fakeTermMatcher{},
		Dense:     &fakeChunkFetcher{},
		Embedder:  &fakeEmbedder{},
	}

	return &Handlers{Classic: orch, Agentic: pipeline, Store: resumes}, resumes
}

func TestHandleSearchHappyPath(t *testing.T) {
	h, _ := newTestHandlers()
	mux := NewMux(h)

	body, _ := json.Marshal(searchRequest{Skills: []string{"go"}, Mode: string(ledger.ModeMatchAll)})
	req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp classic.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].ResumeID != "r1" {
		t.Fatalf("expected one result for r1, got %+v", resp.Results)
	}
}

func TestHandleSearchInvalidQuery(t *testing.T) {
	h, _ := newTestHandlers()
	mux := NewMux(h)

	body, _ := json.Marshal(searchRequest{Skills: nil})
	req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestHandleGetResumeFound(t *testing.T) {
	h, _ := newTestHandlers()
	mux := NewMux(h)

	req := httptest.NewRequest(http.MethodGet, "/resume/r1", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var detail resumeDetail
	if err := json.Unmarshal(w.Body.Bytes(), &detail); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if detail.ID != "r1" || len(detail.Skills) != 1 || len(detail.Chunks) != 1 {
		t.Fatalf("unexpected detail: %+v", detail)
	}
}

func TestHandleGetResumeNotFound(t *testing.T) {
	h, _ := newTestHandlers()
	mux := NewMux(h)

	req := httptest.NewRequest(http.MethodGet, "/resume/missing", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestHandleDeleteResumeRequiresAuthWhenEnabled(t *testing.T) {
	h, resumes := newTestHandlers()
	mux := NewMux(h)
	auth.InitializeAuth("test-secret", true)
	defer auth.InitializeAuth("", false)

	req := httptest.NewRequest(http.MethodDelete, "/resume/r1", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	token, err := auth.GenerateJWT("operator-1")
	if err != nil {
		t.Fatalf("generate jwt: %v", err)
	}
	req = httptest.NewRequest(http.MethodDelete, "/resume/r1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 with valid token, got %d: %s", w.Code, w.Body.String())
	}
	if len(resumes.deleted) != 1 || resumes.deleted[0] != "r1" {
		t.Fatalf("expected r1 deleted, got %v", resumes.deleted)
	}
}

func TestHandleSkills(t *testing.T) {
	h, _ := newTestHandlers()
	mux := NewMux(h)

	req := httptest.NewRequest(http.MethodGet, "/skills", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "python") {
		t.Fatalf("expected canonical skill list to contain python, got %s", w.Body.String())
	}
}

func TestHandleShortlistStreamsEvents(t *testing.T) {
	h, _ := newTestHandlers()
	mux := NewMux(h)

	// Exercises the documented wire contract (spec.md §6.1) literally,
	// snake_case query_text and nested filters, rather than round-tripping
	// through shortlistRequest's own Go field names.
	body := []byte(`{"query_text":"senior go engineer","filters":{"minYOE":2,"locationCountry":"USA"}}`)
	req := httptest.NewRequest(http.MethodPost, "/shortlist", bytes.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	out := w.Body.String()
	if !strings.Contains(out, "event: agent_start") {
		t.Fatalf("expected agent_start event in stream, got %s", out)
	}
	if !strings.Contains(out, "event: done") && !strings.Contains(out, "event: error") {
		t.Fatalf("expected a terminal event in stream, got %s", out)
	}
}
