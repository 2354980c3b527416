package retrieval

import (
	"context"
	"reflect"
	"testing"

	"github.com/seanblong/resumesearch/internal/store"
	"github.com/seanblong/resumesearch/pkg/models"
)

type fakeTermMatcher struct {
	hits []store.TermHit
}

func (f *fakeTermMatcher) ChunksMatchingTerms(ctx context.Context, resumeIDs []string, terms []string) ([]store.TermHit, error) {
	return f.hits, nil
}

func TestTermsSplitsAndEscapes(t *testing.T) {
	got := Terms("Go, Python; C++ a")
	want := []string{"Go", "Python", `C\+\+`}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Terms() = %v, want %v", got, want)
	}
}

func TestLexicalEmptyTerms(t *testing.T) {
	tm := &fakeTermMatcher{}
	got, err := Lexical(context.Background(), tm, "", []string{"A"}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("expected nil result for empty term set, got %v", got)
	}
}

func TestLexicalScoresAndRanks(t *testing.T) {
	tm := &fakeTermMatcher{hits: []store.TermHit{
		{Chunk: models.Chunk{ChunkID: "c1", ResumeID: "A"}, PerTerm: map[string]int{"go": 2}},
		{Chunk: models.Chunk{ChunkID: "c2", ResumeID: "B"}, PerTerm: map[string]int{"go": 5}},
	}}
	got, err := Lexical(context.Background(), tm, "go", []string{"A", "B"}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 ranked chunks, got %d", len(got))
	}
	if got[0].Chunk.ResumeID != "B" || got[0].Rank != 1 {
		t.Errorf("expected B ranked first with score 5, got %+v", got[0])
	}
	if got[1].Rank != 2 {
		t.Errorf("expected second chunk rank 2, got %d", got[1].Rank)
	}
}
