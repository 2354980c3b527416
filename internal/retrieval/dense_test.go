package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/seanblong/resumesearch/pkg/models"
)

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return f.vec, f.err
}

type fakeChunkFetcher struct {
	chunks []models.Chunk
}

func (f *fakeChunkFetcher) ChunksWithEmbeddings(ctx context.Context, resumeIDs []string) ([]models.Chunk, error) {
	return f.chunks, nil
}

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{1, 0}
	if got := cosineSimilarity(a, b); got != 1 {
		t.Errorf("identical vectors: got %f, want 1", got)
	}
	if got := cosineSimilarity([]float32{0, 0}, b); got != 0 {
		t.Errorf("zero-norm vector: got %f, want 0", got)
	}
}

func TestDenseRanksBySimilarityDescending(t *testing.T) {
	emb := &fakeEmbedder{vec: []float32{1, 0}}
	cf := &fakeChunkFetcher{chunks: []models.Chunk{
		{ChunkID: "low", ResumeID: "A", Embedding: []float32{0, 1}},
		{ChunkID: "high", ResumeID: "B", Embedding: []float32{1, 0}},
	}}
	got, err := Dense(context.Background(), emb, cf, "query", []string{"A", "B"}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Chunk.ChunkID != "high" || got[0].Rank != 1 {
		t.Fatalf("expected high-similarity chunk ranked first, got %+v", got)
	}
}

func TestDenseEmbedFailureReturnsError(t *testing.T) {
	emb := &fakeEmbedder{err: errors.New("provider down")}
	cf := &fakeChunkFetcher{}
	_, err := Dense(context.Background(), emb, cf, "query", []string{"A"}, 10)
	if err == nil {
		t.Fatal("expected error when embedder fails; caller degrades gracefully")
	}
}
