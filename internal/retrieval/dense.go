package retrieval

import (
	"context"
	"math"
	"sort"

	"github.com/seanblong/resumesearch/pkg/models"
)

// Embedder is the external collaborator of spec.md §6.2: embeds text into
// the deployment's fixed-dimension vector space.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ChunkFetcher is the chunk-store contract the dense retriever needs.
type ChunkFetcher interface {
	ChunksWithEmbeddings(ctx context.Context, resumeIDs []string) ([]models.Chunk, error)
}

// Dense computes cosine similarity between the query embedding and every
// candidate chunk's embedding, keeping the top `limit` by similarity
// descending (spec.md §4.5). If the embedder or the chunk fetch fails,
// Dense returns a nil result and that error; the classic and agentic
// callers treat it as a soft failure, log a warning and fuse the lexical
// results alone.
func Dense(ctx context.Context, emb Embedder, cf ChunkFetcher, queryText string, candidateIDs []string, limit int) ([]Ranked, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	queryVec, err := emb.Embed(ctx, queryText)
	if err != nil {
		return nil, err
	}

	chunks, err := cf.ChunksWithEmbeddings(ctx, candidateIDs)
	if err != nil {
		return nil, err
	}

	scored := make([]Ranked, 0, len(chunks))
	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			continue
		}
		scored = append(scored, Ranked{Chunk: c, Score: cosineSimilarity(queryVec, c.Embedding)})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if scored[i].Chunk.ResumeID != scored[j].Chunk.ResumeID {
			return scored[i].Chunk.ResumeID < scored[j].Chunk.ResumeID
		}
		return scored[i].Chunk.SectionOrdinal < scored[j].Chunk.SectionOrdinal
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}
	for i := range scored {
		scored[i].Rank = i + 1
	}
	return scored, nil
}

// cosineSimilarity treats zero-norm vectors as similarity 0 (spec.md §4.5
// step 3).
func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
