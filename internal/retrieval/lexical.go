// Package retrieval implements the lexical (C4) and dense (C5) retrievers:
// term-frequency scoring and cosine-similarity scoring over chunks
// restricted to a gated candidate set.
package retrieval

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/seanblong/resumesearch/internal/store"
	"github.com/seanblong/resumesearch/pkg/models"
)

// DefaultLimit is the default result cap for both retrievers (spec.md §4.4/§4.5).
const DefaultLimit = 200

// poolMultiplier and poolCap implement this repo's Open Question decision
// (SPEC_FULL.md): fetch a larger pool than limit, then sort by score,
// rather than capping by insertion order before sorting (which can hide
// higher-scoring chunks beyond the cap).
const (
	poolMultiplier = 5
	poolCap        = 2000
)

// Ranked is one chunk with its assigned rank (1-based) within a retrieval list.
type Ranked struct {
	Chunk models.Chunk
	Score float64
	Rank  int
}

// TermMatcher is the chunk-store contract the lexical retriever needs.
type TermMatcher interface {
	ChunksMatchingTerms(ctx context.Context, resumeIDs []string, terms []string) ([]store.TermHit, error)
}

var metaCharEscaper = strings.NewReplacer(
	`\`, `\\`, `.`, `\.`, `+`, `\+`, `*`, `\*`, `?`, `\?`, `(`, `\(`, `)`, `\)`,
	`[`, `\[`, `]`, `\]`, `{`, `\{`, `}`, `\}`, `^`, `\^`, `$`, `\$`, `|`, `\|`,
)

var splitRe = regexp.MustCompile(`[,;\s]+`)

// Terms splits queryText on commas, semicolons and whitespace, drops tokens
// of length <= 1, and escapes regex metacharacters (spec.md §4.4 step 1).
func Terms(queryText string) []string {
	raw := splitRe.Split(strings.TrimSpace(queryText), -1)
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		if len(t) <= 1 {
			continue
		}
		out = append(out, metaCharEscaper.Replace(t))
	}
	return out
}

// Lexical scores chunks in candidateIds by the sum of per-term occurrence
// counts across all of queryText's terms, ranked 1..N descending, stable on
// (resumeId, sectionOrdinal) (spec.md §4.4).
func Lexical(ctx context.Context, tm TermMatcher, queryText string, candidateIDs []string, limit int) ([]Ranked, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	terms := Terms(queryText)
	if len(terms) == 0 {
		return nil, nil
	}

	hits, err := tm.ChunksMatchingTerms(ctx, candidateIDs, terms)
	if err != nil {
		return nil, err
	}

	pool := limit * poolMultiplier
	if pool > poolCap {
		pool = poolCap
	}
	if len(hits) > pool {
		hits = hits[:pool]
	}

	scored := make([]Ranked, 0, len(hits))
	for _, h := range hits {
		total := 0
		for _, n := range h.PerTerm {
			total += n
		}
		scored = append(scored, Ranked{Chunk: h.Chunk, Score: float64(total)})
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
