// Package rerank defines the cross-encoder reranking adapter contract
// (C10): given a query and a bundle of per-candidate evidence documents, it
// returns a relevance score per document. The adapter is idempotent and
// must not mutate its inputs; failures are non-fatal to callers.
package rerank

import "context"

// ScoredDocument is one reranked result: the original index into the
// documents slice passed to Rerank, and its score in [0,1].
type ScoredDocument struct {
	Index int
	Score float64
}

// Adapter is the contract C8/C9 depend on. Implementations must return the
// original index alongside each score so callers can re-associate results
// without relying on output order.
type Adapter interface {
	Rerank(ctx context.Context, query string, documents []string, topK int) ([]ScoredDocument, error)
}

// MaxCandidates is the cap spec.md §4.8 step 6 imposes on the expanded
// candidate set sent to reranking (limit*2, capped at 100).
const MaxCandidates = 100

// ExpandLimit doubles limit for the rerank pass, capped at MaxCandidates.
func ExpandLimit(limit int) int {
	expanded := limit * 2
	if expanded > MaxCandidates {
		expanded = MaxCandidates
	}
	return expanded
}
