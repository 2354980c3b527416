// Package fusion aggregates per-chunk retrieval ranks to per-resume ranks,
// computes Reciprocal Rank Fusion, and selects deduplicated evidence (C6).
package fusion

import (
	"sort"

	"github.com/seanblong/resumesearch/internal/retrieval"
	"github.com/seanblong/resumesearch/pkg/models"
)

// RRFConstant is spec.md §4.6's k.
const RRFConstant = 60

// ResumeRanks maps a resumeId to the best (lowest) rank of any of its
// chunks within a single retrieval list.
func ResumeRanks(list []retrieval.Ranked) map[string]int {
	best := make(map[string]int)
	for _, r := range list {
		if cur, ok := best[r.Chunk.ResumeID]; !ok || r.Rank < cur {
			best[r.Chunk.ResumeID] = r.Rank
		}
	}
	return best
}

// RRF computes Reciprocal Rank Fusion over an arbitrary number of ranked
// lists, per spec.md §4.6: rrf(resumeId) = sum over lists of 1/(k+rank);
// a list missing the resume contributes zero.
func RRF(k int, lists ...map[string]int) map[string]float64 {
	if k <= 0 {
		k = RRFConstant
	}
	out := make(map[string]float64)
	for _, list := range lists {
		for resumeID, rank := range list {
			out[resumeID] += 1.0 / float64(k+rank)
		}
	}
	return out
}

// whyOf returns whyMatched for a resume's chunk given which of the two
// lists (lexical, dense) contained it.
func whyOf(inLexical, inDense bool) models.WhyMatched {
	switch {
	case inLexical && inDense:
		return models.WhyBoth
	case inDense:
		return models.WhyDense
	default:
		return models.WhySparse
	}
}

// evidenceCap is spec.md §4.6's "keep the top 3 by score" limit.
const evidenceCap = 3

// Evidence unions chunks from the lexical and dense lists, groups by
// resumeId, de-duplicates by (sectionType, sectionOrdinal), and keeps the
// top evidenceCap by score per resume (spec.md §4.6).
func Evidence(lexical, dense []retrieval.Ranked) map[string][]models.Evidence {
	type key struct {
		resumeID string
		section  models.SectionType
		ordinal  int
	}
	type best struct {
		score      float64
		text       string
		section    models.SectionType
		ordinal    int
		inLexical  bool
		inDense    bool
	}
	seen := make(map[key]*best)

	add := func(list []retrieval.Ranked, fromLexical bool) {
		for _, r := range list {
			k := key{r.Chunk.ResumeID, r.Chunk.SectionType, r.Chunk.SectionOrdinal}
			b, ok := seen[k]
			if !ok {
				b = &best{score: r.Score, text: r.Chunk.ChunkText, section: r.Chunk.SectionType, ordinal: r.Chunk.SectionOrdinal}
				seen[k] = b
			}
			if fromLexical {
				b.inLexical = true
			} else {
				b.inDense = true
			}
			if r.Score > b.score {
				b.score = r.Score
			}
		}
	}
	add(lexical, true)
	add(dense, false)

	byResume := make(map[string][]models.Evidence)
	for k, b := range seen {
		byResume[k.resumeID] = append(byResume[k.resumeID], models.Evidence{
			ChunkText:      b.text,
			SectionType:    b.section,
			SectionOrdinal: b.ordinal,
			Score:          b.score,
			WhyMatched:     whyOf(b.inLexical, b.inDense),
		})
	}

	for resumeID, items := range byResume {
		sort.Slice(items, func(i, j int) bool { return items[i].Score > items[j].Score })
		if len(items) > evidenceCap {
			items = items[:evidenceCap]
		}
		byResume[resumeID] = items
	}
	return byResume
}
