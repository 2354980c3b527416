// Package classic implements the state-free classic query orchestrator
// (C8): normalize -> gate -> filter -> parallel retrieve -> fuse -> score
// -> optional rerank -> join with resume core, per spec.md §4.8.
package classic

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/seanblong/resumesearch/internal/apperr"
	"github.com/seanblong/resumesearch/internal/fusion"
	"github.com/seanblong/resumesearch/internal/ledger"
	"github.com/seanblong/resumesearch/internal/rerank"
	"github.com/seanblong/resumesearch/internal/retrieval"
	"github.com/seanblong/resumesearch/internal/scoring"
	"github.com/seanblong/resumesearch/internal/skills"
	"github.com/seanblong/resumesearch/pkg/models"
)

// RetrieverTimeout is the recommended soft per-leg timeout of spec.md §5.
const RetrieverTimeout = 2 * time.Second

// ResumeStore is the subset of persistence classic needs beyond the
// ledger/retrieval contracts: core-profile reads for filtering and display.
type ResumeStore interface {
	GetResume(ctx context.Context, resumeID string) (models.Resume, bool, error)
}

// Orchestrator wires C1/C2/C4/C5/C6/C7/C10 into the classic query path.
type Orchestrator struct {
	Ledger   ledger.Store
	Resumes  ResumeStore
	Lexical  retrieval.TermMatcher
	Dense    retrieval.ChunkFetcher
	Embedder retrieval.Embedder
	Rerank   rerank.Adapter
}

// Request is the classic /search request of spec.md §6.1.
type Request struct {
	Skills          []string
	Mode            ledger.GateMode
	MinMatch        int
	MinYOE          int
	LocationCountry string
	Limit           int
	EnableRerank    bool
}

// HybridStats reports per-leg hit counts for the response meta block.
type HybridStats struct {
	LexicalHits int `json:"lexicalHits"`
	VectorHits  int `json:"vectorHits"`
}

// Meta is the classic /search response meta block of spec.md §6.1.
type Meta struct {
	Query           []string    `json:"query"`
	TotalCandidates int         `json:"totalCandidates"`
	ResultsReturned int         `json:"resultsReturned"`
	LatencyMs       int64       `json:"latencyMs"`
	HybridStats     HybridStats `json:"hybridStats"`
}

// Response is the full classic /search response.
type Response struct {
	Results []models.CandidateOut `json:"results"`
	Meta    Meta                  `json:"meta"`
}

const defaultLimit = 50

// Run executes the seven-step classic pipeline of spec.md §4.8.
func (o *Orchestrator) Run(ctx context.Context, req Request) (Response, error) {
	start := time.Now()
	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	// 1. Normalize skills.
	canonical := skills.NormalizeList(req.Skills)
	if len(canonical) == 0 {
		return Response{}, apperr.InvalidQuery("no recognizable skills in query")
	}

	// 2. Gate candidates.
	threshold := ledger.Threshold(req.Mode, req.MinMatch, len(canonical))
	gated, err := ledger.Gate(ctx, o.Ledger, canonical, threshold)
	if err != nil {
		return Response{}, apperr.Wrap(apperr.KindUpstreamUnavailable, "ledger gate failed", err)
	}
	if len(gated) == 0 {
		return Response{
			Results: nil,
			Meta: Meta{
				Query:           canonical,
				TotalCandidates: 0,
				ResultsReturned: 0,
				LatencyMs:       time.Since(start).Milliseconds(),
			},
		}, nil
	}

	// 3. Apply optional filters against the resume core store.
	candidateIDs, err := o.applyFilters(ctx, gated, req.MinYOE, req.LocationCountry)
	if err != nil {
		return Response{}, err
	}
	if len(candidateIDs) == 0 {
		return Response{
			Results: nil,
			Meta: Meta{
				Query:           canonical,
				TotalCandidates: len(gated),
				ResultsReturned: 0,
				LatencyMs:       time.Since(start).Milliseconds(),
			},
		}, nil
	}

	queryText := strings.Join(canonical, " ")

	// 4. Run C4 and C5 in parallel, each bounded by a soft timeout.
	var lexicalResults, denseResults []retrieval.Ranked
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lctx, cancel := context.WithTimeout(gctx, RetrieverTimeout)
		defer cancel()
		res, lerr := retrieval.Lexical(lctx, o.Lexical, queryText, candidateIDs, retrieval.DefaultLimit)
		if lerr != nil {
			// soft failure: lexical leg degrades to empty per spec.md §4.8 step 4
			zerolog.Ctx(ctx).Warn().Err(lerr).Msg("lexical retrieval failed; continuing without it")
			return nil
		}
		lexicalResults = res
		return nil
	})
	g.Go(func() error {
		dctx, cancel := context.WithTimeout(gctx, RetrieverTimeout)
		defer cancel()
		res, derr := retrieval.Dense(dctx, o.Embedder, o.Dense, queryText, candidateIDs, retrieval.DefaultLimit)
		if derr != nil {
			zerolog.Ctx(ctx).Warn().Err(derr).Msg("dense retrieval failed; continuing without it")
			return nil
		}
		denseResults = res
		return nil
	})
	_ = g.Wait() // both legs already swallow their own errors; Wait only joins goroutines

	// 5. Compute RRF, collect evidence, score, sort, truncate.
	candidates := o.assemble(gated, lexicalResults, denseResults, len(canonical))
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].FinalScore > candidates[j].FinalScore })

	// 6. Optional reranking.
	if req.EnableRerank && o.Rerank != nil && len(candidates) > 0 {
		candidates, err = o.applyRerank(ctx, queryText, candidates, limit)
		if err != nil {
			// Reranking failures are non-fatal (spec.md §4.10): keep RRF order.
			zerolog.Ctx(ctx).Warn().Err(err).Msg("rerank failed; keeping fused order")
			sort.Slice(candidates, func(i, j int) bool { return candidates[i].FinalScore > candidates[j].FinalScore })
		}
	}

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	// 7. Join with resume core to attach display fields.
	out, err := o.join(ctx, candidates)
	if err != nil {
		return Response{}, err
	}

	return Response{
		Results: out,
		Meta: Meta{
			Query:           canonical,
			TotalCandidates: len(gated),
			ResultsReturned: len(out),
			LatencyMs:       time.Since(start).Milliseconds(),
			HybridStats: HybridStats{
				LexicalHits: len(lexicalResults),
				VectorHits:  len(denseResults),
			},
		},
	}, nil
}

// applyFilters narrows gated candidates to those whose core profile passes
// minYOE and a case-insensitive locationCountry substring match.
func (o *Orchestrator) applyFilters(ctx context.Context, gated []ledger.GatedCandidate, minYOE int, locationCountry string) ([]string, error) {
	if minYOE <= 0 && locationCountry == "" {
		ids := make([]string, len(gated))
		for i, g := range gated {
			ids[i] = g.ResumeID
		}
		return ids, nil
	}

	wantCountry := strings.ToLower(locationCountry)
	var ids []string
	for _, g := range gated {
		r, ok, err := o.Resumes.GetResume(ctx, g.ResumeID)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "resume core read failed", err)
		}
		if !ok {
			continue
		}
		if minYOE > 0 && r.TotalYOE < minYOE {
			continue
		}
		if wantCountry != "" && !strings.Contains(strings.ToLower(r.LocationCountry), wantCountry) {
			continue
		}
		ids = append(ids, g.ResumeID)
	}
	return ids, nil
}

// assemble fuses the two retrieval legs with the gate's skill-match data
// into final scored candidates.
func (o *Orchestrator) assemble(gated []ledger.GatedCandidate, lexical, dense []retrieval.Ranked, totalQuerySkills int) []models.Candidate {
	lexRanks := fusion.ResumeRanks(lexical)
	denseRanks := fusion.ResumeRanks(dense)
	rrf := fusion.RRF(fusion.RRFConstant, lexRanks, denseRanks)
	evidence := fusion.Evidence(lexical, dense)

	out := make([]models.Candidate, 0, len(gated))
	for _, g := range gated {
		rrfScore := rrf[g.ResumeID]
		sc := scoring.Compute(g.MatchedCount, totalQuerySkills, rrfScore)
		out = append(out, models.Candidate{
			ResumeID:      g.ResumeID,
			MatchedSkills: g.MatchedSkills,
			MatchedCount:  g.MatchedCount,
			AvgConfidence: g.AvgConfidence,
			RRFScore:      rrfScore,
			SemanticScore: sc.SemanticScore,
			SkillScore:    sc.SkillScore,
			FinalScore:    sc.FinalScore,
			Evidence:      evidence[g.ResumeID],
		})
	}
	return out
}

// applyRerank expands the candidate set, calls the reranker, and reorders
// by rerankScore, per spec.md §4.8 step 6 / §4.10.
func (o *Orchestrator) applyRerank(ctx context.Context, query string, candidates []models.Candidate, limit int) ([]models.Candidate, error) {
	expand := rerank.ExpandLimit(limit)
	if expand > len(candidates) {
		expand = len(candidates)
	}
	pool := candidates[:expand]

	docs := make([]string, len(pool))
	for i, c := range pool {
		var sb strings.Builder
		for _, e := range c.Evidence {
			sb.WriteString(e.ChunkText)
			sb.WriteString(" ")
		}
		docs[i] = sb.String()
	}

	rctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	scored, err := o.Rerank.Rerank(rctx, query, docs, expand)
	if err != nil {
		return candidates, err
	}

	for _, s := range scored {
		if s.Index < 0 || s.Index >= len(pool) {
			continue
		}
		pool[s.Index].FinalScore = s.Score
	}
	sort.Slice(pool, func(i, j int) bool { return pool[i].FinalScore > pool[j].FinalScore })

	out := make([]models.Candidate, 0, len(candidates))
	out = append(out, pool...)
	out = append(out, candidates[expand:]...)
	return out, nil
}

// join attaches display fields from the resume core store.
func (o *Orchestrator) join(ctx context.Context, candidates []models.Candidate) ([]models.CandidateOut, error) {
	out := make([]models.CandidateOut, 0, len(candidates))
	for _, c := range candidates {
		r, ok, err := o.Resumes.GetResume(ctx, c.ResumeID)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "resume core read failed", err)
		}
		co := models.CandidateOut{Candidate: c}
		if ok {
			co.TotalYOE = r.TotalYOE
			co.LocationCountry = r.LocationCountry
			co.LocationCity = r.LocationCity
			co.Headline = headline(r)
		}
		out = append(out, co)
	}
	return out, nil
}

// headline builds "<latest title> at <latest company>" from a resume's most
// recent experience item, per spec.md §4.8 step 7.
func headline(r models.Resume) string {
	if len(r.Experience) == 0 {
		return ""
	}
	latest := r.Experience[0]
	for _, e := range r.Experience[1:] {
		if e.DateStart.After(latest.DateStart) {
			latest = e
		}
	}
	if latest.Title == "" && latest.Company == "" {
		return ""
	}
	return fmt.Sprintf("%s at %s", latest.Title, latest.Company)
}
