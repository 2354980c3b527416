// Package agentic implements the streamed stage-machine query pipeline
// (C9): jd_understanding -> retrieval -> fusion -> evidence_building ->
// ranking -> assembly, emitting a totally-ordered typed event stream per
// spec.md §4.9.
package agentic

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/seanblong/resumesearch/internal/classic"
	"github.com/seanblong/resumesearch/internal/fusion"
	"github.com/seanblong/resumesearch/internal/ledger"
	"github.com/seanblong/resumesearch/internal/providers/intent"
	"github.com/seanblong/resumesearch/internal/rerank"
	"github.com/seanblong/resumesearch/internal/retrieval"
	"github.com/seanblong/resumesearch/internal/scoring"
	"github.com/seanblong/resumesearch/pkg/models"
)

// EventType is the discriminator of the SSE event stream.
type EventType string

const (
	EventAgentStart    EventType = "agent_start"
	EventAgentThought  EventType = "agent_thought"
	EventToolCall      EventType = "tool_call"
	EventToolResult    EventType = "tool_result"
	EventStageComplete EventType = "stage_complete"
	EventMissionSpec   EventType = "mission_spec"
	EventResult        EventType = "result"
	EventError         EventType = "error"
	EventDone          EventType = "done"
)

// Event is one entry of the ordered stream; Data's concrete shape depends
// on Type (see the *Data structs below). ID is unique per event, not per
// stream, so a client can dedupe retried SSE frames.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

type AgentStartData struct {
	Agent string `json:"agent"`
}

type AgentThoughtData struct {
	Agent   string `json:"agent"`
	Message string `json:"message"`
}

type ToolCallData struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args"`
}

type ToolResultData struct {
	Tool     string `json:"tool"`
	TimingMs int64  `json:"timing_ms"`
	Summary  string `json:"summary"`
}

type StageCompleteData struct {
	Stage    string `json:"stage"`
	TimingMs int64  `json:"timing_ms"`
}

type ResultData struct {
	Results              []models.CandidateOut `json:"results"`
	TotalCandidatesFound int                    `json:"total_candidates_found"`
	MatchQuality         models.MatchQuality    `json:"match_quality"`
	MissionSpec          models.MissionSpec     `json:"mission_spec"`
	StageTimings         map[string]int64       `json:"stage_timings"`
}

type ErrorData struct {
	Message string `json:"message"`
}

// MMin is the minimum number of above-threshold candidates for a strong
// match; with fewer, the weak-match fallback kicks in (spec.md §4.9).
const MMin = 3

// MinRelevanceScore is the default finalScore threshold for "above
// threshold" in the weak-match check.
const MinRelevanceScore = 20.0

// Filters mirrors the optional classic filters accepted by /shortlist.
type Filters struct {
	MinYOE          int
	LocationCountry string
}

// Pipeline wires C1/C2/C4/C5/C6/C7/C10 plus intent extraction into the
// agentic stage machine.
type Pipeline struct {
	Extractor intent.Extractor
	Ledger    ledger.Store
	Resumes   classic.ResumeStore
	Lexical   retrieval.TermMatcher
	Dense     retrieval.ChunkFetcher
	Embedder  retrieval.Embedder
	Rerank    rerank.Adapter
}

// Run executes the stage machine and returns a channel of events. The
// channel is closed after a terminal `done` or `error` event, or
// immediately (after an `error`) if ctx is cancelled mid-stage.
func (p *Pipeline) Run(ctx context.Context, queryText string, filters Filters) <-chan Event {
	out := make(chan Event, 16)
	go p.run(ctx, queryText, filters, out)
	return out
}

func (p *Pipeline) run(ctx context.Context, queryText string, filters Filters, out chan<- Event) {
	defer close(out)
	timings := make(map[string]int64)

	emit := func(e Event) bool {
		e.ID = uuid.NewString()
		e.Timestamp = time.Now()
		select {
		case out <- e:
			return true
		case <-ctx.Done():
			return false
		}
	}

	fail := func(err error) {
		emit(Event{Type: EventError, Data: ErrorData{Message: err.Error()}})
	}

	// --- jd_understanding ---------------------------------------------
	stageStart := time.Now()
	if !emit(Event{Type: EventAgentStart, Data: AgentStartData{Agent: "jd_understanding"}}) {
		return
	}
	emit(Event{Type: EventAgentThought, Data: AgentThoughtData{Agent: "jd_understanding", Message: "extracting structured requirements from the query"}})

	spec, err := p.Extractor.Extract(ctx, queryText)
	if err != nil {
		fail(fmt.Errorf("jd_understanding: %w", err))
		return
	}
	if ctx.Err() != nil {
		fail(ctx.Err())
		return
	}
	if !emit(Event{Type: EventMissionSpec, Data: spec}) {
		return
	}
	timings["jd_understanding"] = time.Since(stageStart).Milliseconds()
	emit(Event{Type: EventStageComplete, Data: StageCompleteData{Stage: "jd_understanding", TimingMs: timings["jd_understanding"]}})

	// --- retrieval + fusion + evidence_building + ranking (attempt 1) --
	candidates, totalFound, retrErr := p.retrieveRankAssemble(ctx, emit, timings, queryText, spec, filters, true)
	if retrErr != nil {
		fail(retrErr)
		return
	}

	matchQuality := models.MatchStrong
	aboveThreshold := countAbove(candidates, MinRelevanceScore)

	if aboveThreshold < MMin {
		weakSpec := spec
		weakSpec.MustHave = nil
		var weakErr error
		candidates, totalFound, weakErr = p.retrieveRankAssemble(ctx, emit, timings, queryText, weakSpec, filters, false)
		if weakErr != nil {
			fail(weakErr)
			return
		}
		if len(candidates) == 0 {
			matchQuality = models.MatchNone
		} else {
			matchQuality = models.MatchWeak
		}
	}

	// --- assembly -------------------------------------------------------
	assemblyStart := time.Now()
	out2 := make([]models.CandidateOut, len(candidates))
	copy(out2, candidates)
	for i := range out2 {
		out2[i].MatchQuality = matchQuality
	}
	timings["assembly"] = time.Since(assemblyStart).Milliseconds()
	emit(Event{Type: EventStageComplete, Data: StageCompleteData{Stage: "assembly", TimingMs: timings["assembly"]}})

	emit(Event{Type: EventResult, Data: ResultData{
		Results:              out2,
		TotalCandidatesFound: totalFound,
		MatchQuality:         matchQuality,
		MissionSpec:          spec,
		StageTimings:         timings,
	}})
	emit(Event{Type: EventDone})
}

func countAbove(candidates []models.CandidateOut, threshold float64) int {
	n := 0
	for _, c := range candidates {
		if c.FinalScore > threshold {
			n++
		}
	}
	return n
}

// retrieveRankAssemble runs the retrieval -> fusion -> evidence_building ->
// ranking stages once, emitting their events, and returns scored,
// display-joined candidates sorted by finalScore desc.
func (p *Pipeline) retrieveRankAssemble(ctx context.Context, emit func(Event) bool, timings map[string]int64, queryText string, spec models.MissionSpec, filters Filters, gateOnMustHave bool) ([]models.CandidateOut, int, error) {
	// --- retrieval ---
	retrStart := time.Now()
	if !emit(Event{Type: EventToolCall, Data: ToolCallData{Tool: "retrieval", Args: map[string]any{"mustHave": spec.MustHave}}}) {
		return nil, 0, context.Canceled
	}

	var threshold int
	if gateOnMustHave && len(spec.MustHave) > 0 {
		threshold = (len(spec.MustHave) + 1) / 2 // ceil(|mustHave|/2)
	}
	gated, err := ledger.Gate(ctx, p.Ledger, spec.MustHave, threshold)
	if err != nil {
		return nil, 0, fmt.Errorf("retrieval: gate failed: %w", err)
	}

	candidateIDs := make([]string, len(gated))
	for i, g := range gated {
		candidateIDs[i] = g.ResumeID
	}
	candidateIDs = filterByResumeFields(ctx, p.Resumes, candidateIDs, filters)

	var lexical, dense []retrieval.Ranked
	if len(candidateIDs) > 0 {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			lctx, cancel := context.WithTimeout(gctx, classic.RetrieverTimeout)
			defer cancel()
			res, lerr := retrieval.Lexical(lctx, p.Lexical, queryText, candidateIDs, retrieval.DefaultLimit)
			if lerr != nil {
				zerolog.Ctx(ctx).Warn().Err(lerr).Msg("lexical retrieval failed; continuing without it")
				return nil
			}
			lexical = res
			return nil
		})
		g.Go(func() error {
			dctx, cancel := context.WithTimeout(gctx, classic.RetrieverTimeout)
			defer cancel()
			res, derr := retrieval.Dense(dctx, p.Embedder, p.Dense, queryText, candidateIDs, retrieval.DefaultLimit)
			if derr != nil {
				zerolog.Ctx(ctx).Warn().Err(derr).Msg("dense retrieval failed; continuing without it")
				return nil
			}
			dense = res
			return nil
		})
		_ = g.Wait()
	}
	emit(Event{Type: EventToolResult, Data: ToolResultData{
		Tool:     "retrieval",
		TimingMs: time.Since(retrStart).Milliseconds(),
		Summary:  fmt.Sprintf("%d lexical hits, %d dense hits across %d gated candidates", len(lexical), len(dense), len(gated)),
	}})
	timings["retrieval"] = time.Since(retrStart).Milliseconds()
	emit(Event{Type: EventStageComplete, Data: StageCompleteData{Stage: "retrieval", TimingMs: timings["retrieval"]}})

	// --- fusion ---
	fusionStart := time.Now()
	lexRanks := fusion.ResumeRanks(lexical)
	denseRanks := fusion.ResumeRanks(dense)
	rrf := fusion.RRF(fusion.RRFConstant, lexRanks, denseRanks)
	timings["fusion"] = time.Since(fusionStart).Milliseconds()
	emit(Event{Type: EventStageComplete, Data: StageCompleteData{Stage: "fusion", TimingMs: timings["fusion"]}})

	// --- evidence_building ---
	evidenceStart := time.Now()
	evidence := fusion.Evidence(lexical, dense)
	timings["evidence_building"] = time.Since(evidenceStart).Milliseconds()
	emit(Event{Type: EventStageComplete, Data: StageCompleteData{Stage: "evidence_building", TimingMs: timings["evidence_building"]}})

	totalQuerySkills := len(spec.MustHave)
	candidates := make([]models.Candidate, 0, len(gated))
	for _, g := range gated {
		sc := scoring.Compute(g.MatchedCount, totalQuerySkills, rrf[g.ResumeID])
		candidates = append(candidates, models.Candidate{
			ResumeID:      g.ResumeID,
			MatchedSkills: g.MatchedSkills,
			MatchedCount:  g.MatchedCount,
			AvgConfidence: g.AvgConfidence,
			RRFScore:      rrf[g.ResumeID],
			SemanticScore: sc.SemanticScore,
			SkillScore:    sc.SkillScore,
			FinalScore:    sc.FinalScore,
			Evidence:      evidence[g.ResumeID],
		})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].FinalScore > candidates[j].FinalScore })

	// --- ranking (cross-encoder rerank) ---
	rankStart := time.Now()
	if p.Rerank != nil && len(candidates) > 0 {
		if !emit(Event{Type: EventToolCall, Data: ToolCallData{Tool: "rerank", Args: map[string]any{"candidates": len(candidates)}}}) {
			return nil, 0, context.Canceled
		}
		expand := rerank.ExpandLimit(len(candidates))
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
		scored, rerr := p.Rerank.Rerank(rctx, queryText, docs, expand)
		cancel()
		if rerr == nil {
			for _, s := range scored {
				if s.Index >= 0 && s.Index < len(pool) {
					pool[s.Index].FinalScore = s.Score
				}
			}
			sort.Slice(pool, func(i, j int) bool { return pool[i].FinalScore > pool[j].FinalScore })
		} else {
			zerolog.Ctx(ctx).Warn().Err(rerr).Msg("rerank failed; keeping fused order")
		}
		emit(Event{Type: EventToolResult, Data: ToolResultData{
			Tool:     "rerank",
			TimingMs: time.Since(rankStart).Milliseconds(),
			Summary:  fmt.Sprintf("reranked %d candidates", expand),
		}})
	}
	timings["ranking"] = time.Since(rankStart).Milliseconds()
	emit(Event{Type: EventStageComplete, Data: StageCompleteData{Stage: "ranking", TimingMs: timings["ranking"]}})

	out, err := joinResumeCore(ctx, p.Resumes, candidates)
	if err != nil {
		return nil, 0, err
	}
	return out, len(gated), nil
}

func filterByResumeFields(ctx context.Context, resumes classic.ResumeStore, candidateIDs []string, filters Filters) []string {
	if resumes == nil || (filters.MinYOE <= 0 && filters.LocationCountry == "") {
		return candidateIDs
	}
	wantCountry := strings.ToLower(filters.LocationCountry)
	out := make([]string, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		r, ok, err := resumes.GetResume(ctx, id)
		if err != nil || !ok {
			continue
		}
		if filters.MinYOE > 0 && r.TotalYOE < filters.MinYOE {
			continue
		}
		if wantCountry != "" && !strings.Contains(strings.ToLower(r.LocationCountry), wantCountry) {
			continue
		}
		out = append(out, id)
	}
	return out
}

func joinResumeCore(ctx context.Context, resumes classic.ResumeStore, candidates []models.Candidate) ([]models.CandidateOut, error) {
	if resumes == nil {
		out := make([]models.CandidateOut, len(candidates))
		for i, c := range candidates {
			out[i] = models.CandidateOut{Candidate: c}
		}
		return out, nil
	}
	out := make([]models.CandidateOut, 0, len(candidates))
	for _, c := range candidates {
		r, ok, err := resumes.GetResume(ctx, c.ResumeID)
		if err != nil {
			return nil, fmt.Errorf("assembly: resume core read failed: %w", err)
		}
		co := models.CandidateOut{Candidate: c}
		if ok {
			co.TotalYOE = r.TotalYOE
			co.LocationCountry = r.LocationCountry
			co.LocationCity = r.LocationCity
		}
		out = append(out, co)
	}
	return out, nil
}
