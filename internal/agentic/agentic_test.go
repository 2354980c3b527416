package agentic

import (
	"context"
	"testing"
	"time"

	"github.com/seanblong/resumesearch/internal/store"
	"github.com/seanblong/resumesearch/pkg/models"
)

type fakeExtractor struct {
	spec models.MissionSpec
	err  error
}

func (f *fakeExtractor) Extract(ctx context.Context, queryText string) (models.MissionSpec, error) {
	return f.spec, f.err
}

type fakeLedgerStore struct {
	entries []models.SkillLedgerEntry
}

func (f *fakeLedgerStore) EntriesForSkills(ctx context.Context, skills []string) ([]models.SkillLedgerEntry, error) {
	return f.entries, nil
}

type fakeResumeStore struct {
	byID map[string]models.Resume
}

func (f *fakeResumeStore) GetResume(ctx context.Context, id string) (models.Resume, bool, error) {
	r, ok := f.byID[id]
	return r, ok, nil
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

func drain(t *testing.T, ch <-chan Event, timeout time.Duration) []Event {
	t.Helper()
	var events []Event
	deadline := time.After(timeout)
	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, e)
		case <-deadline:
			t.Fatal("timed out waiting for pipeline events")
			return nil
		}
	}
}

func TestRunEmitsStrongMatchSequence(t *testing.T) {
	resumes := map[string]models.Resume{
		"r1": {ID: "r1", TotalYOE: 5},
		"r2": {ID: "r2", TotalYOE: 4},
		"r3": {ID: "r3", TotalYOE: 3},
	}
	chunk := models.Chunk{ChunkID: "c1", ResumeID: "r1", ChunkText: "go kubernetes expert", Embedding: []float32{1, 0}}

	// Three gated resumes each score above MinRelevanceScore, meeting MMin.
	p := &Pipeline{
		Extractor: &fakeExtractor{spec: models.MissionSpec{MustHave: []string{"go", "kubernetes"}}},
		Ledger: &fakeLedgerStore{entries: []models.SkillLedgerEntry{
			{ResumeID: "r1", SkillCanonical: "go", Confidence: 1.0},
			{ResumeID: "r1", SkillCanonical: "kubernetes", Confidence: 1.0},
			{ResumeID: "r2", SkillCanonical: "go", Confidence: 1.0},
			{ResumeID: "r2", SkillCanonical: "kubernetes", Confidence: 1.0},
			{ResumeID: "r3", SkillCanonical: "go", Confidence: 1.0},
			{ResumeID: "r3", SkillCanonical: "kubernetes", Confidence: 1.0},
		}},
		Resumes:  &fakeResumeStore{byID: resumes},
		Lexical:  &fakeTermMatcher{hits: []store.TermHit{{Chunk: chunk, PerTerm: map[string]int{"go": 3, "kubernetes": 3}}}},
		Dense:    &fakeChunkFetcher{chunks: []models.Chunk{chunk}},
		Embedder: &fakeEmbedder{vec: []float32{1, 0}},
	}

	events := drain(t, p.Run(context.Background(), "senior go kubernetes engineer", Filters{}), 5*time.Second)
	if len(events) == 0 {
		t.Fatal("expected events")
	}
	if events[0].Type != EventAgentStart {
		t.Errorf("expected first event agent_start, got %s", events[0].Type)
	}
	last := events[len(events)-1]
	if last.Type != EventDone {
		t.Errorf("expected last event done, got %s", last.Type)
	}

	var sawMissionSpec, sawResult bool
	stageCompleteStages := make(map[string]bool)
	for _, e := range events {
		switch e.Type {
		case EventMissionSpec:
			sawMissionSpec = true
		case EventStageComplete:
			sc, ok := e.Data.(StageCompleteData)
			if !ok {
				t.Fatalf("stage_complete event data has unexpected type %T", e.Data)
			}
			stageCompleteStages[sc.Stage] = true
		case EventResult:
			sawResult = true
			rd, ok := e.Data.(ResultData)
			if !ok {
				t.Fatalf("result event data has unexpected type %T", e.Data)
			}
			if rd.MatchQuality != models.MatchStrong {
				t.Errorf("expected strong match, got %s", rd.MatchQuality)
			}
		}
	}
	if !sawMissionSpec {
		t.Error("expected a mission_spec event")
	}
	if !sawResult {
		t.Error("expected a result event")
	}
	for _, stage := range []string{"jd_understanding", "retrieval", "fusion", "evidence_building", "ranking", "assembly"} {
		if !stageCompleteStages[stage] {
			t.Errorf("expected a stage_complete event for stage %q", stage)
		}
	}
}

func TestRunDegradesToWeakMatchOnSparseResults(t *testing.T) {
	p := &Pipeline{
		Extractor: &fakeExtractor{spec: models.MissionSpec{MustHave: []string{"cobol", "mainframe-tuning"}}},
		Ledger:    &fakeLedgerStore{},
		Resumes:   &fakeResumeStore{byID: map[string]models.Resume{}},
	}

	events := drain(t, p.Run(context.Background(), "cobol mainframe tuning expert", Filters{}), 5*time.Second)
	var result ResultData
	found := false
	for _, e := range events {
		if e.Type == EventResult {
			result = e.Data.(ResultData)
			found = true
		}
	}
	if !found {
		t.Fatal("expected a result event")
	}
	if result.MatchQuality != models.MatchNone && result.MatchQuality != models.MatchWeak {
		t.Errorf("expected weak or none match quality on sparse results, got %s", result.MatchQuality)
	}
}

func TestRunExtractorErrorEmitsErrorNotResult(t *testing.T) {
	p := &Pipeline{
		Extractor: &fakeExtractor{err: errBoom},
		Ledger:    &fakeLedgerStore{},
	}
	events := drain(t, p.Run(context.Background(), "anything", Filters{}), 5*time.Second)
	last := events[len(events)-1]
	if last.Type != EventError {
		t.Errorf("expected terminal error event, got %s", last.Type)
	}
	for _, e := range events {
		if e.Type == EventResult || e.Type == EventDone {
			t.Errorf("no result/done events expected after extractor failure, saw %s", e.Type)
		}
	}
}

type boomErr struct{}

func (boomErr) Error() string { return "boom" }

var errBoom = boomErr{}
