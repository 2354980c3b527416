package fusion

import (
	"testing"

	"github.com/seanblong/resumesearch/internal/retrieval"
	"github.com/seanblong/resumesearch/pkg/models"
)

func TestResumeRanksBestWins(t *testing.T) {
	list := []retrieval.Ranked{
		{Chunk: models.Chunk{ResumeID: "A"}, Rank: 3},
		{Chunk: models.Chunk{ResumeID: "A"}, Rank: 1},
		{Chunk: models.Chunk{ResumeID: "B"}, Rank: 2},
	}
	got := ResumeRanks(list)
	if got["A"] != 1 {
		t.Errorf("expected A's best rank 1, got %d", got["A"])
	}
	if got["B"] != 2 {
		t.Errorf("expected B's rank 2, got %d", got["B"])
	}
}

func TestRRFTiebreakEqualScores(t *testing.T) {
	lexical := map[string]int{"A": 1, "B": 1}
	dense := map[string]int{"A": 1, "B": 1}
	rrf := RRF(60, lexical, dense)
	if rrf["A"] != rrf["B"] {
		t.Errorf("expected identical rrf for A and B, got %f vs %f", rrf["A"], rrf["B"])
	}
	// spec.md §8: for k=60 and <=2 lists, rrf <= 2/(k+1)
	if rrf["A"] > 2.0/61.0+1e-9 {
		t.Errorf("rrf exceeds bound: %f", rrf["A"])
	}
}

func TestRRFMissingListContributesZero(t *testing.T) {
	lexical := map[string]int{"A": 1}
	dense := map[string]int{}
	rrf := RRF(60, lexical, dense)
	want := 1.0 / 61.0
	if rrf["A"] != want {
		t.Errorf("rrf[A] = %f, want %f", rrf["A"], want)
	}
}

func TestEvidenceCapAndDedup(t *testing.T) {
	lexical := []retrieval.Ranked{
		{Chunk: models.Chunk{ResumeID: "A", SectionType: models.SectionExperience, SectionOrdinal: 0, ChunkText: "x"}, Score: 1},
		{Chunk: models.Chunk{ResumeID: "A", SectionType: models.SectionExperience, SectionOrdinal: 1, ChunkText: "y"}, Score: 2},
		{Chunk: models.Chunk{ResumeID: "A", SectionType: models.SectionProject, SectionOrdinal: 0, ChunkText: "z"}, Score: 3},
	}
	dense := []retrieval.Ranked{
		{Chunk: models.Chunk{ResumeID: "A", SectionType: models.SectionExperience, SectionOrdinal: 0, ChunkText: "x"}, Score: 5},
		{Chunk: models.Chunk{ResumeID: "A", SectionType: models.SectionEducation, SectionOrdinal: 0, ChunkText: "w"}, Score: 4},
	}
	ev := Evidence(lexical, dense)
	items := ev["A"]
	if len(items) != 3 {
		t.Fatalf("expected evidence cap at 3, got %d: %+v", len(items), items)
	}
	// highest score first
	if items[0].Score != 5 {
		t.Errorf("expected top evidence score 5, got %f", items[0].Score)
	}
	// the (experience,0) chunk appears in both lists -> whyMatched=both
	var found bool
	for _, e := range items {
		if e.SectionOrdinal == 0 && e.SectionType == models.SectionExperience {
			found = true
			if e.WhyMatched != models.WhyBoth {
				t.Errorf("expected whyMatched=both, got %s", e.WhyMatched)
			}
		}
	}
	if !found {
		t.Fatal("expected deduplicated (experience,0) evidence item present")
	}
}
