package scoring

import "testing"

func TestComputeBounds(t *testing.T) {
	s := Compute(2, 2, 2.0/61.0) // max rrf for a resume in two rank-1 lists
	if s.FinalScore > 100 {
		t.Errorf("finalScore exceeds 100: %f", s.FinalScore)
	}
	if s.SkillScore > 50 {
		t.Errorf("skillScore exceeds 50: %f", s.SkillScore)
	}
	if s.SemanticScore > 50 {
		t.Errorf("semanticScore exceeds 50: %f", s.SemanticScore)
	}
}

func TestComputeFullCoverageNoSemantic(t *testing.T) {
	s := Compute(3, 3, 0)
	if s.SkillScore != 50 {
		t.Errorf("expected skillScore=50 for full coverage, got %f", s.SkillScore)
	}
	if s.SemanticScore != 0 {
		t.Errorf("expected semanticScore=0, got %f", s.SemanticScore)
	}
	if s.FinalScore != 50 {
		t.Errorf("expected finalScore=50, got %f", s.FinalScore)
	}
}

func TestComputeZeroQuerySkills(t *testing.T) {
	s := Compute(0, 0, 0.01)
	if s.CoverageRatio != 0 {
		t.Errorf("expected coverageRatio=0 when totalQuerySkills=0, got %f", s.CoverageRatio)
	}
}

func TestComputeSemanticCap(t *testing.T) {
	s := Compute(0, 1, 1.0) // rrfScore*1500 would be 1500, capped to 50
	if s.SemanticScore != 50 {
		t.Errorf("expected semanticScore capped at 50, got %f", s.SemanticScore)
	}
}

func TestComputeMonotone(t *testing.T) {
	low := Compute(1, 4, 0.01)
	high := Compute(2, 4, 0.01)
	if high.FinalScore < low.FinalScore {
		t.Errorf("finalScore not monotone in coverage: %f < %f", high.FinalScore, low.FinalScore)
	}
	low2 := Compute(1, 4, 0.005)
	high2 := Compute(1, 4, 0.02)
	if high2.FinalScore < low2.FinalScore {
		t.Errorf("finalScore not monotone in rrfScore: %f < %f", high2.FinalScore, low2.FinalScore)
	}
}
