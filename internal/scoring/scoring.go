// Package scoring blends coverage and semantic signals into the final
// bounded candidate score (C7).
package scoring

import "math"

// Weights and caps from spec.md §4.7.
const (
	skillWeight    = 50.0
	semanticWeight = 1500.0
	semanticCap    = 50.0
)

// Score holds the rounded display fields of spec.md §4.7.
type Score struct {
	CoverageRatio float64
	SkillScore    float64
	SemanticScore float64
	FinalScore    float64
}

// Compute implements spec.md §4.7's formula:
//
//	coverageRatio = matchedCount / totalQuerySkills
//	skillScore    = coverageRatio * 50
//	semanticScore = min(rrfScore * 1500, 50)
//	finalScore    = skillScore + semanticScore   (<= 100 always, since each
//	                component is capped independently, not their sum)
func Compute(matchedCount, totalQuerySkills int, rrfScore float64) Score {
	var coverage float64
	if totalQuerySkills > 0 {
		coverage = float64(matchedCount) / float64(totalQuerySkills)
	}
	skill := coverage * skillWeight
	semantic := math.Min(rrfScore*semanticWeight, semanticCap)

	return Score{
		CoverageRatio: round(coverage, 2),
		SkillScore:    round(skill, 1),
		SemanticScore: round(semantic, 1),
		FinalScore:    round(skill+semantic, 1),
	}
}

func round(v float64, places int) float64 {
	mult := math.Pow(10, float64(places))
	return math.Round(v*mult) / mult
}
