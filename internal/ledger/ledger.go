// Package ledger implements the skill ledger gate (C2): the deterministic
// pre-filter that excludes resumes lacking the minimum required canonical
// skills before expensive retrieval.
package ledger

import (
	"context"
	"sort"

	"github.com/seanblong/resumesearch/pkg/models"
)

// GateMode selects how the match threshold is derived from the query's
// skill set (spec.md §4.2).
type GateMode string

const (
	ModeMatchAll     GateMode = "match_all"
	ModeMatchAtLeast GateMode = "match_at_least"
)

// Threshold computes the minimum-match count for a mode/skill-set/minMatch
// triple, per spec.md §4.2's gating semantics.
func Threshold(mode GateMode, minMatch int, querySkillCount int) int {
	if mode == ModeMatchAtLeast {
		t := minMatch
		if t < 1 {
			t = 1
		}
		if t > querySkillCount {
			t = querySkillCount
		}
		return t
	}
	return querySkillCount
}

// GatedCandidate is a resume that cleared the gate, annotated with its
// matched-skill list, match count, and average confidence.
type GatedCandidate struct {
	ResumeID      string
	MatchedSkills []string
	MatchedCount  int
	AvgConfidence float64
}

// Store is the read-only contract the ledger gate needs from persistence:
// for each candidate skill, the set of resumes that have it and at what
// confidence.
type Store interface {
	// EntriesForSkills returns all ledger rows for the given canonical
	// skills, across all resumes.
	EntriesForSkills(ctx context.Context, canonicalSkills []string) ([]models.SkillLedgerEntry, error)
}

// Gate applies the set-cover gating contract of spec.md §4.2: given
// canonicalSkills and a threshold, return every resume whose matched-skill
// count meets or exceeds it, ordered by (matchedCount desc, avgConfidence
// desc, resumeId asc).
func Gate(ctx context.Context, store Store, canonicalSkills []string, threshold int) ([]GatedCandidate, error) {
	if len(canonicalSkills) == 0 {
		return []GatedCandidate{}, nil
	}

	entries, err := store.EntriesForSkills(ctx, canonicalSkills)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]struct{}, len(canonicalSkills))
	for _, s := range canonicalSkills {
		wanted[s] = struct{}{}
	}

	type agg struct {
		skills     []string
		confidence float64
	}
	byResume := make(map[string]*agg)
	for _, e := range entries {
		if _, ok := wanted[e.SkillCanonical]; !ok {
			continue
		}
		a, ok := byResume[e.ResumeID]
		if !ok {
			a = &agg{}
			byResume[e.ResumeID] = a
		}
		a.skills = append(a.skills, e.SkillCanonical)
		a.confidence += e.Confidence
	}

	out := make([]GatedCandidate, 0, len(byResume))
	for resumeID, a := range byResume {
		count := len(a.skills)
		if count < threshold {
			continue
		}
		out = append(out, GatedCandidate{
			ResumeID:      resumeID,
			MatchedSkills: a.skills,
			MatchedCount:  count,
			AvgConfidence: a.confidence / float64(count),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].MatchedCount != out[j].MatchedCount {
			return out[i].MatchedCount > out[j].MatchedCount
		}
		if out[i].AvgConfidence != out[j].AvgConfidence {
			return out[i].AvgConfidence > out[j].AvgConfidence
		}
		return out[i].ResumeID < out[j].ResumeID
	})
	return out, nil
}
