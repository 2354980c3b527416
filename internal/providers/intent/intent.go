// Package intent extracts a structured models.MissionSpec from a
// recruiter's free-text query, treating the LLM as a black-box JSON
// provider per spec.md §9. Malformed JSON triggers a single retry; a
// second failure degrades to an "all query words are mustHave" heuristic
// and emits a clarification note.
package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/seanblong/resumesearch/internal/skills"
	"github.com/seanblong/resumesearch/pkg/models"
)

// Extractor is the contract the agentic pipeline's jd_understanding stage
// depends on.
type Extractor interface {
	Extract(ctx context.Context, queryText string) (models.MissionSpec, error)
}

// LLM is the minimal black-box contract an LLM provider must satisfy:
// given a prompt, return raw text (expected to be JSON).
type LLM interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

const systemPrompt = `You are a recruiting intent extractor. Given a free-form job description
or recruiter request, output strict JSON with fields: mustHave (array of strings),
niceToHave (array of strings), negativeConstraints (array of strings),
minYears (integer or null), location (string or null), coreDomain (string or null),
clarifications (string, may be empty). Output JSON only, no prose, no code fences.`

// DefaultExtractor drives an LLM to produce a MissionSpec, with the
// retry-then-degrade policy of spec.md §9.
type DefaultExtractor struct {
	LLM LLM
}

func NewDefaultExtractor(llm LLM) *DefaultExtractor { return &DefaultExtractor{LLM: llm} }

func (d *DefaultExtractor) Extract(ctx context.Context, queryText string) (models.MissionSpec, error) {
	spec, err := d.attempt(ctx, queryText)
	if err == nil {
		return spec, nil
	}

	spec, err2 := d.attempt(ctx, queryText)
	if err2 == nil {
		return spec, nil
	}

	return heuristicSpec(queryText), nil
}

func (d *DefaultExtractor) attempt(ctx context.Context, queryText string) (models.MissionSpec, error) {
	raw, err := d.LLM.Generate(ctx, systemPrompt, queryText)
	if err != nil {
		return models.MissionSpec{}, fmt.Errorf("intent: llm generate failed: %w", err)
	}
	return parseMissionSpec(raw)
}

// wireMissionSpec mirrors models.MissionSpec but tolerates missing fields,
// since spec.md §9 requires "missing fields default to empty" and
// "minYears accepts integers only".
type wireMissionSpec struct {
	MustHave            []string `json:"mustHave"`
	NiceToHave          []string `json:"niceToHave"`
	NegativeConstraints []string `json:"negativeConstraints"`
	MinYears            *int     `json:"minYears"`
	Location            *string  `json:"location"`
	CoreDomain          *string  `json:"coreDomain"`
	Clarifications      string   `json:"clarifications"`
}

func parseMissionSpec(raw string) (models.MissionSpec, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var w wireMissionSpec
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return models.MissionSpec{}, fmt.Errorf("intent: malformed JSON: %w", err)
	}

	return models.MissionSpec{
		MustHave:            skills.NormalizeList(w.MustHave),
		NiceToHave:          skills.NormalizeList(w.NiceToHave),
		NegativeConstraints: skills.NormalizeList(w.NegativeConstraints),
		MinYears:            w.MinYears,
		Location:            w.Location,
		CoreDomain:          w.CoreDomain,
		Clarifications:      w.Clarifications,
	}, nil
}

// heuristicSpec implements the degrade path: every word of the query
// becomes a mustHave skill, after normalization and de-duplication.
func heuristicSpec(queryText string) models.MissionSpec {
	words := strings.Fields(queryText)
	must := skills.NormalizeList(words)
	return models.MissionSpec{
		MustHave:       must,
		Clarifications: "intent extraction degraded to a keyword heuristic; results may be imprecise",
	}
}
