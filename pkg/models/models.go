// Package models holds the entities shared across the retrieval core.
package models

import "time"

// ExperienceItem is one entry in a resume's work history.
type ExperienceItem struct {
	Title     string     `json:"title"`
	Company   string     `json:"company"`
	DateStart time.Time  `json:"dateStart"`
	DateEnd   *time.Time `json:"dateEnd,omitempty"`
}

// Resume is the immutable, PII-free core profile of a candidate.
type Resume struct {
	ID              string           `json:"id"`
	Summary         string           `json:"summary"`
	LocationCountry string           `json:"locationCountry"`
	LocationCity    string           `json:"locationCity"`
	TotalYOE        int              `json:"totalYOE"`
	Experience      []ExperienceItem `json:"experience"`
	Projects        []string         `json:"projects"`
	Education       []string         `json:"education"`
}

// Confidence scale per spec.md §3.1: structured fields score highest,
// project tech stacks next, narrative mentions lowest.
const (
	ConfidenceStructured = 1.0
	ConfidenceProject    = 0.9
	ConfidenceNarrative  = 0.6
)

// SkillLedgerEntry is one (resumeId, canonicalSkill) row of the ledger.
type SkillLedgerEntry struct {
	ResumeID        string   `json:"resumeId"`
	SkillCanonical  string   `json:"skillCanonical"`
	Confidence      float64  `json:"confidence"`
	EvidenceCount   int      `json:"evidenceCount"`
	EvidenceSources []string `json:"evidenceSources"`
}

// SectionType enumerates the chunk sections a resume decomposes into.
type SectionType string

const (
	SectionSummary    SectionType = "summary"
	SectionExperience SectionType = "experience"
	SectionProject    SectionType = "project"
	SectionEducation  SectionType = "education"
	SectionSkills     SectionType = "skills"
)

// Chunk is a semantically coherent slice of a resume with an embedding.
type Chunk struct {
	ChunkID        string      `json:"chunkId"`
	ResumeID       string      `json:"resumeId"`
	SectionType    SectionType `json:"sectionType"`
	SectionOrdinal int         `json:"sectionOrdinal"`
	ChunkText      string      `json:"chunkText"`
	Embedding      []float32   `json:"embedding,omitempty"`
	SkillsInChunk  []string    `json:"skillsInChunk"`
	CreatedAt      time.Time   `json:"createdAt"`
}

// MissionSpec is the structured interpretation of a free-text query
// produced by the agentic pipeline's intent-extraction stage.
type MissionSpec struct {
	MustHave            []string `json:"mustHave"`
	NiceToHave          []string `json:"niceToHave"`
	NegativeConstraints []string `json:"negativeConstraints"`
	MinYears            *int     `json:"minYears,omitempty"`
	Location            *string  `json:"location,omitempty"`
	CoreDomain          *string  `json:"coreDomain,omitempty"`
	Clarifications      string   `json:"clarifications"`
}

// MatchQuality classifies how strongly the final shortlist matched the query.
type MatchQuality string

const (
	MatchStrong MatchQuality = "strong"
	MatchWeak   MatchQuality = "weak"
	MatchNone   MatchQuality = "none"
)

// WhyMatched explains which retrieval leg surfaced a piece of evidence.
type WhyMatched string

const (
	WhyDense  WhyMatched = "dense"
	WhySparse WhyMatched = "sparse"
	WhyBoth   WhyMatched = "both"
)

// Evidence is a chunk snippet surfaced to explain why a candidate matched.
type Evidence struct {
	ChunkText      string      `json:"chunkText"`
	SectionType    SectionType `json:"sectionType"`
	SectionOrdinal int         `json:"sectionOrdinal"`
	Score          float64     `json:"score"`
	WhyMatched     WhyMatched  `json:"whyMatched,omitempty"`
}

// Candidate is the in-flight, then scored, representation of a resume
// as it moves through gating, retrieval, fusion and scoring.
type Candidate struct {
	ResumeID      string   `json:"resumeId"`
	MatchedSkills []string `json:"matchedSkills"`
	MatchedCount  int      `json:"matchedCount"`
	AvgConfidence float64  `json:"avgConfidence"`

	RRFScore      float64 `json:"rrfScore"`
	SemanticScore float64 `json:"semanticScore"`
	SkillScore    float64 `json:"skillScore"`
	FinalScore    float64 `json:"finalScore"`

	Evidence     []Evidence   `json:"evidence"`
	MatchQuality MatchQuality `json:"matchQuality,omitempty"`
}

// CandidateOut is the display-enriched candidate returned by the classic
// query API (§6.1): core profile fields joined onto the scored candidate.
type CandidateOut struct {
	Candidate
	Headline        string `json:"headline,omitempty"`
	TotalYOE        int    `json:"totalYOE"`
	LocationCountry string `json:"locationCountry,omitempty"`
	LocationCity    string `json:"locationCity,omitempty"`
}
