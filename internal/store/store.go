// Package store is the Postgres/pgvector-backed persistence layer for the
// four logical tables of spec.md §6.4: resumes_core, resumes_pii (never
// touched here), resume_skills (the ledger) and resume_chunks.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
	"github.com/seanblong/resumesearch/pkg/models"
)

// Store provides methods to interact with the database.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a new Store instance connected to the given database URL.
func New(ctx context.Context, url string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, err
	}
	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{pool: p}, nil
}

func (s *Store) Close() { s.pool.Close() }

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

// Migrate applies the schema for all four logical tables. resumes_pii is
// declared here for completeness of the logical layout (§6.4) but the
// retrieval core never reads or writes it.
func (s *Store) Migrate(ctx context.Context, embedDim int) error {
	q := `
CREATE EXTENSION IF NOT EXISTS vector;
CREATE EXTENSION IF NOT EXISTS pg_trgm;

CREATE TABLE IF NOT EXISTS resumes_core (
  resume_id         TEXT PRIMARY KEY,
  summary           TEXT NOT NULL DEFAULT '',
  location_country  TEXT NOT NULL DEFAULT '',
  location_city     TEXT NOT NULL DEFAULT '',
  total_yoe         INT  NOT NULL DEFAULT 0,
  experience        JSONB NOT NULL DEFAULT '[]',
  projects          JSONB NOT NULL DEFAULT '[]',
  education         JSONB NOT NULL DEFAULT '[]',
  created_at        TIMESTAMP WITH TIME ZONE DEFAULT now()
);

CREATE TABLE IF NOT EXISTS resumes_pii (
  resume_id TEXT PRIMARY KEY REFERENCES resumes_core(resume_id) ON DELETE CASCADE,
  pii       JSONB NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS resume_skills (
  resume_id         TEXT NOT NULL REFERENCES resumes_core(resume_id) ON DELETE CASCADE,
  skill_canonical   TEXT NOT NULL,
  confidence        DOUBLE PRECISION NOT NULL,
  evidence_count    INT NOT NULL DEFAULT 0,
  evidence_sources  JSONB NOT NULL DEFAULT '[]',
  PRIMARY KEY (resume_id, skill_canonical)
);

CREATE INDEX IF NOT EXISTS resume_skills_skill_idx ON resume_skills (skill_canonical);
CREATE INDEX IF NOT EXISTS resume_skills_resume_idx ON resume_skills (resume_id);

CREATE TABLE IF NOT EXISTS resume_chunks (
  chunk_id         TEXT PRIMARY KEY,
  resume_id        TEXT NOT NULL REFERENCES resumes_core(resume_id) ON DELETE CASCADE,
  section_type     TEXT NOT NULL,
  section_ordinal  INT NOT NULL,
  chunk_text       TEXT NOT NULL,
  embedding        vector(%d),
  skills_in_chunk  JSONB NOT NULL DEFAULT '[]',
  created_at       TIMESTAMP WITH TIME ZONE DEFAULT now(),
  ts_chunk         tsvector GENERATED ALWAYS AS (to_tsvector('english', coalesce(chunk_text, ''))) STORED
);

CREATE INDEX IF NOT EXISTS resume_chunks_resume_idx ON resume_chunks (resume_id);
CREATE INDEX IF NOT EXISTS resume_chunks_ts_gin ON resume_chunks USING GIN (ts_chunk);
CREATE INDEX IF NOT EXISTS resume_chunks_embedding_idx ON resume_chunks USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100);
`
	_, err := s.pool.Exec(ctx, fmt.Sprintf(q, embedDim))
	return err
}

// --- resume core ---------------------------------------------------------

// GetResume returns the core profile for a resumeId.
func (s *Store) GetResume(ctx context.Context, resumeID string) (models.Resume, bool, error) {
	const q = `
      SELECT resume_id, summary, location_country, location_city, total_yoe,
             experience, projects, education
      FROM resumes_core WHERE resume_id = $1`
	var r models.Resume
	err := s.pool.QueryRow(ctx, q, resumeID).Scan(
		&r.ID, &r.Summary, &r.LocationCountry, &r.LocationCity, &r.TotalYOE,
		&r.Experience, &r.Projects, &r.Education,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Resume{}, false, nil
		}
		return models.Resume{}, false, err
	}
	return r, true, nil
}

// UpsertResume inserts or fully replaces a resume's core profile, keyed by
// resumeId. Used by the ingestion path (cmd/ingest) to populate fixtures.
func (s *Store) UpsertResume(ctx context.Context, r models.Resume) error {
	const q = `
      INSERT INTO resumes_core (resume_id, summary, location_country, location_city, total_yoe, experience, projects, education)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
      ON CONFLICT (resume_id) DO UPDATE SET
        summary          = EXCLUDED.summary,
        location_country = EXCLUDED.location_country,
        location_city    = EXCLUDED.location_city,
        total_yoe        = EXCLUDED.total_yoe,
        experience       = EXCLUDED.experience,
        projects         = EXCLUDED.projects,
        education        = EXCLUDED.education`
	experience := r.Experience
	if experience == nil {
		experience = []models.ExperienceItem{}
	}
	projects := toJSONArray(r.Projects)
	education := toJSONArray(r.Education)
	_, err := s.pool.Exec(ctx, q, r.ID, r.Summary, r.LocationCountry, r.LocationCity, r.TotalYOE, experience, projects, education)
	return err
}

// DeleteResume removes all traces of a resumeId atomically across ledger,
// chunks and core (spec.md §3.3): readers must not see a half-deleted
// resume produce inconsistent evidence.
func (s *Store) DeleteResume(ctx context.Context, resumeID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM resume_chunks WHERE resume_id = $1`, resumeID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM resume_skills WHERE resume_id = $1`, resumeID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM resumes_pii WHERE resume_id = $1`, resumeID); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM resumes_core WHERE resume_id = $1`, resumeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return tx.Commit(ctx)
}

// --- skill ledger (C2 persistence) ---------------------------------------

// UpsertSkillEntry writes a ledger row, honoring the confidence-supersedes
// rule of spec.md §3.1: a higher-confidence observation of the same skill
// replaces a lower one.
func (s *Store) UpsertSkillEntry(ctx context.Context, e models.SkillLedgerEntry) error {
	const q = `
      INSERT INTO resume_skills (resume_id, skill_canonical, confidence, evidence_count, evidence_sources)
      VALUES ($1, $2, $3, $4, $5)
      ON CONFLICT (resume_id, skill_canonical) DO UPDATE SET
        confidence       = GREATEST(resume_skills.confidence, EXCLUDED.confidence),
        evidence_count   = resume_skills.evidence_count + EXCLUDED.evidence_count,
        evidence_sources = EXCLUDED.evidence_sources`
	_, err := s.pool.Exec(ctx, q, e.ResumeID, e.SkillCanonical, e.Confidence, e.EvidenceCount, toJSONArray(e.EvidenceSources))
	return err
}

// SkillsForResume returns every ledger row for a single resume, for the
// GET /resume/:id detail view (spec.md §6.1).
func (s *Store) SkillsForResume(ctx context.Context, resumeID string) ([]models.SkillLedgerEntry, error) {
	const q = `
      SELECT resume_id, skill_canonical, confidence, evidence_count, evidence_sources
      FROM resume_skills WHERE resume_id = $1
      ORDER BY skill_canonical`
	rows, err := s.pool.Query(ctx, q, resumeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SkillLedgerEntry
	for rows.Next() {
		var e models.SkillLedgerEntry
		var sources []string
		if err := rows.Scan(&e.ResumeID, &e.SkillCanonical, &e.Confidence, &e.EvidenceCount, &sources); err != nil {
			return nil, err
		}
		e.EvidenceSources = sources
		out = append(out, e)
	}
	return out, rows.Err()
}

// EntriesForSkills implements ledger.Store: all ledger rows across all
// resumes for the given canonical skills.
func (s *Store) EntriesForSkills(ctx context.Context, canonicalSkills []string) ([]models.SkillLedgerEntry, error) {
	if len(canonicalSkills) == 0 {
		return nil, nil
	}
	const q = `
      SELECT resume_id, skill_canonical, confidence, evidence_count, evidence_sources
      FROM resume_skills WHERE skill_canonical = ANY($1)`
	rows, err := s.pool.Query(ctx, q, canonicalSkills)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SkillLedgerEntry
	for rows.Next() {
		var e models.SkillLedgerEntry
		var sources []string
		if err := rows.Scan(&e.ResumeID, &e.SkillCanonical, &e.Confidence, &e.EvidenceCount, &sources); err != nil {
			return nil, err
		}
		e.EvidenceSources = sources
		out = append(out, e)
	}
	return out, rows.Err()
}

// --- chunk store (C3) -----------------------------------------------------

// UpsertChunk inserts or updates a chunk, keyed by chunkId.
func (s *Store) UpsertChunk(ctx context.Context, c models.Chunk) error {
	var v any
	if c.Embedding != nil {
		v = pgvector.NewVector(c.Embedding)
	} else {
		v = (*pgvector.Vector)(nil)
	}
	const q = `
      INSERT INTO resume_chunks (chunk_id, resume_id, section_type, section_ordinal, chunk_text, embedding, skills_in_chunk, created_at)
      VALUES ($1,$2,$3,$4,$5,$6,$7, now())
      ON CONFLICT (chunk_id) DO UPDATE SET
        chunk_text      = EXCLUDED.chunk_text,
        embedding       = COALESCE(EXCLUDED.embedding, resume_chunks.embedding),
        skills_in_chunk = EXCLUDED.skills_in_chunk`
	_, err := s.pool.Exec(ctx, q,
		c.ChunkID, c.ResumeID, string(c.SectionType), c.SectionOrdinal, c.ChunkText, v, toJSONArray(c.SkillsInChunk))
	return err
}

// ChunksFor returns every chunk belonging to the given resumeIds, in
// deterministic order (resumeId, sectionType, sectionOrdinal).
func (s *Store) ChunksFor(ctx context.Context, resumeIDs []string) ([]models.Chunk, error) {
	if len(resumeIDs) == 0 {
		return nil, nil
	}
	const q = `
      SELECT chunk_id, resume_id, section_type, section_ordinal, chunk_text, skills_in_chunk, created_at
      FROM resume_chunks
      WHERE resume_id = ANY($1)
      ORDER BY resume_id, section_type, section_ordinal`
	rows, err := s.pool.Query(ctx, q, resumeIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChunks(rows)
}

// ChunksWithEmbeddings returns chunks for resumeIds that have a non-empty
// embedding, for the dense retriever (C5).
func (s *Store) ChunksWithEmbeddings(ctx context.Context, resumeIDs []string) ([]models.Chunk, error) {
	if len(resumeIDs) == 0 {
		return nil, nil
	}
	const q = `
      SELECT chunk_id, resume_id, section_type, section_ordinal, chunk_text, skills_in_chunk, created_at, embedding
      FROM resume_chunks
      WHERE resume_id = ANY($1) AND embedding IS NOT NULL
      ORDER BY resume_id, section_type, section_ordinal`
	rows, err := s.pool.Query(ctx, q, resumeIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Chunk
	for rows.Next() {
		var c models.Chunk
		var section string
		var skills []string
		var vec pgvector.Vector
		if err := rows.Scan(&c.ChunkID, &c.ResumeID, &section, &c.SectionOrdinal, &c.ChunkText, &skills, &c.CreatedAt, &vec); err != nil {
			return nil, err
		}
		c.SectionType = models.SectionType(section)
		c.SkillsInChunk = skills
		c.Embedding = vec.Slice()
		out = append(out, c)
	}
	return out, rows.Err()
}

// TermHit annotates a chunk with the per-term occurrence counts the
// lexical retriever (C4) needs to compute its score.
type TermHit struct {
	Chunk   models.Chunk
	PerTerm map[string]int
}

// ChunksMatchingTerms returns chunks in resumeIds whose text contains any of
// the given terms case-insensitively, annotated with per-term hit counts.
// terms are pre-escaped regex-metacharacter-safe by the caller (C4).
func (s *Store) ChunksMatchingTerms(ctx context.Context, resumeIDs []string, terms []string) ([]TermHit, error) {
	if len(resumeIDs) == 0 || len(terms) == 0 {
		return nil, nil
	}
	const q = `
      SELECT chunk_id, resume_id, section_type, section_ordinal, chunk_text, skills_in_chunk, created_at
      FROM resume_chunks
      WHERE resume_id = ANY($1) AND chunk_text ~* $2
      ORDER BY resume_id, section_type, section_ordinal`
	pattern := strings.Join(terms, "|")
	rows, err := s.pool.Query(ctx, q, resumeIDs, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	chunks, err := scanChunks(rows)
	if err != nil {
		return nil, err
	}

	out := make([]TermHit, 0, len(chunks))
	for _, c := range chunks {
		lower := strings.ToLower(c.ChunkText)
		hits := make(map[string]int, len(terms))
		any := false
		for _, t := range terms {
			re, err := regexp.Compile(`(?i)` + t)
			if err != nil {
				continue
			}
			n := len(re.FindAllStringIndex(lower, -1))
			if n > 0 {
				hits[t] = n
				any = true
			}
		}
		if any {
			out = append(out, TermHit{Chunk: c, PerTerm: hits})
		}
	}
	return out, nil
}

func scanChunks(rows pgx.Rows) ([]models.Chunk, error) {
	var out []models.Chunk
	for rows.Next() {
		var c models.Chunk
		var section string
		var skills []string
		if err := rows.Scan(&c.ChunkID, &c.ResumeID, &section, &c.SectionOrdinal, &c.ChunkText, &skills, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.SectionType = models.SectionType(section)
		c.SkillsInChunk = skills
		out = append(out, c)
	}
	return out, rows.Err()
}

func toJSONArray(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
