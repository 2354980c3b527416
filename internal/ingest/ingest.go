// Package ingest is the development/test fixture loader: it walks a
// directory of per-candidate JSON fixtures and populates the resume core,
// skill ledger, and chunk store. It is not the production ingestion
// pipeline (out of scope per this domain's boundaries) — only a way to
// seed a database for exercising the query paths end to end.
package ingest

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/karrick/godirwalk"
	"github.com/rs/zerolog/log"

	"github.com/seanblong/resumesearch/internal/skills"
	"github.com/seanblong/resumesearch/pkg/models"
)

// Embedder is the subset of embed.Client the loader needs.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Store is the persistence contract the loader writes through.
type Store interface {
	UpsertResume(ctx context.Context, r models.Resume) error
	UpsertSkillEntry(ctx context.Context, e models.SkillLedgerEntry) error
	UpsertChunk(ctx context.Context, c models.Chunk) error
}

// FileSystemWalker mirrors internal/indexer's testing seam.
type FileSystemWalker interface {
	Walk(root string, options *godirwalk.Options) error
}

type DefaultFileSystemWalker struct{}

func (DefaultFileSystemWalker) Walk(root string, options *godirwalk.Options) error {
	return godirwalk.Walk(root, options)
}

// Loader walks the fixture root passed to Run and writes every *.json
// fixture it finds.
type Loader struct {
	Store    Store
	Embedder Embedder
	Walker   FileSystemWalker
}

func New(store Store, embedder Embedder) *Loader {
	return &Loader{Store: store, Embedder: embedder, Walker: DefaultFileSystemWalker{}}
}

// fixtureSkills groups raw skill strings by the confidence tier they were
// observed at, per spec.md §3.1.
type fixtureSkills struct {
	Structured []string `json:"structured"`
	Project    []string `json:"project"`
	Narrative  []string `json:"narrative"`
}

type fixtureChunk struct {
	SectionType string `json:"sectionType"`
	Text        string `json:"text"`
}

// fixture is the on-disk JSON shape one candidate fixture file holds.
type fixture struct {
	ID              string                  `json:"id"`
	Summary         string                  `json:"summary"`
	LocationCountry string                  `json:"locationCountry"`
	LocationCity    string                  `json:"locationCity"`
	TotalYOE        int                     `json:"totalYOE"`
	Experience      []models.ExperienceItem `json:"experience"`
	Projects        []string                `json:"projects"`
	Education       []string                `json:"education"`
	Skills          fixtureSkills           `json:"skills"`
	Chunks          []fixtureChunk          `json:"chunks"`
}

// Run walks root for *.json fixtures and loads each with a bounded worker
// pool, mirroring internal/indexer's concurrency shape.
func (l *Loader) Run(ctx context.Context, root string) error {
	numWorkers := runtime.NumCPU()
	if numWorkers > 8 {
		numWorkers = 8
	}

	paths := make(chan string, numWorkers*2)
	errs := make(chan error, 1)

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range paths {
				if err := l.loadFile(ctx, p); err != nil {
					select {
					case errs <- fmt.Errorf("%s: %w", p, err):
					default:
						log.Error().Err(err).Str("path", p).Msg("fixture load failed")
					}
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(errs)
	}()

	walkErr := l.Walker.Walk(root, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de != nil && de.IsDir() {
				return nil
			}
			if !strings.HasSuffix(path, ".json") {
				return nil
			}
			select {
			case paths <- path:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		},
	})
	close(paths)
	wg.Wait()

	select {
	case err := <-errs:
		if err != nil {
			return err
		}
	default:
	}
	return walkErr
}

func (l *Loader) loadFile(ctx context.Context, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var fx fixture
	if err := json.Unmarshal(b, &fx); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if fx.ID == "" {
		return fmt.Errorf("fixture missing id")
	}

	if err := l.Store.UpsertResume(ctx, models.Resume{
		ID:              fx.ID,
		Summary:         fx.Summary,
		LocationCountry: fx.LocationCountry,
		LocationCity:    fx.LocationCity,
		TotalYOE:        fx.TotalYOE,
		Experience:      fx.Experience,
		Projects:        fx.Projects,
		Education:       fx.Education,
	}); err != nil {
		return fmt.Errorf("upsert resume: %w", err)
	}

	canonicalSkills := l.loadLedger(ctx, fx)

	for i, ch := range fx.Chunks {
		if err := l.loadChunk(ctx, fx.ID, i, ch, canonicalSkills); err != nil {
			return fmt.Errorf("chunk %d: %w", i, err)
		}
	}

	log.Info().Str("resumeId", fx.ID).Int("chunks", len(fx.Chunks)).Msg("fixture loaded")
	return nil
}

// loadLedger normalizes and writes a ledger row per distinct canonical
// skill across all three confidence tiers, keeping the highest-confidence
// observation (spec.md §3.1). It returns the full set of canonical skills
// this resume claims, for per-chunk skill tagging.
func (l *Loader) loadLedger(ctx context.Context, fx fixture) []string {
	type observation struct {
		confidence float64
		raw        string
	}
	byCanonical := make(map[string]observation)
	record := func(raw []string, confidence float64) {
		for _, r := range raw {
			canon := skills.Normalize(r)
			if canon == "" {
				continue
			}
			if existing, ok := byCanonical[canon]; !ok || confidence > existing.confidence {
				byCanonical[canon] = observation{confidence: confidence, raw: r}
			}
		}
	}
	record(fx.Skills.Structured, models.ConfidenceStructured)
	record(fx.Skills.Project, models.ConfidenceProject)
	record(fx.Skills.Narrative, models.ConfidenceNarrative)

	canonical := make([]string, 0, len(byCanonical))
	for canon, obs := range byCanonical {
		canonical = append(canonical, canon)
		err := l.Store.UpsertSkillEntry(ctx, models.SkillLedgerEntry{
			ResumeID:        fx.ID,
			SkillCanonical:  canon,
			Confidence:      obs.confidence,
			EvidenceCount:   1,
			EvidenceSources: []string{obs.raw},
		})
		if err != nil {
			log.Warn().Err(err).Str("resumeId", fx.ID).Str("skill", canon).Msg("ledger upsert failed")
		}
	}
	return canonical
}

func (l *Loader) loadChunk(ctx context.Context, resumeID string, ordinal int, ch fixtureChunk, canonicalSkills []string) error {
	var embedding []float32
	if l.Embedder != nil && strings.TrimSpace(ch.Text) != "" {
		vec, err := l.Embedder.Embed(ctx, ch.Text)
		if err != nil {
			log.Warn().Err(err).Str("resumeId", resumeID).Int("ordinal", ordinal).Msg("embedding failed, storing chunk without a vector")
		} else {
			embedding = vec
		}
	}

	lowerText := strings.ToLower(ch.Text)
	var skillsInChunk []string
	for _, s := range canonicalSkills {
		if strings.Contains(lowerText, strings.ToLower(s)) {
			skillsInChunk = append(skillsInChunk, s)
		}
	}

	return l.Store.UpsertChunk(ctx, models.Chunk{
		ChunkID:        chunkID(resumeID, ch.SectionType, ordinal),
		ResumeID:       resumeID,
		SectionType:    models.SectionType(ch.SectionType),
		SectionOrdinal: ordinal,
		ChunkText:      ch.Text,
		Embedding:      embedding,
		SkillsInChunk:  skillsInChunk,
	})
}

func chunkID(resumeID, sectionType string, ordinal int) string {
	h := sha1.Sum([]byte(fmt.Sprintf("%s|%s|%d", resumeID, sectionType, ordinal)))
	return hex.EncodeToString(h[:])
}
