// Package httpapi wires the classic and agentic query pipelines, and the
// resume core store, onto the HTTP surface of spec.md §6.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/seanblong/resumesearch/internal/agentic"
	"github.com/seanblong/resumesearch/internal/apperr"
	"github.com/seanblong/resumesearch/internal/auth"
	"github.com/seanblong/resumesearch/internal/classic"
	"github.com/seanblong/resumesearch/pkg/models"
)

// ResumeStore is the persistence contract the resume-detail and delete
// routes need, beyond what classic.ResumeStore already covers.
type ResumeStore interface {
	classic.ResumeStore
	SkillsForResume(ctx context.Context, resumeID string) ([]models.SkillLedgerEntry, error)
	ChunksFor(ctx context.Context, resumeIDs []string) ([]models.Chunk, error)
	DeleteResume(ctx context.Context, resumeID string) error
}

// Handlers bundles the collaborators every route needs.
type Handlers struct {
	Classic *classic.Orchestrator
	Agentic *agentic.Pipeline
	Store   ResumeStore
}

// NewMux registers every route of spec.md §6 onto a fresh ServeMux.
func NewMux(h *Handlers) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	mux.HandleFunc("/search", h.handleSearch)
	mux.HandleFunc("/shortlist", h.handleShortlist)
	mux.HandleFunc("/skills", h.handleSkills)

	mux.HandleFunc("/resume/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			auth.RequireAuth(h.handleDeleteResume)(w, r)
			return
		}
		h.handleGetResume(w, r)
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already sent and no request is in reach here to log
		// against, so the encode error is dropped.
		return
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.StatusOf(err)
	hlog.FromRequest(r).Error().Err(err).Int("status", status).Msg("request failed")
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
