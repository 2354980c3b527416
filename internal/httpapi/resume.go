package httpapi

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/hlog"

	"github.com/seanblong/resumesearch/internal/apperr"
	"github.com/seanblong/resumesearch/internal/auth"
	"github.com/seanblong/resumesearch/pkg/models"
)

// resumeDetail is the full GET /resume/:id payload (spec.md §6.1): the core
// profile, its full skill ledger, and its chunks without embedding vectors.
type resumeDetail struct {
	models.Resume
	Skills []models.SkillLedgerEntry `json:"skills"`
	Chunks []models.Chunk            `json:"chunks"`
}

func resumeIDFromPath(r *http.Request) string {
	return strings.TrimPrefix(r.URL.Path, "/resume/")
}

func (h *Handlers) handleGetResume(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := resumeIDFromPath(r)
	if id == "" {
		writeError(w, r, apperr.InvalidQuery("resume id is required"))
		return
	}

	resume, ok, err := h.Store.GetResume(r.Context(), id)
	if err != nil {
		writeError(w, r, apperr.Wrap(apperr.KindUpstreamUnavailable, "resume core read failed", err))
		return
	}
	if !ok {
		writeError(w, r, apperr.NotFound("resume not found: "+id))
		return
	}

	ledgerEntries, err := h.Store.SkillsForResume(r.Context(), id)
	if err != nil {
		writeError(w, r, apperr.Wrap(apperr.KindUpstreamUnavailable, "skill ledger read failed", err))
		return
	}

	chunks, err := h.Store.ChunksFor(r.Context(), []string{id})
	if err != nil {
		writeError(w, r, apperr.Wrap(apperr.KindUpstreamUnavailable, "chunk read failed", err))
		return
	}

	writeJSON(w, http.StatusOK, resumeDetail{Resume: resume, Skills: ledgerEntries, Chunks: chunks})
}

// handleDeleteResume removes a resume and its chunks/ledger rows. Guarded by
// auth.RequireAuth at registration (spec.md's Non-goals exclude a broader
// auth surface, not a guard on the one mutating route).
func (h *Handlers) handleDeleteResume(w http.ResponseWriter, r *http.Request) {
	id := resumeIDFromPath(r)
	if id == "" {
		writeError(w, r, apperr.InvalidQuery("resume id is required"))
		return
	}

	if subject, ok := auth.SubjectFromContext(r); ok {
		hlog.FromRequest(r).Info().Str("subject", subject).Str("resumeId", id).Msg("resume delete requested")
	}

	if err := h.Store.DeleteResume(r.Context(), id); err != nil {
		writeError(w, r, apperr.Wrap(apperr.KindUpstreamUnavailable, "resume delete failed", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
