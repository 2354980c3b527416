package httpapi

import (
	"net/http"

	"github.com/seanblong/resumesearch/internal/skills"
)

// handleSkills exposes the canonical skill vocabulary, for clients building
// autocomplete or validating a skills query before submitting it.
func (h *Handlers) handleSkills(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"skills": skills.Canonical()})
}
