package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/seanblong/resumesearch/internal/apperr"
	"github.com/seanblong/resumesearch/internal/classic"
	"github.com/seanblong/resumesearch/internal/ledger"
)

// searchRequest is the wire shape of POST /search (spec.md §6.1).
type searchRequest struct {
	Skills          []string `json:"skills"`
	Mode            string   `json:"mode"`
	MinMatch        int      `json:"minMatch"`
	MinYOE          int      `json:"minYOE"`
	LocationCountry string   `json:"locationCountry"`
	Limit           int      `json:"limit"`
	EnableRerank    bool     `json:"enableRerank"`
}

func (h *Handlers) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, apperr.InvalidQuery("malformed request body: "+err.Error()))
		return
	}

	mode := ledger.ModeMatchAll
	if req.Mode == string(ledger.ModeMatchAtLeast) {
		mode = ledger.ModeMatchAtLeast
	}

	resp, err := h.Classic.Run(r.Context(), classic.Request{
		Skills:          req.Skills,
		Mode:            mode,
		MinMatch:        req.MinMatch,
		MinYOE:          req.MinYOE,
		LocationCountry: req.LocationCountry,
		Limit:           req.Limit,
		EnableRerank:    req.EnableRerank,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
