package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/seanblong/resumesearch/internal/agentic"
	"github.com/seanblong/resumesearch/internal/apperr"
)

// shortlistRequest is the wire shape of POST /shortlist (spec.md §6.1):
// `{ query_text: string, filters?: {...} }`. query_text is snake_case per
// the spec's literal wording; filters nests the same minYOE/locationCountry
// fields /search accepts, camelCase per §6's convention there.
type shortlistRequest struct {
	QueryText string `json:"query_text"`
	Filters   struct {
		MinYOE          int    `json:"minYOE"`
		LocationCountry string `json:"locationCountry"`
	} `json:"filters"`
}

// handleShortlist streams the agentic pipeline's event sequence as SSE.
// Per spec.md §4.9, no events are emitted after an error or after the
// client disconnects.
func (h *Handlers) handleShortlist(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req shortlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, apperr.InvalidQuery("malformed request body: "+err.Error()))
		return
	}
	if req.QueryText == "" {
		writeError(w, r, apperr.InvalidQuery("query_text is required"))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, apperr.Internal("streaming unsupported", nil))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	events := h.Agentic.Run(r.Context(), req.QueryText, agentic.Filters{
		MinYOE:          req.Filters.MinYOE,
		LocationCountry: req.Filters.LocationCountry,
	})

	for ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("shortlist: failed to marshal event")
			continue
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, payload); err != nil {
			return // client disconnected
		}
		flusher.Flush()
	}
}
