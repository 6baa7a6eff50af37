package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/pitchtrack/internal/domain/pitch"
	"github.com/okian/pitchtrack/pkg/logger"
)

// PitcherSearcher finds pitchers by name.
type PitcherSearcher interface {
	SearchPitchers(ctx context.Context, q string) ([]pitch.PitcherSearchResult, error)
}

// SearchHandler handles pitcher search requests.
type SearchHandler struct {
	searcher PitcherSearcher
	log      logger.Logger
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(searcher PitcherSearcher, log logger.Logger) *SearchHandler {
	return &SearchHandler{searcher: searcher, log: log}
}

// HandleSearch handles GET /api/search/pitcher?q=... requests.
func (h *SearchHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	req := searchRequest{Query: strings.TrimSpace(r.URL.Query().Get("q"))}
	if err := validateRequest(req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	out, err := h.searcher.SearchPitchers(r.Context(), req.Query)
	if err != nil {
		writeUpstreamFailure(r.Context(), w, h.log, "search_pitcher", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
