package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/pitchtrack/internal/domain/pitch"
	"github.com/okian/pitchtrack/pkg/logger"
)

// StatcastSource serves historical pitch data.
type StatcastSource interface {
	Statcast(ctx context.Context, pitcherID int, start, end string) ([]pitch.PitchRecord, error)
}

// StatcastHandler handles historical pitch requests.
type StatcastHandler struct {
	source StatcastSource
	log    logger.Logger
}

// NewStatcastHandler creates a new statcast handler.
func NewStatcastHandler(source StatcastSource, log logger.Logger) *StatcastHandler {
	return &StatcastHandler{source: source, log: log}
}

// HandleStatcast handles GET /api/pitcher/{pitcher_id}/statcast?start_date=&end_date=.
func (h *StatcastHandler) HandleStatcast(w http.ResponseWriter, r *http.Request) {
	pitcherID, err := parseID("pitcher_id", chi.URLParam(r, "pitcher_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	q := r.URL.Query()
	req := statcastRequest{
		PitcherID: pitcherID,
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
	}
	if err := validateRequest(req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	out, err := h.source.Statcast(r.Context(), req.PitcherID, req.StartDate, req.EndDate)
	if err != nil {
		writeUpstreamFailure(r.Context(), w, h.log, "statcast", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
