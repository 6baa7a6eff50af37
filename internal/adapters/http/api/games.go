package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/pitchtrack/internal/domain/pitch"
	"github.com/okian/pitchtrack/pkg/logger"
)

// GameSource serves live-game views.
type GameSource interface {
	LiveGames(ctx context.Context) ([]pitch.GameStatus, error)
	GamePitchers(ctx context.Context, gamePk int) ([]pitch.GamePitcher, error)
	GamePitches(ctx context.Context, gamePk, pitcherID int) ([]pitch.PitchRecord, error)
}

// GamesHandler handles the live-game endpoints.
type GamesHandler struct {
	games GameSource
	log   logger.Logger
}

// NewGamesHandler creates a new games handler.
func NewGamesHandler(games GameSource, log logger.Logger) *GamesHandler {
	return &GamesHandler{games: games, log: log}
}

// HandleLiveGames handles GET /api/games/live.
func (h *GamesHandler) HandleLiveGames(w http.ResponseWriter, r *http.Request) {
	out, err := h.games.LiveGames(r.Context())
	if err != nil {
		writeUpstreamFailure(r.Context(), w, h.log, "games_live", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGamePitchers handles GET /api/game/{game_pk}/pitchers.
func (h *GamesHandler) HandleGamePitchers(w http.ResponseWriter, r *http.Request) {
	gamePk, err := parseID("game_pk", chi.URLParam(r, "game_pk"))
	if err == nil {
		err = validateRequest(gameRequest{GamePk: gamePk})
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	out, err := h.games.GamePitchers(r.Context(), gamePk)
	if err != nil {
		writeUpstreamFailure(r.Context(), w, h.log, "game_pitchers", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGamePitches handles GET /api/game/{game_pk}/pitches?pitcher_id=...
func (h *GamesHandler) HandleGamePitches(w http.ResponseWriter, r *http.Request) {
	req, err := parseGamePitches(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	out, err := h.games.GamePitches(r.Context(), req.GamePk, req.PitcherID)
	if err != nil {
		writeUpstreamFailure(r.Context(), w, h.log, "game_pitches", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func parseGamePitches(r *http.Request) (gamePitchesRequest, error) {
	var req gamePitchesRequest
	gamePk, err := parseID("game_pk", chi.URLParam(r, "game_pk"))
	if err != nil {
		return req, err
	}
	pitcherID, err := parseID("pitcher_id", r.URL.Query().Get("pitcher_id"))
	if err != nil {
		return req, err
	}
	req = gamePitchesRequest{GamePk: gamePk, PitcherID: pitcherID}
	return req, validateRequest(req)
}
