// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/pitchtrack/internal/adapters/http/swagger"
	service "github.com/okian/pitchtrack/internal/app"
	"github.com/okian/pitchtrack/internal/domain/pitch"
	"github.com/okian/pitchtrack/pkg/logger"
	"github.com/okian/pitchtrack/pkg/metrics"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	SearchPitchers(ctx context.Context, q string) ([]pitch.PitcherSearchResult, error)
	LiveGames(ctx context.Context) ([]pitch.GameStatus, error)
	GamePitchers(ctx context.Context, gamePk int) ([]pitch.GamePitcher, error)
	GamePitches(ctx context.Context, gamePk, pitcherID int) ([]pitch.PitchRecord, error)
	Statcast(ctx context.Context, pitcherID int, start, end string) ([]pitch.PitchRecord, error)
	Health() service.Health
	StatsProvider
}

// Server wires HTTP routes for the relay API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	searchHandler   *SearchHandler
	gamesHandler    *GamesHandler
	statcastHandler *StatcastHandler

	corsOrigins       []string
	rateLimitRequests int
	rateLimitWindow   time.Duration
	log               logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithCORSOrigins sets the allowed origins. "*" allows any origin.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.corsOrigins = origins
		}
	}
}

// WithRateLimit caps requests per client IP per window. requests <= 0
// disables the limit.
func WithRateLimit(requests int, window time.Duration) Option {
	return func(s *Server) {
		s.rateLimitRequests = requests
		s.rateLimitWindow = window
	}
}

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		corsOrigins: []string{"*"},
		log:         logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler(deps)
	s.statsHandler = NewStatsHandler(deps)
	s.searchHandler = NewSearchHandler(deps, s.log)
	s.gamesHandler = NewGamesHandler(deps, s.log)
	s.statcastHandler = NewStatcastHandler(deps, s.log)
	return s
}

// Handler builds the chi router with the global middleware stack and every
// route: the relay API, the root health check, Prometheus metrics and the
// OpenAPI document.
func (s *Server) Handler(ctx context.Context) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogger(s.log))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	}))
	if s.rateLimitRequests > 0 {
		r.Use(httprate.LimitByIP(s.rateLimitRequests, s.rateLimitWindow))
	}

	r.Get("/", MetricsMiddleware(s.healthHandler.HandleHealth, "health"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/search/pitcher", MetricsMiddleware(s.searchHandler.HandleSearch, "search_pitcher"))
		r.Get("/games/live", MetricsMiddleware(s.gamesHandler.HandleLiveGames, "games_live"))
		r.Get("/game/{game_pk}/pitchers", MetricsMiddleware(s.gamesHandler.HandleGamePitchers, "game_pitchers"))
		r.Get("/game/{game_pk}/pitches", MetricsMiddleware(s.gamesHandler.HandleGamePitches, "game_pitches"))
		r.Get("/pitcher/{pitcher_id}/statcast", MetricsMiddleware(s.statcastHandler.HandleStatcast, "statcast"))
	})

	swagger.Register(ctx, r)

	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeUpstreamFailure answers an operation that could not reach upstream:
// 502 with an empty list, which the front-end renders as "no data".
func writeUpstreamFailure(ctx context.Context, w http.ResponseWriter, log logger.Logger, op string, err error) {
	if errors.Is(err, service.ErrNotStarted) {
		writeError(w, http.StatusServiceUnavailable, "not_ready", err)
		return
	}
	log.Warn(ctx, "upstream request failed", logger.String("op", op), logger.Error(err))
	writeJSON(w, http.StatusBadGateway, []struct{}{})
}
