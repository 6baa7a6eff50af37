package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/pitchtrack/internal/adapters/http/api"
	"github.com/okian/pitchtrack/internal/adapters/upstream"
	"github.com/okian/pitchtrack/internal/adapters/upstream/savant"
	"github.com/okian/pitchtrack/internal/adapters/upstream/statsapi"
	app "github.com/okian/pitchtrack/internal/app"
	"github.com/okian/pitchtrack/internal/config"
	"github.com/okian/pitchtrack/pkg/logger"
	"github.com/okian/pitchtrack/pkg/metrics"
)

// HTTP server timeout constants. The write timeout must outlast the slowest
// upstream call (the statcast export).
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 45 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(context.Background())
	if err != nil {
		// logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, handler := build(ctx, cfg, log)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(context.Background(), "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
	}

	log.Info(shutdownCtx, "server stopped")
	_ = logger.Sync()
}

// build wires the upstream clients, the relay service and the HTTP router.
// The service is returned unstarted.
func build(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.Service, http.Handler) {
	breaker := upstream.BreakerSettings{
		MinRequests:      cfg.BreakerMinRequests,
		FailureRatio:     cfg.BreakerFailureRatio,
		Cooldown:         cfg.BreakerCooldown,
		Interval:         cfg.BreakerInterval,
		HalfOpenRequests: upstream.DefaultBreakerSettings().HalfOpenRequests,
	}
	clientOpts := []upstream.Option{
		upstream.WithUserAgent(cfg.UserAgent),
		upstream.WithRateLimit(cfg.UpstreamRPS, cfg.UpstreamBurst),
		upstream.WithBreaker(breaker),
		upstream.WithLogger(log),
	}

	stats := statsapi.New(
		upstream.New(statsapi.Source, cfg.StatsAPIBaseURL, clientOpts...),
		statsapi.WithTimeouts(cfg.SearchTimeout, cfg.ScheduleTimeout, cfg.FeedTimeout),
	)
	statcast := savant.New(
		upstream.New(savant.Source, cfg.SavantBaseURL, clientOpts...),
		savant.WithTimeout(cfg.SavantTimeout),
	)

	svc := app.New(stats, statcast,
		app.WithLogger(log.Named("service")),
		app.WithTTLs(app.TTLs{
			Search:       cfg.SearchTTL,
			LiveGames:    cfg.LiveGamesTTL,
			GamePitchers: cfg.GamePitchersTTL,
			GamePitches:  cfg.GamePitchesTTL,
			Statcast:     cfg.StatcastTTL,
		}),
	)

	server := api.NewServer(svc,
		api.WithCORSOrigins(cfg.CORSAllowedOrigins),
		api.WithRateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow),
		api.WithLogger(log.Named("http")),
	)
	return svc, server.Handler(ctx)
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
