// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - All loading functions accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects json or console log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8000".
	Addr string `koanf:"addr"`

	// StatsAPIBaseURL is the MLB Stats API root (people search, schedule, live feed).
	StatsAPIBaseURL string `koanf:"stats_api_base_url"`

	// SavantBaseURL is the Baseball Savant root serving the statcast CSV export.
	SavantBaseURL string `koanf:"savant_base_url"`

	// UserAgent is sent on every upstream request.
	UserAgent string `koanf:"user_agent"`

	// Per-call upstream timeouts.
	SearchTimeout   time.Duration `koanf:"search_timeout"`
	ScheduleTimeout time.Duration `koanf:"schedule_timeout"`
	FeedTimeout     time.Duration `koanf:"feed_timeout"`
	SavantTimeout   time.Duration `koanf:"savant_timeout"`

	// Response cache TTLs per endpoint.
	SearchTTL       time.Duration `koanf:"search_ttl"`
	LiveGamesTTL    time.Duration `koanf:"live_games_ttl"`
	GamePitchersTTL time.Duration `koanf:"game_pitchers_ttl"`
	GamePitchesTTL  time.Duration `koanf:"game_pitches_ttl"`
	StatcastTTL     time.Duration `koanf:"statcast_ttl"`

	// CORSAllowedOrigins lists origins allowed to call the API. "*" allows all.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// RateLimitRequests caps inbound requests per client IP per RateLimitWindow.
	// Zero or negative disables inbound rate limiting.
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`

	// UpstreamRPS and UpstreamBurst bound the outbound request rate per upstream.
	UpstreamRPS   float64 `koanf:"upstream_rps"`
	UpstreamBurst int     `koanf:"upstream_burst"`

	// Circuit breaker settings shared by both upstreams.
	BreakerMinRequests  uint32        `koanf:"breaker_min_requests"`
	BreakerFailureRatio float64       `koanf:"breaker_failure_ratio"`
	BreakerCooldown     time.Duration `koanf:"breaker_cooldown"`
	BreakerInterval     time.Duration `koanf:"breaker_interval"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "json",
		Addr:               ":8000",
		StatsAPIBaseURL:    "https://statsapi.mlb.com",
		SavantBaseURL:      "https://baseballsavant.mlb.com",
		UserAgent:          "pitcher-tracker-api/1.0",
		SearchTimeout:      10 * time.Second,
		ScheduleTimeout:    10 * time.Second,
		FeedTimeout:        15 * time.Second,
		SavantTimeout:      30 * time.Second,
		SearchTTL:          24 * time.Hour,
		LiveGamesTTL:       30 * time.Second,
		GamePitchersTTL:    30 * time.Second,
		GamePitchesTTL:     15 * time.Second,
		StatcastTTL:        time.Hour,
		CORSAllowedOrigins: []string{"*"},
		RateLimitRequests:  120,
		RateLimitWindow:    time.Minute,
		UpstreamRPS:        10,
		UpstreamBurst:      20,
		BreakerMinRequests: 10,
		// Opens when at least 60% of the requests in the window failed.
		BreakerFailureRatio: 0.6,
		BreakerCooldown:     30 * time.Second,
		BreakerInterval:     time.Minute,
	}
}

// Validate checks the invariants the rest of the process relies on.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return invalid("addr must not be empty")
	}
	for name, raw := range map[string]string{
		"stats_api_base_url": c.StatsAPIBaseURL,
		"savant_base_url":    c.SavantBaseURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return invalid(fmt.Sprintf("%s must be an absolute URL, got %q", name, raw))
		}
	}
	for name, d := range map[string]time.Duration{
		"search_timeout":    c.SearchTimeout,
		"schedule_timeout":  c.ScheduleTimeout,
		"feed_timeout":      c.FeedTimeout,
		"savant_timeout":    c.SavantTimeout,
		"search_ttl":        c.SearchTTL,
		"live_games_ttl":    c.LiveGamesTTL,
		"game_pitchers_ttl": c.GamePitchersTTL,
		"game_pitches_ttl":  c.GamePitchesTTL,
		"statcast_ttl":      c.StatcastTTL,
	} {
		if d <= 0 {
			return invalid(fmt.Sprintf("%s must be positive, got %s", name, d))
		}
	}
	if c.UpstreamRPS <= 0 || c.UpstreamBurst <= 0 {
		return invalid("upstream_rps and upstream_burst must be positive")
	}
	if c.BreakerFailureRatio <= 0 || c.BreakerFailureRatio > 1 {
		return invalid(fmt.Sprintf("breaker_failure_ratio must be in (0, 1], got %v", c.BreakerFailureRatio))
	}
	if c.RateLimitRequests > 0 && c.RateLimitWindow <= 0 {
		return invalid("rate_limit_window must be positive when rate limiting is enabled")
	}
	return nil
}
