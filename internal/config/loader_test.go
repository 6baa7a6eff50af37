package config_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/okian/pitchtrack/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8000")
				convey.So(cfg.FeedTimeout, convey.ShouldEqual, 15*time.Second)
				convey.So(cfg.StatcastTTL, convey.ShouldEqual, time.Hour)
				convey.So(cfg.CORSAllowedOrigins, convey.ShouldResemble, []string{"*"})
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("PITCHTRACK_ADDR", ":8080")
			_ = os.Setenv("PITCHTRACK_FEED_TIMEOUT", "5s")
			_ = os.Setenv("PITCHTRACK_GAME_PITCHES_TTL", "20s")
			_ = os.Setenv("PITCHTRACK_RATE_LIMIT_REQUESTS", "0")
			_ = os.Setenv("PITCHTRACK_CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.FeedTimeout, convey.ShouldEqual, 5*time.Second)
				convey.So(cfg.GamePitchesTTL, convey.ShouldEqual, 20*time.Second)
				convey.So(cfg.RateLimitRequests, convey.ShouldEqual, 0)
				convey.So(cfg.CORSAllowedOrigins, convey.ShouldResemble, []string{"https://a.example", "https://b.example"})
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
log_level: debug
stats_api_base_url: "http://127.0.0.1:9999"
search_ttl: 2h
upstream_rps: 2.5
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("PITCHTRACK_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file and keep other defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.StatsAPIBaseURL, convey.ShouldEqual, "http://127.0.0.1:9999")
				convey.So(cfg.SearchTTL, convey.ShouldEqual, 2*time.Hour)
				convey.So(cfg.UpstreamRPS, convey.ShouldEqual, 2.5)
				convey.So(cfg.SavantBaseURL, convey.ShouldEqual, "https://baseballsavant.mlb.com")
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile(`addr: ":9090"`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("PITCHTRACK_CONFIG", tmpFile)
			_ = os.Setenv("PITCHTRACK_ADDR", ":7070")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("PITCHTRACK_CONFIG", "/nonexistent/pitchtrack.yaml")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile("addr: [unclosed")
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("PITCHTRACK_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			tmpFile := createTempConfigFile(`addr: ""`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("PITCHTRACK_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with an invalid duration", func() {
			_ = os.Setenv("PITCHTRACK_SAVANT_TIMEOUT", "soon")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestConfigValidate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New()

		convey.Convey("Then it should be valid", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("When a base URL is relative", func() {
			cfg.SavantBaseURL = "/savant"

			convey.Convey("Then validation should fail", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a TTL is zero", func() {
			cfg.LiveGamesTTL = 0

			convey.Convey("Then validation should fail", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the breaker ratio is out of range", func() {
			cfg.BreakerFailureRatio = 1.5

			convey.Convey("Then validation should fail", func() {
				convey.So(cfg.Validate(), convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When rate limiting is enabled without a window", func() {
			cfg.RateLimitRequests = 10
			cfg.RateLimitWindow = 0

			convey.Convey("Then validation should fail", func() {
				convey.So(cfg.Validate(), convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When rate limiting is disabled", func() {
			cfg.RateLimitRequests = 0
			cfg.RateLimitWindow = 0

			convey.Convey("Then the window is not checked", func() {
				convey.So(cfg.Validate(), convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"PITCHTRACK_CONFIG",
		"PITCHTRACK_ADDR",
		"PITCHTRACK_FEED_TIMEOUT",
		"PITCHTRACK_GAME_PITCHES_TTL",
		"PITCHTRACK_RATE_LIMIT_REQUESTS",
		"PITCHTRACK_CORS_ALLOWED_ORIGINS",
		"PITCHTRACK_SAVANT_TIMEOUT",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "pitchtrack-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
