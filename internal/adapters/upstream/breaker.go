package upstream

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/okian/pitchtrack/pkg/logger"
	"github.com/okian/pitchtrack/pkg/metrics"
)

// BreakerSettings configures the circuit breaker in front of one upstream.
type BreakerSettings struct {
	// MinRequests is the number of requests in the current window before the
	// failure ratio is considered.
	MinRequests uint32
	// FailureRatio opens the circuit once reached.
	FailureRatio float64
	// Cooldown is how long the circuit stays open before probing.
	Cooldown time.Duration
	// Interval resets counts while closed.
	Interval time.Duration
	// HalfOpenRequests is the number of probes allowed while half-open.
	HalfOpenRequests uint32
}

// DefaultBreakerSettings opens at 60% failures over at least 10 requests.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MinRequests:      10,
		FailureRatio:     0.6,
		Cooldown:         30 * time.Second,
		Interval:         time.Minute,
		HalfOpenRequests: 3,
	}
}

func newBreaker(source string, s BreakerSettings, log logger.Logger) *gobreaker.CircuitBreaker[*Response] {
	metrics.UpdateCircuitBreakerState(source, stateToFloat(gobreaker.StateClosed))

	return gobreaker.NewCircuitBreaker[*Response](gobreaker.Settings{
		Name:        source,
		MaxRequests: s.HalfOpenRequests,
		Interval:    s.Interval,
		Timeout:     s.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio < s.FailureRatio {
				return false
			}
			log.Warn(context.Background(), "opening circuit",
				logger.String("source", source),
				logger.Int("failures", int(counts.TotalFailures)),
				logger.Float64("failure_ratio", ratio))
			return true
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info(context.Background(), "circuit state transition",
				logger.String("source", name),
				logger.String("from", stateToString(from)),
				logger.String("to", stateToString(to)))
			metrics.UpdateCircuitBreakerState(name, stateToFloat(to))
			metrics.RecordCircuitBreakerTransition(name, stateToString(from), stateToString(to))
		},
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			var se *StatusError
			return errors.As(err, &se) && se.clientSide()
		},
	})
}

func rejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
