package cache

import "time"

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMetricsUpdateInterval sets the interval for background metrics updates.
// Zero disables the updater.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *Store) {
		if interval >= 0 {
			s.metricsUpdateInterval = interval
		}
	}
}
