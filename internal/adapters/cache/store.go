// Package cache is the process-lifetime response cache.
//
// Entries carry the time they were stored; freshness is decided by the
// reader through maxAge. Stale entries are never evicted, only overwritten by
// the next successful load, so the map grows with the number of distinct
// keys requested.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/okian/pitchtrack/pkg/metrics"
)

type entry struct {
	value    any
	storedAt time.Time
}

// Store is a TTL-on-read key/value store with coalesced loads.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
	group   singleflight.Group

	metricsUpdateInterval time.Duration
	wg                    sync.WaitGroup
	stopChan              chan struct{}
	closeOnce             sync.Once
}

// New constructs a Store. The metrics updater runs until ctx is done or
// Close is called.
func New(ctx context.Context, opts ...Option) *Store {
	s := &Store{
		entries:               make(map[string]entry),
		now:                   time.Now,
		metricsUpdateInterval: 5 * time.Second,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metricsUpdateInterval > 0 {
		s.startMetricsUpdater(ctx)
	}
	return s
}

// Get returns the value stored under key if it is younger than maxAge.
func (s *Store) Get(key string, maxAge time.Duration) (any, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok || s.now().Sub(e.storedAt) >= maxAge {
		return nil, false
	}
	return e.value, true
}

// Set stores value under key, replacing any previous entry.
func (s *Store) Set(key string, value any) {
	s.mu.Lock()
	s.entries[key] = entry{value: value, storedAt: s.now()}
	s.mu.Unlock()
}

// Len returns the number of entries, fresh or stale.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close stops the metrics updater.
func (s *Store) Close() error {
	s.closeOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// Fetch produces a value for Load. When store is false the value is handed
// to every waiter but not cached.
type Fetch[T any] func(ctx context.Context) (value T, store bool, err error)

// Load returns the fresh value under key or runs fetch to produce it.
// Concurrent misses on the same key share one fetch. The fetch runs on a
// context detached from ctx's cancellation, so a caller giving up does not
// fail the other waiters; the caller itself returns ctx.Err(). Errors are
// never cached.
func Load[T any](ctx context.Context, s *Store, key string, maxAge time.Duration, fetch Fetch[T]) (T, error) {
	endpoint := endpointOf(key)
	if v, ok := s.Get(key, maxAge); ok {
		if typed, ok := v.(T); ok {
			metrics.RecordCacheHit(endpoint)
			return typed, nil
		}
	}
	metrics.RecordCacheMiss(endpoint)

	detached := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		// A load that finished while this one was queued may have filled the entry.
		if v, ok := s.Get(key, maxAge); ok {
			if typed, ok := v.(T); ok {
				return typed, nil
			}
		}
		v, store, err := fetch(detached)
		if err != nil {
			metrics.RecordCacheLoad(endpoint, "error")
			return v, err
		}
		if store {
			s.Set(key, v)
			metrics.RecordCacheLoad(endpoint, "stored")
		} else {
			metrics.RecordCacheLoad(endpoint, "skipped")
		}
		return v, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Shared {
			metrics.RecordCacheCoalesced(endpoint)
		}
		if res.Err != nil {
			return zero, res.Err
		}
		typed, _ := res.Val.(T)
		return typed, nil
	}
}

// endpointOf labels metrics by the key prefix, e.g. "pitches" for
// "pitches:123:456".
func endpointOf(key string) string {
	if i := strings.IndexByte(key, ':'); i >= 0 {
		return key[:i]
	}
	return key
}

func (s *Store) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateCacheEntries(s.Len())
			}
		}
	}()
}
