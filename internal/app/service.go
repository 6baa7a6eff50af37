// Package service provides the relay operations behind the HTTP API: each
// one checks the response cache, fetches from the Stats API or Savant on a
// miss, reshapes the payload and caches the result.
package service

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/okian/pitchtrack/internal/adapters/cache"
	"github.com/okian/pitchtrack/internal/adapters/upstream/savant"
	"github.com/okian/pitchtrack/internal/adapters/upstream/statsapi"
	"github.com/okian/pitchtrack/internal/domain/normalize"
	"github.com/okian/pitchtrack/internal/domain/pitch"
	"github.com/okian/pitchtrack/pkg/logger"
	"github.com/okian/pitchtrack/pkg/metrics"
)

const (
	// ServiceName is reported by the health check.
	ServiceName = "pitcher-tracker-api"

	dateLayout = "2006-01-02"
	// pitcherPosition is the people-search primary position of pitchers.
	pitcherPosition = "P"
	unknownTeam     = "?"
)

// StatsAPI is the subset of the Stats API the service reads.
type StatsAPI interface {
	SearchPeople(ctx context.Context, names string) (*statsapi.PeopleSearch, error)
	Schedule(ctx context.Context, date string) (*statsapi.Schedule, error)
	LiveFeed(ctx context.Context, gamePk int) (*statsapi.LiveFeed, error)
}

// StatcastSource fetches historical pitch exports.
type StatcastSource interface {
	Statcast(ctx context.Context, pitcherID int, start, end string) (*savant.Export, error)
}

// TTLs are the cache lifetimes per operation.
type TTLs struct {
	Search       time.Duration
	LiveGames    time.Duration
	GamePitchers time.Duration
	GamePitches  time.Duration
	Statcast     time.Duration
}

// DefaultTTLs returns the standard cache lifetimes.
func DefaultTTLs() TTLs {
	return TTLs{
		Search:       24 * time.Hour,
		LiveGames:    30 * time.Second,
		GamePitchers: 30 * time.Second,
		GamePitches:  15 * time.Second,
		Statcast:     time.Hour,
	}
}

// Health is the root health payload.
type Health struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// Service implements the API dependencies for the relay.
type Service struct {
	mu sync.RWMutex

	stats    StatsAPI
	statcast StatcastSource
	store    *cache.Store

	ttls                  TTLs
	now                   func() time.Time
	metricsUpdateInterval time.Duration

	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithTTLs overrides the cache lifetimes. Non-positive fields keep the default.
func WithTTLs(t TTLs) Option {
	return func(s *Service) {
		set := func(dst *time.Duration, v time.Duration) {
			if v > 0 {
				*dst = v
			}
		}
		set(&s.ttls.Search, t.Search)
		set(&s.ttls.LiveGames, t.LiveGames)
		set(&s.ttls.GamePitchers, t.GamePitchers)
		set(&s.ttls.GamePitches, t.GamePitches)
		set(&s.ttls.Statcast, t.Statcast)
	}
}

// WithClock replaces time.Now for both the cache and "today".
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCacheMetricsInterval sets how often the cache size gauge is refreshed.
// Zero disables the updater.
func WithCacheMetricsInterval(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.metricsUpdateInterval = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service over the two upstream adapters.
func New(stats StatsAPI, statcast StatcastSource, opts ...Option) *Service {
	s := &Service{
		stats:                 stats,
		statcast:              statcast,
		ttls:                  DefaultTTLs(),
		now:                   time.Now,
		metricsUpdateInterval: 5 * time.Second,
		logger:                logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start creates the response cache.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.store = cache.New(ctx,
		cache.WithClock(s.now),
		cache.WithMetricsUpdateInterval(s.metricsUpdateInterval),
	)
	s.started = true
	s.logger.Info(ctx, "relay service started",
		logger.Duration("search_ttl_ms", s.ttls.Search),
		logger.Duration("live_games_ttl_ms", s.ttls.LiveGames),
		logger.Duration("game_pitchers_ttl_ms", s.ttls.GamePitchers),
		logger.Duration("game_pitches_ttl_ms", s.ttls.GamePitches),
		logger.Duration("statcast_ttl_ms", s.ttls.Statcast),
	)
	return nil
}

// Stop releases the cache. Cached responses are discarded.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	_ = s.store.Close()
	s.store = nil
	s.started = false
	s.logger.Info(context.Background(), "relay service stopped")
}

func (s *Service) cacheStore() (*cache.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

// Health reports liveness.
func (s *Service) Health() Health {
	return Health{Status: "ok", Service: ServiceName}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":        s.started,
		"search_ttl":     s.ttls.Search.String(),
		"live_games_ttl": s.ttls.LiveGames.String(),
		"pitchers_ttl":   s.ttls.GamePitchers.String(),
		"pitches_ttl":    s.ttls.GamePitches.String(),
		"statcast_ttl":   s.ttls.Statcast.String(),
	}
	if s.started {
		n := s.store.Len()
		stats["cacheEntries"] = n
		metrics.UpdateCacheEntries(n)
	}
	return stats
}

// SearchPitchers returns the pitchers whose names match q.
func (s *Service) SearchPitchers(ctx context.Context, q string) ([]pitch.PitcherSearchResult, error) {
	store, err := s.cacheStore()
	if err != nil {
		return nil, err
	}
	key := "search:" + strings.ToLower(q)
	return cache.Load(ctx, store, key, s.ttls.Search, func(ctx context.Context) ([]pitch.PitcherSearchResult, bool, error) {
		res, err := s.stats.SearchPeople(ctx, q)
		if err != nil {
			return nil, false, err
		}
		out := []pitch.PitcherSearchResult{}
		for _, p := range res.People {
			if p.PrimaryPosition.Abbreviation != pitcherPosition {
				continue
			}
			out = append(out, pitch.PitcherSearchResult{
				ID:     p.ID,
				Name:   p.FullName,
				Team:   p.CurrentTeam.Abbreviation,
				Throws: p.PitchHand.Code,
			})
		}
		return out, true, nil
	})
}

// LiveGames returns today's schedule with scores and inning state.
func (s *Service) LiveGames(ctx context.Context) ([]pitch.GameStatus, error) {
	store, err := s.cacheStore()
	if err != nil {
		return nil, err
	}
	return cache.Load(ctx, store, "live_games", s.ttls.LiveGames, func(ctx context.Context) ([]pitch.GameStatus, bool, error) {
		today := s.now().Format(dateLayout)
		sched, err := s.stats.Schedule(ctx, today)
		if err != nil {
			return nil, false, err
		}
		out := []pitch.GameStatus{}
		for _, d := range sched.Dates {
			for _, g := range d.Games {
				out = append(out, gameStatus(g))
			}
		}
		return out, true, nil
	})
}

func gameStatus(g statsapi.Game) pitch.GameStatus {
	inning := g.Status.DetailedState
	if half := g.Linescore.InningHalf; half != "" {
		inning = half
		if g.Linescore.CurrentInning != nil {
			inning += " " + strconv.Itoa(*g.Linescore.CurrentInning)
		}
	}
	return pitch.GameStatus{
		GamePk:         g.GamePk,
		Status:         g.Status.AbstractGameState,
		DetailedStatus: g.Status.DetailedState,
		AwayTeam:       teamLabel(g.Teams.Away.Team),
		HomeTeam:       teamLabel(g.Teams.Home.Team),
		AwayScore:      g.Teams.Away.Score,
		HomeScore:      g.Teams.Home.Score,
		Inning:         inning,
		Venue:          g.Venue.Name,
	}
}

func teamLabel(t statsapi.Team) string {
	switch {
	case t.Abbreviation != "":
		return t.Abbreviation
	case t.Name != "":
		return t.Name
	default:
		return unknownTeam
	}
}

// GamePitchers lists every pitcher who has appeared in the game, in order of
// first appearance.
func (s *Service) GamePitchers(ctx context.Context, gamePk int) ([]pitch.GamePitcher, error) {
	store, err := s.cacheStore()
	if err != nil {
		return nil, err
	}
	key := "game_pitchers:" + strconv.Itoa(gamePk)
	return cache.Load(ctx, store, key, s.ttls.GamePitchers, func(ctx context.Context) ([]pitch.GamePitcher, bool, error) {
		feed, err := s.liveFeed(ctx, store, gamePk)
		if err != nil {
			return nil, false, err
		}
		return gamePitchers(feed.LiveData.Plays.AllPlays), true, nil
	})
}

// gamePitchers walks the plays once. A pitcher's side comes from the half
// inning of his first play: the home team pitches the top half. The count
// includes every play event, pickoffs and other non-pitch events too.
func gamePitchers(plays []statsapi.Play) []pitch.GamePitcher {
	out := []pitch.GamePitcher{}
	index := make(map[int]int)
	for _, p := range plays {
		ref := p.Matchup.Pitcher
		if ref.ID == 0 {
			continue
		}
		i, seen := index[ref.ID]
		if !seen {
			side := pitch.SideAway
			if p.About.HalfInning == "top" {
				side = pitch.SideHome
			}
			i = len(out)
			index[ref.ID] = i
			out = append(out, pitch.GamePitcher{ID: ref.ID, Name: ref.FullName, Side: side})
		}
		out[i].PitchCount += len(p.PlayEvents)
	}
	return out
}

// GamePitches returns every pitch pitcherID threw in the game, numbered from 1.
func (s *Service) GamePitches(ctx context.Context, gamePk, pitcherID int) ([]pitch.PitchRecord, error) {
	store, err := s.cacheStore()
	if err != nil {
		return nil, err
	}
	key := "pitches:" + strconv.Itoa(gamePk) + ":" + strconv.Itoa(pitcherID)
	return cache.Load(ctx, store, key, s.ttls.GamePitches, func(ctx context.Context) ([]pitch.PitchRecord, bool, error) {
		feed, err := s.liveFeed(ctx, store, gamePk)
		if err != nil {
			return nil, false, err
		}
		out := []pitch.PitchRecord{}
		for _, p := range feed.LiveData.Plays.AllPlays {
			if p.Matchup.Pitcher.ID != pitcherID {
				continue
			}
			for _, ev := range p.PlayEvents {
				if !ev.Pitch() {
					continue
				}
				out = append(out, normalize.FromLiveEvent(len(out)+1, p, ev))
			}
		}
		metrics.RecordPitchesNormalized(string(pitch.SourceLiveFeed), len(out))
		return out, true, nil
	})
}

// liveFeed shares one in-flight feed download between the pitchers and
// pitches operations of a game. The document itself is not cached.
func (s *Service) liveFeed(ctx context.Context, store *cache.Store, gamePk int) (*statsapi.LiveFeed, error) {
	return cache.Load(ctx, store, "feed:"+strconv.Itoa(gamePk), 0, func(ctx context.Context) (*statsapi.LiveFeed, bool, error) {
		feed, err := s.stats.LiveFeed(ctx, gamePk)
		return feed, false, err
	})
}

// Statcast returns the pitcher's statcast pitches between start and end.
// An unusable export yields an empty list that is not cached.
func (s *Service) Statcast(ctx context.Context, pitcherID int, start, end string) ([]pitch.PitchRecord, error) {
	store, err := s.cacheStore()
	if err != nil {
		return nil, err
	}
	key := "statcast:" + strconv.Itoa(pitcherID) + ":" + start + ":" + end
	return cache.Load(ctx, store, key, s.ttls.Statcast, func(ctx context.Context) ([]pitch.PitchRecord, bool, error) {
		exp, err := s.statcast.Statcast(ctx, pitcherID, start, end)
		if err != nil {
			return nil, false, err
		}
		if exp.Discarded != "" {
			s.logger.Warn(ctx, "statcast export unusable, returning empty list",
				logger.Int("pitcher_id", pitcherID),
				logger.String("reason", exp.Discarded))
			return []pitch.PitchRecord{}, false, nil
		}
		out := make([]pitch.PitchRecord, 0, len(exp.Rows))
		for _, row := range exp.Rows {
			out = append(out, normalize.FromStatcastRow(len(out)+1, row))
		}
		metrics.RecordPitchesNormalized(string(pitch.SourceSavant), len(out))
		return out, true, nil
	})
}
