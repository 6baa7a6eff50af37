// Package statsapi is the MLB Stats API adapter: people search, the daily
// schedule and the live game feed.
package statsapi

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/okian/pitchtrack/internal/adapters/upstream"
)

// Source names this upstream in errors and metrics.
const Source = "statsapi"

// DefaultBaseURL is the public Stats API root.
const DefaultBaseURL = "https://statsapi.mlb.com"

// Client fetches Stats API documents.
type Client struct {
	api             *upstream.Client
	searchTimeout   time.Duration
	scheduleTimeout time.Duration
	feedTimeout     time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithTimeouts sets the per-call timeouts. Non-positive values keep the default.
func WithTimeouts(search, schedule, feed time.Duration) Option {
	return func(c *Client) {
		if search > 0 {
			c.searchTimeout = search
		}
		if schedule > 0 {
			c.scheduleTimeout = schedule
		}
		if feed > 0 {
			c.feedTimeout = feed
		}
	}
}

// New wraps api, which must be rooted at the Stats API base URL.
func New(api *upstream.Client, opts ...Option) *Client {
	c := &Client{
		api:             api,
		searchTimeout:   10 * time.Second,
		scheduleTimeout: 10 * time.Second,
		feedTimeout:     15 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchPeople runs a name search across MLB players, hydrated with the
// current team.
func (c *Client) SearchPeople(ctx context.Context, names string) (*PeopleSearch, error) {
	var out PeopleSearch
	err := c.api.GetJSON(ctx, upstream.Request{
		Path: "/api/v1/people/search",
		Query: url.Values{
			"names":   {names},
			"sportId": {"1"},
			"hydrate": {"currentTeam"},
		},
		Timeout: c.searchTimeout,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Schedule returns the MLB schedule for date (YYYY-MM-DD) with linescores.
func (c *Client) Schedule(ctx context.Context, date string) (*Schedule, error) {
	var out Schedule
	err := c.api.GetJSON(ctx, upstream.Request{
		Path: "/api/v1/schedule",
		Query: url.Values{
			"sportId": {"1"},
			"date":    {date},
			"hydrate": {"linescore,probablePitcher,decisions,team"},
		},
		Timeout: c.scheduleTimeout,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// LiveFeed returns the full live document of a game.
func (c *Client) LiveFeed(ctx context.Context, gamePk int) (*LiveFeed, error) {
	var out LiveFeed
	err := c.api.GetJSON(ctx, upstream.Request{
		Path:    "/api/v1.1/game/" + strconv.Itoa(gamePk) + "/feed/live",
		Timeout: c.feedTimeout,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
