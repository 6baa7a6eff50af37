// Package savant is the Baseball Savant statcast CSV export adapter.
package savant

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/pitchtrack/internal/adapters/upstream"
	"github.com/okian/pitchtrack/pkg/metrics"
)

// Source names this upstream in errors and metrics.
const Source = "savant"

// DefaultBaseURL is the public Baseball Savant root.
const DefaultBaseURL = "https://baseballsavant.mlb.com"

const (
	exportPath = "/statcast_search/csv"
	// marker must appear near the top of a real export; error pages are HTML.
	marker       = "pitch_type"
	markerWindow = 500
)

// Discard reasons for responses treated as empty.
const (
	DiscardStatus = "status"
	DiscardMarker = "marker"
)

// Row is one CSV record keyed by header name.
type Row map[string]string

// Export is the parsed result of a statcast search. Discarded is set, and
// Rows is empty, when the response was not a CSV export.
type Export struct {
	Rows      []Row
	Discarded string
}

// Client fetches statcast exports.
type Client struct {
	api     *upstream.Client
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the export timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// New wraps api, which must be rooted at the Savant base URL.
func New(api *upstream.Client, opts ...Option) *Client {
	c := &Client{api: api, timeout: 30 * time.Second}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Query builds the export query for one pitcher's regular-season pitches
// between start and end (YYYY-MM-DD). Every other filter is left open.
func Query(pitcherID int, start, end string) url.Values {
	q := url.Values{}
	for _, k := range []string{
		"hfPT", "hfAB", "hfPR", "hfZ", "stadium", "hfBBL", "hfNewZones", "hfPull",
		"hfC", "hfSea", "hfSit", "hfOuts", "opponent", "pitcher_throws",
		"batter_stands", "hfSA", "hfInfield", "team", "position", "hfOutfield",
		"hfRO", "home_road", "hfFlag", "hfBBT", "metric_1", "hfInn",
	} {
		q.Set(k, "")
	}
	q.Set("all", "true")
	q.Set("hfGT", "R|")
	q.Set("player_type", "pitcher")
	q.Set("game_date_gt", start)
	q.Set("game_date_lt", end)
	q.Set("pitchers_lookup[]", strconv.Itoa(pitcherID))
	q.Set("min_pitches", "0")
	q.Set("min_results", "0")
	q.Set("min_pas", "0")
	q.Set("group_by", "name")
	q.Set("sort_col", "pitches")
	q.Set("player_event_sort", "api_p_release_speed")
	q.Set("sort_order", "desc")
	q.Set("type", "details")
	return q
}

// Statcast downloads and parses the export. A non-200 status or a body
// without the CSV header marker yields an empty Export and no error;
// transport failures and an open circuit are returned as errors.
func (c *Client) Statcast(ctx context.Context, pitcherID int, start, end string) (*Export, error) {
	resp, err := c.api.Get(ctx, upstream.Request{
		Path:    exportPath,
		Query:   Query(pitcherID, start, end),
		Timeout: c.timeout,
	})
	var se *upstream.StatusError
	switch {
	case errors.As(err, &se):
		return discard(DiscardStatus), nil
	case err != nil:
		return nil, err
	case resp.StatusCode != http.StatusOK:
		return discard(DiscardStatus), nil
	}

	head := resp.Body
	if len(head) > markerWindow {
		head = head[:markerWindow]
	}
	if !bytes.Contains(head, []byte(marker)) {
		return discard(DiscardMarker), nil
	}

	rows, err := Parse(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", upstream.ErrUnavailable, Source, err)
	}
	return &Export{Rows: rows}, nil
}

func discard(reason string) *Export {
	metrics.RecordStatcastEmptyResponse(reason)
	return &Export{Rows: []Row{}, Discarded: reason}
}

// Parse reads a header-first CSV into rows. Short records simply lack the
// trailing keys.
func Parse(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []Row{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	header = append([]string(nil), header...)
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	rows := []Row{}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}
		row := make(Row, len(header))
		for i, v := range rec {
			if i < len(header) {
				row[header[i]] = v
			}
		}
		rows = append(rows, row)
	}
}
