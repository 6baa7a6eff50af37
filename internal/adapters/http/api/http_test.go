package api_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/pitchtrack/internal/adapters/http/api"
	"github.com/okian/pitchtrack/internal/adapters/upstream"
	service "github.com/okian/pitchtrack/internal/app"
	"github.com/okian/pitchtrack/internal/domain/pitch"
)

type call struct {
	op        string
	gamePk    int
	pitcherID int
	q         string
	start     string
	end       string
}

type fakeDeps struct {
	err   error
	calls []call
}

func (f *fakeDeps) SearchPitchers(_ context.Context, q string) ([]pitch.PitcherSearchResult, error) {
	f.calls = append(f.calls, call{op: "search", q: q})
	if f.err != nil {
		return nil, f.err
	}
	return []pitch.PitcherSearchResult{{ID: 657277, Name: "Logan Webb", Team: "SF", Throws: "R"}}, nil
}

func (f *fakeDeps) LiveGames(_ context.Context) ([]pitch.GameStatus, error) {
	f.calls = append(f.calls, call{op: "games"})
	if f.err != nil {
		return nil, f.err
	}
	return []pitch.GameStatus{{GamePk: 745001, Status: "Live", Inning: "Top 5", AwayTeam: "SF", HomeTeam: "LAD"}}, nil
}

func (f *fakeDeps) GamePitchers(_ context.Context, gamePk int) ([]pitch.GamePitcher, error) {
	f.calls = append(f.calls, call{op: "pitchers", gamePk: gamePk})
	if f.err != nil {
		return nil, f.err
	}
	return []pitch.GamePitcher{{ID: 657277, Name: "Logan Webb", Side: pitch.SideAway, PitchCount: 88}}, nil
}

func (f *fakeDeps) GamePitches(_ context.Context, gamePk, pitcherID int) ([]pitch.PitchRecord, error) {
	f.calls = append(f.calls, call{op: "pitches", gamePk: gamePk, pitcherID: pitcherID})
	if f.err != nil {
		return nil, f.err
	}
	return []pitch.PitchRecord{{
		PitchNumber:    1,
		PitchType:      "SI",
		MovementSource: pitch.SourceLiveFeed,
		LiveFields:     &pitch.LiveFields{Count: "0-0", BatterHand: "R"},
	}}, nil
}

func (f *fakeDeps) Statcast(_ context.Context, pitcherID int, start, end string) ([]pitch.PitchRecord, error) {
	f.calls = append(f.calls, call{op: "statcast", pitcherID: pitcherID, start: start, end: end})
	if f.err != nil {
		return nil, f.err
	}
	return []pitch.PitchRecord{{
		PitchNumber:    1,
		PitchType:      "FF",
		MovementSource: pitch.SourceSavant,
		SavantFields:   &pitch.SavantFields{GameDate: "2024-06-01"},
	}}, nil
}

func (f *fakeDeps) Health() service.Health {
	return service.Health{Status: "ok", Service: service.ServiceName}
}

func (f *fakeDeps) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true, "cacheEntries": 3}
}

func newHandler(deps *fakeDeps, opts ...api.Option) http.Handler {
	return api.NewServer(deps, opts...).Handler(context.Background())
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder, v any) error {
	return json.Unmarshal(w.Body.Bytes(), v)
}

func TestHealth(t *testing.T) {
	Convey("Given the API router", t, func() {
		deps := &fakeDeps{}
		h := newHandler(deps)

		Convey("When GET /", func() {
			w := get(h, "/")

			Convey("Then it reports ok without calling upstream", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body map[string]string
				So(decode(w, &body), ShouldBeNil)
				So(body, ShouldResemble, map[string]string{"status": "ok", "service": "pitcher-tracker-api"})
				So(deps.calls, ShouldBeEmpty)
			})
		})

		Convey("When GET /stats", func() {
			w := get(h, "/stats")

			Convey("Then the service stats are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body map[string]any
				So(decode(w, &body), ShouldBeNil)
				So(body["started"], ShouldEqual, true)
				So(body["cacheEntries"], ShouldEqual, float64(3))
			})
		})

		Convey("When GET /metrics after a request", func() {
			_ = get(h, "/")
			w := get(h, "/metrics")

			Convey("Then the relay metrics are exposed", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "pitchtrack_relay_http_requests_total")
			})
		})
	})
}

func TestSearchPitcher(t *testing.T) {
	Convey("Given the API router", t, func() {
		deps := &fakeDeps{}
		h := newHandler(deps)

		Convey("When searching with a query", func() {
			w := get(h, "/api/search/pitcher?q=%20webb%20")

			Convey("Then results are returned and the query is trimmed", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual, "application/json; charset=utf-8")
				var body []pitch.PitcherSearchResult
				So(decode(w, &body), ShouldBeNil)
				So(body, ShouldHaveLength, 1)
				So(body[0].Name, ShouldEqual, "Logan Webb")
				So(deps.calls, ShouldResemble, []call{{op: "search", q: "webb"}})
			})
		})

		Convey("When the query is missing", func() {
			w := get(h, "/api/search/pitcher")

			Convey("Then it is a bad request and upstream is not called", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				var body map[string]string
				So(decode(w, &body), ShouldBeNil)
				So(body["code"], ShouldEqual, "bad_request")
				So(body["message"], ShouldContainSubstring, "query")
				So(deps.calls, ShouldBeEmpty)
			})
		})
	})
}

func TestGames(t *testing.T) {
	Convey("Given the API router", t, func() {
		deps := &fakeDeps{}
		h := newHandler(deps)

		Convey("When listing live games", func() {
			w := get(h, "/api/games/live")

			Convey("Then the schedule is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body []pitch.GameStatus
				So(decode(w, &body), ShouldBeNil)
				So(body[0].Inning, ShouldEqual, "Top 5")
			})
		})

		Convey("When listing a game's pitchers", func() {
			w := get(h, "/api/game/745001/pitchers")

			Convey("Then the game id is passed through", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.calls, ShouldResemble, []call{{op: "pitchers", gamePk: 745001}})
				var body []pitch.GamePitcher
				So(decode(w, &body), ShouldBeNil)
				So(body[0].Side, ShouldEqual, pitch.SideAway)
				So(body[0].PitchCount, ShouldEqual, 88)
			})
		})

		Convey("When the game id is not a number", func() {
			w := get(h, "/api/game/abc/pitchers")

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(deps.calls, ShouldBeEmpty)
			})
		})

		Convey("When the game id is zero", func() {
			w := get(h, "/api/game/0/pitchers")

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When listing a pitcher's pitches", func() {
			w := get(h, "/api/game/745001/pitches?pitcher_id=657277")

			Convey("Then live-feed records are returned with live-only fields", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.calls, ShouldResemble, []call{{op: "pitches", gamePk: 745001, pitcherID: 657277}})
				var body []map[string]any
				So(decode(w, &body), ShouldBeNil)
				So(body[0]["movement_source"], ShouldEqual, "live_feed")
				So(body[0]["count"], ShouldEqual, "0-0")
				So(body[0]["pfx_x"], ShouldBeNil)
				_, hasSavant := body[0]["launch_speed"]
				So(hasSavant, ShouldBeFalse)
			})
		})

		Convey("When pitcher_id is missing or malformed", func() {
			for _, target := range []string{
				"/api/game/745001/pitches",
				"/api/game/745001/pitches?pitcher_id=webb",
				"/api/game/745001/pitches?pitcher_id=-4",
			} {
				w := get(h, target)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			}
			So(deps.calls, ShouldBeEmpty)
		})
	})
}

func TestStatcast(t *testing.T) {
	Convey("Given the API router", t, func() {
		deps := &fakeDeps{}
		h := newHandler(deps)

		Convey("When requesting a date range", func() {
			w := get(h, "/api/pitcher/657277/statcast?start_date=2024-04-01&end_date=2024-09-30")

			Convey("Then savant records are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.calls, ShouldResemble, []call{{op: "statcast", pitcherID: 657277, start: "2024-04-01", end: "2024-09-30"}})
				var body []map[string]any
				So(decode(w, &body), ShouldBeNil)
				So(body[0]["movement_source"], ShouldEqual, "savant")
				So(body[0]["game_date"], ShouldEqual, "2024-06-01")
				_, hasLive := body[0]["count"]
				So(hasLive, ShouldBeFalse)
			})
		})

		Convey("When dates are missing or malformed", func() {
			for _, target := range []string{
				"/api/pitcher/657277/statcast",
				"/api/pitcher/657277/statcast?start_date=2024-04-01",
				"/api/pitcher/657277/statcast?start_date=04/01/2024&end_date=2024-09-30",
				"/api/pitcher/webb/statcast?start_date=2024-04-01&end_date=2024-09-30",
			} {
				w := get(h, target)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			}
			So(deps.calls, ShouldBeEmpty)
		})
	})
}

func TestUpstreamFailure(t *testing.T) {
	Convey("Given upstream is unavailable", t, func() {
		deps := &fakeDeps{err: fmt.Errorf("%w: statsapi: connection refused", upstream.ErrUnavailable)}
		h := newHandler(deps)

		Convey("Then every data endpoint answers 502 with an empty list", func() {
			for _, target := range []string{
				"/api/search/pitcher?q=webb",
				"/api/games/live",
				"/api/game/745001/pitchers",
				"/api/game/745001/pitches?pitcher_id=657277",
				"/api/pitcher/657277/statcast?start_date=2024-04-01&end_date=2024-09-30",
			} {
				w := get(h, target)
				So(w.Code, ShouldEqual, http.StatusBadGateway)
				So(strings.TrimSpace(w.Body.String()), ShouldEqual, "[]")
			}
		})
	})

	Convey("Given the service has not been started", t, func() {
		h := newHandler(&fakeDeps{err: service.ErrNotStarted})

		Convey("Then requests answer 503", func() {
			w := get(h, "/api/games/live")
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(w.Body.String(), ShouldContainSubstring, "not_ready")
		})
	})
}

func TestMiddleware(t *testing.T) {
	Convey("Given the API router", t, func() {
		h := newHandler(&fakeDeps{}, api.WithCORSOrigins([]string{"*"}))

		Convey("When a CORS preflight arrives", func() {
			req := httptest.NewRequest(http.MethodOptions, "/api/games/live", http.NoBody)
			req.Header.Set("Origin", "http://localhost:5173")
			req.Header.Set("Access-Control-Request-Method", http.MethodGet)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			Convey("Then any origin is allowed", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "*")
			})
		})

		Convey("When a request carries an Origin", func() {
			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			req.Header.Set("Origin", "http://example.com")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			Convey("Then the response allows it", func() {
				So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "*")
			})
		})

		Convey("When a request has no X-Request-ID", func() {
			w := get(h, "/")

			Convey("Then one is generated", func() {
				So(w.Header().Get(api.RequestIDHeader), ShouldHaveLength, 36)
			})
		})

		Convey("When a request has an X-Request-ID", func() {
			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			req.Header.Set(api.RequestIDHeader, "abc-123")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			Convey("Then it is echoed", func() {
				So(w.Header().Get(api.RequestIDHeader), ShouldEqual, "abc-123")
			})
		})

		Convey("When a route does not exist", func() {
			w := get(h, "/api/nope")

			Convey("Then it is 404", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})

	Convey("Given a rate-limited router", t, func() {
		h := newHandler(&fakeDeps{}, api.WithRateLimit(2, time.Minute))

		Convey("When one client exceeds the limit", func() {
			codes := make([]int, 0, 3)
			for range 3 {
				codes = append(codes, get(h, "/").Code)
			}

			Convey("Then the excess request is rejected", func() {
				So(codes, ShouldResemble, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests})
			})
		})
	})
}
