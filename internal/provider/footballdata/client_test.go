package footballdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const matchesPayload = `{
  "matches": [
    {
      "status": "FINISHED",
      "homeTeam": {"name": "Arsenal FC"},
      "awayTeam": {"name": "Chelsea FC"},
      "score": {"fullTime": {"home": 2, "away": 1}}
    },
    {
      "status": "IN_PLAY",
      "homeTeam": {"name": "Liverpool FC"},
      "awayTeam": {"name": "Everton FC"},
      "score": {"fullTime": {"home": null, "away": null}}
    }
  ]
}`

func TestFixturesForDay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v4/matches" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("X-Auth-Token"); got != "test-token" {
			t.Errorf("X-Auth-Token = %q, want %q", got, "test-token")
		}
		q := r.URL.Query()
		if q.Get("dateFrom") != "2026-03-14" || q.Get("dateTo") != "2026-03-14" {
			t.Errorf("date range = %q..%q, want the single requested day", q.Get("dateFrom"), q.Get("dateTo"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(matchesPayload))
	}))
	defer srv.Close()

	c := New(srv.URL, "test-token")
	day := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	fixtures, err := c.FixturesForDay(context.Background(), day)
	if err != nil {
		t.Fatalf("FixturesForDay: %v", err)
	}
	if len(fixtures) != 2 {
		t.Fatalf("got %d fixtures, want 2", len(fixtures))
	}

	finished := fixtures[0]
	if finished.HomeTeam != "Arsenal FC" || finished.AwayTeam != "Chelsea FC" {
		t.Errorf("teams = %q vs %q", finished.HomeTeam, finished.AwayTeam)
	}
	if !finished.Finished || finished.HomeScore != 2 || finished.AwayScore != 1 {
		t.Errorf("result = %+v, want finished 2-1", finished)
	}
	if fixtures[1].Finished {
		t.Errorf("in-play match reported as finished: %+v", fixtures[1])
	}
}

func TestStatusAndScoreMapping(t *testing.T) {
	score := func(home, away int) apiScore {
		return apiScore{FullTime: apiScorePair{Home: &home, Away: &away}}
	}

	cases := []struct {
		name     string
		match    apiMatch
		finished bool
	}{
		{"finished", apiMatch{Status: "FINISHED", Score: score(1, 0)}, true},
		{"scheduled", apiMatch{Status: "SCHEDULED"}, false},
		{"in play with partial score", apiMatch{Status: "IN_PLAY", Score: score(1, 0)}, false},
		// A FINISHED status with missing fullTime scores must not count.
		{"finished without scores", apiMatch{Status: "FINISHED"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := tc.match.toFixture()
			if f.Finished != tc.finished {
				t.Errorf("Finished = %v, want %v", f.Finished, tc.finished)
			}
		})
	}
}

func TestFixturesForDayHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := New(srv.URL, "test-token")
	if _, err := c.FixturesForDay(context.Background(), time.Now().UTC()); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}
