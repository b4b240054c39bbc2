// Package oddsapi implements a result provider backed by The Odds API
// scores endpoint.
package oddsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/alanyoungcy/paribet/internal/domain"
)

// ProviderName identifies this provider in vote records.
const ProviderName = "oddsapi"

// Client is the REST client for The Odds API (https://the-odds-api.com).
type Client struct {
	baseURL    string
	apiKey     string
	sportKey   string
	daysFrom   int
	httpClient *http.Client
}

// New creates a Client.
//
// baseURL is the API root, e.g. "https://api.the-odds-api.com". sportKey
// selects the competition feed, e.g. "soccer_epl".
func New(baseURL, apiKey, sportKey string) *Client {
	return &Client{
		baseURL:  baseURL,
		apiKey:   apiKey,
		sportKey: sportKey,
		daysFrom: 3,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetDaysFrom adjusts how many days of history the scores endpoint returns.
// The API accepts 1 to 3.
func (c *Client) SetDaysFrom(n int) {
	if n >= 1 && n <= 3 {
		c.daysFrom = n
	}
}

func (c *Client) Name() string { return ProviderName }

// apiScore is one entry of the per-team score list.
type apiScore struct {
	Name  string `json:"name"`
	Score string `json:"score"`
}

// apiEvent is one fixture row from the scores endpoint.
type apiEvent struct {
	ID           string     `json:"id"`
	CommenceTime time.Time  `json:"commence_time"`
	Completed    bool       `json:"completed"`
	HomeTeam     string     `json:"home_team"`
	AwayTeam     string     `json:"away_team"`
	Scores       []apiScore `json:"scores"`
}

// FixturesForDay returns the feed's fixtures overlapping the given day. The
// endpoint covers a rolling window, so results are filtered to the target
// calendar day in UTC.
func (c *Client) FixturesForDay(ctx context.Context, day time.Time) ([]domain.FixtureResult, error) {
	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("daysFrom", strconv.Itoa(c.daysFrom))

	path := fmt.Sprintf("/v4/sports/%s/scores/?%s", url.PathEscape(c.sportKey), params.Encode())

	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("oddsapi: get scores: %w", err)
	}

	var events []apiEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("oddsapi: decode scores: %w", err)
	}

	dayUTC := day.UTC()
	fixtures := make([]domain.FixtureResult, 0, len(events))
	for _, ev := range events {
		start := ev.CommenceTime.UTC()
		if start.Year() != dayUTC.Year() || start.YearDay() != dayUTC.YearDay() {
			continue
		}
		fixtures = append(fixtures, ev.toFixture())
	}
	return fixtures, nil
}

func (ev apiEvent) toFixture() domain.FixtureResult {
	f := domain.FixtureResult{
		HomeTeam: ev.HomeTeam,
		AwayTeam: ev.AwayTeam,
		Finished: ev.Completed,
	}
	// Scores are keyed by team name, not position.
	for _, s := range ev.Scores {
		n, err := strconv.Atoi(s.Score)
		if err != nil {
			continue
		}
		switch s.Name {
		case ev.HomeTeam:
			f.HomeScore = n
		case ev.AwayTeam:
			f.AwayScore = n
		}
	}
	if len(ev.Scores) == 0 {
		f.Finished = false
	}
	return f
}

// doGet sends a GET request and returns the response body.
func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body))
	}
	return body, nil
}

func truncate(b []byte) string {
	const max = 256
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
