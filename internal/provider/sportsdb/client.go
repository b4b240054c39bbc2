// Package sportsdb implements a result provider backed by TheSportsDB
// events-by-day endpoint.
package sportsdb

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
const ProviderName = "sportsdb"

// Client is the REST client for TheSportsDB (https://www.thesportsdb.com).
type Client struct {
	baseURL    string
	apiKey     string
	sport      string
	httpClient *http.Client
}

// New creates a Client. The free tier uses apiKey "3"; sport is the listing
// filter, e.g. "Soccer".
func New(baseURL, apiKey, sport string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		sport:   sport,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) Name() string { return ProviderName }

type apiEvent struct {
	HomeTeam  string `json:"strHomeTeam"`
	AwayTeam  string `json:"strAwayTeam"`
	HomeScore string `json:"intHomeScore"`
	AwayScore string `json:"intAwayScore"`
	Status    string `json:"strStatus"`
}

type eventsResponse struct {
	Events []apiEvent `json:"events"`
}

// FixturesForDay returns the listing for the given calendar day (UTC).
func (c *Client) FixturesForDay(ctx context.Context, day time.Time) ([]domain.FixtureResult, error) {
	params := url.Values{}
	params.Set("d", day.UTC().Format("2006-01-02"))
	if c.sport != "" {
		params.Set("s", c.sport)
	}

	path := fmt.Sprintf("/api/v1/json/%s/eventsday.php?%s", url.PathEscape(c.apiKey), params.Encode())

	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("sportsdb: get events: %w", err)
	}

	var resp eventsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("sportsdb: decode events: %w", err)
	}

	fixtures := make([]domain.FixtureResult, 0, len(resp.Events))
	for _, ev := range resp.Events {
		fixtures = append(fixtures, ev.toFixture())
	}
	return fixtures, nil
}

// finishedStatuses are the status strings the feed uses for completed
// matches.
var finishedStatuses = map[string]bool{
	"Match Finished": true,
	"FT":             true,
	"AET":            true,
	"PEN":            true,
}

func (ev apiEvent) toFixture() domain.FixtureResult {
	f := domain.FixtureResult{
		HomeTeam: ev.HomeTeam,
		AwayTeam: ev.AwayTeam,
		Finished: finishedStatuses[ev.Status],
	}
	home, herr := strconv.Atoi(ev.HomeScore)
	away, aerr := strconv.Atoi(ev.AwayScore)
	if herr != nil || aerr != nil {
		// Scores arrive as empty strings until the match ends.
		f.Finished = false
		return f
	}
	f.HomeScore = home
	f.AwayScore = away
	return f
}

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
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return body, nil
}
