// Package footballdata implements a result provider backed by the
// football-data.org v4 matches endpoint.
package footballdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/alanyoungcy/paribet/internal/domain"
)

// ProviderName identifies this provider in vote records.
const ProviderName = "footballdata"

// Client is the REST client for football-data.org. Requests carry the API
// token in the X-Auth-Token header.
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
}

// New creates a Client. baseURL is the API root, e.g.
// "https://api.football-data.org".
func New(baseURL, apiToken string) *Client {
	return &Client{
		baseURL:  baseURL,
		apiToken: apiToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) Name() string { return ProviderName }

type apiTeam struct {
	Name string `json:"name"`
}

type apiScorePair struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

type apiScore struct {
	FullTime apiScorePair `json:"fullTime"`
}

type apiMatch struct {
	Status   string   `json:"status"`
	HomeTeam apiTeam  `json:"homeTeam"`
	AwayTeam apiTeam  `json:"awayTeam"`
	Score    apiScore `json:"score"`
}

type matchesResponse struct {
	Matches []apiMatch `json:"matches"`
}

// FixturesForDay returns the matches scheduled on the given calendar day
// (UTC).
func (c *Client) FixturesForDay(ctx context.Context, day time.Time) ([]domain.FixtureResult, error) {
	d := day.UTC().Format("2006-01-02")
	params := url.Values{}
	params.Set("dateFrom", d)
	params.Set("dateTo", d)

	body, err := c.doGet(ctx, "/v4/matches?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("footballdata: get matches: %w", err)
	}

	var resp matchesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("footballdata: decode matches: %w", err)
	}

	fixtures := make([]domain.FixtureResult, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		fixtures = append(fixtures, m.toFixture())
	}
	return fixtures, nil
}

func (m apiMatch) toFixture() domain.FixtureResult {
	f := domain.FixtureResult{
		HomeTeam: m.HomeTeam.Name,
		AwayTeam: m.AwayTeam.Name,
		Finished: m.Status == "FINISHED",
	}
	if m.Score.FullTime.Home == nil || m.Score.FullTime.Away == nil {
		f.Finished = false
		return f
	}
	f.HomeScore = *m.Score.FullTime.Home
	f.AwayScore = *m.Score.FullTime.Away
	return f
}

func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Auth-Token", c.apiToken)

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
