// Package sleeper pulls league transactions from Sleeper's public API.
// Unlike the ESPN side there is nothing to negotiate: one documented
// endpoint per week, no credentials.
package sleeper

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"leaguevault/lib/fetchutil"
)

const DefaultBaseURL = "https://api.sleeper.app"

type ClientOptions struct {
	LeagueID string
	BaseURL  string
	Timeout  time.Duration
	Retries  int
	// pause between week fetches, defaults to 200ms
	Delay time.Duration
}

type Client struct {
	fetch    *fetchutil.Client
	baseURL  string
	leagueID string
	delay    time.Duration
}

type SeasonTransactions struct {
	Season       int              `json:"season"`
	LeagueID     string           `json:"league_id"`
	Transactions []map[string]any `json:"transactions"`
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.LeagueID == "" {
		return nil, fmt.Errorf("sleeper: league id is required")
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	delay := opts.Delay
	if delay <= 0 {
		delay = 200 * time.Millisecond
	}
	return &Client{
		fetch: fetchutil.NewClient(fetchutil.ClientOptions{
			Timeout: opts.Timeout,
			Retries: opts.Retries,
			Name:    "scrapers/sleeper",
		}),
		baseURL:  baseURL,
		leagueID: opts.LeagueID,
		delay:    delay,
	}, nil
}

// PullSeasonTransactions fetches weeks 1..maxRound and flattens them
// into one season artifact. Rows missing a week are stamped with the
// round they were fetched under.
func (c *Client) PullSeasonTransactions(ctx context.Context, season, maxRound int) (*SeasonTransactions, error) {
	if maxRound <= 0 {
		maxRound = 18
	}

	out := &SeasonTransactions{
		Season:       season,
		LeagueID:     c.leagueID,
		Transactions: []map[string]any{},
	}

	for round := 1; round <= maxRound; round++ {
		url := fmt.Sprintf("%s/v1/league/%s/transactions/%d", c.baseURL, c.leagueID, round)
		res, err := c.fetch.FetchJSON(ctx, url, nil, nil)
		if err != nil {
			return nil, err
		}
		if res.Status != 200 {
			return nil, fmt.Errorf("sleeper: fetching %s: status %d", url, res.Status)
		}
		if !res.IsJSON() {
			return nil, fmt.Errorf("sleeper: non-JSON response from %s", url)
		}

		var rows []map[string]any
		err = json.Unmarshal(res.Payload, &rows)
		if err != nil {
			return nil, fmt.Errorf("sleeper: decoding round %d: %w", round, err)
		}
		for _, row := range rows {
			if row == nil {
				continue
			}
			switch week := row["week"]; week {
			case nil, float64(0), "":
				row["week"] = round
			}
			out.Transactions = append(out.Transactions, row)
		}

		if round < maxRound {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.delay):
			}
		}
	}
	return out, nil
}
