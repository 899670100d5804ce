package espn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

// Scoring periods outside this range don't exist in any NFL season.
const (
	minScoringPeriod = 1
	maxScoringPeriod = 18
)

// SeasonTransactions is the archived record of one league season:
// every transaction plus the team and member payloads needed to make
// sense of the ids inside them.
type SeasonTransactions struct {
	Season       int              `json:"season"`
	LeagueID     string           `json:"league_id"`
	GeneratedAt  time.Time        `json:"generated_at"`
	Transactions []map[string]any `json:"transactions"`
	Teams        json.RawMessage  `json:"teams"`
	Members      json.RawMessage  `json:"members"`
}

// CombinedTransactions flattens a run of seasons into one artifact with
// per-season counts.
type CombinedTransactions struct {
	LeagueID     string           `json:"league_id"`
	StartSeason  int              `json:"start_season"`
	EndSeason    int              `json:"end_season"`
	GeneratedAt  time.Time        `json:"generated_at"`
	Transactions []map[string]any `json:"transactions"`
	BySeason     map[string]int   `json:"by_season"`
}

// FetchSettings resolves the league settings object for a season. The
// settings payload is only trusted when it carries a populated status
// block, which is what distinguishes a real league response from the
// empty husk some URL shapes return.
func (c *Client) FetchSettings(ctx context.Context, season int) (map[string]json.RawMessage, error) {
	var descs []descriptor
	for _, ep := range c.endpoints(season) {
		params := cloneValues(ep.params)
		params.Set("view", "mSettings")
		descs = append(descs, descriptor{url: ep.url, params: params})
	}
	payload, _, err := c.resolveFirst(ctx, descs, func(p map[string]json.RawMessage) bool {
		return nonEmptyObject(p, "status")
	})
	return payload, err
}

// FetchTeams resolves the team/member payload for a season.
func (c *Client) FetchTeams(ctx context.Context, season int) (map[string]json.RawMessage, error) {
	var descs []descriptor
	for _, ep := range c.endpoints(season) {
		params := cloneValues(ep.params)
		params.Set("view", "mTeam")
		descs = append(descs, descriptor{url: ep.url, params: params})
	}
	payload, _, err := c.resolveFirst(ctx, descs, func(p map[string]json.RawMessage) bool {
		return nonEmptyArray(p, "teams")
	})
	return payload, err
}

// fetchTransactionsForPeriod walks the full variant matrix for one
// scoring period: both URL shapes, both transaction views, each with and
// without an explicit X-Fantasy-Filter. Returns the transactions of the
// first variant that has any, plus the view that produced them.
func (c *Client) fetchTransactionsForPeriod(ctx context.Context, season, period int) ([]map[string]any, string, error) {
	views := []string{"mTransactions2", "mTransactions"}
	filters := []string{"", `{"transactions":{"limit":2000,"offset":0}}`}

	var descs []descriptor
	var descViews []string
	for _, ep := range c.endpoints(season) {
		for _, view := range views {
			for _, filter := range filters {
				params := cloneValues(ep.params)
				params.Set("view", view)
				params.Set("scoringPeriodId", strconv.Itoa(period))
				descs = append(descs, descriptor{url: ep.url, params: params, filter: filter})
				descViews = append(descViews, view)
			}
		}
	}

	payload, idx, err := c.resolveFirst(ctx, descs, func(p map[string]json.RawMessage) bool {
		return nonEmptyArray(p, "transactions")
	})
	if err != nil {
		return nil, "", err
	}

	var txns []map[string]any
	err = json.Unmarshal(payload["transactions"], &txns)
	if err != nil {
		return nil, "", fmt.Errorf("decoding transactions for season %d period %d: %w", season, period, err)
	}
	return txns, descViews[idx], nil
}

// PullSeasonTransactions aggregates one season. The scoring period range
// comes from the settings payload when available and defaults to a full
// regular season otherwise; a period with no transactions under any
// variant is normal and skipped. Every kept transaction is stamped with
// the season, period, and source view it was fetched under (existing
// fields win), and duplicates by transaction id keep their first-seen
// form.
func (c *Client) PullSeasonTransactions(ctx context.Context, season int) (*SeasonTransactions, error) {
	maxPeriod := maxScoringPeriod

	settings, err := c.FetchSettings(ctx, season)
	switch {
	case errors.Is(err, ErrExhaustedVariants):
		slog.Warn("no usable settings payload, assuming a full season", "season", season)
	case err != nil:
		return nil, err
	default:
		var status struct {
			FinalScoringPeriod   int `json:"finalScoringPeriod"`
			CurrentMatchupPeriod int `json:"currentMatchupPeriod"`
		}
		json.Unmarshal(settings["status"], &status)
		if status.FinalScoringPeriod > 0 {
			maxPeriod = status.FinalScoringPeriod
		} else if status.CurrentMatchupPeriod > 0 {
			maxPeriod = status.CurrentMatchupPeriod
		}
	}
	if maxPeriod > maxScoringPeriod {
		maxPeriod = maxScoringPeriod
	}
	if maxPeriod < minScoringPeriod {
		maxPeriod = minScoringPeriod
	}

	seen := map[string]struct{}{}
	transactions := []map[string]any{}
	for period := 1; period <= maxPeriod; period++ {
		items, view, err := c.fetchTransactionsForPeriod(ctx, season, period)
		if errors.Is(err, ErrExhaustedVariants) {
			slog.Debug("no transactions for scoring period", "season", season, "period", period)
			continue
		}
		if err != nil {
			return nil, err
		}

		for _, item := range items {
			if item == nil {
				continue
			}
			if _, ok := item["season"]; !ok {
				item["season"] = season
			}
			if _, ok := item["scoringPeriodId"]; !ok {
				item["scoringPeriodId"] = period
			}
			if _, ok := item["__view"]; !ok && view != "" {
				item["__view"] = view
			}

			if id, ok := item["id"]; ok && id != nil {
				key := fmt.Sprintf("%v", id)
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
			}
			transactions = append(transactions, item)
		}
	}

	teams := json.RawMessage("[]")
	members := json.RawMessage("[]")
	teamPayload, err := c.FetchTeams(ctx, season)
	switch {
	case errors.Is(err, ErrExhaustedVariants):
		slog.Warn("no usable team payload for season", "season", season)
	case err != nil:
		return nil, err
	default:
		if raw, ok := teamPayload["teams"]; ok {
			teams = raw
		}
		if raw, ok := teamPayload["members"]; ok {
			members = raw
		}
	}

	return &SeasonTransactions{
		Season:       season,
		LeagueID:     c.leagueID,
		GeneratedAt:  time.Now().UTC(),
		Transactions: transactions,
		Teams:        teams,
		Members:      members,
	}, nil
}

// Combine flattens per-season pulls into a single cross-season artifact.
func Combine(leagueID string, startSeason, endSeason int, seasons []*SeasonTransactions) CombinedTransactions {
	out := CombinedTransactions{
		LeagueID:     leagueID,
		StartSeason:  startSeason,
		EndSeason:    endSeason,
		GeneratedAt:  time.Now().UTC(),
		Transactions: []map[string]any{},
		BySeason:     map[string]int{},
	}
	for _, s := range seasons {
		out.Transactions = append(out.Transactions, s.Transactions...)
		out.BySeason[strconv.Itoa(s.Season)] = len(s.Transactions)
	}
	return out
}
