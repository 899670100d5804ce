// Package espncore crawls ESPN's public core API for NFL athlete data:
// the paginated athletes index, and per-athlete records fetched from an
// identifier queue with a resumable outcome log.
package espncore

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"leaguevault/lib/fetchutil"
)

const DefaultBaseURL = "https://sports.core.api.espn.com/v3/sports/football/nfl/athletes"

const indexUserAgent = "leaguevault/1.0 (league archive tool)"

func newIndexClient(timeout time.Duration) *fetchutil.Client {
	if timeout <= 0 {
		timeout = time.Second * 45
	}
	return fetchutil.NewClient(fetchutil.ClientOptions{
		Timeout:   timeout,
		UserAgent: indexUserAgent,
		Name:      "scrapers/espncore",
	})
}

func newCrawlClient(timeout time.Duration) *fetchutil.Client {
	if timeout <= 0 {
		timeout = time.Second * 20
	}
	// single attempt per id; failures become log rows, not retries
	return fetchutil.NewClient(fetchutil.ClientOptions{
		Timeout:   timeout,
		Retries:   -1,
		UserAgent: "Mozilla/5.0",
		Headers:   map[string]string{"Accept": "application/json,text/plain,*/*"},
		Name:      "scrapers/espncore",
	})
}

// coerceID accepts the id field however the API spells it (number or
// numeric string).
func coerceID(v any) (int64, bool) {
	switch t := v.(type) {
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		return n, err == nil
	case float64:
		return int64(t), true
	case json.Number:
		n, err := t.Int64()
		return n, err == nil
	}
	return 0, false
}

func itemID(item json.RawMessage) (int64, bool) {
	var row struct {
		ID any `json:"id"`
	}
	if json.Unmarshal(item, &row) != nil {
		return 0, false
	}
	return coerceID(row.ID)
}
