package espn

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"leaguevault/lib/fetchutil"
	"leaguevault/lib/restyutil"
)

const DefaultBaseURL = "https://lm-api-reads.fantasy.espn.com/apis/v3/games/ffl"

// The league manager UI's user agent. The API serves redirects to some
// non-browser agents.
const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/605.1.15 (KHTML, like Gecko) Version/26.1 Safari/605.1.15"

const DefaultSnapshotPath = "/tmp/espn_tx_debug.json"

type ClientOptions struct {
	LeagueID string
	// normalized Cookie header value; empty works for public leagues
	Cookie  string
	BaseURL string
	Timeout time.Duration
	Retries int
	// see fetchutil.ClientOptions
	BackoffBase float64
	BackoffUnit time.Duration
	// where the last failed exchange is snapshotted for diagnosis
	SnapshotPath string
	DebugOutput  restyutil.InstrumentOutput
}

type Client struct {
	fetch        *fetchutil.Client
	baseURL      string
	leagueID     string
	snapshotPath string
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.LeagueID == "" {
		return nil, fmt.Errorf("espn: league id is required")
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	snapshotPath := opts.SnapshotPath
	if snapshotPath == "" {
		snapshotPath = DefaultSnapshotPath
	}

	headers := map[string]string{
		"Referer": "https://fantasy.espn.com/football/league?leagueId=" + opts.LeagueID,
		"Origin":  "https://fantasy.espn.com",
	}
	if opts.Cookie != "" {
		headers["Cookie"] = opts.Cookie
	}

	fetch := fetchutil.NewClient(fetchutil.ClientOptions{
		Timeout:     opts.Timeout,
		Retries:     opts.Retries,
		BackoffBase: opts.BackoffBase,
		BackoffUnit: opts.BackoffUnit,
		UserAgent:   defaultUserAgent,
		Headers:     headers,
		Name:        "scrapers/espn",
		DebugOutput: opts.DebugOutput,
	})

	return &Client{
		fetch:        fetch,
		baseURL:      baseURL,
		leagueID:     opts.LeagueID,
		snapshotPath: snapshotPath,
	}, nil
}

type endpoint struct {
	url    string
	params url.Values
}

// endpoints returns the two URL shapes a season's data may live behind:
// the per-season path for current leagues and the leagueHistory path for
// archived ones. Callers try them in order.
func (c *Client) endpoints(season int) []endpoint {
	return []endpoint{
		{
			url:    fmt.Sprintf("%s/seasons/%d/segments/0/leagues/%s", c.baseURL, season, c.leagueID),
			params: url.Values{},
		},
		{
			url:    fmt.Sprintf("%s/leagueHistory/%s", c.baseURL, c.leagueID),
			params: url.Values{"seasonId": []string{strconv.Itoa(season)}},
		},
	}
}

func cloneValues(v url.Values) url.Values {
	out := url.Values{}
	for key, vals := range v {
		out[key] = append([]string(nil), vals...)
	}
	return out
}
