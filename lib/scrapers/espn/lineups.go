package espn

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Lineup slots that don't count toward a team's score.
const (
	slotBench          = 20
	slotInjuredReserve = 21
)

type LineupEntry struct {
	Week     int    `json:"week"`
	Team     string `json:"team"`
	PlayerID string `json:"player_id"`
	Started  bool   `json:"started"`
	// nil when the API reported no applied total for the slot
	Points *float64 `json:"points"`
}

type WeekLineups struct {
	Season  int           `json:"season"`
	Week    int           `json:"week"`
	Lineups []LineupEntry `json:"lineups"`
}

type lineupPayload struct {
	Teams []struct {
		ID       *int     `json:"id"`
		Name     string   `json:"name"`
		Location string   `json:"location"`
		Nickname string   `json:"nickname"`
		Owners   []string `json:"owners"`
		Roster   struct {
			Entries []struct {
				PlayerID         *int64   `json:"playerId"`
				LineupSlotID     int      `json:"lineupSlotId"`
				AppliedStatTotal *float64 `json:"appliedStatTotal"`
			} `json:"entries"`
		} `json:"roster"`
	} `json:"teams"`
	Members []struct {
		ID          string `json:"id"`
		DisplayName string `json:"displayName"`
		FirstName   string `json:"firstName"`
	} `json:"members"`
}

// FetchWeekLineups pulls every team's roster for one scoring period and
// flattens it to per-player rows. Players in bench or IR slots are
// recorded as not started.
func (c *Client) FetchWeekLineups(ctx context.Context, season, week int) (*WeekLineups, error) {
	params := url.Values{}
	params["view"] = []string{"mMatchup", "mMatchupScore", "mTeam", "mRoster"}
	params.Set("scoringPeriodId", strconv.Itoa(week))

	endpoint := c.endpoints(season)[0]
	res, err := c.fetch.FetchJSON(ctx, endpoint.url, params, nil)
	if err != nil {
		return nil, err
	}
	if !res.IsJSON() {
		preview := res.Body
		if len(preview) > 200 {
			preview = preview[:200]
		}
		return nil, fmt.Errorf(
			"non-JSON lineup response: status=%d url=%s preview=%q",
			res.Status, res.URL, preview,
		)
	}

	payload := lineupPayload{}
	err = unmarshalUnwrapped(res.Payload, &payload)
	if err != nil {
		return nil, fmt.Errorf("decoding lineups for season %d week %d: %w", season, week, err)
	}

	memberByID := map[string]string{}
	for _, m := range payload.Members {
		if m.ID == "" {
			continue
		}
		name := m.DisplayName
		if name == "" {
			name = m.FirstName
		}
		memberByID[m.ID] = name
	}

	out := &WeekLineups{Season: season, Week: week, Lineups: []LineupEntry{}}
	for _, team := range payload.Teams {
		name := team.Name
		if name == "" {
			name = joinNonEmpty(team.Location, team.Nickname)
		}
		if name == "" && len(team.Owners) > 0 {
			name = memberByID[team.Owners[0]]
		}
		if name == "" {
			if team.ID != nil {
				name = fmt.Sprintf("Team %d", *team.ID)
			} else {
				name = "Team <nil>"
			}
		}

		for _, entry := range team.Roster.Entries {
			if entry.PlayerID == nil {
				continue
			}
			started := entry.LineupSlotID != slotBench && entry.LineupSlotID != slotInjuredReserve
			out.Lineups = append(out.Lineups, LineupEntry{
				Week:     week,
				Team:     name,
				PlayerID: strconv.FormatInt(*entry.PlayerID, 10),
				Started:  started,
				Points:   entry.AppliedStatTotal,
			})
		}
	}
	return out, nil
}

func joinNonEmpty(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " " + b
	}
}
