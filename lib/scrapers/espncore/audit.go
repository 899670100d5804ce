package espncore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"leaguevault/lib/atomicfile"
	"leaguevault/lib/fetchutil"
	"leaguevault/lib/idqueue"
)

type AuditOptions struct {
	// directory of transactions_*.json season artifacts
	TransactionsDir string
	// directory of <season>/week-*.json lineup artifacts
	LineupsDir string
	// directory of raw index pages
	IndexPagesDir string
	// where the report and missing-id queue are written
	VerifyDir string
}

type AuditReport struct {
	Transactions     int `json:"transactions"`
	Lineups          int `json:"lineups"`
	TotalSeen        int `json:"total_seen"`
	IndexTotal       int `json:"index_total"`
	MissingFromIndex int `json:"missing_from_index"`
}

// Audit cross-references every player id referenced by archived
// transactions and lineups against the athletes index, writes the seen
// set and a re-crawl queue of ids absent from the index, and returns the
// counts.
func Audit(opts AuditOptions) (*AuditReport, error) {
	txnIDs, err := collectTransactionIDs(opts.TransactionsDir)
	if err != nil {
		return nil, err
	}
	lineupIDs, err := collectLineupIDs(opts.LineupsDir)
	if err != nil {
		return nil, err
	}

	seen := map[int64]struct{}{}
	for id := range txnIDs {
		seen[id] = struct{}{}
	}
	for id := range lineupIDs {
		seen[id] = struct{}{}
	}

	indexIDs, err := collectIndexIDs(opts.IndexPagesDir)
	if err != nil {
		return nil, err
	}

	var missing []int64
	for id := range seen {
		if _, ok := indexIDs[id]; !ok {
			missing = append(missing, id)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })

	report := &AuditReport{
		Transactions:     len(txnIDs),
		Lineups:          len(lineupIDs),
		TotalSeen:        len(seen),
		IndexTotal:       len(indexIDs),
		MissingFromIndex: len(missing),
	}

	if opts.VerifyDir != "" {
		seenSorted := make([]int64, 0, len(seen))
		for id := range seen {
			seenSorted = append(seenSorted, id)
		}
		sort.Slice(seenSorted, func(i, j int) bool { return seenSorted[i] < seenSorted[j] })

		seenStrings := make([]string, len(seenSorted))
		for i, id := range seenSorted {
			seenStrings[i] = strconv.FormatInt(id, 10)
		}
		err = atomicfile.WriteJSON(
			filepath.Join(opts.VerifyDir, "espn_ids_seen.json"),
			map[string]any{"report": report, "ids": seenStrings},
		)
		if err != nil {
			return nil, err
		}
		err = idqueue.Write(filepath.Join(opts.VerifyDir, "espn_ids_missing.csv"), missing)
		if err != nil {
			return nil, err
		}
	}

	return report, nil
}

func collectTransactionIDs(dir string) (map[int64]struct{}, error) {
	ids := map[int64]struct{}{}
	if dir == "" {
		return ids, nil
	}
	paths, err := filepath.Glob(filepath.Join(dir, "transactions_*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var season struct {
			Transactions []struct {
				Items []struct {
					PlayerID any `json:"playerId"`
				} `json:"items"`
			} `json:"transactions"`
		}
		err = json.Unmarshal(data, &season)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
		for _, txn := range season.Transactions {
			for _, item := range txn.Items {
				if id, ok := coerceID(item.PlayerID); ok {
					ids[id] = struct{}{}
				}
			}
		}
	}
	return ids, nil
}

func collectLineupIDs(dir string) (map[int64]struct{}, error) {
	ids := map[int64]struct{}{}
	if dir == "" {
		return ids, nil
	}
	seasons, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return ids, nil
	}
	if err != nil {
		return nil, err
	}

	for _, season := range seasons {
		if !season.IsDir() {
			continue
		}
		paths, err := filepath.Glob(filepath.Join(dir, season.Name(), "week-*.json"))
		if err != nil {
			return nil, err
		}
		sort.Strings(paths)

		for _, path := range paths {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, err
			}
			var week struct {
				Lineups []struct {
					PlayerID any `json:"player_id"`
				} `json:"lineups"`
			}
			err = json.Unmarshal(data, &week)
			if err != nil {
				return nil, fmt.Errorf("decoding %s: %w", path, err)
			}
			for _, entry := range week.Lineups {
				if id, ok := coerceID(entry.PlayerID); ok {
					ids[id] = struct{}{}
				}
			}
		}
	}
	return ids, nil
}

func collectIndexIDs(pagesDir string) (map[int64]struct{}, error) {
	ids := map[int64]struct{}{}
	if pagesDir == "" {
		return ids, nil
	}
	paths, err := filepath.Glob(filepath.Join(pagesDir, "*.json"))
	if err != nil {
		return nil, err
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		env, err := fetchutil.DecodeEnvelope(data)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
		for _, item := range env.Items {
			if id, ok := itemID(item); ok {
				ids[id] = struct{}{}
			}
		}
	}
	return ids, nil
}
