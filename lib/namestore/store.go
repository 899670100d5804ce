// Package namestore maintains a local sqlite index of athlete names
// keyed by ESPN id, built from crawled index pages and per-athlete
// records. It answers the one question the rest of the archive keeps
// asking: which human does this player id refer to?
package namestore

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"leaguevault/lib/atomicfile"
	"leaguevault/lib/scrapers/espncore"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	_, err = db.Exec(schema)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type Athlete struct {
	ID          int64
	DisplayName string
	FullName    string
	ShortName   string
	Position    string
	Active      bool
}

// athleteFromJSON decodes one athlete object from either an index item
// or a by-id record body. Shapes vary: ids arrive as numbers or strings
// and position is sometimes an object with an abbreviation.
func athleteFromJSON(raw json.RawMessage) (Athlete, bool) {
	var row struct {
		ID          any             `json:"id"`
		DisplayName string          `json:"displayName"`
		FullName    string          `json:"fullName"`
		ShortName   string          `json:"shortName"`
		Position    json.RawMessage `json:"position"`
		Active      bool            `json:"active"`
	}
	if json.Unmarshal(raw, &row) != nil {
		return Athlete{}, false
	}

	var id int64
	switch t := row.ID.(type) {
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return Athlete{}, false
		}
		id = n
	case float64:
		id = int64(t)
	default:
		return Athlete{}, false
	}

	position := ""
	if len(row.Position) > 0 {
		var asString string
		if json.Unmarshal(row.Position, &asString) == nil {
			position = asString
		} else {
			var asObject struct {
				Abbreviation string `json:"abbreviation"`
			}
			if json.Unmarshal(row.Position, &asObject) == nil {
				position = asObject.Abbreviation
			}
		}
	}

	return Athlete{
		ID:          id,
		DisplayName: strings.TrimSpace(row.DisplayName),
		FullName:    strings.TrimSpace(row.FullName),
		ShortName:   strings.TrimSpace(row.ShortName),
		Position:    position,
		Active:      row.Active,
	}, true
}

// Upsert inserts athletes, letting incoming non-empty fields replace
// stored ones so repeated imports converge on the fullest record.
func (s *Store) Upsert(ctx context.Context, athletes []Athlete) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO athletes (espn_id, display_name, full_name, short_name, position, active)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (espn_id) DO UPDATE SET
    display_name = CASE WHEN excluded.display_name != '' THEN excluded.display_name ELSE display_name END,
    full_name = CASE WHEN excluded.full_name != '' THEN excluded.full_name ELSE full_name END,
    short_name = CASE WHEN excluded.short_name != '' THEN excluded.short_name ELSE short_name END,
    position = CASE WHEN excluded.position != '' THEN excluded.position ELSE position END,
    active = excluded.active
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range athletes {
		active := 0
		if a.Active {
			active = 1
		}
		_, err = stmt.ExecContext(ctx, a.ID, a.DisplayName, a.FullName, a.ShortName, a.Position, active)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ImportIndexItems loads athletes from raw index page items. Returns the
// number of rows imported.
func (s *Store) ImportIndexItems(ctx context.Context, items []json.RawMessage) (int, error) {
	var athletes []Athlete
	for _, item := range items {
		if a, ok := athleteFromJSON(item); ok {
			athletes = append(athletes, a)
		}
	}
	err := s.Upsert(ctx, athletes)
	if err != nil {
		return 0, err
	}
	return len(athletes), nil
}

// ImportRecordDir loads athletes from a directory of by-id crawl
// records. Records whose body wasn't JSON are skipped.
func (s *Store) ImportRecordDir(ctx context.Context, dir string) (int, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return 0, err
	}
	sort.Strings(paths)

	var athletes []Athlete
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return 0, err
		}
		var record espncore.ItemRecord
		err = json.Unmarshal(data, &record)
		if err != nil {
			return 0, fmt.Errorf("decoding %s: %w", path, err)
		}
		if record.Data == nil {
			continue
		}
		if a, ok := athleteFromJSON(record.Data); ok {
			athletes = append(athletes, a)
		}
	}

	err = s.Upsert(ctx, athletes)
	if err != nil {
		return 0, err
	}
	return len(athletes), nil
}

// NameMap returns id -> best known name, preferring display name over
// full name over short name. When onlyIDs is non-empty the map is
// restricted to those ids.
func (s *Store) NameMap(ctx context.Context, onlyIDs map[int64]struct{}) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT espn_id, display_name, full_name, short_name
FROM athletes
ORDER BY espn_id
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var id int64
		var display, full, short string
		err = rows.Scan(&id, &display, &full, &short)
		if err != nil {
			return nil, err
		}
		if len(onlyIDs) > 0 {
			if _, ok := onlyIDs[id]; !ok {
				continue
			}
		}

		name := display
		if name == "" {
			name = full
		}
		if name == "" {
			name = short
		}
		if name == "" {
			continue
		}
		out[strconv.FormatInt(id, 10)] = name
	}
	return out, rows.Err()
}

// WriteNameMap persists the name map as an indented JSON artifact.
func (s *Store) WriteNameMap(ctx context.Context, path string, onlyIDs map[int64]struct{}) (int, error) {
	nameMap, err := s.NameMap(ctx, onlyIDs)
	if err != nil {
		return 0, err
	}
	err = atomicfile.WriteJSON(path, nameMap)
	if err != nil {
		return 0, err
	}
	return len(nameMap), nil
}

// Names returns every stored best-known name, for fuzzy linking against
// an external roster.
func (s *Store) Names(ctx context.Context) ([]string, error) {
	nameMap, err := s.NameMap(ctx, nil)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(nameMap))
	for _, name := range nameMap {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
