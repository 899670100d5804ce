// Package idqueue reads and writes the tabular identifier queues that
// feed bulk crawls.
package idqueue

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"leaguevault/lib/atomicfile"
)

const column = "espn_id"

var ErrMissingColumn = errors.New("identifier queue is missing the espn_id column")

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Read loads identifiers from a CSV file with an espn_id header column.
// Blank and non-numeric values are dropped silently.
func Read(path string) ([]int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	headerRow, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, path)
	}
	if err != nil {
		return nil, err
	}

	col := -1
	for i, name := range headerRow {
		if strings.TrimSpace(name) == column {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, path)
	}

	var ids []int64
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if col >= len(row) {
			continue
		}
		value := strings.TrimSpace(row[col])
		if !isDigits(value) {
			continue
		}
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Write persists a fresh single-column queue atomically.
func Write(path string, ids []int64) error {
	var out strings.Builder
	w := csv.NewWriter(&out)
	if err := w.Write([]string{column}); err != nil {
		return err
	}
	for _, id := range ids {
		if err := w.Write([]string{strconv.FormatInt(id, 10)}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return atomicfile.WriteFile(path, []byte(out.String()))
}
