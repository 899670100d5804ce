// Package crawllog is an append-only ledger of per-identifier fetch
// outcomes. A crawl consults it before fetching and appends one row per
// attempt, which makes a killed run resumable without re-fetching
// completed work.
package crawllog

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type Status string

const (
	StatusOK         Status = "ok"
	StatusNotFound   Status = "404"
	StatusSkipExists Status = "skip_exists"
	StatusHTTPError  Status = "http_error"
	StatusException  Status = "exception"
)

// Terminal reports whether the outcome permanently marks an identifier
// as not needing a re-fetch.
func (s Status) Terminal() bool {
	return s == StatusOK || s == StatusNotFound
}

var header = []string{"espn_id", "status", "http_status", "bytes", "path", "error"}

type Entry struct {
	ID         int64
	Status     Status
	HTTPStatus int // 0 when no response was received
	Bytes      int64
	Path       string
	Error      string
}

type Log struct {
	file *os.File
	w    *csv.Writer
}

// Open opens the log for appending, creating it (and its directory) with
// a header row when new. Rows are never rewritten.
func Open(path string) (*Log, error) {
	err := os.MkdirAll(filepath.Dir(path), 0755)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	isNew := os.IsNotExist(err) || (err == nil && info.Size() == 0)

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	l := &Log{file: file, w: csv.NewWriter(file)}
	if isNew {
		err = l.w.Write(header)
		l.w.Flush()
		if err == nil {
			err = l.w.Error()
		}
		if err != nil {
			file.Close()
			return nil, err
		}
	}
	return l, nil
}

// Append writes one outcome row and flushes immediately, so a terminated
// run loses at most the row in flight.
func (l *Log) Append(e Entry) error {
	httpStatus := ""
	if e.HTTPStatus != 0 {
		httpStatus = strconv.Itoa(e.HTTPStatus)
	}
	size := ""
	if e.Status != StatusException {
		size = strconv.FormatInt(e.Bytes, 10)
	}

	err := l.w.Write([]string{
		strconv.FormatInt(e.ID, 10),
		string(e.Status),
		httpStatus,
		size,
		e.Path,
		strings.ReplaceAll(e.Error, "\n", " "),
	})
	l.w.Flush()
	if err != nil {
		return err
	}
	return l.w.Error()
}

func (l *Log) Close() error {
	l.w.Flush()
	return errors.Join(l.w.Error(), l.file.Close())
}

// Completed loads prior rows and returns the identifiers whose status is
// terminal in any of them. A missing log yields an empty set.
func Completed(path string) (map[int64]struct{}, error) {
	done := map[int64]struct{}{}

	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return done, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSpace(row[0]), 10, 64)
		if err != nil {
			// header row or garbage
			continue
		}
		if Status(strings.ToLower(strings.TrimSpace(row[1]))).Terminal() {
			done[id] = struct{}{}
		}
	}
	return done, nil
}
