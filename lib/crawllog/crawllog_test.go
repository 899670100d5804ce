package crawllog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogAppendAndComplete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crawl", "log.csv")

	log, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, log.Append(Entry{ID: 101, Status: StatusOK, HTTPStatus: 200, Bytes: 1234, Path: "out/101.json"}))
	require.NoError(t, log.Append(Entry{ID: 102, Status: StatusNotFound, HTTPStatus: 404, Bytes: 12}))
	require.NoError(t, log.Append(Entry{ID: 103, Status: StatusHTTPError, HTTPStatus: 503, Bytes: 80, Error: "service\nunavailable"}))
	require.NoError(t, log.Append(Entry{ID: 104, Status: StatusException, Error: "dial tcp: timeout"}))
	require.NoError(t, log.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 5)
	require.Equal(t, "espn_id,status,http_status,bytes,path,error", lines[0])
	require.Equal(t, "101,ok,200,1234,out/101.json,", lines[1])
	require.Equal(t, "102,404,404,12,,", lines[2])
	// newlines in errors are flattened so the row stays one line
	require.Equal(t, "103,http_error,503,80,,service unavailable", lines[3])
	// exceptions have no response, so no status and no byte count
	require.Equal(t, "104,exception,,,,dial tcp: timeout", lines[4])

	done, err := Completed(path)
	require.NoError(t, err)
	require.Equal(t, map[int64]struct{}{101: {}, 102: {}}, done)
}

func TestLogReopenAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.csv")

	log, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, log.Append(Entry{ID: 1, Status: StatusOK, HTTPStatus: 200, Bytes: 10, Path: "1.json"}))
	require.NoError(t, log.Close())

	log, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, log.Append(Entry{ID: 2, Status: StatusSkipExists, Bytes: 99, Path: "2.json"}))
	require.NoError(t, log.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, 1, strings.Count(string(data), "espn_id,status"))

	// skip_exists is not terminal, the id may still need a real fetch
	done, err := Completed(path)
	require.NoError(t, err)
	require.Equal(t, map[int64]struct{}{1: {}}, done)
}

func TestCompletedMissingLog(t *testing.T) {
	done, err := Completed(filepath.Join(t.TempDir(), "nope.csv"))
	require.NoError(t, err)
	require.Empty(t, done)
}

func TestStatusTerminal(t *testing.T) {
	require.True(t, StatusOK.Terminal())
	require.True(t, StatusNotFound.Terminal())
	require.False(t, StatusSkipExists.Terminal())
	require.False(t, StatusHTTPError.Terminal())
	require.False(t, StatusException.Terminal())
}
