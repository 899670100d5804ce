package espncore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"leaguevault/lib/idqueue"

	"github.com/stretchr/testify/require"
)

func TestPullIndex(t *testing.T) {
	pages := [][]string{
		{`{"id":"1","displayName":"Player One"}`, `{"id":2,"displayName":"Player Two"}`},
		{`{"id":"3","displayName":"Player Three"}`, `{"displayName":"No Id"}`},
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !r.URL.Query().Has("page") {
			fmt.Fprint(w, `{"error":"unknown parameters"}`)
			return
		}
		index, _ := strconv.Atoi(r.URL.Query().Get("page"))
		items := "[]"
		if index >= 1 && index <= len(pages) {
			items = "[" + pages[index-1][0] + "," + pages[index-1][1] + "]"
		}
		fmt.Fprintf(w, `{"items":%s,"pageIndex":%d,"pageCount":%d}`, items, index, len(pages))
	}))
	defer server.Close()

	outdir := t.TempDir()
	result, err := PullIndex(context.Background(), IndexOptions{
		Client:   testCrawlClient(),
		BaseURL:  server.URL,
		OutDir:   outdir,
		PageSize: 2,
	})
	require.NoError(t, err)

	require.True(t, result.Negotiated)
	require.Equal(t, "page", result.Style.Page)
	require.Equal(t, 2, result.Pages)
	require.Len(t, result.Items, 4)
	// string ids, numeric ids, and idless rows all handled
	require.Equal(t, []int64{1, 2, 3}, result.IDs)

	queued, err := idqueue.Read(filepath.Join(outdir, "espn_id_queue.csv"))
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2, 3}, queued)

	data, err := os.ReadFile(filepath.Join(outdir, "athletes_index_flat.json"))
	require.NoError(t, err)
	var flat []json.RawMessage
	require.NoError(t, json.Unmarshal(data, &flat))
	require.Len(t, flat, 4)

	for i := 1; i <= 2; i++ {
		_, err := os.Stat(filepath.Join(outdir, "pages", fmt.Sprintf("athletes_index_%04d.json", i)))
		require.NoError(t, err)
	}
}
