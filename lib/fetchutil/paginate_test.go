package fetchutil

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeIndex serves a paginated collection that only understands the
// pageIndex/pageSize convention. Probes with other param names get a
// JSON error object, which is valid JSON but not a paging envelope.
type fakeIndex struct {
	pages    [][]int
	requests []string
}

func (f *fakeIndex) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.requests = append(f.requests, r.URL.RawQuery)
		w.Header().Set("Content-Type", "application/json")

		if !r.URL.Query().Has("pageIndex") {
			fmt.Fprint(w, `{"error":"unknown parameters"}`)
			return
		}
		index, _ := strconv.Atoi(r.URL.Query().Get("pageIndex"))
		if index < 1 || index > len(f.pages) {
			fmt.Fprintf(w, `{"items":[],"pageIndex":%d,"pageCount":%d}`, index, len(f.pages))
			return
		}

		items, _ := json.Marshal(f.pages[index-1])
		fmt.Fprintf(w, `{"items":%s,"pageIndex":%d,"pageCount":%d}`, items, index, len(f.pages))
	}
}

func (f *fakeIndex) probeCount(param string) int {
	n := 0
	for _, q := range f.requests {
		values, err := url.ParseQuery(q)
		if err == nil && values.Has(param) {
			n++
		}
	}
	return n
}

func TestPaginatorNegotiatesStyle(t *testing.T) {
	fake := &fakeIndex{pages: [][]int{{1, 2}, {3, 4}, {5}}}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	dir := t.TempDir()
	pg := Paginator{
		Client:         newTestClient(-1),
		URL:            server.URL,
		PageSize:       2,
		ArtifactDir:    dir,
		ArtifactPrefix: "athletes_index",
	}
	set, err := pg.Run(context.Background())
	require.NoError(t, err)

	require.True(t, set.Negotiated)
	require.Equal(t, ParamStyle{Page: "pageIndex", Size: "pageSize"}, set.Style)
	require.Equal(t, 3, set.Pages)
	require.Len(t, set.Items, 5)

	// one probe for the rejected convention, then it is never used again
	require.Equal(t, 1, fake.probeCount("page"))

	for i := 1; i <= 3; i++ {
		path := filepath.Join(dir, fmt.Sprintf("athletes_index_%04d.json", i))
		_, err := os.Stat(path)
		require.NoError(t, err, path)
	}
}

func TestPaginatorResumeReusesArtifacts(t *testing.T) {
	fake := &fakeIndex{pages: [][]int{{1, 2}, {3, 4}, {5}}}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	dir := t.TempDir()
	pg := Paginator{
		Client:         newTestClient(-1),
		URL:            server.URL,
		PageSize:       2,
		ArtifactDir:    dir,
		ArtifactPrefix: "athletes_index",
		Resume:         true,
	}
	_, err := pg.Run(context.Background())
	require.NoError(t, err)
	firstRun := len(fake.requests)

	set, err := pg.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, set.Items, 5)

	// the second run re-probes page 1 but reads pages 2 and 3 from disk
	require.Equal(t, firstRun+1, len(fake.requests))
}

func TestPaginatorSinglePageFallback(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Content-Type", "application/json")
		// items but no pageIndex: not a paging envelope
		fmt.Fprint(w, `{"items":[{"id":1},{"id":2}]}`)
	}))
	defer server.Close()

	pg := Paginator{
		Client:   newTestClient(-1),
		URL:      server.URL,
		PageSize: 10,
	}
	set, err := pg.Run(context.Background())
	require.NoError(t, err)

	require.False(t, set.Negotiated)
	require.Equal(t, 1, set.Pages)
	require.Len(t, set.Items, 2)
	// two failed probes plus the bare fallback request
	require.Equal(t, 3, requests)
}

func TestPaginatorStopsOnEmptyPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		index, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if index <= 1 {
			fmt.Fprint(w, `{"items":[{"id":1}],"pageIndex":1,"pageCount":10}`)
			return
		}
		// server-side truncation: claims 10 pages but runs dry at 2
		fmt.Fprintf(w, `{"items":[],"pageIndex":%d,"pageCount":10}`, index)
	}))
	defer server.Close()

	pg := Paginator{Client: newTestClient(-1), URL: server.URL, PageSize: 1}
	set, err := pg.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, set.Pages)
	require.Len(t, set.Items, 1)
}

func TestPaginatorHonorsPageCap(t *testing.T) {
	fake := &fakeIndex{pages: [][]int{{1}, {2}, {3}, {4}}}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	pg := Paginator{
		Client:   newTestClient(-1),
		URL:      server.URL,
		PageSize: 1,
		MaxPages: 2,
	}
	set, err := pg.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, set.Pages)
	require.Len(t, set.Items, 2)
}

func TestDecodeEnvelopeKeyPresence(t *testing.T) {
	env, err := DecodeEnvelope([]byte(`{"items":[],"pageIndex":1,"pageCount":0}`))
	require.NoError(t, err)
	require.True(t, env.HasItems)
	require.True(t, env.HasIndex)
	require.Empty(t, env.Items)

	env, err = DecodeEnvelope([]byte(`{"results":[1,2]}`))
	require.NoError(t, err)
	require.False(t, env.HasItems)
	require.False(t, env.HasIndex)

	_, err = DecodeEnvelope([]byte(`not json`))
	require.Error(t, err)
}
