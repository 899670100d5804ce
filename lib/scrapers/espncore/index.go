package espncore

import (
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"time"

	"leaguevault/lib/atomicfile"
	"leaguevault/lib/fetchutil"
	"leaguevault/lib/idqueue"
)

type IndexOptions struct {
	// optional preconfigured client, mainly for tests
	Client  *fetchutil.Client
	BaseURL string
	OutDir  string
	// requested items per page, defaults to 200000
	PageSize int
	MaxPages int
	Resume   bool
	Timeout  time.Duration
}

type IndexResult struct {
	Items      []json.RawMessage
	IDs        []int64
	Pages      int
	Style      fetchutil.ParamStyle
	Negotiated bool
}

// PullIndex walks the full athletes index. Raw pages land under
// OutDir/pages, the flattened item list is written as one artifact, and
// the extracted ids are written as a queue ready for CrawlByID.
func PullIndex(ctx context.Context, opts IndexOptions) (*IndexResult, error) {
	client := opts.Client
	if client == nil {
		client = newIndexClient(opts.Timeout)
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	pg := fetchutil.Paginator{
		Client:         client,
		URL:            baseURL,
		PageSize:       opts.PageSize,
		ArtifactDir:    filepath.Join(opts.OutDir, "pages"),
		ArtifactPrefix: "athletes_index",
		MaxPages:       opts.MaxPages,
		Resume:         opts.Resume,
	}
	set, err := pg.Run(ctx)
	if err != nil {
		return nil, err
	}

	result := &IndexResult{
		Items:      set.Items,
		Pages:      set.Pages,
		Style:      set.Style,
		Negotiated: set.Negotiated,
	}
	for _, item := range set.Items {
		if id, ok := itemID(item); ok {
			result.IDs = append(result.IDs, id)
		}
	}

	if opts.OutDir != "" {
		err = atomicfile.WriteJSON(filepath.Join(opts.OutDir, "athletes_index_flat.json"), set.Items)
		if err != nil {
			return nil, err
		}
		err = idqueue.Write(filepath.Join(opts.OutDir, "espn_id_queue.csv"), result.IDs)
		if err != nil {
			return nil, err
		}
	}

	slog.Info(
		"athletes index pulled",
		"items", len(set.Items),
		"ids", len(result.IDs),
		"pages", set.Pages,
		"negotiated", set.Negotiated,
	)
	return result, nil
}
