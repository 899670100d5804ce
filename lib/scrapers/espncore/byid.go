package espncore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"leaguevault/lib/atomicfile"
	"leaguevault/lib/crawllog"
	"leaguevault/lib/fetchutil"
	"leaguevault/lib/idqueue"

	"github.com/mazen160/go-random"
)

// Records at or below this size are leftovers from interrupted writes or
// empty bodies; they don't count as already fetched.
const minUsefulRecordSize = 50

// ItemRecord is the on-disk form of one fetched athlete: provenance
// metadata plus either the parsed payload or, when the body wasn't
// JSON, the raw text.
type ItemRecord struct {
	Meta ItemMeta        `json:"meta"`
	Data json.RawMessage `json:"data"`
	Raw  *string         `json:"raw"`
}

type ItemMeta struct {
	Source     string `json:"source"`
	HTTPStatus int    `json:"http_status"`
	FetchedAt  string `json:"fetched_at"`
}

const fetchedAtLayout = "2006-01-02T15:04:05Z"

type CrawlOptions struct {
	// optional preconfigured client, mainly for tests
	Client    *fetchutil.Client
	BaseURL   string
	QueuePath string
	OutDir    string
	LogPath   string
	// skip this many queue entries before starting
	Start int
	// 0 means the rest of the queue
	Limit    int
	MinDelay time.Duration
	MaxDelay time.Duration
	Timeout  time.Duration
	// consult the outcome log and skip ids already fetched or known-gone
	Resume bool
}

type CrawlStats struct {
	Fetched       int
	NotFound      int
	SkippedDone   int
	SkippedExists int
	Errors        int
}

// CrawlByID fetches one record per queued identifier, writing each to
// OutDir/<id>.json and appending an outcome row to the log. Per-id
// failures are recorded and the crawl moves on; only disk failures and
// cancellation abort the run.
func CrawlByID(ctx context.Context, opts CrawlOptions) (CrawlStats, error) {
	stats := CrawlStats{}

	ids, err := idqueue.Read(opts.QueuePath)
	if err != nil {
		return stats, err
	}
	if opts.Start < 0 || opts.Start >= len(ids) {
		return stats, fmt.Errorf("start offset %d out of range for %d queued ids", opts.Start, len(ids))
	}
	ids = ids[opts.Start:]
	if opts.Limit > 0 && opts.Limit < len(ids) {
		ids = ids[:opts.Limit]
	}

	done := map[int64]struct{}{}
	if opts.Resume {
		done, err = crawllog.Completed(opts.LogPath)
		if err != nil {
			return stats, err
		}
	}

	log, err := crawllog.Open(opts.LogPath)
	if err != nil {
		return stats, err
	}
	defer log.Close()

	client := opts.Client
	if client == nil {
		client = newCrawlClient(opts.Timeout)
	}
	baseURL := strings.TrimSuffix(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if _, ok := done[id]; ok {
			stats.SkippedDone++
			continue
		}

		outPath := filepath.Join(opts.OutDir, fmt.Sprintf("%d.json", id))
		if info, err := os.Stat(outPath); err == nil && info.Size() > minUsefulRecordSize {
			stats.SkippedExists++
			err = log.Append(crawllog.Entry{
				ID:     id,
				Status: crawllog.StatusSkipExists,
				Bytes:  info.Size(),
				Path:   outPath,
			})
			if err != nil {
				return stats, err
			}
			continue
		}

		url := fmt.Sprintf("%s/%d", baseURL, id)
		res, err := client.FetchRaw(ctx, url, nil, nil)
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			stats.Errors++
			err = log.Append(crawllog.Entry{
				ID:     id,
				Status: crawllog.StatusException,
				Error:  err.Error(),
			})
			if err != nil {
				return stats, err
			}
			sleepJitter(ctx, opts.MinDelay, opts.MaxDelay)
			continue
		}

		var entry crawllog.Entry
		switch {
		case res.Status == http.StatusOK && strings.TrimSpace(res.Body) != "":
			record := ItemRecord{
				Meta: ItemMeta{
					Source:     url,
					HTTPStatus: res.Status,
					FetchedAt:  time.Now().UTC().Format(fetchedAtLayout),
				},
			}
			if res.IsJSON() {
				record.Data = res.Payload
			} else {
				raw := res.Body
				record.Raw = &raw
			}

			data, err := json.Marshal(record)
			if err != nil {
				return stats, err
			}
			err = atomicfile.WriteFile(outPath, data)
			if err != nil {
				return stats, err
			}

			stats.Fetched++
			entry = crawllog.Entry{
				ID:         id,
				Status:     crawllog.StatusOK,
				HTTPStatus: res.Status,
				Bytes:      int64(len(data)),
				Path:       outPath,
			}
		case res.Status == http.StatusNotFound:
			stats.NotFound++
			entry = crawllog.Entry{
				ID:         id,
				Status:     crawllog.StatusNotFound,
				HTTPStatus: res.Status,
				Bytes:      int64(len(res.Body)),
			}
		default:
			stats.Errors++
			preview := strings.ReplaceAll(res.Body, "\n", " ")
			if len(preview) > 200 {
				preview = preview[:200]
			}
			entry = crawllog.Entry{
				ID:         id,
				Status:     crawllog.StatusHTTPError,
				HTTPStatus: res.Status,
				Bytes:      int64(len(res.Body)),
				Error:      preview,
			}
		}
		err = log.Append(entry)
		if err != nil {
			return stats, err
		}

		sleepJitter(ctx, opts.MinDelay, opts.MaxDelay)
	}

	slog.Info(
		"by-id crawl finished",
		"fetched", stats.Fetched,
		"not_found", stats.NotFound,
		"skipped_done", stats.SkippedDone,
		"skipped_exists", stats.SkippedExists,
		"errors", stats.Errors,
	)
	return stats, nil
}

// sleepJitter pauses for a random duration in [min, max] so the crawl
// doesn't hit the API at a fixed cadence.
func sleepJitter(ctx context.Context, min, max time.Duration) {
	d := min
	if max > min {
		ms, err := random.IntRange(int(min/time.Millisecond), int(max/time.Millisecond)+1)
		if err == nil {
			d = time.Duration(ms) * time.Millisecond
		}
	}
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
