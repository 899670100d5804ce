package fetchutil

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"leaguevault/lib/atomicfile"
)

// ParamStyle is one candidate pagination parameter-naming convention.
// The upstream API has no documented contract, so the accepted pair has
// to be discovered by probing.
type ParamStyle struct {
	Page string
	Size string
}

var DefaultParamStyles = []ParamStyle{
	{Page: "page", Size: "limit"},
	{Page: "pageIndex", Size: "pageSize"},
}

// Envelope is the decoded paging envelope of a collection response.
// HasItems/HasIndex track key presence, which is what negotiation keys
// off of; an empty items list is still a match.
type Envelope struct {
	Items     []json.RawMessage
	HasItems  bool
	PageIndex int
	HasIndex  bool
	PageCount int
}

func DecodeEnvelope(raw []byte) (Envelope, error) {
	var top map[string]json.RawMessage
	err := json.Unmarshal(raw, &top)
	if err != nil {
		return Envelope{}, err
	}

	env := Envelope{}
	if itemsRaw, ok := top["items"]; ok {
		env.HasItems = true
		// a null items value decodes to nil, which reads as end-of-data
		json.Unmarshal(itemsRaw, &env.Items)
	}
	if idxRaw, ok := top["pageIndex"]; ok {
		var idx int
		if json.Unmarshal(idxRaw, &idx) == nil {
			env.PageIndex = idx
			env.HasIndex = true
		}
	}
	if countRaw, ok := top["pageCount"]; ok {
		var count int
		if json.Unmarshal(countRaw, &count) == nil {
			env.PageCount = count
		}
	}
	return env, nil
}

// PageSet is the outcome of a full pagination walk.
type PageSet struct {
	Items []json.RawMessage
	// the convention the endpoint accepted; zero when Negotiated is false
	Style      ParamStyle
	Negotiated bool
	Pages      int
}

// Paginator negotiates a pagination convention against a collection
// endpoint and walks it to exhaustion. Each fetched page is persisted
// verbatim as an artifact named by zero-padded index, and with Resume
// set an existing artifact for the next index is reused instead of
// re-fetched.
type Paginator struct {
	Client         *Client
	URL            string
	PageSize       int
	Styles         []ParamStyle
	ArtifactDir    string
	ArtifactPrefix string
	// 0 means no cap
	MaxPages int
	Resume   bool
}

func (p Paginator) artifactPath(index int) string {
	return filepath.Join(p.ArtifactDir, fmt.Sprintf("%s_%04d.json", p.ArtifactPrefix, index))
}

func (p Paginator) saveArtifact(index int, payload []byte) error {
	if p.ArtifactDir == "" {
		return nil
	}
	return atomicfile.WriteFile(p.artifactPath(index), payload)
}

func (p Paginator) Run(ctx context.Context) (PageSet, error) {
	styles := p.Styles
	if len(styles) == 0 {
		styles = DefaultParamStyles
	}
	pageSize := p.PageSize
	if pageSize <= 0 {
		pageSize = 200000
	}

	out := PageSet{}
	pageIndex := 1
	pageCount := 0

	// one discovery probe per candidate; the first match is fixed for
	// the remainder of the run
	var chosen *ParamStyle
	for _, style := range styles {
		params := url.Values{}
		params.Set(style.Page, "1")
		params.Set(style.Size, strconv.Itoa(pageSize))

		res, err := p.Client.FetchJSON(ctx, p.URL, params, nil)
		if err != nil || !res.IsJSON() {
			continue
		}
		env, err := DecodeEnvelope(res.Payload)
		if err != nil || !env.HasItems || !env.HasIndex {
			continue
		}

		s := style
		chosen = &s
		err = p.saveArtifact(1, res.Payload)
		if err != nil {
			return out, err
		}
		out.Items = append(out.Items, env.Items...)
		out.Pages = 1
		pageCount = env.PageCount
		pageIndex = env.PageIndex + 1
		break
	}

	if chosen == nil {
		// no convention matched, treat the collection as a single page
		slog.Warn("no pagination convention accepted, falling back to single page", "url", p.URL)

		params := url.Values{}
		params.Set(styles[0].Size, strconv.Itoa(pageSize))
		res, err := p.Client.FetchJSON(ctx, p.URL, params, nil)
		if err != nil {
			return out, err
		}
		if !res.IsJSON() {
			return out, fmt.Errorf("collection endpoint returned non-JSON payload (status %d)", res.Status)
		}
		env, err := DecodeEnvelope(res.Payload)
		if err != nil {
			return out, err
		}
		if len(env.Items) == 0 {
			return out, fmt.Errorf("no items collection in unpaginated response from %s", p.URL)
		}
		err = p.saveArtifact(1, res.Payload)
		if err != nil {
			return out, err
		}
		out.Items = env.Items
		out.Pages = 1
		return out, nil
	}

	out.Style = *chosen
	out.Negotiated = true
	slog.Debug(
		"pagination convention fixed",
		"page_param", chosen.Page,
		"size_param", chosen.Size,
		"page_count", pageCount,
	)

	if pageCount <= 1 {
		return out, nil
	}
	maxPages := pageCount
	if p.MaxPages > 0 && p.MaxPages < maxPages {
		maxPages = p.MaxPages
	}

	for out.Pages < maxPages {
		err := ctx.Err()
		if err != nil {
			return out, err
		}

		var payload []byte
		if p.Resume {
			cached, err := os.ReadFile(p.artifactPath(pageIndex))
			if err == nil {
				payload = cached
			}
		}
		if payload == nil {
			params := url.Values{}
			params.Set(chosen.Page, strconv.Itoa(pageIndex))
			params.Set(chosen.Size, strconv.Itoa(pageSize))

			res, err := p.Client.FetchJSON(ctx, p.URL, params, nil)
			if err != nil {
				return out, err
			}
			if !res.IsJSON() {
				break
			}
			payload = res.Payload
			err = p.saveArtifact(pageIndex, payload)
			if err != nil {
				return out, err
			}
		}

		env, err := DecodeEnvelope(payload)
		if err != nil {
			return out, err
		}
		if len(env.Items) == 0 {
			// natural end of data
			break
		}
		out.Items = append(out.Items, env.Items...)
		out.Pages++

		if env.HasIndex {
			pageIndex = env.PageIndex + 1
		} else {
			pageIndex++
		}
	}

	return out, nil
}
