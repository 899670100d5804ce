package espn

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"

	"leaguevault/lib/atomicfile"
	"leaguevault/lib/fetchutil"
)

// ErrExhaustedVariants means every request variant for a resource came
// back structurally broken or logically empty. Depending on the resource
// that is either fatal or just "nothing happened this period".
var ErrExhaustedVariants = errors.New("every request variant returned an unusable payload")

// descriptor is one fully-specified request variant: a URL shape, query
// params, and an optional X-Fantasy-Filter header value.
type descriptor struct {
	url    string
	params url.Values
	filter string
}

// unwrap normalizes a payload to a key-indexed object. The API sometimes
// wraps the object in a single-element array (the leagueHistory shape);
// anything else non-object yields nil.
func unwrap(raw json.RawMessage) map[string]json.RawMessage {
	if raw == nil {
		return nil
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var arr []json.RawMessage
		if json.Unmarshal(trimmed, &arr) != nil || len(arr) == 0 {
			return nil
		}
		trimmed = bytes.TrimSpace(arr[0])
	}
	var obj map[string]json.RawMessage
	if json.Unmarshal(trimmed, &obj) != nil {
		return nil
	}
	return obj
}

// unmarshalUnwrapped decodes raw into v after stripping the optional
// single-element array wrapper.
func unmarshalUnwrapped(raw json.RawMessage, v any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var arr []json.RawMessage
		err := json.Unmarshal(trimmed, &arr)
		if err != nil {
			return err
		}
		if len(arr) == 0 {
			return fmt.Errorf("empty array payload")
		}
		trimmed = bytes.TrimSpace(arr[0])
	}
	return json.Unmarshal(trimmed, v)
}

// nonEmptyArray reports whether payload[key] decodes to an array with at
// least one element.
func nonEmptyArray(payload map[string]json.RawMessage, key string) bool {
	raw, ok := payload[key]
	if !ok {
		return false
	}
	var arr []json.RawMessage
	if json.Unmarshal(raw, &arr) != nil {
		return false
	}
	return len(arr) > 0
}

// nonEmptyObject reports whether payload[key] decodes to an object with
// at least one key.
func nonEmptyObject(payload map[string]json.RawMessage, key string) bool {
	raw, ok := payload[key]
	if !ok {
		return false
	}
	var obj map[string]json.RawMessage
	if json.Unmarshal(raw, &obj) != nil {
		return false
	}
	return len(obj) > 0
}

// resolveFirst tries descriptors in order and returns the first payload
// that unwraps to an object satisfying valid, along with the index of
// the descriptor that produced it. A variant whose retry budget runs out
// is a hard failure; a variant that merely responds with an unusable
// payload falls through to the next. When all variants fall through, the
// last exchange is snapshotted and ErrExhaustedVariants is returned.
func (c *Client) resolveFirst(
	ctx context.Context,
	descs []descriptor,
	valid func(payload map[string]json.RawMessage) bool,
) (map[string]json.RawMessage, int, error) {
	var last *fetchutil.Result
	var lastDesc descriptor

	for i, d := range descs {
		var headers http.Header
		if d.filter != "" {
			headers = http.Header{"X-Fantasy-Filter": []string{d.filter}}
		}

		res, err := c.fetch.FetchJSON(ctx, d.url, d.params, headers)
		if err != nil {
			return nil, i, err
		}

		payload := unwrap(res.Payload)
		if payload != nil && valid(payload) {
			return payload, i, nil
		}

		slog.Debug(
			"request variant rejected",
			"url", d.url,
			"params", d.params.Encode(),
			"status", res.Status,
			"json", res.IsJSON(),
		)
		r := res
		last = &r
		lastDesc = d
	}

	if last != nil {
		c.writeSnapshot(lastDesc, *last)
	}
	return nil, -1, ErrExhaustedVariants
}

type snapshot struct {
	URL         string      `json:"url"`
	Params      url.Values  `json:"params"`
	Status      int         `json:"status"`
	Headers     http.Header `json:"headers"`
	Body        string      `json:"body"`
	PayloadKeys []string    `json:"payload_keys"`
}

// writeSnapshot persists the last failed exchange to a fixed path so the
// operator can inspect what the API actually said. Best effort.
func (c *Client) writeSnapshot(d descriptor, res fetchutil.Result) {
	body := res.Body
	if len(body) > 2000 {
		body = body[:2000]
	}
	snap := snapshot{
		URL:     d.url,
		Params:  d.params,
		Status:  res.Status,
		Headers: res.Header,
		Body:    body,
	}
	if obj := unwrap(res.Payload); obj != nil {
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		snap.PayloadKeys = keys
	}

	err := atomicfile.WriteJSON(c.snapshotPath, snap)
	if err != nil {
		slog.Warn("failed to write exchange snapshot", "path", c.snapshotPath, "err", err)
	}
}
