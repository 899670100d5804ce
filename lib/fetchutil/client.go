// Package fetchutil wraps resty with the retry and pagination behavior
// shared by every upstream crawler: bounded exponential backoff on
// transient failures, pass-through of deterministic HTTP errors, and
// runtime negotiation of pagination conventions.
package fetchutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"leaguevault/lib/restyutil"
	"leaguevault/lib/telemetry"

	"github.com/go-resty/resty/v2"
)

// Result is one completed HTTP exchange. Payload is populated only when
// the body parsed as JSON; Body always carries the raw text.
type Result struct {
	URL     string
	Status  int
	Header  http.Header
	Body    string
	Payload json.RawMessage
}

func (r Result) IsJSON() bool {
	return r.Payload != nil
}

// ExhaustedError reports that the retry budget for a single request ran
// out. It carries the attempted URL and params for diagnosis.
type ExhaustedError struct {
	URL      string
	Params   url.Values
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf(
		"fetch exhausted after %d attempts: %s params=%s: %v",
		e.Attempts, e.URL, e.Params.Encode(), e.Last,
	)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

type ClientOptions struct {
	// per-attempt timeout, defaults to 30s
	Timeout time.Duration
	// retries after the first attempt, defaults to 6; negative disables
	Retries int
	// retry wait is BackoffBase^attempt units, defaults to 1.4
	BackoffBase float64
	// one backoff time unit, defaults to a second
	BackoffUnit time.Duration
	UserAgent   string
	Headers     map[string]string
	// tracer name for instrumentation
	Name string
	// optional sink for raw exchange dumps at debug level
	DebugOutput restyutil.InstrumentOutput
}

type Client struct {
	http     *resty.Client
	attempts int
}

func NewClient(opts ClientOptions) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = time.Second * 30
	}
	retries := opts.Retries
	if retries == 0 {
		retries = 6
	}
	if retries < 0 {
		retries = 0
	}
	base := opts.BackoffBase
	if base <= 0 {
		base = 1.4
	}
	unit := opts.BackoffUnit
	if unit <= 0 {
		unit = time.Second
	}
	name := opts.Name
	if name == "" {
		name = "fetchutil"
	}

	client := resty.New()
	client.SetTimeout(opts.Timeout)
	client.SetHeader("Accept", "application/json")
	if opts.UserAgent != "" {
		client.SetHeader("User-Agent", opts.UserAgent)
	}
	for k, v := range opts.Headers {
		client.SetHeader(k, v)
	}

	client.SetRetryCount(retries)
	client.SetRetryMaxWaitTime(time.Minute * 2)
	client.AddRetryCondition(func(res *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		// 4xx is deterministic, the caller deals with it
		return res.StatusCode() >= http.StatusInternalServerError
	})
	client.SetRetryAfter(func(_ *resty.Client, res *resty.Response) (time.Duration, error) {
		wait := math.Pow(base, float64(res.Request.Attempt))
		return time.Duration(wait * float64(unit)), nil
	})

	telemetry.InstrumentResty(client, name, opts.DebugOutput)

	return &Client{http: client, attempts: retries + 1}
}

// FetchJSON performs a GET with the client's retry policy. Transport
// failures and 5xx statuses are retried with backoff and surface as
// *ExhaustedError once the budget runs out; any other status is returned
// as-is. Logical validation of the payload is the caller's job.
func (c *Client) FetchJSON(ctx context.Context, rawURL string, params url.Values, headers http.Header) (Result, error) {
	req := c.http.R().SetContext(ctx)
	if len(params) > 0 {
		req.SetQueryParamsFromValues(params)
	}
	if len(headers) > 0 {
		req.SetHeaderMultiValues(headers)
	}

	res, err := req.Get(rawURL)
	if err != nil {
		return Result{}, &ExhaustedError{
			URL:      rawURL,
			Params:   params,
			Attempts: c.attempts,
			Last:     err,
		}
	}
	if res.StatusCode() >= http.StatusInternalServerError {
		return Result{}, &ExhaustedError{
			URL:      rawURL,
			Params:   params,
			Attempts: c.attempts,
			Last:     fmt.Errorf("server error: %s", res.Status()),
		}
	}

	return buildResult(res, rawURL), nil
}

// FetchRaw performs a GET and returns the exchange whatever the status.
// Only transport failures surface as errors; retries still apply per the
// client's policy.
func (c *Client) FetchRaw(ctx context.Context, rawURL string, params url.Values, headers http.Header) (Result, error) {
	req := c.http.R().SetContext(ctx)
	if len(params) > 0 {
		req.SetQueryParamsFromValues(params)
	}
	if len(headers) > 0 {
		req.SetHeaderMultiValues(headers)
	}

	res, err := req.Get(rawURL)
	if err != nil {
		return Result{}, err
	}
	return buildResult(res, rawURL), nil
}

func buildResult(res *resty.Response, rawURL string) Result {
	result := Result{
		URL:    finalURL(res, rawURL),
		Status: res.StatusCode(),
		Header: res.Header(),
		Body:   res.String(),
	}
	body := res.Body()
	if len(bytes.TrimSpace(body)) > 0 && json.Valid(body) {
		result.Payload = json.RawMessage(append([]byte(nil), body...))
	}
	return result
}

func finalURL(res *resty.Response, fallback string) string {
	if res.RawResponse != nil && res.RawResponse.Request != nil && res.RawResponse.Request.URL != nil {
		return res.RawResponse.Request.URL.String()
	}
	return fallback
}
