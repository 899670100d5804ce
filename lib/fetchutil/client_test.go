package fetchutil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(retries int) *Client {
	return NewClient(ClientOptions{
		Timeout:     time.Second * 5,
		Retries:     retries,
		BackoffBase: 1.1,
		BackoffUnit: time.Millisecond,
	})
}

func TestFetchJSONRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer server.Close()

	client := newTestClient(3)
	res, err := client.FetchJSON(context.Background(), server.URL, nil, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.Status)
	require.True(t, res.IsJSON())
	require.Equal(t, int32(3), calls.Load())
}

func TestFetchJSONDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, "gone")
	}))
	defer server.Close()

	client := newTestClient(3)
	res, err := client.FetchJSON(context.Background(), server.URL, nil, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, res.Status)
	require.False(t, res.IsJSON())
	require.Equal(t, "gone", res.Body)
	require.Equal(t, int32(1), calls.Load())
}

func TestFetchJSONExhaustsRetryBudget(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(2)
	_, err := client.FetchJSON(context.Background(), server.URL, url.Values{"view": []string{"mSettings"}}, nil)
	require.Error(t, err)

	var exhausted *ExhaustedError
	require.True(t, errors.As(err, &exhausted))
	require.Equal(t, 3, exhausted.Attempts)
	require.Equal(t, server.URL, exhausted.URL)
	require.Contains(t, exhausted.Error(), "view=mSettings")
	require.Equal(t, int32(3), calls.Load())
}

func TestFetchJSONTransportFailure(t *testing.T) {
	client := newTestClient(-1)
	_, err := client.FetchJSON(context.Background(), "http://127.0.0.1:1", nil, nil)
	require.Error(t, err)

	var exhausted *ExhaustedError
	require.True(t, errors.As(err, &exhausted))
	require.NotNil(t, exhausted.Unwrap())
}

func TestFetchJSONNonJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html>login required</html>")
	}))
	defer server.Close()

	client := newTestClient(-1)
	res, err := client.FetchJSON(context.Background(), server.URL, nil, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.Status)
	require.False(t, res.IsJSON())
	require.Nil(t, res.Payload)
}

func TestFetchRawReturnsServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, "boom")
	}))
	defer server.Close()

	client := newTestClient(-1)
	res, err := client.FetchRaw(context.Background(), server.URL, nil, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusInternalServerError, res.Status)
	require.Equal(t, "boom", res.Body)
}

func TestFetchJSONSendsParamsAndHeaders(t *testing.T) {
	var gotQuery url.Values
	var gotFilter string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotFilter = r.Header.Get("X-Fantasy-Filter")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	client := newTestClient(-1)
	params := url.Values{}
	params.Add("view", "mMatchup")
	params.Add("view", "mRoster")
	params.Set("scoringPeriodId", "3")
	headers := http.Header{"X-Fantasy-Filter": []string{`{"transactions":{}}`}}

	_, err := client.FetchJSON(context.Background(), server.URL, params, headers)
	require.NoError(t, err)
	require.Equal(t, []string{"mMatchup", "mRoster"}, gotQuery["view"])
	require.Equal(t, "3", gotQuery.Get("scoringPeriodId"))
	require.Equal(t, `{"transactions":{}}`, gotFilter)
}
