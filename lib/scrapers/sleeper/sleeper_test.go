package sleeper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPullSeasonTransactions(t *testing.T) {
	var rounds []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Contains(t, r.URL.Path, "/v1/league/9876/transactions/")
		round := r.URL.Path[len("/v1/league/9876/transactions/"):]
		rounds = append(rounds, round)

		w.Header().Set("Content-Type", "application/json")
		switch round {
		case "1":
			fmt.Fprint(w, `[{"transaction_id":"t1","type":"waiver"},{"transaction_id":"t2","week":5}]`)
		default:
			fmt.Fprint(w, `[]`)
		}
	}))
	defer server.Close()

	client, err := NewClient(ClientOptions{
		LeagueID: "9876",
		BaseURL:  server.URL,
		Timeout:  time.Second * 5,
		Retries:  -1,
		Delay:    time.Millisecond,
	})
	require.NoError(t, err)

	result, err := client.PullSeasonTransactions(context.Background(), 2025, 3)
	require.NoError(t, err)

	require.Equal(t, 2025, result.Season)
	require.Equal(t, "9876", result.LeagueID)
	require.Equal(t, []string{"1", "2", "3"}, rounds)
	require.Len(t, result.Transactions, 2)

	// rows without a week get the round they were fetched under;
	// rows that already carry one keep it
	require.EqualValues(t, 1, result.Transactions[0]["week"])
	require.EqualValues(t, 5, result.Transactions[1]["week"])
}

func TestPullSeasonTransactionsBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client, err := NewClient(ClientOptions{
		LeagueID: "9876",
		BaseURL:  server.URL,
		Retries:  -1,
		Delay:    time.Millisecond,
	})
	require.NoError(t, err)

	_, err = client.PullSeasonTransactions(context.Background(), 2025, 1)
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 403")
}

func TestNewClientRequiresLeague(t *testing.T) {
	_, err := NewClient(ClientOptions{})
	require.Error(t, err)
}
