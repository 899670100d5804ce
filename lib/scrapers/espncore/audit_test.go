package espncore

import (
	"os"
	"path/filepath"
	"testing"

	"leaguevault/lib/idqueue"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestAudit(t *testing.T) {
	dir := t.TempDir()
	txnDir := filepath.Join(dir, "espn_transactions")
	lineupsDir := filepath.Join(dir, "espn_lineups")
	pagesDir := filepath.Join(dir, "index", "pages")
	verifyDir := filepath.Join(dir, "verify")

	writeFile(t, filepath.Join(txnDir, "transactions_2023.json"), `{
		"transactions": [
			{"id": "a", "items": [{"playerId": 10}, {"playerId": 11}]},
			{"id": "b", "items": [{"playerId": "12"}, {}]}
		]
	}`)
	writeFile(t, filepath.Join(lineupsDir, "2023", "week-1.json"), `{
		"lineups": [{"player_id": "11"}, {"player_id": "13"}]
	}`)
	writeFile(t, filepath.Join(pagesDir, "athletes_index_0001.json"), `{
		"items": [{"id": 10}, {"id": "11"}, {"id": 99}],
		"pageIndex": 1,
		"pageCount": 1
	}`)

	report, err := Audit(AuditOptions{
		TransactionsDir: txnDir,
		LineupsDir:      lineupsDir,
		IndexPagesDir:   pagesDir,
		VerifyDir:       verifyDir,
	})
	require.NoError(t, err)

	require.Equal(t, 3, report.Transactions)
	require.Equal(t, 2, report.Lineups)
	require.Equal(t, 4, report.TotalSeen)
	require.Equal(t, 3, report.IndexTotal)
	require.Equal(t, 2, report.MissingFromIndex)

	missing, err := idqueue.Read(filepath.Join(verifyDir, "espn_ids_missing.csv"))
	require.NoError(t, err)
	require.Equal(t, []int64{12, 13}, missing)

	_, err = os.Stat(filepath.Join(verifyDir, "espn_ids_seen.json"))
	require.NoError(t, err)
}

func TestAuditMissingDirs(t *testing.T) {
	dir := t.TempDir()
	report, err := Audit(AuditOptions{
		TransactionsDir: filepath.Join(dir, "none"),
		LineupsDir:      filepath.Join(dir, "none2"),
		IndexPagesDir:   filepath.Join(dir, "none3"),
	})
	require.NoError(t, err)
	require.Zero(t, report.TotalSeen)
}
