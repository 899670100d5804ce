package commands

import (
	"path/filepath"

	"leaguevault/lib/osutil"
	"leaguevault/lib/scrapers/espncore"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(auditCmd)
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Cross-reference archived player ids against the athletes index.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		report, err := espncore.Audit(espncore.AuditOptions{
			TransactionsDir: filepath.Join(cfg.DataDir, "espn_transactions"),
			LineupsDir:      filepath.Join(cfg.DataDir, "espn_lineups"),
			IndexPagesDir:   filepath.Join(cfg.DataDir, "espn_core", "index", "pages"),
			VerifyDir:       filepath.Join(cfg.DataDir, "verify"),
		})
		if err != nil {
			osutil.Fatal("audit failed", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Metric", "Value"})
		t.AppendRow(table.Row{"transaction player ids", report.Transactions})
		t.AppendRow(table.Row{"lineup player ids", report.Lineups})
		t.AppendRow(table.Row{"total seen", report.TotalSeen})
		t.AppendRow(table.Row{"index total", report.IndexTotal})
		t.AppendRow(table.Row{"missing from index", report.MissingFromIndex})
		t.Render()
	},
}
