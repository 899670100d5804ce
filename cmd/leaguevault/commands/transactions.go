package commands

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"leaguevault/lib/atomicfile"
	"leaguevault/lib/osutil"
	"leaguevault/lib/restyutil"
	"leaguevault/lib/scrapers/espn"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	transactionsOutdir *string
	transactionsDebug  *bool
)

func init() {
	transactionsOutdir = transactionsCmd.Flags().String("outdir", "", "Output directory, defaults to <data_dir>/espn_transactions.")
	transactionsDebug = transactionsCmd.Flags().Bool("debug-http", false, "Dump raw HTTP exchanges to .dev/resty/espn.")
	rootCmd.AddCommand(transactionsCmd)
}

var transactionsCmd = &cobra.Command{
	Use:   "transactions",
	Short: "Pull ESPN league transactions for the configured season range.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		requireESPNLeague(cfg)
		cookie := loadCookie()

		outdir := *transactionsOutdir
		if outdir == "" {
			outdir = filepath.Join(cfg.DataDir, "espn_transactions")
		}

		var debugOutput restyutil.InstrumentOutput
		if *transactionsDebug {
			debugOutput = restyutil.NewFilesystemOutput(".dev/resty/espn")
		}

		client, err := espn.NewClient(espn.ClientOptions{
			LeagueID:    cfg.ESPN.LeagueID,
			Cookie:      cookie,
			DebugOutput: debugOutput,
		})
		if err != nil {
			osutil.Fatal("failed to initialize espn client", err)
		}

		ctx := cmd.Context()
		var seasons []*espn.SeasonTransactions

		t := newTable()
		t.AppendHeader(table.Row{"Season", "Transactions", "Output"})

		for year := cfg.ESPN.StartSeason; year <= cfg.ESPN.EndSeason; year++ {
			payload, err := client.PullSeasonTransactions(ctx, year)
			if err != nil {
				osutil.Fatal(fmt.Sprintf("failed to pull season %d", year), err)
			}

			path := filepath.Join(outdir, fmt.Sprintf("transactions_%d.json", year))
			err = atomicfile.WriteJSON(path, payload)
			if err != nil {
				osutil.Fatal("failed to write season artifact", err)
			}

			slog.Info("saved season transactions", "season", year, "count", len(payload.Transactions), "path", path)
			t.AppendRow(table.Row{year, len(payload.Transactions), path})
			seasons = append(seasons, payload)
		}

		combined := espn.Combine(cfg.ESPN.LeagueID, cfg.ESPN.StartSeason, cfg.ESPN.EndSeason, seasons)
		combinedPath := filepath.Join(
			outdir,
			fmt.Sprintf("transactions_%d_%d.json", cfg.ESPN.StartSeason, cfg.ESPN.EndSeason),
		)
		err = atomicfile.WriteJSON(combinedPath, combined)
		if err != nil {
			osutil.Fatal("failed to write combined artifact", err)
		}

		t.AppendFooter(table.Row{"total", len(combined.Transactions), combinedPath})
		t.Render()
	},
}
