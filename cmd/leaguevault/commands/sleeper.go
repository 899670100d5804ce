package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"leaguevault/lib/atomicfile"
	"leaguevault/lib/osutil"
	"leaguevault/lib/scrapers/sleeper"

	"github.com/spf13/cobra"
)

var sleeperOutdir *string

func init() {
	sleeperOutdir = sleeperCmd.Flags().String("outdir", "", "Output directory, defaults to <data_dir>/sleeper.")
	rootCmd.AddCommand(sleeperCmd)
}

var sleeperCmd = &cobra.Command{
	Use:   "sleeper",
	Short: "Pull league transactions from the Sleeper public API.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		if cfg.Sleeper.LeagueID == "" {
			osutil.Fatal("missing Sleeper league id", errors.New("set SLEEPER_LEAGUE_ID or sleeper.league_id in leaguevault.json5"))
		}

		outdir := *sleeperOutdir
		if outdir == "" {
			outdir = filepath.Join(cfg.DataDir, "sleeper")
		}

		client, err := sleeper.NewClient(sleeper.ClientOptions{
			LeagueID: cfg.Sleeper.LeagueID,
		})
		if err != nil {
			osutil.Fatal("failed to initialize sleeper client", err)
		}

		payload, err := client.PullSeasonTransactions(cmd.Context(), cfg.ESPN.Season, cfg.Sleeper.MaxRound)
		if err != nil {
			osutil.Fatal("failed to pull sleeper transactions", err)
		}

		path := filepath.Join(outdir, fmt.Sprintf("transactions-%d.json", cfg.ESPN.Season))
		err = atomicfile.WriteJSON(path, payload)
		if err != nil {
			osutil.Fatal("failed to write sleeper artifact", err)
		}
		slog.Info("saved sleeper transactions", "season", cfg.ESPN.Season, "count", len(payload.Transactions), "path", path)
	},
}
