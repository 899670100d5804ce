package commands

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"leaguevault/lib/atomicfile"
	"leaguevault/lib/osutil"
	"leaguevault/lib/scrapers/espn"

	"github.com/spf13/cobra"
)

var lineupsOutdir *string

func init() {
	lineupsOutdir = lineupsCmd.Flags().String("outdir", "", "Output directory, defaults to <data_dir>/espn_lineups.")
	rootCmd.AddCommand(lineupsCmd)
}

var lineupsCmd = &cobra.Command{
	Use:   "lineups",
	Short: "Pull weekly rosters for every season in the configured range.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		requireESPNLeague(cfg)
		cookie := loadCookie()

		outdir := *lineupsOutdir
		if outdir == "" {
			outdir = filepath.Join(cfg.DataDir, "espn_lineups")
		}

		client, err := espn.NewClient(espn.ClientOptions{
			LeagueID: cfg.ESPN.LeagueID,
			Cookie:   cookie,
		})
		if err != nil {
			osutil.Fatal("failed to initialize espn client", err)
		}

		ctx := cmd.Context()
		for season := cfg.ESPN.StartSeason; season <= cfg.ESPN.EndSeason; season++ {
			for week := 1; week <= 18; week++ {
				payload, err := client.FetchWeekLineups(ctx, season, week)
				if err != nil {
					osutil.Fatal(fmt.Sprintf("failed to pull lineups for season %d week %d", season, week), err)
				}

				path := filepath.Join(outdir, fmt.Sprintf("%d", season), fmt.Sprintf("week-%d.json", week))
				err = atomicfile.WriteJSON(path, payload)
				if err != nil {
					osutil.Fatal("failed to write lineup artifact", err)
				}
				slog.Info("saved lineups", "season", season, "week", week, "count", len(payload.Lineups), "path", path)
			}
		}
	},
}
