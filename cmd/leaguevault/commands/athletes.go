package commands

import (
	"log/slog"
	"path/filepath"

	"leaguevault/lib/osutil"
	"leaguevault/lib/scrapers/espncore"

	"github.com/spf13/cobra"
)

var (
	athletesOutdir   *string
	athletesPageSize *int
	athletesMaxPages *int
	athletesResume   *bool
)

func init() {
	athletesOutdir = athletesCmd.Flags().String("outdir", "", "Output directory, defaults to <data_dir>/espn_core/index.")
	athletesPageSize = athletesCmd.Flags().Int("page-size", 200000, "Requested items per index page.")
	athletesMaxPages = athletesCmd.Flags().Int("max-pages", 0, "Stop after this many pages (0 = all).")
	athletesResume = athletesCmd.Flags().Bool("resume", false, "Reuse already-fetched page artifacts.")
	rootCmd.AddCommand(athletesCmd)
}

var athletesCmd = &cobra.Command{
	Use:   "athletes",
	Short: "Pull the full NFL athletes index from the public core API.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		outdir := *athletesOutdir
		if outdir == "" {
			outdir = filepath.Join(cfg.DataDir, "espn_core", "index")
		}

		result, err := espncore.PullIndex(cmd.Context(), espncore.IndexOptions{
			OutDir:   outdir,
			PageSize: *athletesPageSize,
			MaxPages: *athletesMaxPages,
			Resume:   *athletesResume,
		})
		if err != nil {
			osutil.Fatal("failed to pull athletes index", err)
		}

		slog.Info(
			"athletes index complete",
			"items", len(result.Items),
			"pages", result.Pages,
			"queue", filepath.Join(outdir, "espn_id_queue.csv"),
		)
	},
}
