package commands

import (
	"path/filepath"
	"time"

	"leaguevault/lib/osutil"
	"leaguevault/lib/scrapers/espncore"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	coreidsQueue    *string
	coreidsOutdir   *string
	coreidsLog      *string
	coreidsStart    *int
	coreidsLimit    *int
	coreidsMinDelay *time.Duration
	coreidsMaxDelay *time.Duration
	coreidsTimeout  *time.Duration
	coreidsResume   *bool
)

func init() {
	coreidsQueue = coreidsCmd.Flags().String("id-csv", "", "Identifier queue, defaults to <data_dir>/espn_core/espn_id_queue.csv.")
	coreidsOutdir = coreidsCmd.Flags().String("outdir", "", "Record directory, defaults to <data_dir>/espn_core/athletes_by_id.")
	coreidsLog = coreidsCmd.Flags().String("log", "", "Outcome log, defaults to <data_dir>/espn_core/pull_by_id_log.csv.")
	coreidsStart = coreidsCmd.Flags().Int("start", 0, "Skip this many queue entries before starting.")
	coreidsLimit = coreidsCmd.Flags().Int("limit", 0, "Fetch at most this many ids (0 = rest of queue).")
	coreidsMinDelay = coreidsCmd.Flags().Duration("min-delay", 250*time.Millisecond, "Minimum pause between fetches.")
	coreidsMaxDelay = coreidsCmd.Flags().Duration("max-delay", 750*time.Millisecond, "Maximum pause between fetches.")
	coreidsTimeout = coreidsCmd.Flags().Duration("timeout", 20*time.Second, "Per-request timeout.")
	coreidsResume = coreidsCmd.Flags().Bool("resume", false, "Skip ids the outcome log already settled.")
	rootCmd.AddCommand(coreidsCmd)
}

func renderCrawlStats(stats espncore.CrawlStats) {
	t := newTable()
	t.AppendHeader(table.Row{"Outcome", "Count"})
	t.AppendRow(table.Row{"fetched", stats.Fetched})
	t.AppendRow(table.Row{"not found", stats.NotFound})
	t.AppendRow(table.Row{"skipped (log)", stats.SkippedDone})
	t.AppendRow(table.Row{"skipped (exists)", stats.SkippedExists})
	t.AppendRow(table.Row{"errors", stats.Errors})
	t.Render()
}

var coreidsCmd = &cobra.Command{
	Use:   "core-ids",
	Short: "Crawl per-athlete records from the core API by queued id.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		coreDir := filepath.Join(cfg.DataDir, "espn_core")

		queue := *coreidsQueue
		if queue == "" {
			queue = filepath.Join(coreDir, "espn_id_queue.csv")
		}
		outdir := *coreidsOutdir
		if outdir == "" {
			outdir = filepath.Join(coreDir, "athletes_by_id")
		}
		logPath := *coreidsLog
		if logPath == "" {
			logPath = filepath.Join(coreDir, "pull_by_id_log.csv")
		}

		stats, err := espncore.CrawlByID(cmd.Context(), espncore.CrawlOptions{
			QueuePath: queue,
			OutDir:    outdir,
			LogPath:   logPath,
			Start:     *coreidsStart,
			Limit:     *coreidsLimit,
			MinDelay:  *coreidsMinDelay,
			MaxDelay:  *coreidsMaxDelay,
			Timeout:   *coreidsTimeout,
			Resume:    *coreidsResume,
		})
		if err != nil {
			renderCrawlStats(stats)
			osutil.Fatal("crawl aborted", err)
		}
		renderCrawlStats(stats)
	},
}
