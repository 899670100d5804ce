package commands

import (
	"log/slog"
	"path/filepath"
	"time"

	"leaguevault/lib/idqueue"
	"leaguevault/lib/osutil"
	"leaguevault/lib/scrapers/espncore"

	"github.com/spf13/cobra"
)

var (
	requeueMissing  *string
	requeueQueue    *string
	requeueMinDelay *time.Duration
	requeueMaxDelay *time.Duration
	requeueTimeout  *time.Duration
	requeueResume   *bool
)

func init() {
	requeueMissing = requeueCmd.Flags().String("missing-csv", "", "Audit output, defaults to <data_dir>/verify/espn_ids_missing.csv.")
	requeueQueue = requeueCmd.Flags().String("queue-csv", "", "Queue to write, defaults to <data_dir>/espn_core/espn_id_queue_missing.csv.")
	requeueMinDelay = requeueCmd.Flags().Duration("min-delay", 250*time.Millisecond, "Minimum pause between fetches.")
	requeueMaxDelay = requeueCmd.Flags().Duration("max-delay", 750*time.Millisecond, "Maximum pause between fetches.")
	requeueTimeout = requeueCmd.Flags().Duration("timeout", 20*time.Second, "Per-request timeout.")
	requeueResume = requeueCmd.Flags().Bool("resume", false, "Skip ids the outcome log already settled.")
	rootCmd.AddCommand(requeueCmd)
}

var requeueCmd = &cobra.Command{
	Use:   "requeue",
	Short: "Rebuild a crawl queue from audit misses and fetch them.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		coreDir := filepath.Join(cfg.DataDir, "espn_core")

		missingPath := *requeueMissing
		if missingPath == "" {
			missingPath = filepath.Join(cfg.DataDir, "verify", "espn_ids_missing.csv")
		}
		queuePath := *requeueQueue
		if queuePath == "" {
			queuePath = filepath.Join(coreDir, "espn_id_queue_missing.csv")
		}

		ids, err := idqueue.Read(missingPath)
		if err != nil {
			osutil.Fatal("failed to read missing ids", err)
		}
		if len(ids) == 0 {
			slog.Info("no missing ids to fetch")
			return
		}
		err = idqueue.Write(queuePath, ids)
		if err != nil {
			osutil.Fatal("failed to write crawl queue", err)
		}
		slog.Info("fetching missing ids", "count", len(ids), "queue", queuePath)

		stats, err := espncore.CrawlByID(cmd.Context(), espncore.CrawlOptions{
			QueuePath: queuePath,
			OutDir:    filepath.Join(coreDir, "athletes_by_id"),
			LogPath:   filepath.Join(coreDir, "pull_by_id_log.csv"),
			MinDelay:  *requeueMinDelay,
			MaxDelay:  *requeueMaxDelay,
			Timeout:   *requeueTimeout,
			Resume:    *requeueResume,
		})
		if err != nil {
			renderCrawlStats(stats)
			osutil.Fatal("crawl aborted", err)
		}
		renderCrawlStats(stats)
	},
}
