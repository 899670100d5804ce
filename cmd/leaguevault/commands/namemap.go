package commands

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"leaguevault/lib/atomicfile"
	"leaguevault/lib/fetchutil"
	"leaguevault/lib/namestore"
	"leaguevault/lib/osutil"

	"github.com/spf13/cobra"
)

var (
	namemapDB       *string
	namemapLinkFile *string
)

func init() {
	namemapDB = namemapCmd.Flags().String("db", "", "Name database, defaults to <data_dir>/espn_core/names.db.")
	namemapLinkFile = namemapCmd.Flags().String("link-names", "", "Optional JSON array of external roster names to fuzzy-link against.")
	rootCmd.AddCommand(namemapCmd)
}

// loadSeenIDs reads the audit's seen-id set so the name map can be
// restricted to players the league actually touched. A missing audit
// file means no restriction.
func loadSeenIDs(verifyDir string) map[int64]struct{} {
	data, err := os.ReadFile(filepath.Join(verifyDir, "espn_ids_seen.json"))
	if err != nil {
		return nil
	}
	var payload struct {
		IDs []string `json:"ids"`
	}
	if json.Unmarshal(data, &payload) != nil {
		return nil
	}

	seen := map[int64]struct{}{}
	for _, raw := range payload.IDs {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		seen[id] = struct{}{}
	}
	if len(seen) == 0 {
		return nil
	}
	return seen
}

var namemapCmd = &cobra.Command{
	Use:   "namemap",
	Short: "Build the id-to-name map from crawled athlete data.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		coreDir := filepath.Join(cfg.DataDir, "espn_core")
		indexDir := filepath.Join(coreDir, "index")

		dbPath := *namemapDB
		if dbPath == "" {
			dbPath = filepath.Join(coreDir, "names.db")
		}
		store, err := namestore.Open(dbPath)
		if err != nil {
			osutil.Fatal("failed to open name database", err)
		}
		defer store.Close()

		ctx := cmd.Context()

		pagePaths, err := filepath.Glob(filepath.Join(indexDir, "pages", "*.json"))
		if err != nil {
			osutil.Fatal("failed to list index pages", err)
		}
		imported := 0
		for _, path := range pagePaths {
			data, err := os.ReadFile(path)
			if err != nil {
				osutil.Fatal("failed to read index page", err)
			}
			env, err := fetchutil.DecodeEnvelope(data)
			if err != nil {
				osutil.Fatal("failed to decode index page", err)
			}
			n, err := store.ImportIndexItems(ctx, env.Items)
			if err != nil {
				osutil.Fatal("failed to import index items", err)
			}
			imported += n
		}

		byIDDir := filepath.Join(coreDir, "athletes_by_id")
		if _, err := os.Stat(byIDDir); err == nil {
			n, err := store.ImportRecordDir(ctx, byIDDir)
			if err != nil {
				osutil.Fatal("failed to import by-id records", err)
			}
			imported += n
		}

		seen := loadSeenIDs(filepath.Join(cfg.DataDir, "verify"))
		outPath := filepath.Join(indexDir, "espn_name_map.json")
		count, err := store.WriteNameMap(ctx, outPath, seen)
		if err != nil {
			osutil.Fatal("failed to write name map", err)
		}
		slog.Info("wrote name map", "imported", imported, "names", count, "path", outPath)

		if *namemapLinkFile != "" {
			data, err := os.ReadFile(*namemapLinkFile)
			if err != nil {
				osutil.Fatal("failed to read external names", err)
			}
			var external []string
			err = json.Unmarshal(data, &external)
			if err != nil {
				osutil.Fatal("failed to decode external names", err)
			}

			names, err := store.Names(ctx)
			if err != nil {
				osutil.Fatal("failed to load stored names", err)
			}
			links := namestore.LinkNames(names, external)

			linkPath := filepath.Join(indexDir, "name_links.json")
			err = atomicfile.WriteJSON(linkPath, links)
			if err != nil {
				osutil.Fatal("failed to write name links", err)
			}
			slog.Info("wrote name links", "count", len(links), "path", linkPath)
		}
	},
}
