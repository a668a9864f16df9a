package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/lol-custom-rating/internal/bucket"
)

// fetch command flags.
var (
	// fetchBucket is the Cloud Storage bucket holding the match exports.
	fetchBucket string
	// fetchCredentials is an optional service account key file.
	fetchCredentials string
	// fetchParallel bounds concurrent object downloads.
	fetchParallel int
	// fetchRefresh re-reads objects whose name was already imported.
	fetchRefresh bool
)

// fetchCmd is the cobra command for syncing a match bucket into the database.
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download new match exports from a Cloud Storage bucket",
	Long: `Lists the match bucket, downloads every export not imported yet and stores
it. players_name.json and position_priority.json in the bucket replace the
stored alias and role priority tables on every fetch.

Objects are processed in name order, so name exports by date.

Credentials come from --credentials, GOOGLE_APPLICATION_CREDENTIALS or the
ambient application default credentials.

Examples:
  lolcustom fetch --bucket my-custom-games
  LOLCUSTOM_BUCKET=my-custom-games lolcustom fetch --parallel 8`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringVar(&fetchBucket, "bucket", "", "bucket name (env LOLCUSTOM_BUCKET)")
	fetchCmd.Flags().StringVar(&fetchCredentials, "credentials", "", "service account JSON key (default: application default credentials)")
	fetchCmd.Flags().IntVar(&fetchParallel, "parallel", 4, "concurrent downloads")
	fetchCmd.Flags().BoolVar(&fetchRefresh, "refresh", false, "re-download objects already imported (content dedup still applies)")
	fetchCmd.Flags().BoolVar(&dryRun, "dry-run", false, "download and check without writing anything")
}

// runFetch syncs the bucket into the database.
func runFetch(cmd *cobra.Command, args []string) error {
	name := fetchBucket
	if name == "" {
		name = os.Getenv("LOLCUSTOM_BUCKET")
	}
	if name == "" {
		return fmt.Errorf("no bucket: pass --bucket or set LOLCUSTOM_BUCKET")
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	store, err := bucket.NewGCS(cmd.Context(), name, fetchCredentials)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := bucket.Options{Parallel: fetchParallel}
	if !fetchRefresh {
		seen, err := db.ImportedSources()
		if err != nil {
			return fmt.Errorf("imported sources: %w", err)
		}
		opts.Skip = func(o bucket.Object) bool { return seen[o.Name] }
		log.Debug().Int("known", len(seen)).Msg("skipping imported objects")
	}

	log.Info().Str("bucket", name).Msg("listing")
	snap, err := bucket.Download(cmd.Context(), store, opts)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	log.Info().Int("new", len(snap.Files)).Msg("downloaded")

	var st ingestStats
	if err := ingestSnapshot(db, snap, &st); err != nil {
		return err
	}
	st.print()
	return nil
}
