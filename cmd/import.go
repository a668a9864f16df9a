package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pable/lol-custom-rating/internal/aggregator"
	"github.com/pable/lol-custom-rating/internal/bucket"
	"github.com/pable/lol-custom-rating/internal/model"
	"github.com/pable/lol-custom-rating/internal/parser"
	"github.com/pable/lol-custom-rating/internal/storage"
)

var (
	importAliases  string
	importPriority string

	// dryRun is shared by import and fetch.
	dryRun bool
)

var importCmd = &cobra.Command{
	Use:   "import [file.csv|dir ...]",
	Short: "Import match exports and lookup tables from local files",
	Long: `Stores match CSV exports (plain or .csv.zst) in the database. Directories are
read like a match bucket: every export inside is imported in name order, and
players_name.json / position_priority.json replace the stored tables.

Files already imported are recognised by content and skipped, so re-running
an import is safe. New matches are appended to the end of the replay order.

Examples:
  lolcustom import ./history/
  lolcustom import 2024-05-01.csv 2024-05-08.csv
  lolcustom import --aliases players_name.json --priority position_priority.json`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importAliases, "aliases", "", "players_name.json to load as the alias table")
	importCmd.Flags().StringVar(&importPriority, "priority", "", "position_priority.json to load as role preferences")
	importCmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse and check without writing anything")
}

func runImport(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && importAliases == "" && importPriority == "" {
		return fmt.Errorf("nothing to import: pass files, directories, --aliases or --priority")
	}
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if importAliases != "" {
		data, err := os.ReadFile(importAliases)
		if err != nil {
			return fmt.Errorf("read aliases: %w", err)
		}
		if err := storeTables(db, data, nil); err != nil {
			return err
		}
	}
	if importPriority != "" {
		data, err := os.ReadFile(importPriority)
		if err != nil {
			return fmt.Errorf("read role priority: %w", err)
		}
		if err := storeTables(db, nil, data); err != nil {
			return err
		}
	}

	var st ingestStats
	for _, path := range args {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if info.IsDir() {
			snap, err := bucket.Download(cmd.Context(), bucket.Dir(path), bucket.Options{})
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			if err := ingestSnapshot(db, snap, &st); err != nil {
				return err
			}
			continue
		}
		st.files++
		matches, err := parser.ParseFile(path)
		if err != nil {
			log.Warn().Err(err).Msg("skipping unreadable file")
			st.unreadable++
			continue
		}
		if err := ingestMatches(db, filepath.Base(path), matches, &st); err != nil {
			return err
		}
	}
	if len(args) > 0 {
		st.print()
	}
	return nil
}

// ingestStats counts the outcome of an import or fetch.
type ingestStats struct {
	files, added, duplicate, invalid, unreadable int
}

func (s ingestStats) print() {
	if dryRun {
		fmt.Fprint(os.Stdout, "dry run, nothing written. ")
	}
	fmt.Fprintf(os.Stdout, "%d files: %d matches added, %d already stored, %d unreadable files",
		s.files, s.added, s.duplicate, s.unreadable)
	if s.invalid > 0 {
		fmt.Fprintf(os.Stdout, ", %d stored but failing validation (skipped during replay)", s.invalid)
	}
	fmt.Fprintln(os.Stdout)
}

// ingestSnapshot stores the lookup tables first so validation sees the new aliases.
func ingestSnapshot(db *storage.DB, snap *bucket.Snapshot, st *ingestStats) error {
	if err := storeTables(db, snap.Aliases, snap.Priority); err != nil {
		return err
	}
	for _, name := range snap.Ignored {
		log.Debug().Str("object", name).Msg("ignored")
	}
	for _, f := range snap.Files {
		if err := ingestFile(db, f.Name, f.Data, st); err != nil {
			return err
		}
	}
	return nil
}

// storeTables replaces whichever tables are non-nil. In a dry run the tables
// are only decoded.
func storeTables(db *storage.DB, aliases, priority []byte) error {
	if aliases != nil {
		t, err := parser.ParseAliases(bytes.NewReader(aliases))
		if err != nil {
			return err
		}
		if !dryRun {
			if err := db.ReplaceAliases(t); err != nil {
				return fmt.Errorf("store aliases: %w", err)
			}
		}
		log.Info().Int("aliases", len(t)).Bool("dry_run", dryRun).Msg("alias table loaded")
	}
	if priority != nil {
		p, err := parser.ParsePriorities(bytes.NewReader(priority))
		if err != nil {
			return err
		}
		if !dryRun {
			if err := db.ReplacePriorities(p); err != nil {
				return fmt.Errorf("store role priority: %w", err)
			}
		}
		log.Info().Int("players", len(p)).Bool("dry_run", dryRun).Msg("role priority loaded")
	}
	return nil
}

// ingestFile parses one export and stores its matches. Unreadable files are
// logged and counted; only database failures abort.
func ingestFile(db *storage.DB, name string, data []byte, st *ingestStats) error {
	st.files++
	matches, err := parser.ParseMatches(name, data)
	if err != nil {
		log.Warn().Err(err).Str("file", name).Msg("skipping unreadable file")
		st.unreadable++
		return nil
	}
	return ingestMatches(db, name, matches, st)
}

// ingestMatches stores the matches of one export under source name. With
// dryRun set nothing is written and matches are only checked.
func ingestMatches(db *storage.DB, name string, matches []model.Match, st *ingestStats) error {
	aliases, err := db.LoadAliases()
	if err != nil {
		return fmt.Errorf("load aliases: %w", err)
	}
	now := time.Now()
	for _, m := range matches {
		if dryRun {
			exists, err := db.MatchExists(m.ID)
			if err != nil {
				return err
			}
			if exists {
				st.duplicate++
				continue
			}
			st.added++
			if err := aggregator.Validate(m.ID, 0, aggregator.CanonicalRows(m.Rows, aliases)); err != nil {
				st.invalid++
				log.Warn().Err(err).Str("file", name).Msg("match would be skipped during replay")
			}
			continue
		}
		seq, inserted, err := db.InsertMatch(m, name, now)
		if err != nil {
			return fmt.Errorf("store %s: %w", name, err)
		}
		if !inserted {
			st.duplicate++
			log.Debug().Str("file", name).Int("seq", seq).Msg("already stored")
			continue
		}
		st.added++
		if err := aggregator.Validate(m.ID, seq, aggregator.CanonicalRows(m.Rows, aliases)); err != nil {
			st.invalid++
			log.Warn().Err(err).Str("file", name).Msg("stored match will be skipped during replay")
		} else {
			log.Debug().Str("file", name).Int("seq", seq).Msg("stored")
		}
	}
	return nil
}

// importDir is used by the shell to import a local directory.
func importDir(ctx context.Context, db *storage.DB, dir string) (ingestStats, error) {
	var st ingestStats
	snap, err := bucket.Download(ctx, bucket.Dir(dir), bucket.Options{})
	if err != nil {
		return st, err
	}
	err = ingestSnapshot(db, snap, &st)
	return st, err
}
