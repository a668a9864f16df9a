package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pable/lol-custom-rating/internal/aggregator"
	"github.com/pable/lol-custom-rating/internal/model"
	"github.com/pable/lol-custom-rating/internal/storage"
)

// openDB opens the database, creating its directory on first use.
func openDB() (*storage.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return db, nil
}

// league is the replayed state every read command works from.
type league struct {
	res     *aggregator.Result
	aliases model.AliasTable
	prefs   model.RolePriority
}

// replay loads every stored match and the lookup tables and rebuilds ratings.
func replay(db *storage.DB) (*league, error) {
	matches, err := db.LoadMatches()
	if err != nil {
		return nil, fmt.Errorf("load matches: %w", err)
	}
	aliases, err := db.LoadAliases()
	if err != nil {
		return nil, fmt.Errorf("load aliases: %w", err)
	}
	prefs, err := db.LoadPriorities()
	if err != nil {
		return nil, fmt.Errorf("load role priority: %w", err)
	}
	res := aggregator.Process(matches, aggregator.Config{Env: ratingEnv, Aliases: aliases, Logger: &log})
	log.Debug().Int("processed", res.Processed).Int("skipped", len(res.Skipped)).Msg("replayed")
	return &league{res: res, aliases: aliases, prefs: prefs}, nil
}

// loadLeague opens the database and replays it.
func loadLeague() (*league, error) {
	db, err := openDB()
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return replay(db)
}

// player resolves a name typed by the user to a known canonical player.
func (l *league) player(name string) (string, error) {
	canon := l.aliases.Canonical(name)
	if l.res.Known(canon) {
		return canon, nil
	}
	// Fall back to a case-insensitive match.
	for _, p := range l.res.PlayerNames() {
		if strings.EqualFold(p, canon) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown player %q", name)
}

// roster resolves names like player does but lets unknown players through,
// since they are rated at the prior.
func (l *league) roster(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		if p, err := l.player(n); err == nil {
			out[i] = p
		} else {
			out[i] = l.aliases.Canonical(n)
			log.Warn().Str("player", n).Msg("no matches on record, using prior rating")
		}
	}
	return out
}

// splitList splits a comma separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
