package storage

import (
	"strings"
	"time"
)

// DBOverview holds store-wide totals for the summary command.
type DBOverview struct {
	TotalMatches    int
	TotalRows       int
	UniqueAccounts  int // raw names, before alias merging
	UniqueChampions int
	BlueWins        int
	RedWins         int
	EarliestImport  time.Time
	LatestImport    time.Time
}

// ChampionCount is one entry of the pick table.
type ChampionCount struct {
	Champion string
	Picks    int
	Wins     int
}

// GetDBOverview computes the store-wide totals.
func (db *DB) GetDBOverview() (DBOverview, error) {
	var ov DBOverview
	var earliest, latest string
	err := db.conn.QueryRow(`
		SELECT COUNT(1),
		       COALESCE(SUM(winner = 100), 0),
		       COALESCE(SUM(winner = 200), 0),
		       COALESCE(MIN(imported_at), ''),
		       COALESCE(MAX(imported_at), '')
		FROM matches`).Scan(&ov.TotalMatches, &ov.BlueWins, &ov.RedWins, &earliest, &latest)
	if err != nil {
		return ov, err
	}
	ov.EarliestImport, _ = time.Parse(time.RFC3339, earliest)
	ov.LatestImport, _ = time.Parse(time.RFC3339, latest)

	err = db.conn.QueryRow(`
		SELECT COUNT(1), COUNT(DISTINCT player), COUNT(DISTINCT champion)
		FROM match_rows`).Scan(&ov.TotalRows, &ov.UniqueAccounts, &ov.UniqueChampions)
	return ov, err
}

// GetTopChampions returns the most picked champions, most picks first.
func (db *DB) GetTopChampions(limit int) ([]ChampionCount, error) {
	rows, err := db.conn.Query(`
		SELECT champion, COUNT(1) AS picks, SUM(win)
		FROM match_rows
		GROUP BY champion
		ORDER BY picks DESC, champion
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ChampionCount
	for rows.Next() {
		var c ChampionCount
		if err := rows.Scan(&c.Champion, &c.Picks, &c.Wins); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// MatchesWithPlayers returns the IDs of matches in which at least quorum of
// the given raw player names appear, newest first.
func (db *DB) MatchesWithPlayers(players []string, quorum int) ([]string, error) {
	if len(players) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(players)+1)
	for _, p := range players {
		args = append(args, p)
	}
	args = append(args, quorum)

	rows, err := db.conn.Query(`
		SELECT m.id
		FROM matches m
		JOIN match_rows r ON r.match_id = m.id
		WHERE r.player IN (`+placeholders(len(players))+`)
		GROUP BY m.id
		HAVING COUNT(DISTINCT r.player) >= ?
		ORDER BY m.seq DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// placeholders returns a comma-separated string of n "?" for SQL IN clauses,
// e.g. placeholders(3) → "?,?,?".
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}
