package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/pable/lol-custom-rating/internal/model"
)

// MatchExists returns true if a match with the given ID is already stored.
func (db *DB) MatchExists(id string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(1) FROM matches WHERE id = ?", id).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// InsertMatch stores m and its rows in one transaction and appends it to the
// replay order. Matches already stored are left untouched; inserted reports
// whether anything was written. m.Seq is ignored and the assigned seq returned.
func (db *DB) InsertMatch(m model.Match, source string, importedAt time.Time) (seq int, inserted bool, err error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, false, err
	}
	defer tx.Rollback()

	var existing int
	err = tx.QueryRow("SELECT seq FROM matches WHERE id = ?", m.ID).Scan(&existing)
	if err == nil {
		return existing, false, nil
	}
	if err != sql.ErrNoRows {
		return 0, false, err
	}

	if err := tx.QueryRow("SELECT COALESCE(MAX(seq), 0) + 1 FROM matches").Scan(&seq); err != nil {
		return 0, false, fmt.Errorf("next seq: %w", err)
	}

	s := summarize(m)
	_, err = tx.Exec(`
		INSERT INTO matches(id, source, seq, imported_at, winner, blue_kills, red_kills)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, source, seq, importedAt.UTC().Format(time.RFC3339),
		int(s.Winner), s.BlueKills, s.RedKills,
	)
	if err != nil {
		return 0, false, fmt.Errorf("insert match %s: %w", m.ID, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO match_rows(
			match_id, idx, player, champion, side, role,
			kills, deaths, assists, gold, minions, neutral_minions, wards, win
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return 0, false, err
	}
	defer stmt.Close()

	for i, r := range m.Rows {
		_, err = stmt.Exec(
			m.ID, i, r.Player, r.Champion, int(r.Side), int(r.Role),
			r.Kills, r.Deaths, r.Assists, r.Gold, r.Minions, r.NeutralMinions, r.Wards,
			boolInt(r.Win),
		)
		if err != nil {
			return 0, false, fmt.Errorf("insert row %d of %s: %w", i, m.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, false, err
	}
	return seq, true, nil
}

// summarize derives the list-view fields from the rows.
func summarize(m model.Match) model.MatchSummary {
	s := model.MatchSummary{ID: m.ID}
	for _, r := range m.Rows {
		switch r.Side {
		case model.SideBlue:
			s.BlueKills += r.Kills
		case model.SideRed:
			s.RedKills += r.Kills
		}
		if r.Win && s.Winner == model.SideUnknown {
			s.Winner = r.Side
		}
	}
	return s
}

const summaryCols = `id, source, seq, imported_at, winner, blue_kills, red_kills`

func scanSummary(sc interface{ Scan(...any) error }) (model.MatchSummary, error) {
	var s model.MatchSummary
	var imported string
	var winner int
	if err := sc.Scan(&s.ID, &s.Source, &s.Seq, &imported, &winner, &s.BlueKills, &s.RedKills); err != nil {
		return s, err
	}
	s.Winner = model.Side(winner)
	s.ImportedAt, _ = time.Parse(time.RFC3339, imported)
	return s, nil
}

// ListMatches returns all stored match summaries, newest first.
func (db *DB) ListMatches() ([]model.MatchSummary, error) {
	rows, err := db.conn.Query(`SELECT ` + summaryCols + ` FROM matches ORDER BY seq DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.MatchSummary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetMatchByPrefix finds the newest match whose ID starts with the given prefix.
func (db *DB) GetMatchByPrefix(prefix string) (*model.MatchSummary, error) {
	s, err := scanSummary(db.conn.QueryRow(`
		SELECT `+summaryCols+` FROM matches WHERE id LIKE ? ORDER BY seq DESC LIMIT 1`, prefix+"%"))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetMatchRows returns the rows of one match in source order.
func (db *DB) GetMatchRows(id string) ([]model.Row, error) {
	rows, err := db.conn.Query(`
		SELECT player, champion, side, role, kills, deaths, assists, gold,
		       minions, neutral_minions, wards, win
		FROM match_rows WHERE match_id = ? ORDER BY idx`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Row
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanRow(sc interface{ Scan(...any) error }, extra ...any) (model.Row, error) {
	var r model.Row
	var side, role, win int
	dest := append(extra, &r.Player, &r.Champion, &side, &role, &r.Kills, &r.Deaths, &r.Assists,
		&r.Gold, &r.Minions, &r.NeutralMinions, &r.Wards, &win)
	if err := sc.Scan(dest...); err != nil {
		return r, err
	}
	r.Side = model.Side(side)
	r.Role = model.Role(role)
	r.Win = win != 0
	return r, nil
}

// LoadMatches returns every stored match with its rows, oldest first, ready
// for replay.
func (db *DB) LoadMatches() ([]model.Match, error) {
	rows, err := db.conn.Query(`
		SELECT m.id, m.seq,
		       r.player, r.champion, r.side, r.role, r.kills, r.deaths, r.assists, r.gold,
		       r.minions, r.neutral_minions, r.wards, r.win
		FROM matches m
		JOIN match_rows r ON r.match_id = m.id
		ORDER BY m.seq, r.idx`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Match
	for rows.Next() {
		var id string
		var seq int
		r, err := scanRow(rows, &id, &seq)
		if err != nil {
			return nil, err
		}
		if n := len(out); n == 0 || out[n-1].ID != id {
			out = append(out, model.Match{ID: id, Seq: seq})
		}
		last := &out[len(out)-1]
		last.Rows = append(last.Rows, r)
	}
	return out, rows.Err()
}

// ImportedSources returns the set of non-empty source names already stored.
func (db *DB) ImportedSources() (map[string]bool, error) {
	rows, err := db.conn.Query("SELECT DISTINCT source FROM matches WHERE source <> ''")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out[s] = true
	}
	return out, rows.Err()
}

// DeleteMatch removes a match and its rows. Later matches keep their seq.
func (db *DB) DeleteMatch(id string) (bool, error) {
	res, err := db.conn.Exec("DELETE FROM matches WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ReplaceAliases swaps the stored alias table for t.
func (db *DB) ReplaceAliases(t model.AliasTable) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM aliases"); err != nil {
		return err
	}
	stmt, err := tx.Prepare("INSERT INTO aliases(raw, canonical) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()
	for raw, canonical := range t {
		if _, err := stmt.Exec(raw, canonical); err != nil {
			return fmt.Errorf("insert alias %q: %w", raw, err)
		}
	}
	return tx.Commit()
}

// LoadAliases returns the stored alias table (empty, never nil).
func (db *DB) LoadAliases() (model.AliasTable, error) {
	rows, err := db.conn.Query("SELECT raw, canonical FROM aliases")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := model.AliasTable{}
	for rows.Next() {
		var raw, canonical string
		if err := rows.Scan(&raw, &canonical); err != nil {
			return nil, err
		}
		out[raw] = canonical
	}
	return out, rows.Err()
}

// ReplacePriorities swaps the stored role preference table for p.
func (db *DB) ReplacePriorities(p model.RolePriority) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM role_priority"); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
		INSERT INTO role_priority(player, top, jungle, mid, bot, support) VALUES (?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for player, r := range p {
		if _, err := stmt.Exec(player, r[0], r[1], r[2], r[3], r[4]); err != nil {
			return fmt.Errorf("insert role priority %q: %w", player, err)
		}
	}
	return tx.Commit()
}

// LoadPriorities returns the stored role preference table (empty, never nil).
func (db *DB) LoadPriorities() (model.RolePriority, error) {
	rows, err := db.conn.Query("SELECT player, top, jungle, mid, bot, support FROM role_priority")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := model.RolePriority{}
	for rows.Next() {
		var player string
		var r [model.NumRoles]int
		if err := rows.Scan(&player, &r[0], &r[1], &r[2], &r[3], &r[4]); err != nil {
			return nil, err
		}
		out[player] = r
	}
	return out, rows.Err()
}

// QueryRaw runs an arbitrary query and returns column names and stringified rows.
func (db *DB) QueryRaw(query string) ([]string, [][]string, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	var out [][]string
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		rec := make([]string, len(cols))
		for i, v := range vals {
			switch x := v.(type) {
			case nil:
				rec[i] = "NULL"
			case []byte:
				rec[i] = string(x)
			default:
				rec[i] = fmt.Sprint(x)
			}
		}
		out = append(out, rec)
	}
	return cols, out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
