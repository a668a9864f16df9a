// Package parser decodes custom-game match exports: per-match CSV files
// (optionally zstd-compressed) plus the JSON lookup tables that travel with
// them in the match bucket.
package parser

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/klauspost/compress/zstd"

	"github.com/pable/lol-custom-rating/internal/model"
)

// Well-known object names inside a match bucket.
const (
	AliasFile    = "players_name.json"
	PriorityFile = "position_priority.json"
)

// csvRow mirrors the columns of the client export. Unknown columns (such as
// a pandas index) are ignored.
type csvRow struct {
	Player         string `csv:"player"`
	Skin           string `csv:"skin"`
	Team           int    `csv:"team"`
	Position       string `csv:"individualPosition"`
	Kills          int    `csv:"championsKilled"`
	Deaths         int    `csv:"numDeaths"`
	Assists        int    `csv:"assists"`
	Gold           int    `csv:"goldEarned"`
	Minions        int    `csv:"minionsKilled"`
	NeutralMinions int    `csv:"neutralMinionsKilled"`
	Wards          int    `csv:"visionWardsBoughtInGame"`
	Win            string `csv:"win"`
}

func (c *csvRow) toRow() model.Row {
	role, err := model.ParseRole(c.Position)
	if err != nil {
		role = model.Role(-1) // rejected later by match validation
	}
	side := model.Side(c.Team)
	if side != model.SideBlue && side != model.SideRed {
		side = model.SideUnknown
	}
	return model.Row{
		Player:         strings.TrimSpace(c.Player),
		Champion:       strings.TrimSpace(c.Skin),
		Side:           side,
		Role:           role,
		Kills:          c.Kills,
		Deaths:         c.Deaths,
		Assists:        c.Assists,
		Gold:           c.Gold,
		Minions:        c.Minions,
		NeutralMinions: c.NeutralMinions,
		Wards:          c.Wards,
		Win:            parseWin(c.Win),
	}
}

func parseWin(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "win", "true", "1":
		return true
	}
	return false
}

// IsMatchFile reports whether name looks like a match export.
func IsMatchFile(name string) bool {
	n := strings.ToLower(name)
	return strings.HasSuffix(n, ".csv") || strings.HasSuffix(n, ".csv.zst")
}

// Decompress returns data unchanged unless name ends in .zst.
func Decompress(name string, data []byte) ([]byte, error) {
	if !strings.HasSuffix(strings.ToLower(name), ".zst") {
		return data, nil
	}
	dec, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	defer dec.Close()
	out, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress %s: %w", name, err)
	}
	return out, nil
}

// ParseMatches decodes one export. A file normally holds a single match of
// ten rows; longer files are split into consecutive groups of ten. The match
// ID is the SHA-256 of the raw bytes, suffixed with the group index when a
// file holds more than one match, so re-importing the same file is a no-op.
func ParseMatches(name string, data []byte) ([]model.Match, error) {
	sum := fmt.Sprintf("%x", sha256.Sum256(data))

	plain, err := Decompress(name, data)
	if err != nil {
		return nil, err
	}
	var recs []*csvRow
	if err := gocsv.UnmarshalBytes(plain, &recs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("decode %s: no rows", name)
	}
	if len(recs)%model.MatchSize != 0 {
		return nil, fmt.Errorf("decode %s: %d rows is not a multiple of %d", name, len(recs), model.MatchSize)
	}

	n := len(recs) / model.MatchSize
	matches := make([]model.Match, 0, n)
	for i := 0; i < n; i++ {
		id := sum
		if n > 1 {
			id = fmt.Sprintf("%s-%d", sum, i)
		}
		rows := make([]model.Row, 0, model.MatchSize)
		for _, r := range recs[i*model.MatchSize : (i+1)*model.MatchSize] {
			rows = append(rows, r.toRow())
		}
		matches = append(matches, model.Match{ID: id, Rows: rows})
	}
	return matches, nil
}

// ParseFile reads and decodes the export at path.
func ParseFile(path string) ([]model.Match, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ParseMatches(filepath.Base(path), data)
}

// ParseAliases decodes players_name.json: {"raw account": "canonical name"}.
func ParseAliases(r io.Reader) (model.AliasTable, error) {
	var t model.AliasTable
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		return nil, fmt.Errorf("decode aliases: %w", err)
	}
	if t == nil {
		t = model.AliasTable{}
	}
	return t, nil
}

// ParsePriorities decodes position_priority.json: each player maps to five
// ranks in TOP, JNG, MID, BOT, SUP order, lower meaning more preferred.
func ParsePriorities(r io.Reader) (model.RolePriority, error) {
	var raw map[string][]int
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode role priority: %w", err)
	}
	out := make(model.RolePriority, len(raw))
	for player, ranks := range raw {
		if len(ranks) != model.NumRoles {
			return nil, fmt.Errorf("role priority for %q: want %d ranks, got %d", player, model.NumRoles, len(ranks))
		}
		var arr [model.NumRoles]int
		copy(arr[:], ranks)
		out[player] = arr
	}
	return out, nil
}
