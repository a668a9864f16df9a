package storage

import (
	"fmt"
	"testing"
	"time"

	"github.com/pable/lol-custom-rating/internal/model"
)

func openMemDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// sampleMatch builds a valid match whose players are prefix0..prefix9.
func sampleMatch(id, prefix string, blueWins bool) model.Match {
	m := model.Match{ID: id}
	for i := 0; i < model.MatchSize; i++ {
		side := model.SideBlue
		if i >= model.NumRoles {
			side = model.SideRed
		}
		m.Rows = append(m.Rows, model.Row{
			Player:         fmt.Sprintf("%s%d", prefix, i),
			Champion:       fmt.Sprintf("Champ%d", i%3),
			Side:           side,
			Role:           model.Role(i % model.NumRoles),
			Kills:          i,
			Deaths:         2,
			Assists:        5,
			Gold:           9000,
			Minions:        100,
			NeutralMinions: 20,
			Wards:          1,
			Win:            (side == model.SideBlue) == blueWins,
		})
	}
	return m
}

var t0 = time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)

func TestMatchInsertAndExists(t *testing.T) {
	db := openMemDB(t)

	seq, inserted, err := db.InsertMatch(sampleMatch("abc123", "p", true), "game1.csv", t0)
	if err != nil {
		t.Fatalf("InsertMatch: %v", err)
	}
	if !inserted || seq != 1 {
		t.Errorf("first insert: seq=%d inserted=%v", seq, inserted)
	}

	exists, err := db.MatchExists("abc123")
	if err != nil {
		t.Fatalf("MatchExists: %v", err)
	}
	if !exists {
		t.Error("expected match to exist after insert")
	}

	exists2, _ := db.MatchExists("nonexistent")
	if exists2 {
		t.Error("expected non-existent match to not exist")
	}
}

func TestInsertIdempotency(t *testing.T) {
	db := openMemDB(t)

	m := sampleMatch("idem1", "p", true)
	db.InsertMatch(m, "a.csv", t0)
	seq, inserted, err := db.InsertMatch(m, "a.csv", t0.Add(time.Hour))
	if err != nil {
		t.Fatalf("second InsertMatch should succeed: %v", err)
	}
	if inserted || seq != 1 {
		t.Errorf("re-insert: seq=%d inserted=%v, want 1/false", seq, inserted)
	}
	rows, _ := db.GetMatchRows("idem1")
	if len(rows) != model.MatchSize {
		t.Errorf("rows after re-insert = %d", len(rows))
	}
}

func TestListMatchesNewestFirst(t *testing.T) {
	db := openMemDB(t)
	db.InsertMatch(sampleMatch("h1", "p", true), "1.csv", t0)
	db.InsertMatch(sampleMatch("h2", "p", false), "2.csv", t0.Add(time.Hour))

	list, err := db.ListMatches()
	if err != nil {
		t.Fatalf("ListMatches: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(list))
	}
	if list[0].ID != "h2" || list[0].Seq != 2 {
		t.Errorf("expected h2 first (newest), got %+v", list[0])
	}
	if list[0].Winner != model.SideRed || list[1].Winner != model.SideBlue {
		t.Errorf("winners: %v, %v", list[0].Winner, list[1].Winner)
	}
	if list[1].BlueKills != 0+1+2+3+4 || list[1].RedKills != 5+6+7+8+9 {
		t.Errorf("kills: %d / %d", list[1].BlueKills, list[1].RedKills)
	}
	if !list[1].ImportedAt.Equal(t0) || list[1].Source != "1.csv" {
		t.Errorf("metadata: %+v", list[1])
	}
}

func TestGetMatchByPrefix(t *testing.T) {
	db := openMemDB(t)
	db.InsertMatch(sampleMatch("deadbeef1234", "p", true), "", t0)

	s, err := db.GetMatchByPrefix("deadb")
	if err != nil {
		t.Fatalf("GetMatchByPrefix: %v", err)
	}
	if s == nil || s.ID != "deadbeef1234" {
		t.Fatalf("unexpected result %+v", s)
	}

	s2, err := db.GetMatchByPrefix("ffffffff")
	if err != nil {
		t.Fatalf("GetMatchByPrefix no-match: %v", err)
	}
	if s2 != nil {
		t.Error("expected nil for unknown prefix")
	}
}

func TestLoadMatchesRoundTrip(t *testing.T) {
	db := openMemDB(t)
	first := sampleMatch("m1", "a", true)
	second := sampleMatch("m2", "b", false)
	db.InsertMatch(first, "", t0)
	db.InsertMatch(second, "", t0)

	got, err := db.LoadMatches()
	if err != nil {
		t.Fatalf("LoadMatches: %v", err)
	}
	if len(got) != 2 || got[0].ID != "m1" || got[1].ID != "m2" {
		t.Fatalf("replay order wrong: %+v", got)
	}
	if got[0].Seq != 1 || got[1].Seq != 2 {
		t.Errorf("seqs %d, %d", got[0].Seq, got[1].Seq)
	}
	for i, want := range second.Rows {
		if got[1].Rows[i] != want {
			t.Errorf("row %d: got %+v, want %+v", i, got[1].Rows[i], want)
		}
	}
}

func TestDeleteMatchCascades(t *testing.T) {
	db := openMemDB(t)
	db.InsertMatch(sampleMatch("gone", "p", true), "", t0)

	ok, err := db.DeleteMatch("gone")
	if err != nil || !ok {
		t.Fatalf("DeleteMatch: ok=%v err=%v", ok, err)
	}
	rows, _ := db.GetMatchRows("gone")
	if len(rows) != 0 {
		t.Errorf("rows survived delete: %d", len(rows))
	}
	if ok, _ := db.DeleteMatch("gone"); ok {
		t.Error("second delete should report nothing removed")
	}
}

func TestAliasesAndPrioritiesReplace(t *testing.T) {
	db := openMemDB(t)

	if err := db.ReplaceAliases(model.AliasTable{"smurf": "main", "old": "main"}); err != nil {
		t.Fatal(err)
	}
	if err := db.ReplaceAliases(model.AliasTable{"smurf": "main"}); err != nil {
		t.Fatal(err)
	}
	a, err := db.LoadAliases()
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != 1 || a["smurf"] != "main" {
		t.Errorf("aliases = %v", a)
	}

	p := model.RolePriority{"main": {4, 0, 1, 2, 3}}
	if err := db.ReplacePriorities(p); err != nil {
		t.Fatal(err)
	}
	got, err := db.LoadPriorities()
	if err != nil {
		t.Fatal(err)
	}
	if got["main"] != p["main"] {
		t.Errorf("priorities = %v", got)
	}

	empty := openMemDB(t)
	if a, err := empty.LoadAliases(); err != nil || a == nil {
		t.Errorf("empty aliases: %v %v", a, err)
	}
}

func TestOverviewAndChampions(t *testing.T) {
	db := openMemDB(t)
	if ov, err := db.GetDBOverview(); err != nil || ov.TotalMatches != 0 {
		t.Fatalf("empty overview: %+v %v", ov, err)
	}

	db.InsertMatch(sampleMatch("m1", "p", true), "", t0)
	db.InsertMatch(sampleMatch("m2", "p", false), "", t0.Add(24*time.Hour))

	ov, err := db.GetDBOverview()
	if err != nil {
		t.Fatal(err)
	}
	if ov.TotalMatches != 2 || ov.TotalRows != 20 || ov.UniqueAccounts != 10 || ov.UniqueChampions != 3 {
		t.Errorf("overview = %+v", ov)
	}
	if ov.BlueWins != 1 || ov.RedWins != 1 {
		t.Errorf("side wins = %d/%d", ov.BlueWins, ov.RedWins)
	}
	if !ov.EarliestImport.Equal(t0) || !ov.LatestImport.Equal(t0.Add(24*time.Hour)) {
		t.Errorf("import range %v .. %v", ov.EarliestImport, ov.LatestImport)
	}

	champs, err := db.GetTopChampions(1)
	if err != nil {
		t.Fatal(err)
	}
	// Champ0 is picked 4 times per match, the others 3.
	if len(champs) != 1 || champs[0].Champion != "Champ0" || champs[0].Picks != 8 {
		t.Errorf("top champions = %+v", champs)
	}
}

func TestMatchesWithPlayers(t *testing.T) {
	db := openMemDB(t)
	db.InsertMatch(sampleMatch("m1", "a", true), "", t0)
	db.InsertMatch(sampleMatch("m2", "b", true), "", t0)

	ids, err := db.MatchesWithPlayers([]string{"a0", "a1", "b0"}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != "m1" {
		t.Errorf("quorum 2: %v", ids)
	}
	ids, _ = db.MatchesWithPlayers([]string{"a0", "b0"}, 1)
	if len(ids) != 2 || ids[0] != "m2" {
		t.Errorf("quorum 1: %v", ids)
	}
}

func TestQueryRaw(t *testing.T) {
	db := openMemDB(t)
	db.InsertMatch(sampleMatch("m1", "p", true), "", t0)

	cols, rows, err := db.QueryRaw("SELECT id, winner, NULL AS nothing FROM matches")
	if err != nil {
		t.Fatal(err)
	}
	if len(cols) != 3 || cols[2] != "nothing" {
		t.Errorf("cols = %v", cols)
	}
	if len(rows) != 1 || rows[0][0] != "m1" || rows[0][1] != "100" || rows[0][2] != "NULL" {
		t.Errorf("rows = %v", rows)
	}
	if _, _, err := db.QueryRaw("SELECT * FROM nope"); err == nil {
		t.Error("expected error for unknown table")
	}
}

func TestImportedSources(t *testing.T) {
	db := openMemDB(t)
	db.InsertMatch(sampleMatch("m1", "p", true), "a.csv", t0)
	db.InsertMatch(sampleMatch("m2", "p", true), "", t0)

	got, err := db.ImportedSources()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || !got["a.csv"] {
		t.Errorf("sources = %v", got)
	}
}
