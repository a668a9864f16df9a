package cmd

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/pable/lol-custom-rating/internal/aggregator"
	"github.com/pable/lol-custom-rating/internal/bucket"
	"github.com/pable/lol-custom-rating/internal/model"
	"github.com/pable/lol-custom-rating/internal/rating"
	"github.com/pable/lol-custom-rating/internal/storage"
)

func openMemDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// exportCSV builds a ten-row export for players prefix0..prefix9.
func exportCSV(prefix string, blueWins bool) []byte {
	var b strings.Builder
	b.WriteString(",player,skin,team,individualPosition,championsKilled,numDeaths,assists,goldEarned,minionsKilled,neutralMinionsKilled,visionWardsBoughtInGame,win\n")
	i := 0
	for _, team := range []int{100, 200} {
		win := "Fail"
		if (team == 100) == blueWins {
			win = "Win"
		}
		for _, pos := range []string{"TOP", "JUNGLE", "MIDDLE", "BOTTOM", "UTILITY"} {
			fmt.Fprintf(&b, "%d,%s%d,Ahri,%d,%s,2,2,2,9000,100,10,1,%s\n", i, prefix, i, team, pos, win)
			i++
		}
	}
	return []byte(b.String())
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{" a , b ,,c ", []string{"a", "b", "c"}},
		{"Mr Spaces,x", []string{"Mr Spaces", "x"}},
	}
	for _, tt := range tests {
		if got := splitList(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitList(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRosterArgs(t *testing.T) {
	if got := rosterArgs([]string{"a", "b"}); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("tokens: %q", got)
	}
	if got := rosterArgs([]string{"Mr", "Spaces,b"}); !reflect.DeepEqual(got, []string{"Mr Spaces", "b"}) {
		t.Errorf("commas: %q", got)
	}
}

func TestRawNamesExpandsAliases(t *testing.T) {
	aliases := model.AliasTable{"smurf": "main", "old": "main", "x": "y"}
	got := rawNames([]string{"smurf", "z"}, aliases)
	sort.Strings(got)
	want := []string{"main", "old", "smurf", "z"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("rawNames = %q, want %q", got, want)
	}
}

func TestIngestFileCountsOutcomes(t *testing.T) {
	db := openMemDB(t)
	var st ingestStats

	if err := ingestFile(db, "g1.csv", exportCSV("p", true), &st); err != nil {
		t.Fatal(err)
	}
	if err := ingestFile(db, "g1-copy.csv", exportCSV("p", true), &st); err != nil {
		t.Fatal(err)
	}
	if err := ingestFile(db, "broken.csv", []byte("not,a,match\n"), &st); err != nil {
		t.Fatal(err)
	}

	want := ingestStats{files: 3, added: 1, duplicate: 1, unreadable: 1}
	if st != want {
		t.Errorf("stats = %+v, want %+v", st, want)
	}
}

func TestIngestDryRunWritesNothing(t *testing.T) {
	db := openMemDB(t)
	dryRun = true
	t.Cleanup(func() { dryRun = false })

	snap := &bucket.Snapshot{
		Files:   []bucket.File{{Object: bucket.Object{Name: "a.csv"}, Data: exportCSV("p", true)}},
		Aliases: []byte(`{"p0":"x"}`),
	}
	var st ingestStats
	if err := ingestSnapshot(db, snap, &st); err != nil {
		t.Fatal(err)
	}
	if st.added != 1 {
		t.Errorf("added = %d, want 1", st.added)
	}
	list, err := db.ListMatches()
	if err != nil {
		t.Fatal(err)
	}
	aliases, err := db.LoadAliases()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 || len(aliases) != 0 {
		t.Errorf("dry run wrote %d matches and %d aliases", len(list), len(aliases))
	}
}

func TestIngestFileFlagsInvalidMatches(t *testing.T) {
	db := openMemDB(t)
	// p0 and p1 merge into one player, who then appears twice.
	if err := db.ReplaceAliases(model.AliasTable{"p1": "p0"}); err != nil {
		t.Fatal(err)
	}
	var st ingestStats
	if err := ingestFile(db, "g1.csv", exportCSV("p", true), &st); err != nil {
		t.Fatal(err)
	}
	if st.added != 1 || st.invalid != 1 {
		t.Errorf("stats = %+v, want one added and flagged", st)
	}
}

func TestIngestSnapshotStoresTablesAndReplays(t *testing.T) {
	db := openMemDB(t)
	snap := &bucket.Snapshot{
		Files: []bucket.File{
			{Object: bucket.Object{Name: "a.csv"}, Data: exportCSV("p", true)},
			{Object: bucket.Object{Name: "b.csv"}, Data: exportCSV("p", false)},
		},
		Aliases:  []byte(`{"p0":"Zed Main"}`),
		Priority: []byte(`{"Zed Main":[0,1,2,3,4]}`),
	}
	var st ingestStats
	if err := ingestSnapshot(db, snap, &st); err != nil {
		t.Fatal(err)
	}
	if st.added != 2 {
		t.Fatalf("added = %d, want 2", st.added)
	}

	l, err := replay(db)
	if err != nil {
		t.Fatal(err)
	}
	if l.res.Processed != 2 || len(l.res.Predictions) != 2 {
		t.Errorf("processed %d, predictions %d", l.res.Processed, len(l.res.Predictions))
	}
	name, err := l.player("zed main")
	if err != nil || name != "Zed Main" {
		t.Errorf("player lookup = %q, %v", name, err)
	}
	if _, ok := l.prefs["Zed Main"]; !ok {
		t.Error("role priority not stored")
	}
	if got := l.res.Counts("Zed Main", model.ScopeAll).MatchCount; got != 2 {
		t.Errorf("Zed Main matches = %d, want 2", got)
	}
}

func TestLeaderboardRowsSortOrder(t *testing.T) {
	db := openMemDB(t)
	var st ingestStats
	for i, blue := range []bool{true, true, false} {
		if err := ingestFile(db, fmt.Sprintf("g%d.csv", i), exportCSV(fmt.Sprintf("r%d_", i), blue), &st); err != nil {
			t.Fatal(err)
		}
	}
	l, err := replay(db)
	if err != nil {
		t.Fatal(err)
	}

	rows, err := leaderboardRows(l, model.ScopeAll, 1, false, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 30 {
		t.Fatalf("rows = %d, want 30", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].Rating.Value > rows[i-1].Rating.Value {
			t.Fatalf("row %d outranks row %d", i, i-1)
		}
	}
	if _, err := leaderboardRows(l, model.ScopeAll, 1, true, "kda"); err == nil {
		t.Error("expected error for unknown sort")
	}
}

func TestModelEnv(t *testing.T) {
	none := func(string) bool { return false }

	env, err := modelEnv(none)
	if err != nil {
		t.Fatal(err)
	}
	if env != rating.DefaultEnv() {
		t.Errorf("defaults = %+v, want %+v", env, rating.DefaultEnv())
	}

	t.Setenv("LOLCUSTOM_BETA", "6")
	t.Setenv("LOLCUSTOM_TAU", "0")
	env, err = modelEnv(none)
	if err != nil {
		t.Fatal(err)
	}
	if env.Beta != 6 || env.Tau != 0 || env.Mu != rating.DefaultMu {
		t.Errorf("env overrides = %+v", env)
	}

	// An explicit flag wins over the environment.
	env, err = modelEnv(func(name string) bool { return name == "beta" })
	if err != nil {
		t.Fatal(err)
	}
	if env.Beta != rating.DefaultBeta {
		t.Errorf("beta = %v, want the flag value %v", env.Beta, rating.DefaultBeta)
	}

	t.Setenv("LOLCUSTOM_SIGMA", "-1")
	if _, err := modelEnv(none); err == nil {
		t.Error("expected error for negative sigma")
	}
	t.Setenv("LOLCUSTOM_SIGMA", "wide")
	if _, err := modelEnv(none); err == nil {
		t.Error("expected error for non-numeric sigma")
	}
}

func TestReplayUsesConfiguredModel(t *testing.T) {
	db := openMemDB(t)
	var st ingestStats
	if err := ingestFile(db, "g1.csv", exportCSV("p", true), &st); err != nil {
		t.Fatal(err)
	}
	env, err := rating.NewEnv(30, 5, 2.5, 0.05, 0)
	if err != nil {
		t.Fatal(err)
	}
	ratingEnv = env
	t.Cleanup(func() { ratingEnv = rating.Env{} })

	l, err := replay(db)
	if err != nil {
		t.Fatal(err)
	}
	if l.res.Env != env {
		t.Errorf("replay env = %+v, want %+v", l.res.Env, env)
	}
	if got := l.res.Current("nobody", model.ScopeAll); got.Mu != 30 || got.Sigma != 5 {
		t.Errorf("prior = %v, want 30±5", got)
	}
}

func TestRecords(t *testing.T) {
	got := records([]aggregator.Prediction{{MatchID: "m", Seq: 3, BlueWin: 0.6, BlueWon: true}})
	want := []btRecord{{MatchID: "m", Seq: 3, BlueWin: 0.6, BlueWon: true}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("records = %+v", got)
	}
}
