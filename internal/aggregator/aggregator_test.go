package aggregator

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/pable/lol-custom-rating/internal/model"
	"github.com/pable/lol-custom-rating/internal/rating"
)

var (
	bluePlayers = []string{"alice", "bob", "carol", "dave", "erin"}
	redPlayers  = []string{"frank", "grace", "heidi", "ivan", "judy"}
	champions   = []string{"Garen", "LeeSin", "Ahri", "Jinx", "Lulu", "Darius", "Vi", "Zed", "Caitlyn", "Nami"}
)

// makeMatch builds a well-formed match: blue players take TOP..SUP in order,
// red likewise. Every player scores 3/1/4 with 150 CS.
func makeMatch(id string, seq int, blue, red []string, blueWins bool) model.Match {
	var rows []model.Row
	for i, p := range blue {
		rows = append(rows, model.Row{
			Player: p, Champion: champions[i], Side: model.SideBlue, Role: model.Roles[i],
			Kills: 3, Deaths: 1, Assists: 4, Gold: 10000, Minions: 120, NeutralMinions: 30, Wards: 2,
			Win: blueWins,
		})
	}
	for i, p := range red {
		rows = append(rows, model.Row{
			Player: p, Champion: champions[5+i], Side: model.SideRed, Role: model.Roles[i],
			Kills: 3, Deaths: 1, Assists: 4, Gold: 10000, Minions: 120, NeutralMinions: 30, Wards: 2,
			Win: !blueWins,
		})
	}
	return model.Match{ID: id, Seq: seq, Rows: rows}
}

func TestTwoIdenticalMatchesRaiseWinners(t *testing.T) {
	m1 := makeMatch("m1", 1, bluePlayers, redPlayers, true)
	m2 := makeMatch("m2", 2, bluePlayers, redPlayers, true)

	after1 := Process([]model.Match{m1}, Config{})
	after2 := Process([]model.Match{m1, m2}, Config{})

	for _, p := range bluePlayers {
		mu1 := after1.Current(p, model.ScopeAll).Mu
		mu2 := after2.Current(p, model.ScopeAll).Mu
		if mu2 <= mu1 {
			t.Errorf("%s: mu after match 2 (%v) should exceed mu after match 1 (%v)", p, mu2, mu1)
		}
		if mu1 <= rating.DefaultMu {
			t.Errorf("%s: mu after a win (%v) should exceed the prior", p, mu1)
		}
	}
	for _, p := range append(append([]string{}, bluePlayers...), redPlayers...) {
		if got := after2.Players[p][model.ScopeAll].MatchCount; got != 2 {
			t.Errorf("%s: match_count = %d, want 2", p, got)
		}
	}
}

func TestLosersDropAndSigmaShrinks(t *testing.T) {
	res := Process([]model.Match{makeMatch("m1", 1, bluePlayers, redPlayers, false)}, Config{})
	for _, p := range bluePlayers {
		r := res.Current(p, model.ScopeAll)
		if r.Mu >= rating.DefaultMu {
			t.Errorf("%s lost but mu %v did not drop", p, r.Mu)
		}
		if r.Sigma > rating.DefaultSigma {
			t.Errorf("%s sigma grew to %v", p, r.Sigma)
		}
	}
	for _, p := range redPlayers {
		if res.Current(p, model.ScopeAll).Mu <= rating.DefaultMu {
			t.Errorf("%s won but mu did not rise", p)
		}
	}
}

func TestProcessIsDeterministic(t *testing.T) {
	var matches []model.Match
	for i := 0; i < 12; i++ {
		blue, red := bluePlayers, redPlayers
		if i%3 == 0 {
			blue, red = red, blue
		}
		matches = append(matches, makeMatch("m", i, blue, red, i%2 == 0))
	}
	a := Process(matches, Config{})
	b := Process(matches, Config{})

	for _, p := range a.PlayerNames() {
		for _, s := range model.Scopes {
			ha, hb := a.History(p, s), b.History(p, s)
			if len(ha) != len(hb) {
				t.Fatalf("%s/%s: history lengths differ", p, s)
			}
			for i := range ha {
				if ha[i] != hb[i] {
					t.Fatalf("%s/%s[%d]: %v != %v", p, s, i, ha[i], hb[i])
				}
			}
		}
		if a.Players[p] != b.Players[p] {
			t.Errorf("%s: buckets differ between runs", p)
		}
	}
}

func TestHistoryNewestFirstEndsWithPrior(t *testing.T) {
	res := Process([]model.Match{
		makeMatch("m1", 1, bluePlayers, redPlayers, true),
		makeMatch("m2", 2, bluePlayers, redPlayers, true),
	}, Config{})

	h := res.History("alice", model.ScopeAll)
	if len(h) != 3 {
		t.Fatalf("history length = %d, want 3 (prior + 2 updates)", len(h))
	}
	if h[len(h)-1] != res.Env.CreateRating() {
		t.Errorf("oldest entry should be the prior, got %v", h[len(h)-1])
	}
	if !(h[0].Mu > h[1].Mu && h[1].Mu > h[2].Mu) {
		t.Errorf("expected strictly rising mu from oldest to newest: %v", h)
	}

	// alice only ever played TOP: other role histories hold only the prior.
	if got := len(res.History("alice", model.ScopeMid)); got != 1 {
		t.Errorf("MID history length = %d, want 1", got)
	}
	if got := len(res.History("alice", model.ScopeTop)); got != 3 {
		t.Errorf("TOP history length = %d, want 3", got)
	}
	if res.History("nobody", model.ScopeAll) != nil {
		t.Error("unknown player should have no history")
	}
}

func TestRoleCountsSumToOverall(t *testing.T) {
	shifted := []string{"bob", "carol", "dave", "erin", "alice"}
	res := Process([]model.Match{
		makeMatch("m1", 1, bluePlayers, redPlayers, true),
		makeMatch("m2", 2, shifted, redPlayers, false),
		makeMatch("m3", 3, redPlayers, bluePlayers, true),
	}, Config{})

	for _, p := range res.PlayerNames() {
		b := res.Players[p]
		sum := 0
		for _, r := range model.Roles {
			sum += b[model.ScopeOf(r)].MatchCount
		}
		if sum != b[model.ScopeAll].MatchCount {
			t.Errorf("%s: role counts sum %d != overall %d", p, sum, b[model.ScopeAll].MatchCount)
		}
	}
	alice := res.Players["alice"]
	if alice[model.ScopeTop].MatchCount != 2 || alice[model.ScopeSupport].MatchCount != 1 {
		t.Errorf("alice roles: top=%d sup=%d", alice[model.ScopeTop].MatchCount, alice[model.ScopeSupport].MatchCount)
	}
}

func TestBucketsAccumulateAndSnapshotRating(t *testing.T) {
	res := Process([]model.Match{
		makeMatch("m1", 1, bluePlayers, redPlayers, true),
		makeMatch("m2", 2, bluePlayers, redPlayers, false),
	}, Config{})

	c := res.Players["alice"][model.ScopeAll]
	if c.MatchCount != 2 || c.WinCount != 1 || c.Kills != 6 || c.Deaths != 2 || c.Assists != 8 {
		t.Errorf("alice counts: %+v", c)
	}
	if c.CS != 300 || c.Gold != 20000 || c.Wards != 4 {
		t.Errorf("alice cs/gold/wards: %d %d %d", c.CS, c.Gold, c.Wards)
	}
	if !c.Rated || c.Rating != res.Current("alice", model.ScopeAll).Mu {
		t.Errorf("rating snapshot %v (rated=%v) != current %v", c.Rating, c.Rated, res.Current("alice", model.ScopeAll).Mu)
	}
	top := res.Players["alice"][model.ScopeTop]
	if !top.Rated || top.Rating != res.Current("alice", model.ScopeTop).Mu {
		t.Errorf("TOP snapshot %v != current %v", top.Rating, res.Current("alice", model.ScopeTop).Mu)
	}
	if res.Players["alice"][model.ScopeMid].Rated {
		t.Error("MID was never played and should carry no rating snapshot")
	}

	if got := res.Champions["Garen"][model.ScopeTop].MatchCount; got != 2 {
		t.Errorf("Garen TOP count = %d, want 2", got)
	}
	pair := res.Pairs[model.PairKey{Player: "alice", Champion: "Garen"}]
	if pair[model.ScopeAll].MatchCount != 2 || pair[model.ScopeAll].WinCount != 1 {
		t.Errorf("alice/Garen pair: %+v", pair[model.ScopeAll])
	}
}

func TestAliasesMergeIdentities(t *testing.T) {
	m1 := makeMatch("m1", 1, bluePlayers, redPlayers, true)
	alt := append([]string{"alice_smurf"}, bluePlayers[1:]...)
	m2 := makeMatch("m2", 2, alt, redPlayers, true)

	res := Process([]model.Match{m1, m2}, Config{Aliases: model.AliasTable{"alice_smurf": "alice"}})

	if res.Known("alice_smurf") {
		t.Error("alias should not create its own bucket")
	}
	if got := res.Players["alice"][model.ScopeAll].MatchCount; got != 2 {
		t.Errorf("alice match_count = %d, want 2", got)
	}
	if got := len(res.History("alice", model.ScopeAll)); got != 3 {
		t.Errorf("alice history length = %d, want 3", got)
	}
	if _, ok := res.Pairs[model.PairKey{Player: "alice_smurf", Champion: "Garen"}]; ok {
		t.Error("pair bucket keyed by raw alias")
	}
}

func TestMalformedMatchesAreSkipped(t *testing.T) {
	good := makeMatch("good", 1, bluePlayers, redPlayers, true)

	short := makeMatch("short", 2, bluePlayers, redPlayers, true)
	short.Rows = short.Rows[:9]

	dupRole := makeMatch("duprole", 3, bluePlayers, redPlayers, true)
	dupRole.Rows[1].Role = model.RoleTop

	flags := makeMatch("flags", 4, bluePlayers, redPlayers, true)
	flags.Rows[2].Win = false

	bothWin := makeMatch("bothwin", 5, bluePlayers, redPlayers, true)
	for i := 5; i < 10; i++ {
		bothWin.Rows[i].Win = true
	}

	lopsided := makeMatch("lopsided", 6, bluePlayers, redPlayers, true)
	lopsided.Rows[9].Side = model.SideBlue

	var buf bytes.Buffer
	log := zerolog.New(&buf)
	res := Process([]model.Match{good, short, dupRole, flags, bothWin, lopsided}, Config{Logger: &log})

	if res.Processed != 1 {
		t.Errorf("processed = %d, want 1", res.Processed)
	}
	if len(res.Skipped) != 5 {
		t.Fatalf("skipped = %d, want 5", len(res.Skipped))
	}
	for _, me := range res.Skipped {
		if !errors.Is(me, ErrMalformedMatch) {
			t.Errorf("%v does not wrap ErrMalformedMatch", me)
		}
	}
	if res.Skipped[0].MatchID != "short" {
		t.Errorf("first skipped = %s, want short", res.Skipped[0].MatchID)
	}
	if got := res.Players["alice"][model.ScopeAll].MatchCount; got != 1 {
		t.Errorf("skipped matches leaked into stats: alice count %d", got)
	}
	if !strings.Contains(buf.String(), "duprole") {
		t.Errorf("expected a log line naming the skipped match, got %q", buf.String())
	}
}

func TestAliasCollisionIsMalformed(t *testing.T) {
	m := makeMatch("m1", 1, bluePlayers, redPlayers, true)
	res := Process([]model.Match{m}, Config{Aliases: model.AliasTable{"bob": "alice"}})
	if len(res.Skipped) != 1 || !strings.Contains(res.Skipped[0].Reason, "twice") {
		t.Errorf("expected duplicate-player rejection, got %v", res.Skipped)
	}
}

func TestPredictionsRecordedBeforeUpdate(t *testing.T) {
	res := Process([]model.Match{
		makeMatch("m1", 1, bluePlayers, redPlayers, true),
		makeMatch("m2", 2, bluePlayers, redPlayers, true),
	}, Config{})
	if len(res.Predictions) != 2 {
		t.Fatalf("predictions = %d", len(res.Predictions))
	}
	if p := res.Predictions[0].BlueWin; p != 0.5 {
		t.Errorf("first prediction at priors = %v, want 0.5", p)
	}
	if p := res.Predictions[1].BlueWin; p <= 0.5 {
		t.Errorf("after a blue win, blue should be favoured, got %v", p)
	}
	if !res.Predictions[1].BlueWon {
		t.Error("outcome not recorded")
	}
}

func TestCurrentForUnknownPlayerIsPrior(t *testing.T) {
	res := Process(nil, Config{})
	if res.Current("ghost", model.ScopeJungle) != rating.DefaultEnv().CreateRating() {
		t.Error("unknown player should get the prior")
	}
	if res.Counts("ghost", model.ScopeAll).MatchCount != 0 {
		t.Error("unknown player should have zero counts")
	}
}
