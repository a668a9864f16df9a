package rating

import (
	"math"
	"testing"
)

const eps = 1e-9

func team(env Env, n int) []Rating {
	out := make([]Rating, n)
	for i := range out {
		out[i] = env.CreateRating()
	}
	return out
}

func TestCreateRatingUsesPrior(t *testing.T) {
	env := DefaultEnv()
	r := env.CreateRating()
	if r.Mu != 25 || math.Abs(r.Sigma-25.0/3) > eps {
		t.Errorf("prior: got %v", r)
	}
}

func TestNewEnvRejectsBadParameters(t *testing.T) {
	cases := []struct {
		name                    string
		mu, sigma, beta, tau, d float64
	}{
		{"nan mu", math.NaN(), 1, 1, 0, 0},
		{"zero sigma", 25, 0, 1, 0, 0},
		{"negative beta", 25, 1, -1, 0, 0},
		{"draw one", 25, 1, 1, 0, 1},
		{"inf tau", 25, 1, 1, math.Inf(1), 0},
	}
	for _, c := range cases {
		if _, err := NewEnv(c.mu, c.sigma, c.beta, c.tau, c.d); err == nil {
			t.Errorf("%s: expected error", c.name)
		}
	}
	if _, err := NewEnv(25, 25.0/3, 25.0/6, 25.0/300, 0); err != nil {
		t.Errorf("valid env rejected: %v", err)
	}
}

// TestRateWinnerGainsLoserDrops: at priors, every winner's mu rises, every
// loser's mu falls, and no sigma grows.
func TestRateWinnerGainsLoserDrops(t *testing.T) {
	env := DefaultEnv()
	for _, winner := range []Winner{WinnerA, WinnerB} {
		a, b := team(env, 5), team(env, 5)
		na, nb := env.Rate(a, b, winner)
		if len(na) != 5 || len(nb) != 5 {
			t.Fatalf("team sizes changed: %d %d", len(na), len(nb))
		}
		wins, loses := na, nb
		if winner == WinnerB {
			wins, loses = nb, na
		}
		for i := range wins {
			if wins[i].Mu <= env.Mu {
				t.Errorf("winner %d mu %v did not increase", i, wins[i].Mu)
			}
			if loses[i].Mu >= env.Mu {
				t.Errorf("loser %d mu %v did not decrease", i, loses[i].Mu)
			}
			if wins[i].Sigma > env.Sigma || loses[i].Sigma > env.Sigma {
				t.Errorf("sigma grew: %v %v", wins[i].Sigma, loses[i].Sigma)
			}
		}
	}
}

// TestRateOneVsOneMatchesReference checks the draw-free 1v1 update of two
// fresh players against hand-computed values.
func TestRateOneVsOneMatchesReference(t *testing.T) {
	env := DefaultEnv()
	a, b := env.Rate([]Rating{env.CreateRating()}, []Rating{env.CreateRating()}, WinnerA)
	if math.Abs(a[0].Mu-29.2055) > 1e-3 || math.Abs(a[0].Sigma-7.1948) > 1e-3 {
		t.Errorf("winner: got %v, want ~29.2055±7.1948", a[0])
	}
	if math.Abs(b[0].Mu-20.7945) > 1e-3 || math.Abs(b[0].Sigma-7.1948) > 1e-3 {
		t.Errorf("loser: got %v, want ~20.7945±7.1948", b[0])
	}
}

func TestRateUpsetMovesMore(t *testing.T) {
	env := DefaultEnv()
	strong := []Rating{{Mu: 35, Sigma: 3}}
	weak := []Rating{{Mu: 15, Sigma: 3}}

	expected, _ := env.Rate(strong, weak, WinnerA)
	_, upset := env.Rate(strong, weak, WinnerB)

	gainExpected := expected[0].Mu - strong[0].Mu
	gainUpset := upset[0].Mu - weak[0].Mu
	if gainUpset <= gainExpected {
		t.Errorf("upset gain %v should exceed expected gain %v", gainUpset, gainExpected)
	}
}

func TestRateUnequalTeams(t *testing.T) {
	env := DefaultEnv()
	a, b := env.Rate(team(env, 1), team(env, 5), WinnerA)
	if len(a) != 1 || len(b) != 5 {
		t.Fatalf("sizes: %d %d", len(a), len(b))
	}
	if a[0].Mu <= env.Mu {
		t.Errorf("solo winner mu %v did not increase", a[0].Mu)
	}
}

func TestRateDoesNotMutateInput(t *testing.T) {
	env := DefaultEnv()
	a, b := team(env, 5), team(env, 5)
	env.Rate(a, b, WinnerA)
	for i := range a {
		if a[i] != env.CreateRating() || b[i] != env.CreateRating() {
			t.Fatal("input slices were modified")
		}
	}
}

func TestRatePanicsOnNonFinite(t *testing.T) {
	env := DefaultEnv()
	defer func() {
		if recover() == nil {
			t.Error("expected panic on NaN mu")
		}
	}()
	env.Rate([]Rating{{Mu: math.NaN(), Sigma: 1}}, team(env, 1), WinnerA)
}

func TestWinProbabilitySymmetry(t *testing.T) {
	env := DefaultEnv()
	cases := [][2][]Rating{
		{team(env, 5), team(env, 5)},
		{{{Mu: 30, Sigma: 2}, {Mu: 20, Sigma: 5}}, {{Mu: 26, Sigma: 1}}},
		{{{Mu: 40, Sigma: 1}}, {}},
	}
	for i, c := range cases {
		p := env.WinProbability(c[0], c[1])
		q := env.WinProbability(c[1], c[0])
		if math.Abs(p+q-1) > eps {
			t.Errorf("case %d: p=%v q=%v, sum %v", i, p, q, p+q)
		}
		if p < 0 || p > 1 {
			t.Errorf("case %d: p=%v out of range", i, p)
		}
	}
	if p := env.WinProbability(team(env, 5), team(env, 5)); math.Abs(p-0.5) > eps {
		t.Errorf("equal teams: got %v, want 0.5", p)
	}
	if p := env.WinProbability(nil, nil); p != 0.5 {
		t.Errorf("empty teams: got %v, want 0.5", p)
	}
}

func TestWinProbabilityMonotonicInDelta(t *testing.T) {
	env := DefaultEnv()
	b := team(env, 5)
	prev := -1.0
	for shift := -20.0; shift <= 20; shift += 2.5 {
		a := team(env, 5)
		a[0].Mu += shift
		p := env.WinProbability(a, b)
		if p <= prev {
			t.Errorf("shift %v: p=%v not above previous %v", shift, p, prev)
		}
		prev = p
	}
}

func TestQualityHighestForEqualTeams(t *testing.T) {
	env := DefaultEnv()
	even := env.Quality(team(env, 5), team(env, 5))
	a := team(env, 5)
	a[0].Mu += 15
	uneven := env.Quality(a, team(env, 5))
	if uneven >= even {
		t.Errorf("uneven quality %v should be below even %v", uneven, even)
	}
}
