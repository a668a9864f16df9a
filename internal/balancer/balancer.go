// Package balancer splits ten players into two role-assigned teams of five.
//
// The search is randomized: shuffle, split 5/5, reject splits whose overall
// win probability is too far from even, let each side pick roles in ascending
// rating order, reject role assignments that put players too far down their
// preference list, and finally accept the pairing when the role-weighted win
// probability is close enough to even. Each rejection threshold relaxes on a
// fixed schedule so the search always terminates; a hard shuffle cap backs
// that up.
package balancer

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/pable/lol-custom-rating/internal/model"
	"github.com/pable/lol-custom-rating/internal/rating"
)

// TeamSize is the number of players per side.
const TeamSize = model.NumRoles

var (
	// ErrInvalidRoster is returned when the input is not ten distinct players.
	ErrInvalidRoster = errors.New("balancer: need exactly 10 distinct players")
	// ErrNotBalanced is returned when the shuffle cap is reached.
	ErrNotBalanced = errors.New("balancer: could not balance teams")
)

// Source provides the current ratings and role history of players.
// *aggregator.Result satisfies it.
type Source interface {
	Current(player string, scope model.Scope) rating.Rating
	Counts(player string, scope model.Scope) model.Counts
}

// Params controls the acceptance thresholds and how they relax.
type Params struct {
	// Band is the initial half-width around 0.5 for both win-probability checks.
	Band float64
	// BandStep widens a band every BandEvery failed checks.
	BandStep  float64
	BandEvery int

	// Threshold is the initial maximum priority cost per team.
	Threshold      int
	ThresholdStep  int
	ThresholdEvery int

	// MaxShuffles caps the total number of random splits tried.
	MaxShuffles int
}

// DefaultParams returns the thresholds used for custom games.
func DefaultParams() Params {
	return Params{
		Band:           0.1,
		BandStep:       0.01,
		BandEvery:      5,
		Threshold:      2,
		ThresholdStep:  1,
		ThresholdEvery: 50,
		MaxShuffles:    200_000,
	}
}

// relaxer is a threshold that grows by step after every `every` failures.
type relaxer struct {
	value float64
	step  float64
	every int
	fails int
}

func (r *relaxer) fail() {
	r.fails++
	if r.every > 0 && r.fails%r.every == 0 {
		r.value += r.step
	}
}

// band is a relaxer read as a half-width around 0.5.
type band struct{ relaxer }

func (b *band) bounds() (lo, hi float64) { return 0.5 - b.value, 0.5 + b.value }

func (b *band) admits(p float64) bool {
	lo, hi := b.bounds()
	return p >= lo && p <= hi
}

// Team is one side of an assignment.
type Team struct {
	// Roles[r] is the player assigned to model.Role r.
	Roles [TeamSize]string
	// MeanRating is the mean of the players' ratings in their assigned roles.
	MeanRating float64
	// MeanOverall is the mean of the players' overall ratings.
	MeanOverall float64
	// PriorityCost sums, per player, how far down their preference list the
	// assigned role was (0 = everyone got their first choice).
	PriorityCost int
}

// Assignment is an accepted split.
type Assignment struct {
	Blue Team
	Red  Team
	// WinProbability is blue's win probability from role ratings.
	WinProbability float64
	// OverallWinProbability is blue's win probability from overall ratings.
	OverallWinProbability float64
	// Quality is the match-quality estimate of the role ratings.
	Quality float64
	// Band is the outer acceptance band in force when the split was accepted.
	Band [2]float64
	// Threshold is the priority cost limit in force at acceptance.
	Threshold int
	Attempts  int
}

// Balancer searches for assignments. It is not safe for concurrent use;
// build one per request.
type Balancer struct {
	env    rating.Env
	src    Source
	prefs  model.RolePriority
	rng    *rand.Rand
	params Params
}

// Option configures a Balancer.
type Option func(*Balancer)

// WithRand sets the random source.
func WithRand(r *rand.Rand) Option { return func(b *Balancer) { b.rng = r } }

// WithPreferences sets the curated role preferences, consulted before
// falling back to play history.
func WithPreferences(p model.RolePriority) Option { return func(b *Balancer) { b.prefs = p } }

// WithParams overrides DefaultParams.
func WithParams(p Params) Option { return func(b *Balancer) { b.params = p } }

// New returns a Balancer reading ratings from src.
func New(env rating.Env, src Source, opts ...Option) *Balancer {
	b := &Balancer{env: env, src: src, params: DefaultParams()}
	for _, o := range opts {
		o(b)
	}
	if b.rng == nil {
		seed := uint64(time.Now().UnixNano())
		b.rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return b
}

// Balance splits players into two teams.
//
// The three thresholds relax independently and never reset, so with positive
// steps the search needs fewer than a thousand shuffles: once the bands reach
// a half-width of 0.5 and the priority limit reaches the largest possible
// team cost, every shuffle is accepted. MaxShuffles only matters when a step
// is zero.
func (b *Balancer) Balance(players []string) (*Assignment, error) {
	if err := checkRoster(players); err != nil {
		return nil, err
	}
	pool := append([]string(nil), players...)
	p := b.params
	outer := band{relaxer{value: p.Band, step: p.BandStep, every: p.BandEvery}}
	middle := band{relaxer{value: p.Band, step: p.BandStep, every: p.BandEvery}}
	threshold := relaxer{value: float64(p.Threshold), step: float64(p.ThresholdStep), every: p.ThresholdEvery}

	for shuffles := 1; ; shuffles++ {
		if shuffles > p.MaxShuffles {
			return nil, fmt.Errorf("%w after %d shuffles", ErrNotBalanced, p.MaxShuffles)
		}
		b.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
		sides := [2][]string{pool[:TeamSize], pool[TeamSize:]}

		overallP := b.env.WinProbability(b.ratings(sides[0], nil), b.ratings(sides[1], nil))
		if !middle.admits(overallP) {
			middle.fail()
			continue
		}

		teams := [2]Team{b.assignRoles(sides[0]), b.assignRoles(sides[1])}
		if float64(teams[0].PriorityCost) > threshold.value || float64(teams[1].PriorityCost) > threshold.value {
			threshold.fail()
			continue
		}

		blue, red := b.roleRatings(teams[0]), b.roleRatings(teams[1])
		roleP := b.env.WinProbability(blue, red)
		if !outer.admits(roleP) {
			outer.fail()
			continue
		}
		lo, hi := outer.bounds()
		return &Assignment{
			Blue:                  teams[0],
			Red:                   teams[1],
			WinProbability:        roleP,
			OverallWinProbability: overallP,
			Quality:               b.env.Quality(blue, red),
			Band:                  [2]float64{lo, hi},
			Threshold:             int(threshold.value),
			Attempts:              shuffles,
		}, nil
	}
}

func checkRoster(players []string) error {
	if len(players) != 2*TeamSize {
		return fmt.Errorf("%w: got %d", ErrInvalidRoster, len(players))
	}
	seen := make(map[string]bool, len(players))
	for _, p := range players {
		if p == "" {
			return fmt.Errorf("%w: empty name", ErrInvalidRoster)
		}
		if seen[p] {
			return fmt.Errorf("%w: %q listed twice", ErrInvalidRoster, p)
		}
		seen[p] = true
	}
	return nil
}

// ratings returns overall ratings, or per-role ratings when roles is non-nil.
func (b *Balancer) ratings(players []string, roles []model.Role) []rating.Rating {
	out := make([]rating.Rating, len(players))
	for i, p := range players {
		scope := model.ScopeAll
		if roles != nil {
			scope = model.ScopeOf(roles[i])
		}
		out[i] = b.src.Current(p, scope)
	}
	return out
}

func (b *Balancer) roleRatings(t Team) []rating.Rating {
	return b.ratings(t.Roles[:], model.Roles[:])
}

// assignRoles lets players pick roles from lowest to highest overall rating;
// each takes their most preferred role still open.
func (b *Balancer) assignRoles(side []string) Team {
	order := append([]string(nil), side...)
	mu := make(map[string]float64, len(order))
	for _, p := range order {
		mu[p] = b.src.Current(p, model.ScopeAll).Mu
	}
	sort.SliceStable(order, func(i, j int) bool {
		if mu[order[i]] != mu[order[j]] {
			return mu[order[i]] < mu[order[j]]
		}
		return order[i] < order[j]
	})

	var t Team
	var taken [TeamSize]bool
	for _, p := range order {
		for rank, role := range b.Preference(p) {
			if taken[role] {
				continue
			}
			taken[role] = true
			t.Roles[role] = p
			t.PriorityCost += rank
			break
		}
	}

	for _, r := range model.Roles {
		p := t.Roles[r]
		t.MeanRating += b.src.Current(p, model.ScopeOf(r)).Mu
		t.MeanOverall += mu[p]
	}
	t.MeanRating /= TeamSize
	t.MeanOverall /= TeamSize
	return t
}

// Preference returns a player's roles from most to least preferred: the
// curated table if it lists the player, otherwise by how often the player
// has played each role (ties keep role order).
func (b *Balancer) Preference(player string) [TeamSize]model.Role {
	if order, ok := b.prefs.Order(player); ok {
		return order
	}
	total := b.src.Counts(player, model.ScopeAll).MatchCount
	var rate [TeamSize]float64
	if total > 0 {
		for _, r := range model.Roles {
			rate[r] = float64(b.src.Counts(player, model.ScopeOf(r)).MatchCount) / float64(total)
		}
	}
	order := model.Roles
	sort.SliceStable(order[:], func(i, j int) bool { return rate[order[i]] > rate[order[j]] })
	return order
}

// Forecast is blue's outlook against red.
type Forecast struct {
	BlueWin float64
	Quality float64
}

// Predict returns blue's win probability and the match quality for two
// arbitrary rosters. With byRole set, roster index i plays model.Roles[i] and
// role ratings are used; rosters longer than five are rejected in that mode.
func Predict(env rating.Env, src Source, blue, red []string, byRole bool) (Forecast, error) {
	pick := func(roster []string) ([]rating.Rating, error) {
		if byRole && len(roster) > TeamSize {
			return nil, fmt.Errorf("role prediction takes at most %d players per side, got %d", TeamSize, len(roster))
		}
		out := make([]rating.Rating, len(roster))
		for i, p := range roster {
			scope := model.ScopeAll
			if byRole {
				scope = model.ScopeOf(model.Roles[i])
			}
			out[i] = src.Current(p, scope)
		}
		return out, nil
	}
	a, err := pick(blue)
	if err != nil {
		return Forecast{}, err
	}
	r, err := pick(red)
	if err != nil {
		return Forecast{}, err
	}
	p := env.WinProbability(a, r)
	if math.IsNaN(p) {
		return Forecast{}, fmt.Errorf("win probability undefined")
	}
	return Forecast{BlueWin: p, Quality: env.Quality(a, r)}, nil
}
