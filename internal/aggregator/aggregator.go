package aggregator

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/pable/lol-custom-rating/internal/model"
	"github.com/pable/lol-custom-rating/internal/rating"
)

// ErrMalformedMatch is wrapped by every MatchError.
var ErrMalformedMatch = errors.New("malformed match")

// MatchError describes a match that was rejected and left out of the replay.
type MatchError struct {
	MatchID string
	Seq     int
	Reason  string
}

func (e *MatchError) Error() string {
	return fmt.Sprintf("match %s (#%d): %s", e.MatchID, e.Seq, e.Reason)
}

func (e *MatchError) Unwrap() error { return ErrMalformedMatch }

// Config parameterises one replay.
type Config struct {
	// Env is the rating model; the zero value means rating.DefaultEnv().
	Env     rating.Env
	Aliases model.AliasTable
	// Logger receives one warning per skipped match; nil discards.
	Logger *zerolog.Logger
}

// Prediction is the blue side's pre-match win probability next to the outcome.
type Prediction struct {
	MatchID string
	Seq     int
	BlueWin float64
	BlueWon bool
}

// Result is the complete state after replaying a match history.
type Result struct {
	Env rating.Env

	Players   map[string]model.Bucket
	Champions map[string]model.Bucket
	Pairs     map[model.PairKey]model.Bucket

	Predictions []Prediction
	Skipped     []*MatchError
	Processed   int

	// histories[player][scope] is newest first; the last element is the prior.
	histories map[string]*[model.NumScopes][]rating.Rating
}

func newResult(env rating.Env) *Result {
	return &Result{
		Env:       env,
		Players:   make(map[string]model.Bucket),
		Champions: make(map[string]model.Bucket),
		Pairs:     make(map[model.PairKey]model.Bucket),
		histories: make(map[string]*[model.NumScopes][]rating.Rating),
	}
}

// Process replays matches in slice order from fresh priors. The same input
// always yields the same Result.
func Process(matches []model.Match, cfg Config) *Result {
	env := cfg.Env
	if env.Sigma == 0 {
		env = rating.DefaultEnv()
	}
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}

	res := newResult(env)
	for _, m := range matches {
		rows := CanonicalRows(m.Rows, cfg.Aliases)
		if err := Validate(m.ID, m.Seq, rows); err != nil {
			var me *MatchError
			errors.As(err, &me)
			res.Skipped = append(res.Skipped, me)
			log.Warn().Str("match", m.ID).Int("seq", m.Seq).Str("reason", me.Reason).Msg("skipping malformed match")
			continue
		}
		p := res.apply(m, rows)
		log.Debug().Str("match", m.ID).Float64("blue_win_prob", p.BlueWin).Bool("blue_won", p.BlueWon).Msg("match applied")
	}
	return res
}

// CanonicalRows returns a copy of rows with every player name resolved through aliases.
func CanonicalRows(rows []model.Row, aliases model.AliasTable) []model.Row {
	out := make([]model.Row, len(rows))
	for i, r := range rows {
		r.Player = aliases.Canonical(r.Player)
		out[i] = r
	}
	return out
}

// Validate checks that rows form two sides of five with one player per role,
// no repeated player, and win flags that agree within a side and differ across.
func Validate(id string, seq int, rows []model.Row) error {
	fail := func(format string, args ...any) error {
		return &MatchError{MatchID: id, Seq: seq, Reason: fmt.Sprintf(format, args...)}
	}
	if len(rows) != model.MatchSize {
		return fail("expected %d rows, got %d", model.MatchSize, len(rows))
	}

	type sideState struct {
		n     int
		roles [model.NumRoles]bool
		win   bool
	}
	sides := map[model.Side]*sideState{model.SideBlue: {}, model.SideRed: {}}
	seen := make(map[string]bool, len(rows))

	for _, r := range rows {
		if r.Player == "" {
			return fail("empty player name")
		}
		if seen[r.Player] {
			return fail("player %q appears twice", r.Player)
		}
		seen[r.Player] = true

		st, ok := sides[r.Side]
		if !ok {
			return fail("player %q has unknown side %d", r.Player, int(r.Side))
		}
		if !r.Role.Valid() {
			return fail("player %q has invalid role", r.Player)
		}
		if st.roles[r.Role] {
			return fail("role %s duplicated on %s side", r.Role, r.Side)
		}
		st.roles[r.Role] = true
		if st.n > 0 && st.win != r.Win {
			return fail("inconsistent win flags on %s side", r.Side)
		}
		st.win = r.Win
		st.n++
	}
	blue, red := sides[model.SideBlue], sides[model.SideRed]
	if blue.n != model.NumRoles || red.n != model.NumRoles {
		return fail("sides have %d and %d players, want %d each", blue.n, red.n, model.NumRoles)
	}
	if blue.win == red.win {
		return fail("both sides marked as %s", winLabel(blue.win))
	}
	return nil
}

func winLabel(w bool) string {
	if w {
		return "winners"
	}
	return "losers"
}

// apply folds one validated match into res.
func (res *Result) apply(m model.Match, rows []model.Row) Prediction {
	var blue, red []model.Row
	for _, r := range rows {
		if r.Side == model.SideBlue {
			blue = append(blue, r)
		} else {
			red = append(red, r)
		}
	}
	blueWon := blue[0].Win

	current := func(side []model.Row, scopeOf func(model.Row) model.Scope) []rating.Rating {
		out := make([]rating.Rating, len(side))
		for i, r := range side {
			out[i] = res.Current(r.Player, scopeOf(r))
		}
		return out
	}
	overall := func(model.Row) model.Scope { return model.ScopeAll }
	byRole := func(r model.Row) model.Scope { return model.ScopeOf(r.Role) }

	blueAll, redAll := current(blue, overall), current(red, overall)
	blueRole, redRole := current(blue, byRole), current(red, byRole)

	pred := Prediction{
		MatchID: m.ID,
		Seq:     m.Seq,
		BlueWin: res.Env.WinProbability(blueAll, redAll),
		BlueWon: blueWon,
	}

	winner := rating.WinnerA
	if !blueWon {
		winner = rating.WinnerB
	}
	blueAll, redAll = res.Env.Rate(blueAll, redAll, winner)
	blueRole, redRole = res.Env.Rate(blueRole, redRole, winner)

	for i, r := range blue {
		res.push(r.Player, model.ScopeAll, blueAll[i])
		res.push(r.Player, model.ScopeOf(r.Role), blueRole[i])
	}
	for i, r := range red {
		res.push(r.Player, model.ScopeAll, redAll[i])
		res.push(r.Player, model.ScopeOf(r.Role), redRole[i])
	}

	for _, r := range rows {
		pb := res.Players[r.Player].Add(r)
		for _, s := range []model.Scope{model.ScopeAll, model.ScopeOf(r.Role)} {
			pb[s] = pb[s].WithRating(res.Current(r.Player, s).Mu)
		}
		res.Players[r.Player] = pb
		res.Champions[r.Champion] = res.Champions[r.Champion].Add(r)
		key := model.PairKey{Player: r.Player, Champion: r.Champion}
		res.Pairs[key] = res.Pairs[key].Add(r)
	}

	res.Predictions = append(res.Predictions, pred)
	res.Processed++
	return pred
}

// push prepends r to the player's history for scope, creating every scope's
// prior on first sight.
func (res *Result) push(player string, scope model.Scope, r rating.Rating) {
	h := res.history(player)
	h[scope] = append([]rating.Rating{r}, h[scope]...)
}

func (res *Result) history(player string) *[model.NumScopes][]rating.Rating {
	h, ok := res.histories[player]
	if !ok {
		h = new([model.NumScopes][]rating.Rating)
		for _, s := range model.Scopes {
			h[s] = []rating.Rating{res.Env.CreateRating()}
		}
		res.histories[player] = h
	}
	return h
}

// Current returns the player's latest rating for scope, or the prior for an
// unknown player.
func (res *Result) Current(player string, scope model.Scope) rating.Rating {
	if h, ok := res.histories[player]; ok {
		return h[scope][0]
	}
	return res.Env.CreateRating()
}

// History returns a copy of the player's rating history for scope, newest
// first and ending with the prior. Unknown players get nil.
func (res *Result) History(player string, scope model.Scope) []rating.Rating {
	h, ok := res.histories[player]
	if !ok {
		return nil
	}
	return append([]rating.Rating(nil), h[scope]...)
}

// Counts returns the player's accumulated counts for scope.
func (res *Result) Counts(player string, scope model.Scope) model.Counts {
	return res.Players[player][scope]
}

// Known reports whether player appeared in at least one applied match.
func (res *Result) Known(player string) bool {
	_, ok := res.Players[player]
	return ok
}

// PlayerNames returns every known player, sorted.
func (res *Result) PlayerNames() []string {
	names := make([]string, 0, len(res.Players))
	for p := range res.Players {
		names = append(names, p)
	}
	sort.Strings(names)
	return names
}

