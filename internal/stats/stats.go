// Package stats turns accumulated match counts into display-ready lines:
// per-game averages, win rate, KDA, tier, and the cross-sectional
// leaderboards built from them.
package stats

import (
	"math"
	"sort"

	"github.com/pable/lol-custom-rating/internal/aggregator"
	"github.com/pable/lol-custom-rating/internal/model"
)

// Line is the derived view of one Counts value. Rate and average fields are
// invalid when the scope has no matches.
type Line struct {
	Scope   model.Scope
	Matches int
	Wins    int

	WinRate model.Metric
	Kills   model.Metric
	Deaths  model.Metric
	Assists model.Metric
	KDA     model.Metric
	CS      model.Metric
	Gold    model.Metric
	Wards   model.Metric
	Rating  model.Metric

	Tier string // empty unless a rating is present
}

// Derive computes the Line for c.
func Derive(scope model.Scope, c model.Counts) Line {
	l := Line{Scope: scope, Matches: c.MatchCount, Wins: c.WinCount}
	if c.Rated {
		l.Rating = model.Some(c.Rating)
		l.Tier = TierFor(c.Rating)
	}
	if c.MatchCount == 0 {
		return l
	}
	n := float64(c.MatchCount)
	avg := func(sum int) model.Metric { return model.Some(float64(sum) / n) }

	l.WinRate = model.Some(float64(c.WinCount) / n)
	l.Kills = avg(c.Kills)
	l.Deaths = avg(c.Deaths)
	l.Assists = avg(c.Assists)
	l.CS = avg(c.CS)
	l.Gold = avg(c.Gold)
	l.Wards = avg(c.Wards)

	d := l.Deaths.Value
	if d == 0 {
		d = 1
	}
	l.KDA = model.Some((l.Kills.Value + l.Assists.Value) / d)
	return l
}

// DeriveBucket derives every scope of b, indexed by Scope.
func DeriveBucket(b model.Bucket) [model.NumScopes]Line {
	var out [model.NumScopes]Line
	for _, s := range model.Scopes {
		out[s] = Derive(s, b[s])
	}
	return out
}

// Row is one leaderboard entry.
type Row struct {
	Name string // player or champion
	Line
}

// Leaderboard builds one row per entity for scope, skipping entities with
// fewer than minMatches games in that scope. Rows come back sorted by name;
// apply SortByRating or SortByMatches for display order.
func Leaderboard(buckets map[string]model.Bucket, scope model.Scope, minMatches int) []Row {
	rows := make([]Row, 0, len(buckets))
	for name, b := range buckets {
		if b[scope].MatchCount < minMatches {
			continue
		}
		rows = append(rows, Row{Name: name, Line: Derive(scope, b[scope])})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return rows
}

// PairBoard lists player's champions with their overall line, one row per
// champion, sorted by name.
func PairBoard(pairs map[model.PairKey]model.Bucket, player string) []Row {
	var rows []Row
	for k, b := range pairs {
		if k.Player != player {
			continue
		}
		rows = append(rows, Row{Name: k.Champion, Line: Derive(model.ScopeAll, b[model.ScopeAll])})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return rows
}

// SortByRating orders rows by rating descending; unrated rows go last.
// Ties fall back to match count, then name.
func SortByRating(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Rating.Valid != b.Rating.Valid {
			return a.Rating.Valid
		}
		if a.Rating.Value != b.Rating.Value {
			return a.Rating.Value > b.Rating.Value
		}
		if a.Matches != b.Matches {
			return a.Matches > b.Matches
		}
		return a.Name < b.Name
	})
}

// SortByMatches orders rows by match count descending, then name.
func SortByMatches(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Matches != rows[j].Matches {
			return rows[i].Matches > rows[j].Matches
		}
		return rows[i].Name < rows[j].Name
	})
}

// Calibration scores a sequence of pre-match predictions.
type Calibration struct {
	N        int
	Brier    model.Metric
	LogLoss  model.Metric
	Accuracy model.Metric // share of games the favoured side won; coin flips excluded
	Decided  int          // predictions that were not exactly 0.5
}

// Backtest scores preds. Predictions are clamped away from 0 and 1 for the log loss.
func Backtest(preds []aggregator.Prediction) Calibration {
	c := Calibration{N: len(preds)}
	if len(preds) == 0 {
		return c
	}
	var brier, logLoss float64
	correct := 0
	for _, p := range preds {
		outcome := 0.0
		if p.BlueWon {
			outcome = 1
		}
		brier += (p.BlueWin - outcome) * (p.BlueWin - outcome)

		q := math.Min(math.Max(p.BlueWin, 1e-12), 1-1e-12)
		if p.BlueWon {
			logLoss -= math.Log(q)
		} else {
			logLoss -= math.Log(1 - q)
		}

		if p.BlueWin == 0.5 {
			continue
		}
		c.Decided++
		if (p.BlueWin > 0.5) == p.BlueWon {
			correct++
		}
	}
	n := float64(len(preds))
	c.Brier = model.Some(brier / n)
	c.LogLoss = model.Some(logLoss / n)
	if c.Decided > 0 {
		c.Accuracy = model.Some(float64(correct) / float64(c.Decided))
	}
	return c
}
