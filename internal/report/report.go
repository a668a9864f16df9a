package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/lol-custom-rating/internal/balancer"
	"github.com/pable/lol-custom-rating/internal/model"
	"github.com/pable/lol-custom-rating/internal/rating"
	"github.com/pable/lol-custom-rating/internal/stats"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
}

func pct(m model.Metric) string {
	if !m.Valid {
		return "-"
	}
	return fmt.Sprintf("%.0f%%", m.Value*100)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// sampleFlag marks lines built from too few games to read much into.
func sampleFlag(n int) string {
	switch {
	case n >= 20:
		return "OK"
	case n >= 5:
		return "LOW"
	case n > 0:
		return "VERY_LOW"
	default:
		return "-"
	}
}

// PrintMatchList prints one line per stored match.
func PrintMatchList(w io.Writer, list []model.MatchSummary) {
	table := newTable(w)
	table.Header("#", "ID", "IMPORTED", "SOURCE", "WINNER", "KILLS (B-R)")
	for _, s := range list {
		table.Append(
			strconv.Itoa(s.Seq),
			shortID(s.ID),
			s.ImportedAt.Format("2006-01-02 15:04"),
			s.Source,
			s.Winner.String(),
			fmt.Sprintf("%d-%d", s.BlueKills, s.RedKills),
		)
	}
	table.Render()
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// PrintMatchSummary prints a one-line header for the match.
func PrintMatchSummary(w io.Writer, s model.MatchSummary) {
	fmt.Fprintf(w, "\nMatch #%d  |  Winner: %s  |  Kills: BLUE %d - RED %d  |  Source: %s  |  ID: %s\n\n",
		s.Seq, s.Winner, s.BlueKills, s.RedKills, orDash(s.Source), shortID(s.ID))
}

// PrintMatchTable prints both sides ordered TOP..SUP. Rows without a valid
// side or role follow, shown as "?". If focus is non-empty, that
// player's row is marked with ">".
func PrintMatchTable(w io.Writer, rows []model.Row, focus string) {
	table := newTable(w)
	table.Header(" ", "SIDE", "ROLE", "PLAYER", "CHAMPION", "K", "D", "A", "KDA", "CS", "GOLD", "WARDS", "RESULT")

	printed := make([]bool, len(rows))
	appendRow := func(r model.Row) {
		marker := " "
		if focus != "" && r.Player == focus {
			marker = ">"
		}
		result := "LOSS"
		if r.Win {
			result = "WIN"
		}
		table.Append(
			marker,
			r.Side.String(),
			r.Role.String(),
			r.Player,
			r.Champion,
			strconv.Itoa(r.Kills),
			strconv.Itoa(r.Deaths),
			strconv.Itoa(r.Assists),
			fmt.Sprintf("%.2f", r.KDA()),
			strconv.Itoa(r.CS()),
			strconv.Itoa(r.Gold),
			strconv.Itoa(r.Wards),
			result,
		)
	}
	for _, side := range []model.Side{model.SideBlue, model.SideRed} {
		for _, role := range model.Roles {
			for i, r := range rows {
				if r.Side != side || r.Role != role {
					continue
				}
				printed[i] = true
				appendRow(r)
			}
		}
	}
	for i, r := range rows {
		if !printed[i] {
			appendRow(r)
		}
	}
	table.Render()
}

func lineCells(l stats.Line) []any {
	return []any{
		strconv.Itoa(l.Matches),
		strconv.Itoa(l.Wins),
		pct(l.WinRate),
		l.Kills.Text(1),
		l.Deaths.Text(1),
		l.Assists.Text(1),
		l.KDA.Text(2),
		l.CS.Text(0),
		l.Gold.Text(0),
		l.Wards.Text(1),
	}
}

var lineHeader = []any{"M", "W", "WIN%", "K", "D", "A", "KDA", "CS", "GOLD", "WARDS"}

// PrintLeaderboard prints one row per entity. The rating and tier columns
// are only shown when withRating is set (players, not champions).
func PrintLeaderboard(w io.Writer, rows []stats.Row, nameHeader string, withRating bool) {
	table := newTable(w)
	header := append([]any{"#", nameHeader}, lineHeader...)
	if withRating {
		header = append(header, "RATING", "TIER")
	}
	table.Header(header...)

	for i, r := range rows {
		cells := append([]any{strconv.Itoa(i + 1), r.Name}, lineCells(r.Line)...)
		if withRating {
			cells = append(cells, r.Rating.Text(2), orDash(r.Tier))
		}
		table.Append(cells...)
	}
	table.Render()
}

// PrintProfile prints a player's line for every scope next to their current
// rating in that scope.
func PrintProfile(w io.Writer, name string, lines [model.NumScopes]stats.Line, ratings [model.NumScopes]rating.Rating) {
	fmt.Fprintf(w, "\n%s  |  overall %s  |  tier %s\n\n", name, ratings[model.ScopeAll], orDash(lines[model.ScopeAll].Tier))

	table := newTable(w)
	header := append([]any{"SCOPE"}, lineHeader...)
	header = append(header, "MU", "SIGMA", "MU-3σ", "TIER", "SAMPLE")
	table.Header(header...)
	for _, s := range model.Scopes {
		l := lines[s]
		r := ratings[s]
		cells := append([]any{s.String()}, lineCells(l)...)
		cells = append(cells,
			fmt.Sprintf("%.2f", r.Mu),
			fmt.Sprintf("%.2f", r.Sigma),
			fmt.Sprintf("%.2f", r.Exposure()),
			orDash(l.Tier),
			sampleFlag(l.Matches),
		)
		table.Append(cells...)
	}
	table.Render()
}

// PrintTrend prints a rating history oldest first. history is newest first,
// ending with the prior, as the aggregator keeps it.
func PrintTrend(w io.Writer, scope model.Scope, history []rating.Rating) {
	table := newTable(w)
	table.Header("GAME", "SCOPE", "MU", "SIGMA", "MU-3σ", "ΔMU", "TIER")
	var prev *rating.Rating
	for i := len(history) - 1; i >= 0; i-- {
		r := history[i]
		game := strconv.Itoa(len(history) - 1 - i)
		if i == len(history)-1 {
			game = "prior"
		}
		delta := "-"
		if prev != nil {
			delta = fmt.Sprintf("%+.2f", r.Mu-prev.Mu)
		}
		table.Append(
			game,
			scope.String(),
			fmt.Sprintf("%.2f", r.Mu),
			fmt.Sprintf("%.2f", r.Sigma),
			fmt.Sprintf("%.2f", r.Exposure()),
			delta,
			stats.TierFor(r.Mu),
		)
		prev = &history[i]
	}
	table.Render()
}

// PrintAssignment prints a balanced split role by role.
func PrintAssignment(w io.Writer, a *balancer.Assignment, src balancer.Source) {
	table := newTable(w)
	table.Header("ROLE", "BLUE", "MU", "RED", "MU")
	for _, r := range model.Roles {
		scope := model.ScopeOf(r)
		b, rd := a.Blue.Roles[r], a.Red.Roles[r]
		table.Append(
			r.String(),
			b, fmt.Sprintf("%.2f", src.Current(b, scope).Mu),
			rd, fmt.Sprintf("%.2f", src.Current(rd, scope).Mu),
		)
	}
	table.Append("MEAN",
		"role", fmt.Sprintf("%.2f", a.Blue.MeanRating),
		"role", fmt.Sprintf("%.2f", a.Red.MeanRating))
	table.Append("",
		"overall", fmt.Sprintf("%.2f", a.Blue.MeanOverall),
		"overall", fmt.Sprintf("%.2f", a.Red.MeanOverall))
	table.Render()

	fmt.Fprintf(w, "\nBlue win probability: %.1f%% (role)  %.1f%% (overall)  match quality %.1f%%\n",
		a.WinProbability*100, a.OverallWinProbability*100, a.Quality*100)
	fmt.Fprintf(w, "Accepted band [%.2f, %.2f]  priority cost %d/%d (limit %d)  after %d shuffles\n",
		a.Band[0], a.Band[1], a.Blue.PriorityCost, a.Red.PriorityCost, a.Threshold, a.Attempts)
}

// PrintPrediction prints two rosters, blue's win probability and the match quality.
func PrintPrediction(w io.Writer, blue, red []string, f balancer.Forecast, byRole bool) {
	table := newTable(w)
	table.Header("SLOT", "BLUE", "RED")
	n := max(len(blue), len(red))
	for i := 0; i < n; i++ {
		slot := strconv.Itoa(i + 1)
		if byRole && i < model.NumRoles {
			slot = model.Roles[i].String()
		}
		var b, r string
		if i < len(blue) {
			b = blue[i]
		}
		if i < len(red) {
			r = red[i]
		}
		table.Append(slot, b, r)
	}
	table.Render()
	mode := "overall"
	if byRole {
		mode = "role"
	}
	fmt.Fprintf(w, "\nBlue win probability (%s ratings): %.1f%%  match quality %.1f%%\n", mode, f.BlueWin*100, f.Quality*100)
}

// PrintCalibration prints how well pre-match predictions matched outcomes.
func PrintCalibration(w io.Writer, c stats.Calibration) {
	table := newTable(w)
	table.Header("GAMES", "DECIDED", "ACCURACY", "BRIER", "LOG LOSS")
	table.Append(
		strconv.Itoa(c.N),
		strconv.Itoa(c.Decided),
		pct(c.Accuracy),
		c.Brier.Text(4),
		c.LogLoss.Text(4),
	)
	table.Render()
	fmt.Fprintln(w, "\nBrier 0.25 / log loss 0.693 is what always predicting 50% scores.")
}
