package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/pable/lol-custom-rating/internal/model"
	"github.com/pable/lol-custom-rating/internal/rating"
	"github.com/pable/lol-custom-rating/internal/stats"
)

var (
	exportOut     string
	exportPlayers string
	exportMin     int
)

// snapshotFile is the top-level export schema. generated_at, match_count and
// skipped_matches record where the numbers came from.
type snapshotFile struct {
	GeneratedAt    string         `json:"generated_at"`
	MatchCount     int            `json:"match_count"`
	SkippedMatches []string       `json:"skipped_matches,omitempty"`
	Model          modelJSON      `json:"model"`
	Players        []playerJSON   `json:"players"`
	Champions      []championJSON `json:"champions,omitempty"`
}

type modelJSON struct {
	Mu              float64 `json:"mu"`
	Sigma           float64 `json:"sigma"`
	Beta            float64 `json:"beta"`
	Tau             float64 `json:"tau"`
	DrawProbability float64 `json:"draw_probability"`
}

// scopeJSON is one stats.Line; averages are omitted when the scope is empty.
type scopeJSON struct {
	Champion string   `json:"champion,omitempty"`
	Scope    string   `json:"scope"`
	Matches  int      `json:"matches"`
	Wins     int      `json:"wins"`
	WinRate  *float64 `json:"win_rate,omitempty"`
	Kills    *float64 `json:"kills,omitempty"`
	Deaths   *float64 `json:"deaths,omitempty"`
	Assists  *float64 `json:"assists,omitempty"`
	KDA      *float64 `json:"kda,omitempty"`
	CS       *float64 `json:"cs,omitempty"`
	Gold     *float64 `json:"gold,omitempty"`
	Wards    *float64 `json:"control_wards,omitempty"`
	Mu       *float64 `json:"mu,omitempty"`
	Sigma    *float64 `json:"sigma,omitempty"`
	Tier     string   `json:"tier,omitempty"`
}

type playerJSON struct {
	Name      string      `json:"name"`
	Scopes    []scopeJSON `json:"scopes"`
	Champions []scopeJSON `json:"champions,omitempty"`
}

type championJSON struct {
	Name   string      `json:"name"`
	Scopes []scopeJSON `json:"scopes"`
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export ratings and stats as JSON",
	Long: `Replays the history and writes every player's per-scope stats and ratings,
plus champion stats, as one JSON document.

Example:
  lolcustom export --out league.json
  lolcustom export --players "A,B" --min 5`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file path (default: stdout)")
	exportCmd.Flags().StringVar(&exportPlayers, "players", "", "comma separated players to include (default: all)")
	exportCmd.Flags().IntVar(&exportMin, "min", 1, "minimum overall games for a player to be included")
}

func runExport(_ *cobra.Command, _ []string) error {
	l, err := loadLeague()
	if err != nil {
		return err
	}

	names := l.res.PlayerNames()
	if want := splitList(exportPlayers); len(want) > 0 {
		names = names[:0]
		for _, w := range want {
			p, err := l.player(w)
			if err != nil {
				return err
			}
			names = append(names, p)
		}
	}

	snap := snapshotFile{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		MatchCount:  l.res.Processed,
		Model:       modelOf(l.res.Env),
	}
	for _, e := range l.res.Skipped {
		snap.SkippedMatches = append(snap.SkippedMatches, e.MatchID)
	}
	for _, n := range names {
		if l.res.Players[n][model.ScopeAll].MatchCount < exportMin {
			continue
		}
		snap.Players = append(snap.Players, playerOf(l, n))
	}
	champs := make([]string, 0, len(l.res.Champions))
	for c := range l.res.Champions {
		champs = append(champs, c)
	}
	sort.Strings(champs)
	for _, c := range champs {
		lines := stats.DeriveBucket(l.res.Champions[c])
		cj := championJSON{Name: c}
		for _, s := range model.Scopes {
			cj.Scopes = append(cj.Scopes, scopeOf(lines[s], nil))
		}
		snap.Champions = append(snap.Champions, cj)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	if exportOut == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(exportOut, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write %s: %w", exportOut, err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %d player(s) and %d champion(s) to %s\n", len(snap.Players), len(snap.Champions), exportOut)
	return nil
}

func modelOf(e rating.Env) modelJSON {
	return modelJSON{Mu: e.Mu, Sigma: e.Sigma, Beta: e.Beta, Tau: e.Tau, DrawProbability: e.DrawProbability}
}

// playerOf collects a player's scopes and champion pool.
func playerOf(l *league, name string) playerJSON {
	lines, ratings := profile(l, name)
	pj := playerJSON{Name: name}
	for _, s := range model.Scopes {
		r := ratings[s]
		pj.Scopes = append(pj.Scopes, scopeOf(lines[s], &r))
	}
	pool := stats.PairBoard(l.res.Pairs, name)
	stats.SortByMatches(pool)
	for _, row := range pool {
		sj := scopeOf(row.Line, nil)
		sj.Champion = row.Name
		pj.Champions = append(pj.Champions, sj)
	}
	return pj
}

func scopeOf(l stats.Line, r *rating.Rating) scopeJSON {
	sj := scopeJSON{
		Scope:   l.Scope.String(),
		Matches: l.Matches,
		Wins:    l.Wins,
		WinRate: metric(l.WinRate),
		Kills:   metric(l.Kills),
		Deaths:  metric(l.Deaths),
		Assists: metric(l.Assists),
		KDA:     metric(l.KDA),
		CS:      metric(l.CS),
		Gold:    metric(l.Gold),
		Wards:   metric(l.Wards),
		Tier:    l.Tier,
	}
	if r != nil {
		sj.Mu, sj.Sigma = &r.Mu, &r.Sigma
	}
	return sj
}

func metric(m model.Metric) *float64 {
	if !m.Valid {
		return nil
	}
	v := m.Value
	return &v
}
