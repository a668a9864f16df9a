package cmd

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/pable/lol-custom-rating/internal/model"
	"github.com/pable/lol-custom-rating/internal/stats"
)

// summaryCmd is the cobra command for displaying a high-level database overview.
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show a high-level overview of the database",
	Long: `Display aggregate statistics about every stored match: match count, import
range, side win split, most picked champions, most active players and the
matches left out of the replay.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func newSummaryTable() *tablewriter.Table {
	return tablewriter.NewTable(os.Stdout, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
}

func runSummary(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ov, err := db.GetDBOverview()
	if err != nil {
		return fmt.Errorf("get overview: %w", err)
	}
	if ov.TotalMatches == 0 {
		fmt.Fprintln(os.Stdout, "No matches stored yet. Run 'lolcustom import <dir>' or 'lolcustom fetch' to add some.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "\n=== Database Summary ===\n\n")
	fmt.Fprintf(os.Stdout, "  Matches stored : %d\n", ov.TotalMatches)
	fmt.Fprintf(os.Stdout, "  Imported       : %s → %s\n",
		ov.EarliestImport.Format("2006-01-02"), ov.LatestImport.Format("2006-01-02"))
	fmt.Fprintf(os.Stdout, "  Accounts seen  : %d\n", ov.UniqueAccounts)
	fmt.Fprintf(os.Stdout, "  Champions seen : %d\n", ov.UniqueChampions)
	if decided := ov.BlueWins + ov.RedWins; decided > 0 {
		fmt.Fprintf(os.Stdout, "  Side wins      : blue %d (%.0f%%)  red %d\n",
			ov.BlueWins, 100*float64(ov.BlueWins)/float64(decided), ov.RedWins)
	}

	champs, err := db.GetTopChampions(10)
	if err != nil {
		return fmt.Errorf("get top champions: %w", err)
	}
	fmt.Fprintf(os.Stdout, "\n--- Most Picked Champions ---\n\n")
	ct := newSummaryTable()
	ct.Header("CHAMPION", "PICKS", "WINS", "WIN%")
	for _, c := range champs {
		ct.Append(
			c.Champion,
			fmt.Sprintf("%d", c.Picks),
			fmt.Sprintf("%d", c.Wins),
			fmt.Sprintf("%.0f%%", 100*float64(c.Wins)/float64(c.Picks)),
		)
	}
	ct.Render()

	l, err := replay(db)
	if err != nil {
		return err
	}
	rows := stats.Leaderboard(l.res.Players, model.ScopeAll, 1)
	stats.SortByMatches(rows)
	if len(rows) > 10 {
		rows = rows[:10]
	}
	fmt.Fprintf(os.Stdout, "\n--- Most Active Players ---\n\n")
	pt := newSummaryTable()
	pt.Header("PLAYER", "MATCHES", "WIN%", "KDA", "MU", "TIER")
	for _, r := range rows {
		pt.Append(
			r.Name,
			fmt.Sprintf("%d", r.Matches),
			pct(r.WinRate),
			r.KDA.Text(2),
			r.Rating.Text(2),
			r.Tier,
		)
	}
	pt.Render()

	// Rejected matches, only shown when there are any.
	if len(l.res.Skipped) > 0 {
		fmt.Fprintf(os.Stdout, "\n--- Skipped During Replay ---\n\n")
		for _, e := range l.res.Skipped {
			fmt.Fprintf(os.Stdout, "  #%-4d %.12s  %s\n", e.Seq, e.MatchID, e.Reason)
		}
	}
	return nil
}

func pct(m model.Metric) string {
	if !m.Valid {
		return "-"
	}
	return fmt.Sprintf("%.0f%%", 100*m.Value)
}
