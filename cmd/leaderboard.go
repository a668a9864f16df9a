package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/lol-custom-rating/internal/model"
	"github.com/pable/lol-custom-rating/internal/report"
	"github.com/pable/lol-custom-rating/internal/stats"
)

var (
	lbScope     string
	lbMin       int
	lbChampions bool
	lbSort      string
	lbLimit     int
)

var leaderboardCmd = &cobra.Command{
	Use:     "leaderboard",
	Aliases: []string{"lb"},
	Short:   "Rank players or champions in one scope",
	Long: `Replays every stored match and ranks players (default) or champions.

Scopes: all, top, jungle, mid, bot, support. Players are sorted by their
rating in the scope; champions carry no rating and are sorted by games played.

Examples:
  lolcustom leaderboard
  lolcustom leaderboard --scope jungle --min 5
  lolcustom leaderboard --champions --scope mid`,
	Args: cobra.NoArgs,
	RunE: runLeaderboard,
}

func init() {
	leaderboardCmd.Flags().StringVar(&lbScope, "scope", "all", "all|top|jungle|mid|bot|support")
	leaderboardCmd.Flags().IntVar(&lbMin, "min", 1, "minimum games in scope")
	leaderboardCmd.Flags().BoolVar(&lbChampions, "champions", false, "rank champions instead of players")
	leaderboardCmd.Flags().StringVar(&lbSort, "sort", "", "rating|matches (default: rating for players, matches for champions)")
	leaderboardCmd.Flags().IntVar(&lbLimit, "limit", 0, "show at most this many rows (0 = all)")
}

func runLeaderboard(cmd *cobra.Command, args []string) error {
	scope, err := model.ParseScope(lbScope)
	if err != nil {
		return err
	}
	l, err := loadLeague()
	if err != nil {
		return err
	}
	rows, err := leaderboardRows(l, scope, lbMin, lbChampions, lbSort)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintf(os.Stdout, "Nobody has %d+ games in scope %s.\n", lbMin, scope)
		return nil
	}
	if lbLimit > 0 && len(rows) > lbLimit {
		rows = rows[:lbLimit]
	}
	if lbChampions {
		report.PrintLeaderboard(os.Stdout, rows, "CHAMPION", false)
	} else {
		report.PrintLeaderboard(os.Stdout, rows, "PLAYER", true)
	}
	return nil
}

// leaderboardRows builds and orders one leaderboard.
func leaderboardRows(l *league, scope model.Scope, minMatches int, champions bool, order string) ([]stats.Row, error) {
	buckets := l.res.Players
	if champions {
		buckets = l.res.Champions
	}
	rows := stats.Leaderboard(buckets, scope, minMatches)

	if order == "" {
		order = "rating"
		if champions {
			order = "matches"
		}
	}
	switch order {
	case "rating":
		stats.SortByRating(rows)
	case "matches":
		stats.SortByMatches(rows)
	default:
		return nil, fmt.Errorf("unknown sort %q (want rating or matches)", order)
	}
	return rows, nil
}
