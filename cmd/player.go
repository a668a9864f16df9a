package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/lol-custom-rating/internal/model"
	"github.com/pable/lol-custom-rating/internal/rating"
	"github.com/pable/lol-custom-rating/internal/report"
	"github.com/pable/lol-custom-rating/internal/stats"
)

var playerChampLimit int

// playerCmd is the cobra command for one or more player profiles.
var playerCmd = &cobra.Command{
	Use:   "player <name> [<name>...]",
	Short: "Per-scope profile and champion pool for one or more players",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPlayer,
}

func init() {
	playerCmd.Flags().IntVar(&playerChampLimit, "champions", 10, "champions to list per player (0 = all)")
}

func runPlayer(cmd *cobra.Command, args []string) error {
	l, err := loadLeague()
	if err != nil {
		return err
	}
	for _, arg := range args {
		name, err := l.player(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "No data found for %s\n", arg)
			continue
		}
		printPlayer(l, name, playerChampLimit)
	}
	return nil
}

// printPlayer prints the profile and most played champions of a known player.
func printPlayer(l *league, name string, champLimit int) {
	lines, ratings := profile(l, name)
	report.PrintProfile(os.Stdout, name, lines, ratings)

	pool := stats.PairBoard(l.res.Pairs, name)
	stats.SortByMatches(pool)
	if champLimit > 0 && len(pool) > champLimit {
		pool = pool[:champLimit]
	}
	if len(pool) > 0 {
		fmt.Fprintln(os.Stdout)
		report.PrintLeaderboard(os.Stdout, pool, "CHAMPION", false)
	}
}

func profile(l *league, name string) ([model.NumScopes]stats.Line, [model.NumScopes]rating.Rating) {
	lines := stats.DeriveBucket(l.res.Players[name])
	var ratings [model.NumScopes]rating.Rating
	for _, s := range model.Scopes {
		ratings[s] = l.res.Current(name, s)
	}
	return lines, ratings
}
