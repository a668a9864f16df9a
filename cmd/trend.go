package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/lol-custom-rating/internal/model"
	"github.com/pable/lol-custom-rating/internal/report"
)

var trendScope string

var trendCmd = &cobra.Command{
	Use:   "trend <name>",
	Short: "Chronological rating history for a player",
	Long: `Prints a player's rating after every game they played in the scope, starting
from the prior, with the change in mean per game.`,
	Args: cobra.ExactArgs(1),
	RunE: runTrend,
}

func init() {
	trendCmd.Flags().StringVar(&trendScope, "scope", "all", "all|top|jungle|mid|bot|support")
}

func runTrend(cmd *cobra.Command, args []string) error {
	scope, err := model.ParseScope(trendScope)
	if err != nil {
		return err
	}
	l, err := loadLeague()
	if err != nil {
		return err
	}
	name, err := l.player(args[0])
	if err != nil {
		return err
	}
	history := l.res.History(name, scope)
	if len(history) <= 1 {
		fmt.Fprintf(os.Stdout, "%s has no games in scope %s\n", name, scope)
		return nil
	}
	report.PrintTrend(os.Stdout, scope, history)
	return nil
}
