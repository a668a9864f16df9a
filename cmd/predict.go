package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/lol-custom-rating/internal/balancer"
	"github.com/pable/lol-custom-rating/internal/report"
)

var (
	predictBlue  string
	predictRed   string
	predictRoles bool
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Win probability for two given teams",
	Long: `Estimates the probability that --blue beats --red from current ratings.

With --roles each team is read in role order (top, jungle, mid, bot, support)
and players are rated in those roles; otherwise overall ratings are used.

Example:
  lolcustom predict --blue "A,B,C,D,E" --red "F,G,H,I,J" --roles`,
	Args: cobra.NoArgs,
	RunE: runPredict,
}

func init() {
	predictCmd.Flags().StringVar(&predictBlue, "blue", "", "comma separated blue team (required)")
	predictCmd.Flags().StringVar(&predictRed, "red", "", "comma separated red team (required)")
	predictCmd.Flags().BoolVar(&predictRoles, "roles", false, "teams are listed in role order; use role ratings")
	_ = predictCmd.MarkFlagRequired("blue")
	_ = predictCmd.MarkFlagRequired("red")
}

func runPredict(cmd *cobra.Command, args []string) error {
	l, err := loadLeague()
	if err != nil {
		return err
	}
	return predict(l, splitList(predictBlue), splitList(predictRed), predictRoles)
}

func predict(l *league, blue, red []string, byRole bool) error {
	if len(blue) == 0 || len(red) == 0 {
		return fmt.Errorf("both teams need at least one player")
	}
	blue, red = l.roster(blue), l.roster(red)
	f, err := balancer.Predict(l.res.Env, l.res, blue, red, byRole)
	if err != nil {
		return err
	}
	report.PrintPrediction(os.Stdout, blue, red, f, byRole)
	return nil
}
