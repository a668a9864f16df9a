package cmd

import (
	"math/rand/v2"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/lol-custom-rating/internal/balancer"
	"github.com/pable/lol-custom-rating/internal/report"
)

var (
	balancePlayers     string
	balanceSeed        uint64
	balanceMaxShuffles int
	balanceNoPrefs     bool
)

var balanceCmd = &cobra.Command{
	Use:   "balance [player...]",
	Short: "Split ten players into two balanced teams with roles",
	Long: `Shuffles the ten players into two teams until the predicted outcome is close
to a coin flip and everyone plays a role they are willing to play.

Roles are handed out by position_priority.json when a player is listed there,
otherwise by how often they have played each role.

Examples:
  lolcustom balance A B C D E F G H I J
  lolcustom balance --players "A,B,C,D,E,F,G,H,I,J" --seed 7`,
	RunE: runBalance,
}

func init() {
	balanceCmd.Flags().StringVar(&balancePlayers, "players", "", "comma separated players (alternative to arguments)")
	balanceCmd.Flags().Uint64Var(&balanceSeed, "seed", 0, "shuffle seed for a reproducible split (0 = random)")
	balanceCmd.Flags().IntVar(&balanceMaxShuffles, "max-shuffles", balancer.DefaultParams().MaxShuffles, "give up after this many shuffles")
	balanceCmd.Flags().BoolVar(&balanceNoPrefs, "ignore-priority", false, "ignore stored role priorities")
}

func runBalance(cmd *cobra.Command, args []string) error {
	names := append(args, splitList(balancePlayers)...)
	l, err := loadLeague()
	if err != nil {
		return err
	}
	a, err := balance(l, names, balanceSeed, balanceMaxShuffles, !balanceNoPrefs)
	if err != nil {
		return err
	}
	report.PrintAssignment(os.Stdout, a, l.res)
	return nil
}

// balance builds a Balancer for one request and runs it.
func balance(l *league, names []string, seed uint64, maxShuffles int, usePrefs bool) (*balancer.Assignment, error) {
	params := balancer.DefaultParams()
	if maxShuffles > 0 {
		params.MaxShuffles = maxShuffles
	}
	opts := []balancer.Option{balancer.WithParams(params)}
	if usePrefs {
		opts = append(opts, balancer.WithPreferences(l.prefs))
	}
	if seed != 0 {
		opts = append(opts, balancer.WithRand(rand.New(rand.NewPCG(seed, seed))))
	}

	roster := l.roster(names)
	log.Debug().Strs("players", roster).Uint64("seed", seed).Msg("balancing")
	a, err := balancer.New(l.res.Env, l.res, opts...).Balance(roster)
	if err != nil {
		return nil, err
	}
	log.Debug().Int("shuffles", a.Attempts).Int("threshold", a.Threshold).Msg("balanced")
	return a, nil
}
