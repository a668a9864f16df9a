package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/lol-custom-rating/internal/aggregator"
	"github.com/pable/lol-custom-rating/internal/report"
	"github.com/pable/lol-custom-rating/internal/stats"
)

// btRecord is one pre-match prediction in the --out dataset.
type btRecord struct {
	MatchID string  `json:"match_id"`
	Seq     int     `json:"seq"`
	BlueWin float64 `json:"blue_win_probability"`
	BlueWon bool    `json:"blue_won"`
}

var (
	btOut    string
	btWarmup int
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Score the rating model's pre-match predictions",
	Long: `Replays the history and, before every match is rated, records the blue side's
predicted win probability from role ratings. Reports Brier score, log loss and
accuracy, and optionally writes the per-match predictions as JSON.

--warmup leaves out the first N matches, where everyone is still near the prior.

Example:
  lolcustom backtest --warmup 20 --out predictions.json`,
	Args: cobra.NoArgs,
	RunE: runBacktest,
}

func init() {
	backtestCmd.Flags().StringVar(&btOut, "out", "", "write per-match predictions to this JSON file")
	backtestCmd.Flags().IntVar(&btWarmup, "warmup", 0, "ignore the first N matches")
}

func runBacktest(_ *cobra.Command, _ []string) error {
	l, err := loadLeague()
	if err != nil {
		return err
	}
	for _, e := range l.res.Skipped {
		fmt.Fprintf(os.Stderr, "  [skip] %v\n", e)
	}

	preds := l.res.Predictions
	if btWarmup > 0 {
		if btWarmup >= len(preds) {
			fmt.Fprintf(os.Stdout, "Only %d matches; nothing left after a warmup of %d.\n", len(preds), btWarmup)
			return nil
		}
		preds = preds[btWarmup:]
	}
	report.PrintCalibration(os.Stdout, stats.Backtest(preds))

	if btOut == "" {
		return nil
	}
	data, err := json.MarshalIndent(records(preds), "", "  ")
	if err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	if err := os.WriteFile(btOut, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write %s: %w", btOut, err)
	}
	fmt.Fprintf(os.Stderr, "\nWrote %d record(s) to %s\n", len(preds), btOut)
	return nil
}

func records(preds []aggregator.Prediction) []btRecord {
	out := make([]btRecord, len(preds))
	for i, p := range preds {
		out[i] = btRecord{MatchID: p.MatchID, Seq: p.Seq, BlueWin: p.BlueWin, BlueWon: p.BlueWon}
	}
	return out
}
