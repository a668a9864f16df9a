package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/lol-custom-rating/internal/report"
)

var showPlayer string

var showCmd = &cobra.Command{
	Use:   "show <id-prefix>",
	Short: "Show a stored match by ID prefix",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().StringVar(&showPlayer, "player", "", "highlight this player")
}

func runShow(cmd *cobra.Command, args []string) error {
	prefix := args[0]

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	m, err := db.GetMatchByPrefix(prefix)
	if err != nil {
		return fmt.Errorf("query match: %w", err)
	}
	if m == nil {
		fmt.Fprintf(os.Stderr, "No match found with ID prefix %q\n", prefix)
		return nil
	}
	rows, err := db.GetMatchRows(m.ID)
	if err != nil {
		return fmt.Errorf("get match rows: %w", err)
	}

	report.PrintMatchSummary(os.Stdout, *m)
	report.PrintMatchTable(os.Stdout, rows, showPlayer)
	return nil
}
