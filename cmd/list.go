package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/lol-custom-rating/internal/model"
	"github.com/pable/lol-custom-rating/internal/report"
)

var (
	listWith   string
	listQuorum int
	listLimit  int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored matches, newest first",
	Long: `Lists stored matches in reverse replay order.

--with restricts the list to matches featuring the given players; --quorum sets
how many of them must be present (default: all).

Examples:
  lolcustom list --limit 20
  lolcustom list --with "Faker,Caps,Rekkles" --quorum 2`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listWith, "with", "", "comma separated players that must appear")
	listCmd.Flags().IntVar(&listQuorum, "quorum", 0, "how many --with players must appear (0 = all)")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "show at most this many matches (0 = all)")
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	matches, err := db.ListMatches()
	if err != nil {
		return fmt.Errorf("list matches: %w", err)
	}
	if len(matches) == 0 {
		fmt.Fprintln(os.Stdout, "No matches stored yet. Run 'lolcustom import <dir>' or 'lolcustom fetch' to add some.")
		return nil
	}

	if with := splitList(listWith); len(with) > 0 {
		aliases, err := db.LoadAliases()
		if err != nil {
			return fmt.Errorf("load aliases: %w", err)
		}
		quorum := listQuorum
		if quorum <= 0 || quorum > len(with) {
			quorum = len(with)
		}
		ids, err := db.MatchesWithPlayers(rawNames(with, aliases), quorum)
		if err != nil {
			return fmt.Errorf("filter matches: %w", err)
		}
		keep := make(map[string]bool, len(ids))
		for _, id := range ids {
			keep[id] = true
		}
		filtered := matches[:0]
		for _, m := range matches {
			if keep[m.ID] {
				filtered = append(filtered, m)
			}
		}
		matches = filtered
	}
	if listLimit > 0 && len(matches) > listLimit {
		matches = matches[:listLimit]
	}

	report.PrintMatchList(os.Stdout, matches)
	return nil
}

// rawNames expands each name to every raw account that maps onto the same
// canonical player, since stored rows keep the names as exported.
func rawNames(names []string, aliases model.AliasTable) []string {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[aliases.Canonical(n)] = true
	}
	var out []string
	for c := range want {
		out = append(out, c)
	}
	for raw, c := range aliases {
		if want[c] && !want[raw] {
			out = append(out, raw)
		}
	}
	return out
}
