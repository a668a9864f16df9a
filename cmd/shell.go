package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pable/lol-custom-rating/internal/model"
	"github.com/pable/lol-custom-rating/internal/report"
	"github.com/pable/lol-custom-rating/internal/storage"
)

var (
	cPrompt   = color.New(color.FgCyan, color.Bold)
	cMuted    = color.New(color.Faint)
	cError    = color.New(color.FgRed, color.Bold)
	cWarn     = color.New(color.FgYellow)
	cHeader   = color.New(color.FgCyan, color.Bold)
	cCmd      = color.New(color.FgYellow, color.Bold)
	cGreeting = color.New(color.Bold)
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive REPL session",
	Long: `Open a persistent session against the database. The history is replayed once
and kept in memory until 'import' or 'reload'. Type 'help' for available commands.`,
	Args: cobra.NoArgs,
	RunE: runShell,
}

// shellSession holds the open database and the replayed league.
type shellSession struct {
	ctx context.Context
	db  *storage.DB
	l   *league
}

func runShell(cmd *cobra.Command, _ []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	s := &shellSession{ctx: cmd.Context(), db: db}
	if err := s.reload(); err != nil {
		return err
	}

	cGreeting.Println("lolcustom shell")
	cMuted.Printf("%d matches, %d players. type 'help' or 'exit'\n", s.l.res.Processed, len(s.l.res.Players))
	fmt.Println()

	// The scanner blocks on stdin, so an interrupt ends the session here.
	go func() {
		<-s.ctx.Done()
		fmt.Println()
		db.Close()
		os.Exit(130)
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		cPrompt.Print("lolcustom")
		cMuted.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		tokens := strings.Fields(line)
		name, args := tokens[0], tokens[1:]

		switch name {
		case "exit", "quit":
			return nil
		case "help":
			shellHelp()
		case "list":
			s.list()
		case "show":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: show <id-prefix> [--player <name>]")
				continue
			}
			var focus string
			for i := 1; i+1 < len(args); i++ {
				if args[i] == "--player" {
					focus = args[i+1]
				}
			}
			s.show(args[0], focus)
		case "player":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: player <name> [<name>...]")
				continue
			}
			s.player(args)
		case "lb", "leaderboard":
			s.leaderboard(args)
		case "trend":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: trend <name> [scope]")
				continue
			}
			s.trend(args)
		case "balance":
			s.balance(rosterArgs(args))
		case "predict":
			s.predict(args)
		case "import":
			if len(args) != 1 {
				cError.Fprintln(os.Stderr, "usage: import <dir>")
				continue
			}
			s.importDir(args[0])
		case "reload":
			if err := s.reload(); err != nil {
				cError.Fprintf(os.Stderr, "error: %v\n", err)
			}
		default:
			cWarn.Fprintf(os.Stderr, "unknown command %q, type 'help'\n", name)
		}
	}
	return nil
}

func shellHelp() {
	fmt.Println()
	type entry struct{ cmd, desc string }
	rows := []entry{
		{"list", "list stored matches, newest first"},
		{"show <id-prefix> [--player <name>]", "show one match"},
		{"player <name> [...]", "profile and champion pool"},
		{"lb [scope] [--champions]", "leaderboard for a scope (default all)"},
		{"trend <name> [scope]", "rating history"},
		{"balance <p1,p2,...,p10>", "split ten players into teams"},
		{"predict <a,b,..> vs <c,d,..> [--roles]", "win probability of two teams"},
		{"import <dir>", "import a directory of exports and replay"},
		{"reload", "replay the database again"},
		{"help", "show this message"},
		{"exit / quit", "close the session"},
	}
	for _, r := range rows {
		fmt.Print("  ")
		cCmd.Printf("%-40s", r.cmd)
		fmt.Println(r.desc)
	}
	fmt.Println()
}

func (s *shellSession) reload() error {
	l, err := replay(s.db)
	if err != nil {
		return err
	}
	s.l = l
	for _, e := range l.res.Skipped {
		cWarn.Fprintf(os.Stderr, "skipped %v\n", e)
	}
	return nil
}

func (s *shellSession) list() {
	matches, err := s.db.ListMatches()
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if len(matches) == 0 {
		cMuted.Println("No matches stored yet.")
		return
	}
	report.PrintMatchList(os.Stdout, matches)
}

func (s *shellSession) show(prefix, focus string) {
	m, err := s.db.GetMatchByPrefix(prefix)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if m == nil {
		cWarn.Fprintf(os.Stderr, "no match found with prefix %q\n", prefix)
		return
	}
	rows, err := s.db.GetMatchRows(m.ID)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	report.PrintMatchSummary(os.Stdout, *m)
	report.PrintMatchTable(os.Stdout, rows, focus)
}

func (s *shellSession) player(names []string) {
	for _, n := range names {
		p, err := s.l.player(n)
		if err != nil {
			cWarn.Fprintf(os.Stderr, "%v\n", err)
			continue
		}
		printPlayer(s.l, p, 10)
	}
}

func (s *shellSession) leaderboard(args []string) {
	scope, champions := model.ScopeAll, false
	for _, a := range args {
		if a == "--champions" {
			champions = true
			continue
		}
		sc, err := model.ParseScope(a)
		if err != nil {
			cError.Fprintf(os.Stderr, "%v\n", err)
			return
		}
		scope = sc
	}
	rows, err := leaderboardRows(s.l, scope, 1, champions, "")
	if err != nil {
		cError.Fprintf(os.Stderr, "%v\n", err)
		return
	}
	cHeader.Printf("\n%s leaderboard\n\n", scope)
	if champions {
		report.PrintLeaderboard(os.Stdout, rows, "CHAMPION", false)
	} else {
		report.PrintLeaderboard(os.Stdout, rows, "PLAYER", true)
	}
}

func (s *shellSession) trend(args []string) {
	p, err := s.l.player(args[0])
	if err != nil {
		cWarn.Fprintf(os.Stderr, "%v\n", err)
		return
	}
	scope := model.ScopeAll
	if len(args) > 1 {
		if scope, err = model.ParseScope(args[1]); err != nil {
			cError.Fprintf(os.Stderr, "%v\n", err)
			return
		}
	}
	report.PrintTrend(os.Stdout, scope, s.l.res.History(p, scope))
}

func (s *shellSession) balance(names []string) {
	a, err := balance(s.l, names, 0, 0, true)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	report.PrintAssignment(os.Stdout, a, s.l.res)
}

func (s *shellSession) predict(args []string) {
	byRole := false
	var sides [2][]string
	side := 0
	for _, a := range args {
		switch a {
		case "--roles":
			byRole = true
		case "vs":
			side = 1
		default:
			sides[side] = append(sides[side], a)
		}
	}
	if err := predict(s.l, rosterArgs(sides[0]), rosterArgs(sides[1]), byRole); err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
	}
}

func (s *shellSession) importDir(dir string) {
	st, err := importDir(s.ctx, s.db, dir)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	st.print()
	if err := s.reload(); err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
	}
}

// rosterArgs accepts names either comma separated, which allows spaces in
// names, or as separate tokens.
func rosterArgs(args []string) []string {
	joined := strings.Join(args, " ")
	if strings.Contains(joined, ",") {
		return splitList(joined)
	}
	return args
}
