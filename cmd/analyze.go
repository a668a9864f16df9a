package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/spf13/cobra"

	"github.com/pable/lol-custom-rating/internal/model"
)

const analyzeSystemPrompt = `You are a League of Legends analyst for a private group that plays 5v5 custom
games. You are given structured data from a rating tool and a question from a player.

Rules:
- Answer ONLY from the data provided. Never invent or estimate statistics.
- Always cite specific numbers when making a claim.
- If the data is insufficient to answer confidently, say so explicitly.
- Be concise and actionable.
- Small samples (under 5 games in a scope) are noise; say so when it matters.

Glossary:
- Scope: "all" covers every game; top/jungle/mid/bot/support only games in that role.
- mu / sigma: TrueSkill rating mean and uncertainty. Everyone starts at 25 / 8.33.
  Each scope is rated independently.
- Tier: a label derived from mu (Iron up to Challenger).
- KDA: (kills + assists) / deaths, with zero deaths counted as one.
- CS: lane plus jungle minions per game. control_wards: control wards bought per game.
- blue_win_probability: the model's estimate before the game, from role ratings.`

var (
	analyzeModel  string
	analyzeAPIKey string

	analyzeTrendLast int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "AI-powered grounded analysis (requires ANTHROPIC_API_KEY)",
}

var analyzePlayerCmd = &cobra.Command{
	Use:   "player <name> <question>",
	Short: "Analyze a player's stats and ratings with AI",
	Args:  cobra.ExactArgs(2),
	RunE:  runAnalyzePlayer,
}

var analyzeMatchCmd = &cobra.Command{
	Use:   "match <id-prefix> <question>",
	Short: "Analyze a single match with AI",
	Args:  cobra.ExactArgs(2),
	RunE:  runAnalyzeMatch,
}

func init() {
	analyzeCmd.PersistentFlags().StringVar(&analyzeModel, "model", "claude-haiku-4-5-20251001", "Anthropic model to use")
	analyzeCmd.PersistentFlags().StringVar(&analyzeAPIKey, "api-key", "", "Anthropic API key (falls back to $ANTHROPIC_API_KEY)")

	analyzePlayerCmd.Flags().IntVar(&analyzeTrendLast, "last", 20, "include the overall rating after each of the N most recent games")

	analyzeCmd.AddCommand(analyzePlayerCmd)
	analyzeCmd.AddCommand(analyzeMatchCmd)
}

func runAnalyzePlayer(cmd *cobra.Command, args []string) error {
	l, err := loadLeague()
	if err != nil {
		return err
	}
	name, err := l.player(args[0])
	if err != nil {
		return err
	}
	contextJSON, err := buildPlayerContext(l, name, analyzeTrendLast)
	if err != nil {
		return fmt.Errorf("build context: %w", err)
	}
	return callAnthropic(cmd.Context(), analyzeAPIKey, analyzeModel, contextJSON, args[1])
}

func runAnalyzeMatch(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	m, err := db.GetMatchByPrefix(args[0])
	if err != nil {
		return fmt.Errorf("find match: %w", err)
	}
	if m == nil {
		return fmt.Errorf("no match found with ID prefix %q", args[0])
	}
	rows, err := db.GetMatchRows(m.ID)
	if err != nil {
		return fmt.Errorf("query match rows: %w", err)
	}
	l, err := replay(db)
	if err != nil {
		return err
	}

	contextJSON, err := buildMatchContext(l, *m, rows)
	if err != nil {
		return fmt.Errorf("build context: %w", err)
	}
	return callAnthropic(cmd.Context(), analyzeAPIKey, analyzeModel, contextJSON, args[1])
}

// buildPlayerContext serialises a player's profile and recent rating trend into compact JSON.
func buildPlayerContext(l *league, name string, last int) (string, error) {
	history := l.res.History(name, model.ScopeAll)
	if last > 0 && len(history) > last+1 {
		history = history[:last+1]
	}
	trend := make([]float64, 0, len(history))
	// oldest first
	for i := len(history) - 1; i >= 0; i-- {
		trend = append(trend, round2(history[i].Mu))
	}

	doc := map[string]interface{}{
		"subject":          "player",
		"profile":          playerOf(l, name),
		"overall_mu_trend": trend,
		"league_players":   len(l.res.Players),
		"league_matches":   l.res.Processed,
	}
	b, err := json.Marshal(doc)
	return string(b), err
}

// buildMatchContext serialises one match with every participant's current role rating.
func buildMatchContext(l *league, m model.MatchSummary, rows []model.Row) (string, error) {
	type playerEntry struct {
		Name     string  `json:"name"`
		Champion string  `json:"champion"`
		Side     string  `json:"side"`
		Role     string  `json:"role"`
		Kills    int     `json:"kills"`
		Deaths   int     `json:"deaths"`
		Assists  int     `json:"assists"`
		KDA      float64 `json:"kda"`
		CS       int     `json:"cs"`
		Gold     int     `json:"gold"`
		Wards    int     `json:"control_wards"`
		RoleMu   float64 `json:"current_role_mu"`
		Tier     string  `json:"tier,omitempty"`
	}

	players := make([]playerEntry, 0, len(rows))
	for _, r := range rows {
		name := l.aliases.Canonical(r.Player)
		p := playerEntry{
			Name:     name,
			Champion: r.Champion,
			Side:     r.Side.String(),
			Role:     r.Role.String(),
			Kills:    r.Kills,
			Deaths:   r.Deaths,
			Assists:  r.Assists,
			KDA:      round2(r.KDA()),
			CS:       r.CS(),
			Gold:     r.Gold,
			Wards:    r.Wards,
		}
		if r.Role.Valid() {
			p.RoleMu = round2(l.res.Current(name, model.ScopeOf(r.Role)).Mu)
		}
		players = append(players, p)
	}

	doc := map[string]interface{}{
		"subject":   "match",
		"match":     m.ID,
		"game":      m.Seq,
		"winner":    m.Winner.String(),
		"kills":     fmt.Sprintf("%d-%d", m.BlueKills, m.RedKills),
		"players":   players,
		"replay_ok": true,
	}
	for _, p := range l.res.Predictions {
		if p.MatchID == m.ID {
			doc["blue_win_probability"] = round2(p.BlueWin)
		}
	}
	for _, e := range l.res.Skipped {
		if e.MatchID == m.ID {
			doc["replay_ok"] = false
			doc["skipped_because"] = e.Reason
		}
	}

	b, err := json.Marshal(doc)
	return string(b), err
}

// round2 rounds a float64 to 2 decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// callAnthropic streams a response from the Anthropic API and prints it to stdout.
func callAnthropic(ctx context.Context, apiKey, modelID, dataJSON, question string) error {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("no API key: set ANTHROPIC_API_KEY or use --api-key")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	userMsg := fmt.Sprintf("DATA:\n%s\n\nQUESTION: %s", dataJSON, question)
	log.Debug().Int("context_bytes", len(dataJSON)).Str("model", modelID).Msg("asking")

	fmt.Fprintln(os.Stdout, "\n─── AI Analysis ─────────────────────────────────────")

	stream := client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(modelID),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: analyzeSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userMsg)),
		},
	})

	for stream.Next() {
		evt := stream.Current()
		if evt.Type == "content_block_delta" {
			delta := evt.AsContentBlockDelta()
			if delta.Delta.Type == "text_delta" {
				fmt.Fprint(os.Stdout, delta.Delta.AsTextDelta().Text)
			}
		}
	}
	fmt.Fprintln(os.Stdout, "\n─────────────────────────────────────────────────────")

	if err := stream.Err(); err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "401") || strings.Contains(errStr, "authentication") {
			return fmt.Errorf("API authentication failed: check your API key")
		}
		return fmt.Errorf("streaming error: %w", err)
	}
	return nil
}
