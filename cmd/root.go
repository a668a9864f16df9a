package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pable/lol-custom-rating/internal/logger"
	"github.com/pable/lol-custom-rating/internal/rating"
)

var (
	dbPath   string
	logLevel string
	envFile  string

	// rating model flags
	modelMu, modelSigma, modelBeta, modelTau, modelDraw float64

	// ratingEnv is built by setup; the zero value replays with the defaults.
	ratingEnv rating.Env

	// log is ready once PersistentPreRunE has run.
	log = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "lolcustom",
	Short: "Ratings, stats and team balancing for League of Legends custom games",
	Long: `Import 5v5 custom-game exports, replay them through a TrueSkill rating model,
and use the result for leaderboards, player profiles, win predictions and
automatic team balancing.

Configuration is read from flags, then the environment (a .env file in the
working directory is loaded first):
  LOLCUSTOM_DB                    database path (--db)
  LOLCUSTOM_BUCKET                Cloud Storage bucket for 'fetch'
  LOLCUSTOM_MU, LOLCUSTOM_SIGMA   rating prior (--mu, --sigma)
  LOLCUSTOM_BETA, LOLCUSTOM_TAU   performance noise and dynamics (--beta, --tau)
  LOLCUSTOM_DRAW_PROBABILITY      draw probability (--draw-probability)
  GOOGLE_APPLICATION_CREDENTIALS  service account key for 'fetch'
  ANTHROPIC_API_KEY               API key for 'analyze'`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command. Interrupts cancel the command context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	defaultDB := filepath.Join(mustUserHome(), ".lolcustom", "matches.db")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDB, "path to SQLite database (env LOLCUSTOM_DB)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().Float64Var(&modelMu, "mu", rating.DefaultMu, "prior rating mean (env LOLCUSTOM_MU)")
	rootCmd.PersistentFlags().Float64Var(&modelSigma, "sigma", rating.DefaultSigma, "prior rating deviation (env LOLCUSTOM_SIGMA)")
	rootCmd.PersistentFlags().Float64Var(&modelBeta, "beta", rating.DefaultBeta, "performance noise per player (env LOLCUSTOM_BETA)")
	rootCmd.PersistentFlags().Float64Var(&modelTau, "tau", rating.DefaultTau, "deviation added before each game (env LOLCUSTOM_TAU)")
	rootCmd.PersistentFlags().Float64Var(&modelDraw, "draw-probability", 0, "draw probability (env LOLCUSTOM_DRAW_PROBABILITY)")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(playerCmd)
	rootCmd.AddCommand(trendCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(backtestCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(dropCmd)
}

// setup loads the dotenv file, applies environment fallbacks and builds the logger.
func setup(cmd *cobra.Command, _ []string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	if !cmd.Flags().Changed("db") {
		if v := os.Getenv("LOLCUSTOM_DB"); v != "" {
			dbPath = v
		}
	}
	log = logger.New(logLevel)

	env, err := modelEnv(cmd.Flags().Changed)
	if err != nil {
		return err
	}
	ratingEnv = env
	log.Debug().Str("db", dbPath).
		Float64("mu", env.Mu).Float64("sigma", env.Sigma).
		Float64("beta", env.Beta).Float64("tau", env.Tau).
		Msg("configured")
	return nil
}

// modelEnv builds the rating model from the model flags, letting the
// environment override any flag that was not set explicitly.
func modelEnv(changed func(string) bool) (rating.Env, error) {
	params := []struct {
		flag, env string
		value     float64
	}{
		{"mu", "LOLCUSTOM_MU", modelMu},
		{"sigma", "LOLCUSTOM_SIGMA", modelSigma},
		{"beta", "LOLCUSTOM_BETA", modelBeta},
		{"tau", "LOLCUSTOM_TAU", modelTau},
		{"draw-probability", "LOLCUSTOM_DRAW_PROBABILITY", modelDraw},
	}
	for i, p := range params {
		v := os.Getenv(p.env)
		if changed(p.flag) || v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return rating.Env{}, fmt.Errorf("%s: %w", p.env, err)
		}
		params[i].value = f
	}
	return rating.NewEnv(params[0].value, params[1].value, params[2].value, params[3].value, params[4].value)
}

func mustUserHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
