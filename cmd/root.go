package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/EPecherkin/ai-rm/chatter"
	"github.com/EPecherkin/ai-rm/config"
	"github.com/EPecherkin/ai-rm/db"
	"github.com/EPecherkin/ai-rm/deps"
	"github.com/EPecherkin/ai-rm/llm"
	"github.com/EPecherkin/ai-rm/logger"
	"github.com/EPecherkin/ai-rm/prompts"
	"github.com/spf13/cobra"
)

// SWEEP_INTERVAL is how often idle sessions and client limiters are dropped.
const SWEEP_INTERVAL = time.Minute

var rootCmd = &cobra.Command{
	Use:   "ai-rm",
	Short: "AI relationship manager chat",
	Long: `ai-rm serves a chat with an AI relationship manager persona backed by
OpenAI or Perplexity, plus the config endpoint the chat loads its keys from.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.Init()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd, telegramCmd, bundleCmd, checkCmd)
}

// initialize builds the shared dependencies. The returned func releases them.
func initialize(ctx context.Context) (deps.Deps, func(), error) {
	lgr := logger.NewLogger(config.LogLevel())
	nothing := func() {}

	dbc, err := db.NewConnection(config.DatabaseDSN(), lgr)
	if err != nil {
		return deps.Deps{Logger: lgr}, nothing, fmt.Errorf("initializing db: %w", err)
	}
	bucket, err := config.OpenBucket(ctx, config.BundleBucket())
	if err != nil {
		return deps.Deps{Logger: lgr}, nothing, fmt.Errorf("initializing bundle bucket: %w", err)
	}
	release := func() {
		if err := bucket.Close(); err != nil {
			lgr.With(logger.ERROR, err).Warn("Failed to close bundle bucket")
		}
	}
	return deps.NewDeps(lgr, dbc, bucket), release, nil
}

// newChatter wires sessions to the config endpoint, the bundle and the
// provider table.
func newChatter(d deps.Deps) (*chatter.Chatter, error) {
	systemPrompt, script, err := prompts.Load()
	if err != nil {
		return nil, fmt.Errorf("loading prompts: %w", err)
	}
	var pacer chatter.Pacer = chatter.RealPacer{}
	if !config.Pacing() {
		pacer = chatter.InstantPacer{}
	}
	opts := chatter.Options{
		Providers: llm.DefaultTable(),
		Sources: []chatter.Source{
			chatter.HTTPSource{URL: config.ConfigURL()},
			chatter.BucketSource{Bucket: d.Files},
		},
		Storage:      db.NewStorage(d.DBC),
		Script:       script,
		SystemPrompt: systemPrompt,
		Pacer:        pacer,
	}
	return chatter.NewChatter(opts, d), nil
}
