package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/zen-systems/lexgate/pkg/breaker"
	"github.com/zen-systems/lexgate/pkg/classify"
	"github.com/zen-systems/lexgate/pkg/config"
	"github.com/zen-systems/lexgate/pkg/kvcache"
	"github.com/zen-systems/lexgate/pkg/llmexec"
	"github.com/zen-systems/lexgate/pkg/orchestrator"
	"github.com/zen-systems/lexgate/pkg/provider"
	"github.com/zen-systems/lexgate/pkg/qstore"
)

var tuningFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "lexgate",
		Short: "Provider orchestration and content classification for legal AI operations",
		Long: `Lexgate routes AI operations across interchangeable inference providers
	with circuit breakers, bounded retries, and ordered fallback, classifies
	legal content with multi-signal fusion, and monitors answer quality.`,
	}

	rootCmd.PersistentFlags().StringVar(&tuningFile, "tuning", "", "path to tuning config file")

	rootCmd.AddCommand(classifyCmd())
	rootCmd.AddCommand(breakersCmd())
	rootCmd.AddCommand(qualityCmd())
	rootCmd.AddCommand(validateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if tuningFile != "" {
		return config.LoadWithTuningFile(tuningFile)
	}
	return config.Load()
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level := zerolog.WarnLevel
	if cfg.Debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

// buildStack wires the registry, breaker bank, orchestrator, and client set
// from configuration.
func buildStack(cfg *config.Config, log zerolog.Logger) (*orchestrator.Orchestrator, *llmexec.Set, error) {
	profiles, err := cfg.Tuning.ProviderProfiles()
	if err != nil {
		return nil, nil, err
	}
	registry, err := provider.NewRegistry(profiles)
	if err != nil {
		return nil, nil, err
	}

	strategies, err := cfg.Tuning.StrategyTable()
	if err != nil {
		return nil, nil, err
	}

	breakerCfg := cfg.Tuning.BreakerSettings()
	breakerCfg.OnStateChange = func(key breaker.Key, from, to breaker.State) {
		log.Warn().
			Str("provider", string(key.Provider)).
			Str("category", string(key.Category)).
			Str("from", from.String()).
			Str("to", to.String()).
			Msg("circuit state change")
	}
	bank := breaker.NewBank(breakerCfg)

	orch := orchestrator.New(registry, bank,
		orchestrator.WithLogger(log),
		orchestrator.WithStrategies(strategies),
		orchestrator.WithRetryConfig(cfg.Tuning.RetrySettings()),
	)

	set := llmexec.NewSet()
	if cfg.HasProvider("anthropic") {
		c := llmexec.NewAnthropicClient("")
		set.RegisterCompleter(provider.Anthropic, c)
	}
	if cfg.HasProvider("openai") {
		c := llmexec.NewOpenAIClient("")
		set.RegisterCompleter(provider.OpenAI, c)
		set.RegisterEmbedder(provider.OpenAI, c)
	}
	if cfg.GoogleAPIKey != "" {
		c, err := llmexec.NewGoogleClient(context.Background(), cfg.GoogleAPIKey, "")
		if err != nil {
			return nil, nil, err
		}
		set.RegisterCompleter(provider.Google, c)
		set.RegisterEmbedder(provider.Google, c)
	}
	local := llmexec.NewLocalClient()
	set.RegisterCompleter(provider.Local, local)
	set.RegisterEmbedder(provider.Local, local)

	return orch, set, nil
}

func classifyCmd() *cobra.Command {
	var urlFlag string
	var sourceFlag string
	var breadcrumbsFlag string
	var forceLLM bool
	var skipCache bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "classify [text]",
		Short: "Classify legal content by category and domain",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := newLogger(cfg)

			orch, set, err := buildStack(cfg, log)
			if err != nil {
				return err
			}

			cache, err := kvcache.NewMemory(0)
			if err != nil {
				return err
			}

			llm := func(ctx context.Context, p provider.Provider, prompt string) (string, error) {
				return set.CompletionExecutor(prompt)(ctx, p)
			}
			engine := classify.NewEngine(orch, llm,
				classify.WithCache(cache),
				classify.WithConfig(cfg.Tuning.ClassifySettings()),
				classify.WithEngineLogger(log),
			)

			var text string
			if len(args) > 0 {
				text = args[0]
			} else {
				data, err := readStdin()
				if err != nil {
					return err
				}
				text = data
			}

			input := classify.Input{
				Source: sourceFlag,
				URL:    urlFlag,
				Text:   text,
			}
			if breadcrumbsFlag != "" {
				input.Breadcrumbs = strings.Split(breadcrumbsFlag, ">")
			}

			result, err := engine.Classify(cmd.Context(), input, classify.Options{
				ForceLLM:  forceLLM,
				SkipCache: skipCache,
			})
			if err != nil {
				return err
			}

			if jsonOut {
				out, err := json.MarshalIndent(result, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				return nil
			}

			fmt.Printf("Category:   %s\n", orDash(string(result.PrimaryCategory)))
			fmt.Printf("Domain:     %s\n", orDash(string(result.Domain)))
			fmt.Printf("Confidence: %.2f\n", result.Confidence)
			if result.RequiresValidation {
				fmt.Printf("Validation: required (%s)\n", result.ValidationReason)
			}
			for _, sig := range result.Signals {
				fmt.Printf("  signal %-10s category=%-14s confidence=%.2f\n",
					sig.Source, orDash(string(sig.Category)), sig.Confidence)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&urlFlag, "url", "", "content URL")
	cmd.Flags().StringVar(&sourceFlag, "source", "cli", "content source identity")
	cmd.Flags().StringVar(&breadcrumbsFlag, "breadcrumbs", "", "breadcrumb trail, '>'-separated")
	cmd.Flags().BoolVar(&forceLLM, "force-llm", false, "always collect the LLM signal")
	cmd.Flags().BoolVar(&skipCache, "no-cache", false, "bypass the classification cache")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output JSON")
	return cmd
}

func breakersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "breakers",
		Short: "Show circuit breaker configuration per operation category",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := newLogger(cfg)

			orch, _, err := buildStack(cfg, log)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CATEGORY\tBUDGET\tATTEMPT\tRETRIES\tCASCADE")
			for _, cat := range provider.Categories() {
				s, ok := orch.Strategy(cat)
				if !ok {
					continue
				}
				names := make([]string, len(s.Providers))
				for i, p := range s.Providers {
					names[i] = string(p)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
					cat, s.Timeout, s.AttemptTimeout, s.MaxRetries, strings.Join(names, " -> "))
			}
			return w.Flush()
		},
	}
	return cmd
}

func qualityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quality",
		Short: "Quality monitoring commands",
	}
	cmd.AddCommand(qualityStatsCmd())
	return cmd
}

func qualityStatsCmd() *cobra.Command {
	var windowHours int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show rolling quality-check aggregates",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			store, err := qstore.NewSQLiteStore(cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer store.Close()

			since := time.Now().Add(-time.Duration(windowHours) * time.Hour)
			agg, err := store.AggregateSince(cmd.Context(), since)
			if err != nil {
				return err
			}

			fmt.Printf("Window:        last %dh\n", windowHours)
			fmt.Printf("Samples:       %d\n", agg.Count)
			fmt.Printf("Average score: %.2f\n", agg.AverageScore)
			fmt.Printf("Flagged:       %d (%.1f%%)\n", agg.FlaggedCount, agg.FlaggedRate()*100)
			return nil
		},
	}

	cmd.Flags().IntVar(&windowHours, "window", 24, "aggregation window in hours")
	return cmd
}

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the tuning configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if _, err := cfg.Tuning.ProviderProfiles(); err != nil {
				return fmt.Errorf("providers: %w", err)
			}
			if _, err := cfg.Tuning.StrategyTable(); err != nil {
				return fmt.Errorf("strategies: %w", err)
			}
			fmt.Println("Configuration is valid.")
			return nil
		},
	}
	return cmd
}

func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("no text argument and failed to read stdin: %w", err)
	}
	return string(data), nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
