// Package main provides the CLI tool for the quote service.
//
// Run with: go run ./cmd/cli analyze --text "rear bumper dent, quoted $500"
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fairquote/quote-service/internal/config"
	"github.com/fairquote/quote-service/internal/llm"
	"github.com/fairquote/quote-service/internal/parser"
	"github.com/fairquote/quote-service/internal/service"
	"github.com/fairquote/quote-service/internal/storage"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "quote-cli",
		Short: "Quote service CLI tools",
	}

	root.AddCommand(analyzeCmd())
	root.AddCommand(statsCmd())
	return root
}

func analyzeCmd() *cobra.Command {
	var text string
	var file string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the quote analysis pipeline once and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(text, file)
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Quote text to analyze")
	cmd.Flags().StringVar(&file, "file", "", "File containing the quote text")
	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print LLM call telemetry from the service database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats()
		},
	}
}

func runAnalyze(text, file string) error {
	if text == "" && file == "" {
		return fmt.Errorf("provide --text or --file")
	}
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("reading input file: %w", err)
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("quote text is empty")
	}

	cfg, err := config.Load(os.Getenv("QUOTE_CONFIG_PATH"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Always use development logging for the CLI.
	logger, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	clients := buildClients(cfg, logger)
	if len(clients) == 0 {
		return fmt.Errorf("no LLM providers configured: set llm.anthropic.api_key or llm.openai.api_key")
	}

	// One-shot runs skip call telemetry: no database required.
	completer := parser.NewCompleter(clients, cfg.LLM.RatePerMinute, nil, logger)
	estimator := parser.NewRangeEstimator(completer, logger)
	quoteParser := parser.NewQuoteParser(completer, estimator, logger)
	quoteService := service.NewQuoteAnalysisService(quoteParser, logger)

	// Ctrl+C cancels the in-flight LLM calls.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("cancelling analysis...")
		cancel()
	}()

	env := quoteService.ParseAndAnalyze(ctx, text)

	out, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	fmt.Println(string(out))

	if !env.Success {
		return fmt.Errorf("analysis failed: %s", env.Error)
	}
	return nil
}

func runStats() error {
	cfg, err := config.Load(os.Getenv("QUOTE_CONFIG_PATH"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DatabasePath), 0755); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}

	db, err := storage.NewDatabase(cfg.Storage.DatabasePath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	stats, err := storage.NewLLMCallRepository(db).Stats(context.Background())
	if err != nil {
		return fmt.Errorf("reading stats: %w", err)
	}

	out, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding stats: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func buildClients(cfg *config.Config, logger *zap.Logger) []llm.Client {
	var clients []llm.Client
	for _, name := range cfg.LLM.ProviderOrder {
		switch name {
		case "anthropic":
			if cfg.LLM.Anthropic.APIKey == "" {
				logger.Warn("anthropic API key not set, skipping provider")
				continue
			}
			clients = append(clients, llm.NewAnthropicClient(cfg.LLM.Anthropic.APIKey, cfg.LLM.Anthropic.Model))
		case "openai":
			if cfg.LLM.OpenAI.APIKey == "" {
				logger.Warn("openai API key not set, skipping provider")
				continue
			}
			clients = append(clients, llm.NewOpenAIClient(cfg.LLM.OpenAI.APIKey, cfg.LLM.OpenAI.Model))
		default:
			logger.Warn("unknown LLM provider in provider_order", zap.String("provider", name))
		}
	}
	return clients
}
