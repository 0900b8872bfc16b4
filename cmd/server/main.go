// Package main is the entry point for the quote-service HTTP server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fairquote/quote-service/internal/config"
	"github.com/fairquote/quote-service/internal/llm"
	"github.com/fairquote/quote-service/internal/parser"
	"github.com/fairquote/quote-service/internal/server"
	"github.com/fairquote/quote-service/internal/service"
	"github.com/fairquote/quote-service/internal/storage"
)

func main() {
	// run() is separate so deferred cleanup executes before os.Exit.
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := os.Getenv("QUOTE_CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	var logger *zap.Logger
	if cfg.Log.Level == "debug" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	// Sync commonly fails on stdout/stderr; not a real problem.
	defer func() { _ = logger.Sync() }()

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DatabasePath), 0755); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}

	db, err := storage.NewDatabase(cfg.Storage.DatabasePath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	callRepo := storage.NewLLMCallRepository(db)

	clients := buildClients(cfg, logger)
	if len(clients) == 0 {
		return fmt.Errorf("no LLM providers configured: set llm.anthropic.api_key or llm.openai.api_key")
	}

	completer := parser.NewCompleter(clients, cfg.LLM.RatePerMinute, callRepo, logger)
	estimator := parser.NewRangeEstimator(completer, logger)
	quoteParser := parser.NewQuoteParser(completer, estimator, logger)
	quoteService := service.NewQuoteAnalysisService(quoteParser, logger)

	srv := server.New(cfg, server.Deps{
		QuoteService: quoteService,
		CallRepo:     callRepo,
	}, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		if err != nil {
			return err
		}
	}

	// Give in-flight requests time to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(ctx)
}

// buildClients constructs the completion clients in configured order. A
// provider without an API key is skipped with a warning rather than failing
// startup: running on a single provider is a supported setup.
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
