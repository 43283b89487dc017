// Package cli provides the initialization shared by cmd/carteira and
// cmd/carteira-worker. Helpers that cannot recover exit the process.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"carteira/internal/amqp"
	"carteira/internal/backend"
	"carteira/internal/classify"
	"carteira/internal/config"
	"carteira/internal/llm"
	"carteira/internal/log"
	gsheet "carteira/internal/sheets/google"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from LOG_LEVEL and makes it the
// slog default.
func SetupLogger(level string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(level)
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and runs validate on it.
func LoadAndValidateConfig(logger *log.Logger, validate func(*config.Config) error) *config.Config {
	cfg := config.Load()
	if err := validate(cfg); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// OpenBackend creates the configured ledger backend.
func OpenBackend(ctx context.Context, logger *log.Logger, cfg *config.Config) *backend.BackendResult {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	return res
}

// NewCompleter builds the remote classifier client; provider "none" yields
// one that always fails so callers use their fallbacks.
func NewCompleter(ctx context.Context, logger *log.Logger, cfg *config.Config) llm.Completer {
	c, err := llm.New(ctx, llm.Config{
		Provider:        cfg.LLMProvider,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
		GeminiAPIKey:    cfg.GeminiAPIKey,
		Model:           cfg.LLMModel,
		Timeout:         cfg.LLMTimeout,
	})
	if err != nil {
		logger.Error("Failed to initialize LLM client", log.FieldError, err, log.FieldProvider, cfg.LLMProvider)
		os.Exit(1)
	}
	logger.Info("Remote classification configured", log.FieldProvider, cfg.LLMProvider, "timeout", cfg.LLMTimeout)
	return c
}

// NewSheets opens the Google Sheets client described by cfg.
func NewSheets(ctx context.Context, logger *log.Logger, cfg *config.Config) (*gsheet.Client, error) {
	return gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		CategoriesSheet:    cfg.GoogleCategoriesSheet,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	}, logger)
}

// NewCategorizer reads categories from the store, or from the spreadsheet
// when CATEGORY_SOURCE is sheets, using the rules file when one is set.
func NewCategorizer(ctx context.Context, logger *log.Logger, cfg *config.Config, store classify.CategorySource, remote llm.Completer) *classify.Categorizer {
	opts := []classify.CategorizerOption{
		classify.WithCategoryTTL(cfg.CategoryCacheTTL),
		classify.WithLogger(logger),
	}
	if cfg.CategoryRulesFile != "" {
		rules, err := classify.LoadRules(cfg.CategoryRulesFile)
		if err != nil {
			logger.Error("Failed to load category rules", log.FieldError, err, "path", cfg.CategoryRulesFile)
			os.Exit(1)
		}
		opts = append(opts, classify.WithRules(rules))
		logger.Info("Category rules loaded", "path", cfg.CategoryRulesFile, "rules", len(rules))
	}

	source := store
	if cfg.CategorySource == "sheets" {
		sheets, err := NewSheets(ctx, logger, cfg)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets category source", log.FieldError, err)
			os.Exit(1)
		}
		source = sheets
		logger.Info("Reading categories from Google Sheets", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	}
	return classify.NewCategorizer(source, remote, opts...)
}

// ConnectAMQP returns nil when AMQP_URL is unset or the broker is down; the
// bot then records without publishing.
func ConnectAMQP(logger *log.Logger, cfg *config.Config) *amqp.Client {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP disabled - no AMQP_URL provided")
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Warn("AMQP unavailable, transactions will not be published", log.FieldError, err)
		return nil
	}
	return client
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
