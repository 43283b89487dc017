package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"
	"time"

	"carteira/internal/cache"
	"carteira/internal/chart"
	"carteira/internal/classify"
	"carteira/internal/cli"
	"carteira/internal/config"
	"carteira/internal/core"
	apphttp "carteira/internal/http"
	"carteira/internal/log"
	"carteira/internal/services"
	"carteira/internal/transport/console"
	"carteira/internal/transport/whatsapp"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).Validate)

	ctx, stop := cli.SignalContext()
	defer stop()

	logger.Info("Starting carteira",
		log.FieldBackend, cfg.DataBackend,
		"transport", cfg.Transport,
		"mode", cfg.AssistantMode)

	store := cli.OpenBackend(ctx, logger, cfg)
	defer func() {
		if err := store.Cleanup(); err != nil {
			logger.Error("Failed to close backend", log.FieldError, err)
		}
	}()

	remote := cli.NewCompleter(ctx, logger, cfg)
	categorizer := cli.NewCategorizer(ctx, logger, cfg, store.Backend, remote)

	var publisher services.Publisher
	if client := cli.ConnectAMQP(logger, cfg); client != nil {
		defer client.Close()
		publisher = client
	}

	users := cache.NewLRUCache[core.User](100, 30*time.Minute, nil)
	caches := cache.NewManager(logger.Logger)
	caches.Register(users)
	caches.StartCleanup(10 * time.Minute)
	defer caches.Stop()

	assistant := services.NewAssistant(services.Deps{
		Backend:      store.Backend,
		Transactions: services.NewTransactionService(store.Backend, publisher, logger),
		Categorizer:  categorizer,
		Intents:      classify.NewIntentClassifier(remote, logger),
		Charts:       chart.NewRenderer(cfg.ChartsDir),
		Remote:       remote,
		UserCache:    users,
		Mode:         services.Mode(cfg.AssistantMode),
		Logger:       logger,
	})

	srv := apphttp.NewServer(":"+cfg.Port, assistant, categorizer, apphttp.Options{
		AllowedSender: cfg.AllowedSender,
		Logger:        logger,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 3 * cfg.LLMTimeout
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("HTTP server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
			stop()
		}
	}()

	if err := runTransport(ctx, logger, cfg, assistant); err != nil {
		logger.Error("Transport stopped", log.FieldError, err, "transport", cfg.Transport)
	}
	if cfg.Transport != "none" {
		stop()
	}
	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", log.FieldError, err)
	}
	wg.Wait()
	logger.Info("carteira stopped gracefully")
}

// runTransport blocks until the chat transport ends. With no transport it
// returns at once and only the HTTP API serves messages.
func runTransport(ctx context.Context, logger *log.Logger, cfg *config.Config, a *services.Assistant) error {
	switch cfg.Transport {
	case "whatsapp":
		t, err := whatsapp.New(ctx, whatsapp.Config{
			SessionPath:   cfg.WhatsAppSessionPath,
			AllowedSender: cfg.AllowedSender,
		}, logger)
		if err != nil {
			return err
		}
		defer t.Close()
		return t.Run(ctx, a)
	case "console":
		sender := core.NormalizeSender(cfg.AllowedSender)
		if sender == "" {
			sender = "console"
		}
		return console.New(os.Stdin, os.Stdout, sender, logger).Run(ctx, a)
	default:
		logger.Info("No chat transport, serving the HTTP API only")
		return nil
	}
}
