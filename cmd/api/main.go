// Package main is the entry point for the API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/email-composer/internal/config"
	"github.com/capitalize-ai/email-composer/internal/extract"
	"github.com/capitalize-ai/email-composer/internal/handler"
	"github.com/capitalize-ai/email-composer/internal/llm"
	natsclient "github.com/capitalize-ai/email-composer/internal/nats"
	"github.com/capitalize-ai/email-composer/internal/prompt"
	"github.com/capitalize-ai/email-composer/internal/service"
	"github.com/capitalize-ai/email-composer/pkg/logger"
	"github.com/capitalize-ai/email-composer/pkg/tracing"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "email-composer", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// NATS is optional; without it generation events are not published.
	var (
		natsClient *natsclient.Client
		events     service.EventPublisher
	)
	if cfg.NATSURL != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		natsClient, err = natsclient.Connect(connectCtx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		cancel()
		if err != nil {
			log.Error("failed to connect to NATS", zap.Error(err))
			os.Exit(1)
		}
		defer natsClient.Close()
		events = natsclient.NewEventPublisher(natsClient)
	}

	provider, err := llm.ParseProvider(cfg.LLMProvider)
	if err != nil {
		log.Error("invalid LLM provider", zap.Error(err))
		os.Exit(1)
	}

	llmClient, err := llm.NewClient(provider, cfg.APIKey(), cfg.BaseURL())
	if errors.Is(err, llm.ErrMissingCredential) {
		log.Warn("LLM API key not configured, generation disabled", zap.String("provider", string(provider)))
	} else if err != nil {
		log.Error("failed to create LLM client", zap.Error(err))
		os.Exit(1)
	}

	generator := llm.NewGenerator(llmClient, llm.GeneratorConfig{
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Retry: llm.RetryConfig{
			MaxAttempts: cfg.MaxAttempts,
			BackoffUnit: cfg.BackoffUnit,
		},
		RequestTimeout: cfg.RequestTimeout,
	}, log.Named("llm"))

	composer := service.NewComposer(
		extract.New(cfg.MaxAttachmentBytes, log.Named("extract")),
		prompt.NewBuilder(cfg.AttachmentBudget),
		generator,
		events,
		log,
	)

	manager := service.NewSessionManager(composer, service.ManagerConfig{
		MaxSessions:  cfg.MaxSessions,
		HistoryLimit: cfg.HistoryLimit,
		DefaultModel: cfg.DefaultModel,
	}, log.Named("sessions"))

	router := handler.NewRouter(manager, natsClient, handler.RouterConfig{
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
		MaxUploadBytes:    cfg.MaxUploadBytes,
		AllowedOrigins:    cfg.AllowedOrigins,
	}, log)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
