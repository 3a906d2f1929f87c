package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-chat-backend/internal/agents"
	"ai-chat-backend/internal/config"
	ai "ai-chat-backend/internal/infra/adapters/ai"
	"ai-chat-backend/internal/infra/logging"
	"ai-chat-backend/internal/infra/metrics"
	"ai-chat-backend/internal/infra/status"
	memstore "ai-chat-backend/internal/infra/store"
	"ai-chat-backend/internal/infra/web"
	"ai-chat-backend/internal/infra/worker"
	"ai-chat-backend/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, noop provider allowed)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("dev mode enabled")
	}

	metrics.MustRegister()

	// ---- State: store + status hub ----
	hub := status.NewHub(cfg.Stream.SubscriberBuffer, logger)
	store := memstore.NewMemoryStore(hub)

	// ---- Provider clients ----
	factory := ai.NewFactory(cfg.AI)

	// ---- Agents ----
	registry := agents.NewRegistry(
		agents.NewReportWriter(cfg.Agents.OutputDir),
		agents.NewSummarizer(),
	)

	// ---- Job runner ----
	runner := worker.NewRunner(store, factory, registry, logger)

	// ---- Use cases ----
	chatUC := usecase.NewChatUseCase(store, factory, cfg.AI.Models, logger)
	jobUC := usecase.NewJobUseCase(store, runner, logger)

	// ---- HTTP server ----
	srv := web.NewServer(chatUC, jobUC, hub, registry, cfg.Stream, logger)
	go func() {
		if err := srv.Start(cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
			cancel()
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigc:
		logger.Info().Msg("shutdown requested")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	runner.Shutdown()
}
