package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/ChamsBouzaiene/crunched/internal/bootstrap"
	"github.com/ChamsBouzaiene/crunched/internal/config"
	"github.com/ChamsBouzaiene/crunched/internal/httpapi"
	"github.com/ChamsBouzaiene/crunched/internal/logging"
	"github.com/ChamsBouzaiene/crunched/internal/orchestrator"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "config" {
		if err := runConfigCommand(os.Args[2:]); err != nil {
			log.Fatalf("config command failed: %v", err)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.New(cfg.App.LogFilePath, cfg.IsProduction())
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := bootstrap.Prepare(cfg, logger)
	if err != nil {
		logger.Fatal("failed to prepare runtime", zap.Error(err))
	}
	defer env.Close()

	sessions, err := env.OpenSessions(ctx, cfg.Session)
	if err != nil {
		logger.Fatal("failed to open session store", zap.Error(err))
	}

	orch := orchestrator.New(orchestrator.Options{
		LLM:            env.LLM,
		Model:          env.Model,
		Prompts:        env.Prompts,
		Sessions:       sessions,
		StructuredMode: env.StructuredMode,
		MaxTokens:      cfg.LLM.MaxTokens,
		WebSearch:      cfg.LLM.EnableWebSearch,
		Logger:         logger,
	})

	srv := httpapi.NewExcelServer(cfg, orch, logger)
	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		if err := srv.Shutdown(); err != nil {
			logger.Error("shutdown failed", zap.Error(err))
		}
	}()

	if err := srv.Run(); err != nil {
		logger.Error("server stopped", zap.Error(err))
	}
}
