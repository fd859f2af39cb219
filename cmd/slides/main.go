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
	"github.com/ChamsBouzaiene/crunched/internal/slides"
)

func main() {
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

	svc := slides.NewService(slides.Options{
		LLM:            env.LLM,
		Model:          env.Model,
		Prompts:        env.Prompts,
		StructuredMode: env.StructuredMode,
		SessionTTL:     cfg.Session.TTL,
		Logger:         logger,
	})

	srv := httpapi.NewSlidesServer(cfg, svc, logger)
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
