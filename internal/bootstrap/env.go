// Package bootstrap assembles the pieces both servers share: the LLM
// adapter, the prompt registry and the session store.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ChamsBouzaiene/crunched/internal/config"
	"github.com/ChamsBouzaiene/crunched/internal/engine"
	"github.com/ChamsBouzaiene/crunched/internal/prompts"
	"github.com/ChamsBouzaiene/crunched/internal/providers"
	"github.com/ChamsBouzaiene/crunched/internal/session"
)

// Env holds the shared runtime dependencies.
type Env struct {
	LLM            engine.LLMClient
	Model          string
	StructuredMode engine.StructuredMode
	Prompts        *prompts.PromptRegistry

	watcher *prompts.OverrideWatcher
	store   session.Store
	logger  *zap.Logger
}

// Close stops the prompt watcher and closes the session store, if opened.
func (e *Env) Close() {
	if e.watcher != nil {
		if err := e.watcher.Stop(); err != nil {
			e.logger.Warn("failed to stop prompt watcher", zap.Error(err))
		}
	}
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			e.logger.Warn("failed to close session store", zap.Error(err))
		}
	}
}

// Prepare builds the LLM adapter and prompt registry from cfg.
func Prepare(cfg *config.Config, logger *zap.Logger) (*Env, error) {
	llm, model, err := providers.New(cfg.LLM.Provider, providers.ClientConfig{
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		BaseURL: cfg.LLM.BaseURL,
		Timeout: cfg.LLM.Timeout,
	})
	if err != nil {
		return nil, err
	}

	mode, err := engine.ParseStructuredMode(cfg.LLM.StructuredOutput)
	if err != nil {
		return nil, err
	}

	env := &Env{
		LLM:            llm,
		Model:          model,
		StructuredMode: mode,
		Prompts:        prompts.NewBuiltinRegistry(),
		logger:         logger,
	}

	if dir := cfg.App.PromptsDir; dir != "" {
		w, err := prompts.NewOverrideWatcher(dir, env.Prompts, logger)
		if err != nil {
			return nil, err
		}
		if err := w.Start(); err != nil {
			_ = w.Stop()
			return nil, fmt.Errorf("prompt overrides: %w", err)
		}
		env.watcher = w
	}

	logger.Info("llm client ready",
		zap.String("provider", cfg.LLM.Provider),
		zap.String("model", model),
		zap.String("structured_mode", string(mode)))
	return env, nil
}

// OpenSessions opens the configured session store and wraps it in a
// Manager. The store is closed by Close.
func (e *Env) OpenSessions(ctx context.Context, cfg config.SessionConfig) (*session.Manager, error) {
	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	e.store = store
	e.logger.Info("session store ready", zap.String("backend", cfg.Backend), zap.Duration("ttl", cfg.TTL))
	return session.NewManager(store), nil
}

// OpenStore returns the store named by cfg.Backend.
func OpenStore(ctx context.Context, cfg config.SessionConfig) (session.Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return session.NewMemoryStore(cfg.TTL), nil
	case "sqlite":
		store, err := session.NewSQLiteStore(ctx, cfg.SQLitePath, cfg.TTL)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "redis":
		store, err := session.NewRedisStore(ctx, cfg.RedisURL, cfg.TTL)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown session backend: %q", cfg.Backend)
}
