// engine/hook_logger.go
package engine

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ZapHook logs model calls to a zap logger.
type ZapHook struct{ L *zap.Logger }

func (h ZapHook) OnBeforeLLM(_ context.Context, op string, msgs []ChatMessage, toolSchemas []ToolSchema) {
	h.L.Debug("llm request",
		zap.String("op", op),
		zap.Int("messages", len(msgs)),
		zap.Int("tools", len(toolSchemas)))
}

func (h ZapHook) OnAfterLLM(_ context.Context, op string, r LLMResponse, elapsed time.Duration) {
	names := make([]string, 0, len(r.ToolCalls))
	for _, c := range r.ToolCalls {
		names = append(names, c.Name)
	}
	h.L.Info("llm response",
		zap.String("op", op),
		zap.String("finish", r.FinishReason),
		zap.Strings("tool_calls", names),
		zap.Int("prompt_tokens", r.Usage.Prompt),
		zap.Int("completion_tokens", r.Usage.Completion),
		zap.Duration("elapsed", elapsed))
}

func (h ZapHook) OnLLMError(_ context.Context, op string, err error) {
	h.L.Error("llm call failed", zap.String("op", op), zap.Error(err))
}

func (h ZapHook) OnRetryAttempt(_ context.Context, op string, attempt int, delay time.Duration, err error) {
	h.L.Warn("retrying", zap.String("op", op), zap.Int("attempt", attempt), zap.Duration("delay", delay), zap.Error(err))
}

func (h ZapHook) OnRetryExhausted(_ context.Context, op string, err error) {
	h.L.Error("retries exhausted", zap.String("op", op), zap.Error(err))
}
