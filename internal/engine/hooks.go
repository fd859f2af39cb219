// engine/hooks.go
package engine

import (
	"context"
	"time"
)

// Hook observes model calls. op names the operation, e.g. "expert:general"
// or "structured:classify_task".
type Hook interface {
	OnBeforeLLM(ctx context.Context, op string, messages []ChatMessage, toolSchemas []ToolSchema)
	OnAfterLLM(ctx context.Context, op string, resp LLMResponse, elapsed time.Duration)
	OnLLMError(ctx context.Context, op string, err error)
	OnRetryAttempt(ctx context.Context, op string, attempt int, delay time.Duration, err error)
	OnRetryExhausted(ctx context.Context, op string, err error)
}

// NopHook lets you implement any hook you need.
type NopHook struct{}

func (NopHook) OnBeforeLLM(context.Context, string, []ChatMessage, []ToolSchema)  {}
func (NopHook) OnAfterLLM(context.Context, string, LLMResponse, time.Duration)     {}
func (NopHook) OnLLMError(context.Context, string, error)                          {}
func (NopHook) OnRetryAttempt(context.Context, string, int, time.Duration, error) {}
func (NopHook) OnRetryExhausted(context.Context, string, error)                    {}

// Hooks fans out to several hooks.
type Hooks []Hook

func (hs Hooks) OnBeforeLLM(ctx context.Context, op string, msgs []ChatMessage, schemas []ToolSchema) {
	for _, h := range hs {
		h.OnBeforeLLM(ctx, op, msgs, schemas)
	}
}

func (hs Hooks) OnAfterLLM(ctx context.Context, op string, resp LLMResponse, elapsed time.Duration) {
	for _, h := range hs {
		h.OnAfterLLM(ctx, op, resp, elapsed)
	}
}

func (hs Hooks) OnLLMError(ctx context.Context, op string, err error) {
	for _, h := range hs {
		h.OnLLMError(ctx, op, err)
	}
}

func (hs Hooks) OnRetryAttempt(ctx context.Context, op string, attempt int, delay time.Duration, err error) {
	for _, h := range hs {
		h.OnRetryAttempt(ctx, op, attempt, delay, err)
	}
}

func (hs Hooks) OnRetryExhausted(ctx context.Context, op string, err error) {
	for _, h := range hs {
		h.OnRetryExhausted(ctx, op, err)
	}
}

// chat performs one observed model call.
func chat(ctx context.Context, llm LLMClient, hooks Hooks, op, model string, msgs []ChatMessage, schemas []ToolSchema, opts ChatOptions) (LLMResponse, error) {
	hooks.OnBeforeLLM(ctx, op, msgs, schemas)
	start := time.Now()
	resp, err := llm.Chat(ctx, model, msgs, schemas, opts)
	if err != nil {
		hooks.OnLLMError(ctx, op, err)
		return LLMResponse{}, err
	}
	hooks.OnAfterLLM(ctx, op, resp, time.Since(start))
	return resp, nil
}
