// Package enginetest provides a scripted engine.LLMClient for tests.
package enginetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/ChamsBouzaiene/crunched/internal/engine"
)

// Call records one Chat invocation.
type Call struct {
	Model    string
	Messages []engine.ChatMessage
	Tools    []engine.ToolSchema
	Opts     engine.ChatOptions
}

// System returns the system prompt of the call, if any.
func (c Call) System() string {
	for _, m := range c.Messages {
		if m.Role == engine.RoleSystem {
			return m.Content
		}
	}
	return ""
}

// ScriptedLLM replays canned responses in order and records every call.
type ScriptedLLM struct {
	mu        sync.Mutex
	Responses []engine.LLMResponse
	Errors    []error // Errors[i], when non-nil, is returned instead of Responses[i]
	Calls     []Call
	NoForce   bool // report that tool choice cannot be forced
}

func (s *ScriptedLLM) Chat(ctx context.Context, model string, messages []engine.ChatMessage, toolSchemas []engine.ToolSchema, opts engine.ChatOptions) (engine.LLMResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := len(s.Calls)
	s.Calls = append(s.Calls, Call{
		Model:    model,
		Messages: append([]engine.ChatMessage(nil), messages...),
		Tools:    toolSchemas,
		Opts:     opts,
	})
	if i < len(s.Errors) && s.Errors[i] != nil {
		return engine.LLMResponse{}, s.Errors[i]
	}
	if i >= len(s.Responses) {
		return engine.LLMResponse{}, fmt.Errorf("scripted llm: no response for call %d", i+1)
	}
	return s.Responses[i], nil
}

func (s *ScriptedLLM) SupportsToolChoice() bool { return !s.NoForce }

// CallCount returns the number of Chat invocations so far.
func (s *ScriptedLLM) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Calls)
}

// Text builds a final text reply.
func Text(text string) engine.LLMResponse {
	return engine.LLMResponse{
		Assistant:    engine.ChatMessage{Role: engine.RoleAssistant, Content: text},
		FinishReason: "stop",
	}
}

// ToolUse builds a reply invoking the given tools.
func ToolUse(calls ...engine.ToolCall) engine.LLMResponse {
	return engine.LLMResponse{
		Assistant:    engine.ChatMessage{Role: engine.RoleAssistant, ToolCalls: calls},
		ToolCalls:    calls,
		FinishReason: "tool_calls",
	}
}

// Forced builds a reply invoking a single structured-output tool.
func Forced(name string, args map[string]any) engine.LLMResponse {
	return ToolUse(engine.ToolCall{ID: "toolu_" + name, Name: name, Args: args})
}
