package engine

import (
	"context"
	"fmt"
)

// MessageRole represents the role of a chat message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// ChatMessage is the provider-agnostic turn we pass around and persist.
// A user turn carries either Content (plus optional Images) or ToolResults.
// An assistant turn carries Content and/or ToolCalls.
type ChatMessage struct {
	Role        MessageRole  `json:"role"`
	Content     string       `json:"content,omitempty"`
	Images      []Image      `json:"images,omitempty"`
	ToolCalls   []ToolCall   `json:"tool_calls,omitempty"`
	ToolResults []ToolResult `json:"tool_results,omitempty"`
}

// Validate checks if the ChatMessage is valid.
func (m ChatMessage) Validate() error {
	switch m.Role {
	case RoleSystem, RoleUser, RoleAssistant:
	default:
		return fmt.Errorf("invalid message role: %s", m.Role)
	}
	if len(m.ToolResults) > 0 && m.Role != RoleUser {
		return fmt.Errorf("tool results must be carried by a user turn, got %s", m.Role)
	}
	if len(m.ToolCalls) > 0 && m.Role != RoleAssistant {
		return fmt.Errorf("tool calls must be carried by an assistant turn, got %s", m.Role)
	}
	for _, tr := range m.ToolResults {
		if tr.CallID == "" {
			return fmt.Errorf("tool result without a call id")
		}
	}
	return nil
}

// Image is an inline image attached to a user turn.
type Image struct {
	MediaType string `json:"media_type"` // e.g. "image/png"
	Data      string `json:"data"`       // base64, no data: prefix
}

// Usage holds token accounting returned by providers.
type Usage struct {
	Prompt     int `json:"prompt"`
	Completion int `json:"completion"`
	Total      int `json:"total"`
}

// ToolCall represents a function/tool the assistant requested.
type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// ToolResult is the client's answer to one ToolCall, echoed by call id.
type ToolResult struct {
	CallID  string `json:"tool_use_id"`
	Content string `json:"content"`
	IsError bool   `json:"is_error,omitempty"`
}

// LLMResponse is a normalized result of one chat call.
type LLMResponse struct {
	Assistant    ChatMessage
	ToolCalls    []ToolCall
	Usage        Usage
	FinishReason string // "stop" | "length" | "tool_calls" | "content_filter"
}

// Text returns the concatenated assistant text.
func (r LLMResponse) Text() string { return r.Assistant.Content }

// LLMClient abstracts the hosted model SDK (Anthropic, OpenAI-compatible, ...).
type LLMClient interface {
	Chat(ctx context.Context, model string, messages []ChatMessage, toolSchemas []ToolSchema, opts ChatOptions) (LLMResponse, error)
}

// ToolChoiceSupporter is implemented by clients that can force the model to
// invoke one named tool. Clients that don't implement it are assumed unable to.
type ToolChoiceSupporter interface {
	SupportsToolChoice() bool
}

// ChatOptions keeps knobs forwarded to the SDK.
type ChatOptions struct {
	Temperature     float32
	MaxOutputTokens int
	// ToolChoice forces the named tool when set.
	ToolChoice string
}

// ToolSchema is the JSON schema the provider expects for function calling.
type ToolSchema struct {
	Name        string
	Description string
	JSONSchema  string // raw JSON object schema
}
