package engine

import (
	"context"
	"encoding/json"
	"fmt"
)

// Loop is the conversation loop shared by every expert: it appends the next
// user turn to a linear history, calls the model with the expert's system
// prompt and the full tool set, and normalizes the reply.
type Loop struct {
	LLM             LLMClient
	Model           string
	Tools           ToolRegistry
	MaxOutputTokens int
	Temperature     float32
	Hooks           Hooks
	// CheckCall, if set, inspects each tool call the model issues. Problems
	// are reported in TurnOutput.Warnings; the call is still relayed.
	CheckCall func(ToolCall) error
}

// TurnInput is one step of a conversation.
type TurnInput struct {
	Text        string
	Images      []Image // attached to the text turn
	ToolResults []ToolResult
	History     []ChatMessage
}

// TurnOutput is the normalized model reply. ToolCalls take priority: a reply
// carrying any tool invocation is never final.
type TurnOutput struct {
	Text      string
	ToolCalls []ToolCall
	History   []ChatMessage
	Warnings  []string
}

// Final reports whether the reply is a final answer.
func (o TurnOutput) Final() bool { return len(o.ToolCalls) == 0 }

// Run executes one step. op labels the call for hooks (e.g. "expert:general").
func (l *Loop) Run(ctx context.Context, op, systemPrompt string, in TurnInput) (TurnOutput, error) {
	history := append([]ChatMessage(nil), in.History...)

	if len(in.ToolResults) == 0 {
		turn := ChatMessage{Role: RoleUser, Content: in.Text, Images: in.Images}
		if len(PendingToolCalls(history)) > 0 && !answered(history) {
			// close the dangling calls so the provider accepts the transcript
			turn, _ = ToolResultTurn(history, nil)
			turn.Content = in.Text
			turn.Images = in.Images
		}
		history = append(history, turn)
	} else {
		turn, err := ToolResultTurn(history, in.ToolResults)
		if err != nil {
			return TurnOutput{}, err
		}
		history = append(history, turn)
	}

	msgs := make([]ChatMessage, 0, len(history)+1)
	msgs = append(msgs, ChatMessage{Role: RoleSystem, Content: systemPrompt})
	msgs = append(msgs, history...)

	resp, err := chat(ctx, l.LLM, l.Hooks, op, l.Model, msgs, l.Tools.Schemas(), ChatOptions{
		MaxOutputTokens: l.MaxOutputTokens,
		Temperature:     l.Temperature,
	})
	if err != nil {
		return TurnOutput{}, err
	}

	assistant := resp.Assistant
	assistant.Role = RoleAssistant
	assistant.ToolCalls = resp.ToolCalls
	history = append(history, assistant)

	out := TurnOutput{History: history}
	if len(resp.ToolCalls) == 0 {
		out.Text = assistant.Content
		return out, nil
	}

	out.ToolCalls = resp.ToolCalls
	for _, call := range resp.ToolCalls {
		if w := l.check(call); w != "" {
			out.Warnings = append(out.Warnings, w)
		}
	}
	return out, nil
}

func (l *Loop) check(call ToolCall) string {
	tool, ok := l.Tools[call.Name]
	if !ok {
		return fmt.Sprintf("model called unregistered tool %q", call.Name)
	}
	if err := tool.ValidateArgs(call.Args); err != nil {
		return err.Error()
	}
	if l.CheckCall != nil {
		if err := l.CheckCall(call); err != nil {
			return fmt.Sprintf("%s %s: %v", call.Name, call.ID, err)
		}
	}
	return ""
}

// PendingToolCalls returns the tool calls of the latest assistant turn.
func PendingToolCalls(history []ChatMessage) []ToolCall {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == RoleAssistant {
			return history[i].ToolCalls
		}
	}
	return nil
}

// ToolResultTurn builds the single user turn answering the pending tool calls
// of history. Every result must reference a pending call id; pending calls
// without a result get an error placeholder so the transcript stays valid.
func ToolResultTurn(history []ChatMessage, results []ToolResult) (ChatMessage, error) {
	pending := PendingToolCalls(history)

	byID := make(map[string]ToolResult, len(results))
	var unknown []string
	for _, r := range results {
		if _, dup := byID[r.CallID]; dup || !hasCall(pending, r.CallID) {
			unknown = append(unknown, r.CallID)
			continue
		}
		byID[r.CallID] = r
	}
	if len(unknown) > 0 {
		ids := make([]string, 0, len(pending))
		for _, c := range pending {
			ids = append(ids, c.ID)
		}
		return ChatMessage{}, &ToolResultMismatchError{CallIDs: unknown, Pending: ids}
	}

	blocks := make([]ToolResult, 0, len(pending))
	for _, c := range pending {
		r, ok := byID[c.ID]
		if !ok {
			r = ToolResult{CallID: c.ID, Content: "No result was returned for this tool call.", IsError: true}
		}
		blocks = append(blocks, r)
	}
	return ChatMessage{Role: RoleUser, ToolResults: blocks}, nil
}

// answered reports whether the latest assistant turn is followed by a user turn.
func answered(history []ChatMessage) bool {
	return len(history) > 0 && history[len(history)-1].Role != RoleAssistant
}

func hasCall(calls []ToolCall, id string) bool {
	for _, c := range calls {
		if c.ID == id {
			return true
		}
	}
	return false
}

// NewToolResult coerces an opaque client result to its textual form.
// Strings pass through verbatim; everything else is JSON-encoded.
func NewToolResult(callID string, v any) ToolResult {
	return ToolResult{CallID: callID, Content: StringifyResult(v)}
}

// StringifyResult renders a result value as text.
func StringifyResult(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.RawMessage:
		var s string
		if err := json.Unmarshal(t, &s); err == nil {
			return s
		}
		return string(t)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(raw)
}
