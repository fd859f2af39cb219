package engine

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

// replyLLM returns the same response for every call and remembers the last request.
type replyLLM struct {
	resp LLMResponse
	err  error
	last []ChatMessage
}

func (m *replyLLM) Chat(ctx context.Context, modelName string, messages []ChatMessage, toolSchemas []ToolSchema, opts ChatOptions) (LLMResponse, error) {
	m.last = messages
	return m.resp, m.err
}

func testRegistry() ToolRegistry {
	reg := make(ToolRegistry)
	reg.Register(Tool{
		Name:       "read_range",
		SchemaJSON: `{"type":"object","properties":{"range":{"type":"string"}},"required":["range"]}`,
	})
	return reg
}

func TestLoopFinalText(t *testing.T) {
	llm := &replyLLM{resp: LLMResponse{Assistant: ChatMessage{Role: RoleAssistant, Content: "done"}}}
	l := &Loop{LLM: llm, Model: "m", Tools: testRegistry()}

	out, err := l.Run(context.Background(), "expert:test", "be helpful", TurnInput{Text: "hi"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !out.Final() || out.Text != "done" {
		t.Errorf("expected final reply 'done', got %+v", out)
	}
	if len(out.History) != 2 {
		t.Fatalf("expected user+assistant history, got %d turns", len(out.History))
	}
	if out.History[0].Role != RoleUser || out.History[0].Content != "hi" {
		t.Errorf("unexpected first turn %+v", out.History[0])
	}
	if llm.last[0].Role != RoleSystem || llm.last[0].Content != "be helpful" {
		t.Errorf("system prompt not sent first: %+v", llm.last[0])
	}
}

func TestLoopToolCallsTakePriority(t *testing.T) {
	calls := []ToolCall{{ID: "c1", Name: "read_range", Args: map[string]any{"range": "A1:B2"}}}
	llm := &replyLLM{resp: LLMResponse{
		Assistant: ChatMessage{Role: RoleAssistant, Content: "let me look"},
		ToolCalls: calls,
	}}
	l := &Loop{LLM: llm, Model: "m", Tools: testRegistry()}

	out, err := l.Run(context.Background(), "expert:test", "sys", TurnInput{Text: "sum it"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.Final() {
		t.Fatal("reply with tool calls must not be final")
	}
	if out.Text != "" {
		t.Errorf("text must be empty when tool calls are present, got %q", out.Text)
	}
	last := out.History[len(out.History)-1]
	if len(last.ToolCalls) != 1 || last.ToolCalls[0].ID != "c1" {
		t.Errorf("assistant turn must record tool calls, got %+v", last)
	}
	if len(out.Warnings) != 0 {
		t.Errorf("unexpected warnings %v", out.Warnings)
	}
}

func TestLoopWarnings(t *testing.T) {
	llm := &replyLLM{resp: LLMResponse{ToolCalls: []ToolCall{
		{ID: "c1", Name: "read_range", Args: map[string]any{}},
		{ID: "c2", Name: "delete_sheet", Args: map[string]any{}},
		{ID: "c3", Name: "read_range", Args: map[string]any{"range": "A1"}},
	}}}
	l := &Loop{
		LLM:   llm,
		Tools: testRegistry(),
		CheckCall: func(c ToolCall) error {
			if c.ID == "c3" {
				return errors.New("suspicious")
			}
			return nil
		},
	}

	out, err := l.Run(context.Background(), "expert:test", "sys", TurnInput{Text: "x"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(out.ToolCalls) != 3 {
		t.Errorf("all calls must be relayed, got %d", len(out.ToolCalls))
	}
	if len(out.Warnings) != 3 {
		t.Errorf("expected 3 warnings, got %v", out.Warnings)
	}
}

func TestLoopToolResults(t *testing.T) {
	history := []ChatMessage{
		{Role: RoleUser, Content: "sum it"},
		{Role: RoleAssistant, ToolCalls: []ToolCall{
			{ID: "c1", Name: "read_range"},
			{ID: "c2", Name: "read_range"},
		}},
	}
	llm := &replyLLM{resp: LLMResponse{Assistant: ChatMessage{Content: "total is 3"}}}
	l := &Loop{LLM: llm, Tools: testRegistry()}

	out, err := l.Run(context.Background(), "expert:test", "sys", TurnInput{
		History:     history,
		ToolResults: []ToolResult{{CallID: "c2", Content: "[[1,2]]"}},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.Text != "total is 3" {
		t.Errorf("Text = %q", out.Text)
	}
	if len(out.History) != 4 {
		t.Fatalf("expected 4 turns, got %d", len(out.History))
	}
	turn := out.History[2]
	if turn.Role != RoleUser || len(turn.ToolResults) != 2 {
		t.Fatalf("expected one user turn with two results, got %+v", turn)
	}
	if turn.ToolResults[0].CallID != "c1" || !turn.ToolResults[0].IsError {
		t.Errorf("missing result must be filled with an error placeholder, got %+v", turn.ToolResults[0])
	}
	if turn.ToolResults[1].CallID != "c2" || turn.ToolResults[1].Content != "[[1,2]]" {
		t.Errorf("unexpected result %+v", turn.ToolResults[1])
	}
	if len(history) != 2 {
		t.Error("input history must not be mutated")
	}
}

func TestLoopRejectsUnknownCallID(t *testing.T) {
	history := []ChatMessage{
		{Role: RoleUser, Content: "sum it"},
		{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "c1", Name: "read_range"}}},
	}
	llm := &replyLLM{}
	l := &Loop{LLM: llm, Tools: testRegistry()}

	tests := []struct {
		name    string
		results []ToolResult
	}{
		{"unknown id", []ToolResult{{CallID: "zzz", Content: "x"}}},
		{"duplicate id", []ToolResult{{CallID: "c1"}, {CallID: "c1"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.Run(context.Background(), "expert:test", "sys", TurnInput{History: history, ToolResults: tt.results})
			var mismatch *ToolResultMismatchError
			if !errors.As(err, &mismatch) {
				t.Fatalf("expected ToolResultMismatchError, got %v", err)
			}
			if len(mismatch.Pending) != 1 || mismatch.Pending[0] != "c1" {
				t.Errorf("Pending = %v", mismatch.Pending)
			}
		})
	}
	if llm.last != nil {
		t.Error("model must not be called on mismatched results")
	}
}

func TestLoopTextClosesDanglingCalls(t *testing.T) {
	history := []ChatMessage{
		{Role: RoleUser, Content: "fill the table"},
		{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "c1", Name: "read_range", Args: map[string]any{"range": "A1"}}}},
	}
	llm := &replyLLM{resp: LLMResponse{Assistant: ChatMessage{Role: RoleAssistant, Content: "ok"}}}
	l := &Loop{LLM: llm, Model: "m", Tools: testRegistry()}

	out, err := l.Run(context.Background(), "expert:test", "sys", TurnInput{Text: "never mind", History: history})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	turn := out.History[2]
	if turn.Content != "never mind" || len(turn.ToolResults) != 1 || !turn.ToolResults[0].IsError {
		t.Errorf("expected placeholder result plus text, got %+v", turn)
	}
}

func TestLoopPropagatesTransportError(t *testing.T) {
	boom := WrapLLMError(errors.New("service unavailable"), 503, "")
	l := &Loop{LLM: &replyLLM{err: boom}, Tools: testRegistry()}

	_, err := l.Run(context.Background(), "expert:test", "sys", TurnInput{Text: "x"})
	var engineErr *EngineError
	if !errors.As(err, &engineErr) || engineErr.HTTPStatus != 503 {
		t.Errorf("expected EngineError with status 503, got %v", err)
	}
}

func TestStringifyResult(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string verbatim", "plain text", "plain text"},
		{"raw json string", json.RawMessage(`"quoted"`), "quoted"},
		{"raw json object", json.RawMessage(`{"a":1}`), `{"a":1}`},
		{"matrix", []any{[]any{1, "x"}}, `[[1,"x"]]`},
		{"object", map[string]any{"sheets": 2}, `{"sheets":2}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StringifyResult(tt.in); got != tt.want {
				t.Errorf("StringifyResult() = %q, want %q", got, tt.want)
			}
		})
	}
}
