package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// StructuredMode selects how a schema-conforming value is obtained from the model.
type StructuredMode string

const (
	// StructuredAuto forces tool invocation when the client supports it and
	// falls back to JSON extraction otherwise.
	StructuredAuto StructuredMode = ""
	StructuredTool StructuredMode = "tool"
	StructuredJSON StructuredMode = "json"
)

// ParseStructuredMode maps a config value to a StructuredMode.
func ParseStructuredMode(s string) (StructuredMode, error) {
	switch StructuredMode(strings.ToLower(strings.TrimSpace(s))) {
	case StructuredAuto, "auto":
		return StructuredAuto, nil
	case StructuredTool:
		return StructuredTool, nil
	case StructuredJSON:
		return StructuredJSON, nil
	}
	return StructuredAuto, fmt.Errorf("unknown structured output mode: %q", s)
}

// StructuredRequest describes one structured-output call.
type StructuredRequest struct {
	System string
	User   ChatMessage
	// Tool declares the target schema. In tool mode the model is forced to
	// invoke it; in JSON mode its schema is embedded in the system prompt.
	Tool Tool
	// Normalize, if set, runs on the decoded arguments before validation.
	Normalize func(args map[string]any)
}

// StructuredCaller obtains schema-validated values from the model, retrying a
// bounded number of times when the reply doesn't validate. Transport errors
// are never retried here.
type StructuredCaller struct {
	LLM             LLMClient
	Model           string
	Mode            StructuredMode
	Policy          RetryPolicy
	MaxOutputTokens int
	Hooks           Hooks
}

func (c *StructuredCaller) useTool() bool {
	if c.Mode == StructuredJSON {
		return false
	}
	s, ok := c.LLM.(ToolChoiceSupporter)
	return ok && s.SupportsToolChoice()
}

// Call returns the validated arguments of the target tool.
func (c *StructuredCaller) Call(ctx context.Context, req StructuredRequest) (map[string]any, error) {
	if req.User.Role == "" {
		req.User.Role = RoleUser
	}
	op := "structured:" + req.Tool.Name
	useTool := c.useTool()

	// replay holds the invalid exchange appended after the initial user turn
	var replay []ChatMessage

	args, err := RetryWithPolicy(ctx, c.Policy,
		func(ctx context.Context, attempt int) (map[string]any, error) {
			msgs := make([]ChatMessage, 0, 2+len(replay))
			if useTool {
				msgs = append(msgs, ChatMessage{Role: RoleSystem, Content: req.System})
			} else {
				msgs = append(msgs, ChatMessage{Role: RoleSystem, Content: jsonSystemPrompt(req)})
			}
			msgs = append(msgs, req.User)
			msgs = append(msgs, replay...)

			if useTool {
				resp, err := chat(ctx, c.LLM, c.Hooks, op, c.Model, msgs, []ToolSchema{req.Tool.Schema()}, ChatOptions{
					MaxOutputTokens: c.MaxOutputTokens,
					ToolChoice:      req.Tool.Name,
				})
				if err != nil {
					return nil, err
				}
				args, call, verr := c.fromToolCall(req, resp)
				if verr != nil {
					replay = toolReplay(resp, call, verr)
					return nil, verr
				}
				return args, nil
			}

			resp, err := chat(ctx, c.LLM, c.Hooks, op, c.Model, msgs, nil, ChatOptions{
				MaxOutputTokens: c.MaxOutputTokens,
			})
			if err != nil {
				return nil, err
			}
			args, verr := c.fromText(req, resp.Text())
			if verr != nil {
				replay = []ChatMessage{
					{Role: RoleAssistant, Content: resp.Text()},
					{Role: RoleUser, Content: fmt.Sprintf("Invalid JSON: %s. Return valid JSON only.", causeOf(verr))},
				}
				return nil, verr
			}
			return args, nil
		},
		func(err error) RetryClass {
			if IsStructuredOutputError(err) {
				return RetryClassRetryable
			}
			return RetryClassNonRetryable
		},
		func(attempt int, delay time.Duration, err error) {
			c.Hooks.OnRetryAttempt(ctx, op, attempt, delay, err)
		},
	)
	if err != nil {
		if IsRetryExhausted(err) {
			c.Hooks.OnRetryExhausted(ctx, op, err)
		}
		return nil, err
	}
	return args, nil
}

// fromToolCall finds the target invocation in resp and validates it. The
// returned call is nil when the model did not invoke the tool at all.
func (c *StructuredCaller) fromToolCall(req StructuredRequest, resp LLMResponse) (map[string]any, *ToolCall, error) {
	for i := range resp.ToolCalls {
		call := &resp.ToolCalls[i]
		if call.Name != req.Tool.Name {
			continue
		}
		args, err := validateStructured(req, call.Args)
		if err != nil {
			raw, _ := json.Marshal(call.Args)
			return nil, call, &StructuredOutputError{Target: req.Tool.Name, Raw: string(raw), Err: err}
		}
		return args, call, nil
	}
	return nil, nil, &StructuredOutputError{
		Target: req.Tool.Name,
		Raw:    resp.Text(),
		Err:    fmt.Errorf("model did not invoke %s", req.Tool.Name),
	}
}

func (c *StructuredCaller) fromText(req StructuredRequest, text string) (map[string]any, error) {
	var args map[string]any
	if err := json.Unmarshal([]byte(ExtractJSON(text)), &args); err != nil {
		return nil, &StructuredOutputError{Target: req.Tool.Name, Raw: text, Err: err}
	}
	args, err := validateStructured(req, args)
	if err != nil {
		return nil, &StructuredOutputError{Target: req.Tool.Name, Raw: text, Err: err}
	}
	return args, nil
}

func validateStructured(req StructuredRequest, args map[string]any) (map[string]any, error) {
	if args == nil {
		args = map[string]any{}
	}
	if req.Normalize != nil {
		req.Normalize(args)
	}
	if err := req.Tool.ValidateArgs(args); err != nil {
		return nil, err
	}
	return args, nil
}

// toolReplay builds the turns that show the model its invalid invocation.
func toolReplay(resp LLMResponse, call *ToolCall, verr error) []ChatMessage {
	reason := causeOf(verr)
	if call == nil {
		return []ChatMessage{
			{Role: RoleAssistant, Content: resp.Text()},
			{Role: RoleUser, Content: "You must respond by calling the provided tool."},
		}
	}
	return []ChatMessage{
		{Role: RoleAssistant, Content: resp.Text(), ToolCalls: []ToolCall{*call}},
		{Role: RoleUser, ToolResults: []ToolResult{{
			CallID:  call.ID,
			Content: fmt.Sprintf("Invalid arguments: %s. Call the tool again with valid arguments.", reason),
			IsError: true,
		}}},
	}
}

func causeOf(err error) string {
	var soErr *StructuredOutputError
	if errors.As(err, &soErr) && soErr.Err != nil {
		return soErr.Err.Error()
	}
	return err.Error()
}

func jsonSystemPrompt(req StructuredRequest) string {
	var b strings.Builder
	b.WriteString(req.System)
	b.WriteString("\n\nReturn JSON only. The JSON object must satisfy this schema:\n")
	b.WriteString(req.Tool.SchemaJSON)
	return b.String()
}

// ExtractJSON pulls a JSON document out of a model reply, handling fenced
// code blocks anywhere in the text. Text without a fence is returned trimmed.
func ExtractJSON(text string) string {
	text = strings.TrimSpace(text)

	if start := strings.Index(text, "```json"); start != -1 {
		start += len("```json")
		if end := strings.Index(text[start:], "```"); end != -1 {
			return strings.TrimSpace(text[start : start+end])
		}
	}

	if start := strings.Index(text, "```"); start != -1 {
		start += 3
		// skip a language tag on the fence line
		if nl := strings.Index(text[start:], "\n"); nl != -1 {
			start += nl + 1
		}
		if end := strings.Index(text[start:], "```"); end != -1 {
			return strings.TrimSpace(text[start : start+end])
		}
	}

	return text
}

// Decode converts validated arguments into a typed value.
func Decode[T any](args map[string]any) (T, error) {
	var out T
	raw, err := json.Marshal(args)
	if err != nil {
		return out, fmt.Errorf("failed to marshal arguments: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("failed to decode arguments: %w", err)
	}
	return out, nil
}

// CallInto runs a structured call and decodes the result into T.
func CallInto[T any](ctx context.Context, c *StructuredCaller, req StructuredRequest) (T, error) {
	var zero T
	args, err := c.Call(ctx, req)
	if err != nil {
		return zero, err
	}
	return Decode[T](args)
}
