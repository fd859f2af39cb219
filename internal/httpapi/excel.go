package httpapi

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/ChamsBouzaiene/crunched/internal/engine"
	"github.com/ChamsBouzaiene/crunched/internal/orchestrator"
)

type ToolResult struct {
	ToolUseID string `json:"tool_use_id" validate:"required"`
	Result    any    `json:"result"`
}

type ChatRequest struct {
	Message             string               `json:"message"`
	SessionID           string               `json:"session_id,omitempty"`
	ToolResults         []ToolResult         `json:"tool_results,omitempty" validate:"dive"`
	ConversationHistory []engine.ChatMessage `json:"conversation_history,omitempty"`
}

type ChatResponse struct {
	SessionID           string               `json:"session_id"`
	Response            *string              `json:"response,omitempty"`
	ToolCalls           []engine.ToolCall    `json:"tool_calls,omitempty"`
	ConversationHistory []engine.ChatMessage `json:"conversation_history,omitempty"`
}

type AgentRequest struct {
	Message             string               `json:"message"`
	Expert              string               `json:"expert,omitempty"`
	ToolResults         []ToolResult         `json:"tool_results,omitempty" validate:"dive"`
	ConversationHistory []engine.ChatMessage `json:"conversation_history,omitempty"`
}

type AgentResponse struct {
	Response            *string              `json:"response,omitempty"`
	ToolCalls           []engine.ToolCall    `json:"tool_calls,omitempty"`
	ConversationHistory []engine.ChatMessage `json:"conversation_history"`
}

type ExcelHandler struct {
	orch *orchestrator.Orchestrator
}

func NewExcelHandler(orch *orchestrator.Orchestrator) *ExcelHandler {
	return &ExcelHandler{orch: orch}
}

func (h *ExcelHandler) RegisterRoutes(r fiber.Router) {
	r.Post("/chat", h.Chat)
	r.Post("/agent", h.Agent)
}

func (h *ExcelHandler) Chat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Message == "" && len(req.ToolResults) == 0 {
		return invalid("message or tool_results is required")
	}
	if err := validateHistory(req.ConversationHistory); err != nil {
		return err
	}

	resp, err := h.orch.Advance(c.UserContext(), orchestrator.Request{
		SessionID:   req.SessionID,
		Message:     req.Message,
		ToolResults: clientResults(req.ToolResults),
		History:     req.ConversationHistory,
	})
	if err != nil {
		return err
	}

	out := ChatResponse{
		SessionID:           resp.SessionID,
		ToolCalls:           resp.ToolCalls,
		ConversationHistory: resp.History,
	}
	if len(resp.ToolCalls) == 0 {
		out.Response = &resp.Text
	}
	return c.JSON(out)
}

func (h *ExcelHandler) Agent(c *fiber.Ctx) error {
	var req AgentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Message == "" && len(req.ToolResults) == 0 {
		return invalid("message or tool_results is required")
	}
	if err := validateHistory(req.ConversationHistory); err != nil {
		return err
	}

	out, err := h.orch.RunAgent(c.UserContext(), orchestrator.AgentRequest{
		Expert:      req.Expert,
		Message:     req.Message,
		ToolResults: clientResults(req.ToolResults),
		History:     req.ConversationHistory,
	})
	if err != nil {
		return err
	}

	resp := AgentResponse{ToolCalls: out.ToolCalls, ConversationHistory: out.History}
	if out.Final() {
		resp.Response = &out.Text
	}
	return c.JSON(resp)
}

func validateHistory(history []engine.ChatMessage) error {
	for i, m := range history {
		if err := m.Validate(); err != nil {
			return invalid(fmt.Sprintf("conversation_history[%d]: %v", i, err))
		}
	}
	return nil
}

func clientResults(in []ToolResult) []orchestrator.ClientResult {
	out := make([]orchestrator.ClientResult, 0, len(in))
	for _, r := range in {
		out = append(out, orchestrator.ClientResult{ToolUseID: r.ToolUseID, Value: r.Result})
	}
	return out
}
