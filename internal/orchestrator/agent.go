package orchestrator

import (
	"context"

	"github.com/ChamsBouzaiene/crunched/internal/engine"
)

// AgentRequest is one stateless expert turn. The caller owns the history.
type AgentRequest struct {
	Expert      string // defaults to general
	Message     string
	ToolResults []ClientResult
	History     []engine.ChatMessage
}

// RunAgent runs a single expert turn without classification or session state.
func (o *Orchestrator) RunAgent(ctx context.Context, req AgentRequest) (engine.TurnOutput, error) {
	expert := req.Expert
	if expert == "" {
		expert = ExpertGeneral
	}
	return o.runExpert(ctx, expert, engine.TurnInput{
		Text:        req.Message,
		ToolResults: toolResults(req.ToolResults),
		History:     req.History,
	})
}
