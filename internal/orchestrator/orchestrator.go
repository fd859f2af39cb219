// Package orchestrator drives an Excel conversation through its phases:
// classify the request, optionally fetch the workbook layout and data through
// client-executed tool calls, then hand off to an expert.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/ChamsBouzaiene/crunched/internal/engine"
	"github.com/ChamsBouzaiene/crunched/internal/prompts"
	"github.com/ChamsBouzaiene/crunched/internal/session"
	"github.com/ChamsBouzaiene/crunched/internal/tools"
)

// Tool call ids issued by the orchestrator itself.
const (
	workbookInfoCallID      = "orch_wb_info"
	workbookInfoRetryCallID = "orch_wb_info_2"
	readCallIDPrefix        = "orch_read_"
)

// DefaultQuestion is asked when the strategy is ask_user but the model gave
// no question.
const DefaultQuestion = "Which part of the spreadsheet contains the relevant data?"

const (
	structuredMaxTokens = 512
	expertMaxTokens     = 4096
)

// ClientResult is one tool result as the add-in sent it.
type ClientResult struct {
	ToolUseID string
	Value     any
}

// Request is one /chat call.
type Request struct {
	SessionID   string
	Message     string
	ToolResults []ClientResult
	// History, when non-nil, replaces the stored conversation history
	// before the expert runs.
	History []engine.ChatMessage
}

// Response carries either Text or ToolCalls. History is set whenever the
// expert ran.
type Response struct {
	SessionID string
	Text      string
	ToolCalls []engine.ToolCall
	History   []engine.ChatMessage
	Phase     session.PhaseName
}

// Options configures an Orchestrator.
type Options struct {
	LLM            engine.LLMClient
	Model          string
	Prompts        *prompts.PromptRegistry
	Sessions       *session.Manager
	StructuredMode engine.StructuredMode
	MaxTokens      int // expert replies
	WebSearch      bool
	Logger         *zap.Logger
}

// Orchestrator advances sessions one phase per request.
type Orchestrator struct {
	sessions   *session.Manager
	prompts    *prompts.PromptRegistry
	structured *engine.StructuredCaller
	loop       *engine.Loop
	webSearch  bool
	logger     *zap.Logger
}

// New builds an Orchestrator.
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Prompts == nil {
		opts.Prompts = prompts.DefaultRegistry()
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = expertMaxTokens
	}
	hooks := engine.Hooks{engine.ZapHook{L: logger}}

	return &Orchestrator{
		sessions: opts.Sessions,
		prompts:  opts.Prompts,
		structured: &engine.StructuredCaller{
			LLM:             opts.LLM,
			Model:           opts.Model,
			Mode:            opts.StructuredMode,
			Policy:          engine.DefaultStructuredPolicy(),
			MaxOutputTokens: structuredMaxTokens,
			Hooks:           hooks,
		},
		loop: &engine.Loop{
			LLM:             opts.LLM,
			Model:           opts.Model,
			Tools:           tools.NewRegistry(tools.Options{WebSearch: opts.WebSearch}),
			MaxOutputTokens: maxTokens,
			Hooks:           hooks,
			CheckCall:       tools.CheckCall,
		},
		webSearch: opts.WebSearch,
		logger:    logger,
	}
}

// Advance handles one request for a session, creating the session when the
// id is empty or unknown. Each completed transition is checkpointed, so an
// error leaves the session at its last successful phase.
func (o *Orchestrator) Advance(ctx context.Context, req Request) (Response, error) {
	var resp Response
	err := o.sessions.WithSession(ctx, req.SessionID, req.Message, func(tx *session.Tx) error {
		r, err := o.step(ctx, tx, req)
		if err != nil {
			return err
		}
		r.SessionID = tx.Session.ID
		if !tx.Deleted() {
			r.Phase = tx.Session.Phase.Name()
		}
		resp = r
		return nil
	})
	return resp, err
}

func (o *Orchestrator) step(ctx context.Context, tx *session.Tx, req Request) (Response, error) {
	s := tx.Session
	log := o.logger.With(zap.String("session_id", s.ID), zap.String("phase", string(s.Phase.Name())))

	switch p := s.Phase.(type) {
	case session.Classify:
		log.Info("classifying request", zap.Bool("new", tx.Created))
		return o.stepClassify(ctx, tx, req)
	case session.GetWorkbook:
		log.Info("received workbook info", zap.Int("tool_results", len(req.ToolResults)))
		return o.stepStrategy(ctx, tx, req)
	case session.ReadData:
		log.Info("received range data", zap.Strings("ranges", p.Ranges), zap.Int("tool_results", len(req.ToolResults)))
		return o.stepReadData(ctx, tx, req)
	case session.WaitingForUser:
		log.Info("received clarification")
		return o.stepClarify(ctx, tx, req)
	case session.Expert:
		return o.stepExpert(ctx, tx, req)
	}
	return Response{}, fmt.Errorf("session %s: unhandled phase %T", s.ID, s.Phase)
}

func (o *Orchestrator) stepClassify(ctx context.Context, tx *session.Tx, req Request) (Response, error) {
	s := tx.Session
	c, err := o.classify(ctx, s.OriginalMessage)
	if err != nil {
		return Response{}, fmt.Errorf("classify: %w", err)
	}
	s.Classification = &c
	o.logger.Info("classified",
		zap.String("session_id", s.ID),
		zap.String("task_type", string(c.TaskType)),
		zap.Bool("needs_excel", c.NeedsExcel),
		zap.String("reasoning", c.Reasoning))

	if c.NeedsExcel {
		return o.requestWorkbookInfo(ctx, tx, workbookInfoCallID)
	}

	s.Phase = session.Expert{}
	if err := tx.Checkpoint(ctx); err != nil {
		return Response{}, err
	}
	return o.stepExpert(ctx, tx, req)
}

func (o *Orchestrator) requestWorkbookInfo(ctx context.Context, tx *session.Tx, callID string) (Response, error) {
	tx.Session.Phase = session.GetWorkbook{}
	if err := tx.Checkpoint(ctx); err != nil {
		return Response{}, err
	}
	return Response{ToolCalls: []engine.ToolCall{{
		ID:   callID,
		Name: tools.GetWorkbookInfo,
		Args: map[string]any{},
	}}}, nil
}

func (o *Orchestrator) stepStrategy(ctx context.Context, tx *session.Tx, req Request) (Response, error) {
	s := tx.Session
	if len(req.ToolResults) > 0 {
		s.WorkbookInfo = decodeJSONString(req.ToolResults[0].Value)
	}

	ds, err := o.decideStrategy(ctx, s.WorkbookInfo, s.OriginalMessage)
	if err != nil {
		return Response{}, fmt.Errorf("data strategy: %w", err)
	}
	s.DataStrategy = &ds
	o.logger.Info("data strategy decided",
		zap.String("session_id", s.ID),
		zap.String("strategy", string(ds.Strategy)),
		zap.Strings("ranges", ds.RangesToRead))

	switch {
	case ds.Strategy == session.StrategyReadAll && len(ds.RangesToRead) > 0:
		s.Phase = session.ReadData{Ranges: ds.RangesToRead}
		if err := tx.Checkpoint(ctx); err != nil {
			return Response{}, err
		}
		calls := make([]engine.ToolCall, 0, len(ds.RangesToRead))
		for i, r := range ds.RangesToRead {
			calls = append(calls, engine.ToolCall{
				ID:   fmt.Sprintf("%s%d", readCallIDPrefix, i),
				Name: tools.ReadRange,
				Args: map[string]any{"range": r},
			})
		}
		return Response{ToolCalls: calls}, nil

	case ds.Strategy == session.StrategyAskUser:
		question := DefaultQuestion
		if ds.QuestionForUser != nil && *ds.QuestionForUser != "" {
			question = *ds.QuestionForUser
		}
		s.Phase = session.WaitingForUser{Question: question}
		if err := tx.Checkpoint(ctx); err != nil {
			return Response{}, err
		}
		return Response{Text: question}, nil
	}

	s.Phase = session.Expert{}
	if err := tx.Checkpoint(ctx); err != nil {
		return Response{}, err
	}
	return o.stepExpert(ctx, tx, req)
}

func (o *Orchestrator) stepReadData(ctx context.Context, tx *session.Tx, req Request) (Response, error) {
	s := tx.Session
	if len(req.ToolResults) > 0 {
		values := make([]any, 0, len(req.ToolResults))
		for _, r := range req.ToolResults {
			values = append(values, decodeJSONString(r.Value))
		}
		s.ExcelContext = values
	}

	s.Phase = session.Expert{}
	if err := tx.Checkpoint(ctx); err != nil {
		return Response{}, err
	}
	return o.stepExpert(ctx, tx, req)
}

func (o *Orchestrator) stepClarify(ctx context.Context, tx *session.Tx, req Request) (Response, error) {
	tx.Session.OriginalMessage += "\n\nUser clarification: " + req.Message
	return o.requestWorkbookInfo(ctx, tx, workbookInfoRetryCallID)
}

// stepExpert runs one expert turn. Tool results are forwarded only once the
// expert has started; the first turn is built from the gathered context.
func (o *Orchestrator) stepExpert(ctx context.Context, tx *session.Tx, req Request) (Response, error) {
	s := tx.Session
	if req.History != nil {
		s.History = req.History
	}

	expert := expertFor(s.Classification)
	in := engine.TurnInput{Text: expertInput(s), History: s.History}
	if s.ExpertStarted() {
		in.ToolResults = toolResults(req.ToolResults)
		if len(in.ToolResults) == 0 && req.Message != "" {
			in.Text = req.Message
		}
	}

	o.logger.Info("running expert",
		zap.String("session_id", s.ID),
		zap.String("expert", expert),
		zap.Bool("started", s.ExpertStarted()),
		zap.Int("history", len(s.History)))

	out, err := o.runExpert(ctx, expert, in)
	if err != nil {
		return Response{}, err
	}

	s.History = out.History
	s.Phase = session.Expert{Started: true}

	if out.Final() {
		if err := tx.Delete(ctx); err != nil {
			return Response{}, err
		}
		o.logger.Info("conversation finished", zap.String("session_id", s.ID))
		return Response{Text: out.Text, History: out.History}, nil
	}

	if err := tx.Checkpoint(ctx); err != nil {
		return Response{}, err
	}
	return Response{ToolCalls: out.ToolCalls, History: out.History}, nil
}

func (o *Orchestrator) runExpert(ctx context.Context, expert string, in engine.TurnInput) (engine.TurnOutput, error) {
	system, err := o.systemPrompt(expert)
	if err != nil {
		return engine.TurnOutput{}, err
	}
	out, err := o.loop.Run(ctx, "expert:"+expert, system, in)
	if err != nil {
		return engine.TurnOutput{}, fmt.Errorf("expert %s: %w", expert, err)
	}
	for _, w := range out.Warnings {
		o.logger.Warn("questionable tool call", zap.String("expert", expert), zap.String("warning", w))
	}
	return out, nil
}

// expertInput is the original message plus any gathered range data.
func expertInput(s *session.Session) string {
	if len(s.ExcelContext) == 0 {
		return s.OriginalMessage
	}
	data, err := json.Marshal(s.ExcelContext)
	if err != nil {
		data = []byte(fmt.Sprint(s.ExcelContext))
	}
	return s.OriginalMessage + "\n\nExcel data found:\n" + string(data)
}

func toolResults(in []ClientResult) []engine.ToolResult {
	if len(in) == 0 {
		return nil
	}
	out := make([]engine.ToolResult, 0, len(in))
	for _, r := range in {
		out = append(out, engine.NewToolResult(r.ToolUseID, r.Value))
	}
	return out
}
