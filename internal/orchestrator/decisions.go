package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ChamsBouzaiene/crunched/internal/engine"
	"github.com/ChamsBouzaiene/crunched/internal/prompts"
	"github.com/ChamsBouzaiene/crunched/internal/session"
	"go.uber.org/zap"
)

// Structured-output tool names.
const (
	ClassifyTaskTool       = "classify_task"
	DecideDataStrategyTool = "decide_data_strategy"
)

var classifyTaskTool = engine.Tool{
	Name:        ClassifyTaskTool,
	Description: "Record the classification of the user's request.",
	SchemaJSON: `{"type":"object","properties":{
		"task_type":{"type":"string","enum":["bond_pricing","other"],"description":"bond_pricing for bond valuation work, other for everything else"},
		"needs_excel":{"type":"boolean","description":"Whether answering needs data already in the spreadsheet"},
		"reasoning":{"type":"string","description":"One sentence justification"}
	},"required":["task_type","needs_excel","reasoning"]}`,
	Metadata: engine.ToolMetadata{Version: "1.0.0", Category: "structured"},
}

var decideDataStrategyTool = engine.Tool{
	Name:        DecideDataStrategyTool,
	Description: "Record how the spreadsheet data should be gathered.",
	SchemaJSON: `{"type":"object","properties":{
		"strategy":{"type":"string","enum":["read_all","ask_user","skip"]},
		"ranges_to_read":{"type":"array","items":{"type":"string","minLength":1},"description":"Ranges such as Sheet1!A1:D20"},
		"question_for_user":{"type":["string","null"]}
	},"required":["strategy"]}`,
	Metadata: engine.ToolMetadata{Version: "1.0.0", Category: "structured"},
}

// lowerField trims and lower-cases a string argument in place.
func lowerField(field string) func(map[string]any) {
	return func(args map[string]any) {
		if s, ok := args[field].(string); ok {
			args[field] = strings.ToLower(strings.TrimSpace(s))
		}
	}
}

// defaultClassification is used when the classifier never produced a valid reply.
func defaultClassification() session.Classification {
	return session.Classification{TaskType: session.TaskOther, NeedsExcel: false, Reasoning: "Classification failed"}
}

func defaultStrategy() session.DataStrategy {
	return session.DataStrategy{Strategy: session.StrategySkip, RangesToRead: []string{}}
}

// classify asks the model for a Classification. Invalid replies fall back to
// the default; transport errors are returned.
func (o *Orchestrator) classify(ctx context.Context, message string) (session.Classification, error) {
	system, err := o.prompts.Resolve(prompts.IDClassify)
	if err != nil {
		return session.Classification{}, err
	}

	c, err := engine.CallInto[session.Classification](ctx, o.structured, engine.StructuredRequest{
		System:    system,
		User:      engine.ChatMessage{Role: engine.RoleUser, Content: message},
		Tool:      classifyTaskTool,
		Normalize: lowerField("task_type"),
	})
	if engine.IsStructuredOutputError(err) {
		o.logger.Warn("classification failed, using defaults", zap.Error(err))
		return defaultClassification(), nil
	}
	return c, err
}

// decideStrategy asks the model how to gather data given the workbook layout.
func (o *Orchestrator) decideStrategy(ctx context.Context, workbookInfo any, message string) (session.DataStrategy, error) {
	system, err := o.prompts.Resolve(prompts.IDDataStrategy)
	if err != nil {
		return session.DataStrategy{}, err
	}

	user := fmt.Sprintf("User request: %s\n\nWorkbook structure:\n%s", message, workbookSummary(workbookInfo))
	ds, err := engine.CallInto[session.DataStrategy](ctx, o.structured, engine.StructuredRequest{
		System:    system,
		User:      engine.ChatMessage{Role: engine.RoleUser, Content: user},
		Tool:      decideDataStrategyTool,
		Normalize: lowerField("strategy"),
	})
	if engine.IsStructuredOutputError(err) {
		o.logger.Warn("data strategy failed, using defaults", zap.Error(err))
		return defaultStrategy(), nil
	}
	if err != nil {
		return session.DataStrategy{}, err
	}
	if ds.RangesToRead == nil {
		ds.RangesToRead = []string{}
	}
	return ds, nil
}

// workbookSummary renders the sheets of a get_workbook_info result, one
// "- name: usedRange" line each.
func workbookSummary(info any) string {
	m, _ := decodeJSONString(info).(map[string]any)
	sheets, _ := m["sheets"].([]any)

	var lines []string
	for _, raw := range sheets {
		sheet, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %v: %v", sheet["name"], sheet["usedRange"]))
	}
	if len(lines) == 0 {
		return "No sheets found"
	}
	return strings.Join(lines, "\n")
}

// decodeJSONString parses a result the client sent as a JSON string.
// Anything else is returned unchanged.
func decodeJSONString(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	var decoded any
	if err := json.Unmarshal([]byte(s), &decoded); err != nil {
		return v
	}
	return decoded
}
