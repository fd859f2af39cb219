package slides

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/ChamsBouzaiene/crunched/internal/engine"
	"github.com/ChamsBouzaiene/crunched/internal/engine/enginetest"
	"github.com/ChamsBouzaiene/crunched/internal/prompts"
)

func newTestService(t *testing.T, llm engine.LLMClient) *Service {
	t.Helper()
	return NewService(Options{
		LLM:     llm,
		Model:   "vision-model",
		Prompts: prompts.NewBuiltinRegistry(),
		Logger:  zaptest.NewLogger(t),
	})
}

var slideShapes = []Shape{
	{ID: "s1", Left: 10.4, Top: 20, Width: 100, Height: 50},
	{ID: "s2", Left: 300, Top: 40, Width: 80, Height: 80},
	{ID: "s3", Left: 600, Top: 60, Width: 120, Height: 40},
}

func labeled() []LabeledShape {
	return []LabeledShape{
		{ID: "s1", Label: "email icon", Description: "envelope", Width: 100, Height: 50},
		{ID: "s2", Label: "robot", Description: "grey robot", Width: 80, Height: 80},
		{ID: "s3", Label: "spreadsheet", Description: "green grid", Width: 120, Height: 40},
	}
}

func TestAnalyzeKeepsInputOrderAndGeometry(t *testing.T) {
	llm := &enginetest.ScriptedLLM{Responses: []engine.LLMResponse{
		enginetest.Forced(LabelShapesTool, map[string]any{"labeled_shapes": []any{
			map[string]any{"id": "s3", "label": "spreadsheet", "description": "green grid"},
			map[string]any{"id": "ghost", "label": "ghost", "description": "not there"},
			map[string]any{"id": "s1", "label": "email icon", "description": "envelope"},
			map[string]any{"id": "s1", "label": "second guess", "description": "ignored"},
		}}),
	}}
	svc := newTestService(t, llm)

	got, err := svc.Analyze(context.Background(), "data:image/png;base64,iVBORw0KGgo=", slideShapes)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 shapes, got %d", len(got))
	}
	wantLabels := []string{"email icon", unknownLabel, "spreadsheet"}
	for i, sh := range got {
		if sh.ID != slideShapes[i].ID || sh.Label != wantLabels[i] {
			t.Errorf("shape %d = %s/%s, want %s/%s", i, sh.ID, sh.Label, slideShapes[i].ID, wantLabels[i])
		}
		if sh.Left != slideShapes[i].Left || sh.Width != slideShapes[i].Width {
			t.Errorf("shape %d geometry must come from the input", i)
		}
	}
	if got[1].Description != unknownDescription {
		t.Errorf("placeholder description = %q", got[1].Description)
	}

	call := llm.Calls[0]
	user := call.Messages[1]
	if len(user.Images) != 1 || user.Images[0].Data != "iVBORw0KGgo=" || user.Images[0].MediaType != "image/png" {
		t.Errorf("image not attached: %+v", user.Images)
	}
	if !strings.Contains(user.Content, "- Shape ID: s1, Position: left=10, top=20, size: 100x50") {
		t.Errorf("unexpected shapes prompt:\n%s", user.Content)
	}
	if call.Opts.ToolChoice != LabelShapesTool || call.Opts.MaxOutputTokens != labelMaxTokens {
		t.Errorf("unexpected options %+v", call.Opts)
	}
}

func TestAnalyzeFallsBackToPlaceholders(t *testing.T) {
	bad := enginetest.Forced(LabelShapesTool, map[string]any{"shapes": "nope"})
	svc := newTestService(t, &enginetest.ScriptedLLM{Responses: []engine.LLMResponse{bad, bad, bad}})

	got, err := svc.Analyze(context.Background(), "abc", slideShapes[:2])
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	for _, sh := range got {
		if sh.Label != unknownLabel {
			t.Errorf("expected placeholder for %s, got %q", sh.ID, sh.Label)
		}
	}
}

func TestArrangeFiltersOrder(t *testing.T) {
	llm := &enginetest.ScriptedLLM{Responses: []engine.LLMResponse{
		enginetest.Forced(ArrangeShapesTool, map[string]any{
			"order":             []any{"s2", "email icon", "s1", "s2"},
			"alignment":         "Horizontal_Distribute",
			"vertical_position": "top",
			"explanation":       "robot then email",
		}),
	}}
	svc := newTestService(t, llm)

	a, err := svc.Arrange(context.Background(), "robot then the email", labeled())
	if err != nil {
		t.Fatalf("Arrange() error = %v", err)
	}
	if strings.Join(a.Order, ",") != "s2,s1" {
		t.Errorf("order = %v, want [s2 s1]", a.Order)
	}
	if a.Alignment != HorizontalDistribute || a.VerticalPosition != Top {
		t.Errorf("unexpected arrangement %+v", a)
	}
	user := llm.Calls[0].Messages[1].Content
	if !strings.Contains(user, `- ID: "s1" | Label: "email icon" | Description: envelope`) ||
		!strings.Contains(user, `User's instruction: "robot then the email"`) {
		t.Errorf("unexpected arrange prompt:\n%s", user)
	}
}

func TestArrangeUnresolvable(t *testing.T) {
	llm := &enginetest.ScriptedLLM{Responses: []engine.LLMResponse{
		enginetest.Forced(ArrangeShapesTool, map[string]any{"order": []any{"x"}, "alignment": "vertical_center", "explanation": "?"}),
	}}
	svc := newTestService(t, llm)

	_, err := svc.Arrange(context.Background(), "move the cat", labeled())
	var unresolved *engine.UnresolvableReferenceError
	if !errors.As(err, &unresolved) || unresolved.Invalid[0] != "x" {
		t.Fatalf("expected UnresolvableReferenceError, got %v", err)
	}

	if _, err := svc.Arrange(context.Background(), "anything", nil); !errors.Is(err, ErrNoShapes) {
		t.Errorf("expected ErrNoShapes, got %v", err)
	}
}

func TestStartStoresShapes(t *testing.T) {
	llm := &enginetest.ScriptedLLM{Responses: []engine.LLMResponse{
		enginetest.Forced(LabelShapesTool, map[string]any{"labeled_shapes": []any{
			map[string]any{"id": "s1", "label": "email icon", "description": "envelope"},
		}}),
	}}
	svc := newTestService(t, llm)

	if _, err := svc.Start(context.Background(), "deck-1", "abc", slideShapes[:1]); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	got := svc.ShapesFor("deck-1", nil)
	if len(got) != 1 || got[0].Label != "email icon" {
		t.Errorf("stored shapes = %+v", got)
	}
	if got := svc.ShapesFor("deck-1", labeled()); len(got) != 3 {
		t.Error("explicit shapes take precedence")
	}
	if got := svc.ShapesFor("unknown", nil); got != nil {
		t.Errorf("unknown session = %+v", got)
	}
}

func TestGenerateScriptAndDescribe(t *testing.T) {
	llm := &enginetest.ScriptedLLM{Responses: []engine.LLMResponse{
		enginetest.Text("  Good morning everyone.  "),
		enginetest.Text("A title slide."),
	}}
	svc := newTestService(t, llm)

	script, err := svc.GenerateScript(context.Background(), "abc", "")
	if err != nil {
		t.Fatalf("GenerateScript() error = %v", err)
	}
	if script != "Good morning everyone." {
		t.Errorf("script = %q", script)
	}
	user := llm.Calls[0].Messages[1]
	if !strings.Contains(user.Content, "No additional context provided.") || len(user.Images) != 1 {
		t.Errorf("unexpected script request %+v", user)
	}
	if len(llm.Calls[0].Tools) != 0 {
		t.Error("script generation must not offer tools")
	}

	desc, err := svc.Describe(context.Background(), "abc", "what is the title?")
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	if desc != "A title slide." || !strings.Contains(llm.Calls[1].Messages[1].Content, "what is the title?") {
		t.Errorf("describe = %q", desc)
	}
}

func TestLayout(t *testing.T) {
	shapes := labeled()
	tests := []struct {
		name string
		a    Arrangement
		want []Placement
	}{
		{
			name: "horizontal distribute middle",
			a:    Arrangement{Order: []string{"s2", "s1", "s3"}, Alignment: HorizontalDistribute},
			// span 960-72=888, widths 300, gap (888-300)/2=294
			want: []Placement{
				{ID: "s2", Left: 36, Top: 230, Width: 80, Height: 80},
				{ID: "s1", Left: 410, Top: 245, Width: 100, Height: 50},
				{ID: "s3", Left: 804, Top: 250, Width: 120, Height: 40},
			},
		},
		{
			name: "vertical distribute left",
			a:    Arrangement{Order: []string{"s1", "s2"}, Alignment: VerticalDistribute, HorizontalPosition: Left},
			want: []Placement{
				{ID: "s1", Left: 36, Top: 36, Width: 100, Height: 50},
				{ID: "s2", Left: 36, Top: 424, Width: 80, Height: 80},
			},
		},
		{
			name: "single shape centered",
			a:    Arrangement{Order: []string{"s1"}, Alignment: HorizontalDistribute, VerticalPosition: Bottom},
			want: []Placement{{ID: "s1", Left: 430, Top: 454, Width: 100, Height: 50}},
		},
		{
			name: "horizontal center right",
			a:    Arrangement{Order: []string{"s1", "s3"}, Alignment: HorizontalCenter, HorizontalPosition: Right},
			want: []Placement{
				{ID: "s1", Left: 814, Top: 0, Width: 100, Height: 50},
				{ID: "s3", Left: 804, Top: 0, Width: 120, Height: 40},
			},
		},
		{
			name: "vertical center default",
			a:    Arrangement{Order: []string{"s2", "s3"}, Alignment: VerticalCenter},
			want: []Placement{
				{ID: "s2", Left: 0, Top: 230, Width: 80, Height: 80},
				{ID: "s3", Left: 0, Top: 250, Width: 120, Height: 40},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Layout(tt.a, shapes, 0, 0)
			if err != nil {
				t.Fatalf("Layout() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d placements, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("placement %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}

	if _, err := Layout(Arrangement{Order: []string{"nope"}, Alignment: VerticalCenter}, shapes, 0, 0); err == nil {
		t.Error("expected error for unknown shape")
	}
	if _, err := Layout(Arrangement{Order: []string{"s1"}, Alignment: "diagonal"}, shapes, 0, 0); err == nil {
		t.Error("expected error for unknown alignment")
	}
}

func TestResolveOrder(t *testing.T) {
	shapes := []LabeledShape{{ID: "a"}, {ID: "b"}}
	tests := []struct {
		order       []string
		wantValid   []string
		wantInvalid []string
	}{
		{[]string{"b", "zz", "a", "b"}, []string{"b", "a"}, []string{"zz"}},
		{[]string{"a", "a"}, []string{"a"}, nil},
		{[]string{"x", "x"}, nil, []string{"x"}},
	}
	for _, tt := range tests {
		valid, invalid := resolveOrder(tt.order, shapes)
		if strings.Join(valid, ",") != strings.Join(tt.wantValid, ",") || strings.Join(invalid, ",") != strings.Join(tt.wantInvalid, ",") {
			t.Errorf("resolveOrder(%v) = %v, %v; want %v, %v", tt.order, valid, invalid, tt.wantValid, tt.wantInvalid)
		}
	}
}
