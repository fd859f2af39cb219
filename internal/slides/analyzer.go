package slides

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ChamsBouzaiene/crunched/internal/engine"
	"github.com/ChamsBouzaiene/crunched/internal/prompts"
)

const LabelShapesTool = "label_shapes"

const (
	unknownLabel       = "unknown shape"
	unknownDescription = "Shape not identified"
)

var labelShapesTool = engine.Tool{
	Name:        LabelShapesTool,
	Description: "Label each shape identified in the slide",
	SchemaJSON: `{"type":"object","properties":{"labeled_shapes":{"type":"array","items":{"type":"object","properties":{
		"id":{"type":"string","description":"The shape ID (must match one from the input)"},
		"label":{"type":"string","description":"Short descriptive name (e.g., 'email icon', 'right arrow', 'robot')"},
		"description":{"type":"string","description":"Brief description of appearance and position"}
	},"required":["id","label","description"]}}},"required":["labeled_shapes"]}`,
	Metadata: engine.ToolMetadata{Version: "1.0.0", Category: "structured"},
}

type labelReply struct {
	LabeledShapes []struct {
		ID          string `json:"id"`
		Label       string `json:"label"`
		Description string `json:"description"`
	} `json:"labeled_shapes"`
}

// Analyze labels every shape. The result has one entry per input shape, in
// input order; shapes the model skipped get a placeholder label and ids it
// invented are dropped.
func (s *Service) Analyze(ctx context.Context, image string, shapes []Shape) ([]LabeledShape, error) {
	system, err := s.prompts.Resolve(prompts.IDSceneAnalyzer)
	if err != nil {
		return nil, err
	}

	reply, err := engine.CallInto[labelReply](ctx, s.labeler, engine.StructuredRequest{
		System: system,
		User: engine.ChatMessage{
			Role:    engine.RoleUser,
			Content: shapesPrompt(shapes),
			Images:  []engine.Image{slideImage(image)},
		},
		Tool: labelShapesTool,
	})
	if engine.IsStructuredOutputError(err) {
		s.logger.Warn("scene analysis failed, using placeholder labels", zap.Error(err))
		reply = labelReply{}
	} else if err != nil {
		return nil, fmt.Errorf("analyze scene: %w", err)
	}

	known := make(map[string]bool, len(shapes))
	for _, sh := range shapes {
		known[sh.ID] = true
	}
	type label struct{ label, description string }
	labels := make(map[string]label, len(reply.LabeledShapes))
	for _, item := range reply.LabeledShapes {
		if !known[item.ID] {
			s.logger.Warn("model labeled an unknown shape", zap.String("shape_id", item.ID))
			continue
		}
		if _, dup := labels[item.ID]; !dup {
			labels[item.ID] = label{item.Label, item.Description}
		}
	}

	out := make([]LabeledShape, 0, len(shapes))
	for _, sh := range shapes {
		l, ok := labels[sh.ID]
		if !ok {
			s.logger.Warn("shape was not labeled", zap.String("shape_id", sh.ID))
			l = label{unknownLabel, unknownDescription}
		}
		out = append(out, LabeledShape{
			ID:          sh.ID,
			Label:       l.label,
			Description: l.description,
			Left:        sh.Left,
			Top:         sh.Top,
			Width:       sh.Width,
			Height:      sh.Height,
		})
	}
	return out, nil
}

func shapesPrompt(shapes []Shape) string {
	var b strings.Builder
	b.WriteString("Here are the shapes on this slide:\n\n")
	for _, sh := range shapes {
		fmt.Fprintf(&b, "- Shape ID: %s, Position: left=%.0f, top=%.0f, size: %.0fx%.0f\n",
			sh.ID, sh.Left, sh.Top, sh.Width, sh.Height)
	}
	b.WriteString("\nPlease label each shape.")
	return b.String()
}

// slideImage accepts raw base64 or a data URL.
func slideImage(data string) engine.Image {
	img := engine.Image{MediaType: "image/png", Data: data}
	if rest, ok := strings.CutPrefix(data, "data:"); ok {
		if meta, payload, found := strings.Cut(rest, ","); found {
			img.MediaType = strings.TrimSuffix(meta, ";base64")
			img.Data = payload
		}
	}
	return img
}
