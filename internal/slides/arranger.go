package slides

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ChamsBouzaiene/crunched/internal/engine"
	"github.com/ChamsBouzaiene/crunched/internal/prompts"
)

const ArrangeShapesTool = "arrange_shapes"

var arrangeShapesTool = engine.Tool{
	Name:        ArrangeShapesTool,
	Description: "Specify how to arrange the shapes based on the user's request",
	SchemaJSON: `{"type":"object","properties":{
		"order":{"type":"array","items":{"type":"string"},"description":"Shape IDs in the desired arrangement order (first = leftmost or topmost)"},
		"alignment":{"type":"string","enum":["horizontal_distribute","vertical_distribute","horizontal_center","vertical_center"],"description":"The alignment operation to apply"},
		"vertical_position":{"type":"string","enum":["top","middle","bottom"],"description":"Where on the slide the shapes should sit vertically"},
		"horizontal_position":{"type":"string","enum":["left","center","right"],"description":"Where on the slide the shapes should sit horizontally"},
		"explanation":{"type":"string","description":"Brief explanation of what will be done"}
	},"required":["order","alignment","explanation"]}`,
	Metadata: engine.ToolMetadata{Version: "1.0.0", Category: "structured"},
}

func normalizeArrangement(args map[string]any) {
	for _, field := range []string{"alignment", "vertical_position", "horizontal_position"} {
		if v, ok := args[field].(string); ok {
			args[field] = strings.ToLower(strings.TrimSpace(v))
		}
	}
}

// Arrange asks the model how to arrange shapes for message. The returned
// order keeps the model's order, restricted to known ids without duplicates.
func (s *Service) Arrange(ctx context.Context, message string, shapes []LabeledShape) (Arrangement, error) {
	if len(shapes) == 0 {
		return Arrangement{}, ErrNoShapes
	}
	system, err := s.prompts.Resolve(prompts.IDArranger)
	if err != nil {
		return Arrangement{}, err
	}

	a, err := engine.CallInto[Arrangement](ctx, s.arranger, engine.StructuredRequest{
		System:    system,
		User:      engine.ChatMessage{Role: engine.RoleUser, Content: arrangePrompt(message, shapes)},
		Tool:      arrangeShapesTool,
		Normalize: normalizeArrangement,
	})
	if err != nil {
		return Arrangement{}, fmt.Errorf("arrange shapes: %w", err)
	}

	order, invalid := resolveOrder(a.Order, shapes)
	if len(invalid) > 0 {
		s.logger.Warn("invalid shape ids filtered out", zap.Strings("shape_ids", invalid))
	}
	if len(order) == 0 {
		return Arrangement{}, &engine.UnresolvableReferenceError{Kind: "shapes", Invalid: invalid}
	}
	a.Order = order
	return a, nil
}

func resolveOrder(order []string, shapes []LabeledShape) (valid, invalid []string) {
	known := make(map[string]bool, len(shapes))
	for _, sh := range shapes {
		known[sh.ID] = true
	}
	seen := make(map[string]bool, len(order))
	for _, id := range order {
		if seen[id] {
			continue
		}
		seen[id] = true
		if known[id] {
			valid = append(valid, id)
		} else {
			invalid = append(invalid, id)
		}
	}
	return valid, invalid
}

func arrangePrompt(message string, shapes []LabeledShape) string {
	var b strings.Builder
	b.WriteString("Available shapes on the slide:\n\n")
	for _, sh := range shapes {
		fmt.Fprintf(&b, "- ID: %q | Label: %q | Description: %s\n", sh.ID, sh.Label, sh.Description)
	}
	fmt.Fprintf(&b, "\nUser's instruction: %q\n\n", message)
	b.WriteString("Determine the arrangement. Return the shape IDs (not labels) in the order array.")
	return b.String()
}
