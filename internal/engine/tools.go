package engine

import (
	"fmt"
	"sort"

	"github.com/xeipuuv/gojsonschema"
)

// Tool is a callable operation declared to the model. Document tools are
// executed by the add-in, not by this process, so a Tool only carries its
// contract.
type Tool struct {
	Name        string
	Description string
	SchemaJSON  string
	Metadata    ToolMetadata
}

// ToolMetadata provides categorization for tools.
type ToolMetadata struct {
	Version  string   // e.g., "1.0.0"
	Category string   // e.g., "document", "structured", "search"
	Tags     []string // e.g., ["read-only"]
}

// Schema returns the provider-facing schema for this tool.
func (t Tool) Schema() ToolSchema {
	return ToolSchema{Name: t.Name, Description: t.Description, JSONSchema: t.SchemaJSON}
}

// ValidateArgs validates the provided arguments against the tool's JSON schema.
func (t Tool) ValidateArgs(args map[string]any) error {
	if args == nil {
		args = map[string]any{}
	}
	schemaLoader := gojsonschema.NewStringLoader(t.SchemaJSON)
	documentLoader := gojsonschema.NewGoLoader(args)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	if !result.Valid() {
		var errorMsgs []string
		for _, err := range result.Errors() {
			errorMsgs = append(errorMsgs, err.String())
		}
		return &ToolValidationError{
			ToolName: t.Name,
			Errors:   errorMsgs,
		}
	}

	return nil
}

type ToolRegistry map[string]Tool

// Register adds t to the registry, replacing any tool with the same name.
func (r ToolRegistry) Register(t Tool) { r[t.Name] = t }

// Schemas returns every tool schema, sorted by name so that repeated calls
// produce identical provider requests.
func (r ToolRegistry) Schemas() []ToolSchema {
	names := r.Names()
	s := make([]ToolSchema, 0, len(names))
	for _, name := range names {
		s = append(s, r[name].Schema())
	}
	return s
}

// Names returns the registered tool names in sorted order.
func (r ToolRegistry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
