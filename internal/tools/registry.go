// Package tools declares the document tools the add-in executes on the
// model's behalf. The backend never runs them; it only relays the calls.
package tools

import (
	"github.com/ChamsBouzaiene/crunched/internal/engine"
)

// Options selects optional tools.
type Options struct {
	WebSearch bool
}

// NewRegistry returns the tool set every spreadsheet expert sees.
func NewRegistry(opts Options) engine.ToolRegistry {
	reg := make(engine.ToolRegistry)
	reg.Register(NewReadRangeTool())
	reg.Register(NewWriteRangeTool())
	reg.Register(NewWorkbookInfoTool())
	if opts.WebSearch {
		reg.Register(NewWebSearchTool())
	}
	return reg
}
