package tools

import "github.com/ChamsBouzaiene/crunched/internal/engine"

// Tool names as seen by the model and the add-in.
const (
	ReadRange       = "read_range"
	WriteRange      = "write_range"
	GetWorkbookInfo = "get_workbook_info"
	WebSearch       = "web_search"
)

// NewReadRangeTool declares read_range.
func NewReadRangeTool() engine.Tool {
	return engine.Tool{
		Name:        ReadRange,
		Description: "Read values from a range of cells in the active Excel worksheet. Returns a 2D array of cell values.",
		SchemaJSON:  `{"type":"object","properties":{"range":{"type":"string","minLength":1,"description":"The Excel range to read, e.g. 'A1', 'A1:B10', 'A:A' for entire column"}},"required":["range"]}`,
		Metadata:    engine.ToolMetadata{Version: "1.0.0", Category: "document", Tags: []string{"read-only"}},
	}
}

// NewWriteRangeTool declares write_range.
func NewWriteRangeTool() engine.Tool {
	return engine.Tool{
		Name:        WriteRange,
		Description: "Write values to a range of cells in the active Excel worksheet. Values should be a 2D array matching the range dimensions. Computed cells should be Excel formulas such as \"=SUM(A1:A10)\".",
		SchemaJSON:  `{"type":"object","properties":{"range":{"type":"string","minLength":1,"description":"The Excel range to write to, e.g. 'A1', 'B2:C3'"},"values":{"type":"array","description":"2D array of values to write. Each inner array is a row. E.g. [['Hello']] for single cell, [['A','B'],['C','D']] for 2x2","items":{"type":"array","items":{}}}},"required":["range","values"]}`,
		Metadata:    engine.ToolMetadata{Version: "1.0.0", Category: "document"},
	}
}

// NewWorkbookInfoTool declares get_workbook_info.
func NewWorkbookInfoTool() engine.Tool {
	return engine.Tool{
		Name:        GetWorkbookInfo,
		Description: "Get information about the workbook structure. Returns sheet names and the used range for each sheet (e.g., 'A1:Z100'). Use this to understand what data exists before reading specific ranges.",
		SchemaJSON:  `{"type":"object","properties":{},"required":[]}`,
		Metadata:    engine.ToolMetadata{Version: "1.0.0", Category: "document", Tags: []string{"read-only"}},
	}
}

// NewWebSearchTool declares web_search. The add-in performs the search.
func NewWebSearchTool() engine.Tool {
	return engine.Tool{
		Name:        WebSearch,
		Description: "Search the web for current market data, e.g. the current US Treasury yield for a given maturity. Returns a short text summary of the results.",
		SchemaJSON:  `{"type":"object","properties":{"query":{"type":"string","description":"What to search for"}},"required":[]}`,
		Metadata:    engine.ToolMetadata{Version: "1.0.0", Category: "search", Tags: []string{"read-only"}},
	}
}
