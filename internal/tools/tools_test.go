package tools

import (
	"strings"
	"testing"
)

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry(Options{})
	got := strings.Join(reg.Names(), ",")
	if got != "get_workbook_info,read_range,write_range" {
		t.Errorf("Names() = %s", got)
	}

	reg = NewRegistry(Options{WebSearch: true})
	if _, ok := reg[WebSearch]; !ok {
		t.Error("web_search must be registered when enabled")
	}
}

func TestToolSchemasValidate(t *testing.T) {
	reg := NewRegistry(Options{WebSearch: true})

	tests := []struct {
		tool    string
		args    map[string]any
		wantErr bool
	}{
		{ReadRange, map[string]any{"range": "A1:B2"}, false},
		{ReadRange, map[string]any{}, true},
		{ReadRange, map[string]any{"range": ""}, true},
		{WriteRange, map[string]any{"range": "A1", "values": []any{[]any{"=1+1"}}}, false},
		{WriteRange, map[string]any{"range": "A1", "values": []any{"flat"}}, true},
		{GetWorkbookInfo, nil, false},
		{WebSearch, map[string]any{"query": "10y treasury"}, false},
	}
	for _, tt := range tests {
		err := reg[tt.tool].ValidateArgs(tt.args)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s(%v) error = %v, wantErr %v", tt.tool, tt.args, err, tt.wantErr)
		}
	}
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		in         string
		sheet      string
		rows, cols int
		wantErr    bool
	}{
		{in: "A1", rows: 1, cols: 1},
		{in: "B2:C3", rows: 2, cols: 2},
		{in: "C3:B2", rows: 2, cols: 2},
		{in: "Sheet1!A1:D20", sheet: "Sheet1", rows: 20, cols: 4},
		{in: "'Q1 Data'!$A$1:$B$5", sheet: "Q1 Data", rows: 5, cols: 2},
		{in: "A:C", rows: 0, cols: 3},
		{in: "2:5", rows: 4, cols: 0},
		{in: "AA1:AB1", rows: 1, cols: 2},
		{in: "", wantErr: true},
		{in: "A1:B", wantErr: true},
		{in: "1A", wantErr: true},
		{in: "A0", wantErr: true},
		{in: "ABCD1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			r, err := ParseRange(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRange(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			rows, cols := r.Dims()
			if r.Sheet != tt.sheet || rows != tt.rows || cols != tt.cols {
				t.Errorf("ParseRange(%q) = sheet %q %dx%d, want sheet %q %dx%d", tt.in, r.Sheet, rows, cols, tt.sheet, tt.rows, tt.cols)
			}
		})
	}
}

func TestCheckWriteRange(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]any
		wantErr string
	}{
		{
			name: "single formula",
			args: map[string]any{"range": "C5", "values": []any{[]any{"=B2*(1+B3)^-B4"}}},
		},
		{
			name: "labels and formulas",
			args: map[string]any{"range": "A1:B2", "values": []any{
				[]any{"Label", "Value"},
				[]any{"Total:", "=SUM(B1:B10)"},
			}},
		},
		{
			name:    "row count mismatch",
			args:    map[string]any{"range": "A1:A3", "values": []any{[]any{"=1"}}},
			wantErr: "has 3 rows but 1 were given",
		},
		{
			name:    "column count mismatch",
			args:    map[string]any{"range": "A1:B1", "values": []any{[]any{"=1"}}},
			wantErr: "row 1 has 1 cells",
		},
		{
			name:    "literal number",
			args:    map[string]any{"range": "B2:B3", "values": []any{[]any{"=A1"}, []any{1234.5}}},
			wantErr: "numeric literals instead of formulas at B3",
		},
		{
			name:    "numeric string",
			args:    map[string]any{"range": "AA10", "values": []any{[]any{"0.05"}}},
			wantErr: "at AA10",
		},
		{
			name: "whole column skips shape checks",
			args: map[string]any{"range": "A:A", "values": []any{[]any{"x"}, []any{"y"}}},
		},
		{
			name:    "bad range",
			args:    map[string]any{"range": "??", "values": []any{}},
			wantErr: "invalid range",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckWriteRange(tt.args)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
