package tools

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ChamsBouzaiene/crunched/internal/engine"
)

// CheckCall inspects a tool call before it is relayed to the add-in. Only
// write_range has content rules; every other call passes.
func CheckCall(call engine.ToolCall) error {
	if call.Name != WriteRange {
		return nil
	}
	return CheckWriteRange(call.Args)
}

// CheckWriteRange reports problems with write_range arguments: values whose
// shape doesn't match the target range, and numbers written as literals
// instead of formulas.
func CheckWriteRange(args map[string]any) error {
	ref, _ := args["range"].(string)
	r, err := ParseRange(ref)
	if err != nil {
		return err
	}

	rows, ok := args["values"].([]any)
	if !ok {
		return fmt.Errorf("values must be a 2D array")
	}

	var problems []string
	wantRows, wantCols := r.Dims()
	if wantRows > 0 && len(rows) != wantRows {
		problems = append(problems, fmt.Sprintf("range %s has %d rows but %d were given", ref, wantRows, len(rows)))
	}

	var literals []string
	for i, row := range rows {
		cells, ok := row.([]any)
		if !ok {
			problems = append(problems, fmt.Sprintf("row %d is not an array", i+1))
			continue
		}
		if wantCols > 0 && len(cells) != wantCols {
			problems = append(problems, fmt.Sprintf("row %d has %d cells, range %s has %d columns", i+1, len(cells), ref, wantCols))
		}
		for j, cell := range cells {
			if isNumericLiteral(cell) {
				literals = append(literals, cellName(r, i, j))
			}
		}
	}
	if len(literals) > 0 {
		problems = append(problems, "numeric literals instead of formulas at "+strings.Join(literals, ", "))
	}

	if len(problems) == 0 {
		return nil
	}
	return errors.New(strings.Join(problems, "; "))
}

func isNumericLiteral(v any) bool {
	switch t := v.(type) {
	case float64, float32, int, int64:
		return true
	case string:
		s := strings.TrimSpace(t)
		if s == "" || strings.HasPrefix(s, "=") {
			return false
		}
		_, err := strconv.ParseFloat(s, 64)
		return err == nil
	}
	return false
}

func cellName(r Range, row, col int) string {
	if r.FirstCol == 0 || r.FirstRow == 0 {
		return fmt.Sprintf("R%dC%d", row+1, col+1)
	}
	return columnName(r.FirstCol+col) + strconv.Itoa(r.FirstRow+row)
}

func columnName(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}
