package tools

import (
	"fmt"
	"strconv"
	"strings"
)

// Range is a parsed A1 reference. A zero row or column bound means the range
// covers the whole column or row respectively.
type Range struct {
	Sheet    string
	FirstCol int // 1-based, 0 when the reference is whole rows
	FirstRow int // 1-based, 0 when the reference is whole columns
	LastCol  int
	LastRow  int
}

// ParseRange parses references like "B2", "A1:C3", "Sheet1!A1:D20",
// "'Q1 Data'!$A$1", "A:C" and "2:5".
func ParseRange(ref string) (Range, error) {
	var r Range
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return r, fmt.Errorf("empty range")
	}

	if i := strings.LastIndex(ref, "!"); i != -1 {
		r.Sheet = strings.Trim(ref[:i], "'")
		ref = ref[i+1:]
	}

	first, last, ok := strings.Cut(ref, ":")
	if !ok {
		last = first
	}

	c1, r1, err := parseCell(first)
	if err != nil {
		return r, fmt.Errorf("invalid range %q: %w", ref, err)
	}
	c2, r2, err := parseCell(last)
	if err != nil {
		return r, fmt.Errorf("invalid range %q: %w", ref, err)
	}
	if (c1 == 0) != (c2 == 0) || (r1 == 0) != (r2 == 0) {
		return r, fmt.Errorf("invalid range %q: mixed cell and whole-line bounds", ref)
	}
	if c1 == 0 && r1 == 0 {
		return r, fmt.Errorf("invalid range %q", ref)
	}

	r.FirstCol, r.LastCol = order(c1, c2)
	r.FirstRow, r.LastRow = order(r1, r2)
	return r, nil
}

// Dims returns the number of rows and columns covered. A zero result means
// that dimension is unbounded.
func (r Range) Dims() (rows, cols int) {
	if r.FirstRow > 0 {
		rows = r.LastRow - r.FirstRow + 1
	}
	if r.FirstCol > 0 {
		cols = r.LastCol - r.FirstCol + 1
	}
	return rows, cols
}

// parseCell splits "$AB$12" into column 28 and row 12. Either part may be
// absent ("AB" or "12") and is then reported as 0.
func parseCell(s string) (col, row int, err error) {
	s = strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), "$", "")
	if s == "" {
		return 0, 0, fmt.Errorf("empty cell reference")
	}

	i := 0
	for i < len(s) && s[i] >= 'A' && s[i] <= 'Z' {
		col = col*26 + int(s[i]-'A'+1)
		i++
	}
	if i > 3 {
		return 0, 0, fmt.Errorf("column %q out of range", s[:i])
	}
	if i < len(s) {
		row, err = strconv.Atoi(s[i:])
		if err != nil || row < 1 {
			return 0, 0, fmt.Errorf("bad row in %q", s)
		}
	}
	return col, row, nil
}

func order(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}
