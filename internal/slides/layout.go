package slides

import "fmt"

// Default slide geometry in points (16:9).
const (
	DefaultSlideWidth  = 960.0
	DefaultSlideHeight = 540.0
	SlideMargin        = 36.0
)

// Placement is the target geometry of one shape.
type Placement struct {
	ID     string  `json:"id"`
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Layout computes target positions for the shapes named in a.Order on a
// width x height slide. Distributions space shapes evenly between the
// margins in order; centerings move shapes along one axis only. Sizes are
// never changed.
func Layout(a Arrangement, shapes []LabeledShape, width, height float64) ([]Placement, error) {
	if width <= 0 {
		width = DefaultSlideWidth
	}
	if height <= 0 {
		height = DefaultSlideHeight
	}

	byID := make(map[string]LabeledShape, len(shapes))
	for _, sh := range shapes {
		byID[sh.ID] = sh
	}
	ordered := make([]LabeledShape, 0, len(a.Order))
	for _, id := range a.Order {
		sh, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("layout: unknown shape %q", id)
		}
		ordered = append(ordered, sh)
	}
	if len(ordered) == 0 {
		return nil, ErrNoShapes
	}

	out := make([]Placement, len(ordered))
	for i, sh := range ordered {
		out[i] = Placement{ID: sh.ID, Left: sh.Left, Top: sh.Top, Width: sh.Width, Height: sh.Height}
	}

	switch a.Alignment {
	case HorizontalDistribute:
		lefts := distribute(widths(ordered), width)
		for i := range out {
			out[i].Left = lefts[i]
			out[i].Top = alignVertical(a.VerticalPosition, out[i].Height, height)
		}
	case VerticalDistribute:
		tops := distribute(heights(ordered), height)
		for i := range out {
			out[i].Top = tops[i]
			out[i].Left = alignHorizontal(a.HorizontalPosition, out[i].Width, width)
		}
	case HorizontalCenter:
		cx := centerLine(string(a.HorizontalPosition), maxOf(widths(ordered)), width)
		for i := range out {
			out[i].Left = cx - out[i].Width/2
		}
	case VerticalCenter:
		cy := centerLine(verticalSide(a.VerticalPosition), maxOf(heights(ordered)), height)
		for i := range out {
			out[i].Top = cy - out[i].Height/2
		}
	default:
		return nil, fmt.Errorf("layout: unknown alignment %q", a.Alignment)
	}
	return out, nil
}

// distribute returns start offsets that spread sizes evenly between the
// margins of a span. A single shape is centered.
func distribute(sizes []float64, span float64) []float64 {
	out := make([]float64, len(sizes))
	if len(sizes) == 1 {
		out[0] = (span - sizes[0]) / 2
		return out
	}
	total := 0.0
	for _, s := range sizes {
		total += s
	}
	gap := (span - 2*SlideMargin - total) / float64(len(sizes)-1)
	pos := SlideMargin
	for i, s := range sizes {
		out[i] = pos
		pos += s + gap
	}
	return out
}

func alignVertical(p VerticalPosition, size, span float64) float64 {
	switch p {
	case Top:
		return SlideMargin
	case Bottom:
		return span - SlideMargin - size
	}
	return (span - size) / 2
}

func alignHorizontal(p HorizontalPosition, size, span float64) float64 {
	switch p {
	case Left:
		return SlideMargin
	case Right:
		return span - SlideMargin - size
	}
	return (span - size) / 2
}

func verticalSide(p VerticalPosition) string {
	switch p {
	case Top:
		return "start"
	case Bottom:
		return "end"
	}
	return ""
}

// centerLine places the shared center line so the widest shape touches the
// margin on the requested side.
func centerLine(side string, largest, span float64) float64 {
	switch side {
	case "left", "start":
		return SlideMargin + largest/2
	case "right", "end":
		return span - SlideMargin - largest/2
	}
	return span / 2
}

func widths(shapes []LabeledShape) []float64 {
	out := make([]float64, len(shapes))
	for i, sh := range shapes {
		out[i] = sh.Width
	}
	return out
}

func heights(shapes []LabeledShape) []float64 {
	out := make([]float64, len(shapes))
	for i, sh := range shapes {
		out[i] = sh.Height
	}
	return out
}

func maxOf(vals []float64) float64 {
	m := 0.0
	for _, v := range vals {
		if v > m {
			m = v
		}
	}
	return m
}
