// Package slides labels the shapes on a PowerPoint slide, arranges them from
// natural-language instructions and writes presenter scripts.
package slides

import "errors"

// ErrNoShapes is returned when an arrangement has no shapes to work with.
var ErrNoShapes = errors.New("no labeled shapes provided")

// Shape is a shape's geometry in points, as PowerPoint reports it.
type Shape struct {
	ID     string  `json:"id"`
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// LabeledShape is a Shape with a model-assigned label. Geometry always comes
// from the input shape.
type LabeledShape struct {
	ID          string  `json:"id"`
	Label       string  `json:"label"`
	Description string  `json:"description"`
	Left        float64 `json:"left"`
	Top         float64 `json:"top"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
}

// Alignment is the arrangement operation to apply.
type Alignment string

const (
	HorizontalDistribute Alignment = "horizontal_distribute"
	VerticalDistribute   Alignment = "vertical_distribute"
	HorizontalCenter     Alignment = "horizontal_center"
	VerticalCenter       Alignment = "vertical_center"
)

type VerticalPosition string

const (
	Top    VerticalPosition = "top"
	Middle VerticalPosition = "middle"
	Bottom VerticalPosition = "bottom"
)

type HorizontalPosition string

const (
	Left   HorizontalPosition = "left"
	Center HorizontalPosition = "center"
	Right  HorizontalPosition = "right"
)

// Arrangement is the arranger's decision. Order holds known shape ids only.
type Arrangement struct {
	Order              []string           `json:"order"`
	Alignment          Alignment          `json:"alignment"`
	VerticalPosition   VerticalPosition   `json:"vertical_position,omitempty"`
	HorizontalPosition HorizontalPosition `json:"horizontal_position,omitempty"`
	Explanation        string             `json:"explanation"`
}
