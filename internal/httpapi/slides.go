package httpapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ChamsBouzaiene/crunched/internal/slides"
)

type StartRequest struct {
	SessionID   string         `json:"session_id" validate:"required"`
	ImageBase64 string         `json:"image_base64" validate:"required"`
	Shapes      []slides.Shape `json:"shapes" validate:"required,min=1"`
}

type StartResponse struct {
	SessionID     string                `json:"session_id"`
	LabeledShapes []slides.LabeledShape `json:"labeled_shapes"`
}

type AnalyzeRequest struct {
	ImageBase64 string         `json:"image_base64" validate:"required"`
	Shapes      []slides.Shape `json:"shapes" validate:"required,min=1"`
}

type AnalyzeResponse struct {
	LabeledShapes []slides.LabeledShape `json:"labeled_shapes"`
}

type ArrangeRequest struct {
	UserMessage   string                `json:"user_message" validate:"required"`
	LabeledShapes []slides.LabeledShape `json:"labeled_shapes,omitempty"`
	SessionID     string                `json:"session_id,omitempty"`
}

type AlignRequest struct {
	ArrangeRequest
	SlideWidth  float64 `json:"slide_width,omitempty" validate:"gte=0"`
	SlideHeight float64 `json:"slide_height,omitempty" validate:"gte=0"`
}

type AlignResponse struct {
	slides.Arrangement
	Placements []slides.Placement `json:"placements"`
}

type ScriptRequest struct {
	ImageBase64 string `json:"image_base64" validate:"required"`
	Context     string `json:"context"`
}

type ScriptResponse struct {
	Script string `json:"script"`
}

type DescribeResponse struct {
	Description string `json:"description"`
}

type SlidesHandler struct {
	svc *slides.Service
}

func NewSlidesHandler(svc *slides.Service) *SlidesHandler {
	return &SlidesHandler{svc: svc}
}

func (h *SlidesHandler) RegisterRoutes(r fiber.Router) {
	r.Post("/start", h.Start)
	r.Post("/analyze", h.Analyze)
	r.Post("/arrange", h.Arrange)
	r.Post("/align", h.Align)
	r.Post("/generate-script", h.GenerateScript)
	r.Post("/describe", h.Describe)
}

func (h *SlidesHandler) Start(c *fiber.Ctx) error {
	var req StartRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := validateShapes(req.Shapes); err != nil {
		return err
	}

	labeled, err := h.svc.Start(c.UserContext(), req.SessionID, req.ImageBase64, req.Shapes)
	if err != nil {
		return err
	}
	return c.JSON(StartResponse{SessionID: req.SessionID, LabeledShapes: labeled})
}

func (h *SlidesHandler) Analyze(c *fiber.Ctx) error {
	var req AnalyzeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := validateShapes(req.Shapes); err != nil {
		return err
	}

	labeled, err := h.svc.Analyze(c.UserContext(), req.ImageBase64, req.Shapes)
	if err != nil {
		return err
	}
	return c.JSON(AnalyzeResponse{LabeledShapes: labeled})
}

func (h *SlidesHandler) Arrange(c *fiber.Ctx) error {
	var req ArrangeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	shapes := h.svc.ShapesFor(req.SessionID, req.LabeledShapes)
	a, err := h.svc.Arrange(c.UserContext(), req.UserMessage, shapes)
	if err != nil {
		return err
	}
	return c.JSON(a)
}

func (h *SlidesHandler) Align(c *fiber.Ctx) error {
	var req AlignRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	shapes := h.svc.ShapesFor(req.SessionID, req.LabeledShapes)
	a, placements, err := h.svc.Align(c.UserContext(), req.UserMessage, shapes, req.SlideWidth, req.SlideHeight)
	if err != nil {
		return err
	}
	return c.JSON(AlignResponse{Arrangement: a, Placements: placements})
}

func (h *SlidesHandler) GenerateScript(c *fiber.Ctx) error {
	var req ScriptRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	script, err := h.svc.GenerateScript(c.UserContext(), req.ImageBase64, req.Context)
	if err != nil {
		return err
	}
	return c.JSON(ScriptResponse{Script: script})
}

func (h *SlidesHandler) Describe(c *fiber.Ctx) error {
	var req ScriptRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	desc, err := h.svc.Describe(c.UserContext(), req.ImageBase64, req.Context)
	if err != nil {
		return err
	}
	return c.JSON(DescribeResponse{Description: desc})
}

func validateShapes(shapes []slides.Shape) error {
	for _, s := range shapes {
		if s.ID == "" {
			return invalid("every shape needs an id")
		}
	}
	return nil
}
