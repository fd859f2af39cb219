package slides

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ChamsBouzaiene/crunched/internal/engine"
	"github.com/ChamsBouzaiene/crunched/internal/prompts"
)

const (
	labelMaxTokens   = 1024
	arrangeMaxTokens = 512
	writerMaxTokens  = 1024
)

// Options configures a Service.
type Options struct {
	LLM            engine.LLMClient
	Model          string
	Prompts        *prompts.PromptRegistry
	StructuredMode engine.StructuredMode
	SessionTTL     time.Duration
	Logger         *zap.Logger
}

// Service implements the slide operations.
type Service struct {
	prompts  *prompts.PromptRegistry
	labeler  *engine.StructuredCaller
	arranger *engine.StructuredCaller
	writer   *engine.Loop
	shapes   *ShapeStore
	logger   *zap.Logger
}

// NewService builds a Service.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Prompts == nil {
		opts.Prompts = prompts.DefaultRegistry()
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = time.Hour
	}
	hooks := engine.Hooks{engine.ZapHook{L: logger}}
	caller := func(maxTokens int) *engine.StructuredCaller {
		return &engine.StructuredCaller{
			LLM:             opts.LLM,
			Model:           opts.Model,
			Mode:            opts.StructuredMode,
			Policy:          engine.DefaultStructuredPolicy(),
			MaxOutputTokens: maxTokens,
			Hooks:           hooks,
		}
	}

	return &Service{
		prompts:  opts.Prompts,
		labeler:  caller(labelMaxTokens),
		arranger: caller(arrangeMaxTokens),
		writer: &engine.Loop{
			LLM:             opts.LLM,
			Model:           opts.Model,
			Tools:           engine.ToolRegistry{},
			MaxOutputTokens: writerMaxTokens,
			Hooks:           hooks,
		},
		shapes: NewShapeStore(opts.SessionTTL),
		logger: logger,
	}
}

// Start labels the slide and remembers the result under sessionID.
func (s *Service) Start(ctx context.Context, sessionID, image string, shapes []Shape) ([]LabeledShape, error) {
	labeled, err := s.Analyze(ctx, image, shapes)
	if err != nil {
		return nil, err
	}
	s.shapes.Save(sessionID, labeled)
	s.logger.Info("slide session started", zap.String("session_id", sessionID), zap.Int("shapes", len(labeled)))
	return labeled, nil
}

// ShapesFor returns shapes when non-empty, otherwise the shapes stored for
// sessionID.
func (s *Service) ShapesFor(sessionID string, shapes []LabeledShape) []LabeledShape {
	if len(shapes) > 0 || sessionID == "" {
		return shapes
	}
	stored, _ := s.shapes.Get(sessionID)
	return stored
}

// Align arranges the shapes and computes their target positions.
func (s *Service) Align(ctx context.Context, message string, shapes []LabeledShape, width, height float64) (Arrangement, []Placement, error) {
	a, err := s.Arrange(ctx, message, shapes)
	if err != nil {
		return Arrangement{}, nil, err
	}
	placements, err := Layout(a, shapes, width, height)
	if err != nil {
		return Arrangement{}, nil, err
	}
	return a, placements, nil
}
