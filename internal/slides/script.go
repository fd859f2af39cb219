package slides

import (
	"context"
	"fmt"
	"strings"

	"github.com/ChamsBouzaiene/crunched/internal/engine"
	"github.com/ChamsBouzaiene/crunched/internal/prompts"
)

// GenerateScript writes what the presenter should say for the slide.
func (s *Service) GenerateScript(ctx context.Context, image, presenterContext string) (string, error) {
	if strings.TrimSpace(presenterContext) == "" {
		presenterContext = "No additional context provided."
	}
	text := fmt.Sprintf("Please write a presentation script for this slide.\n\nContext from the presenter:\n%s\n\nWrite the script the presenter should say when showing this slide.", presenterContext)
	return s.vision(ctx, "slides:script", prompts.IDScriptGenerator, image, text)
}

// Describe answers a free-text question about the slide.
func (s *Service) Describe(ctx context.Context, image, userContext string) (string, error) {
	text := "Describe this slide."
	if c := strings.TrimSpace(userContext); c != "" {
		text += "\n\nContext from the user:\n" + c
	}
	return s.vision(ctx, "slides:describe", prompts.IDDescribe, image, text)
}

func (s *Service) vision(ctx context.Context, op, promptID, image, text string) (string, error) {
	system, err := s.prompts.Resolve(promptID)
	if err != nil {
		return "", err
	}
	out, err := s.writer.Run(ctx, op, system, engine.TurnInput{
		Text:   text,
		Images: []engine.Image{slideImage(image)},
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return strings.TrimSpace(out.Text), nil
}
