package orchestrator

import (
	"errors"
	"fmt"

	"github.com/ChamsBouzaiene/crunched/internal/prompts"
	"github.com/ChamsBouzaiene/crunched/internal/session"
)

// ErrUnknownExpert is returned when a caller names an expert that doesn't exist.
var ErrUnknownExpert = errors.New("unknown expert")

// Expert names.
const (
	ExpertGeneral     = "general"
	ExpertBondPricing = "bond_pricing"
)

// expertFor routes a classification to an expert. Anything other than bond
// pricing, including a missing classification, goes to the general expert.
func expertFor(c *session.Classification) string {
	if c != nil && c.TaskType == session.TaskBondPricing {
		return ExpertBondPricing
	}
	return ExpertGeneral
}

// systemPrompt resolves the expert's prompt on every call so on-disk
// overrides apply to the next request.
func (o *Orchestrator) systemPrompt(expert string) (string, error) {
	switch expert {
	case ExpertGeneral:
		return o.prompts.Resolve(prompts.IDGeneral)
	case ExpertBondPricing:
		source := prompts.RateSourceAssumed
		if o.webSearch {
			source = prompts.RateSourceWebSearch
		}
		b, err := prompts.NewPromptBuilder(o.prompts, prompts.IDBondPricing)
		if err != nil {
			return "", err
		}
		return b.SetVariable("rate_source", source).Build()
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownExpert, expert)
}
