package prompts

import (
	"fmt"
	"strings"
)

// PromptBuilder helps compose prompts from fragments and variables.
type PromptBuilder struct {
	fragments []string
	variables map[string]string
}

// NewPromptBuilder starts from the text currently in effect for id.
func NewPromptBuilder(registry *PromptRegistry, id string) (*PromptBuilder, error) {
	base, err := registry.Resolve(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get base prompt: %w", err)
	}

	return &PromptBuilder{
		fragments: []string{base},
		variables: make(map[string]string),
	}, nil
}

// AddFragment appends a fragment to the prompt. Empty fragments are ignored.
func (b *PromptBuilder) AddFragment(text string) *PromptBuilder {
	if strings.TrimSpace(text) != "" {
		b.fragments = append(b.fragments, text)
	}
	return b
}

// SetVariable sets a variable for template substitution.
func (b *PromptBuilder) SetVariable(key, value string) *PromptBuilder {
	b.variables[key] = value
	return b
}

// Build constructs the final prompt string. A placeholder left without a
// value is an error.
func (b *PromptBuilder) Build() (string, error) {
	result := strings.Join(b.fragments, "\n\n")

	// simple {{key}} substitution
	for key, value := range b.variables {
		result = strings.ReplaceAll(result, "{{"+key+"}}", value)
	}

	if i := strings.Index(result, "{{"); i != -1 {
		if j := strings.Index(result[i:], "}}"); j != -1 {
			return "", fmt.Errorf("unresolved prompt variable %s", result[i:i+j+2])
		}
	}

	return result, nil
}
