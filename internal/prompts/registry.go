package prompts

import (
	"fmt"
	"sort"
	"sync"
)

// PromptRegistry manages versioned prompts. An override, when set, shadows
// every registered version of its prompt.
type PromptRegistry struct {
	mu        sync.RWMutex
	prompts   map[string]map[PromptVersion]*Prompt // ID -> Version -> Prompt
	overrides map[string]string
}

var defaultRegistry *PromptRegistry
var defaultRegistryOnce sync.Once

// DefaultRegistry returns the global registry holding the built-in prompts.
func DefaultRegistry() *PromptRegistry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewBuiltinRegistry()
	})
	return defaultRegistry
}

// NewPromptRegistry creates an empty prompt registry.
func NewPromptRegistry() *PromptRegistry {
	return &PromptRegistry{
		prompts:   make(map[string]map[PromptVersion]*Prompt),
		overrides: make(map[string]string),
	}
}

// NewBuiltinRegistry creates a registry preloaded with the built-in prompts.
func NewBuiltinRegistry() *PromptRegistry {
	r := NewPromptRegistry()
	for _, p := range excelPrompts() {
		r.Register(p)
	}
	for _, p := range slidePrompts() {
		r.Register(p)
	}
	return r
}

// Register registers a prompt in the registry.
func (r *PromptRegistry) Register(p *Prompt) {
	if p == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.prompts[p.ID] == nil {
		r.prompts[p.ID] = make(map[PromptVersion]*Prompt)
	}
	r.prompts[p.ID][p.Version] = p
}

// Get retrieves a specific version of a prompt.
func (r *PromptRegistry) Get(id string, version PromptVersion) (*Prompt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	versions, ok := r.prompts[id]
	if !ok {
		return nil, fmt.Errorf("prompt not found: %s", id)
	}

	prompt, ok := versions[version]
	if !ok {
		return nil, fmt.Errorf("prompt %s version %s not found", id, version)
	}

	return prompt, nil
}

// GetLatest retrieves the latest (non-deprecated) version of a prompt.
// If all versions are deprecated, returns the most recent version.
func (r *PromptRegistry) GetLatest(id string) (*Prompt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latestLocked(id)
}

func (r *PromptRegistry) latestLocked(id string) (*Prompt, error) {
	versions, ok := r.prompts[id]
	if !ok {
		return nil, fmt.Errorf("prompt not found: %s", id)
	}

	var latest *Prompt
	for version, prompt := range versions {
		if prompt.Deprecated {
			continue
		}
		if latest == nil || version > latest.Version {
			latest = prompt
		}
	}
	if latest == nil {
		for version, prompt := range versions {
			if latest == nil || version > latest.Version {
				latest = prompt
			}
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("no versions found for prompt: %s", id)
	}
	return latest, nil
}

// Resolve returns the text currently in effect for id: the override if one
// is set, else the latest registered version.
func (r *PromptRegistry) Resolve(id string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if text, ok := r.overrides[id]; ok {
		return text, nil
	}
	p, err := r.latestLocked(id)
	if err != nil {
		return "", err
	}
	return p.Content, nil
}

// MustResolve is Resolve for built-in ids. It panics on an unknown id.
func (r *PromptRegistry) MustResolve(id string) string {
	text, err := r.Resolve(id)
	if err != nil {
		panic(err)
	}
	return text
}

// SetOverride replaces the effective text of a registered prompt.
func (r *PromptRegistry) SetOverride(id, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.prompts[id]; !ok {
		return fmt.Errorf("prompt not found: %s", id)
	}
	r.overrides[id] = content
	return nil
}

// ClearOverride restores the registered text of a prompt.
func (r *PromptRegistry) ClearOverride(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.overrides, id)
}

// List returns all prompt IDs in the registry, sorted.
func (r *PromptRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.prompts))
	for id := range r.prompts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
