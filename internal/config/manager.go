package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileConfig holds provider settings persisted in a JSON file. Non-empty
// fields take precedence over the environment.
type FileConfig struct {
	LLMProvider string `json:"llm_provider,omitempty"` // anthropic, openai, ...
	APIKey      string `json:"api_key,omitempty"`      // The API key for the selected provider
	Model       string `json:"model,omitempty"`        // Default model name
	BaseURL     string `json:"base_url,omitempty"`     // Optional override for API base URL
}

func (f *FileConfig) applyTo(llm *LLMConfig) {
	if f.APIKey != "" {
		llm.APIKey = f.APIKey
	}
	if f.Model != "" {
		llm.Model = f.Model
	}
	if f.BaseURL != "" {
		llm.BaseURL = f.BaseURL
	}
}

// Manager handles loading and saving the configuration file.
type Manager struct {
	path string
}

// NewManager creates a manager for config.json in the user config dir.
func NewManager() (*Manager, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user config dir: %w", err)
	}
	return &Manager{path: filepath.Join(configDir, "crunched", "config.json")}, nil
}

// NewManagerAt creates a manager for an explicit file path.
func NewManagerAt(path string) *Manager {
	return &Manager{path: path}
}

// Path returns the absolute path to the config file.
func (m *Manager) Path() string {
	return m.path
}

// Load reads the configuration from disk.
// If the file does not exist, it returns an empty FileConfig and no error.
func (m *Manager) Load() (*FileConfig, error) {
	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		return &FileConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config json: %w", err)
	}

	return &cfg, nil
}

// Save writes the configuration to disk with restricted permissions (0600).
func (m *Manager) Save(cfg *FileConfig) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// the file may hold an API key
	if err := os.WriteFile(m.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Exists checks if the configuration file has been created.
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.path)
	return !os.IsNotExist(err)
}

// Update merges the non-empty fields of patch into the stored file and saves
// it. The provider name is lower-cased.
func (m *Manager) Update(patch FileConfig) (*FileConfig, error) {
	cfg, err := m.Load()
	if err != nil {
		return nil, err
	}
	if patch.LLMProvider != "" {
		cfg.LLMProvider = strings.ToLower(patch.LLMProvider)
	}
	if patch.APIKey != "" {
		cfg.APIKey = patch.APIKey
	}
	if patch.Model != "" {
		cfg.Model = patch.Model
	}
	if patch.BaseURL != "" {
		cfg.BaseURL = patch.BaseURL
	}
	if err := m.Save(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Describe renders the stored file for display, with the API key masked.
func (m *Manager) Describe() (string, error) {
	if !m.Exists() {
		return fmt.Sprintf("%s (not created)", m.path), nil
	}
	cfg, err := m.Load()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", m.path)
	fmt.Fprintf(&b, "  llm_provider: %s\n", cfg.LLMProvider)
	fmt.Fprintf(&b, "  model:        %s\n", cfg.Model)
	fmt.Fprintf(&b, "  base_url:     %s\n", cfg.BaseURL)
	fmt.Fprintf(&b, "  api_key:      %s\n", maskKey(cfg.APIKey))
	return b.String(), nil
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}
