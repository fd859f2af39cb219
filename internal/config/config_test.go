package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	t.Setenv("CRUNCHED_CONFIG", path)
	return path
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	t.Setenv("LLM_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "sk-env")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.App.Port)
	assert.Equal(t, "8001", cfg.App.SlidesPort)
	assert.Equal(t, 10*1024*1024, cfg.App.MaxBodySize)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "sk-env", cfg.LLM.APIKey)
	assert.Equal(t, "memory", cfg.Session.Backend)
	assert.Equal(t, time.Hour, cfg.Session.TTL)
	assert.False(t, cfg.IsProduction())
}

func TestLoadFromEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("OPENAI_MODEL", "gpt-test")
	t.Setenv("OPENAI_BASE_URL", "http://localhost:9999/v1")
	t.Setenv("MAX_BODY_SIZE", "2MB")
	t.Setenv("LLM_TIMEOUT", "15")
	t.Setenv("SESSION_BACKEND", "redis")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("ENABLE_WEB_SEARCH", "true")
	t.Setenv("GO_ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "sk-openai", cfg.LLM.APIKey)
	assert.Equal(t, "gpt-test", cfg.LLM.Model)
	assert.Equal(t, "http://localhost:9999/v1", cfg.LLM.BaseURL)
	assert.Equal(t, 2*1024*1024, cfg.App.MaxBodySize)
	assert.Equal(t, 15*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "redis", cfg.Session.Backend)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.True(t, cfg.LLM.EnableWebSearch)
	assert.True(t, cfg.IsProduction())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name, key, value, want string
	}{
		{"backend", "SESSION_BACKEND", "postgres", "SESSION_BACKEND"},
		{"structured mode", "STRUCTURED_OUTPUT_MODE", "xml", "STRUCTURED_OUTPUT_MODE"},
		{"body size", "MAX_BODY_SIZE", "lots", "MAX_BODY_SIZE"},
		{"timeout", "LLM_TIMEOUT", "soon", "LLM_TIMEOUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestFileOverridesEnvironment(t *testing.T) {
	path := isolate(t)
	t.Setenv("LLM_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "sk-env")
	t.Setenv("GROQ_MODEL", "llama-env")

	require.NoError(t, NewManagerAt(path).Save(&FileConfig{LLMProvider: "groq", APIKey: "gsk-file"}))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "groq", cfg.LLM.Provider)
	assert.Equal(t, "gsk-file", cfg.LLM.APIKey)
	assert.Equal(t, "llama-env", cfg.LLM.Model, "empty file fields keep the environment value")
}

func TestManager(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	m := NewManagerAt(path)

	assert.False(t, m.Exists())
	empty, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, &FileConfig{}, empty)

	want := &FileConfig{LLMProvider: "openai", APIKey: "k", Model: "m", BaseURL: "http://x"}
	require.NoError(t, m.Save(want))
	assert.True(t, m.Exists())

	got, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestManagerUpdateAndDescribe(t *testing.T) {
	m := NewManagerAt(filepath.Join(t.TempDir(), "config.json"))

	desc, err := m.Describe()
	require.NoError(t, err)
	assert.Contains(t, desc, "(not created)")

	_, err = m.Update(FileConfig{LLMProvider: "OpenAI", APIKey: "sk-1234567890abcd"})
	require.NoError(t, err)
	got, err := m.Update(FileConfig{Model: "gpt-4o"})
	require.NoError(t, err)
	assert.Equal(t, &FileConfig{LLMProvider: "openai", APIKey: "sk-1234567890abcd", Model: "gpt-4o"}, got)

	desc, err = m.Describe()
	require.NoError(t, err)
	assert.Contains(t, desc, "llm_provider: openai")
	assert.Contains(t, desc, "sk-1*********abcd")
	assert.NotContains(t, desc, "567890")
}

func TestManagerFromEnv(t *testing.T) {
	path := isolate(t)
	m, err := ManagerFromEnv()
	require.NoError(t, err)
	assert.Equal(t, path, m.Path())
}
