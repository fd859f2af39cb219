// Package config loads service settings from the environment, an optional
// .env file and an optional JSON file.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	units "github.com/docker/go-units"
	"github.com/joho/godotenv"
)

type Config struct {
	App     AppConfig
	LLM     LLMConfig
	Session SessionConfig
}

type AppConfig struct {
	Port               string
	SlidesPort         string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	MaxBodySize        int
	PromptsDir         string
}

type LLMConfig struct {
	Provider         string
	APIKey           string
	Model            string
	BaseURL          string
	Timeout          time.Duration
	MaxTokens        int
	StructuredOutput string // "", "tool" or "json"
	EnableWebSearch  bool
}

type SessionConfig struct {
	Backend    string // memory, sqlite or redis
	TTL        time.Duration
	SQLitePath string
	RedisURL   string
}

// IsProduction reports whether GO_ENV selects production behavior.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.App.Environment, "production")
}

// Load reads the configuration. Values from the JSON file named by
// CRUNCHED_CONFIG (or the user config dir) override the provider settings
// found in the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	maxBody, err := units.RAMInBytes(getEnv("MAX_BODY_SIZE", "10MB"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_BODY_SIZE: %w", err)
	}
	llmTimeout, err := getEnvAsDuration("LLM_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}
	ttl, err := getEnvAsDuration("SESSION_TTL", time.Hour)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			SlidesPort:         getEnv("SLIDES_PORT", "8001"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "crunched.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			MaxBodySize:        int(maxBody),
			PromptsDir:         getEnv("PROMPTS_DIR", ""),
		},
		LLM: LLMConfig{
			Provider:         strings.ToLower(getEnv("LLM_PROVIDER", "anthropic")),
			Timeout:          llmTimeout,
			MaxTokens:        getEnvAsInt("LLM_MAX_TOKENS", 4096),
			StructuredOutput: getEnv("STRUCTURED_OUTPUT_MODE", ""),
			EnableWebSearch:  getEnvAsBool("ENABLE_WEB_SEARCH", false),
		},
		Session: SessionConfig{
			Backend:    strings.ToLower(getEnv("SESSION_BACKEND", "memory")),
			TTL:        ttl,
			SQLitePath: getEnv("SQLITE_PATH", "sessions.db"),
			RedisURL:   getEnv("REDIS_URL", "redis://localhost:6379"),
		},
	}

	mgr, err := ManagerFromEnv()
	if err != nil {
		return nil, err
	}
	file, err := mgr.Load()
	if err != nil {
		return nil, err
	}
	if file.LLMProvider != "" {
		cfg.LLM.Provider = strings.ToLower(file.LLMProvider)
	}

	prefix := strings.ToUpper(cfg.LLM.Provider)
	cfg.LLM.APIKey = getEnv(prefix+"_API_KEY", "")
	cfg.LLM.Model = getEnv(prefix+"_MODEL", "")
	cfg.LLM.BaseURL = getEnv(prefix+"_BASE_URL", "")
	file.applyTo(&cfg.LLM)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.Session.Backend {
	case "memory", "sqlite", "redis":
	default:
		return fmt.Errorf("invalid SESSION_BACKEND %q (want memory, sqlite or redis)", c.Session.Backend)
	}
	switch strings.ToLower(c.LLM.StructuredOutput) {
	case "", "auto", "tool", "json":
	default:
		return fmt.Errorf("invalid STRUCTURED_OUTPUT_MODE %q (want tool or json)", c.LLM.StructuredOutput)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	return nil
}

// ManagerFromEnv returns the manager for CRUNCHED_CONFIG, or for the
// default location when it is unset.
func ManagerFromEnv() (*Manager, error) {
	if path := os.Getenv("CRUNCHED_CONFIG"); path != "" {
		return NewManagerAt(path), nil
	}
	return NewManager()
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(strValue)
	if err != nil {
		// bare numbers are seconds
		if secs, aerr := strconv.Atoi(strValue); aerr == nil {
			return time.Duration(secs) * time.Second, nil
		}
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
