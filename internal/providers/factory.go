package providers

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/ChamsBouzaiene/crunched/internal/engine"
)

// ClientConfig carries what an adapter needs to reach its API.
type ClientConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type providerSpec struct {
	anthropic bool // Messages API; everything else speaks the OpenAI protocol
	model     string
	baseURL   string
	localKey  string // placeholder key for local servers that ignore auth
}

var providerSpecs = map[string]providerSpec{
	"anthropic": {anthropic: true, model: "claude-sonnet-4-20250514"},
	"openai":    {model: "gpt-4o-mini"},
	"kimi":      {model: "kimi-k2-250711", baseURL: "https://ark.ap-southeast.bytepluses.com/api/v3"},
	"gemini":    {model: "gemini-1.5-flash", baseURL: "https://generativelanguage.googleapis.com/v1beta/openai"},
	"deepseek":  {model: "deepseek-chat", baseURL: "https://api.deepseek.com/v1"},
	"groq":      {model: "llama-3.1-70b-versatile", baseURL: "https://api.groq.com/openai/v1"},
	"lmstudio":  {model: "local-model", baseURL: "http://localhost:1234/v1", localKey: "lm-studio"},
	"ollama":    {model: "llama3.1", baseURL: "http://localhost:11434/v1", localKey: "ollama"},
}

// Supported returns the known provider names, sorted.
func Supported() []string {
	names := make([]string, 0, len(providerSpecs))
	for name := range providerSpecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(provider string) string {
	return providerSpecs[strings.ToLower(provider)].model
}

// New creates the adapter for provider, filling model, base URL and (for
// local servers) API key defaults. It returns the client and the model name.
func New(provider string, cfg ClientConfig) (engine.LLMClient, string, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	spec, ok := providerSpecs[provider]
	if !ok {
		return nil, "", fmt.Errorf("unknown LLM_PROVIDER: %s (supported: %s)", provider, strings.Join(Supported(), ", "))
	}

	if cfg.Model == "" {
		cfg.Model = spec.model
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = spec.baseURL
	}
	if cfg.APIKey == "" && spec.localKey != "" {
		cfg.APIKey = spec.localKey
	}
	if cfg.APIKey == "" {
		return nil, "", fmt.Errorf("%s_API_KEY not set", strings.ToUpper(provider))
	}

	if spec.anthropic {
		client, err := NewAnthropicClient(cfg)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create Anthropic client: %w", err)
		}
		return client, cfg.Model, nil
	}

	client, err := NewOpenAIClient(cfg)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create %s client: %w", provider, err)
	}
	return client, cfg.Model, nil
}
