package config

import (
	"strings"
	"time"
)

// Vision providers
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderStub   = "stub"
)

// Default models per provider, used when ai.model is not set
const (
	DefaultOpenAIModel = "gpt-4.1-mini"
	DefaultGeminiModel = "gemini-2.0-flash"
)

// DefaultModel returns the model used for provider when none is configured
func DefaultModel(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return DefaultOpenAIModel
	case ProviderGemini:
		return DefaultGeminiModel
	}
	return ""
}

// modelMismatch reports a model name that clearly belongs to the other provider
func (c AIConfig) modelMismatch() bool {
	m := strings.ToLower(c.Model)
	switch c.Provider {
	case ProviderOpenAI:
		return strings.HasPrefix(m, "gemini")
	case ProviderGemini:
		return strings.HasPrefix(m, "gpt")
	}
	return false
}

// AIConfig holds the vision model settings
type AIConfig struct {
	Provider      string        `mapstructure:"provider"`
	OpenAIKey     string        `mapstructure:"openai_api_key" json:"-"` // Never serialize
	OpenAIBaseURL string        `mapstructure:"openai_base_url"`
	GeminiKey     string        `mapstructure:"gemini_api_key" json:"-"`
	GeminiBaseURL string        `mapstructure:"gemini_base_url"`
	Model         string        `mapstructure:"model"`
	Temperature   float64       `mapstructure:"temperature"`
	MaxTokens     int           `mapstructure:"max_tokens"`
	Timeout       time.Duration `mapstructure:"timeout"`

	// outbound calls per second across the process; 0 disables the limiter
	RatePerSecond float64 `mapstructure:"rate_per_second"`
	Burst         int     `mapstructure:"burst"`
}

// APIKey returns the key of the selected provider
func (c AIConfig) APIKey() string {
	switch c.Provider {
	case ProviderOpenAI:
		return c.OpenAIKey
	case ProviderGemini:
		return c.GeminiKey
	}
	return ""
}

// IsEnabled returns true if a real model provider is configured
func (c AIConfig) IsEnabled() bool {
	return c.Provider != ProviderStub && c.APIKey() != ""
}

// ModelEndpoint returns the full endpoint for the configured model
func (c AIConfig) ModelEndpoint() string {
	switch c.Provider {
	case ProviderGemini:
		return strings.TrimRight(c.GeminiBaseURL, "/") + "/" + c.Model + ":generateContent"
	case ProviderOpenAI:
		return strings.TrimRight(c.OpenAIBaseURL, "/") + "/chat/completions"
	}
	return ""
}
