package service

import (
	"context"
	"encoding/json"
	"growdoctor/internal/apperr"
	"growdoctor/internal/config"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testVisionRequest() VisionRequest {
	return VisionRequest{
		RequestID:     "req-1",
		Image:         []byte{0xff, 0xd8, 0xff},
		MimeType:      "image/png",
		Language:      "en",
		PhotoPosition: "top",
		ShotType:      "macro",
	}
}

func openAIConfig(baseURL string) config.AIConfig {
	return config.AIConfig{
		Provider:      config.ProviderOpenAI,
		OpenAIKey:     "sk-test",
		OpenAIBaseURL: baseURL,
		Model:         "gpt-4.1-mini",
		Temperature:   0.2,
		MaxTokens:     800,
		Timeout:       time.Second,
	}
}

func TestOpenAIVisionAnalyze(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "req-1", r.Header.Get("X-Client-Request-Id"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"{\"hauptproblem\":\"x\"}"}}],"usage":{"prompt_tokens":10}}`)
	}))
	defer server.Close()

	v := NewOpenAIVision(openAIConfig(server.URL), server.Client(), quietLogger())
	text, err := v.Analyze(context.Background(), testVisionRequest())

	require.NoError(t, err)
	assert.Equal(t, `{"hauptproblem":"x"}`, text)
	assert.Equal(t, "gpt-4.1-mini", got["model"])
	assert.Equal(t, 0.2, got["temperature"])
	assert.Equal(t, float64(800), got["max_tokens"])
	assert.Equal(t, map[string]any{"type": "json_object"}, got["response_format"])

	messages := got["messages"].([]any)
	require.Len(t, messages, 2)
	user := messages[1].(map[string]any)["content"].([]any)
	imagePart := user[1].(map[string]any)["image_url"].(map[string]any)
	assert.True(t, strings.HasPrefix(imagePart["url"].(string), "data:image/png;base64,"))
}

func TestOpenAIVisionEmptyContentIsNotAnError(t *testing.T) {
	for _, body := range []string{`{"choices":[]}`, `{"choices":[{"message":{"content":null}}]}`} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, body)
		}))
		v := NewOpenAIVision(openAIConfig(server.URL), server.Client(), quietLogger())

		text, err := v.Analyze(context.Background(), testVisionRequest())
		assert.NoError(t, err)
		assert.Empty(t, text)
		server.Close()
	}
}

func TestOpenAIVisionErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   apperr.Kind
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`, apperr.KindUpstreamRateLimited},
		{"server error", http.StatusInternalServerError, `oops`, apperr.KindUpstreamUnavailable},
		{"unauthorized", http.StatusUnauthorized, `{"error":{}}`, apperr.KindUpstreamUnavailable},
		{"gateway timeout", http.StatusGatewayTimeout, ``, apperr.KindUpstreamTimeout},
		{"undecodable body", http.StatusOK, `<html>`, apperr.KindUpstreamUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer server.Close()

			v := NewOpenAIVision(openAIConfig(server.URL), server.Client(), quietLogger())
			_, err := v.Analyze(context.Background(), testVisionRequest())

			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
		})
	}
}

func TestOpenAIVisionTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	v := NewOpenAIVision(openAIConfig(server.URL), server.Client(), quietLogger())
	_, err := v.Analyze(ctx, testVisionRequest())

	require.Error(t, err)
	assert.Equal(t, apperr.KindUpstreamTimeout, apperr.KindOf(err))
}

func TestOpenAIVisionUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	v := NewOpenAIVision(openAIConfig(url), &http.Client{}, quietLogger())
	_, err := v.Analyze(context.Background(), testVisionRequest())

	require.Error(t, err)
	assert.Equal(t, apperr.KindUpstreamUnavailable, apperr.KindOf(err))
}

func TestGeminiVisionAnalyze(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "g-key", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"{\"ampel\":\"gelb\"}"}]}}]}`)
	}))
	defer server.Close()

	cfg := config.AIConfig{
		Provider:      config.ProviderGemini,
		GeminiKey:     "g-key",
		GeminiBaseURL: server.URL,
		Model:         "gemini-2.0-flash",
	}
	v := NewGeminiVision(cfg, server.Client(), quietLogger())
	text, err := v.Analyze(context.Background(), testVisionRequest())

	require.NoError(t, err)
	assert.Equal(t, `{"ampel":"gelb"}`, text)

	gen := got["generationConfig"].(map[string]any)
	assert.Equal(t, "application/json", gen["responseMimeType"])
	_, hasMax := gen["maxOutputTokens"]
	assert.False(t, hasMax)

	parts := got["contents"].([]any)[0].(map[string]any)["parts"].([]any)
	inline := parts[1].(map[string]any)["inline_data"].(map[string]any)
	assert.Equal(t, "image/png", inline["mime_type"])
	assert.Equal(t, "/9j/", inline["data"])
}

func TestGeminiVisionNoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"candidates":[]}`)
	}))
	defer server.Close()

	v := NewGeminiVision(config.AIConfig{GeminiBaseURL: server.URL, Model: "m", Provider: config.ProviderGemini}, server.Client(), quietLogger())
	text, err := v.Analyze(context.Background(), testVisionRequest())
	assert.NoError(t, err)
	assert.Empty(t, text)
}

func TestStubVision(t *testing.T) {
	text, err := NewStubVision("").Analyze(context.Background(), testVisionRequest())
	require.NoError(t, err)
	assert.Contains(t, text, "hauptproblem")

	text, err = NewStubVision(`{"a":1}`).Analyze(context.Background(), testVisionRequest())
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, text)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewStubVision("").Analyze(ctx, testVisionRequest())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRateLimitedVision(t *testing.T) {
	v := NewRateLimitedVision(NewStubVision(`{}`), rate.NewLimiter(rate.Every(time.Hour), 1))
	assert.Equal(t, config.ProviderStub, ProviderName(v))

	_, err := v.Analyze(context.Background(), testVisionRequest())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = v.Analyze(ctx, testVisionRequest())
	require.Error(t, err)
	assert.Equal(t, apperr.KindUpstreamRateLimited, apperr.KindOf(err))
}

func TestNewVisionClient(t *testing.T) {
	tests := []struct {
		provider string
		rate     float64
		name     string
		wantErr  bool
	}{
		{config.ProviderOpenAI, 0, config.ProviderOpenAI, false},
		{config.ProviderGemini, 0, config.ProviderGemini, false},
		{config.ProviderStub, 5, config.ProviderStub, false},
		{"claude", 0, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			v, err := NewVisionClient(config.AIConfig{Provider: tt.provider, RatePerSecond: tt.rate}, nil, nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.name, ProviderName(v))
			if tt.rate > 0 {
				assert.IsType(t, &RateLimitedVision{}, v)
			}
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	system, user := BuildPrompt(VisionRequest{Language: "fr", PhotoPosition: "", ShotType: "leaf"})

	assert.Contains(t, system, "language: fr")
	assert.Contains(t, system, "trichomes")
	assert.Contains(t, user, "Photo position: unknown")
	assert.Contains(t, user, "Shot type: leaf")
	assert.Contains(t, user, `"hauptproblem"`)
	assert.Contains(t, user, `"duengen_erlaubt"`)
}
