package service

import (
	"bytes"
	"context"
	"encoding/json"
	"growdoctor/internal/apperr"
	"growdoctor/internal/config"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// OpenAIVision calls the chat completions API with an inline image
type OpenAIVision struct {
	config config.AIConfig
	client *http.Client
	logger *slog.Logger
}

func NewOpenAIVision(cfg config.AIConfig, client *http.Client, logger *slog.Logger) *OpenAIVision {
	return &OpenAIVision{config: cfg, client: client, logger: logger}
}

func (v *OpenAIVision) Name() string { return config.ProviderOpenAI }

func (v *OpenAIVision) Analyze(ctx context.Context, req VisionRequest) (string, error) {
	system, user := BuildPrompt(req)
	reqBody := map[string]interface{}{
		"model": v.config.Model,
		"messages": []map[string]interface{}{
			{"role": "system", "content": system},
			{
				"role": "user",
				"content": []map[string]interface{}{
					{"type": "text", "text": user},
					{"type": "image_url", "image_url": map[string]string{"url": req.DataURL()}},
				},
			},
		},
		"response_format": map[string]string{"type": "json_object"},
		"temperature":     v.config.Temperature,
	}
	if v.config.MaxTokens > 0 {
		reqBody["max_tokens"] = v.config.MaxTokens
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, v.config.ModelEndpoint(), bytes.NewReader(jsonBody))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+v.config.OpenAIKey)
	if req.RequestID != "" {
		httpReq.Header.Set("X-Client-Request-Id", req.RequestID)
	}

	start := time.Now()
	resp, err := v.client.Do(httpReq)
	if err != nil {
		return "", classifyTransport(v.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", classifyStatus(v.Name(), resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classifyTransport(v.Name(), err)
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content *string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", apperr.Wrap(apperr.KindUpstreamUnavailable, "openai returned an undecodable body", err)
	}

	v.logger.Debug("vision.response",
		"provider", v.Name(),
		"request_id", req.RequestID,
		"model", v.config.Model,
		"duration", time.Since(start),
		"prompt_tokens", completion.Usage.PromptTokens,
		"completion_tokens", completion.Usage.CompletionTokens)

	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == nil {
		return "", nil
	}
	return *completion.Choices[0].Message.Content, nil
}
