package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"growdoctor/internal/apperr"
	"growdoctor/internal/config"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// GeminiVision calls generateContent with the photo as inline data
type GeminiVision struct {
	config config.AIConfig
	client *http.Client
	logger *slog.Logger
}

func NewGeminiVision(cfg config.AIConfig, client *http.Client, logger *slog.Logger) *GeminiVision {
	return &GeminiVision{config: cfg, client: client, logger: logger}
}

func (v *GeminiVision) Name() string { return config.ProviderGemini }

func (v *GeminiVision) Analyze(ctx context.Context, req VisionRequest) (string, error) {
	system, user := BuildPrompt(req)
	reqBody := map[string]interface{}{
		"systemInstruction": map[string]interface{}{
			"parts": []map[string]string{{"text": system}},
		},
		"contents": []map[string]interface{}{
			{
				"role": "user",
				"parts": []map[string]interface{}{
					{"text": user},
					{"inline_data": map[string]string{
						"mime_type": req.mimeType(),
						"data":      base64.StdEncoding.EncodeToString(req.Image),
					}},
				},
			},
		},
	}
	genConfig := map[string]interface{}{
		"responseMimeType": "application/json",
		"temperature":      v.config.Temperature,
	}
	if v.config.MaxTokens > 0 {
		genConfig["maxOutputTokens"] = v.config.MaxTokens
	}
	reqBody["generationConfig"] = genConfig

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, v.config.ModelEndpoint(), bytes.NewReader(jsonBody))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", v.config.GeminiKey)

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

	// Parse Gemini response structure
	var geminiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
			FinishReason string `json:"finishReason"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return "", apperr.Wrap(apperr.KindUpstreamUnavailable, "gemini returned an undecodable body", err)
	}

	v.logger.Debug("vision.response",
		"provider", v.Name(),
		"request_id", req.RequestID,
		"model", v.config.Model,
		"duration", time.Since(start),
		"candidates", len(geminiResp.Candidates))

	if len(geminiResp.Candidates) > 0 && len(geminiResp.Candidates[0].Content.Parts) > 0 {
		return geminiResp.Candidates[0].Content.Parts[0].Text, nil
	}
	return "", nil
}
