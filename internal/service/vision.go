package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"growdoctor/internal/apperr"
	"growdoctor/internal/config"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"golang.org/x/time/rate"
)

// VisionRequest is one photo to analyze
type VisionRequest struct {
	RequestID     string
	Image         []byte
	MimeType      string
	Language      string
	PhotoPosition string
	ShotType      string
}

// DataURL encodes the image as a data URI
func (r VisionRequest) DataURL() string {
	return "data:" + r.mimeType() + ";base64," + base64.StdEncoding.EncodeToString(r.Image)
}

func (r VisionRequest) mimeType() string {
	if r.MimeType == "" {
		return "image/jpeg"
	}
	return r.MimeType
}

// VisionClient sends a photo to a multimodal model and returns the raw assistant text.
// An empty reply is not an error; the pipeline turns it into the fallback diagnosis.
type VisionClient interface {
	Analyze(ctx context.Context, req VisionRequest) (string, error)
}

// ProviderName returns the provider label of v for logs and metrics
func ProviderName(v VisionClient) string {
	if n, ok := v.(interface{ Name() string }); ok {
		return n.Name()
	}
	return "unknown"
}

// NewVisionClient builds the configured provider, wrapped in the outbound rate limiter
func NewVisionClient(cfg config.AIConfig, httpClient *http.Client, logger *slog.Logger) (VisionClient, error) {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	var v VisionClient
	switch cfg.Provider {
	case config.ProviderOpenAI:
		v = NewOpenAIVision(cfg, httpClient, logger)
	case config.ProviderGemini:
		v = NewGeminiVision(cfg, httpClient, logger)
	case config.ProviderStub:
		v = NewStubVision("")
	default:
		return nil, fmt.Errorf("unknown vision provider %q", cfg.Provider)
	}

	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		v = NewRateLimitedVision(v, rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst))
	}
	return v, nil
}

// classifyTransport maps a failed round trip onto an upstream kind
func classifyTransport(provider string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return apperr.Wrap(apperr.KindUpstreamTimeout, provider+" did not answer in time", err)
	}
	return apperr.Wrap(apperr.KindUpstreamUnavailable, provider+" request failed", err)
}

// classifyStatus maps a non-2xx response onto an upstream kind
func classifyStatus(provider string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	msg := fmt.Sprintf("%s returned %d: %s", provider, resp.StatusCode, strings.TrimSpace(string(body)))
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return apperr.New(apperr.KindUpstreamRateLimited, msg)
	case resp.StatusCode == http.StatusGatewayTimeout || resp.StatusCode == http.StatusRequestTimeout:
		return apperr.New(apperr.KindUpstreamTimeout, msg)
	default:
		return apperr.New(apperr.KindUpstreamUnavailable, msg)
	}
}
