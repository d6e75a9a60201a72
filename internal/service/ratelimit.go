package service

import (
	"context"
	"growdoctor/internal/apperr"

	"golang.org/x/time/rate"
)

// RateLimitedVision bounds outbound model calls across all requests of the process
type RateLimitedVision struct {
	next    VisionClient
	limiter *rate.Limiter
}

func NewRateLimitedVision(next VisionClient, limiter *rate.Limiter) *RateLimitedVision {
	return &RateLimitedVision{next: next, limiter: limiter}
}

func (v *RateLimitedVision) Name() string { return ProviderName(v.next) }

func (v *RateLimitedVision) Analyze(ctx context.Context, req VisionRequest) (string, error) {
	if err := v.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		// the wait would outlast the call deadline
		return "", apperr.Wrap(apperr.KindUpstreamRateLimited, "outbound model call limit reached", err)
	}
	return v.next.Analyze(ctx, req)
}
