package apperr

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	t.Run("wrapped app error", func(t *testing.T) {
		err := fmt.Errorf("diagnose: %w", Wrap(KindUpstreamTimeout, "model call timed out", context.DeadlineExceeded))
		assert.Equal(t, KindUpstreamTimeout, KindOf(err))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.True(t, IsUpstream(err))
		assert.False(t, IsValidation(err))
	})

	t.Run("plain error", func(t *testing.T) {
		assert.Equal(t, KindInternal, KindOf(fmt.Errorf("boom")))
	})
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindAgeNotConfirmed, http.StatusBadRequest},
		{KindMissingImage, http.StatusBadRequest},
		{KindFileTooLarge, http.StatusRequestEntityTooLarge},
		{KindUnsupportedMediaType, http.StatusUnsupportedMediaType},
		{KindUpstreamRateLimited, http.StatusBadGateway},
		{KindUpstreamUnavailable, http.StatusBadGateway},
		{KindInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.kind))
		})
	}
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "file_too_large: image exceeds 10 MB", New(KindFileTooLarge, "image exceeds 10 MB").Error())
	assert.Equal(t, "internal: store: disk full", Wrap(KindInternal, "store", fmt.Errorf("disk full")).Error())
}
