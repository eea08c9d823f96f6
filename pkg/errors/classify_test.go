package errors

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyProvider(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		wantCode string
	}{
		{"insufficient quota", "Error code: 429 - insufficient_quota", CodeQuotaExceeded},
		{"quota case-insensitive", "INSUFFICIENT_QUOTA reached", CodeQuotaExceeded},
		{"billing hard limit", "billing_hard_limit_reached for org", CodeQuotaExceeded},
		{"plain billing wording", "Your billing account is suspended", CodeQuotaExceeded},
		{"plain 429", "status code: 429, please slow down", CodeRateLimited},
		{"too many requests", "Too Many Requests", CodeRateLimited},
		{"anything else", "connection reset by peer", CodeProviderError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classified := ClassifyProvider(errors.New(tt.message))
			require.NotNil(t, classified)
			assert.Equal(t, tt.wantCode, classified.Code)
		})
	}
}

func TestClassifyProviderQuotaWinsOver429(t *testing.T) {
	classified := ClassifyProvider(errors.New("Error 429: insufficient_quota"))
	assert.Equal(t, CodeQuotaExceeded, classified.Code)
}

func TestClassifyProviderPassesThroughAppErrors(t *testing.T) {
	original := NewUnavailableError("no client configured")
	assert.Same(t, original, ClassifyProvider(original))
}

func TestClassifyProviderNil(t *testing.T) {
	assert.Nil(t, ClassifyProvider(nil))
}

func TestIsQuota(t *testing.T) {
	assert.True(t, IsQuota(errors.New("insufficient_quota")))
	assert.False(t, IsQuota(errors.New("Too Many Requests")))
	assert.False(t, IsQuota(nil))
}

func TestRedactBoundsMessageLength(t *testing.T) {
	long := strings.Repeat("x", 1000)
	classified := ClassifyProvider(errors.New(long))
	assert.LessOrEqual(t, len(classified.Message), 303)
	assert.True(t, strings.HasSuffix(classified.Message, "..."))
}

func TestIsKind(t *testing.T) {
	err := NewNotFoundError("campaign not found")
	assert.True(t, IsKind(err, CodeNotFound))
	assert.False(t, IsKind(err, CodeInvalidInput))
	assert.False(t, IsKind(errors.New("plain"), CodeNotFound))
}
