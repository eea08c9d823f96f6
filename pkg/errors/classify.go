package errors

import "strings"

// Substrings that identify quota/billing exhaustion in provider error
// messages. Matched case-insensitively.
var quotaMarkers = []string{
	"insufficient_quota",
	"billing_hard_limit",
	"billing",
}

// Substrings that identify transient rate limiting.
var rateMarkers = []string{
	"429",
	"too many requests",
}

// ClassifyProvider maps a provider-originated error onto the application
// taxonomy by substring inspection of its message. Quota wording wins over
// plain 429s, so an exhausted account is never reported as merely throttled.
func ClassifyProvider(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}

	msg := strings.ToLower(err.Error())

	for _, marker := range quotaMarkers {
		if strings.Contains(msg, marker) {
			return NewQuotaExceededError(redact(err.Error()))
		}
	}
	for _, marker := range rateMarkers {
		if strings.Contains(msg, marker) {
			return NewRateLimitedError(redact(err.Error()))
		}
	}
	return NewProviderError(redact(err.Error()))
}

// IsQuota reports whether the error classifies as quota/billing exhaustion.
func IsQuota(err error) bool {
	classified := ClassifyProvider(err)
	return classified != nil && classified.Code == CodeQuotaExceeded
}

// redact trims provider messages to a safe, bounded summary.
func redact(msg string) string {
	const maxLen = 300
	msg = strings.TrimSpace(msg)
	if len(msg) > maxLen {
		msg = msg[:maxLen] + "..."
	}
	return msg
}
