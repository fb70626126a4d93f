package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// APIError carries the details of a failed narration request. Groq speaks
// the OpenAI error dialect, so status codes and the insufficient_quota code
// follow that convention.
type APIError struct {
	Message     string
	Type        string
	Code        string
	StatusCode  int
	RetryAfter  *time.Duration
	IsPermanent bool // quota exhaustion, as opposed to a transient rate limit
}

func (e *APIError) Error() string {
	return fmt.Sprintf("narration API error (status %d, type %s): %s", e.StatusCode, e.Type, e.Message)
}

// IsRateLimitError reports whether err is a transient rate limit rejection.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 && !apiErr.IsPermanent
	}
	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many requests")
}

// IsQuotaError reports whether err means the account quota is spent. Unlike
// a rate limit this does not clear on its own.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsPermanent || apiErr.Code == "insufficient_quota"
	}
	msg := err.Error()
	return strings.Contains(msg, "insufficient_quota") ||
		strings.Contains(msg, "quota") ||
		strings.Contains(msg, "billing")
}

// ExtractAPIError pulls structured details out of a 429 from the SDK, which
// embeds the provider's JSON error body in the message. Returns nil for
// anything that is not a rate limit or quota rejection.
func ExtractAPIError(err error) *APIError {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if !strings.Contains(msg, "429") {
		return nil
	}

	apiErr := &APIError{
		StatusCode: 429,
		Message:    msg,
		Type:       "rate_limit_error",
	}

	if start := strings.Index(msg, "{"); start != -1 {
		body := msg[start:]
		if end := strings.LastIndex(body, "}"); end != -1 {
			var detail struct {
				Message string `json:"message"`
				Type    string `json:"type"`
				Code    string `json:"code"`
			}
			if json.Unmarshal([]byte(body[:end+1]), &detail) == nil {
				apiErr.Message = detail.Message
				apiErr.Type = detail.Type
				apiErr.Code = detail.Code
				apiErr.IsPermanent = detail.Code == "insufficient_quota"
			}
		}
	}

	// Groq does not reliably send Retry-After, so assume the usual
	// 60-second window, or an hour when the quota itself is gone.
	retryAfter := 60 * time.Second
	if apiErr.IsPermanent {
		retryAfter = time.Hour
	}
	apiErr.RetryAfter = &retryAfter

	return apiErr
}

// GetRetryDelay picks the backoff before requeueing a failed narration job.
// Quota errors back off in hours, rate limits in minutes, everything else
// in seconds; all three are capped.
func GetRetryDelay(err error, attempt int) time.Duration {
	// Clamp the exponent so the shift below cannot overflow.
	shift := attempt
	if shift < 0 {
		shift = 0
	} else if shift > 10 {
		shift = 10
	}
	backoff := time.Duration(1 << uint(shift))

	if IsQuotaError(err) {
		delay := time.Hour * backoff
		if delay > 24*time.Hour {
			delay = 24 * time.Hour
		}
		return delay
	}

	if IsRateLimitError(err) {
		delay := 60 * time.Second * backoff
		if delay > 15*time.Minute {
			delay = 15 * time.Minute
		}
		if apiErr := ExtractAPIError(err); apiErr != nil && apiErr.RetryAfter != nil && *apiErr.RetryAfter > delay {
			delay = *apiErr.RetryAfter
		}
		return delay
	}

	delay := 5 * time.Second * backoff
	if delay > 5*time.Minute {
		delay = 5 * time.Minute
	}
	return delay
}
