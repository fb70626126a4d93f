package ai

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Context keys carrying request metadata into narration log lines.
type contextKey string

const (
	userIDContextKey    contextKey = "user_id"
	requestIDContextKey contextKey = "request_id"
)

// WithNarrationMeta attaches the user and request IDs a narration call
// should log under.
func WithNarrationMeta(ctx context.Context, userID, requestID string) context.Context {
	ctx = context.WithValue(ctx, userIDContextKey, userID)
	return context.WithValue(ctx, requestIDContextKey, requestID)
}

// MaxPreviewLength bounds prompt and response previews in normal logs.
// Debug mode raises the ceiling but still sanitizes.
const (
	MaxPreviewLength      = 200
	maxDebugPreviewLength = 10000
)

// SanitizePrompt produces a log-safe preview of an outgoing prompt. Prompts
// embed user task titles and reflection text, so control characters are
// stripped to keep log injection out even in debug mode.
func SanitizePrompt(prompt string, fullLog bool) string {
	return previewForLog(prompt, fullLog)
}

// SanitizeResponse produces a log-safe preview of a model response.
func SanitizeResponse(response string, fullLog bool) string {
	return previewForLog(response, fullLog)
}

func previewForLog(s string, fullLog bool) string {
	if s == "" {
		return ""
	}
	maxLen := MaxPreviewLength
	if fullLog {
		maxLen = maxDebugPreviewLength
	}

	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsPrint(r) || r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			b.WriteRune(r)
		}
	}
	s = b.String()

	if len(s) > maxLen {
		s = s[:maxLen] + "..."
	}
	return s
}

// ExtractRequestID returns the request ID attached to the context, if any.
func ExtractRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDContextKey).(string); ok {
		return id
	}
	return ""
}

// ExtractUserID returns the user ID attached to the context. Accepts both
// plain strings and uuid.UUID values.
func ExtractUserID(ctx context.Context) string {
	switch id := ctx.Value(userIDContextKey).(type) {
	case string:
		return id
	case interface{ String() string }:
		return id.String()
	}
	return ""
}
