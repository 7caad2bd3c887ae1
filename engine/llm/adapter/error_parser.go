package llmadapter

import (
	"strconv"
	"strings"
)

// ErrorParser extracts structured error information from the free-text
// errors surfaced by provider SDKs.
type ErrorParser struct {
	provider string
}

// NewErrorParser creates a parser for the given provider name.
func NewErrorParser(provider string) *ErrorParser {
	return &ErrorParser{provider: provider}
}

// ParseError classifies a raw provider error. Returns nil when no
// pattern matched so callers can fall back to generic wrapping.
func (p *ErrorParser) ParseError(err error) *Error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	lower := strings.ToLower(msg)
	if status := extractHTTPStatusCode(lower); status > 0 {
		return NewError(status, msg, p.provider, err)
	}
	if code := matchErrorPatterns(lower); code != "" {
		return NewErrorWithCode(code, msg, p.provider, err)
	}
	return nil
}

var errorPatterns = []struct {
	code     ErrorCode
	patterns []string
}{
	{ErrCodeRateLimit, []string{
		"rate limit", "rate-limit", "ratelimit", "rate_limit_error",
		"too many requests", "throttled", "throttling",
	}},
	{ErrCodeQuotaExceeded, []string{"quota exceeded", "insufficient_quota"}},
	{ErrCodeServiceUnavailable, []string{
		"service unavailable", "temporarily unavailable", "overloaded",
		"try again later",
	}},
	{ErrCodeUnauthorized, []string{
		"unauthorized", "invalid api key", "invalid_api_key",
		"authentication", "credential",
	}},
	{ErrCodeInvalidModel, []string{"invalid model", "model not found"}},
	{ErrCodeContentPolicy, []string{"content policy", "safety"}},
	{ErrCodeTimeout, []string{"timeout", "timed out", "deadline exceeded"}},
	{ErrCodeConnectionReset, []string{"connection reset"}},
	{ErrCodeConnectionRefused, []string{
		"connection refused", "connection failed", "host not found",
	}},
}

func matchErrorPatterns(lower string) ErrorCode {
	for _, group := range errorPatterns {
		for _, pattern := range group.patterns {
			if strings.Contains(lower, pattern) {
				return group.code
			}
		}
	}
	return ""
}

// extractHTTPStatusCode scans common "status code: 429" / "HTTP 503"
// shapes for a three-digit status.
func extractHTTPStatusCode(lower string) int {
	prefixes := []string{"status code: ", "status code ", "http ", "error ", "code "}
	for _, prefix := range prefixes {
		idx := strings.Index(lower, prefix)
		if idx < 0 {
			continue
		}
		start := idx + len(prefix)
		end := start
		for end < len(lower) && end < start+3 && lower[end] >= '0' && lower[end] <= '9' {
			end++
		}
		if end-start == 3 {
			if code, err := strconv.Atoi(lower[start:end]); err == nil && code >= 100 && code < 600 {
				return code
			}
		}
	}
	return 0
}
