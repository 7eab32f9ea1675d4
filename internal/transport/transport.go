// Package transport adapts third-party model providers to the chat
// pipeline's Transport contract. Shape normalization happens here, at the
// boundary: every provider response is mapped into the canonical
// chat.StreamChunk before the orchestrator sees it.
package transport

import (
	"strings"
	"time"
)

// ToolDeclaration describes a callable tool to the model provider.
type ToolDeclaration struct {
	Name        string
	Description string
	// Parameters is a JSON schema for the tool's arguments.
	Parameters map[string]any
}

// RetryConfig configures retry behavior for provider calls. Retries live
// behind the transport; the pipeline never retries on its own.
type RetryConfig struct {
	MaxRetries      int           // maximum retry attempts
	InitialInterval time.Duration // initial backoff interval
	MaxInterval     time.Duration // backoff ceiling
}

// DefaultRetryConfig returns sensible defaults for LLM API calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
	}
}

// retryablePatterns groups transient-error substrings by category, matched
// case-insensitively against err.Error().
//
// NOTE: string matching is used because provider SDKs do not expose typed
// errors for transient failures. Re-evaluate if the SDK grows structured
// error types.
var retryablePatterns = [][]string{
	{"rate limit", "quota exceeded", "429"},      // rate limiting
	{"500", "502", "503", "504", "unavailable"},  // transient server errors
	{"connection reset", "timeout", "temporary"}, // network errors
}

// retryableError reports whether err is transient and should trigger a retry.
func retryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	for _, group := range retryablePatterns {
		for _, sub := range group {
			if strings.Contains(errStr, sub) {
				return true
			}
		}
	}
	return false
}
