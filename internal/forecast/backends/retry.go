// retry.go - Retry logic and error categorization for Gemini API calls

package backends

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
)

// RetryConfig defines retry behavior for Gemini API calls
type RetryConfig struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffMultiple float64
}

// DefaultRetryConfig provides sensible defaults for retry behavior
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:     3,
	InitialDelay:    1 * time.Second,
	MaxDelay:        8 * time.Second,
	BackoffMultiple: 2.0,
}

// GeminiError represents a categorized Gemini API error
type GeminiError struct {
	OriginalError error
	Category      string
	StatusCode    int
	Retryable     bool
}

func (e *GeminiError) Error() string {
	return fmt.Sprintf("[%s] %v (status: %d, retryable: %v)", e.Category, e.OriginalError, e.StatusCode, e.Retryable)
}

// categorizeGeminiError analyzes an error and determines retry strategy
func categorizeGeminiError(err error) *GeminiError {
	ge := &GeminiError{OriginalError: err, Category: "unknown"}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		ge.StatusCode = apiErr.Code
		switch apiErr.Code {
		case 401, 403:
			ge.Category = "unauthorized"
		case 404:
			ge.Category = "not_found"
		case 413:
			ge.Category = "payload_too_large"
		case 429:
			ge.Category = "rate_limit"
			ge.Retryable = true
		case 500, 502, 503, 504:
			ge.Category = "server_error"
			ge.Retryable = true
		default:
			ge.Category = "api_error"
			ge.Retryable = apiErr.Code >= 500
		}
		return ge
	}

	if errors.Is(err, context.DeadlineExceeded) {
		ge.Category = "timeout"
		return ge
	}
	if errors.Is(err, context.Canceled) {
		ge.Category = "canceled"
		return ge
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "quota"):
		ge.Category = "quota_exceeded"
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		ge.Category = "timeout"
	case strings.Contains(msg, "connection") || strings.Contains(msg, "network"):
		ge.Category = "network_error"
		ge.Retryable = true
	}
	return ge
}

// callGeminiWithRetry executes a Gemini API call with exponential backoff.
// Non-retryable errors abort immediately; the categorized error is
// returned for the caller to map onto a candidate failure.
func callGeminiWithRetry(
	ctx context.Context,
	model *genai.GenerativeModel,
	config RetryConfig,
	parts ...genai.Part,
) (*genai.GenerateContentResponse, error) {

	var lastErr *GeminiError

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		resp, err := model.GenerateContent(ctx, parts...)
		if err == nil {
			if attempt > 1 {
				log.Printf("gemini: retry succeeded on attempt %d", attempt)
			}
			return resp, nil
		}

		lastErr = categorizeGeminiError(err)
		log.Printf("gemini: call failed (attempt %d/%d): %s", attempt, config.MaxAttempts, lastErr)

		if !lastErr.Retryable || attempt >= config.MaxAttempts {
			break
		}

		delay := backoffDelay(attempt, config)
		if lastErr.Category == "rate_limit" {
			delay *= 2
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context canceled during retry wait: %w", ctx.Err())
		case <-time.After(delay):
		}
	}

	return nil, lastErr
}

// backoffDelay computes the exponential backoff delay for an attempt.
func backoffDelay(attempt int, config RetryConfig) time.Duration {
	delay := float64(config.InitialDelay)
	for i := 1; i < attempt; i++ {
		delay *= config.BackoffMultiple
	}
	if delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}
	return time.Duration(delay)
}
