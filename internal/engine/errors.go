// Package engine provides the model-facing core: turn types, structured
// output, the expert conversation loop and error classification.
// This file contains error classification and handling.

package engine

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// RetryClass indicates whether an error should be retried.
type RetryClass string

const (
	RetryClassRetryable    RetryClass = "retryable"     // Definitely retry
	RetryClassMaybe        RetryClass = "maybe"         // Retry with caution (limited attempts)
	RetryClassNonRetryable RetryClass = "non_retryable" // Never retry
)

// EngineError wraps provider errors with classification metadata.
type EngineError struct {
	Err         error
	Class       RetryClass
	HTTPStatus  int    // HTTP status code if applicable
	RetryAfter  string // Retry-After header value if present
	IsRateLimit bool
	IsTimeout   bool
	IsNetwork   bool
	IsAuth      bool
	IsQuota     bool
}

func (e *EngineError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("engine error: %s", e.Class)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// ClassifyLLMError classifies an error from an LLM provider call.
func ClassifyLLMError(err error) RetryClass {
	if err == nil {
		return RetryClassNonRetryable
	}

	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr.Class
	}

	errStr := strings.ToLower(err.Error())

	switch {
	case containsAny(errStr, "429", "rate limit", "too many requests"):
		return RetryClassRetryable
	case containsAny(errStr, "500", "502", "503", "504", "internal server error",
		"bad gateway", "service unavailable", "gateway timeout", "overloaded"):
		return RetryClassRetryable
	case containsAny(errStr, "context deadline exceeded", "deadline exceeded"):
		return RetryClassMaybe
	case containsAny(errStr, "timeout", "connection reset", "connection refused",
		"no such host", "network", "temporary failure"):
		return RetryClassRetryable
	case containsAny(errStr, "context length", "token limit", "maximum context length"):
		return RetryClassMaybe
	}

	// auth, bad request, quota, safety refusals and anything unknown
	return RetryClassNonRetryable
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// ExtractRetryAfter extracts the Retry-After value from an error.
// Returns 0 if not found or invalid.
func ExtractRetryAfter(err error) time.Duration {
	var engineErr *EngineError
	if errors.As(err, &engineErr) && engineErr.RetryAfter != "" {
		var seconds int
		if _, err := fmt.Sscanf(engineErr.RetryAfter, "%d", &seconds); err == nil {
			return time.Duration(seconds) * time.Second
		}
		if t, err := time.Parse(time.RFC1123, engineErr.RetryAfter); err == nil {
			if d := time.Until(t); d > 0 {
				return d
			}
		}
	}
	return 0
}

// WrapLLMError wraps an LLM provider error with classification metadata.
func WrapLLMError(err error, httpStatus int, retryAfter string) error {
	if err == nil {
		return nil
	}

	class := ClassifyLLMError(err)
	switch {
	case httpStatus == http.StatusTooManyRequests || httpStatus >= 500:
		class = RetryClassRetryable
	case httpStatus >= 400:
		class = RetryClassNonRetryable
	}

	return &EngineError{
		Err:         err,
		Class:       class,
		HTTPStatus:  httpStatus,
		RetryAfter:  retryAfter,
		IsRateLimit: httpStatus == http.StatusTooManyRequests,
		IsTimeout:   httpStatus == http.StatusGatewayTimeout || httpStatus == http.StatusRequestTimeout,
		IsNetwork:   httpStatus == 0 || httpStatus >= 500,
		IsAuth:      httpStatus == http.StatusUnauthorized || httpStatus == http.StatusForbidden,
		IsQuota:     httpStatus == http.StatusPaymentRequired,
	}
}

// RetryExhaustedError indicates that all retry attempts have been exhausted.
type RetryExhaustedError struct {
	Err         error
	Attempts    int
	MaxAttempts int
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.Err
}

// IsRetryExhausted checks if an error is a RetryExhaustedError.
func IsRetryExhausted(err error) bool {
	var retryExhausted *RetryExhaustedError
	return errors.As(err, &retryExhausted)
}

// ToolValidationError indicates that tool arguments failed JSON schema validation.
type ToolValidationError struct {
	ToolName string
	Errors   []string
}

func (e *ToolValidationError) Error() string {
	return fmt.Sprintf("tool %s validation failed: %s", e.ToolName, strings.Join(e.Errors, "; "))
}

// StructuredOutputError reports a model reply that could not be turned into a
// value of the target schema.
type StructuredOutputError struct {
	Target string // tool / schema name
	Raw    string // offending output, as the model produced it
	Err    error
}

func (e *StructuredOutputError) Error() string {
	return fmt.Sprintf("structured output %s: %v", e.Target, e.Err)
}

func (e *StructuredOutputError) Unwrap() error {
	return e.Err
}

// IsStructuredOutputError reports whether err (or a wrapped cause) is a
// StructuredOutputError, including one that exhausted its retries.
func IsStructuredOutputError(err error) bool {
	var soErr *StructuredOutputError
	return errors.As(err, &soErr)
}

// ToolResultMismatchError is returned when a tool result references a call id
// that the latest assistant turn did not issue.
type ToolResultMismatchError struct {
	CallIDs []string // unknown ids, in the order supplied
	Pending []string // ids the assistant actually issued
}

func (e *ToolResultMismatchError) Error() string {
	return fmt.Sprintf("tool results reference unknown call ids %v (pending: %v)", e.CallIDs, e.Pending)
}

// UnresolvableReferenceError is returned when a model reply references no
// known entity (e.g. none of the returned shape ids exist).
type UnresolvableReferenceError struct {
	Kind    string
	Invalid []string
}

func (e *UnresolvableReferenceError) Error() string {
	if len(e.Invalid) == 0 {
		return fmt.Sprintf("could not match any %s to the request", e.Kind)
	}
	return fmt.Sprintf("could not match any %s to the request (unknown: %s)", e.Kind, strings.Join(e.Invalid, ", "))
}
