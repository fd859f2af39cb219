package providers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	anthropic "github.com/liushuangls/go-anthropic/v2"
	openai "github.com/meguminnnnnnnnn/go-openai"
)

// extractErrorMetadata extracts the HTTP status code and Retry-After value
// from an SDK error. Typed SDK errors are preferred; the message text is the
// fallback for errors that carry neither.
func extractErrorMetadata(err error) (int, string) {
	if err == nil {
		return 0, ""
	}

	httpStatus := 0
	var anthropicReqErr *anthropic.RequestError
	var anthropicAPIErr *anthropic.APIError
	var openaiAPIErr *openai.APIError
	var openaiReqErr *openai.RequestError
	switch {
	case errors.As(err, &anthropicReqErr):
		httpStatus = anthropicReqErr.StatusCode
	case errors.As(err, &anthropicAPIErr):
		httpStatus = anthropicErrorStatus[string(anthropicAPIErr.Type)]
	case errors.As(err, &openaiAPIErr):
		httpStatus = openaiAPIErr.HTTPStatusCode
	case errors.As(err, &openaiReqErr):
		httpStatus = openaiReqErr.HTTPStatusCode
	}

	errStr := err.Error()
	if httpStatus == 0 {
		httpStatus = statusFromText(errStr)
	}

	return httpStatus, retryAfterFromText(errStr)
}

func statusFromText(errStr string) int {
	// Common patterns: "429", "status code 429", "HTTP 429", etc.
	for _, code := range []int{
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
		http.StatusUnauthorized,
		http.StatusForbidden,
		http.StatusBadRequest,
		http.StatusPaymentRequired,
	} {
		if strings.Contains(errStr, http.StatusText(code)) || strings.Contains(errStr, strconv.Itoa(code)) {
			return code
		}
	}
	return 0
}

func retryAfterFromText(errStr string) string {
	lower := strings.ToLower(errStr)
	for _, marker := range []string{"retry-after", "retry after"} {
		idx := strings.Index(lower, marker)
		if idx == -1 {
			continue
		}
		parts := strings.Fields(strings.TrimLeft(errStr[idx+len(marker):], ": "))
		if len(parts) > 0 {
			return parts[0]
		}
	}
	return ""
}

// anthropicErrorStatus maps Anthropic error types to the status they are sent with.
var anthropicErrorStatus = map[string]int{
	"invalid_request_error": http.StatusBadRequest,
	"authentication_error":  http.StatusUnauthorized,
	"permission_error":      http.StatusForbidden,
	"not_found_error":       http.StatusNotFound,
	"rate_limit_error":      http.StatusTooManyRequests,
	"api_error":             http.StatusInternalServerError,
	"overloaded_error":      529,
}
