package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// ErrorKind is the fixed failure taxonomy applied to every external call
type ErrorKind string

const (
	KindNetwork            ErrorKind = "network_error"
	KindTimeout            ErrorKind = "timeout_error"
	KindRateLimit          ErrorKind = "rate_limit_error"
	KindAuthentication     ErrorKind = "authentication_error"
	KindValidation         ErrorKind = "validation_error"
	KindQuotaExceeded      ErrorKind = "quota_exceeded"
	KindServiceUnavailable ErrorKind = "service_unavailable"
	KindUnknown            ErrorKind = "unknown_error"
)

// IsRetryable reports whether an error kind is retryable by default.
// The table is fixed regardless of message content.
func IsRetryable(kind ErrorKind) bool {
	switch kind {
	case KindNetwork, KindTimeout, KindRateLimit, KindServiceUnavailable:
		return true
	}
	return false
}

// ClassifiedError carries a classified failure through the retry machinery.
// A specific instance may override the default retryable table.
type ClassifiedError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error

	override *bool
}

func (e *ClassifiedError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

// Retryable honors the per-instance override before the default table
func (e *ClassifiedError) Retryable() bool {
	if e.override != nil {
		return *e.override
	}
	return IsRetryable(e.Kind)
}

// WithRetryable marks this instance retryable or not, overriding the table
func (e *ClassifiedError) WithRetryable(retryable bool) *ClassifiedError {
	e.override = &retryable
	return e
}

// NewProviderError builds a classified error from an HTTP-class provider
// failure. The message is taken from the provider payload when present.
func NewProviderError(statusCode int, message string, err error) *ClassifiedError {
	return &ClassifiedError{
		Kind:       classifyStatus(statusCode, message),
		StatusCode: statusCode,
		Message:    message,
		Err:        err,
	}
}

// NewValidationError builds a non-retryable validation failure
func NewValidationError(message string) *ClassifiedError {
	return &ClassifiedError{
		Kind:    KindValidation,
		Message: message,
	}
}

// classifyStatus maps an HTTP status code to an error kind
func classifyStatus(statusCode int, message string) ErrorKind {
	switch statusCode {
	case 401, 403:
		return KindAuthentication
	case 402:
		return KindQuotaExceeded
	case 429:
		if looksLikeQuota(message) {
			return KindQuotaExceeded
		}
		return KindRateLimit
	case 400:
		return KindValidation
	case 408:
		return KindTimeout
	case 500, 502, 503, 504:
		return KindServiceUnavailable
	}
	return KindUnknown
}

// looksLikeQuota distinguishes a hard quota exhaustion from a transient
// rate limit window. Quota errors are not retryable.
func looksLikeQuota(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "quota exceeded") ||
		strings.Contains(lower, "exceeded your current quota") ||
		strings.Contains(lower, "billing")
}

// AsClassified converts any error into a ClassifiedError, classifying
// unwrapped errors on the way through.
func AsClassified(err error) *ClassifiedError {
	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified
	}
	return &ClassifiedError{
		Kind:    Classify(err),
		Message: err.Error(),
		Err:     err,
	}
}

// Classify categorizes a raw error into the fixed taxonomy
func Classify(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}

	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified.Kind
	}

	// Transport-level timeout signals
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	// Generic connection failures
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return KindNetwork
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return KindNetwork
	}

	return classifyMessage(err.Error())
}

// classifyMessage is a last-resort classification for providers that only
// surface stringly-typed errors (the Gemini SDK does this for 429s).
func classifyMessage(message string) ErrorKind {
	lower := strings.ToLower(message)

	switch {
	case strings.Contains(lower, "quota exceeded"), strings.Contains(lower, "exceeded your current quota"):
		return KindQuotaExceeded
	case strings.Contains(message, "429"), strings.Contains(lower, "rate limit"), strings.Contains(message, "RESOURCE_EXHAUSTED"):
		return KindRateLimit
	case strings.Contains(message, "401"), strings.Contains(message, "403"), strings.Contains(lower, "unauthorized"), strings.Contains(lower, "api key"):
		return KindAuthentication
	case strings.Contains(message, "500"), strings.Contains(message, "502"), strings.Contains(message, "503"), strings.Contains(message, "504"), strings.Contains(lower, "unavailable"), strings.Contains(lower, "overloaded"):
		return KindServiceUnavailable
	case strings.Contains(lower, "timeout"), strings.Contains(lower, "deadline exceeded"):
		return KindTimeout
	case strings.Contains(lower, "connection refused"), strings.Contains(lower, "no such host"), strings.Contains(lower, "connection reset"):
		return KindNetwork
	case strings.Contains(message, "400"), strings.Contains(lower, "invalid request"), strings.Contains(lower, "invalid argument"):
		return KindValidation
	}

	return KindUnknown
}
