// Copyright 2026 The Geolocator Authors
// SPDX-License-Identifier: Apache-2.0

package geolocator

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingColumn is matched by every MissingColumnError.
	ErrMissingColumn = errors.New("missing column")

	// ErrProviderUnavailable is matched by every GeocodingError.
	ErrProviderUnavailable = errors.New("geocoding provider unavailable")

	// ErrInvalidConfig is returned for unusable configuration files.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// MissingColumnError reports a configured search column absent from a row.
type MissingColumnError struct {
	Column string
	Line   int
}

func (e *MissingColumnError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s %q", e.Line, ErrMissingColumn, e.Column)
	}

	return fmt.Sprintf("%s %q", ErrMissingColumn, e.Column)
}

func (e *MissingColumnError) Is(target error) bool {
	return target == ErrMissingColumn
}

// GeocodingError represents a provider failure. It is never used for
// "no result", which is a normal outcome.
type GeocodingError struct {
	Type    ErrorType
	Message string
	Err     error
}

// ErrorType classifies geocoding failures.
type ErrorType int

const (
	// ErrorTypeUnknown unclassified failure.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeRateLimit too many requests per second.
	ErrorTypeRateLimit
	// ErrorTypeQuotaExceeded daily quota exhausted or key denied.
	ErrorTypeQuotaExceeded
	// ErrorTypeTimeout request deadline exceeded.
	ErrorTypeTimeout
	// ErrorTypeInvalidRequest request rejected as malformed.
	ErrorTypeInvalidRequest
	// ErrorTypeNetworkError transport failure or server side error.
	ErrorTypeNetworkError
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeRateLimit:
		return "rate limit"
	case ErrorTypeQuotaExceeded:
		return "quota exceeded"
	case ErrorTypeTimeout:
		return "timeout"
	case ErrorTypeInvalidRequest:
		return "invalid request"
	case ErrorTypeNetworkError:
		return "network error"
	default:
		return "unknown"
	}
}

func (e *GeocodingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *GeocodingError) Unwrap() error {
	return e.Err
}

func (e *GeocodingError) Is(target error) bool {
	return target == ErrProviderUnavailable
}

// IsRateLimitError reports whether err is caused by rate limiting.
func IsRateLimitError(err error) bool {
	var geoErr *GeocodingError
	if errors.As(err, &geoErr) {
		return geoErr.Type == ErrorTypeRateLimit
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "429")
}

// IsQuotaExceededError reports whether err is caused by an exhausted quota.
func IsQuotaExceededError(err error) bool {
	var geoErr *GeocodingError
	if errors.As(err, &geoErr) {
		return geoErr.Type == ErrorTypeQuotaExceeded
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "over_query_limit") ||
		strings.Contains(errStr, "over_daily_limit") ||
		strings.Contains(errStr, "quota exceeded")
}

// IsTimeoutError reports whether err is caused by a timeout.
func IsTimeoutError(err error) bool {
	var geoErr *GeocodingError
	if errors.As(err, &geoErr) {
		return geoErr.Type == ErrorTypeTimeout
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded")
}

// ClassifyStatusError turns an error returned by the Maps client into a
// GeocodingError. The client reports API statuses only in the message text.
func ClassifyStatusError(err error) *GeocodingError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &GeocodingError{Type: ErrorTypeTimeout, Message: "geocoding request timed out", Err: err}
	}

	msg := err.Error()

	switch {
	case strings.Contains(msg, "OVER_QUERY_LIMIT"), strings.Contains(msg, "OVER_DAILY_LIMIT"):
		return &GeocodingError{Type: ErrorTypeQuotaExceeded, Message: "quota exceeded", Err: err}
	case strings.Contains(msg, "REQUEST_DENIED"):
		return &GeocodingError{Type: ErrorTypeQuotaExceeded, Message: "request denied, check the API key", Err: err}
	case strings.Contains(msg, "INVALID_REQUEST"):
		return &GeocodingError{Type: ErrorTypeInvalidRequest, Message: "invalid request", Err: err}
	case strings.Contains(msg, "UNKNOWN_ERROR"):
		return &GeocodingError{Type: ErrorTypeNetworkError, Message: "provider server error", Err: err}
	case IsRateLimitError(err):
		return &GeocodingError{Type: ErrorTypeRateLimit, Message: "rate limit reached", Err: err}
	case IsTimeoutError(err):
		return &GeocodingError{Type: ErrorTypeTimeout, Message: "geocoding request timed out", Err: err}
	default:
		return &GeocodingError{Type: ErrorTypeUnknown, Message: "geocoding request failed", Err: err}
	}
}
