package retry

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
)

// StatusError is implemented by errors that carry an HTTP status code
type StatusError interface {
	error
	HTTPStatus() int
}

// ClassifyModel classifies errors from a model backend
func ClassifyModel(err error) ErrorType {
	if err == nil {
		return Permanent
	}
	if errors.Is(err, context.Canceled) {
		return Permanent
	}

	var se StatusError
	if errors.As(err, &se) && se.HTTPStatus() != 0 {
		return ClassifyHTTP(se.HTTPStatus())
	}

	errStr := strings.ToLower(err.Error())

	if strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "overloaded") ||
		strings.Contains(errStr, "capacity") {
		return RateLimited
	}

	if strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "timed out") ||
		strings.Contains(errStr, "deadline exceeded") {
		return Retryable
	}

	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "temporary failure") ||
		strings.Contains(errStr, "unexpected eof") {
		return Retryable
	}

	return Permanent
}

// ClassifyHTTP classifies HTTP errors by status code
func ClassifyHTTP(statusCode int) ErrorType {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return RateLimited
	case statusCode == http.StatusRequestTimeout,
		statusCode == http.StatusGatewayTimeout:
		return Retryable
	case statusCode >= 500 && statusCode < 600:
		return Retryable
	default:
		return Permanent
	}
}

// ClassifyHTTPError classifies errors from REST clients. Without a status
// code only network failures are transient; anything else, such as a body
// that could not be decoded, is permanent.
func ClassifyHTTPError(err error) ErrorType {
	if err == nil || errors.Is(err, context.Canceled) {
		return Permanent
	}
	var se StatusError
	if errors.As(err, &se) && se.HTTPStatus() != 0 {
		return ClassifyHTTP(se.HTTPStatus())
	}
	var netErr net.Error
	if errors.As(err, &netErr) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, context.DeadlineExceeded) {
		return Retryable
	}
	return Permanent
}
