package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

var ErrAllStrategiesFailed = errors.New("all request strategies failed")

type FailureClass int

const (
	FailureNone FailureClass = iota
	FailureEmpty
	FailureTimeout
	FailureRateLimit
	FailureServer
	FailureClient
	FailureCanceled
)

func (c FailureClass) String() string {
	switch c {
	case FailureNone:
		return "none"
	case FailureEmpty:
		return "empty"
	case FailureTimeout:
		return "timeout"
	case FailureRateLimit:
		return "rate_limit"
	case FailureServer:
		return "server"
	case FailureClient:
		return "client"
	case FailureCanceled:
		return "canceled"
	}
	return "unknown"
}

// AttemptFailure records why one strategy did not produce a response.
type AttemptFailure struct {
	Strategy string        `json:"strategy"`
	Class    FailureClass  `json:"class"`
	Err      error         `json:"-"`
	Message  string        `json:"message"`
	Elapsed  time.Duration `json:"elapsed"`
}

// CallError is returned when every strategy failed.
type CallError struct {
	Attempts []AttemptFailure
}

func (e *CallError) Error() string {
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = fmt.Sprintf("%s (%s): %s", a.Strategy, a.Class, a.Message)
	}
	return fmt.Sprintf("%v: %s", ErrAllStrategiesFailed, strings.Join(parts, "; "))
}

func (e *CallError) Is(target error) bool { return target == ErrAllStrategiesFailed }

// Unwrap exposes the error of the final attempt.
func (e *CallError) Unwrap() error {
	if len(e.Attempts) == 0 {
		return nil
	}
	return e.Attempts[len(e.Attempts)-1].Err
}

func classifyTransportError(err error) FailureClass {
	if errors.Is(err, context.Canceled) {
		return FailureCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return FailureTimeout
	}
	var he *HTTPError
	if errors.As(err, &he) {
		return classifyStatus(he.StatusCode)
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429"):
		return FailureRateLimit
	case strings.Contains(msg, "status code: 5") || strings.Contains(msg, "server error"):
		return FailureServer
	case strings.Contains(msg, "status code: 4") || strings.Contains(msg, "400 bad request"):
		return FailureClient
	default:
		return FailureServer
	}
}

func classifyStatus(code int) FailureClass {
	switch {
	case code == 429:
		return FailureRateLimit
	case code >= 500:
		return FailureServer
	case code >= 400:
		return FailureClient
	}
	return FailureNone
}

func backoffDelay(class FailureClass, attempt int) time.Duration {
	if class != FailureRateLimit && class != FailureServer {
		return 0
	}
	if attempt <= 1 {
		return 1 * time.Second
	}
	return 2 * time.Second
}

var errEmptyResponse = errors.New("empty response")
