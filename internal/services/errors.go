package services

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrClassification = errors.New("classification error")
	ErrUnknownCode    = errors.New("unknown code")
	ErrReadiness      = errors.New("readiness error")
	ErrIntegrity      = errors.New("integrity error")
	ErrPermission     = errors.New("permission error")
	ErrTransient      = errors.New("transient failure")
	ErrSecurity       = errors.New("security violation")
	ErrConfiguration  = errors.New("configuration error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later outcome classification. The marker
// should be one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// RetryClass describes how a failure should be retried, if at all.
type RetryClass int

const (
	// RetryNever marks permanent failures: malformed names, unknown codes,
	// and security violations.
	RetryNever RetryClass = iota
	// RetryFixed marks failures retried after a short fixed delay.
	RetryFixed
	// RetryExponential marks failures retried with exponential backoff.
	RetryExponential
)

// Classify maps a failure to its retry class. Unrecognized errors are treated
// as transient so interrupted copies get another attempt.
func Classify(err error) RetryClass {
	switch {
	case err == nil:
		return RetryNever
	case errors.Is(err, ErrSecurity),
		errors.Is(err, ErrClassification),
		errors.Is(err, ErrUnknownCode),
		errors.Is(err, ErrConfiguration):
		return RetryNever
	case errors.Is(err, ErrPermission):
		return RetryFixed
	case errors.Is(err, ErrReadiness),
		errors.Is(err, ErrIntegrity),
		errors.Is(err, ErrTransient):
		return RetryExponential
	default:
		return RetryExponential
	}
}

// FixedRetryDelay is the pause before re-attempting a permission failure.
const FixedRetryDelay = 500 * time.Millisecond

// BackoffDelay returns the exponential backoff pause before the given retry.
// Attempt numbering is 1-based: the delay after attempt 1 is base, after
// attempt 2 it is 2*base, and so on.
func BackoffDelay(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return base * time.Duration(1<<uint(attempt-1))
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
