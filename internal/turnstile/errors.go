package turnstile

import (
	"errors"
	"fmt"
)

// Sentinel errors matched by the typed errors below through errors.Is
var (
	ErrConfiguration = errors.New("turnstile configuration invalid")
	ErrTransport     = errors.New("turnstile transport failed")
	ErrDecode        = errors.New("turnstile response malformed")
	ErrCanceled      = errors.New("turnstile verification canceled")
)

// ConfigurationError reports a missing or invalid setting. It is raised at
// startup and is meant to halt process initialization.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("cloudflare turnstile %s %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// TransportError reports a network failure, a client timeout or a non-2xx
// answer from the siteverify endpoint. StatusCode is zero when no response
// was received.
type TransportError struct {
	StatusCode int
	Cause      error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("turnstile siteverify returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("turnstile siteverify call failed: %v", e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// DecodeError reports a response body that does not match the siteverify
// result shape.
type DecodeError struct {
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode turnstile response: %v", e.Cause)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// CancellationError reports that the caller's context was done before the
// verification completed. Cause is the context error.
type CancellationError struct {
	Cause error
}

func (e *CancellationError) Error() string {
	return fmt.Sprintf("turnstile verification aborted: %v", e.Cause)
}

func (e *CancellationError) Unwrap() error {
	return e.Cause
}

func (e *CancellationError) Is(target error) bool {
	return target == ErrCanceled
}
