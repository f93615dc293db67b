package errors

import (
	"errors"
	"fmt"
)

// Common error types for categorization and handling

var (
	// ErrInvalidInput indicates malformed or incomplete caller input
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates a missing or wrong bearer token
	ErrUnauthorized = errors.New("unauthorized")

	// ErrConfiguration indicates a required credential or setting is missing
	ErrConfiguration = errors.New("configuration error")

	// ErrUpstreamTransient indicates an upstream failure worth retrying
	ErrUpstreamTransient = errors.New("upstream transient failure")

	// ErrUpstreamFatal indicates an upstream failure that retrying cannot fix
	ErrUpstreamFatal = errors.New("upstream fatal failure")

	// ErrOutputInvalid indicates the model answered with something other than an analysis
	ErrOutputInvalid = errors.New("invalid output")

	// ErrOutputTruncated indicates the model answer stayed incomplete after continuation
	ErrOutputTruncated = errors.New("truncated output")
)

// WrapError wraps an error with context message and stack
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// WrapErrorf wraps an error with formatted context message
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsInvalidInput checks if error is an invalid input error
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsConfiguration checks if error is a configuration error
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsTransient checks if error is an upstream failure that may succeed on retry
func IsTransient(err error) bool {
	return errors.Is(err, ErrUpstreamTransient)
}

// IsOutputFailure checks if error is a local classification failure of model output
func IsOutputFailure(err error) bool {
	return errors.Is(err, ErrOutputInvalid) || errors.Is(err, ErrOutputTruncated)
}
