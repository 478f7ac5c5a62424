// Package parsererror defines the typed errors returned by message sources,
// sinks and the forwarder. The extraction engine itself never returns errors.
package parsererror

import (
	"errors"
	"fmt"
)

// ErrCircuitOpen is returned when the forwarder refuses to call a failing backend.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// ParseError represents a row of an input file that could not be decoded.
type ParseError struct {
	Source string
	Line   int
	Field  string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: failed to parse %s='%s': %v",
			e.Source, e.Line, e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("%s: failed to parse %s='%s': %v",
		e.Source, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// InvalidFormatError represents an input or output file whose format is not supported.
type InvalidFormatError struct {
	FilePath       string
	ExpectedFormat string
	Msg            string
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("invalid format in file '%s': %s. Expected: %s",
		e.FilePath, e.Msg, e.ExpectedFormat)
}

// ForwardError represents a failed delivery of drained records to the backend.
type ForwardError struct {
	URL        string
	StatusCode int
	Items      int
	Err        error
}

func (e *ForwardError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("forwarding %d records to %s failed with status %d: %v",
			e.Items, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("forwarding %d records to %s failed: %v", e.Items, e.URL, e.Err)
}

func (e *ForwardError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure may succeed on a later attempt:
// transport errors, 429 and 5xx responses.
func (e *ForwardError) Retryable() bool {
	return e.StatusCode == 0 || e.StatusCode == 429 || e.StatusCode >= 500
}
