// Package errs defines the error taxonomy of the chunking pipeline.
//
// Source, decode and configuration errors are fatal for a call. Page
// analysis errors are recovered locally: the affected page falls back to
// its linear text.
package errs

import (
	"errors"
	"fmt"
)

// SourceError reports input that is missing or unreadable before decoding
// is attempted.
type SourceError struct {
	Op  string
	Err error
}

func (e *SourceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("source: %s", e.Op)
	}
	return fmt.Sprintf("source: %s: %v", e.Op, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// DecodeError reports bytes that are not a valid or supported document.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	switch {
	case e.Err == nil:
		return fmt.Sprintf("decode: %s", e.Reason)
	case e.Reason == "":
		return fmt.Sprintf("decode: %v", e.Err)
	default:
		return fmt.Sprintf("decode: %s: %v", e.Reason, e.Err)
	}
}

func (e *DecodeError) Unwrap() error { return e.Err }

// PageAnalysisError reports a failed detection or composition step for a
// single page.
type PageAnalysisError struct {
	Page  int
	Stage string
	Err   error
}

func (e *PageAnalysisError) Error() string {
	return fmt.Sprintf("page %d: %s: %v", e.Page, e.Stage, e.Err)
}

func (e *PageAnalysisError) Unwrap() error { return e.Err }

// ConfigurationError reports caller misconfiguration rejected before any
// processing starts.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %s", e.Field, e.Reason)
}

// IsSource reports whether err wraps a SourceError.
func IsSource(err error) bool {
	var target *SourceError
	return errors.As(err, &target)
}

// IsDecode reports whether err wraps a DecodeError.
func IsDecode(err error) bool {
	var target *DecodeError
	return errors.As(err, &target)
}

// IsPageAnalysis reports whether err wraps a PageAnalysisError.
func IsPageAnalysis(err error) bool {
	var target *PageAnalysisError
	return errors.As(err, &target)
}

// IsConfiguration reports whether err wraps a ConfigurationError.
func IsConfiguration(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}
