// Package errors defines the error taxonomy shared across gh-perf-report.
package errors

import (
	"errors"
	"fmt"
)

// ExternalToolError indicates that a call to the gh CLI or the GitHub
// REST API failed or returned an unexpected shape. It is fatal for the
// whole invocation.
type ExternalToolError struct {
	Op  string
	Err error
}

func (e *ExternalToolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("github call %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("github call %s failed", e.Op)
}

func (e *ExternalToolError) Unwrap() error { return e.Err }

// NewExternalToolError wraps err as an ExternalToolError for operation op.
func NewExternalToolError(op string, err error) error {
	return &ExternalToolError{Op: op, Err: err}
}

// NotFoundError indicates that a run, job or artifact does not exist.
type NotFoundError struct {
	Kind string // "run", "job", "artifact"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// NewNotFoundError reports a missing entity of the given kind.
func NewNotFoundError(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// ParseError indicates malformed CSV or artifact content. At the job
// level it is degraded to an absent metric plus a per-job error message.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("parse %s failed", e.Source)
}

func (e *ParseError) Unwrap() error { return e.Err }

// NewParseError wraps err as a ParseError for the given source.
func NewParseError(source string, err error) error {
	return &ParseError{Source: source, Err: err}
}

// IsExternalTool reports whether err is an ExternalToolError.
func IsExternalTool(err error) bool {
	var e *ExternalToolError
	return errors.As(err, &e)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

// IsParse reports whether err is a ParseError.
func IsParse(err error) bool {
	var e *ParseError
	return errors.As(err, &e)
}
