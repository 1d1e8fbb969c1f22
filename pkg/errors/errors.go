// Package errors defines the failure classes of a merge run so callers can
// branch on missing input, bad remote responses, missing columns and bad
// configuration without matching message text.
//
// The standard library helpers are re-exported so importing this package
// as "errors" loses nothing.
package errors

import (
	"errors"
	"fmt"
)

// Standard library helpers.
var (
	New = errors.New
	Is  = errors.Is
	As  = errors.As
)

// Sentinels matched by the typed errors' Is methods.
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrRateLimited         = errors.New("rate limited")
	ErrMissingColumn       = errors.New("missing column")
)

// IsNotFound reports whether a required input is missing.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsValidationError reports bad configuration or arguments.
func IsValidationError(err error) bool { return errors.Is(err, ErrInvalidInput) }

// IsMissingColumn reports a table lacking a column the pipeline reads.
func IsMissingColumn(err error) bool { return errors.Is(err, ErrMissingColumn) }

// IsRateLimited reports an HTTP 429 from the remote source.
func IsRateLimited(err error) bool { return errors.Is(err, ErrRateLimited) }

// IsProviderUnavailable reports a 5xx from the remote source.
func IsProviderUnavailable(err error) bool { return errors.Is(err, ErrProviderUnavailable) }

// NotFoundError names a missing input, such as the base file.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// Is matches ErrNotFound.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError rejects a value supplied by the caller.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Is matches ErrInvalidInput.
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// NewValidationError creates a ValidationError.
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// ConfigError reports settings no run can succeed with.
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

func (e *ConfigError) Error() string {
	msg := "config"
	if e.Component != "" {
		msg += " " + e.Component
	}
	msg += ": " + e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Is matches ErrInvalidInput.
func (e *ConfigError) Is(target error) bool { return target == ErrInvalidInput }

// NewConfigError creates a ConfigError.
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{Component: component, Message: message, Err: err}
}

// APIError is a failed request to the remote source. StatusCode is zero
// when no response arrived.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
	Endpoint   string
	Err        error
}

func (e *APIError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Message, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Provider, e.Message)
	}
}

func (e *APIError) Unwrap() error { return e.Err }

// Is maps 429 to ErrRateLimited and 5xx to ErrProviderUnavailable.
func (e *APIError) Is(target error) bool {
	switch {
	case e.StatusCode == 429:
		return target == ErrRateLimited
	case e.StatusCode >= 500:
		return target == ErrProviderUnavailable
	}
	return false
}

// NewAPIError creates an APIError for a received response.
func NewAPIError(provider string, statusCode int, message string) *APIError {
	return &APIError{Provider: provider, StatusCode: statusCode, Message: message}
}

// ColumnError names a column the pipeline reads but the table lacks.
type ColumnError struct {
	Table  string
	Column string
}

func (e *ColumnError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("no column %q", e.Column)
	}
	return fmt.Sprintf("%s table has no column %q", e.Table, e.Column)
}

// Is matches ErrMissingColumn.
func (e *ColumnError) Is(target error) bool { return target == ErrMissingColumn }

// NewColumnError creates a ColumnError.
func NewColumnError(table, column string) *ColumnError {
	return &ColumnError{Table: table, Column: column}
}

// MergeError is a failure while combining the two tables.
type MergeError struct {
	Source string
	Target string
	Stage  string
	Err    error
}

func (e *MergeError) Error() string {
	stage := e.Stage
	if stage == "" {
		stage = "merge"
	}
	return fmt.Sprintf("%s %s with %s: %v", stage, e.Source, e.Target, e.Err)
}

func (e *MergeError) Unwrap() error { return e.Err }

// NewMergeError creates a MergeError.
func NewMergeError(source, target, stage string, err error) *MergeError {
	return &MergeError{Source: source, Target: target, Stage: stage, Err: err}
}

// ParseError is malformed input in a given format. Line and Column are
// 1-based and zero when unknown.
type ParseError struct {
	Format  string
	File    string
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	switch {
	case e.File != "" && e.Line > 0:
		return fmt.Sprintf("%s %s:%d:%d: %s", e.Format, e.File, e.Line, e.Column, e.Message)
	case e.File != "":
		return fmt.Sprintf("%s %s: %s", e.Format, e.File, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Format, e.Message)
	}
}

func (e *ParseError) Unwrap() error { return e.Err }

// NewParseError creates a ParseError.
func NewParseError(format, file string, message string, err error) *ParseError {
	return &ParseError{Format: format, File: file, Message: message, Err: err}
}

// IOError is a failed filesystem operation, formatted like *os.PathError.
type IOError struct {
	Operation string
	Path      string
	Message   string
	Err       error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return e.Operation + ": " + e.Message
	}
	return e.Operation + " " + e.Path + ": " + e.Message
}

func (e *IOError) Unwrap() error { return e.Err }

// NewIOError creates an IOError whose message is err's text.
func NewIOError(operation, path string, err error) *IOError {
	return &IOError{Operation: operation, Path: path, Message: errText(err), Err: err}
}

// ResourceError is a failure to build or obtain something other than a
// file, such as a request or the merger itself.
type ResourceError struct {
	Operation string
	Resource  string
	ID        string
	Message   string
	Err       error
}

func (e *ResourceError) Error() string {
	target := e.Resource
	if e.ID != "" {
		target += " " + e.ID
	}
	return fmt.Sprintf("%s %s: %s", e.Operation, target, e.Message)
}

func (e *ResourceError) Unwrap() error { return e.Err }

// NewResourceError creates a ResourceError.
func NewResourceError(operation, resource, id string, err error) *ResourceError {
	return &ResourceError{Operation: operation, Resource: resource, ID: id, Message: errText(err), Err: err}
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
