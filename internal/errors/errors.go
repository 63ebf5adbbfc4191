// Package errors provides the error taxonomy for cocoprune. It defines
// typed errors for each failure kind of an annotation cleaning run, sentinel
// errors for matching with errors.Is, and classification helpers.
//
// # Error Types
//
//   - FileNotFoundError: the source annotation file does not exist
//   - ParseError: the source is not valid JSON or has the wrong shape
//   - MissingFieldError: a required key is absent from the document
//   - WriteError: the destination could not be written
//   - ArgumentError: malformed command-line input (e.g. category IDs)
//
// # Usage
//
//	err := errors.NewMissingFieldError("annotations").WithPath("train.json")
//
//	if errors.Is(err, errors.ErrMissingField) { ... }
//
//	var missing *errors.MissingFieldError
//	if errors.As(err, &missing) { ... }
//
// Every error renders as a single line so the command line can print it
// verbatim on stderr.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is  = errors.Is
	As  = errors.As
	New = errors.New
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityWarning is for errors caused by user input.
	SeverityWarning Severity = iota
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that may leave the filesystem in a bad state.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

var (
	// ErrFileNotFound indicates that the source annotation file does not exist.
	ErrFileNotFound = New("file not found")
	// ErrInvalidJSON indicates that the source content could not be parsed.
	ErrInvalidJSON = New("invalid JSON")
	// ErrMissingField indicates that a required field is absent.
	ErrMissingField = New("missing required field")
	// ErrWriteFailed indicates that the output file could not be written.
	ErrWriteFailed = New("write failed")
	// ErrInvalidArgument indicates malformed command-line input.
	ErrInvalidArgument = New("invalid argument")
)

// -----------------------------------------------------------------------------
// Base Error
// -----------------------------------------------------------------------------

// CocoError is implemented by every error in this package.
type CocoError interface {
	error
	Unwrap() error
	Severity() Severity
}

type baseError struct {
	message  string
	cause    error
	severity Severity
}

func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *baseError) Unwrap() error {
	return e.cause
}

func (e *baseError) Severity() Severity {
	return e.severity
}

// is matches the cause chain. Sentinel matching is handled by each type.
func (e *baseError) is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

func (e *baseError) withCause(suffix string) string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", suffix, e.cause)
	}
	return suffix
}

// -----------------------------------------------------------------------------
// FileNotFoundError
// -----------------------------------------------------------------------------

// FileNotFoundError reports a missing source annotation file.
//
// Example:
//
//	err := errors.NewFileNotFoundError("annotations.json")
//	fmt.Println(err) // "annotation file not found: annotations.json"
type FileNotFoundError struct {
	baseError
	Path string
}

// NewFileNotFoundError creates a new FileNotFoundError.
func NewFileNotFoundError(path string) *FileNotFoundError {
	return &FileNotFoundError{
		baseError: baseError{
			message:  "annotation file not found",
			severity: SeverityWarning,
		},
		Path: path,
	}
}

// Error returns the formatted error message.
func (e *FileNotFoundError) Error() string {
	return e.withCause(fmt.Sprintf("%s: %s", e.message, e.Path))
}

// Is checks if this error matches the target.
func (e *FileNotFoundError) Is(target error) bool {
	if _, ok := target.(*FileNotFoundError); ok {
		return true
	}
	if target == ErrFileNotFound {
		return true
	}
	return e.is(target)
}

// -----------------------------------------------------------------------------
// ParseError
// -----------------------------------------------------------------------------

// ParseError reports source content that is not valid JSON, or JSON whose
// structure cannot hold a COCO document.
//
// Example:
//
//	err := errors.NewParseError("invalid JSON file", jsonErr).WithPath("a.json").WithOffset(17)
type ParseError struct {
	baseError
	Path   string
	Offset int64 // -1 when unknown
}

// NewParseError creates a new ParseError.
func NewParseError(message string, cause error) *ParseError {
	return &ParseError{
		baseError: baseError{
			message:  message,
			cause:    cause,
			severity: SeverityError,
		},
		Offset: -1,
	}
}

// WithPath adds the source path to the error context.
func (e *ParseError) WithPath(path string) *ParseError {
	e.Path = path
	return e
}

// WithOffset adds the byte offset at which parsing failed.
func (e *ParseError) WithOffset(offset int64) *ParseError {
	e.Offset = offset
	return e
}

// Error returns the formatted error message.
func (e *ParseError) Error() string {
	var parts []string
	if e.Path != "" {
		parts = append(parts, fmt.Sprintf("file=%s", e.Path))
	}
	if e.Offset >= 0 {
		parts = append(parts, fmt.Sprintf("offset=%d", e.Offset))
	}

	msg := e.message
	if len(parts) > 0 {
		msg = fmt.Sprintf("%s [%s]", msg, strings.Join(parts, ", "))
	}
	return e.withCause(msg)
}

// Is checks if this error matches the target.
func (e *ParseError) Is(target error) bool {
	if _, ok := target.(*ParseError); ok {
		return true
	}
	if target == ErrInvalidJSON {
		return true
	}
	return e.is(target)
}

// -----------------------------------------------------------------------------
// MissingFieldError
// -----------------------------------------------------------------------------

// MissingFieldError reports a required key that is absent from the document.
// Field is a path such as "annotations" or "categories[3].id".
//
// Example:
//
//	err := errors.NewMissingFieldError("categories")
//	fmt.Println(err) // "'categories' field not found in annotation file"
type MissingFieldError struct {
	baseError
	Field string
	Path  string
}

// NewMissingFieldError creates a new MissingFieldError.
func NewMissingFieldError(field string) *MissingFieldError {
	return &MissingFieldError{
		baseError: baseError{
			message:  fmt.Sprintf("'%s' field not found in annotation file", field),
			severity: SeverityError,
		},
		Field: field,
	}
}

// WithPath adds the source path to the error context.
func (e *MissingFieldError) WithPath(path string) *MissingFieldError {
	e.Path = path
	return e
}

// Error returns the formatted error message.
func (e *MissingFieldError) Error() string {
	if e.Path != "" {
		return e.withCause(fmt.Sprintf("%s [file=%s]", e.message, e.Path))
	}
	return e.withCause(e.message)
}

// Is checks if this error matches the target.
func (e *MissingFieldError) Is(target error) bool {
	if _, ok := target.(*MissingFieldError); ok {
		return true
	}
	if target == ErrMissingField {
		return true
	}
	return e.is(target)
}

// -----------------------------------------------------------------------------
// WriteError
// -----------------------------------------------------------------------------

// WriteError reports a destination that could not be written.
//
// Example:
//
//	err := errors.NewWriteError("out.json", osErr)
//	fmt.Println(err) // "failed to write output file out.json: permission denied"
type WriteError struct {
	baseError
	Path string
}

// NewWriteError creates a new WriteError.
func NewWriteError(path string, cause error) *WriteError {
	return &WriteError{
		baseError: baseError{
			message:  "failed to write output file",
			cause:    cause,
			severity: SeverityCritical,
		},
		Path: path,
	}
}

// Error returns the formatted error message.
func (e *WriteError) Error() string {
	if e.Path == "" {
		return e.withCause(e.message)
	}
	return e.withCause(fmt.Sprintf("%s %s", e.message, e.Path))
}

// Is checks if this error matches the target.
func (e *WriteError) Is(target error) bool {
	if _, ok := target.(*WriteError); ok {
		return true
	}
	if target == ErrWriteFailed {
		return true
	}
	return e.is(target)
}

// -----------------------------------------------------------------------------
// ArgumentError
// -----------------------------------------------------------------------------

// ArgumentError reports malformed command-line input.
//
// Example:
//
//	err := errors.NewArgumentError("category IDs must be integers separated by commas").
//		WithArgument("category_ids").WithValue("x,2")
type ArgumentError struct {
	baseError
	Argument string
	Value    string
}

// NewArgumentError creates a new ArgumentError.
func NewArgumentError(message string) *ArgumentError {
	return &ArgumentError{
		baseError: baseError{
			message:  message,
			severity: SeverityWarning,
		},
	}
}

// WithArgument names the offending argument.
func (e *ArgumentError) WithArgument(name string) *ArgumentError {
	e.Argument = name
	return e
}

// WithValue records the offending value.
func (e *ArgumentError) WithValue(value string) *ArgumentError {
	e.Value = value
	return e
}

// Error returns the formatted error message. The argument name and value
// are kept out of the message so it matches what users typed against.
func (e *ArgumentError) Error() string {
	return e.withCause(e.message)
}

// Is checks if this error matches the target.
func (e *ArgumentError) Is(target error) bool {
	if _, ok := target.(*ArgumentError); ok {
		return true
	}
	if target == ErrInvalidArgument {
		return true
	}
	return e.is(target)
}

// -----------------------------------------------------------------------------
// Classification Helpers
// -----------------------------------------------------------------------------

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement CocoError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityWarning
	}
	var cocoErr CocoError
	if As(err, &cocoErr) {
		return cocoErr.Severity()
	}
	return SeverityError
}

// Wrap wraps an error with additional context message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// SingleLine flattens an error message onto one line for terminal output.
func SingleLine(err error) string {
	if err == nil {
		return ""
	}
	return strings.Join(strings.Fields(strings.ReplaceAll(err.Error(), "\n", " ")), " ")
}
