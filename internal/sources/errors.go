package sources

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors that can be returned by source adapters.
var (
	// ErrNotOpen is returned when records are requested before Open.
	ErrNotOpen = errors.New("source not open")

	// ErrAlreadyOpen is returned when Open is called on an already-open source.
	ErrAlreadyOpen = errors.New("source already open")
)

// ErrSourceNotFound indicates that no source adapter could handle the given path.
type ErrSourceNotFound struct {
	Path          string
	MinConfidence int
}

func (e *ErrSourceNotFound) Error() string {
	if e.MinConfidence > 0 {
		return fmt.Sprintf("no source found for %q with confidence >= %d", e.Path, e.MinConfidence)
	}
	return fmt.Sprintf("no source found for %q", e.Path)
}

// ErrInvalidFormat indicates that the source data has an invalid or unexpected format.
type ErrInvalidFormat struct {
	Source  string // Source adapter name
	Path    string // File path
	Details string // What was wrong
	Err     error  // Underlying error, if any
}

func (e *ErrInvalidFormat) Error() string {
	msg := fmt.Sprintf("%s: invalid format for %q", e.Source, e.Path)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ErrInvalidFormat) Unwrap() error {
	return e.Err
}

// ErrAuthenticationFailed indicates that the vault is locked or the session
// key was rejected.
type ErrAuthenticationFailed struct {
	Source string // Source adapter name
	Reason string // Why authentication failed
	Err    error  // Underlying error, if any
}

func (e *ErrAuthenticationFailed) Error() string {
	msg := fmt.Sprintf("%s: authentication failed", e.Source)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ErrAuthenticationFailed) Unwrap() error {
	return e.Err
}

// ErrPermissionDenied indicates a file access permission issue.
type ErrPermissionDenied struct {
	Path string
	Op   string // Operation that failed (read, exec, etc.)
	Err  error  // Underlying error
}

func (e *ErrPermissionDenied) Error() string {
	msg := fmt.Sprintf("permission denied: cannot %s %q", e.Op, e.Path)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ErrPermissionDenied) Unwrap() error {
	return e.Err
}

// ErrCommandFailed indicates that an external command exited unsuccessfully.
type ErrCommandFailed struct {
	Command string // Command line without secrets
	Stderr  string // Trimmed standard error output
	Err     error  // Underlying exec error
}

func (e *ErrCommandFailed) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("command %q failed", e.Command))
	if e.Err != nil {
		sb.WriteString(": " + e.Err.Error())
	}
	if e.Stderr != "" {
		sb.WriteString(": " + e.Stderr)
	}
	return sb.String()
}

func (e *ErrCommandFailed) Unwrap() error {
	return e.Err
}

// ErrFileNotFound indicates the specified file does not exist.
type ErrFileNotFound struct {
	Path string
}

func (e *ErrFileNotFound) Error() string {
	return fmt.Sprintf("file not found: %q", e.Path)
}

// ErrUnsupportedFeature indicates a feature is not supported by the source.
type ErrUnsupportedFeature struct {
	Source  string
	Feature string
}

func (e *ErrUnsupportedFeature) Error() string {
	return fmt.Sprintf("%s: unsupported feature: %s", e.Source, e.Feature)
}

// IsAuthError returns true if the error is an authentication error.
func IsAuthError(err error) bool {
	var authErr *ErrAuthenticationFailed
	return errors.As(err, &authErr)
}

// IsFormatError returns true if the error is a format error.
func IsFormatError(err error) bool {
	var formatErr *ErrInvalidFormat
	return errors.As(err, &formatErr)
}

// IsUnsupported returns true if the error is an unsupported feature error.
func IsUnsupported(err error) bool {
	var unsupported *ErrUnsupportedFeature
	return errors.As(err, &unsupported)
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	var notFoundErr *ErrFileNotFound
	var sourceNotFoundErr *ErrSourceNotFound
	return errors.As(err, &notFoundErr) || errors.As(err, &sourceNotFoundErr)
}
