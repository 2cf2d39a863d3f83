package keepass

import (
	"errors"
	"fmt"
)

var (
	// ErrReservedKey is returned when a custom property uses one of the
	// standard KeePass field names.
	ErrReservedKey = errors.New("custom property uses a reserved KeePass key")

	// ErrClosed is returned when the store is used after Close.
	ErrClosed = errors.New("keepass store closed")
)

// ErrAuthenticationFailed indicates a wrong password or key file.
type ErrAuthenticationFailed struct {
	Path string
	Err  error
}

func (e *ErrAuthenticationFailed) Error() string {
	msg := fmt.Sprintf("keepass: authentication failed for %q: incorrect password or key file", e.Path)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ErrAuthenticationFailed) Unwrap() error {
	return e.Err
}

// ErrInvalidFormat indicates a database or key file that cannot be decoded.
type ErrInvalidFormat struct {
	Path    string
	Details string
	Err     error
}

func (e *ErrInvalidFormat) Error() string {
	msg := fmt.Sprintf("keepass: invalid format for %q", e.Path)
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

// ErrGroupNotFound indicates a GroupRef that does not address a group.
type ErrGroupNotFound struct {
	Ref GroupRef
}

func (e *ErrGroupNotFound) Error() string {
	return fmt.Sprintf("keepass: no group at %v", []int(e.Ref))
}

// IsAuthError returns true if the error is an authentication error.
func IsAuthError(err error) bool {
	var authErr *ErrAuthenticationFailed
	return errors.As(err, &authErr)
}
