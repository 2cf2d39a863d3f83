package security

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Limits on vault data written into the KeePass database.
const (
	MaxTitleLength      = 1024
	MaxUsernameLength   = 512
	MaxPasswordLength   = 1024
	MaxURLLength        = 2048
	MaxNotesLength      = 65536
	MaxCustomFieldKey   = 256
	MaxCustomFieldValue = 8192
	MaxFolderNameLength = 2048
	MaxAttachmentSize   = 100 * 1024 * 1024 // 100 MB
	MaxAttachmentCount  = 100
	MaxItemCount        = 100000
)

// LimitError reports a value over one of the limits.
type LimitError struct {
	What string
	Size int
	Max  int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%s is too large: %d (max %d)", e.What, e.Size, e.Max)
}

// IsLimitError reports whether err is or wraps a *LimitError.
func IsLimitError(err error) bool {
	var le *LimitError
	return errors.As(err, &le)
}

// CheckLength fails when s is longer than max bytes.
func CheckLength(what, s string, max int) error {
	if len(s) > max {
		return &LimitError{What: what, Size: len(s), Max: max}
	}
	return nil
}

// CheckURL bounds a login URI and rejects NUL bytes, which cannot be
// stored in the KDBX XML payload.
func CheckURL(uri string) error {
	if err := CheckLength("URL", uri, MaxURLLength); err != nil {
		return err
	}
	if strings.ContainsRune(uri, 0) {
		return fmt.Errorf("URL contains null byte")
	}
	return nil
}

// CheckAttachment bounds the size of one attachment.
func CheckAttachment(name string, size int) error {
	if size < 0 {
		return fmt.Errorf("attachment %q has a negative size", name)
	}
	if size > MaxAttachmentSize {
		return &LimitError{What: fmt.Sprintf("attachment %q", name), Size: size, Max: MaxAttachmentSize}
	}
	return nil
}

// CheckItemCount bounds the number of items in one vault.
func CheckItemCount(n int) error {
	if n > MaxItemCount {
		return &LimitError{What: "item count", Size: n, Max: MaxItemCount}
	}
	return nil
}

var executableExts = map[string]bool{
	".exe": true, ".dll": true, ".so": true, ".dylib": true,
	".sh": true, ".bat": true, ".cmd": true, ".ps1": true,
	".app": true, ".deb": true, ".rpm": true, ".msi": true,
	".vbs": true, ".js": true, ".jar": true, ".apk": true,
}

// IsExecutable reports whether an attachment name carries an extension that
// some platform runs or installs on open.
func IsExecutable(name string) bool {
	return executableExts[strings.ToLower(filepath.Ext(name))]
}
