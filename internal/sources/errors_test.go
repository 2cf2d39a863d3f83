package sources

import (
	"errors"
	"strings"
	"testing"
)

func TestErrSourceNotFound(t *testing.T) {
	t.Run("Basic error", func(t *testing.T) {
		err := &ErrSourceNotFound{Path: "/path/to/file.xyz"}
		msg := err.Error()
		if !strings.Contains(msg, "/path/to/file.xyz") {
			t.Errorf("Error message should contain path: %s", msg)
		}
	})

	t.Run("With min confidence", func(t *testing.T) {
		err := &ErrSourceNotFound{Path: "/path/to/file", MinConfidence: 50}
		msg := err.Error()
		if !strings.Contains(msg, "50") {
			t.Errorf("Error message should contain confidence: %s", msg)
		}
	})
}

func TestErrInvalidFormat(t *testing.T) {
	t.Run("With details", func(t *testing.T) {
		err := &ErrInvalidFormat{
			Source:  "bitwarden",
			Path:    "/export.json",
			Details: "invalid JSON",
		}
		msg := err.Error()
		if !strings.Contains(msg, "bitwarden") || !strings.Contains(msg, "/export.json") {
			t.Errorf("Error message should contain source and path: %s", msg)
		}
		if !strings.Contains(msg, "invalid JSON") {
			t.Errorf("Error message should contain details: %s", msg)
		}
	})

	t.Run("With underlying error", func(t *testing.T) {
		underlying := errors.New("unexpected end of input")
		err := &ErrInvalidFormat{
			Source: "bw-cli",
			Path:   "bw list items",
			Err:    underlying,
		}
		if !strings.Contains(err.Error(), "unexpected end of input") {
			t.Errorf("Error message should contain underlying error: %s", err.Error())
		}
		if !errors.Is(err, underlying) {
			t.Error("errors.Is should find the underlying error")
		}
	})
}

func TestErrAuthenticationFailed(t *testing.T) {
	underlying := errors.New("exit status 1")
	err := &ErrAuthenticationFailed{
		Source: "bw-cli",
		Reason: "vault is locked",
		Err:    underlying,
	}
	msg := err.Error()
	if !strings.Contains(msg, "authentication failed") || !strings.Contains(msg, "vault is locked") {
		t.Errorf("Error message should mention authentication and reason: %s", msg)
	}
	if err.Unwrap() != underlying {
		t.Error("Unwrap should return underlying error")
	}
}

func TestErrPermissionDenied(t *testing.T) {
	underlying := errors.New("EACCES")
	err := &ErrPermissionDenied{
		Path: "/usr/local/bin/bw",
		Op:   "execute",
		Err:  underlying,
	}
	msg := err.Error()
	if !strings.Contains(msg, "permission denied") || !strings.Contains(msg, "execute") {
		t.Errorf("Error message should mention permission and operation: %s", msg)
	}
	if err.Unwrap() != underlying {
		t.Error("Unwrap should return underlying error")
	}
}

func TestErrCommandFailed(t *testing.T) {
	underlying := errors.New("exit status 1")
	err := &ErrCommandFailed{
		Command: "bw list items --nointeraction",
		Stderr:  "You are not logged in.",
		Err:     underlying,
	}
	msg := err.Error()
	for _, want := range []string{"bw list items", "exit status 1", "You are not logged in."} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error message should contain %q: %s", want, msg)
		}
	}
	if !errors.Is(err, underlying) {
		t.Error("errors.Is should find the underlying error")
	}
}

func TestErrFileNotFound(t *testing.T) {
	err := &ErrFileNotFound{Path: "/nonexistent/export.json"}
	msg := err.Error()
	if !strings.Contains(msg, "file not found") || !strings.Contains(msg, "/nonexistent/export.json") {
		t.Errorf("Error message should mention file not found and path: %s", msg)
	}
}

func TestErrUnsupportedFeature(t *testing.T) {
	err := &ErrUnsupportedFeature{Source: "bitwarden", Feature: "attachments"}
	msg := err.Error()
	if !strings.Contains(msg, "bitwarden") || !strings.Contains(msg, "attachments") {
		t.Errorf("Error message should contain source and feature: %s", msg)
	}
}

func TestErrorHelpers(t *testing.T) {
	other := errors.New("other error")

	t.Run("IsAuthError", func(t *testing.T) {
		if !IsAuthError(&ErrAuthenticationFailed{Source: "test"}) {
			t.Error("IsAuthError should return true for ErrAuthenticationFailed")
		}
		if IsAuthError(other) {
			t.Error("IsAuthError should return false for other errors")
		}
	})

	t.Run("IsFormatError", func(t *testing.T) {
		if !IsFormatError(&ErrInvalidFormat{Source: "test"}) {
			t.Error("IsFormatError should return true for ErrInvalidFormat")
		}
		if IsFormatError(other) {
			t.Error("IsFormatError should return false for other errors")
		}
	})

	t.Run("IsUnsupported", func(t *testing.T) {
		if !IsUnsupported(&ErrUnsupportedFeature{Source: "test", Feature: "x"}) {
			t.Error("IsUnsupported should return true for ErrUnsupportedFeature")
		}
		if IsUnsupported(other) {
			t.Error("IsUnsupported should return false for other errors")
		}
	})

	t.Run("IsNotFound", func(t *testing.T) {
		if !IsNotFound(&ErrFileNotFound{Path: "/test"}) {
			t.Error("IsNotFound should return true for ErrFileNotFound")
		}
		if !IsNotFound(&ErrSourceNotFound{Path: "/test"}) {
			t.Error("IsNotFound should return true for ErrSourceNotFound")
		}
		if IsNotFound(other) {
			t.Error("IsNotFound should return false for other errors")
		}
	})
}
