package security

import (
	"fmt"
	"testing"
)

func TestSecret(t *testing.T) {
	s := NewSecret("session-token")

	if s.Empty() {
		t.Fatal("new secret should not be empty")
	}
	if s.Reveal() != "session-token" {
		t.Errorf("Reveal() = %q, want %q", s.Reveal(), "session-token")
	}
	if got := fmt.Sprintf("%v", s); got != "[redacted]" {
		t.Errorf("formatted secret = %q, want [redacted]", got)
	}
	if got := s.EnvVar("BW_SESSION"); got != "BW_SESSION=session-token" {
		t.Errorf("EnvVar() = %q", got)
	}

	backing := s.b
	s.Zero()

	if !s.Empty() || s.Reveal() != "" {
		t.Error("secret should be empty after Zero()")
	}
	for _, b := range backing {
		if b != 0 {
			t.Error("Zero() did not clear the backing array")
			break
		}
	}
}

func TestSecret_Empty(t *testing.T) {
	for name, s := range map[string]*Secret{"nil": nil, "blank": NewSecret("")} {
		t.Run(name, func(t *testing.T) {
			// None of these may panic.
			s.Zero()
			if !s.Empty() {
				t.Error("expected empty")
			}
			if s.String() != "" || s.Reveal() != "" {
				t.Error("empty secret should format as empty string")
			}
			if s.EnvVar("BW_SESSION") != "" {
				t.Error("empty secret must not produce an env entry")
			}
		})
	}
}

func TestWipe(t *testing.T) {
	data := []byte("sensitive")
	Wipe(data)
	for _, b := range data {
		if b != 0 {
			t.Error("Wipe did not zero the slice")
			break
		}
	}

	// nil input must not panic
	Wipe(nil)
}
