// Package security guards the secrets a migration holds for the length of a
// run and bounds the vault data written into the KeePass database.
package security

import "crypto/subtle"

// Secret is a credential held for a whole run: the bw session key or the
// KeePass master password. A nil Secret is empty.
type Secret struct {
	b []byte
}

// NewSecret copies s. The string itself cannot be cleared; callers should
// drop their reference.
func NewSecret(s string) *Secret {
	return &Secret{b: []byte(s)}
}

// Empty reports whether the secret holds nothing.
func (s *Secret) Empty() bool {
	return s == nil || len(s.b) == 0
}

// Reveal returns the secret in clear for APIs that only take strings.
func (s *Secret) Reveal() string {
	if s == nil {
		return ""
	}
	return string(s.b)
}

// String keeps secrets out of logs and error messages.
func (s *Secret) String() string {
	if s.Empty() {
		return ""
	}
	return "[redacted]"
}

// EnvVar formats the secret as a KEY=value environment entry, or "" when
// empty so that no blank variable shadows the parent environment.
func (s *Secret) EnvVar(key string) string {
	if s.Empty() {
		return ""
	}
	return key + "=" + string(s.b)
}

// Zero clears the secret.
func (s *Secret) Zero() {
	if s == nil {
		return
	}
	Wipe(s.b)
	s.b = nil
}

// Wipe zeroes b in place.
func Wipe(b []byte) {
	if len(b) == 0 {
		return
	}
	// ConstantTimeCopy keeps the compiler from dropping the clear.
	subtle.ConstantTimeCopy(1, b, make([]byte, len(b)))
}
