package model

import (
	"fmt"
	"net/url"
)

// Defaults used when an otpauth URI omits period or digits.
const (
	DefaultTOTPPeriod = "30"
	DefaultTOTPDigits = "6"
)

// TOTPSeed is the TOTP configuration stored with a login.
type TOTPSeed struct {
	// Secret is the shared secret, usually base32.
	Secret string
	// Period is the time step in seconds, as written in the source.
	Period string
	// Digits is the code length, as written in the source.
	Digits string
}

// Settings renders the seed settings in the "period;digits" form read by
// KeePass TOTP plugins.
func (s *TOTPSeed) Settings() string {
	return fmt.Sprintf("%s;%s", s.Period, s.Digits)
}

// ParseTOTP parses a Bitwarden TOTP value. It accepts both otpauth:// URIs
// and bare secrets; anything without a secret query parameter is taken as
// the secret itself.
func ParseTOTP(raw string) *TOTPSeed {
	seed := &TOTPSeed{
		Secret: raw,
		Period: DefaultTOTPPeriod,
		Digits: DefaultTOTPDigits,
	}

	u, err := url.Parse(raw)
	if err != nil {
		return seed
	}

	params := u.Query()
	if v := params.Get("secret"); v != "" {
		seed.Secret = v
	}
	if v := params.Get("period"); v != "" {
		seed.Period = v
	}
	if v := params.Get("digits"); v != "" {
		seed.Digits = v
	}
	return seed
}
