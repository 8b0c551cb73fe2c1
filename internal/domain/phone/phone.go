package phone

import (
	"regexp"
	"strings"
)

// Kenyan mobile MSISDN: country code, a 7xx or 1xx network prefix, then 8 digits.
const countryCode = "254"

var msisdnPattern = regexp.MustCompile(`^254[71]\d{8}$`)

// Number is the result of normalising a raw phone input. Callers branch on
// Valid; an invalid number must never be handed to the payment gateway.
type Number struct {
	Raw        string
	Normalized string
	Valid      bool
}

// Normalize strips formatting from a raw phone input and coerces national
// forms ("0712...", "712...") into international form ("254712...").
// Inputs that fit no known national shape are kept as their bare digits and
// flagged invalid by the pattern check. Normalize never fails.
func Normalize(raw string) Number {
	digits := stripNonDigits(raw)

	var normalized string
	switch {
	case strings.HasPrefix(digits, countryCode):
		normalized = digits
	case strings.HasPrefix(digits, "0"):
		normalized = countryCode + digits[1:]
	case len(digits) == 9 && (digits[0] == '7' || digits[0] == '1'):
		normalized = countryCode + digits
	default:
		normalized = digits
	}

	return Number{
		Raw:        raw,
		Normalized: normalized,
		Valid:      IsValidMSISDN(normalized),
	}
}

// IsValidMSISDN reports whether s is a well-formed Kenyan mobile number in
// international form. This is the single gate applied before any network
// call that carries a phone number.
func IsValidMSISDN(s string) bool {
	return msisdnPattern.MatchString(s)
}

func stripNonDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
