// README: Phone normalisation and validation on top of libphonenumber.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// defaultRegion is applied to numbers written without a leading "+".
// The service targets the Russian market; international input keeps working
// because a "+"-prefixed number carries its own country code.
const defaultRegion = "RU"

const minSignificantDigits = 6

// Normalize returns the display form of a phone number, e.g.
// "+79123456789" -> "+7 912 345-67-89". Input that libphonenumber cannot
// parse (or parses as invalid) is reduced to its significant characters:
// digits plus a single leading "+". Normalize is idempotent and never panics.
func Normalize(raw string) string {
	cleaned := clean(raw)
	if cleaned == "" {
		return cleaned
	}
	num, err := phonenumbers.Parse(cleaned, defaultRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return cleaned
	}
	return phonenumbers.Format(num, phonenumbers.INTERNATIONAL)
}

// IsValid reports whether raw looks like a dialable phone number.
// Malformed input yields false, never an error.
func IsValid(raw string) bool {
	cleaned := clean(raw)
	if digitCount(cleaned) < minSignificantDigits {
		return false
	}
	num, err := phonenumbers.Parse(cleaned, defaultRegion)
	if err != nil {
		return false
	}
	return phonenumbers.IsValidNumber(num)
}

// clean strips everything except digits and a single leading "+".
func clean(raw string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if strings.HasPrefix(strings.TrimSpace(raw), "+") && digits != "" {
		return "+" + digits
	}
	return digits
}

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
