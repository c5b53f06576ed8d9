// Package msisdn normalizes Zambian mobile numbers and detects the network
// operator from the national prefix.
package msisdn

import (
	"errors"
	"strings"
)

const countryCode = "260"

// ErrInvalid is returned for numbers that are not valid Zambian mobiles.
var ErrInvalid = errors.New("invalid phone number")

var operators = map[string]string{
	"95": "zamtel",
	"75": "zamtel",
	"96": "mtn",
	"76": "mtn",
	"97": "airtel",
	"77": "airtel",
}

// Normalize accepts +260…, 260…, 0… and bare nine digit forms, ignoring
// spaces, dashes, dots and parentheses, and returns the twelve digit
// 260XXXXXXXXX form.
func Normalize(raw string) (string, error) {
	var b strings.Builder
	for i, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '.' || r == '(' || r == ')':
		default:
			return "", ErrInvalid
		}
	}
	digits := b.String()

	var national string
	switch {
	case len(digits) == 12 && strings.HasPrefix(digits, countryCode):
		national = digits[3:]
	case len(digits) == 14 && strings.HasPrefix(digits, "00"+countryCode):
		national = digits[5:]
	case len(digits) == 10 && digits[0] == '0':
		national = digits[1:]
	case len(digits) == 9:
		national = digits
	default:
		return "", ErrInvalid
	}
	if _, ok := operators[national[:2]]; !ok {
		return "", ErrInvalid
	}
	return countryCode + national, nil
}

// Operator returns the network of a number, normalizing it first.
func Operator(raw string) (string, error) {
	n, err := Normalize(raw)
	if err != nil {
		return "", err
	}
	return operators[n[3:5]], nil
}

// Valid reports whether raw normalizes.
func Valid(raw string) bool {
	_, err := Normalize(raw)
	return err == nil
}

// Mask hides all but the last three digits, for logs.
func Mask(n string) string {
	if len(n) <= 3 {
		return n
	}
	return strings.Repeat("*", len(n)-3) + n[len(n)-3:]
}
