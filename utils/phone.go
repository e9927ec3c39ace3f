package utils

import (
	"errors"
	"strings"
)

// ErrInvalidPhone is returned for numbers that do not normalize to 11 digits.
var ErrInvalidPhone = errors.New("phone must contain 10 or 11 digits")

// NormalizePhone strips formatting and returns the number as 7XXXXXXXXXX.
// A leading 8 is replaced with 7; a ten-digit number gets 7 prepended.
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case len(digits) == 11 && (digits[0] == '7' || digits[0] == '8'):
		return "7" + digits[1:], nil
	case len(digits) == 10:
		return "7" + digits, nil
	}
	return "", ErrInvalidPhone
}

// FormatPhone renders a normalized number as +7 (XXX) XXX-XX-XX.
func FormatPhone(normalized string) string {
	if len(normalized) != 11 {
		return normalized
	}
	return "+7 (" + normalized[1:4] + ") " + normalized[4:7] + "-" + normalized[7:9] + "-" + normalized[9:11]
}
