package library

import (
	"regexp"
	"strings"
)

const taxIDLength = 14

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// DigitsOnly drops every character that is not an ASCII digit.
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidateTaxID reports whether s is a well-formed CNPJ: 14 digits once
// separators are removed, not all of them the same digit. Check digits are not
// verified.
func ValidateTaxID(s string) bool {
	digits := DigitsOnly(s)
	if len(digits) != taxIDLength {
		return false
	}
	return strings.Count(digits, digits[:1]) != taxIDLength
}

// ValidateEmail matches s against a conservative local@domain.tld pattern.
func ValidateEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidatePhone accepts fixed-line (10 digits) and mobile (11 digits) numbers
// including the area code.
func ValidatePhone(s string) bool {
	n := len(DigitsOnly(s))
	return n == 10 || n == 11
}
