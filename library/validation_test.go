package library

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateTaxID(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"12345678000195", true},
		{"12.345.678/0001-95", true},
		{" 12 345 678 0001 95 ", true},
		{"1234567800019", false},
		{"123456780001950", false},
		{"", false},
		{"abcdefghijklmn", false},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			assert.Equal(t, c.want, ValidateTaxID(c.in))
		})
	}
}

func TestValidateTaxIDRejectsRepeatedDigit(t *testing.T) {
	for d := '0'; d <= '9'; d++ {
		s := strings.Repeat(string(d), 14)
		assert.False(t, ValidateTaxID(s), s)
	}
	assert.False(t, ValidateTaxID("11.111.111/1111-11"))
}

func TestValidateTaxIDIgnoresSeparators(t *testing.T) {
	assert.Equal(t, ValidateTaxID("12345678000195"), ValidateTaxID("12.345.678/0001-95"))
	assert.Equal(t, "12345678000195", DigitsOnly("12.345.678/0001-95"))
}

func TestValidateEmail(t *testing.T) {
	valid := []string{"a@b.co", "first.last+tag@mail.example.com", "X_Y%z@domain.org"}
	invalid := []string{"", "plain", "a@b", "a@b.c", "a b@c.com", "@example.com", "a@.com.", "a@exa mple.com"}
	for _, s := range valid {
		assert.True(t, ValidateEmail(s), s)
	}
	for _, s := range invalid {
		assert.False(t, ValidateEmail(s), s)
	}
}

func TestValidatePhone(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"123456789", false},
		{"1134567890", true},
		{"(11) 3456-7890", true},
		{"11987654321", true},
		{"+55 (11) 98765-4321", false},
		{"119876543210", false},
		{"", false},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			assert.Equal(t, c.want, ValidatePhone(c.in))
		})
	}
}
