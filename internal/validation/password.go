// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var (
	specialCharRegex = regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{};':"\\|,.<>\/?]`)
	phoneRegex       = regexp.MustCompile(`^[0-9]{7,15}$`)
	countryCodeRegex = regexp.MustCompile(`^\+[0-9]{1,4}$`)
)

// ValidatePassword checks if a password meets security requirements
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}
	if len(password) > 128 {
		return fmt.Errorf("password must not exceed 128 characters")
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasDigit {
		return fmt.Errorf("password must contain at least one digit")
	}
	if !specialCharRegex.MatchString(password) {
		return fmt.Errorf("password must contain at least one special character (!@#$%%^&*)")
	}
	return nil
}

// NormalizePhone strips spaces, dashes, dots and parentheses.
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '.', '(', ')':
			return -1
		}
		return r
	}, strings.TrimSpace(phone))
}

// ValidatePhone accepts 7 to 15 digits after normalization.
func ValidatePhone(phone string) error {
	if !phoneRegex.MatchString(NormalizePhone(phone)) {
		return fmt.Errorf("phone must contain 7 to 15 digits")
	}
	return nil
}

// ValidateCountryCode accepts a leading plus followed by 1 to 4 digits.
func ValidateCountryCode(code string) error {
	if !countryCodeRegex.MatchString(code) {
		return fmt.Errorf("country code must look like +1")
	}
	return nil
}
