package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"Valid", "SecurePass12!@", false},
		{"Exactly Min Length", "Abcdef1!", false},
		{"Exactly Max Length", "A" + strings.Repeat("b", 125) + "1!", false},
		{"Too Short", "Sml1!", true},
		{"Too Long", "A" + strings.Repeat("b", 126) + "1!", true},
		{"No Upper", "securepass12!", true},
		{"No Lower", "SECUREPASS12!", true},
		{"No Digit", "SecurePass!!", true},
		{"No Special", "SecurePass123", true},
		{"Unicode Characters", "ÅngstromPass12!", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePhone(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		phone   string
		wantErr bool
	}{
		{"Plain digits", "5551234567", false},
		{"Formatted", "(555) 123-4567", false},
		{"Dotted", "555.123.4567", false},
		{"Too Short", "12345", true},
		{"Too Long", "1234567890123456", true},
		{"Letters", "555-CALL-NOW", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePhone(tt.phone)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "5551234567", NormalizePhone(" (555) 123-4567 "))
}

func TestValidateCountryCode(t *testing.T) {
	assert.NoError(t, ValidateCountryCode("+1"))
	assert.NoError(t, ValidateCountryCode("+971"))
	assert.Error(t, ValidateCountryCode("1"))
	assert.Error(t, ValidateCountryCode("+12345"))
}
