package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"edge-gate/internal/domain"
)

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{
			name:     "Plain text untouched",
			input:    "capinha iphone 15",
			maxLen:   100,
			expected: "capinha iphone 15",
		},
		{
			name:     "Strips quotes and semicolons",
			input:    `ab'c";d`,
			maxLen:   100,
			expected: "abcd",
		},
		{
			name:     "Strips SQL comment markers",
			input:    "valor--drop/*x*/",
			maxLen:   100,
			expected: "valordropx",
		},
		{
			name:     "Trims whitespace",
			input:    "  email@exemplo.com  ",
			maxLen:   100,
			expected: "email@exemplo.com",
		},
		{
			name:     "Caps length",
			input:    "abcdefghij",
			maxLen:   4,
			expected: "abcd",
		},
		{
			name:     "Zero max means no cap",
			input:    "abcdefghij",
			maxLen:   0,
			expected: "abcdefghij",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeText(tt.input, tt.maxLen))
		})
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    int64
		expectError bool
	}{
		{name: "Valid id", input: "42", expected: 42},
		{name: "Valid id with spaces", input: " 7 ", expected: 7},
		{name: "Zero is rejected", input: "0", expectError: true},
		{name: "Negative is rejected", input: "-3", expectError: true},
		{name: "Non numeric is rejected", input: "abc", expectError: true},
		{name: "Injection attempt is rejected", input: "1; DROP TABLE", expectError: true},
		{name: "Empty is rejected", input: "", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ParseID(tt.input)
			if tt.expectError {
				assert.ErrorIs(t, err, domain.ErrInvalidIdentifier)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, id)
			}
		})
	}
}
