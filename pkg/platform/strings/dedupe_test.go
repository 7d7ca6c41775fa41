package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{name: "nil slice", input: nil, expected: nil},
		{name: "empty slice", input: []string{}, expected: []string{}},
		{
			name:     "trims and drops empties",
			input:    []string{"  queued ", "", "   ", "archived_public"},
			expected: []string{"queued", "archived_public"},
		},
		{
			name:     "first occurrence wins",
			input:    []string{"queued", "archived_public", "queued ", "archived_public"},
			expected: []string{"queued", "archived_public"},
		},
		{
			name:     "case is preserved",
			input:    []string{"Queued", "queued"},
			expected: []string{"Queued", "queued"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrim(tt.input))
		})
	}
}

func TestDedupeAndTrimLower(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{name: "nil slice", input: nil, expected: nil},
		{
			name:     "case folds before dedupe",
			input:    []string{" Queued", "QUEUED", "archived_public"},
			expected: []string{"queued", "archived_public"},
		},
		{
			name:     "whitespace only collapses away",
			input:    []string{"\t", " ", "exemption_void"},
			expected: []string{"exemption_void"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrimLower(tt.input))
		})
	}
}
