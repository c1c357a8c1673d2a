package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{
			name:     "iso",
			input:    "2025-01-15",
			expected: "2025-01-15",
			ok:       true,
		},
		{
			name:     "slash month first",
			input:    "01/18/2025",
			expected: "2025-01-18",
			ok:       true,
		},
		{
			name:     "slash single digits",
			input:    "1/5/2025",
			expected: "2025-01-05",
			ok:       true,
		},
		{
			name:     "day first dash",
			input:    "18-01-2025",
			expected: "2025-01-18",
			ok:       true,
		},
		{
			name:     "text month",
			input:    "Jan 19 2025",
			expected: "2025-01-19",
			ok:       true,
		},
		{
			name:     "text month with comma",
			input:    "Feb 15, 2025",
			expected: "2025-02-15",
			ok:       true,
		},
		{
			name:     "day before text month",
			input:    "15 Feb 2025",
			expected: "2025-02-15",
			ok:       true,
		},
		{
			name:     "full month name",
			input:    "January 3, 2025",
			expected: "2025-01-03",
			ok:       true,
		},
		{
			name:     "surrounding whitespace",
			input:    "  2025-01-15  ",
			expected: "2025-01-15",
			ok:       true,
		},
		{
			name:  "garbage",
			input: "not a date",
			ok:    false,
		},
		{
			name:  "empty",
			input: "",
			ok:    false,
		},
		{
			name:  "bare number",
			input: "20250115",
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, ok := ParseDate(tt.input)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, parsed.Format(DateLayout))
			}
		})
	}
}
