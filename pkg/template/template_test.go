package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterpolate(t *testing.T) {
	record := map[string]any{
		"amount": 200.0,
		"stage":  "CLOSED_WON",
		"contact": map[string]any{
			"firstName": "Jane",
			"phone":     "+15125550100",
		},
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "single placeholder",
			input:    "Hi {{contact.firstName}}",
			expected: "Hi Jane",
		},
		{
			name:     "multiple placeholders",
			input:    "{{contact.firstName}} moved to {{stage}}",
			expected: "Jane moved to CLOSED_WON",
		},
		{
			name:     "numeric value renders without decimal",
			input:    "Total: {{amount}}",
			expected: "Total: 200",
		},
		{
			name:     "unresolved placeholder left intact",
			input:    "Hi {{contact.lastName}}",
			expected: "Hi {{contact.lastName}}",
		},
		{
			name:     "placeholder with surrounding spaces",
			input:    "Hi {{ contact.firstName }}",
			expected: "Hi Jane",
		},
		{
			name:     "no placeholders",
			input:    "plain text",
			expected: "plain text",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Interpolate(tc.input, record))
		})
	}
}

func TestInterpolate_EmptyRecord(t *testing.T) {
	result := Interpolate("Hi {{contact.firstName}}", map[string]any{})

	assert.Equal(t, "Hi {{contact.firstName}}", result)
}

func TestHasPlaceholders(t *testing.T) {
	assert.True(t, HasPlaceholders("{{amount}} * 0.1"))
	assert.False(t, HasPlaceholders("200 * 0.1"))
}
