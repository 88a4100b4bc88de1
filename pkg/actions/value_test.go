package actions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolveValue(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	record := map[string]any{
		"amount": 200.0,
		"stage":  "CLOSED_WON",
		"contact": map[string]any{
			"firstName": "Jane",
		},
	}

	tests := []struct {
		name       string
		configured any
		expected   any
	}{
		{name: "now keyword", configured: "now", expected: "2025-06-01T12:00:00Z"},
		{name: "formula", configured: "{{amount}} * 0.1", expected: 20.0},
		{name: "template string", configured: "Deal for {{contact.firstName}}", expected: "Deal for Jane"},
		{name: "field path", configured: "contact.firstName", expected: "Jane"},
		{name: "literal string", configured: "manual review", expected: "manual review"},
		{name: "literal number", configured: 42.0, expected: 42.0},
		{name: "literal bool", configured: true, expected: true},
		{name: "nil", configured: nil, expected: nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, resolveValue(tc.configured, record, now))
		})
	}
}

func TestResolveRecipient(t *testing.T) {
	record := map[string]any{
		"phone": "+15125550100",
		"contact": map[string]any{
			"email": "jane@example.com",
			"phone": "+15125550199",
		},
	}

	tests := []struct {
		name     string
		field    string
		defaults []string
		expected string
	}{
		{name: "explicit field wins", field: "contact.phone", defaults: defaultPhoneFields, expected: "+15125550199"},
		{name: "phone default order", field: "", defaults: defaultPhoneFields, expected: "+15125550100"},
		{name: "email default nested", field: "", defaults: defaultEmailFields, expected: "jane@example.com"},
		{name: "explicit missing field resolves empty", field: "owner.phone", defaults: defaultPhoneFields, expected: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, resolveRecipient(tc.field, tc.defaults, record))
		})
	}
}
