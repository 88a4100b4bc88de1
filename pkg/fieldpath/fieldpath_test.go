package fieldpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	record := map[string]any{
		"name":   "Acme Roofing",
		"amount": 1250.5,
		"contact": map[string]any{
			"firstName": "Jane",
			"address": map[string]any{
				"city": "Austin",
			},
		},
		"tags": []any{"roof", "repair"},
	}

	tests := []struct {
		name     string
		path     string
		expected any
		found    bool
	}{
		{name: "top-level field", path: "name", expected: "Acme Roofing", found: true},
		{name: "nested field", path: "contact.firstName", expected: "Jane", found: true},
		{name: "deeply nested field", path: "contact.address.city", expected: "Austin", found: true},
		{name: "numeric field", path: "amount", expected: 1250.5, found: true},
		{name: "missing top-level", path: "missing", expected: nil, found: false},
		{name: "missing nested", path: "contact.lastName", expected: nil, found: false},
		{name: "path through scalar", path: "name.first", expected: nil, found: false},
		{name: "path through slice", path: "tags.0", expected: nil, found: false},
		{name: "empty path", path: "", expected: nil, found: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			value, found := Resolve(record, tc.path)

			assert.Equal(t, tc.found, found)
			assert.Equal(t, tc.expected, value)
		})
	}
}

func TestResolve_NilRecord(t *testing.T) {
	value, found := Resolve(nil, "anything")

	assert.False(t, found)
	assert.Nil(t, value)
}

func TestStringify(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected string
	}{
		{name: "string", value: "hello", expected: "hello"},
		{name: "whole float", value: 200.0, expected: "200"},
		{name: "fractional float", value: 0.1, expected: "0.1"},
		{name: "int", value: 42, expected: "42"},
		{name: "bool", value: true, expected: "true"},
		{name: "nil", value: nil, expected: ""},
		{name: "map", value: map[string]any{"a": 1}, expected: `{"a":1}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Stringify(tc.value))
		})
	}
}

func TestNumber(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected float64
		ok       bool
	}{
		{name: "float64", value: 12.5, expected: 12.5, ok: true},
		{name: "int", value: 7, expected: 7, ok: true},
		{name: "numeric string", value: "33.25", expected: 33.25, ok: true},
		{name: "padded numeric string", value: " 10 ", expected: 10, ok: true},
		{name: "non-numeric string", value: "open", expected: 0, ok: false},
		{name: "nil", value: nil, expected: 0, ok: false},
		{name: "bool", value: true, expected: 0, ok: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f, ok := Number(tc.value)

			assert.Equal(t, tc.ok, ok)
			assert.InDelta(t, tc.expected, f, 1e-9)
		})
	}
}
