package actions

import (
	"time"

	"github.com/fieldkit/cascade/pkg/fieldpath"
	"github.com/fieldkit/cascade/pkg/formula"
	"github.com/fieldkit/cascade/pkg/template"
)

// Default record fields consulted when an action does not name an explicit
// recipient field.
var (
	defaultPhoneFields = []string{"phone", "mobile", "contact.phone", "contact.mobile"}
	defaultEmailFields = []string{"email", "contact.email"}
)

// resolveValue turns a configured value into a concrete one. String values
// are interpreted in order of specificity:
//
//   - "now" becomes the current timestamp,
//   - strings with {{...}} placeholders go through the formula evaluator
//     (which falls back to plain interpolation for non-arithmetic results),
//   - strings naming an existing field path resolve to that field's value,
//   - everything else is the literal itself.
func resolveValue(configured any, record map[string]any, now time.Time) any {
	text, isString := configured.(string)
	if !isString {
		return configured
	}

	if text == "now" {
		return now.UTC().Format(time.RFC3339)
	}

	if template.HasPlaceholders(text) {
		return formula.Evaluate(text, record)
	}

	if value, found := fieldpath.Resolve(record, text); found {
		return value
	}

	return text
}

// resolveRecipient finds who to contact: the explicitly configured field
// first, then the conventional fields for the channel.
func resolveRecipient(recipientField string, defaults []string, record map[string]any) string {
	if recipientField != "" {
		value, _ := fieldpath.Resolve(record, recipientField)

		return fieldpath.Stringify(value)
	}

	for _, field := range defaults {
		if value, found := fieldpath.Resolve(record, field); found {
			if s := fieldpath.Stringify(value); s != "" {
				return s
			}
		}
	}

	return ""
}

func stringConfig(config map[string]any, key string) string {
	value, _ := config[key].(string)

	return value
}

func numberConfig(config map[string]any, key string, fallback float64) float64 {
	value, ok := config[key]
	if !ok {
		return fallback
	}

	number, ok := fieldpath.Number(value)
	if !ok {
		return fallback
	}

	return number
}
