// Package template provides placeholder interpolation for dynamic action configuration.
package template

import (
	"regexp"
	"strings"

	"github.com/fieldkit/cascade/pkg/fieldpath"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_.]+)\s*\}\}`)

// Interpolate replaces every {{field.path}} occurrence in input with the
// record value at that path. Placeholders whose path does not resolve are
// left untouched so that a missing field is visible in the rendered output
// instead of silently becoming an empty string.
func Interpolate(input string, record map[string]any) string {
	if input == "" || !strings.Contains(input, "{{") {
		return input
	}

	return placeholderPattern.ReplaceAllStringFunc(input, func(match string) string {
		path := placeholderPattern.FindStringSubmatch(match)[1]

		value, found := fieldpath.Resolve(record, path)
		if !found {
			return match
		}

		return fieldpath.Stringify(value)
	})
}

// HasPlaceholders reports whether input contains at least one {{...}} placeholder.
func HasPlaceholders(input string) bool {
	return placeholderPattern.MatchString(input)
}
