// Package lifter maps rows produced by internal/parser into the typed
// entities of internal/model, one lifter function per plugin class.
// Column lookups are tolerant of the several casings a plugin's
// renderer may emit for the same field.
package lifter

import "strings"

// firstNonEmpty returns the first non-blank value found under any of
// keys, trimmed, or "" if none match.
func firstNonEmpty(row map[string]string, keys ...string) string {
	for _, k := range keys {
		if v, ok := row[k]; ok {
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

// optionalString returns the trimmed value, or "" (meaning "unset").
func optionalString(row map[string]string, keys ...string) string {
	return firstNonEmpty(row, keys...)
}

func toUpper(s string) string {
	return strings.ToUpper(s)
}
