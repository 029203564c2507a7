package utils

import (
	"regexp"
	"strings"
)

var controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)

// SanitizeString trims s and removes control characters
func SanitizeString(s string) string {
	return strings.TrimSpace(controlChars.ReplaceAllString(s, ""))
}

// SplitList parses a comma separated header value into its sanitized,
// non-empty, de-duplicated entries in first-seen order
func SplitList(value string) []string {
	if value == "" {
		return nil
	}

	seen := make(map[string]bool)
	var out []string
	for _, part := range strings.Split(value, ",") {
		item := SanitizeString(part)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}
