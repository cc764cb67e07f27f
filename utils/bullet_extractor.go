package utils

import (
	"strings"
	"unicode/utf8"
)

// ExtractBulletSection returns the "- " bullet items that follow marker in an
// LLM response. Only the text between the first and second occurrence of the
// marker is read. A response without the marker yields nil.
//
// Markdown emphasis around the marker ("**Questions:**") is tolerated because
// only lines starting with "-" are kept.
func ExtractBulletSection(response, marker string) []string {
	parts := strings.SplitN(response, marker, 3)
	if len(parts) < 2 {
		return nil
	}

	var items []string
	for _, line := range strings.Split(parts[1], "\n") {
		line = strings.TrimSpace(line)
		// skip non-bullets and "---" rules
		if !strings.HasPrefix(line, "-") || strings.Trim(line, "-") == "" {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "-"))
		items = append(items, line)
	}
	return items
}

// FilterMinLength keeps items longer than minLen characters
func FilterMinLength(items []string, minLen int) []string {
	kept := make([]string, 0, len(items))
	for _, item := range items {
		if utf8.RuneCountInString(item) > minLen {
			kept = append(kept, item)
		}
	}
	return kept
}
