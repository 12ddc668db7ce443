package refdex

import (
	"fmt"
	"strings"
)

// FormatSources formats answer sources for display, one per line.
// Uses the passage title if available, falls back to the item ID.
// The heading path and similarity score are appended when present.
func FormatSources(results []SearchResult) string {
	if len(results) == 0 {
		return ""
	}

	parts := make([]string, 0, len(results))
	for i, r := range results {
		header := r.Passage.Title
		if header == "" {
			header = r.Passage.ItemID
		}
		line := fmt.Sprintf("%d. %s", i+1, header)
		if r.Passage.HeadingPath != "" {
			line += " (" + r.Passage.HeadingPath + ")"
		}
		line += fmt.Sprintf(" [%.2f]", r.Score)
		parts = append(parts, line)
	}

	return strings.Join(parts, "\n")
}
