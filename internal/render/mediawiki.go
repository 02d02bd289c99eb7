package render

import (
	"regexp"
	"strings"
)

var mdHeading = regexp.MustCompile(`^(#+)\s*(.*)$`)

// ToMediaWiki converts Markdown headings to MediaWiki heading markup:
// "## Title" becomes "== Title ==". Non-heading lines pass through
// unchanged.
func ToMediaWiki(markdown string) string {
	lines := strings.Split(markdown, "\n")
	for i, line := range lines {
		m := mdHeading.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		level := strings.Repeat("=", len(m[1]))
		lines[i] = level + " " + strings.TrimSpace(m[2]) + " " + level
	}
	return strings.Join(lines, "\n")
}
