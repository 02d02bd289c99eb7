// Package normalize canonicalizes raw subject or document text into the
// single context string handed to the generation backend.
package normalize

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultMaxChars bounds the context size so it fits backend context
// windows. Matches the extraction bound used by the original document
// tooling.
const DefaultMaxChars = 50000

// TruncationMarker is appended whenever the context had to be cut.
const TruncationMarker = "[TEXT TRUNCATED - DOCUMENT CONTINUES...]"

// ErrEmptyInput is returned when normalization leaves nothing to analyze.
var ErrEmptyInput = errors.New("empty input: nothing to analyze")

var blankRuns = regexp.MustCompile(`\n{3,}`)

// Context trims the input, collapses runs of blank lines, and truncates to
// maxChars while preserving paragraph boundaries. maxChars <= 0 selects
// DefaultMaxChars.
func Context(raw string, maxChars int) (string, error) {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	s := strings.ReplaceAll(raw, "\r\n", "\n")

	// Strip per-line trailing whitespace so blank-ish lines collapse too.
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	s = strings.Join(lines, "\n")

	s = blankRuns.ReplaceAllString(s, "\n\n")
	s = strings.TrimSpace(s)

	if s == "" {
		return "", ErrEmptyInput
	}

	if len(s) > maxChars {
		cut := strings.LastIndex(s[:maxChars], "\n\n")
		if cut <= 0 {
			// No paragraph boundary in range: cut at the limit, backed up
			// to a rune boundary so the context stays valid UTF-8.
			cut = maxChars
			for cut > 0 && !utf8.RuneStart(s[cut]) {
				cut--
			}
		}
		s = strings.TrimSpace(s[:cut]) + "\n\n" + TruncationMarker
	}

	return s, nil
}
