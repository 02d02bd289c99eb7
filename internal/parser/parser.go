// Package parser extracts a category graph from the raw text produced by a
// generation backend. The grammar is deliberately lenient and line oriented:
// model output drifts in formatting, so the parser accumulates every
// well-formed object and morphism it can find and records the rest as
// diagnostics instead of failing.
package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/trondarild/categen/internal/category"
)

// NoObjectsError is returned when zero objects were recovered from the text.
// A category requires at least one object by convention, so there is nothing
// downstream components could work with. Raw carries the full backend output
// for manual inspection.
type NoObjectsError struct {
	Raw string
}

func (e *NoObjectsError) Error() string {
	return "no objects found in generated text"
}

type section int

const (
	sectionNone section = iota
	sectionObjects
	sectionMorphisms
	sectionChains
)

var (
	enumerator   = regexp.MustCompile(`^\d+[.)]\s+`)
	objectName   = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_' \-]*$`)
	categoryName = regexp.MustCompile(`(?i)^category(?:\s+name)?\s*:\s*(.+)$`)
)

// Parse scans raw backend text for the Objects, Morphisms, and optional
// Sorted-chains sections and assembles an unvalidated Category. Malformed
// lines inside a recognized section are collected in Category.Unparsed,
// never escalated to errors. The only failure mode is NoObjectsError.
func Parse(raw string) (*category.Category, error) {
	cat := &category.Category{}
	seen := make(map[string]bool)
	sec := sectionNone

	for i, line := range strings.Split(raw, "\n") {
		text := cleanLine(line)
		if text == "" {
			continue
		}

		if cat.Name == "" {
			if m := categoryName.FindStringSubmatch(text); m != nil {
				cat.Name = strings.TrimSpace(m[1])
				continue
			}
		}

		if next, rest, ok := sectionHeader(text); ok {
			sec = next
			if rest == "" {
				continue
			}
			text = rest
		}

		switch sec {
		case sectionObjects:
			if obj, ok := parseObject(text); ok {
				cat.Objects = append(cat.Objects, obj)
			} else {
				cat.Unparsed = append(cat.Unparsed, fmt.Sprintf("line %d: %s", i+1, text))
			}
		case sectionMorphisms:
			if m, ok := parseMorphism(text); ok {
				if !seen[m.Key()] {
					seen[m.Key()] = true
					cat.Morphisms = append(cat.Morphisms, m)
				}
			} else {
				cat.Unparsed = append(cat.Unparsed, fmt.Sprintf("line %d: %s", i+1, text))
			}
		case sectionChains:
			if hint, ok := parseChainHint(text); ok {
				cat.ChainHints = append(cat.ChainHints, hint)
			} else {
				cat.Unparsed = append(cat.Unparsed, fmt.Sprintf("line %d: %s", i+1, text))
			}
		}
	}

	if len(cat.Objects) == 0 {
		return nil, &NoObjectsError{Raw: raw}
	}
	return cat, nil
}

// cleanLine strips markdown decoration: bullets, heading markers, block
// quotes, enumerators, and bold/emphasis markers.
func cleanLine(line string) string {
	s := strings.TrimSpace(line)
	for {
		trimmed := strings.TrimLeft(s, "#>*- \t")
		trimmed = enumerator.ReplaceAllString(trimmed, "")
		if trimmed == s {
			break
		}
		s = trimmed
	}
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	return strings.TrimSpace(s)
}

// sectionHeader recognizes section labels, optionally with content on the
// same line ("Objects: A: description"). Returns the remainder after the
// label when present.
func sectionHeader(text string) (section, string, bool) {
	lower := strings.ToLower(text)
	for _, h := range []struct {
		label string
		sec   section
	}{
		{"objects", sectionObjects},
		{"morphisms", sectionMorphisms},
		{"sorted chains", sectionChains},
		{"sorted", sectionChains},
		{"chains", sectionChains},
	} {
		if lower == h.label || lower == h.label+":" {
			return h.sec, "", true
		}
		if strings.HasPrefix(lower, h.label+":") {
			return h.sec, strings.TrimSpace(text[len(h.label)+1:]), true
		}
	}
	return sectionNone, "", false
}

func parseObject(text string) (category.Object, bool) {
	if strings.Contains(text, "->") || strings.Contains(text, "→") {
		return category.Object{}, false
	}
	name, desc, ok := strings.Cut(text, ":")
	if !ok {
		// A bare single-word name is acceptable; the model sometimes
		// omits the description. Multi-word bare lines are prose.
		if strings.ContainsAny(text, " \t") {
			return category.Object{}, false
		}
		name, desc = text, ""
	}
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 64 || !objectName.MatchString(name) {
		return category.Object{}, false
	}
	return category.Object{Name: name, Description: strings.TrimSpace(desc)}, true
}

func parseMorphism(text string) (category.Morphism, bool) {
	s := normalizeArrows(text)
	name, rest, ok := strings.Cut(s, ":")
	if !ok {
		return category.Morphism{}, false
	}
	name = strings.TrimSpace(name)
	if name == "" || strings.Contains(name, "->") || !objectName.MatchString(name) {
		return category.Morphism{}, false
	}

	lhs, rhs, ok := strings.Cut(rest, "->")
	if !ok {
		return category.Morphism{}, false
	}

	sources := parseSources(strings.TrimSpace(lhs))
	if len(sources) == 0 {
		return category.Morphism{}, false
	}

	target, desc := splitTarget(strings.TrimSpace(rhs))
	if target == "" {
		return category.Morphism{}, false
	}

	m := category.Morphism{
		Name:        name,
		Sources:     sources,
		Target:      target,
		Description: desc,
	}
	m.Identity = category.LooksLikeIdentity(m)
	return m, true
}

// parseSources handles both single-source morphisms and bracketed
// multi-argument source lists ("[A, B]" or "(A, B)").
func parseSources(lhs string) []string {
	multi := false
	if strings.HasPrefix(lhs, "[") && strings.HasSuffix(lhs, "]") {
		lhs, multi = lhs[1:len(lhs)-1], true
	} else if strings.HasPrefix(lhs, "(") && strings.HasSuffix(lhs, ")") {
		lhs, multi = lhs[1:len(lhs)-1], true
	}

	var names []string
	if multi {
		for _, part := range strings.Split(lhs, ",") {
			part = strings.TrimSpace(part)
			if part == "" || !objectName.MatchString(part) {
				return nil
			}
			names = append(names, part)
		}
	} else {
		lhs = strings.TrimSpace(lhs)
		if lhs == "" || !objectName.MatchString(lhs) {
			return nil
		}
		names = []string{lhs}
	}
	return names
}

// splitTarget separates "Target. description" into its parts. Without a
// period the whole remainder is taken as the target name.
func splitTarget(rhs string) (string, string) {
	if target, desc, ok := strings.Cut(rhs, "."); ok {
		return strings.TrimSpace(target), strings.TrimSpace(desc)
	}
	return strings.TrimSpace(rhs), ""
}

func parseChainHint(text string) ([]string, bool) {
	s := normalizeArrows(text)
	if !strings.Contains(s, "->") {
		return nil, false
	}
	var nodes []string
	for _, part := range strings.Split(s, "->") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, false
		}
		nodes = append(nodes, part)
	}
	if len(nodes) < 2 {
		return nil, false
	}
	return nodes, true
}

func normalizeArrows(s string) string {
	s = strings.ReplaceAll(s, "-->", "->")
	s = strings.ReplaceAll(s, "→", "->")
	s = strings.ReplaceAll(s, "⟶", "->")
	return s
}
