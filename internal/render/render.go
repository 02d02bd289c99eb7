// Package render serializes a validated category (and its chains) into a
// presentation document by substituting named placeholders in a caller
// supplied template.
package render

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"github.com/trondarild/categen/internal/category"
	"github.com/trondarild/categen/internal/chains"
	"github.com/trondarild/categen/internal/validate"
)

// Default templates. Markdown is the primary presentation format; the
// MediaWiki variant targets wiki import.
var (
	//go:embed templates/markdown.tmpl
	DefaultMarkdown string

	//go:embed templates/mediawiki.tmpl
	DefaultMediaWiki string
)

// CompositionNote is the fixed explanation substituted for
// {composition_note}.
const CompositionNote = "Morphisms compose by chaining: given f: A -> B and g: B -> C, " +
	"the composite g∘f maps A to C. Composition is associative, " +
	"(h∘g)∘f = h∘(g∘f), and identity morphisms are neutral: g∘id = g and id∘f = f."

// MissingPlaceholderError reports a template placeholder the renderer does
// not recognize. This is a caller configuration bug, not a data problem.
type MissingPlaceholderError struct {
	Placeholder string
}

func (e *MissingPlaceholderError) Error() string {
	return fmt.Sprintf("template references unknown placeholder {%s}", e.Placeholder)
}

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z_]+)\}`)

// Render substitutes the category data into the template. Recognized
// placeholders: {category_name}, {objects}, {morphisms},
// {composition_note}, {identities}, {chains}. The chains placeholder
// resolves to an empty list note when no chains are supplied; category data
// without a corresponding template slot is simply omitted. Rendering is
// deterministic: identical inputs produce byte-identical output.
func Render(v *validate.Validated, chs []chains.Chain, template string) (string, error) {
	values := map[string]string{
		"category_name":    v.Name(),
		"objects":          formatObjects(v),
		"morphisms":        formatMorphisms(v),
		"composition_note": CompositionNote,
		"identities":       formatIdentities(v),
		"chains":           formatChains(chs),
	}

	var badPlaceholder *MissingPlaceholderError
	out := placeholderPattern.ReplaceAllStringFunc(template, func(token string) string {
		name := token[1 : len(token)-1]
		val, ok := values[name]
		if !ok {
			if badPlaceholder == nil {
				badPlaceholder = &MissingPlaceholderError{Placeholder: name}
			}
			return token
		}
		return val
	})
	if badPlaceholder != nil {
		return "", badPlaceholder
	}
	return out, nil
}

func formatObjects(v *validate.Validated) string {
	var sb strings.Builder
	for _, o := range v.Objects() {
		sb.WriteString("- ")
		sb.WriteString(o.Name)
		if o.Description != "" {
			sb.WriteString(": ")
			sb.WriteString(o.Description)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatMorphisms(v *validate.Validated) string {
	var sb strings.Builder
	for _, m := range v.Category().NonIdentity() {
		writeMorphism(&sb, m)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatIdentities(v *validate.Validated) string {
	var sb strings.Builder
	for _, m := range v.Category().Identities() {
		writeMorphism(&sb, m)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func writeMorphism(sb *strings.Builder, m category.Morphism) {
	sb.WriteString("- ")
	sb.WriteString(m.Name)
	sb.WriteString(": ")
	sb.WriteString(m.Signature())
	if m.Description != "" {
		sb.WriteString(". ")
		sb.WriteString(m.Description)
	}
	sb.WriteString("\n")
}

func formatChains(chs []chains.Chain) string {
	if len(chs) == 0 {
		return "(no end-to-end chains)"
	}
	var sb strings.Builder
	for i, c := range chs {
		fmt.Fprintf(&sb, "%d. %s (%d morphisms", i+1, c.String(), c.Len())
		if c.Truncated {
			sb.WriteString(", truncated at cycle")
		}
		sb.WriteString(")\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
