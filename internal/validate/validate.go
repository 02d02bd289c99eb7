// Package validate enforces the category laws on a parsed graph: unique
// object names, resolvable morphism endpoints, outgoing-morphism coverage,
// and one identity morphism per object. Validation collects every violation
// it finds rather than stopping at the first, and never mutates its input.
package validate

import (
	"fmt"
	"strings"

	"github.com/trondarild/categen/internal/category"
)

// Kind tags a violation for machine-readable reports.
type Kind string

const (
	KindDuplicateObject   Kind = "duplicate_object"
	KindDanglingReference Kind = "dangling_reference"
	KindNoOutgoing        Kind = "no_outgoing"
	KindMissingIdentity   Kind = "missing_identity"
	KindDuplicateIdentity Kind = "duplicate_identity"
)

// Violation records one broken invariant.
type Violation struct {
	Kind    Kind   `json:"kind"`
	Entity  string `json:"entity"`
	Message string `json:"message"`
}

// Report enumerates every violation found in one validation pass. An empty
// violation list signals success; the report is returned either way.
// Synthesized lists the names of identity morphisms the validator added for
// objects that declared none.
type Report struct {
	Violations  []Violation `json:"violations"`
	Synthesized []string    `json:"synthesized_identities,omitempty"`
}

// OK reports whether the category passed every check.
func (r Report) OK() bool {
	return len(r.Violations) == 0
}

func (r *Report) add(kind Kind, entity, format string, args ...any) {
	r.Violations = append(r.Violations, Violation{
		Kind:    kind,
		Entity:  entity,
		Message: fmt.Sprintf(format, args...),
	})
}

// Options tunes validation behavior.
type Options struct {
	// Strict disables identity synthesis: objects without an explicit
	// identity morphism are reported as violations instead of augmented.
	Strict bool
}

// Validated wraps a category that passed through validation: a deep copy of
// the input graph with duplicate entries dropped, dangling morphisms
// removed, and missing identities synthesized. The wrapped graph is owned by
// the Validated value and must be treated as read-only.
type Validated struct {
	cat *category.Category
}

// Category returns the validated graph. Callers must not mutate it.
func (v *Validated) Category() *category.Category { return v.cat }

// Name returns the category name.
func (v *Validated) Name() string { return v.cat.Name }

// Objects returns the validated objects in original parse order.
func (v *Validated) Objects() []category.Object { return v.cat.Objects }

// Morphisms returns all morphisms, identities included.
func (v *Validated) Morphisms() []category.Morphism { return v.cat.Morphisms }

// Validate runs the full check sequence with default options.
func Validate(cat *category.Category) (*Validated, Report) {
	return ValidateWith(cat, Options{})
}

// ValidateWith runs the invariant checks in order: duplicate object names,
// dangling references, coverage, identity uniqueness. It is a pure
// function: the input category is never modified, and identical input
// always yields an identical report.
func ValidateWith(cat *category.Category, opts Options) (*Validated, Report) {
	var report Report
	out := cat.Clone()

	// 1. Duplicate object names: keep the first occurrence, flag the rest.
	seen := make(map[string]bool, len(out.Objects))
	var objects []category.Object
	for _, o := range out.Objects {
		if seen[o.Name] {
			report.add(KindDuplicateObject, o.Name,
				"object %q is declared more than once", o.Name)
			continue
		}
		seen[o.Name] = true
		objects = append(objects, o)
	}
	out.Objects = objects

	// 2. Dangling references: every endpoint must resolve to a declared
	// object. Unresolvable morphisms are dropped from the validated graph
	// so later stages only see well-formed edges.
	var morphisms []category.Morphism
	for _, m := range out.Morphisms {
		dangling := false
		for _, src := range m.Sources {
			if !seen[src] {
				report.add(KindDanglingReference, m.Name,
					"morphism %q references undeclared source object %q", m.Name, src)
				dangling = true
			}
		}
		if !seen[m.Target] {
			report.add(KindDanglingReference, m.Name,
				"morphism %q references undeclared target object %q", m.Name, m.Target)
			dangling = true
		}
		if !dangling {
			morphisms = append(morphisms, m)
		}
	}
	out.Morphisms = morphisms

	// 3. Coverage: every object needs at least one outgoing morphism.
	// Objects without an explicit identity get one synthesized (identities
	// are often left implicit by the generation step), which also restores
	// coverage for otherwise isolated objects.
	outgoing := make(map[string]int, len(out.Objects))
	identities := make(map[string][]string, len(out.Objects))
	for _, m := range out.Morphisms {
		for _, src := range m.Sources {
			outgoing[src]++
		}
		if m.Identity {
			identities[m.Target] = append(identities[m.Target], m.Name)
		}
	}

	for _, o := range out.Objects {
		if len(identities[o.Name]) > 0 {
			continue
		}
		if opts.Strict {
			report.add(KindMissingIdentity, o.Name,
				"object %q has no identity morphism", o.Name)
			if outgoing[o.Name] == 0 {
				report.add(KindNoOutgoing, o.Name,
					"object %q has no outgoing morphisms", o.Name)
			}
			continue
		}
		id := synthesizeIdentity(o.Name)
		out.Morphisms = append(out.Morphisms, id)
		report.Synthesized = append(report.Synthesized, id.Name)
	}

	// 4. Identity uniqueness: at most one identity morphism per object.
	// Extras are flagged and dropped so the validated graph keeps exactly
	// one.
	extras := make(map[string]bool)
	for _, o := range out.Objects {
		names := identities[o.Name]
		if len(names) > 1 {
			report.add(KindDuplicateIdentity, o.Name,
				"object %q has %d identity morphisms (%s); exactly one is allowed",
				o.Name, len(names), strings.Join(names, ", "))
			for _, name := range names[1:] {
				extras[name+"|"+o.Name] = true
			}
		}
	}
	if len(extras) > 0 {
		kept := out.Morphisms[:0]
		for _, m := range out.Morphisms {
			if m.Identity && extras[m.Name+"|"+m.Target] {
				continue
			}
			kept = append(kept, m)
		}
		out.Morphisms = kept
	}

	return &Validated{cat: out}, report
}

// synthesizeIdentity builds the do-nothing morphism for an object.
func synthesizeIdentity(object string) category.Morphism {
	name := "id_" + strings.ReplaceAll(object, " ", "_")
	return category.Morphism{
		Name:        name,
		Sources:     []string{object},
		Target:      object,
		Description: fmt.Sprintf("maps %s to itself", object),
		Identity:    true,
	}
}
