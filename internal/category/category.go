// Package category defines the data model shared by the extraction engine:
// objects, morphisms, and the category aggregate that owns them. Objects and
// morphisms reference each other by stable name keys rather than pointers, so
// the graph can be cloned, validated, and analyzed without ownership cycles.
package category

import (
	"fmt"
	"strings"
)

// Object is a node in the category graph.
type Object struct {
	Name        string
	Description string
}

// Morphism is a named directed edge. Sources holds a single object name for
// ordinary morphisms and two or more names for multi-argument "combine"
// morphisms. Identity marks the distinguished do-nothing morphism of an
// object (source = target = that object).
type Morphism struct {
	Name        string
	Sources     []string
	Target      string
	Description string
	Identity    bool
}

// Source returns the primary (first) source object name.
func (m Morphism) Source() string {
	if len(m.Sources) == 0 {
		return ""
	}
	return m.Sources[0]
}

// MultiSource reports whether the morphism combines more than one source.
func (m Morphism) MultiSource() bool {
	return len(m.Sources) > 1
}

// Key identifies a morphism for deduplication: same name, same ordered
// source set, same target.
func (m Morphism) Key() string {
	return m.Name + "|" + strings.Join(m.Sources, ",") + "|" + m.Target
}

// Signature renders the arrow part of the morphism, e.g. "A -> B" or
// "[A, B] -> C".
func (m Morphism) Signature() string {
	if m.MultiSource() {
		return fmt.Sprintf("[%s] -> %s", strings.Join(m.Sources, ", "), m.Target)
	}
	return fmt.Sprintf("%s -> %s", m.Source(), m.Target)
}

// Category aggregates the objects and morphisms of one extraction run.
// Objects and morphisms are kept in parse order; duplicate object names may
// be present before validation. A Category exclusively owns its contents.
type Category struct {
	Name      string
	Objects   []Object
	Morphisms []Morphism

	// ChainHints holds composition chains the generation backend declared
	// itself (the optional "Sorted chains" section), each as an ordered
	// list of object names. Hints are advisory; the chain analyzer derives
	// chains from the validated graph.
	ChainHints [][]string

	// Unparsed collects lines inside recognized sections that did not
	// match the grammar, for diagnostic surfacing.
	Unparsed []string
}

// HasObject reports whether an object with the given name exists.
func (c *Category) HasObject(name string) bool {
	for _, o := range c.Objects {
		if o.Name == name {
			return true
		}
	}
	return false
}

// Object returns the first object with the given name.
func (c *Category) Object(name string) (Object, bool) {
	for _, o := range c.Objects {
		if o.Name == name {
			return o, true
		}
	}
	return Object{}, false
}

// Identities returns the identity morphisms in stored order.
func (c *Category) Identities() []Morphism {
	var ids []Morphism
	for _, m := range c.Morphisms {
		if m.Identity {
			ids = append(ids, m)
		}
	}
	return ids
}

// NonIdentity returns the transformative (non-identity) morphisms in
// stored order.
func (c *Category) NonIdentity() []Morphism {
	var ms []Morphism
	for _, m := range c.Morphisms {
		if !m.Identity {
			ms = append(ms, m)
		}
	}
	return ms
}

// Clone returns a deep copy. The copy shares no slices with the original.
func (c *Category) Clone() *Category {
	out := &Category{Name: c.Name}
	out.Objects = append([]Object(nil), c.Objects...)
	out.Morphisms = make([]Morphism, len(c.Morphisms))
	for i, m := range c.Morphisms {
		m.Sources = append([]string(nil), m.Sources...)
		out.Morphisms[i] = m
	}
	out.ChainHints = make([][]string, len(c.ChainHints))
	for i, h := range c.ChainHints {
		out.ChainHints[i] = append([]string(nil), h...)
	}
	out.Unparsed = append([]string(nil), c.Unparsed...)
	return out
}

// identityWords are description fragments that mark a self-loop morphism as
// an identity rather than a genuine reflexive transformation.
var identityWords = []string{"itself", "identity", "do nothing", "does nothing", "unchanged", "no-op"}

// LooksLikeIdentity reports whether a morphism should be treated as an
// identity: a self-loop whose name or description signals "do nothing".
// A self-loop without such a signal is a reflexive morphism, not an
// identity, and stays composable.
func LooksLikeIdentity(m Morphism) bool {
	if len(m.Sources) != 1 || m.Sources[0] != m.Target {
		return false
	}
	name := strings.ToLower(m.Name)
	if strings.HasPrefix(name, "id_") || name == "id" || strings.HasPrefix(name, "identity") {
		return true
	}
	desc := strings.ToLower(m.Description)
	for _, w := range identityWords {
		if strings.Contains(desc, w) {
			return true
		}
	}
	return false
}
