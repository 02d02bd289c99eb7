package category

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMorphismSignature(t *testing.T) {
	tests := []struct {
		name string
		m    Morphism
		want string
	}{
		{
			name: "single_source",
			m:    Morphism{Name: "f", Sources: []string{"A"}, Target: "B"},
			want: "A -> B",
		},
		{
			name: "multi_source",
			m:    Morphism{Name: "combine", Sources: []string{"A", "B"}, Target: "C"},
			want: "[A, B] -> C",
		},
		{
			name: "self_loop",
			m:    Morphism{Name: "id_A", Sources: []string{"A"}, Target: "A"},
			want: "A -> A",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.Signature(); got != tt.want {
				t.Errorf("Signature() = %q, want %q", got, tt.want)
			}
			if tt.m.MultiSource() != (len(tt.m.Sources) > 1) {
				t.Errorf("MultiSource() = %v", tt.m.MultiSource())
			}
		})
	}
}

func TestLooksLikeIdentity(t *testing.T) {
	tests := []struct {
		name string
		m    Morphism
		want bool
	}{
		{
			name: "id_prefix",
			m:    Morphism{Name: "id_State", Sources: []string{"State"}, Target: "State"},
			want: true,
		},
		{
			name: "identity_name",
			m:    Morphism{Name: "identity_of_state", Sources: []string{"State"}, Target: "State"},
			want: true,
		},
		{
			name: "itself_description",
			m:    Morphism{Name: "keep", Sources: []string{"State"}, Target: "State", Description: "maps State to itself"},
			want: true,
		},
		{
			name: "does_nothing_description",
			m:    Morphism{Name: "noop", Sources: []string{"A"}, Target: "A", Description: "does nothing to A"},
			want: true,
		},
		{
			name: "reflexive_transformation",
			m:    Morphism{Name: "refine", Sources: []string{"A"}, Target: "A", Description: "sharpens the estimate"},
			want: false,
		},
		{
			name: "not_a_self_loop",
			m:    Morphism{Name: "id_A", Sources: []string{"A"}, Target: "B"},
			want: false,
		},
		{
			name: "multi_source_never_identity",
			m:    Morphism{Name: "id_pair", Sources: []string{"A", "A"}, Target: "A"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LooksLikeIdentity(tt.m); got != tt.want {
				t.Errorf("LooksLikeIdentity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := &Category{
		Name:    "C",
		Objects: []Object{{Name: "A"}},
		Morphisms: []Morphism{
			{Name: "combine", Sources: []string{"A", "B"}, Target: "C"},
		},
		ChainHints: [][]string{{"A", "B"}},
		Unparsed:   []string{"line 3: junk"},
	}

	clone := orig.Clone()
	if diff := cmp.Diff(orig, clone); diff != "" {
		t.Fatalf("clone differs (-orig +clone):\n%s", diff)
	}

	clone.Objects[0].Name = "mutated"
	clone.Morphisms[0].Sources[0] = "mutated"
	clone.ChainHints[0][0] = "mutated"
	clone.Unparsed[0] = "mutated"

	if orig.Objects[0].Name != "A" {
		t.Error("objects shared with clone")
	}
	if orig.Morphisms[0].Sources[0] != "A" {
		t.Error("morphism sources shared with clone")
	}
	if orig.ChainHints[0][0] != "A" {
		t.Error("chain hints shared with clone")
	}
	if orig.Unparsed[0] != "line 3: junk" {
		t.Error("unparsed lines shared with clone")
	}
}

func TestIdentityPartition(t *testing.T) {
	c := &Category{
		Morphisms: []Morphism{
			{Name: "f", Sources: []string{"A"}, Target: "B"},
			{Name: "id_A", Sources: []string{"A"}, Target: "A", Identity: true},
			{Name: "g", Sources: []string{"B"}, Target: "A"},
		},
	}

	if ids := c.Identities(); len(ids) != 1 || ids[0].Name != "id_A" {
		t.Errorf("Identities() = %+v", ids)
	}
	if ms := c.NonIdentity(); len(ms) != 2 || ms[0].Name != "f" || ms[1].Name != "g" {
		t.Errorf("NonIdentity() = %+v", ms)
	}
}

func TestObjectLookup(t *testing.T) {
	c := &Category{Objects: []Object{{Name: "A", Description: "first"}}}

	if !c.HasObject("A") || c.HasObject("B") {
		t.Error("HasObject misreports")
	}
	if o, ok := c.Object("A"); !ok || o.Description != "first" {
		t.Errorf("Object() = %+v, %v", o, ok)
	}
	if _, ok := c.Object("B"); ok {
		t.Error("Object() found a missing name")
	}
}
