// Package chains computes maximal composable morphism chains over a
// validated category. The graph is a directed multigraph whose nodes are
// objects and whose edges are the non-identity morphisms; chains run from
// initial-like objects (no incoming non-identity morphism) to terminal-like
// objects (no outgoing non-identity morphism).
//
// Cycles are handled by truncation, never by looping: traversal stops at the
// first repeated object, and when a cycle prevents an initial-like object
// from reaching any terminal-like object the cut-off path is still reported,
// flagged as truncated. Generative input can plausibly contain reflexive or
// circular structures, so this policy is deliberate.
package chains

import (
	"sort"
	"strings"

	"github.com/trondarild/categen/internal/category"
	"github.com/trondarild/categen/internal/validate"
)

// Chain is an ordered sequence of composable morphisms, a read-only view
// derived from a validated category. Objects lists the visited objects;
// len(Objects) == len(Morphisms)+1.
type Chain struct {
	Objects   []string
	Morphisms []category.Morphism

	// Truncated marks a chain that was cut at a repeated object because a
	// cycle blocked the way to a terminal-like object.
	Truncated bool
}

// Len is the chain length in morphisms.
func (c Chain) Len() int { return len(c.Morphisms) }

func (c Chain) String() string {
	return strings.Join(c.Objects, " -> ")
}

type edge struct {
	from string
	to   string
	m    category.Morphism
}

type analyzer struct {
	index    map[string]int
	adj      map[string][]edge
	terminal map[string]bool
	memo     map[string]map[string][]edge
	n        int
}

// Find returns the maximal chains of the validated category, longest first.
// Traversal order is deterministic: objects and morphisms are processed in
// parsed order, and length ties keep the earliest-discovered path. The
// result is empty when no initial-like/terminal-like pair exists.
func Find(v *validate.Validated) []Chain {
	objects := v.Objects()
	a := &analyzer{
		index:    make(map[string]int, len(objects)),
		adj:      make(map[string][]edge),
		terminal: make(map[string]bool),
		memo:     make(map[string]map[string][]edge),
		n:        len(objects),
	}
	for i, o := range objects {
		a.index[o.Name] = i
	}

	indeg := make(map[string]int)
	outdeg := make(map[string]int)
	for _, m := range v.Category().NonIdentity() {
		for _, src := range m.Sources {
			e := edge{from: src, to: m.Target, m: m}
			a.adj[src] = append(a.adj[src], e)
			outdeg[src]++
			indeg[m.Target]++
		}
	}

	var initials []string
	for _, o := range objects {
		if indeg[o.Name] == 0 && outdeg[o.Name] > 0 {
			initials = append(initials, o.Name)
		}
		if outdeg[o.Name] == 0 && indeg[o.Name] > 0 {
			a.terminal[o.Name] = true
		}
	}
	if len(initials) == 0 {
		return nil
	}

	var result []Chain
	for _, start := range initials {
		visited := make([]bool, a.n)
		visited[a.index[start]] = true
		suffixes := a.suffixes(start, visited)

		if len(suffixes) == 0 {
			// A cycle traps this source: report the longest path we can
			// reach before an object repeats.
			path := a.longestTruncated(start, visited)
			if len(path) > 0 {
				result = append(result, buildChain(start, path, true))
			}
			continue
		}

		// One chain per reachable terminal-like object, in object order.
		for _, o := range objects {
			if path, ok := suffixes[o.Name]; ok {
				result = append(result, buildChain(start, path, false))
			}
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Len() > result[j].Len()
	})
	return result
}

// suffixes returns, for each terminal-like object reachable from u without
// revisiting anything in visited, the longest simple path by morphism
// count. Results are memoized on (object, visited-set signature) to bound
// the blow-up of repeated subproblems.
func (a *analyzer) suffixes(u string, visited []bool) map[string][]edge {
	key := a.key(u, visited)
	if res, ok := a.memo[key]; ok {
		return res
	}

	res := make(map[string][]edge)
	if a.terminal[u] {
		res[u] = nil
	}
	for _, e := range a.adj[u] {
		ti := a.index[e.to]
		if visited[ti] {
			continue // repeated object: truncate this branch
		}
		visited[ti] = true
		sub := a.suffixes(e.to, visited)
		visited[ti] = false

		for term, suffix := range sub {
			cand := make([]edge, 0, len(suffix)+1)
			cand = append(cand, e)
			cand = append(cand, suffix...)
			// Strictly longer replaces; ties keep the path found first.
			if cur, ok := res[term]; !ok || len(cand) > len(cur) {
				res[term] = cand
			}
		}
	}

	a.memo[key] = res
	return res
}

// longestTruncated finds the longest simple path from u, used when no
// terminal-like object is reachable.
func (a *analyzer) longestTruncated(u string, visited []bool) []edge {
	var best []edge
	for _, e := range a.adj[u] {
		ti := a.index[e.to]
		if visited[ti] {
			continue
		}
		visited[ti] = true
		sub := a.longestTruncated(e.to, visited)
		visited[ti] = false

		cand := make([]edge, 0, len(sub)+1)
		cand = append(cand, e)
		cand = append(cand, sub...)
		if len(cand) > len(best) {
			best = cand
		}
	}
	return best
}

func (a *analyzer) key(u string, visited []bool) string {
	var sb strings.Builder
	sb.Grow(len(u) + 1 + a.n)
	sb.WriteString(u)
	sb.WriteByte('|')
	for _, b := range visited {
		if b {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

func buildChain(start string, path []edge, truncated bool) Chain {
	c := Chain{
		Objects:   []string{start},
		Truncated: truncated,
	}
	for _, e := range path {
		c.Objects = append(c.Objects, e.to)
		c.Morphisms = append(c.Morphisms, e.m)
	}
	return c
}
