package rdf

import (
	"iter"

	"github.com/zeebo/xxh3"
)

// Graph is a set of triples that remembers insertion order. Adding a
// triple that is already present is a no-op.
type Graph struct {
	triples []*Triple
	index   map[xxh3.Uint128][]int
}

func NewGraph() *Graph {
	return &Graph{index: make(map[xxh3.Uint128][]int)}
}

// NewGraphFromTriples builds a graph, dropping duplicates
func NewGraphFromTriples(triples ...*Triple) *Graph {
	g := NewGraph()
	for _, t := range triples {
		g.Add(t)
	}
	return g
}

func hashTriple(t *Triple) xxh3.Uint128 {
	return xxh3.Hash128([]byte(tripleKey(t, nil)))
}

// Add inserts t and reports whether it was new
func (g *Graph) Add(t *Triple) bool {
	h := hashTriple(t)
	for _, i := range g.index[h] {
		if g.triples[i].Equals(t) {
			return false
		}
	}
	g.index[h] = append(g.index[h], len(g.triples))
	g.triples = append(g.triples, t)
	return true
}

// Contains reports whether an equal triple is in the graph
func (g *Graph) Contains(t *Triple) bool {
	for _, i := range g.index[hashTriple(t)] {
		if g.triples[i].Equals(t) {
			return true
		}
	}
	return false
}

// Len returns the number of distinct triples
func (g *Graph) Len() int {
	return len(g.triples)
}

// Triples returns the triples in insertion order
func (g *Graph) Triples() []*Triple {
	out := make([]*Triple, len(g.triples))
	copy(out, g.triples)
	return out
}

// All iterates the triples in insertion order
func (g *Graph) All() iter.Seq[*Triple] {
	return func(yield func(*Triple) bool) {
		for _, t := range g.triples {
			if !yield(t) {
				return
			}
		}
	}
}

// Equals reports whether both graphs hold exactly the same triples,
// blank nodes included.
func (g *Graph) Equals(other *Graph) bool {
	if g.Len() != other.Len() {
		return false
	}
	for _, t := range other.triples {
		if !g.Contains(t) {
			return false
		}
	}
	return true
}

// Clone returns a shallow copy; terms are shared
func (g *Graph) Clone() *Graph {
	c := NewGraph()
	for _, t := range g.triples {
		c.Add(t)
	}
	return c
}
