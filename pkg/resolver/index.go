package resolver

import (
	"strings"

	"witcherkg/pkg/rdf"
)

// LabelIndex maps lowercase labels to the first entity that carried them.
type LabelIndex map[string]rdf.Term

// SnapshotLabels builds a label index from the graph's rdfs:label triples in
// insertion order.
func SnapshotLabels(g *rdf.Graph) LabelIndex {
	idx := make(LabelIndex)
	for _, t := range g.ByPredicate(rdf.LabelPredicate) {
		if !t.Object.IsLiteral() {
			continue
		}
		k := strings.ToLower(strings.TrimSpace(t.Object.Value))
		if _, ok := idx[k]; !ok && k != "" {
			idx[k] = t.Subject
		}
	}
	return idx
}

// Lookup finds the entity labelled label, case-insensitively.
func (l LabelIndex) Lookup(label string) (rdf.Term, bool) {
	t, ok := l[strings.ToLower(strings.TrimSpace(label))]
	return t, ok
}

type coordKey struct {
	world string
	x, y  float64
}

// CoordIndex remembers which entity each source coordinate resolved to,
// per world. It only grows.
type CoordIndex struct {
	entries map[coordKey]rdf.Term
}

// NewCoordIndex creates an empty index.
func NewCoordIndex() *CoordIndex {
	return &CoordIndex{entries: make(map[coordKey]rdf.Term)}
}

// Get returns the entity recorded for (world, x, y).
func (c *CoordIndex) Get(world string, x, y float64) (rdf.Term, bool) {
	t, ok := c.entries[coordKey{world, x, y}]
	return t, ok
}

// Put records entity for (world, x, y) unless the coordinate is already
// taken.
func (c *CoordIndex) Put(world string, x, y float64, entity rdf.Term) {
	k := coordKey{world, x, y}
	if _, ok := c.entries[k]; !ok {
		c.entries[k] = entity
	}
}

// Len returns the number of recorded coordinates.
func (c *CoordIndex) Len() int {
	return len(c.entries)
}
