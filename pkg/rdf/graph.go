package rdf

import (
	"log/slog"
)

// Graph is an append-only set of triples with a predicate index.
// Membership is set-based; the insertion order is retained so that queries and
// serialization are stable for identical input.
type Graph struct {
	logger      *slog.Logger
	seen        map[string]struct{}
	triples     []Triple
	byPredicate map[string][]int
	labels      map[string]string
}

// NewGraph creates an empty graph. A nil logger disables provenance logging.
func NewGraph(logger *slog.Logger) *Graph {
	return &Graph{
		logger:      logger,
		seen:        make(map[string]struct{}),
		byPredicate: make(map[string][]int),
		labels:      make(map[string]string),
	}
}

// Add inserts t and reports whether it was new.
func (g *Graph) Add(t Triple) bool {
	k := t.key()
	if _, ok := g.seen[k]; ok {
		return false
	}
	g.seen[k] = struct{}{}
	g.byPredicate[t.Predicate.Value] = append(g.byPredicate[t.Predicate.Value], len(g.triples))
	g.triples = append(g.triples, t)

	if t.Predicate.Value == RDFSLabel && t.Object.IsLiteral() {
		if _, ok := g.labels[t.Subject.Value]; !ok {
			g.labels[t.Subject.Value] = t.Object.Value
		}
	}
	return true
}

// AddFrom inserts t and, when it was new, logs it with the source record that
// produced it.
func (g *Graph) AddFrom(source string, t Triple) bool {
	added := g.Add(t)
	if added && g.logger != nil {
		g.logger.Debug("triple added",
			"source", source,
			"s", t.Subject.Value,
			"p", t.Predicate.Value,
			"o", t.Object.Value)
	}
	return added
}

// SetLabel adds an rdfs:label for subject unless it already has one.
func (g *Graph) SetLabel(source string, subject Term, label string) bool {
	if label == "" {
		return false
	}
	if _, ok := g.labels[subject.Value]; ok {
		return false
	}
	return g.AddFrom(source, T(subject, LabelPredicate, Literal(label)))
}

// Label returns the label of subject, if any.
func (g *Graph) Label(subject Term) (string, bool) {
	l, ok := g.labels[subject.Value]
	return l, ok
}

// Has reports whether t is in the graph.
func (g *Graph) Has(t Triple) bool {
	_, ok := g.seen[t.key()]
	return ok
}

// Len returns the number of distinct triples.
func (g *Graph) Len() int {
	return len(g.triples)
}

// Triples returns all triples in insertion order. The slice must not be modified.
func (g *Graph) Triples() []Triple {
	return g.triples
}

// ByPredicate returns the triples using predicate p, in insertion order.
func (g *Graph) ByPredicate(p Term) []Triple {
	idx := g.byPredicate[p.Value]
	out := make([]Triple, 0, len(idx))
	for _, i := range idx {
		out = append(out, g.triples[i])
	}
	return out
}

// Subjects returns the subjects of all (s, p, o) triples.
func (g *Graph) Subjects(p, o Term) []Term {
	var out []Term
	for _, i := range g.byPredicate[p.Value] {
		t := g.triples[i]
		if t.Object == o {
			out = append(out, t.Subject)
		}
	}
	return out
}

// Objects returns the objects of all (s, p, o) triples.
func (g *Graph) Objects(s, p Term) []Term {
	var out []Term
	for _, i := range g.byPredicate[p.Value] {
		t := g.triples[i]
		if t.Subject == s {
			out = append(out, t.Object)
		}
	}
	return out
}
