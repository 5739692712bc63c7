// Package ontology resolves wiki categories to the classes of the pre-built
// class hierarchy.
package ontology

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strings"

	"witcherkg/pkg/kgerrors"
	"witcherkg/pkg/rdf"
)

const stage = "ontology"

// Resolver maps normalized category names to class IRIs.
type Resolver struct {
	classes map[string]rdf.Term
	parents map[string][]rdf.Term
}

// New returns an empty resolver; every lookup misses.
func New() *Resolver {
	return &Resolver{
		classes: make(map[string]rdf.Term),
		parents: make(map[string][]rdf.Term),
	}
}

// Load bulk-loads the class hierarchy at path into g and indexes every
// owl:Class declared under the ontology namespace. A missing file returns a
// MissingFile error together with an empty, usable resolver. A nil logger
// uses slog.Default.
func Load(ctx context.Context, path string, g *rdf.Graph, ns rdf.Namespaces, logger *slog.Logger) (*Resolver, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := New()
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return r, kgerrors.New(kgerrors.KindMissingFile, stage, path, err)
		}
		return r, fmt.Errorf("open class hierarchy: %w", err)
	}
	defer f.Close()

	var loaded []rdf.Triple
	if err := rdf.ParseTurtle(f, func(t rdf.Triple) { loaded = append(loaded, t) }); err != nil {
		return r, fmt.Errorf("parse class hierarchy %s: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		return r, err
	}

	for _, t := range loaded {
		g.AddFrom(path, t)
		r.index(t, ns)
	}
	logger.Debug("Class hierarchy loaded", "path", path, "triples", len(loaded), "classes", r.Size())
	return r, nil
}

func (r *Resolver) index(t rdf.Triple, ns rdf.Namespaces) {
	if !strings.HasPrefix(t.Subject.Value, string(ns.Ontology)) {
		return
	}
	switch t.Predicate.Value {
	case rdf.RDFType:
		if t.Object.Value == rdf.OWLClass {
			r.Add(t.Subject)
		}
	case rdf.RDFSSubClassOf:
		if t.Object.IsIRI() {
			r.parents[t.Subject.Value] = append(r.parents[t.Subject.Value], t.Object)
		}
	}
}

// Add registers class under the key derived from its local name.
// The first class registered for a key is kept.
func (r *Resolver) Add(class rdf.Term) {
	k := Key(class.LocalName())
	if k == "" {
		return
	}
	if _, ok := r.classes[k]; !ok {
		r.classes[k] = class
	}
}

// Lookup returns the class a category names, case-insensitively.
func (r *Resolver) Lookup(category string) (rdf.Term, bool) {
	c, ok := r.classes[Key(category)]
	return c, ok
}

// Size returns the number of indexed classes.
func (r *Resolver) Size() int {
	return len(r.classes)
}

// Parents returns the direct superclasses of class.
func (r *Resolver) Parents(class rdf.Term) []rdf.Term {
	return r.parents[class.Value]
}

// Classes returns every indexed class sorted by IRI.
func (r *Resolver) Classes() []rdf.Term {
	out := make([]rdf.Term, 0, len(r.classes))
	for _, c := range r.classes {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out
}

// Key normalizes a category or class local name: every character outside
// [A-Za-z0-9_] becomes '_' and the result is lowercased.
func Key(name string) string {
	name = strings.TrimSpace(name)
	b := make([]byte, 0, len(name))
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '_':
			b = append(b, byte(c))
		case c >= 'A' && c <= 'Z':
			b = append(b, byte(c)+('a'-'A'))
		default:
			b = append(b, '_')
		}
	}
	return string(b)
}
