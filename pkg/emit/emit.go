// Package emit turns extracted wiki pages into graph assertions.
package emit

import (
	"log/slog"
	"strings"
	"unicode"

	"witcherkg/pkg/model"
	"witcherkg/pkg/ontology"
	"witcherkg/pkg/rdf"
	"witcherkg/pkg/wikitext"
)

// Sanitize makes s safe as an IRI local name: every maximal run of characters
// that are not letters, digits or '_' becomes a single '_', and leading and
// trailing '_' are trimmed.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inRun := false
	for _, r := range s {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			inRun = false
			continue
		}
		if !inRun {
			b.WriteByte('_')
			inRun = true
		}
	}
	return strings.Trim(b.String(), "_")
}

// PageStats counts what one page contributed.
type PageStats struct {
	Types      int
	Properties int
	Links      int
	Literals   int
}

// Emitter writes page-derived triples into a graph.
type Emitter struct {
	graph   *rdf.Graph
	classes *ontology.Resolver
	ns      rdf.Namespaces
	logger  *slog.Logger
}

// NewEmitter creates an emitter. A nil resolver types nothing.
func NewEmitter(g *rdf.Graph, classes *ontology.Resolver, ns rdf.Namespaces, logger *slog.Logger) *Emitter {
	if classes == nil {
		classes = ontology.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{graph: g, classes: classes, ns: ns, logger: logger}
}

// Subject returns the entity IRI for a page title.
func (e *Emitter) Subject(title string) (rdf.Term, bool) {
	local := Sanitize(title)
	if local == "" {
		return rdf.Term{}, false
	}
	return e.ns.Resource.Term(local), true
}

// EmitPage asserts the page's category types, its label and its infobox
// properties. Pages with no title or text are ignored.
func (e *Emitter) EmitPage(page model.Page) PageStats {
	var st PageStats
	if page.Title == "" || strings.TrimSpace(page.Text) == "" {
		return st
	}
	subject, ok := e.Subject(page.Title)
	if !ok {
		e.logger.Debug("Page title sanitizes to nothing", "title", page.Title)
		return st
	}
	source := "page:" + page.Title

	typed := false
	for _, cat := range wikitext.Categories(page.Text) {
		class, ok := e.classes.Lookup(cat)
		if !ok {
			continue
		}
		typed = true
		if e.graph.AddFrom(source, rdf.T(subject, rdf.TypePredicate, class)) {
			st.Types++
		}
	}

	body, hasInfobox := wikitext.FindInfobox(page.Text)
	if typed || hasInfobox {
		e.graph.SetLabel(source, subject, page.Title)
	}
	if !hasInfobox {
		return st
	}

	for _, prop := range wikitext.Properties(body) {
		local := Sanitize(prop.Name)
		if local == "" {
			continue
		}
		pred := e.ns.Ontology.Term(local)
		st.Properties++
		for _, v := range wikitext.ExtractValues(prop.Value) {
			switch v.Kind {
			case wikitext.URIReference:
				target := Sanitize(v.Text)
				if target == "" {
					continue
				}
				if e.graph.AddFrom(source, rdf.T(subject, pred, e.ns.Resource.Term(target))) {
					st.Links++
				}
			case wikitext.LiteralValue:
				if e.graph.AddFrom(source, rdf.T(subject, pred, rdf.Literal(v.Text))) {
					st.Literals++
				}
			}
		}
	}
	return st
}
