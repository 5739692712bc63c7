package rdf

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Format specifies the output serialization format.
type Format string

const (
	// FormatTurtle produces Turtle (.ttl) output, readable as N3.
	FormatTurtle Format = "turtle"
	// FormatNTriples produces N-Triples (.nt) output.
	FormatNTriples Format = "ntriples"
)

// Prefix binds a short name to a namespace IRI.
type Prefix struct {
	Name string
	IRI  string
}

// Write serializes the graph. Subjects appear in first-insertion order, so the
// same input always produces the same bytes.
func Write(w io.Writer, g *Graph, format Format, prefixes []Prefix) error {
	bw := bufio.NewWriter(w)
	var err error
	switch format {
	case FormatTurtle, "":
		err = writeTurtle(bw, g, prefixes)
	case FormatNTriples:
		err = writeNTriples(bw, g)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return err
	}
	return bw.Flush()
}

func writeNTriples(w *bufio.Writer, g *Graph) error {
	for _, t := range g.Triples() {
		if _, err := w.WriteString(t.String() + "\n"); err != nil {
			return err
		}
	}
	return nil
}

func writeTurtle(w *bufio.Writer, g *Graph, prefixes []Prefix) error {
	for _, p := range prefixes {
		if _, err := fmt.Fprintf(w, "@prefix %s: <%s> .\n", p.Name, p.IRI); err != nil {
			return err
		}
	}
	if _, err := w.WriteString("\n"); err != nil {
		return err
	}

	order := make([]string, 0)
	bySubject := make(map[string][]Triple)
	for _, t := range g.Triples() {
		if _, ok := bySubject[t.Subject.Value]; !ok {
			order = append(order, t.Subject.Value)
		}
		bySubject[t.Subject.Value] = append(bySubject[t.Subject.Value], t)
	}

	for _, s := range order {
		triples := bySubject[s]
		if _, err := w.WriteString(formatTurtleTerm(triples[0].Subject, prefixes) + "\n"); err != nil {
			return err
		}
		for i, t := range triples {
			pred := formatTurtleTerm(t.Predicate, prefixes)
			if t.Predicate.Value == RDFType {
				pred = "a"
			}
			end := " ;\n"
			if i == len(triples)-1 {
				end = " .\n\n"
			}
			line := "    " + pred + " " + formatTurtleTerm(t.Object, prefixes) + end
			if _, err := w.WriteString(line); err != nil {
				return err
			}
		}
	}
	return nil
}

// formatTurtleTerm compacts IRIs with a prefix when the local part is a safe
// prefixed-name local; everything else falls back to the N-Triples form.
func formatTurtleTerm(t Term, prefixes []Prefix) string {
	switch t.Kind {
	case KindIRI:
		if strings.HasPrefix(t.Value, "_:") {
			return t.Value
		}
		if c, ok := compact(t.Value, prefixes); ok {
			return c
		}
		return t.String()
	case KindLiteral:
		if t.Datatype != "" && t.Lang == "" {
			s := `"` + escapeLiteral(t.Value) + `"^^`
			if c, ok := compact(t.Datatype, prefixes); ok {
				return s + c
			}
			return s + "<" + t.Datatype + ">"
		}
		return t.String()
	}
	return ""
}

func compact(iri string, prefixes []Prefix) (string, bool) {
	for _, p := range prefixes {
		if !strings.HasPrefix(iri, p.IRI) {
			continue
		}
		local := iri[len(p.IRI):]
		if isSafeLocal(local) {
			return p.Name + ":" + local, true
		}
	}
	return "", false
}

func isSafeLocal(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
		case c >= '0' && c <= '9':
		case c == '-' && i > 0:
		default:
			return false
		}
	}
	return true
}
