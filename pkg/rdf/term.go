// Package rdf holds the append-only triple graph the pipeline stages write into,
// plus the Turtle reader and the Turtle/N-Triples writers.
package rdf

import (
	"strconv"
	"strings"
)

// TermKind tags the variant held by a Term.
type TermKind uint8

const (
	// KindIRI is an IRI reference.
	KindIRI TermKind = iota + 1
	// KindLiteral is a literal value with an optional datatype.
	KindLiteral
)

// Term is an IRI or a literal. Datatype and Lang are only meaningful for literals.
type Term struct {
	Kind     TermKind
	Value    string
	Datatype string
	Lang     string
}

// IRI returns an IRI term.
func IRI(v string) Term {
	return Term{Kind: KindIRI, Value: v}
}

// Literal returns a plain string literal.
func Literal(v string) Term {
	return Term{Kind: KindLiteral, Value: v}
}

// TypedLiteral returns a literal with a datatype IRI.
func TypedLiteral(v, datatype string) Term {
	return Term{Kind: KindLiteral, Value: v, Datatype: datatype}
}

// Double returns an xsd:double literal.
func Double(f float64) Term {
	return TypedLiteral(strconv.FormatFloat(f, 'f', -1, 64), XSDDouble)
}

// IsIRI reports whether t is an IRI.
func (t Term) IsIRI() bool { return t.Kind == KindIRI }

// IsLiteral reports whether t is a literal.
func (t Term) IsLiteral() bool { return t.Kind == KindLiteral }

// IsZero reports whether t is unset.
func (t Term) IsZero() bool { return t.Kind == 0 }

// String returns the N-Triples form of the term.
func (t Term) String() string {
	switch t.Kind {
	case KindIRI:
		return "<" + t.Value + ">"
	case KindLiteral:
		s := `"` + escapeLiteral(t.Value) + `"`
		if t.Lang != "" {
			return s + "@" + t.Lang
		}
		if t.Datatype != "" {
			return s + "^^<" + t.Datatype + ">"
		}
		return s
	default:
		return ""
	}
}

// LocalName returns the part of an IRI after the last '#' or '/'.
func (t Term) LocalName() string {
	v := t.Value
	if i := strings.LastIndexAny(v, "#/"); i >= 0 {
		return v[i+1:]
	}
	return v
}

// Triple is a single graph assertion.
type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term
}

// T is shorthand for building a triple.
func T(s, p, o Term) Triple {
	return Triple{Subject: s, Predicate: p, Object: o}
}

// key is the set identity of a triple.
func (t Triple) key() string {
	return t.Subject.String() + " " + t.Predicate.String() + " " + t.Object.String()
}

// String returns the N-Triples line for t, without the newline.
func (t Triple) String() string {
	return t.key() + " ."
}

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

func escapeLiteral(s string) string {
	return literalEscaper.Replace(s)
}
