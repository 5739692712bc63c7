package rdf

import (
	"errors"
	"fmt"
	"io"
	"strings"

	krdf "github.com/knakk/rdf"
)

// ErrSyntax is returned for input that is not valid Turtle.
var ErrSyntax = errors.New("turtle syntax error")

// ParseTurtle reads Turtle from r and calls fn for every triple, in document
// order. Blank nodes, including the ones generated for collections and
// anonymous nodes, become IRIs of the form "_:label".
func ParseTurtle(r io.Reader, fn func(Triple)) error {
	dec := krdf.NewTripleDecoder(r, krdf.Turtle)
	for {
		tr, err := dec.Decode()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSyntax, err)
		}
		fn(Triple{
			Subject:   fromTerm(tr.Subj),
			Predicate: fromTerm(tr.Pred),
			Object:    fromTerm(tr.Obj),
		})
	}
}

// fromTerm maps a decoded term onto Term. Plain and language-tagged strings
// carry no datatype, matching Literal.
func fromTerm(t krdf.Term) Term {
	switch v := t.(type) {
	case krdf.IRI:
		return IRI(v.String())
	case krdf.Blank:
		return IRI("_:" + strings.TrimPrefix(v.String(), "_:"))
	case krdf.Literal:
		if lang := v.Lang(); lang != "" {
			return Term{Kind: KindLiteral, Value: v.String(), Lang: lang}
		}
		dt := v.DataType.String()
		if dt == XSDString {
			dt = ""
		}
		return TypedLiteral(v.String(), dt)
	}
	return Term{}
}
