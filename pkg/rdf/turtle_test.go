package rdf

import (
	"errors"
	"strings"
	"testing"
)

func parseAll(t *testing.T, src string) []Triple {
	t.Helper()
	var out []Triple
	if err := ParseTurtle(strings.NewReader(src), func(tr Triple) { out = append(out, tr) }); err != nil {
		t.Fatalf("ParseTurtle() error = %v", err)
	}
	return out
}

func TestParseTurtle_ClassesFile(t *testing.T) {
	src := `@prefix witcher: <http://cgi.di.uoa.gr/witcher/ontology#> .
@prefix owl: <http://www.w3.org/2002/07/owl#> .
@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .

witcher:Characters a owl:Class .
witcher:Witchers a owl:Class .
witcher:Witchers rdfs:subClassOf witcher:Characters .
witcher:Gwent__cards_ a owl:Class .`

	got := parseAll(t, src)
	if len(got) != 4 {
		t.Fatalf("expected 4 triples, got %d", len(got))
	}
	if got[0].Subject.Value != DefaultOntology+"Characters" || got[0].Predicate.Value != RDFType || got[0].Object.Value != OWLClass {
		t.Errorf("unexpected first triple: %v", got[0])
	}
	if got[2].Predicate.Value != RDFSSubClassOf || got[2].Object.Value != DefaultOntology+"Characters" {
		t.Errorf("unexpected subClassOf triple: %v", got[2])
	}
	if got[3].Subject.Value != DefaultOntology+"Gwent__cards_" {
		t.Errorf("unexpected subject %q", got[3].Subject.Value)
	}
}

func TestParseTurtle_PredicateAndObjectLists(t *testing.T) {
	src := `PREFIX ex: <http://example.org/>
# comment line
ex:a a ex:T1, ex:T2 ;
     ex:label "A \"quoted\""@en ;
     ex:size 42 ;
     ex:ratio 1.5 ;
     ex:ok true ;
     ex:wkt "POINT(1 2)"^^<http://www.opengis.net/ont/geosparql#wktLiteral> .
<http://example.org/b> ex:rel _:n1 .`

	got := parseAll(t, src)
	if len(got) != 8 {
		t.Fatalf("expected 8 triples, got %d: %v", len(got), got)
	}
	if got[1].Object.Value != "http://example.org/T2" {
		t.Errorf("object list not expanded: %v", got[1])
	}
	if got[2].Object.Value != `A "quoted"` || got[2].Object.Lang != "en" || got[2].Object.Datatype != "" {
		t.Errorf("unexpected literal: %+v", got[2].Object)
	}
	if got[3].Object.Datatype != XSDNamespace+"integer" {
		t.Errorf("expected integer datatype, got %q", got[3].Object.Datatype)
	}
	if got[4].Object.Datatype != XSDNamespace+"decimal" {
		t.Errorf("expected decimal datatype, got %q", got[4].Object.Datatype)
	}
	if got[6].Object.Datatype != GeoWKTLiteral {
		t.Errorf("expected wkt datatype, got %q", got[6].Object.Datatype)
	}
	if got[7].Object.Value != "_:n1" {
		t.Errorf("expected blank node, got %q", got[7].Object.Value)
	}
}

func TestParseTurtle_PlainStringHasNoDatatype(t *testing.T) {
	got := parseAll(t, `<http://example.org/a> <http://example.org/label> "Vesemir" .`)
	if len(got) != 1 || got[0].Object != Literal("Vesemir") {
		t.Fatalf("expected a plain literal, got %v", got)
	}
}

func TestParseTurtle_CollectionsAndAnonymousNodes(t *testing.T) {
	src := `@prefix ex: <http://example.org/> .
ex:a ex:members ( ex:c ex:d ) .
ex:b ex:shape [ ex:kind ex:Polygon ] .`

	got := parseAll(t, src)

	var first []string
	for _, tr := range got {
		if tr.Predicate.Value == RDFNamespace+"first" {
			first = append(first, tr.Object.Value)
		}
	}
	if len(first) != 2 || first[0] != "http://example.org/c" || first[1] != "http://example.org/d" {
		t.Errorf("collection members = %v", first)
	}

	var shape Term
	for _, tr := range got {
		if tr.Subject.Value == "http://example.org/b" && tr.Predicate.Value == "http://example.org/shape" {
			shape = tr.Object
		}
	}
	if !strings.HasPrefix(shape.Value, "_:") {
		t.Fatalf("expected a blank node object, got %v", shape)
	}
	found := false
	for _, tr := range got {
		if tr.Subject == shape && tr.Object.Value == "http://example.org/Polygon" {
			found = true
		}
	}
	if !found {
		t.Errorf("anonymous node properties missing from %v", got)
	}
}

func TestParseTurtle_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"undefined prefix", `nope:a a nope:B .`},
		{"unterminated iri", `<http://x a <http://y> .`},
		{"missing object", `@prefix ex: <http://x/> . ex:a ex:b .`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ParseTurtle(strings.NewReader(tt.src), func(Triple) {})
			if !errors.Is(err, ErrSyntax) {
				t.Errorf("expected ErrSyntax, got %v", err)
			}
		})
	}
}
