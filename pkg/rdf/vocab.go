package rdf

// W3C and GeoSPARQL IRIs used by the graph.
const (
	RDFNamespace  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFSNamespace = "http://www.w3.org/2000/01/rdf-schema#"
	OWLNamespace  = "http://www.w3.org/2002/07/owl#"
	XSDNamespace  = "http://www.w3.org/2001/XMLSchema#"
	GeoNamespace  = "http://www.opengis.net/ont/geosparql#"

	RDFType         = RDFNamespace + "type"
	RDFSLabel       = RDFSNamespace + "label"
	RDFSSubClassOf  = RDFSNamespace + "subClassOf"
	OWLClass        = OWLNamespace + "Class"
	XSDDouble       = XSDNamespace + "double"
	XSDString       = XSDNamespace + "string"
	GeoFeature      = GeoNamespace + "Feature"
	GeoGeometry     = GeoNamespace + "Geometry"
	GeoHasGeometry  = GeoNamespace + "hasGeometry"
	GeoAsWKT        = GeoNamespace + "asWKT"
	GeoWKTLiteral   = GeoNamespace + "wktLiteral"
	DefaultOntology = "http://cgi.di.uoa.gr/witcher/ontology#"
	DefaultResource = "http://cgi.di.uoa.gr/witcher/resource/"
)

// Namespace mints IRIs under a base.
type Namespace string

// Term returns the IRI term for local under the namespace.
func (n Namespace) Term(local string) Term {
	return IRI(string(n) + local)
}

// Namespaces carries the project ontology ("witcher:") and resource ("dbr:")
// bases used to mint class, property and entity IRIs.
type Namespaces struct {
	Ontology Namespace
	Resource Namespace
}

// DefaultNamespaces returns the published ontology and resource bases.
func DefaultNamespaces() Namespaces {
	return Namespaces{Ontology: DefaultOntology, Resource: DefaultResource}
}

// Prefixes returns the prefix table used when writing Turtle.
func (n Namespaces) Prefixes() []Prefix {
	return []Prefix{
		{Name: "rdf", IRI: RDFNamespace},
		{Name: "rdfs", IRI: RDFSNamespace},
		{Name: "owl", IRI: OWLNamespace},
		{Name: "xsd", IRI: XSDNamespace},
		{Name: "geo", IRI: GeoNamespace},
		{Name: "witcher", IRI: string(n.Ontology)},
		{Name: "dbr", IRI: string(n.Resource)},
	}
}

// Frequently used terms.
var (
	TypePredicate     = IRI(RDFType)
	LabelPredicate    = IRI(RDFSLabel)
	SubClassPredicate = IRI(RDFSSubClassOf)
	ClassTerm         = IRI(OWLClass)
	FeatureClass      = IRI(GeoFeature)
	GeometryClass     = IRI(GeoGeometry)
	HasGeometry       = IRI(GeoHasGeometry)
	AsWKT             = IRI(GeoAsWKT)
)

// WKT returns a geo:wktLiteral term.
func WKT(wkt string) Term {
	return TypedLiteral(wkt, GeoWKTLiteral)
}
