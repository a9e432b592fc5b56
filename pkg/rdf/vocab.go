package rdf

// Namespaces used by the parser and serializer
const (
	RDFNamespace  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFSNamespace = "http://www.w3.org/2000/01/rdf-schema#"
	XSDNamespace  = "http://www.w3.org/2001/XMLSchema#"
	OWLNamespace  = "http://www.w3.org/2002/07/owl#"
	LogNamespace  = "http://www.w3.org/2000/10/swap/log#"
	MathNamespace = "http://www.w3.org/2000/10/swap/math#"
)

var (
	XSDString  = NewNamedNode(XSDNamespace + "string")
	XSDInteger = NewNamedNode(XSDNamespace + "integer")
	XSDDecimal = NewNamedNode(XSDNamespace + "decimal")
	XSDDouble  = NewNamedNode(XSDNamespace + "double")
	XSDBoolean = NewNamedNode(XSDNamespace + "boolean")

	RDFLangString = NewNamedNode(RDFNamespace + "langString")
	RDFType       = NewNamedNode(RDFNamespace + "type")
	RDFFirst      = NewNamedNode(RDFNamespace + "first")
	RDFRest       = NewNamedNode(RDFNamespace + "rest")
	RDFNil        = NewNamedNode(RDFNamespace + "nil")

	OWLSameAs  = NewNamedNode(OWLNamespace + "sameAs")
	LogImplies = NewNamedNode(LogNamespace + "implies")
)

// DefaultPrefixes returns the prefixes bound at the start of every parse
// unless the caller opts out. The empty prefix is never pre-bound.
func DefaultPrefixes() map[string]string {
	return map[string]string{
		"rdf":  RDFNamespace,
		"rdfs": RDFSNamespace,
		"xsd":  XSDNamespace,
	}
}
