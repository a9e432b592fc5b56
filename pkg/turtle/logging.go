package turtle

// Log field names shared by the parser, the serializer and their callers
const (
	FieldFile    = "file"
	FieldTriples = "triples"
	FieldPrefix  = "prefix"
	FieldDepth   = "depth"
	FieldScope   = "scope"
	FieldIRI     = "iri"
	FieldCode    = "code"
	FieldOffset  = "offset"
)
