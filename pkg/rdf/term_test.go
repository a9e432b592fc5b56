package rdf

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ===== NamedNode Tests =====

func TestNamedNode_Type(t *testing.T) {
	node := NewNamedNode("http://example.org/resource")
	if node.Type() != TermTypeNamedNode {
		t.Errorf("Expected TermTypeNamedNode, got %v", node.Type())
	}
}

func TestNamedNode_String(t *testing.T) {
	node := NewNamedNode("http://example.org/resource")
	expected := "<http://example.org/resource>"
	if node.String() != expected {
		t.Errorf("Expected %s, got %s", expected, node.String())
	}
}

func TestNamedNode_Equals(t *testing.T) {
	node1 := NewNamedNode("http://example.org/resource")
	node2 := NewNamedNode("http://example.org/resource")
	node3 := NewNamedNode("http://example.org/different")

	if !node1.Equals(node2) {
		t.Error("Expected equal NamedNodes to be equal")
	}
	if node1.Equals(node3) {
		t.Error("Expected different NamedNodes to not be equal")
	}
	if node1.Equals(NewLiteral("test")) {
		t.Error("NamedNode should not equal Literal")
	}
}

// ===== BlankNode Tests =====

func TestBlankNode_String(t *testing.T) {
	node := NewBlankNode("b1")
	if node.String() != "_:b1" {
		t.Errorf("Expected _:b1, got %s", node.String())
	}
}

func TestBlankNode_EqualsUsesScope(t *testing.T) {
	a := NewScopedBlankNode("x", "doc")
	b := NewScopedBlankNode("x", "doc")
	c := NewScopedBlankNode("x", "doc/f1")

	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(c), "same label in another scope is a different node")
	assert.False(t, a.Equals(NewNamedNode("x")))
}

// ===== Literal Tests =====

func TestLiteral_String(t *testing.T) {
	tests := []struct {
		name     string
		literal  *Literal
		expected string
	}{
		{"plain", NewLiteral("hello"), `"hello"`},
		{"language", NewLiteralWithLanguage("hello", "EN-gb"), `"hello"@en-gb`},
		{"typed", NewLiteralWithDatatype("42", XSDInteger), `"42"^^<http://www.w3.org/2001/XMLSchema#integer>`},
		{"nil datatype", NewLiteralWithDatatype("x", nil), `"x"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.literal.String())
		})
	}
}

func TestLiteral_Equals(t *testing.T) {
	tests := []struct {
		name  string
		a, b  *Literal
		equal bool
	}{
		{"same plain", NewLiteral("a"), NewLiteral("a"), true},
		{"plain vs explicit xsd:string", NewLiteral("a"), NewLiteralWithDatatype("a", XSDString), true},
		{"zero value datatype", &Literal{Value: "a"}, NewLiteral("a"), true},
		{"different value", NewLiteral("a"), NewLiteral("b"), false},
		{"language case", NewLiteralWithLanguage("a", "en"), &Literal{Value: "a", Language: "EN"}, true},
		{"language vs plain", NewLiteralWithLanguage("a", "en"), NewLiteral("a"), false},
		{"datatype differs", NewLiteralWithDatatype("1", XSDInteger), NewLiteralWithDatatype("1", XSDDecimal), false},
		{"integer helper", NewIntegerLiteral(5), NewLiteralWithDatatype("5", XSDInteger), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, tt.a.Equals(tt.b))
			assert.Equal(t, tt.equal, tt.b.Equals(tt.a))
		})
	}
}

func TestLiteral_LanguageImpliesLangString(t *testing.T) {
	lit := NewLiteralWithLanguage("chat", "fr")
	assert.Equal(t, RDFLangString.IRI, lit.DatatypeIRI())

	// A language tag wins over whatever datatype was set by hand
	lit = &Literal{Value: "chat", Language: "fr", Datatype: XSDInteger}
	assert.Equal(t, RDFLangString.IRI, lit.DatatypeIRI())
}

func TestLiteral_EmptyString(t *testing.T) {
	lit := NewLiteral("")
	if lit.String() != `""` {
		t.Errorf(`Expected "", got %s`, lit.String())
	}
}

func TestNewTypedLiteralHelpers(t *testing.T) {
	assert.Equal(t, "42", NewIntegerLiteral(42).Value)
	assert.Equal(t, XSDInteger.IRI, NewIntegerLiteral(42).DatatypeIRI())
	assert.Equal(t, "1.5E+00", NewDoubleLiteral(1.5).Value)
	assert.Equal(t, XSDDouble.IRI, NewDoubleLiteral(1.5).DatatypeIRI())
	assert.Equal(t, "true", NewBooleanLiteral(true).Value)
	assert.Equal(t, XSDBoolean.IRI, NewBooleanLiteral(false).DatatypeIRI())
}

// ===== Variable and Formula Tests =====

func TestVariable(t *testing.T) {
	v := NewVariable("x")
	assert.Equal(t, "?x", v.String())
	assert.Equal(t, Universal, v.Quantifier)

	q := NewQuantifiedVariable("http://example.org/y", Existential)
	assert.Equal(t, "<http://example.org/y>", q.String())
	assert.Equal(t, "forSome", q.Quantifier.String())

	assert.True(t, v.Equals(NewVariable("x")))
	assert.False(t, v.Equals(NewVariable("y")))
	assert.False(t, q.Equals(NewQuantifiedVariable("http://example.org/y", Universal)))
	assert.False(t, q.Equals(NewNamedNode("http://example.org/y")))
}

func TestFormula_EqualsIgnoresTripleOrder(t *testing.T) {
	p := NewNamedNode("http://example.org/p")
	t1 := NewTriple(NewNamedNode("http://example.org/a"), p, NewLiteral("1"))
	t2 := NewTriple(NewNamedNode("http://example.org/b"), p, NewLiteral("2"))

	f1 := NewFormula(NewGraphFromTriples(t1, t2))
	f2 := NewFormula(NewGraphFromTriples(t2, t1))
	f3 := NewFormula(NewGraphFromTriples(t1))

	assert.True(t, f1.Equals(f2))
	assert.False(t, f1.Equals(f3))
	assert.Equal(t, TermTypeFormula, f1.Type())
}

func TestFormula_Quantifiers(t *testing.T) {
	all := NewQuantifiedVariable("http://example.org/x", Universal)
	some := NewQuantifiedVariable("http://example.org/y", Existential)
	f := NewFormula(nil, all, some)

	require.NotNil(t, f.Graph())
	assert.Equal(t, 0, f.Len())
	assert.Equal(t, []*Variable{all}, f.Universals())
	assert.Equal(t, []*Variable{some}, f.Existentials())
	assert.False(t, f.Equals(NewFormula(nil, all)))
}

func TestFormula_Immutable(t *testing.T) {
	p := NewNamedNode("http://example.org/p")
	t1 := NewTriple(NewNamedNode("http://example.org/a"), p, NewLiteral("1"))
	t2 := NewTriple(NewNamedNode("http://example.org/b"), p, NewLiteral("2"))

	source := NewGraphFromTriples(t1)
	f := NewFormula(source)
	source.Add(t2)
	f.Graph().Add(t2)

	require.Equal(t, 1, f.Len())
	assert.True(t, f.Triples()[0].Equals(t1))
	assert.True(t, f.Equals(NewFormula(NewGraphFromTriples(t1))))
	assert.False(t, f.Equals(NewFormula(NewGraphFromTriples(t1, t2))))

	outer := NewGraphFromTriples(NewTriple(f, p, NewLiteral("x")))
	assert.True(t, outer.Contains(NewTriple(NewFormula(NewGraphFromTriples(t1)), p, NewLiteral("x"))))

	var seen []*Triple
	for tr := range f.All() {
		seen = append(seen, tr)
	}
	assert.Len(t, seen, 1)
}

// ===== Triple Tests =====

func TestTriple_String(t *testing.T) {
	triple := NewTriple(
		NewNamedNode("http://example.org/s"),
		NewNamedNode("http://example.org/p"),
		NewLiteral("o"),
	)
	expected := `<http://example.org/s> <http://example.org/p> "o" .`
	if triple.String() != expected {
		t.Errorf("Expected %s, got %s", expected, triple.String())
	}
}

func TestTriple_Validate(t *testing.T) {
	iri := NewNamedNode("http://example.org/x")
	formula := NewFormula(nil)

	tests := []struct {
		name    string
		triple  *Triple
		wantErr error
	}{
		{"iri triple", NewTriple(iri, iri, iri), nil},
		{"blank subject", NewTriple(NewBlankNode("b"), iri, NewLiteral("x")), nil},
		{"variable predicate", NewTriple(iri, NewVariable("p"), iri), nil},
		{"formula subject", NewTriple(formula, iri, formula), nil},
		{"literal subject", NewTriple(NewLiteral("x"), iri, iri), ErrInvalidPosition},
		{"blank predicate", NewTriple(iri, NewBlankNode("b"), iri), ErrInvalidPosition},
		{"formula predicate", NewTriple(iri, formula, iri), ErrInvalidPosition},
		{"missing object", NewTriple(iri, iri, nil), ErrIncompleteTriple},
		{"language literal", NewTriple(iri, iri, NewLiteralWithLanguage("x", "en")), nil},
		{"language with datatype", NewTriple(iri, iri,
			&Literal{Value: "5", Language: "en", Datatype: XSDInteger}), ErrLiteralConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.triple.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestTermTypeString(t *testing.T) {
	assert.Equal(t, "iri", TermTypeNamedNode.String())
	assert.Equal(t, "formula", TermTypeFormula.String())
	assert.Equal(t, "unknown", TermType(0).String())
}
