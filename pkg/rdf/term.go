package rdf

import (
	"fmt"
	"iter"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// TermType represents the variant of an RDF/N3 term
type TermType byte

const (
	TermTypeNamedNode TermType = iota + 1
	TermTypeBlankNode
	TermTypeLiteral
	TermTypeVariable
	TermTypeFormula
)

func (t TermType) String() string {
	switch t {
	case TermTypeNamedNode:
		return "iri"
	case TermTypeBlankNode:
		return "blank-node"
	case TermTypeLiteral:
		return "literal"
	case TermTypeVariable:
		return "variable"
	case TermTypeFormula:
		return "formula"
	default:
		return "unknown"
	}
}

// Term represents an RDF/N3 term. The set of implementations is closed:
// *NamedNode, *BlankNode, *Literal, *Variable and *Formula.
type Term interface {
	Type() TermType
	String() string
	Equals(other Term) bool

	term()
}

// NamedNode represents an absolute IRI
type NamedNode struct {
	IRI string
}

func NewNamedNode(iri string) *NamedNode {
	return &NamedNode{IRI: iri}
}

func (n *NamedNode) Type() TermType {
	return TermTypeNamedNode
}

func (n *NamedNode) String() string {
	return fmt.Sprintf("<%s>", n.IRI)
}

func (n *NamedNode) Equals(other Term) bool {
	if on, ok := other.(*NamedNode); ok {
		return n.IRI == on.IRI
	}
	return false
}

func (*NamedNode) term() {}

// BlankNode represents a blank node. ID is unique within Scope, which
// identifies the document or formula the node was minted in.
type BlankNode struct {
	ID    string
	Scope string
}

func NewBlankNode(id string) *BlankNode {
	return &BlankNode{ID: id}
}

func NewScopedBlankNode(id, scope string) *BlankNode {
	return &BlankNode{ID: id, Scope: scope}
}

func (b *BlankNode) Type() TermType {
	return TermTypeBlankNode
}

func (b *BlankNode) String() string {
	return fmt.Sprintf("_:%s", b.ID)
}

func (b *BlankNode) Equals(other Term) bool {
	if ob, ok := other.(*BlankNode); ok {
		return b.ID == ob.ID && b.Scope == ob.Scope
	}
	return false
}

func (*BlankNode) term() {}

// Literal represents an RDF literal. A literal is either plain (with a
// datatype, xsd:string by default) or language-tagged, in which case its
// datatype is always rdf:langString.
type Literal struct {
	Value    string
	Language string     // lower-cased language tag, empty for plain literals
	Datatype *NamedNode // nil means xsd:string
}

func NewLiteral(value string) *Literal {
	return &Literal{Value: value, Datatype: XSDString}
}

func NewLiteralWithLanguage(value, language string) *Literal {
	return &Literal{Value: value, Language: strings.ToLower(language), Datatype: RDFLangString}
}

func NewLiteralWithDatatype(value string, datatype *NamedNode) *Literal {
	if datatype == nil {
		datatype = XSDString
	}
	return &Literal{Value: value, Datatype: datatype}
}

// Validate rejects a language tag combined with any datatype other than
// rdf:langString.
func (l *Literal) Validate() error {
	if l.Language != "" && l.Datatype != nil && !l.Datatype.Equals(RDFLangString) {
		return errors.Wrapf(ErrLiteralConflict, "%q@%s has datatype <%s>", l.Value, l.Language, l.Datatype.IRI)
	}
	return nil
}

// DatatypeIRI returns the effective datatype IRI of the literal
func (l *Literal) DatatypeIRI() string {
	if l.Language != "" {
		return RDFLangString.IRI
	}
	if l.Datatype == nil {
		return XSDString.IRI
	}
	return l.Datatype.IRI
}

func (l *Literal) Type() TermType {
	return TermTypeLiteral
}

func (l *Literal) String() string {
	result := fmt.Sprintf(`"%s"`, l.Value)
	if l.Language != "" {
		result += "@" + l.Language
	} else if dt := l.DatatypeIRI(); dt != XSDString.IRI {
		result += "^^<" + dt + ">"
	}
	return result
}

func (l *Literal) Equals(other Term) bool {
	if ol, ok := other.(*Literal); ok {
		if l.Value != ol.Value {
			return false
		}
		if !strings.EqualFold(l.Language, ol.Language) {
			return false
		}
		return l.DatatypeIRI() == ol.DatatypeIRI()
	}
	return false
}

func (*Literal) term() {}

// Quantifier tells how an N3 variable is bound
type Quantifier byte

const (
	Universal Quantifier = iota + 1
	Existential
)

func (q Quantifier) String() string {
	switch q {
	case Universal:
		return "forAll"
	case Existential:
		return "forSome"
	default:
		return "unknown"
	}
}

// Variable represents an N3 quantified variable. Variables written as ?x
// have an empty IRI; variables introduced by @forAll or @forSome keep the
// IRI they were declared with and use it as their name.
type Variable struct {
	Name       string
	IRI        string
	Quantifier Quantifier
}

func NewVariable(name string) *Variable {
	return &Variable{Name: name, Quantifier: Universal}
}

func NewQuantifiedVariable(iri string, q Quantifier) *Variable {
	return &Variable{Name: iri, IRI: iri, Quantifier: q}
}

func (v *Variable) Type() TermType {
	return TermTypeVariable
}

func (v *Variable) String() string {
	if v.IRI != "" {
		return fmt.Sprintf("<%s>", v.IRI)
	}
	return "?" + v.Name
}

func (v *Variable) Equals(other Term) bool {
	if ov, ok := other.(*Variable); ok {
		return v.Name == ov.Name && v.IRI == ov.IRI && v.Quantifier == ov.Quantifier
	}
	return false
}

func (*Variable) term() {}

// Formula is an N3 graph used as a term. Formulas are immutable once built.
type Formula struct {
	graph        *Graph
	universals   []*Variable
	existentials []*Variable
	key          string
}

// NewFormula wraps a copy of g as a term, so later changes to g do not
// affect the formula.
func NewFormula(g *Graph, quantified ...*Variable) *Formula {
	if g == nil {
		g = NewGraph()
	}
	f := &Formula{graph: g.Clone()}
	for _, v := range quantified {
		if v.Quantifier == Existential {
			f.existentials = append(f.existentials, v)
		} else {
			f.universals = append(f.universals, v)
		}
	}
	f.key = formulaKey(f, nil)
	return f
}

// Graph returns a copy of the nested graph
func (f *Formula) Graph() *Graph {
	return f.graph.Clone()
}

// Len returns the number of nested triples
func (f *Formula) Len() int {
	return f.graph.Len()
}

// Triples returns the nested triples in insertion order
func (f *Formula) Triples() []*Triple {
	return f.graph.Triples()
}

// All iterates the nested triples in insertion order
func (f *Formula) All() iter.Seq[*Triple] {
	return f.graph.All()
}

// Universals returns the variables declared with @forAll in this formula
func (f *Formula) Universals() []*Variable {
	return f.universals
}

// Existentials returns the variables declared with @forSome in this formula
func (f *Formula) Existentials() []*Variable {
	return f.existentials
}

func (f *Formula) Type() TermType {
	return TermTypeFormula
}

func (f *Formula) String() string {
	var sb strings.Builder
	sb.WriteString("{")
	for _, t := range f.graph.triples {
		sb.WriteString(" ")
		sb.WriteString(t.String())
	}
	sb.WriteString(" }")
	return sb.String()
}

func (f *Formula) Equals(other Term) bool {
	if of, ok := other.(*Formula); ok {
		return f.key == of.key
	}
	return false
}

func (*Formula) term() {}

// Triple represents an RDF triple (subject, predicate, object)
type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term
}

func NewTriple(subject, predicate, object Term) *Triple {
	return &Triple{
		Subject:   subject,
		Predicate: predicate,
		Object:    object,
	}
}

func (t *Triple) String() string {
	return fmt.Sprintf("%s %s %s .", t.Subject, t.Predicate, t.Object)
}

func (t *Triple) Equals(other *Triple) bool {
	return t.Subject.Equals(other.Subject) &&
		t.Predicate.Equals(other.Predicate) &&
		t.Object.Equals(other.Object)
}

// Validate checks the position rules: subjects are IRIs, blank nodes,
// variables or formulas; predicates are IRIs or variables; no position
// is empty. Literal objects must not mix a language tag and a datatype.
func (t *Triple) Validate() error {
	if t.Subject == nil || t.Predicate == nil || t.Object == nil {
		return ErrIncompleteTriple
	}
	switch t.Subject.(type) {
	case *NamedNode, *BlankNode, *Variable, *Formula:
	default:
		return newPositionError("subject", t.Subject)
	}
	switch t.Predicate.(type) {
	case *NamedNode, *Variable:
	default:
		return newPositionError("predicate", t.Predicate)
	}
	if l, ok := t.Object.(*Literal); ok {
		return l.Validate()
	}
	return nil
}

// Helper functions for common XSD datatypes
func NewIntegerLiteral(value int64) *Literal {
	return NewLiteralWithDatatype(strconv.FormatInt(value, 10), XSDInteger)
}

func NewDoubleLiteral(value float64) *Literal {
	return NewLiteralWithDatatype(strconv.FormatFloat(value, 'E', -1, 64), XSDDouble)
}

func NewBooleanLiteral(value bool) *Literal {
	return NewLiteralWithDatatype(strconv.FormatBool(value), XSDBoolean)
}
