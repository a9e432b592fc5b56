package rdf

import (
	"fmt"
	"maps"
	"strconv"

	"github.com/cockroachdb/errors"
)

// scopeFrame is one level of the resolution stack. The document owns the
// bottom frame and every open formula pushes one more.
type scopeFrame struct {
	id       string
	base     string
	prefixes map[string]string
	labels   map[string]*BlankNode
	used     map[string]bool
	vars     map[string]*Variable
	declared []*Variable
	anon     int
	children int
}

func newScopeFrame(id, base string) *scopeFrame {
	return &scopeFrame{
		id:       id,
		base:     base,
		prefixes: make(map[string]string),
		labels:   make(map[string]*BlankNode),
		used:     make(map[string]bool),
		vars:     make(map[string]*Variable),
	}
}

// ResolutionContext is the mutable name-resolution state of a single parse:
// base IRI, prefix map, blank node scopes and quantified variables. It is
// owned by one parse call and must not be shared.
type ResolutionContext struct {
	frames []*scopeFrame
}

// NewResolutionContext creates a context whose document scope has the
// given id and base IRI. The base may be empty.
func NewResolutionContext(scope, base string) *ResolutionContext {
	return &ResolutionContext{
		frames: []*scopeFrame{newScopeFrame(scope, base)},
	}
}

func (c *ResolutionContext) top() *scopeFrame {
	return c.frames[len(c.frames)-1]
}

// Depth returns the number of open formula scopes
func (c *ResolutionContext) Depth() int {
	return len(c.frames) - 1
}

// Scope returns the id of the innermost scope
func (c *ResolutionContext) Scope() string {
	return c.top().id
}

// Push opens a nested formula scope. The new scope inherits the current
// base IRI and sees the enclosing prefixes until it redeclares them.
func (c *ResolutionContext) Push() string {
	parent := c.top()
	parent.children++
	id := fmt.Sprintf("%s/f%d", parent.id, parent.children)
	c.frames = append(c.frames, newScopeFrame(id, parent.base))
	return id
}

// Pop closes the innermost formula scope and returns the variables that
// were declared in it with @forAll or @forSome.
func (c *ResolutionContext) Pop() ([]*Variable, error) {
	if len(c.frames) == 1 {
		return nil, ErrScopeUnderflow
	}
	f := c.top()
	c.frames = c.frames[:len(c.frames)-1]
	return f.declared, nil
}

// Base returns the base IRI in effect
func (c *ResolutionContext) Base() string {
	return c.top().base
}

// SetBase resolves iri against the current base and makes it the base
// of the innermost scope.
func (c *ResolutionContext) SetBase(iri string) error {
	resolved, err := c.ResolveIRI(iri)
	if err != nil {
		return err
	}
	c.top().base = resolved
	return nil
}

// ResolveIRI resolves a possibly relative IRI reference against the
// current base.
func (c *ResolutionContext) ResolveIRI(ref string) (string, error) {
	return ResolveIRI(c.Base(), ref)
}

// SetPrefix binds prefix to an IRI in the innermost scope. The IRI is
// resolved against the current base first.
func (c *ResolutionContext) SetPrefix(prefix, iri string) error {
	resolved, err := c.ResolveIRI(iri)
	if err != nil {
		return err
	}
	c.top().prefixes[prefix] = resolved
	return nil
}

// Prefix returns the namespace bound to prefix, searching outward
func (c *ResolutionContext) Prefix(prefix string) (string, bool) {
	for i := len(c.frames) - 1; i >= 0; i-- {
		if ns, ok := c.frames[i].prefixes[prefix]; ok {
			return ns, true
		}
	}
	return "", false
}

// Prefixes returns the prefixes visible from the innermost scope
func (c *ResolutionContext) Prefixes() map[string]string {
	out := make(map[string]string)
	for _, f := range c.frames {
		maps.Copy(out, f.prefixes)
	}
	return out
}

// Expand turns prefix:local into an absolute IRI
func (c *ResolutionContext) Expand(prefix, local string) (string, error) {
	ns, ok := c.Prefix(prefix)
	if !ok {
		return "", errors.Wrapf(ErrUndefinedPrefix, "%q", prefix)
	}
	return ns + local, nil
}

// BlankNode returns the node for a labelled blank node in the innermost
// scope. The same label always yields the same node within one scope.
func (c *ResolutionContext) BlankNode(label string) *BlankNode {
	f := c.top()
	if b, ok := f.labels[label]; ok {
		return b
	}
	b := NewScopedBlankNode(f.unique(label), f.id)
	f.labels[label] = b
	return b
}

// FreshBlankNode mints a blank node that no label in the current scope
// can refer to.
func (c *ResolutionContext) FreshBlankNode() *BlankNode {
	f := c.top()
	id := f.unique("anon" + strconv.Itoa(f.anon))
	f.anon++
	return NewScopedBlankNode(id, f.id)
}

// unique returns candidate, or candidate with a numeric suffix if it is
// already taken in this frame.
func (f *scopeFrame) unique(candidate string) string {
	id := candidate
	for n := 1; f.used[id]; n++ {
		id = candidate + "_" + strconv.Itoa(n)
	}
	f.used[id] = true
	return id
}

// Declare binds iri as a quantified variable in the innermost scope
func (c *ResolutionContext) Declare(iri string, q Quantifier) *Variable {
	f := c.top()
	if v, ok := f.vars[iri]; ok {
		return v
	}
	v := NewQuantifiedVariable(iri, q)
	f.declared = append(f.declared, v)
	f.vars[iri] = v
	return v
}

// LookupVariable returns the variable bound to iri in the innermost scope
// that declares it.
func (c *ResolutionContext) LookupVariable(iri string) (*Variable, bool) {
	for i := len(c.frames) - 1; i >= 0; i-- {
		if v, ok := c.frames[i].vars[iri]; ok {
			return v, true
		}
	}
	return nil, false
}
