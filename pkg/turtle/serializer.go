package turtle

import (
	"fmt"
	"io"
	"iter"
	"maps"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/aleksaelezovic/tortoise/pkg/rdf"
)

// Serializer writes a graph as Turtle, or N3 when the graph holds formulas
// or variables. Output is produced one chunk at a time: the preamble first,
// then one chunk per top-level statement.
type Serializer struct {
	graph  *rdf.Graph
	opts   SerializerOptions
	log    *zap.Logger
	indent string

	prepared bool
	err      error
	stage    int
	pos      int
	emitted  int

	prefixes   map[string]string // prefix -> namespace, used ones only
	candidates []prefixBinding   // longest namespace first
	levels     map[*rdf.Graph]*level
	formulas   map[*rdf.Formula]*rdf.Graph // one snapshot per formula term
	order      []*level
	top        *level
	topVars    []*rdf.Variable

	objRefs  map[string]int
	subjects map[string]*rdf.Graph // graph in which a blank node is a subject
	objLevel map[string]*rdf.Graph // graph holding the object reference
	mixed    map[string]bool       // subject in more than one graph
	inline   map[string]bool
	lists    map[string][]rdf.Term
	consumed map[string]bool
	labels   map[string]string
	next     int
}

const (
	stagePreamble = iota
	stageStatements
	stageDone
)

type prefixBinding struct {
	prefix    string
	namespace string
}

// level is one graph's statements grouped by subject then predicate
type level struct {
	graph    *rdf.Graph
	order    []string
	subjects map[string]rdf.Term
	groups   map[string][]*predicateGroup
	roots    []string
}

type predicateGroup struct {
	predicate rdf.Term
	objects   []rdf.Term
}

// NewSerializer creates a serializer for g. Nothing is computed until the
// first call to Next.
func NewSerializer(g *rdf.Graph, opts ...SerializerOption) *Serializer {
	o := DefaultSerializerOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if g == nil {
		g = rdf.NewGraph()
	}
	return &Serializer{
		graph:  g,
		opts:   o,
		log:    o.Logger,
		indent: o.Indent.unit(),
	}
}

// SerializeString renders g in one call
func SerializeString(g *rdf.Graph, opts ...SerializerOption) (string, error) {
	var sb strings.Builder
	if _, err := NewSerializer(g, opts...).WriteTo(&sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Next returns the next chunk of output, or io.EOF when done. Errors are
// terminal.
func (s *Serializer) Next() (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if !s.prepared {
		s.prepared = true
		if err := s.prepare(); err != nil {
			s.err = err
			return "", err
		}
	}

	for {
		switch s.stage {
		case stagePreamble:
			s.stage = stageStatements
			if chunk := s.preamble(); chunk != "" {
				return chunk, nil
			}
		case stageStatements:
			if s.pos >= len(s.top.roots) {
				s.stage = stageDone
				s.log.Debug("serialization finished", zap.Int(FieldTriples, s.graph.Len()), zap.Int("statements", s.emitted))
				continue
			}
			key := s.top.roots[s.pos]
			s.pos++
			var sb strings.Builder
			if s.emitted > 0 {
				sb.WriteString("\n")
			}
			s.writeStatement(&sb, s.top, key, 0)
			sb.WriteString(" .\n")
			s.emitted++
			return sb.String(), nil
		default:
			s.err = io.EOF
			return "", io.EOF
		}
	}
}

// All iterates over the output chunks, stopping after the first error
func (s *Serializer) All() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for {
			chunk, err := s.Next()
			if err == io.EOF {
				return
			}
			if !yield(chunk, err) || err != nil {
				return
			}
		}
	}
}

// WriteTo writes the remaining output to w
func (s *Serializer) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for chunk, err := range s.All() {
		if err != nil {
			return total, err
		}
		n, err := io.WriteString(w, chunk)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (s *Serializer) preamble() string {
	var sb strings.Builder
	for _, prefix := range slices.Sorted(maps.Keys(s.prefixes)) {
		fmt.Fprintf(&sb, "@prefix %s: <%s> .\n", prefix, s.prefixes[prefix])
	}
	if s.opts.Base != "" {
		fmt.Fprintf(&sb, "@base <%s> .\n", s.opts.Base)
	}
	s.writeQuantifiers(&sb, 0, s.topVars)
	if sb.Len() > 0 && len(s.top.roots) > 0 {
		sb.WriteString("\n")
	}
	return sb.String()
}

// prepare validates every term, groups statements and decides how each
// blank node is written
func (s *Serializer) prepare() error {
	s.levels = map[*rdf.Graph]*level{}
	s.formulas = map[*rdf.Formula]*rdf.Graph{}
	s.objRefs = map[string]int{}
	s.subjects = map[string]*rdf.Graph{}
	s.objLevel = map[string]*rdf.Graph{}
	s.mixed = map[string]bool{}
	s.inline = map[string]bool{}
	s.lists = map[string][]rdf.Term{}
	s.consumed = map[string]bool{}
	s.labels = map[string]string{}

	if s.opts.Base != "" {
		if err := checkIRI(s.opts.Base); err != nil {
			return err
		}
	}

	s.top = s.buildLevel(s.graph)
	s.order = s.allLevels()
	for _, lv := range s.order {
		if err := s.validate(lv); err != nil {
			return err
		}
	}
	if err := s.findLists(); err != nil {
		return err
	}
	s.findInline()
	for _, lv := range s.order {
		s.chooseRoots(lv)
	}
	s.topVars = s.quantifiedAtTop()
	s.choosePrefixes()

	s.log.Debug("serializer prepared",
		zap.Int(FieldTriples, s.graph.Len()),
		zap.Int("formulas", len(s.levels)-1),
		zap.Int("lists", len(s.lists)),
		zap.Strings("prefixes", slices.Sorted(maps.Keys(s.prefixes))))
	return nil
}

// buildLevel groups g and, recursively, every formula it contains
func (s *Serializer) buildLevel(g *rdf.Graph) *level {
	if lv, ok := s.levels[g]; ok {
		return lv
	}
	lv := &level{
		graph:    g,
		subjects: map[string]rdf.Term{},
		groups:   map[string][]*predicateGroup{},
	}
	s.levels[g] = lv

	for t := range g.All() {
		key := termKey(t.Subject)
		groups, seen := lv.groups[key]
		if !seen {
			lv.order = append(lv.order, key)
			lv.subjects[key] = t.Subject
		}
		var group *predicateGroup
		for _, pg := range groups {
			if pg.predicate.Equals(t.Predicate) {
				group = pg
				break
			}
		}
		if group == nil {
			group = &predicateGroup{predicate: t.Predicate}
			groups = append(groups, group)
		}
		group.objects = append(group.objects, t.Object)
		lv.groups[key] = groups

		if b, ok := t.Subject.(*rdf.BlankNode); ok {
			bk := termKey(b)
			if prev, ok := s.subjects[bk]; ok && prev != g {
				s.mixed[bk] = true
			}
			s.subjects[bk] = g
		}
		if b, ok := t.Object.(*rdf.BlankNode); ok {
			bk := termKey(b)
			s.objRefs[bk]++
			s.objLevel[bk] = g
		}
		for _, term := range []rdf.Term{t.Subject, t.Predicate, t.Object} {
			if f, ok := term.(*rdf.Formula); ok {
				s.buildLevel(s.formulaGraph(f))
			}
		}
	}

	for _, key := range lv.order {
		slices.SortStableFunc(lv.groups[key], func(a, b *predicateGroup) int {
			return typeFirst(a.predicate) - typeFirst(b.predicate)
		})
	}
	return lv
}

// formulaGraph returns the graph the levels of f are keyed by
func (s *Serializer) formulaGraph(f *rdf.Formula) *rdf.Graph {
	g, ok := s.formulas[f]
	if !ok {
		g = f.Graph()
		s.formulas[f] = g
	}
	return g
}

func typeFirst(p rdf.Term) int {
	if p.Equals(rdf.RDFType) {
		return 0
	}
	return 1
}

// allLevels returns the top level followed by formula levels in a fixed order
func (s *Serializer) allLevels() []*level {
	out := []*level{s.top}
	seen := map[*rdf.Graph]bool{s.top.graph: true}
	for i := 0; i < len(out); i++ {
		lv := out[i]
		for _, key := range lv.order {
			for _, pg := range lv.groups[key] {
				for _, term := range append([]rdf.Term{lv.subjects[key], pg.predicate}, pg.objects...) {
					if f, ok := term.(*rdf.Formula); ok && !seen[s.formulaGraph(f)] {
						fg := s.formulaGraph(f)
						seen[fg] = true
						out = append(out, s.levels[fg])
					}
				}
			}
		}
	}
	return out
}

func (s *Serializer) validate(lv *level) error {
	check := func(t rdf.Term) error {
		switch v := t.(type) {
		case *rdf.NamedNode:
			return checkIRI(v.IRI)
		case *rdf.Literal:
			if err := v.Validate(); err != nil {
				return newSerializeError(CodeLiteralConflict, "%v", err)
			}
			if v.Datatype != nil {
				return checkIRI(v.Datatype.IRI)
			}
		case *rdf.Variable:
			if v.IRI != "" {
				return checkIRI(v.IRI)
			}
		case nil:
			return newSerializeError(CodeUnresolvableTerm, "missing term")
		}
		return nil
	}
	for _, key := range lv.order {
		if err := check(lv.subjects[key]); err != nil {
			return err
		}
		for _, pg := range lv.groups[key] {
			if err := check(pg.predicate); err != nil {
				return err
			}
			for _, o := range pg.objects {
				if err := check(o); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func checkIRI(iri string) error {
	if !rdf.IsAbsoluteIRI(iri) {
		return newSerializeError(CodeUnresolvableTerm, "IRI %q is not absolute", iri)
	}
	for _, r := range iri {
		if isIllegalIRIRune(r) {
			return newSerializeError(CodeUnresolvableTerm, "IRI %q contains %q which cannot be written", iri, r)
		}
	}
	return nil
}

// listShape returns the first and rest objects when b is a subject of
// exactly one rdf:first and one rdf:rest triple and nothing else
func (s *Serializer) listShape(b string) (first, rest rdf.Term, ok bool) {
	g, isSubject := s.subjects[b]
	if !isSubject || s.mixed[b] {
		return nil, nil, false
	}
	groups := s.levels[g].groups[b]
	if len(groups) != 2 {
		return nil, nil, false
	}
	for _, pg := range groups {
		if len(pg.objects) != 1 {
			return nil, nil, false
		}
		switch {
		case pg.predicate.Equals(rdf.RDFFirst):
			first = pg.objects[0]
		case pg.predicate.Equals(rdf.RDFRest):
			rest = pg.objects[0]
		}
	}
	return first, rest, first != nil && rest != nil
}

// findLists folds rdf:first/rdf:rest chains into collections. A chain is
// folded when every node is referenced exactly once and it ends in rdf:nil.
// Every suffix of a folded chain is recorded too but only the head is ever
// written, since the other nodes are referenced from consumed nodes alone.
func (s *Serializer) findLists() error {
	for _, lv := range s.order {
		for _, key := range lv.order {
			if _, ok := lv.subjects[key].(*rdf.BlankNode); !ok || s.objRefs[key] != 1 {
				continue
			}
			items, nodes, err := s.walkList(key)
			if err != nil {
				return err
			}
			if items == nil {
				continue
			}
			s.lists[key] = items
			for _, n := range nodes {
				s.consumed[n] = true
			}
		}
	}
	return nil
}

// walkList follows rest links from head. It returns nil items when the
// chain cannot be written as a collection.
func (s *Serializer) walkList(head string) ([]rdf.Term, []string, error) {
	var items []rdf.Term
	var nodes []string
	visited := map[string]bool{}
	home := s.subjects[head]
	key := head
	for {
		if visited[key] {
			return nil, nil, newSerializeError(CodeCyclicBlankStructure, "rdf:rest chain starting at %s loops back to %s", head, key)
		}
		visited[key] = true
		first, rest, ok := s.listShape(key)
		if !ok || s.subjects[key] != home || s.objRefs[key] != 1 || s.objLevel[key] != home {
			return nil, nil, nil
		}
		items = append(items, first)
		nodes = append(nodes, key)

		if rest.Equals(rdf.RDFNil) {
			return items, nodes, nil
		}
		b, ok := rest.(*rdf.BlankNode)
		if !ok {
			return nil, nil, nil
		}
		key = termKey(b)
	}
}

// findInline marks blank nodes written as [ ... ] at their single reference
func (s *Serializer) findInline() {
	if !s.opts.InlineBlankNodes {
		return
	}
	for key, refs := range s.objRefs {
		if refs != 1 || s.mixed[key] || s.consumed[key] {
			continue
		}
		if g, isSubject := s.subjects[key]; isSubject && g != s.objLevel[key] {
			continue
		}
		s.inline[key] = true
	}
}

// chooseRoots picks the statements written at the top of a level. Inline
// blank nodes unreachable from any root form a cycle; the first one found
// in each cycle is written with a label instead.
func (s *Serializer) chooseRoots(lv *level) {
	visited := map[string]bool{}
	var walk func(key string)
	var visit func(t rdf.Term)
	visit = func(t rdf.Term) {
		b, ok := t.(*rdf.BlankNode)
		if !ok {
			return
		}
		key := termKey(b)
		if items, ok := s.lists[key]; ok {
			for _, item := range items {
				visit(item)
			}
			return
		}
		if s.inline[key] && !visited[key] {
			visited[key] = true
			walk(key)
		}
	}
	walk = func(key string) {
		for _, pg := range lv.groups[key] {
			for _, o := range pg.objects {
				visit(o)
			}
		}
	}

	skipped := func(key string) bool {
		return s.inline[key] || s.consumed[key]
	}
	for _, key := range lv.order {
		if !skipped(key) {
			lv.roots = append(lv.roots, key)
			walk(key)
		}
	}
	for _, key := range lv.order {
		if s.inline[key] && !visited[key] {
			s.log.Debug("breaking blank node cycle", zap.String("node", key))
			s.inline[key] = false
			visited[key] = true
			lv.roots = append(lv.roots, key)
			walk(key)
		}
	}
}

// choosePrefixes keeps the configured prefixes, adds well-known ones when
// AutoPrefix is set, then drops every prefix no written IRI uses
func (s *Serializer) choosePrefixes() {
	all := map[string]string{}
	for prefix, ns := range s.opts.Prefixes {
		if !validPrefixLabel(prefix) || checkIRI(ns) != nil {
			s.log.Debug("ignoring prefix", zap.String(FieldPrefix, prefix), zap.String("namespace", ns))
			continue
		}
		all[prefix] = ns
	}
	if s.opts.AutoPrefix {
		taken := map[string]bool{}
		for _, ns := range all {
			taken[ns] = true
		}
		for _, prefix := range slices.Sorted(maps.Keys(WellKnownPrefixes)) {
			ns := WellKnownPrefixes[prefix]
			if _, ok := all[prefix]; ok || taken[ns] {
				continue
			}
			all[prefix] = ns
		}
	}
	s.setCandidates(all)

	used := map[string]bool{}
	note := func(iri string) {
		if prefix, _, ok := s.compact(iri); ok {
			used[prefix] = true
		}
	}
	for _, lv := range s.order {
		for _, iri := range s.writtenIRIs(lv) {
			note(iri)
		}
	}

	s.prefixes = map[string]string{}
	for prefix := range used {
		s.prefixes[prefix] = all[prefix]
	}
	s.setCandidates(s.prefixes)
}

func (s *Serializer) setCandidates(prefixes map[string]string) {
	s.candidates = s.candidates[:0]
	for _, prefix := range slices.Sorted(maps.Keys(prefixes)) {
		s.candidates = append(s.candidates, prefixBinding{prefix: prefix, namespace: prefixes[prefix]})
	}
	slices.SortStableFunc(s.candidates, func(a, b prefixBinding) int {
		return len(b.namespace) - len(a.namespace)
	})
}

// writtenIRIs lists the IRIs that appear in the output of one level
func (s *Serializer) writtenIRIs(lv *level) []string {
	var out []string
	var add func(t rdf.Term, predicate bool)
	add = func(t rdf.Term, predicate bool) {
		switch v := t.(type) {
		case *rdf.NamedNode:
			if predicate && v.Equals(rdf.RDFType) {
				return
			}
			if !predicate && v.Equals(rdf.RDFNil) {
				return
			}
			out = append(out, v.IRI)
		case *rdf.Literal:
			if _, bare := bareLiteral(v); !bare && v.Language == "" && v.DatatypeIRI() != rdf.XSDString.IRI {
				out = append(out, v.DatatypeIRI())
			}
		case *rdf.Variable:
			if v.IRI != "" {
				out = append(out, v.IRI)
			}
		case *rdf.Formula:
			for _, q := range append(slices.Clone(v.Universals()), v.Existentials()...) {
				out = append(out, q.IRI)
			}
		}
	}
	for _, key := range lv.order {
		if s.consumed[key] {
			for _, pg := range lv.groups[key] {
				if pg.predicate.Equals(rdf.RDFFirst) {
					add(pg.objects[0], false)
				}
			}
			continue
		}
		add(lv.subjects[key], false)
		for _, pg := range lv.groups[key] {
			add(pg.predicate, true)
			for _, o := range pg.objects {
				add(o, false)
			}
		}
	}
	return out
}

// compact finds the longest namespace that leaves a writable local name
func (s *Serializer) compact(iri string) (prefix, local string, ok bool) {
	for _, c := range s.candidates {
		if !strings.HasPrefix(iri, c.namespace) {
			continue
		}
		if local, ok := escapeLocalName(iri[len(c.namespace):]); ok {
			return c.prefix, local, true
		}
	}
	return "", "", false
}

func (s *Serializer) label(key string) string {
	if l, ok := s.labels[key]; ok {
		return l
	}
	s.next++
	l := fmt.Sprintf("_:b%d", s.next)
	s.labels[key] = l
	return l
}

func (s *Serializer) indentAt(depth int) string {
	return strings.Repeat(s.indent, depth)
}

// writeStatement writes one subject with its predicates. Continuation
// lines are indented one level deeper than depth.
func (s *Serializer) writeStatement(sb *strings.Builder, lv *level, key string, depth int) {
	subject := lv.subjects[key]
	if b, ok := subject.(*rdf.BlankNode); ok && s.bareSubject(termKey(b)) {
		s.writeBlock(sb, lv.groups[key], depth+1)
		return
	}
	s.writeTerm(sb, subject, depth, posSubject)
	sb.WriteString(" ")
	s.writeGroups(sb, lv.groups[key], depth)
}

// bareSubject reports whether a blank subject is written as [ ... ] . rather
// than with a label
func (s *Serializer) bareSubject(key string) bool {
	return s.opts.InlineBlankNodes && s.objRefs[key] == 0 && !s.mixed[key]
}

func (s *Serializer) writeGroups(sb *strings.Builder, groups []*predicateGroup, depth int) {
	for i, pg := range groups {
		if i > 0 {
			sb.WriteString(" ;\n")
			sb.WriteString(s.indentAt(depth + 1))
		}
		s.writeTerm(sb, pg.predicate, depth, posPredicate)
		sb.WriteString(" ")
		for j, o := range pg.objects {
			if j > 0 {
				sb.WriteString(", ")
			}
			s.writeTerm(sb, o, depth, posObject)
		}
	}
}

// writeBlock writes [ ... ] with its lines at indent inner
func (s *Serializer) writeBlock(sb *strings.Builder, groups []*predicateGroup, inner int) {
	if len(groups) == 0 {
		sb.WriteString("[]")
		return
	}
	sb.WriteString("[\n")
	sb.WriteString(s.indentAt(inner))
	s.writeGroups(sb, groups, inner-1)
	sb.WriteString("\n")
	sb.WriteString(s.indentAt(inner - 1))
	sb.WriteString("]")
}

// term positions
const (
	posSubject = iota
	posPredicate
	posObject
)

func (s *Serializer) writeTerm(sb *strings.Builder, t rdf.Term, depth, pos int) {
	switch v := t.(type) {
	case *rdf.NamedNode:
		switch {
		case pos == posPredicate && v.Equals(rdf.RDFType):
			sb.WriteString("a")
		case pos != posPredicate && v.Equals(rdf.RDFNil):
			sb.WriteString("()")
		default:
			s.writeIRI(sb, v.IRI)
		}
	case *rdf.BlankNode:
		s.writeBlank(sb, v, depth)
	case *rdf.Literal:
		s.writeLiteral(sb, v)
	case *rdf.Variable:
		if v.IRI != "" {
			s.writeIRI(sb, v.IRI)
		} else {
			sb.WriteString("?")
			sb.WriteString(v.Name)
		}
	case *rdf.Formula:
		if pos == posSubject {
			s.writeFormula(sb, v, depth+1)
		} else {
			s.writeFormula(sb, v, depth+2)
		}
	}
}

func (s *Serializer) writeIRI(sb *strings.Builder, iri string) {
	if prefix, local, ok := s.compact(iri); ok {
		sb.WriteString(prefix)
		sb.WriteString(":")
		sb.WriteString(local)
		return
	}
	sb.WriteString("<")
	sb.WriteString(iri)
	sb.WriteString(">")
}

func (s *Serializer) writeBlank(sb *strings.Builder, b *rdf.BlankNode, depth int) {
	key := termKey(b)
	if items, ok := s.lists[key]; ok {
		sb.WriteString("(")
		for _, item := range items {
			sb.WriteString(" ")
			s.writeTerm(sb, item, depth, posObject)
		}
		sb.WriteString(" )")
		return
	}
	if s.inline[key] {
		var groups []*predicateGroup
		if g, ok := s.subjects[key]; ok {
			groups = s.levels[g].groups[key]
		}
		s.writeBlock(sb, groups, depth+2)
		return
	}
	sb.WriteString(s.label(key))
}

// writeFormula writes { ... } with its statements at indent inner
func (s *Serializer) writeFormula(sb *strings.Builder, f *rdf.Formula, inner int) {
	lv := s.levels[s.formulaGraph(f)]
	if len(lv.roots) == 0 && len(f.Universals()) == 0 && len(f.Existentials()) == 0 {
		sb.WriteString("{}")
		return
	}
	sb.WriteString("{\n")
	s.writeQuantifiers(sb, inner, f.Universals())
	s.writeQuantifiers(sb, inner, f.Existentials())
	for _, key := range lv.roots {
		sb.WriteString(s.indentAt(inner))
		s.writeStatement(sb, lv, key, inner)
		sb.WriteString(" .\n")
	}
	sb.WriteString(s.indentAt(inner - 1))
	sb.WriteString("}")
}

// writeQuantifiers writes one @forAll line for the universals in vars and
// one @forSome line for the existentials
func (s *Serializer) writeQuantifiers(sb *strings.Builder, depth int, vars []*rdf.Variable) {
	for _, q := range []rdf.Quantifier{rdf.Universal, rdf.Existential} {
		first := true
		for _, v := range vars {
			if v.Quantifier != q || v.IRI == "" {
				continue
			}
			if first {
				sb.WriteString(s.indentAt(depth))
				sb.WriteString("@")
				sb.WriteString(q.String())
				first = false
			} else {
				sb.WriteString(",")
			}
			sb.WriteString(" ")
			s.writeIRI(sb, v.IRI)
		}
		if !first {
			sb.WriteString(" .\n")
		}
	}
}

// quantifiedAtTop finds IRI variables that no formula declares. They are
// declared once in the preamble.
func (s *Serializer) quantifiedAtTop() []*rdf.Variable {
	declared := map[string]bool{}
	for _, lv := range s.order {
		for _, key := range lv.order {
			for _, pg := range lv.groups[key] {
				for _, t := range append([]rdf.Term{lv.subjects[key], pg.predicate}, pg.objects...) {
					if f, ok := t.(*rdf.Formula); ok {
						for _, v := range append(slices.Clone(f.Universals()), f.Existentials()...) {
							declared[v.IRI] = true
						}
					}
				}
			}
		}
	}

	var out []*rdf.Variable
	seen := map[string]bool{}
	for _, lv := range s.order {
		for _, key := range lv.order {
			for _, pg := range lv.groups[key] {
				for _, t := range append([]rdf.Term{lv.subjects[key], pg.predicate}, pg.objects...) {
					v, ok := t.(*rdf.Variable)
					if !ok || v.IRI == "" || declared[v.IRI] || seen[v.IRI] {
						continue
					}
					seen[v.IRI] = true
					out = append(out, v)
				}
			}
		}
	}
	return out
}

func (s *Serializer) writeLiteral(sb *strings.Builder, l *rdf.Literal) {
	if text, ok := bareLiteral(l); ok {
		sb.WriteString(text)
		return
	}
	sb.WriteString(quoteLiteral(l.Value))
	switch {
	case l.Language != "":
		sb.WriteString("@")
		sb.WriteString(l.Language)
	case l.DatatypeIRI() != rdf.XSDString.IRI:
		sb.WriteString("^^")
		s.writeIRI(sb, l.DatatypeIRI())
	}
}

// termKey identifies a subject or blank node within one serialization
func termKey(t rdf.Term) string {
	switch v := t.(type) {
	case *rdf.BlankNode:
		return "_:" + v.Scope + "#" + v.ID
	case *rdf.Formula:
		return fmt.Sprintf("{%p}", v)
	default:
		return t.String()
	}
}
