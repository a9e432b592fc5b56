package testsuite

import (
	"net/url"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/aleksaelezovic/tortoise/internal/rdfio"
	"github.com/aleksaelezovic/tortoise/pkg/rdf"
)

const (
	mfNS   = "http://www.w3.org/2001/sw/DataAccess/tests/test-manifest#"
	rdftNS = "http://www.w3.org/ns/rdftest#"
)

var (
	mfManifest   = rdf.NewNamedNode(mfNS + "Manifest")
	mfEntries    = rdf.NewNamedNode(mfNS + "entries")
	mfInclude    = rdf.NewNamedNode(mfNS + "include")
	mfName       = rdf.NewNamedNode(mfNS + "name")
	mfAction     = rdf.NewNamedNode(mfNS + "action")
	mfResult     = rdf.NewNamedNode(mfNS + "result")
	rdftApproval = rdf.NewNamedNode(rdftNS + "approval")
	rdftApproved = rdf.NewNamedNode(rdftNS + "Approved")
	rdfsComment  = rdf.NewNamedNode(rdf.RDFSNamespace + "comment")
)

// TestManifest represents a W3C test manifest
type TestManifest struct {
	Path  string
	Tests []TestCase
}

// TestCase represents a single syntax or evaluation test
type TestCase struct {
	Name        string
	Type        TestType
	Action      string // input file path
	Result      string // expected N-Triples file path, eval tests only
	Approved    bool
	Description string
}

// TestType represents the type of test
type TestType string

const (
	// RDF Turtle tests
	TestTypeTurtleEval           TestType = "TestTurtleEval"
	TestTypeTurtlePositiveSyntax TestType = "TestTurtlePositiveSyntax"
	TestTypeTurtleNegativeSyntax TestType = "TestTurtleNegativeSyntax"
	TestTypeTurtleNegativeEval   TestType = "TestTurtleNegativeEval"

	// RDF N-Triples tests
	TestTypeNTriplesPositiveSyntax TestType = "TestNTriplesPositiveSyntax"
	TestTypeNTriplesNegativeSyntax TestType = "TestNTriplesNegativeSyntax"
)

// ParseManifest reads a Turtle manifest and the manifests it includes.
// Entries are returned in mf:entries order.
func ParseManifest(path string) (*TestManifest, error) {
	return parseManifestWithVisited(path, make(map[string]bool))
}

func parseManifestWithVisited(path string, visited map[string]bool) (*TestManifest, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}
	manifest := &TestManifest{Path: absPath}
	if visited[absPath] {
		return manifest, nil
	}
	visited[absPath] = true

	g, _, err := rdfio.ParseFile(absPath, rdfio.Turtle)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse manifest")
	}
	idx := newIndex(g)

	for _, m := range idx.subjectsOfType(mfManifest) {
		for _, entry := range idx.list(idx.object(m, mfEntries)) {
			test, ok, err := idx.testCase(entry)
			if err != nil {
				return nil, errors.Wrapf(err, "manifest %s", absPath)
			}
			if ok {
				manifest.Tests = append(manifest.Tests, test)
			}
		}

		for _, include := range idx.list(idx.object(m, mfInclude)) {
			includePath, err := filePath(include)
			if err != nil {
				return nil, errors.Wrapf(err, "manifest %s: include", absPath)
			}
			included, err := parseManifestWithVisited(includePath, visited)
			if err != nil {
				return nil, errors.Wrapf(err, "included manifest %s", includePath)
			}
			manifest.Tests = append(manifest.Tests, included.Tests...)
		}
	}

	return manifest, nil
}

// index answers subject/predicate lookups over a manifest graph.
type index struct {
	objects map[string]map[string][]rdf.Term
	types   map[string][]rdf.Term
}

func newIndex(g *rdf.Graph) *index {
	idx := &index{
		objects: make(map[string]map[string][]rdf.Term),
		types:   make(map[string][]rdf.Term),
	}
	for t := range g.All() {
		s := t.Subject.String()
		if idx.objects[s] == nil {
			idx.objects[s] = make(map[string][]rdf.Term)
		}
		p := t.Predicate.String()
		idx.objects[s][p] = append(idx.objects[s][p], t.Object)
		if t.Predicate.Equals(rdf.RDFType) {
			o := t.Object.String()
			idx.types[o] = append(idx.types[o], t.Subject)
		}
	}
	return idx
}

func (idx *index) object(s rdf.Term, p *rdf.NamedNode) rdf.Term {
	if s == nil {
		return nil
	}
	objs := idx.objects[s.String()][p.String()]
	if len(objs) == 0 {
		return nil
	}
	return objs[0]
}

func (idx *index) subjectsOfType(class *rdf.NamedNode) []rdf.Term {
	return idx.types[class.String()]
}

// list walks an RDF collection. Cycles end the walk.
func (idx *index) list(head rdf.Term) []rdf.Term {
	var items []rdf.Term
	seen := make(map[string]bool)
	for node := head; node != nil && !node.Equals(rdf.RDFNil); node = idx.object(node, rdf.RDFRest) {
		if seen[node.String()] {
			break
		}
		seen[node.String()] = true
		if item := idx.object(node, rdf.RDFFirst); item != nil {
			items = append(items, item)
		}
	}
	return items
}

func (idx *index) testCase(entry rdf.Term) (TestCase, bool, error) {
	var test TestCase
	if typ, ok := idx.object(entry, rdf.RDFType).(*rdf.NamedNode); ok {
		if local, found := strings.CutPrefix(typ.IRI, rdftNS); found {
			test.Type = TestType(local)
		}
	}
	if name, ok := idx.object(entry, mfName).(*rdf.Literal); ok {
		test.Name = name.Value
	}
	if comment, ok := idx.object(entry, rdfsComment).(*rdf.Literal); ok {
		test.Description = comment.Value
	}
	var err error
	if action := idx.object(entry, mfAction); action != nil {
		if test.Action, err = filePath(action); err != nil {
			return test, false, errors.Wrapf(err, "action of %s", entry)
		}
	}
	if result := idx.object(entry, mfResult); result != nil {
		if test.Result, err = filePath(result); err != nil {
			return test, false, errors.Wrapf(err, "result of %s", entry)
		}
	}
	if approval := idx.object(entry, rdftApproval); approval != nil {
		test.Approved = approval.Equals(rdftApproved)
	}
	// Malformed entries with missing names or types are skipped
	return test, test.Name != "" && test.Type != "", nil
}

// filePath converts a file:// IRI to a local path.
func filePath(term rdf.Term) (string, error) {
	n, ok := term.(*rdf.NamedNode)
	if !ok {
		return "", errors.Newf("%s is not an IRI", term)
	}
	u, err := url.Parse(n.IRI)
	if err != nil {
		return "", errors.Wrapf(err, "invalid IRI %s", n)
	}
	if u.Scheme != "file" {
		return "", errors.Newf("%s is not a file IRI", n)
	}
	return filepath.FromSlash(u.Path), nil
}
