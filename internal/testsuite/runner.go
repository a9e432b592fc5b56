package testsuite

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/aleksaelezovic/tortoise/internal/rdfio"
	"github.com/aleksaelezovic/tortoise/pkg/rdf"
	"github.com/aleksaelezovic/tortoise/pkg/turtle"
)

// TestRunner runs W3C Turtle and N-Triples test suite manifests
type TestRunner struct {
	out       io.Writer
	logger    *zap.Logger
	roundTrip bool
	stats     *TestStats
}

// TestStats tracks test execution statistics
type TestStats struct {
	Total   int
	Passed  int
	Failed  int
	Skipped int
	Errors  []TestError
}

// TestError represents a test failure
type TestError struct {
	TestName string
	Type     TestType
	Error    string
}

// Option configures a TestRunner
type Option func(*TestRunner)

// WithOutput sets where progress and the summary are printed
func WithOutput(w io.Writer) Option {
	return func(r *TestRunner) { r.out = w }
}

// WithLogger sets the logger for per-test details
func WithLogger(logger *zap.Logger) Option {
	return func(r *TestRunner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRoundTrip also checks that every evaluated graph survives
// serialization and reparsing.
func WithRoundTrip(enabled bool) Option {
	return func(r *TestRunner) { r.roundTrip = enabled }
}

// NewTestRunner creates a new test runner
func NewTestRunner(opts ...Option) *TestRunner {
	r := &TestRunner{
		out:    os.Stdout,
		logger: zap.NewNop(),
		stats:  &TestStats{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunManifest runs all tests in a manifest file
func (r *TestRunner) RunManifest(manifestPath string) error {
	manifest, err := ParseManifest(manifestPath)
	if err != nil {
		return err
	}

	fmt.Fprintf(r.out, "\n📋 Running manifest: %s\n", manifestPath)
	fmt.Fprintf(r.out, "   Found %d tests\n\n", len(manifest.Tests))

	for i := range manifest.Tests {
		test := &manifest.Tests[i]
		r.stats.Total++

		switch r.runTest(test) {
		case TestResultPass:
			r.stats.Passed++
			fmt.Fprintf(r.out, "  ✅ PASS: %s\n", test.Name)
		case TestResultFail:
			r.stats.Failed++
			fmt.Fprintf(r.out, "  ❌ FAIL: %s\n", test.Name)
		case TestResultSkip:
			r.stats.Skipped++
			fmt.Fprintf(r.out, "  ⏭️  SKIP: %s (type: %s)\n", test.Name, test.Type)
		case TestResultError:
			r.stats.Failed++
			fmt.Fprintf(r.out, "  💥 ERROR: %s\n", test.Name)
		}
	}

	r.printSummary()
	return nil
}

// TestResult represents the result of running a test
type TestResult int

const (
	TestResultPass TestResult = iota
	TestResultFail
	TestResultSkip
	TestResultError
)

// runTest runs a single test case
func (r *TestRunner) runTest(test *TestCase) TestResult {
	switch test.Type {
	case TestTypeTurtleEval:
		return r.runEvalTest(test)
	case TestTypeTurtlePositiveSyntax, TestTypeNTriplesPositiveSyntax:
		return r.runPositiveSyntaxTest(test)
	case TestTypeTurtleNegativeSyntax, TestTypeTurtleNegativeEval:
		return r.runNegativeSyntaxTest(test)
	default:
		// N-Triples negative tests need a stricter grammar than Turtle's
		return TestResultSkip
	}
}

// runPositiveSyntaxTest verifies a document parses successfully
func (r *TestRunner) runPositiveSyntaxTest(test *TestCase) TestResult {
	if test.Action == "" {
		r.recordError(test, "No action file specified")
		return TestResultError
	}

	if _, err := r.parseAction(test); err != nil {
		r.recordError(test, fmt.Sprintf("Parser error: %v", err))
		return TestResultFail
	}
	return TestResultPass
}

// runNegativeSyntaxTest verifies a document fails to parse
func (r *TestRunner) runNegativeSyntaxTest(test *TestCase) TestResult {
	if test.Action == "" {
		r.recordError(test, "No action file specified")
		return TestResultError
	}

	_, err := r.parseAction(test)
	if err == nil {
		r.recordError(test, "Data parsed successfully but should have failed")
		return TestResultFail
	}
	if errors.Is(err, os.ErrNotExist) {
		r.recordError(test, err.Error())
		return TestResultError
	}
	r.logger.Debug("expected failure", zap.String("test", test.Name), zap.Error(err))
	return TestResultPass
}

// runEvalTest parses the action and compares it with the expected triples
func (r *TestRunner) runEvalTest(test *TestCase) TestResult {
	if test.Action == "" || test.Result == "" {
		r.recordError(test, "Action and result files are required")
		return TestResultError
	}

	actual, err := r.parseAction(test)
	if err != nil {
		r.recordError(test, fmt.Sprintf("Parser error: %v", err))
		return TestResultFail
	}

	expected, _, err := rdfio.ParseFile(test.Result, rdfio.NTriples,
		turtle.WithBase(baseIRI(test.Result)))
	if err != nil {
		r.recordError(test, fmt.Sprintf("Failed to parse expected results: %v", err))
		return TestResultError
	}

	if !rdf.Isomorphic(expected, actual) {
		r.recordError(test, fmt.Sprintf("Triples mismatch: expected %d triples, got %d triples",
			expected.Len(), actual.Len()))
		return TestResultFail
	}

	if r.roundTrip {
		if err := checkRoundTrip(actual); err != nil {
			r.recordError(test, fmt.Sprintf("Round trip: %v", err))
			return TestResultFail
		}
	}
	return TestResultPass
}

func (r *TestRunner) parseAction(test *TestCase) (*rdf.Graph, error) {
	format := rdfio.Turtle
	if strings.HasPrefix(string(test.Type), "TestNTriples") {
		format = rdfio.NTriples
	}
	g, _, err := rdfio.ParseFile(test.Action, format,
		turtle.WithBase(baseIRI(test.Action)),
		turtle.WithLogger(r.logger))
	return g, err
}

// checkRoundTrip serializes g and parses the output back.
func checkRoundTrip(g *rdf.Graph) error {
	text, err := turtle.SerializeString(g)
	if err != nil {
		return errors.Wrap(err, "serialize")
	}
	back, err := turtle.ParseString(text)
	if err != nil {
		return errors.Wrapf(err, "reparse %q", text)
	}
	if !rdf.Isomorphic(g, back) {
		return errors.Newf("reparsed graph differs:\n%s", text)
	}
	return nil
}

// baseIRI returns the IRI a test file is published under. W3C suite
// files have a canonical online location; other files use file:// IRIs.
func baseIRI(filePath string) string {
	if idx := strings.Index(filePath, "rdf-tests/"); idx != -1 {
		return "https://w3c.github.io/rdf-tests/" + strings.ReplaceAll(filePath[idx+len("rdf-tests/"):], "\\", "/")
	}
	return rdfio.FileIRI(filePath)
}

// recordError records a test error
func (r *TestRunner) recordError(test *TestCase, errMsg string) {
	r.logger.Debug("test failed", zap.String("test", test.Name), zap.String("reason", errMsg))
	r.stats.Errors = append(r.stats.Errors, TestError{
		TestName: test.Name,
		Type:     test.Type,
		Error:    errMsg,
	})
}

// printSummary prints test execution summary
func (r *TestRunner) printSummary() {
	fmt.Fprintln(r.out, "\n"+strings.Repeat("━", 60))
	fmt.Fprintln(r.out, "📊 TEST SUMMARY")
	fmt.Fprintln(r.out, strings.Repeat("━", 60))
	fmt.Fprintf(r.out, "Total:   %d\n", r.stats.Total)
	if r.stats.Total > 0 {
		fmt.Fprintf(r.out, "Passed:  %d (%.1f%%)\n", r.stats.Passed,
			float64(r.stats.Passed)/float64(r.stats.Total)*100)
	}
	fmt.Fprintf(r.out, "Failed:  %d\n", r.stats.Failed)
	fmt.Fprintf(r.out, "Skipped: %d\n", r.stats.Skipped)

	if len(r.stats.Errors) > 0 {
		fmt.Fprintln(r.out, "\n❌ ERRORS:")
		for i, err := range r.stats.Errors {
			if i >= 10 {
				fmt.Fprintf(r.out, "   ... and %d more\n", len(r.stats.Errors)-10)
				break
			}
			fmt.Fprintf(r.out, "   • %s: %s\n", err.TestName, err.Error)
		}
	}

	fmt.Fprintln(r.out, strings.Repeat("━", 60))
}

// GetStats returns the current test statistics
func (r *TestRunner) GetStats() *TestStats {
	return r.stats
}
