package commands

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/aleksaelezovic/tortoise/internal/rdfio"
	"github.com/aleksaelezovic/tortoise/pkg/rdf"
	"github.com/aleksaelezovic/tortoise/pkg/turtle"
)

// stdinPath names standard input on the command line
const stdinPath = "-"

// input describes one document named on the command line
type input struct {
	path   string
	format rdfio.Format
	base   string // overrides the file IRI and the configured base
}

// newInput picks the named format, or the one matching path's extension.
// Standard input defaults to Turtle.
func newInput(path, formatName, base string) (input, error) {
	in := input{path: path, base: base}
	var err error
	switch {
	case formatName != "":
		in.format, err = rdfio.ForName(formatName)
	case path == stdinPath:
		in.format = rdfio.Turtle
	default:
		in.format, err = rdfio.ForPath(path)
	}
	return in, err
}

func (in input) open(stdin io.Reader) (io.ReadCloser, error) {
	if in.path == stdinPath {
		return io.NopCloser(stdin), nil
	}
	f, err := os.Open(in.path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", in.path)
	}
	return f, nil
}

// parserOptions orders the base sources from weakest to strongest: file
// IRI, configuration, then the --base flag.
func (a *app) parserOptions(in input) []turtle.Option {
	var opts []turtle.Option
	if in.path != stdinPath {
		opts = append(opts, turtle.WithBase(rdfio.FileIRI(in.path)))
	}
	opts = append(opts, a.cfg.ParserOptions()...)
	if in.base != "" {
		opts = append(opts, turtle.WithBase(in.base))
	}
	return append(opts, turtle.WithLogger(a.logger.With(zap.String(turtle.FieldFile, in.path))))
}

// stream parses in and hands each triple to fn as soon as it is produced.
// The parser is returned for its prefixes, also on error.
func (a *app) stream(in input, stdin io.Reader, fn func(*rdf.Triple) error) (*turtle.Parser, error) {
	r, err := in.open(stdin)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	p := in.format.NewParser(r, a.parserOptions(in)...)
	for t, err := range p.All() {
		if err != nil {
			return p, errors.Wrapf(err, "%s", in.path)
		}
		if err := fn(t); err != nil {
			return p, err
		}
	}

	for _, d := range p.Diagnostics() {
		a.logger.Warn(d.Msg,
			zap.String(turtle.FieldFile, in.path),
			zap.String(turtle.FieldCode, string(d.Code)),
			zap.Int("line", d.Line),
			zap.Int("column", d.Column))
	}
	return p, nil
}

// readGraph parses in completely
func (a *app) readGraph(in input, stdin io.Reader) (*rdf.Graph, *turtle.Parser, error) {
	g := rdf.NewGraph()
	p, err := a.stream(in, stdin, func(t *rdf.Triple) error {
		g.Add(t)
		return nil
	})
	return g, p, err
}
