package commands

import (
	"bytes"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/aleksaelezovic/tortoise/pkg/rdf"
	"github.com/aleksaelezovic/tortoise/pkg/turtle"
)

func newFmtCommand(a *app) *cobra.Command {
	var (
		formatName string
		base       string
		write      bool
	)

	cmd := &cobra.Command{
		Use:   "fmt FILE",
		Short: "Rewrite a document as formatted Turtle",
		Long: `Parse a Turtle, N3 or N-Triples document and print it as Turtle.

Prefixes declared in the document are kept when used. Indentation,
extra prefixes and blank node inlining come from the [serializer]
section of the configuration.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := newInput(args[0], formatName, base)
			if err != nil {
				return err
			}
			if write && in.path == stdinPath {
				return errors.New("cannot write back to standard input")
			}

			g, p, err := a.readGraph(in, cmd.InOrStdin())
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := a.serialize(&buf, g, p.Prefixes()); err != nil {
				return errors.Wrapf(err, "format %s", in.path)
			}

			if write {
				info, err := os.Stat(in.path)
				if err != nil {
					return errors.Wrapf(err, "stat %s", in.path)
				}
				return errors.Wrapf(os.WriteFile(in.path, buf.Bytes(), info.Mode().Perm()), "write %s", in.path)
			}
			_, err = buf.WriteTo(cmd.OutOrStdout())
			return err
		},
	}

	cmd.Flags().StringVarP(&formatName, "format", "f", "", "input format: turtle, ntriples or n3 (default: from the file extension)")
	cmd.Flags().StringVar(&base, "base", "", "base IRI for relative references")
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the result back to the file")
	return cmd
}

// serialize writes g as Turtle using the configured serializer options.
// Document prefixes win over configured ones with the same label.
func (a *app) serialize(w io.Writer, g *rdf.Graph, prefixes map[string]string) error {
	opts := a.cfg.SerializerOptions()
	opts.Logger = a.logger
	_, err := turtle.NewSerializer(g,
		turtle.WithOptions(opts),
		turtle.WithPrefixes(prefixes),
	).WriteTo(w)
	return err
}
