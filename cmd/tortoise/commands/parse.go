package commands

import (
	"bufio"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aleksaelezovic/tortoise/internal/rdfio"
	"github.com/aleksaelezovic/tortoise/pkg/rdf"
	"github.com/aleksaelezovic/tortoise/pkg/turtle"
)

func newParseCommand(a *app) *cobra.Command {
	var (
		formatName string
		base       string
		n3         bool
	)

	cmd := &cobra.Command{
		Use:   "parse FILE...",
		Short: "Print the triples of documents, one per line",
		Long: `Parse documents and print every triple in N-Triples form, in the
order the parser produces them. Use - to read standard input.

Formula terms from N3 documents are printed in braces.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if n3 {
				formatName = rdfio.N3.Name
			}
			w := bufio.NewWriter(cmd.OutOrStdout())
			for _, path := range args {
				in, err := newInput(path, formatName, base)
				if err != nil {
					return err
				}
				count := 0
				_, err = a.stream(in, cmd.InOrStdin(), func(t *rdf.Triple) error {
					count++
					return rdf.WriteTripleCanonical(w, t)
				})
				if err != nil {
					// keep what was printed before the error
					w.Flush()
					return err
				}
				a.logger.Info("parsed", zap.String(turtle.FieldFile, path), zap.Int(turtle.FieldTriples, count))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&formatName, "format", "f", "", "input format: turtle, ntriples or n3 (default: from the file extension)")
	cmd.Flags().StringVar(&base, "base", "", "base IRI for relative references")
	cmd.Flags().BoolVar(&n3, "n3", false, "read input as N3 (same as --format n3)")
	return cmd
}
