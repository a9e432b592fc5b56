package commands

import (
	"fmt"
	"runtime"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aleksaelezovic/tortoise/pkg/rdf"
	"github.com/aleksaelezovic/tortoise/pkg/turtle"
)

// checkResult is the outcome for one file
type checkResult struct {
	triples int
	err     error
}

func newCheckCommand(a *app) *cobra.Command {
	var (
		formatName string
		jobs       int
	)

	cmd := &cobra.Command{
		Use:   "check FILE...",
		Short: "Check that documents parse",
		Long: `Parse documents concurrently and report the first error in each.
The command fails when any document fails.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs := make([]input, len(args))
			for i, path := range args {
				if path == stdinPath {
					return errors.New("check reads files only")
				}
				in, err := newInput(path, formatName, "")
				if err != nil {
					return err
				}
				inputs[i] = in
			}

			if jobs < 1 {
				jobs = 1
			}
			results := make([]checkResult, len(inputs))
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(jobs)
			for i, in := range inputs {
				g.Go(func() error {
					if err := ctx.Err(); err != nil {
						return err
					}
					results[i] = a.check(in)
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			failed := 0
			out := cmd.OutOrStdout()
			for i, r := range results {
				if r.err != nil {
					failed++
					fmt.Fprintf(out, "FAIL %s: %v\n", inputs[i].path, r.err)
					continue
				}
				fmt.Fprintf(out, "ok   %s (%d triples)\n", inputs[i].path, r.triples)
			}
			if failed > 0 {
				return errors.Newf("%d of %d files failed", failed, len(inputs))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&formatName, "format", "f", "", "input format for all files (default: from each file extension)")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", runtime.GOMAXPROCS(0), "number of files parsed at once")
	return cmd
}

func (a *app) check(in input) checkResult {
	var r checkResult
	_, r.err = a.stream(in, nil, func(*rdf.Triple) error {
		r.triples++
		return nil
	})
	if r.err != nil {
		a.logger.Debug("check failed", zap.String(turtle.FieldFile, in.path), zap.Error(r.err))
	}
	return r
}
