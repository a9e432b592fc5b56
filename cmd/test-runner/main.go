package main

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/aleksaelezovic/tortoise/internal/logger"
	"github.com/aleksaelezovic/tortoise/internal/testsuite"
)

func main() {
	var (
		roundTrip bool
		verbosity int
	)

	cmd := &cobra.Command{
		Use:   "test-runner <manifest-file-or-directory>...",
		Short: "Run W3C Turtle and N-Triples test manifests",
		Example: `  test-runner testdata/rdf-tests/rdf/rdf11/rdf-turtle/manifest.ttl
  test-runner --round-trip testdata/rdf-tests/rdf/rdf11/rdf-turtle`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := logger.New(false, "warn", verbosity)
			if err != nil {
				return err
			}
			defer log.Sync()

			runner := testsuite.NewTestRunner(
				testsuite.WithLogger(log),
				testsuite.WithRoundTrip(roundTrip),
			)
			for _, path := range args {
				manifestPath, err := resolveManifest(path)
				if err != nil {
					return err
				}
				if err := runner.RunManifest(manifestPath); err != nil {
					return errors.Wrap(err, "failed to run manifest")
				}
			}

			if stats := runner.GetStats(); stats.Failed > 0 {
				return errors.Newf("%d of %d tests failed", stats.Failed, stats.Total)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&roundTrip, "round-trip", false, "also serialize every evaluated graph and parse it back")
	cmd.Flags().CountVarP(&verbosity, "verbose", "v", "log the reason for each failure (-v, -vv)")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveManifest accepts a manifest file or a directory holding manifest.ttl
func resolveManifest(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", errors.Wrap(err, "failed to access path")
	}
	if !info.IsDir() {
		return path, nil
	}
	manifestPath := filepath.Join(path, "manifest.ttl")
	if _, err := os.Stat(manifestPath); err != nil {
		return "", errors.Newf("no manifest.ttl found in directory: %s", path)
	}
	return manifestPath, nil
}
