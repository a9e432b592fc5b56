// Package commands implements the tortoise command line.
package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aleksaelezovic/tortoise/internal/config"
	"github.com/aleksaelezovic/tortoise/internal/logger"
	"github.com/aleksaelezovic/tortoise/pkg/turtle"
)

// app carries state shared by all subcommands once flags are parsed
type app struct {
	configPath string
	jsonLog    bool
	verbosity  int

	cfg    *config.Config
	logger *zap.Logger
}

// NewRootCommand builds the tortoise command tree. Each call returns an
// independent tree, so tests can run commands side by side.
func NewRootCommand() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "tortoise",
		Short: "Read, check, format and store Turtle and N3 documents",
		Long: `tortoise reads Turtle, N3 and N-Triples documents.

Configuration sources (in order of precedence):
1. Command line flags
2. Environment variables (TORTOISE_* prefix)
3. The nearest tortoise.toml, or the file given with --config
4. Default values

Examples:
  tortoise parse data.ttl              # Print triples as N-Triples
  tortoise fmt -w data.ttl             # Reformat a document in place
  tortoise check *.ttl rules.n3        # Check many documents at once
  tortoise store put people data.ttl   # Keep a graph in the local store
  tortoise config show --format yaml   # Show the effective configuration`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.logger.Sync()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default: nearest "+config.FileName+")")
	flags.BoolVar(&a.jsonLog, "json-log", false, "write logs as JSON")
	flags.CountVarP(&a.verbosity, "verbose", "v", "Increase log verbosity (repeat for more detail: -v, -vv)")

	root.AddCommand(
		newParseCommand(a),
		newFmtCommand(a),
		newCheckCommand(a),
		newStoreCommand(a),
		newConfigCommand(a),
	)
	return root
}

// setup loads the configuration and builds the logger
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, path, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	log, err := logger.NewWithWriter(cmd.ErrOrStderr(), cfg.Log.JSON || a.jsonLog, cfg.Log.Level, a.verbosity)
	if err != nil {
		return err
	}

	a.cfg, a.logger = cfg, log
	if path != "" {
		a.logger.Debug("loaded configuration", zap.String(turtle.FieldFile, path))
	}
	return nil
}
