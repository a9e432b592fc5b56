package commands

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aleksaelezovic/tortoise/internal/encoding"
	"github.com/aleksaelezovic/tortoise/internal/rdfio"
	"github.com/aleksaelezovic/tortoise/internal/storage"
	"github.com/aleksaelezovic/tortoise/pkg/store"
)

func newStoreCommand(a *app) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "store",
		Short: "Keep parsed graphs in a local BadgerDB store",
		Long: `Save, list, print and delete named graphs.

The store lives at store.path from the configuration unless --path is
given. Graphs are read back with their triples in the original order and
with the prefixes of the source document.`,
	}
	cmd.PersistentFlags().StringVar(&path, "path", "", "store directory (default: store.path from the configuration)")

	open := func() (*store.GraphStore, error) {
		dir := path
		if dir == "" {
			dir = a.cfg.Store.Path
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "create store directory %s", dir)
		}
		st, err := storage.NewBadgerStorage(dir, storage.WithLogger(a.logger))
		if err != nil {
			return nil, err
		}
		a.logger.Debug("opened store", zap.String("path", dir))
		return store.NewGraphStore(st, encoding.NewTermEncoder(), encoding.NewTermDecoder(),
			store.WithStoreLogger(a.logger)), nil
	}

	cmd.AddCommand(
		newStorePutCommand(a, open),
		newStoreGetCommand(a, open),
		newStoreListCommand(open),
		newStoreRemoveCommand(open),
	)
	return cmd
}

type openStore func() (*store.GraphStore, error)

func newStorePutCommand(a *app, open openStore) *cobra.Command {
	var (
		formatName string
		base       string
	)

	cmd := &cobra.Command{
		Use:   "put [NAME] FILE",
		Short: "Parse a document and save it as a named graph",
		Long: `Parse FILE and save its triples under NAME, replacing any graph with
that name. Without NAME a urn:uuid: name is generated and printed.

N3 formulas cannot be stored.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, path := "urn:uuid:"+uuid.NewString(), args[0]
			if len(args) == 2 {
				name, path = args[0], args[1]
			}

			in, err := newInput(path, formatName, base)
			if err != nil {
				return err
			}
			g, p, err := a.readGraph(in, cmd.InOrStdin())
			if err != nil {
				return err
			}

			gs, err := open()
			if err != nil {
				return err
			}
			defer gs.Close()

			if err := gs.PutGraph(name, g, p.Prefixes()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored %d triples in %s\n", g.Len(), name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&formatName, "format", "f", "", "input format: turtle, ntriples or n3 (default: from the file extension)")
	cmd.Flags().StringVar(&base, "base", "", "base IRI for relative references")
	return cmd
}

func newStoreGetCommand(a *app, open openStore) *cobra.Command {
	var formatName string

	cmd := &cobra.Command{
		Use:   "get NAME",
		Short: "Print a stored graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gs, err := open()
			if err != nil {
				return err
			}
			defer gs.Close()

			g, prefixes, err := gs.Graph(args[0])
			if err != nil {
				return notFoundHint(err)
			}

			switch formatName {
			case rdfio.Turtle.Name:
				return a.serialize(cmd.OutOrStdout(), g, prefixes)
			case rdfio.NTriples.Name:
				return rdfio.WriteNTriples(cmd.OutOrStdout(), g.Triples())
			default:
				return errors.WithHint(
					errors.Newf("unsupported output format %q", formatName),
					"use turtle or ntriples")
			}
		},
	}

	cmd.Flags().StringVarP(&formatName, "format", "f", rdfio.Turtle.Name, "output format: turtle or ntriples")
	return cmd
}

func newStoreListCommand(open openStore) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List stored graphs",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gs, err := open()
			if err != nil {
				return err
			}
			defer gs.Close()

			graphs, err := gs.Graphs()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tTRIPLES\tUPDATED")
			for _, info := range graphs {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", info.Name, info.Triples, info.Updated.Local().Format(time.DateTime))
			}
			return tw.Flush()
		},
	}
}

func newStoreRemoveCommand(open openStore) *cobra.Command {
	return &cobra.Command{
		Use:     "rm NAME...",
		Aliases: []string{"delete"},
		Short:   "Delete stored graphs",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gs, err := open()
			if err != nil {
				return err
			}
			defer gs.Close()

			for _, name := range args {
				if err := gs.DeleteGraph(name); err != nil {
					return notFoundHint(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", name)
			}
			return nil
		},
	}
}

func notFoundHint(err error) error {
	if errors.Is(err, store.ErrGraphNotFound) {
		return errors.WithHint(err, "run 'tortoise store ls' to see stored graphs")
	}
	return err
}
