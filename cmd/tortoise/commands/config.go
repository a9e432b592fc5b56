package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aleksaelezovic/tortoise/internal/config"
)

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage tortoise configuration",
	}
	cmd.AddCommand(newConfigInitCommand(), newConfigShowCommand(a))
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [PATH]",
		Short: "Write a configuration file with the default settings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.FileName
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.WriteFile(path, config.Default(), force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func newConfigShowCommand(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return config.Encode(cmd.OutOrStdout(), a.cfg, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", config.FormatTOML, "output format: toml, json, yaml")
	return cmd
}
