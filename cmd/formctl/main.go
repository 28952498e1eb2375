// Command formctl renders, fills, validates and serves the forms of a schema
// registry.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "formctl",
		Short:        "Schema-driven forms for the terminal and the browser",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.close()
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (yaml, json or toml)")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.String("schemas", "", "directory of extra registry documents")
	flags.Bool("no-builtin", false, "do not load the built-in catalog")

	root.AddCommand(
		newServeCmd(a),
		newRenderCmd(a),
		newValidateCmd(a),
		newFillCmd(a),
		newLintCmd(a),
		newImportCmd(a),
	)
	return root
}
