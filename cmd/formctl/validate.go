package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formengine/pkg/engine"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate module/form values.json",
		Short: "Validate a JSON value bag against a form",
		Long: "Validate prints the error bag as JSON and fails when any visible field is invalid. " +
			"Pass - to read the values from stdin.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, s, err := a.lookup(args[0])
			if err != nil {
				return err
			}
			values, err := readValues(cmd, args[1])
			if err != nil {
				return err
			}
			form, err := engine.New(s, values, engine.WithLogger(a.logger))
			if err != nil {
				return err
			}

			valid := form.Validate()
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(map[string]any{"valid": valid, "errors": form.Errors()}); err != nil {
				return err
			}
			if !valid {
				return errInvalid
			}
			return nil
		},
	}
}
