package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formengine/pkg/schema"
)

type violation struct {
	form     string
	location string
	message  string
}

func newLintCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "lint [dirs...]",
		Short: "Check every registered form for schema mistakes",
		Long: "Lint loads the configured registry plus any directories given and reports " +
			"problems such as duplicate names, selects without options and conditionals " +
			"that reference unknown fields.",
		RunE: func(cmd *cobra.Command, dirs []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}
			for _, dir := range dirs {
				info, err := os.Stat(dir)
				if err != nil {
					return err
				}
				if !info.IsDir() {
					return fmt.Errorf("lint %s: not a directory", dir)
				}
				if err := reg.LoadFS(os.DirFS(dir)); err != nil {
					return err
				}
			}

			var violations []violation
			for _, module := range reg.Modules() {
				for _, form := range reg.Forms(module) {
					s, err := reg.Lookup(module, form)
					if err != nil {
						return err
					}
					for _, issue := range schema.Lint(s) {
						violations = append(violations, violation{
							form:     module + "/" + form,
							location: issue.Path,
							message:  issue.Message,
						})
					}
				}
			}

			if len(violations) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%d forms ok\n", reg.Len())
				return nil
			}
			sort.Slice(violations, func(i, j int) bool {
				if violations[i].form == violations[j].form {
					if violations[i].location == violations[j].location {
						return violations[i].message < violations[j].message
					}
					return violations[i].location < violations[j].location
				}
				return violations[i].form < violations[j].form
			})
			for _, v := range violations {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s -> %s\n", v.form, v.location, v.message)
			}
			return fmt.Errorf("%d problems found", len(violations))
		},
	}
}
