package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formengine/pkg/engine"
	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/renderers/html"
	"github.com/goliatone/go-formengine/pkg/renderers/tui"
)

func newRenderCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render module/form",
		Short: "Render a form as HTML or text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, s, err := a.lookup(args[0])
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			rawMode, _ := flags.GetString("mode")
			mode, err := engine.ParseMode(rawMode)
			if err != nil {
				return err
			}
			valuesPath, _ := flags.GetString("values")
			values, err := readValues(cmd, valuesPath)
			if err != nil {
				return err
			}
			form, err := engine.New(s, values, engine.WithMode(mode), engine.WithLogger(a.logger))
			if err != nil {
				return err
			}

			renderers, err := a.renderers(cmd)
			if err != nil {
				return err
			}
			name, _ := flags.GetString("renderer")
			r, err := renderers.Get(name)
			if err != nil {
				return fmt.Errorf("%w (available: %s)", err, strings.Join(renderers.List(), ", "))
			}

			action, _ := flags.GetString("action")
			sections, _ := flags.GetString("sections")
			fields, _ := flags.GetString("fields")
			out, err := r.Render(cmd.Context(), form.View(), render.RenderOptions{
				Action: action,
				Subset: render.ParseSubset(sections, fields),
			})
			if err != nil {
				return err
			}

			output, _ := flags.GetString("output")
			if output == "" {
				_, err = cmd.OutOrStdout().Write(out)
				return err
			}
			if err := os.WriteFile(output, out, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Form written to %s\n", output)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.String("renderer", html.Name, "renderer: html or tui")
	flags.String("format", string(tui.OutputFormatPrettyText), "tui output: pretty, json or form")
	flags.String("mode", string(engine.ModeCreate), "create, edit or view")
	flags.String("values", "", "JSON value bag to prefill (- for stdin)")
	flags.String("action", "", "form action URL")
	flags.String("sections", "", "comma separated section ids to keep")
	flags.String("fields", "", "comma separated field names to keep")
	flags.String("output", "", "output file (stdout if empty)")
	flags.StringSlice("theme-file", nil, "go-theme manifest files")
	flags.String("theme", "", "theme name")
	flags.String("variant", "", "theme variant")
	return cmd
}

// renderers registers html, themed when theme files are configured, and tui
// with the requested output format.
func (a *app) renderers(cmd *cobra.Command) (*render.Registry, error) {
	htmlOpts := []html.Option{html.WithLogger(a.logger)}
	themes, err := a.themes()
	if err != nil {
		return nil, err
	}
	if themes != nil {
		cfg, err := html.SelectTheme(themes, "", "")
		if err != nil {
			return nil, err
		}
		htmlOpts = append(htmlOpts, html.WithTheme(cfg))
	}

	format, _ := cmd.Flags().GetString("format")
	reg := render.NewRegistry()
	reg.MustRegister(html.New(htmlOpts...))
	reg.MustRegister(tui.New(
		tui.WithOutput(cmd.OutOrStdout()),
		tui.WithOutputFormat(tui.OutputFormat(format)),
		tui.WithLogger(a.logger),
	))
	return reg, nil
}
