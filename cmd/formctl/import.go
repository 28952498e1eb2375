package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formengine/pkg/importer/openapi"
	"github.com/goliatone/go-formengine/pkg/schema"
)

// document is the registry file layout: one module with its forms.
type document struct {
	Module string                    `yaml:"module"`
	Forms  map[string]*schema.Schema `yaml:"forms"`
}

func newImportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-openapi source",
		Short: "Turn an OpenAPI operation into a form schema",
		Long: "Import reads an OpenAPI 3 document from a file or http(s) URL and converts the " +
			"request body of one operation into a schema. With --module and --form the result " +
			"is wrapped as a registry document ready for schemas.dir.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			flags := cmd.Flags()

			src, err := openapi.SourceFromArg(args[0])
			if err != nil {
				return err
			}
			timeout, _ := flags.GetDuration("timeout")
			data, err := openapi.NewLoader(openapi.WithHTTPFallback(timeout)).Load(ctx, src)
			if err != nil {
				return err
			}
			im := openapi.New(openapi.WithLogger(a.logger))

			if list, _ := flags.GetBool("list"); list {
				ops, err := im.Operations(ctx, data)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				for _, op := range ops {
					body := ""
					if op.HasBody {
						body = "body"
					}
					fmt.Fprintf(w, "%s\t%s %s\t%s\t%s\n", op.ID, op.Method, op.Path, body, op.Summary)
				}
				return w.Flush()
			}

			operation, _ := flags.GetString("operation")
			if operation == "" {
				return fmt.Errorf("--operation is required; --list shows the choices")
			}
			s, err := im.Import(ctx, data, operation)
			if err != nil {
				return err
			}
			if issues := schema.Lint(s); len(issues) > 0 {
				for _, issue := range issues {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", issue)
				}
			}

			module, _ := flags.GetString("module")
			form, _ := flags.GetString("form")
			var out []byte
			switch {
			case module != "" && form != "":
				out, err = yaml.Marshal(document{Module: module, Forms: map[string]*schema.Schema{form: s}})
			case module != "" || form != "":
				return fmt.Errorf("--module and --form go together")
			default:
				format, _ := flags.GetString("format")
				out, err = schema.Encode(s, schema.Format(format))
			}
			if err != nil {
				return err
			}

			output, _ := flags.GetString("output")
			if output == "" {
				_, err = cmd.OutOrStdout().Write(out)
				return err
			}
			return os.WriteFile(output, out, 0o644)
		},
	}
	flags := cmd.Flags()
	flags.String("operation", "", "operationId, or method:path for operations without one")
	flags.Bool("list", false, "list operations instead of importing")
	flags.String("module", "", "wrap the schema in a registry document for this module")
	flags.String("form", "", "form name inside the registry document")
	flags.String("format", string(schema.FormatYAML), "schema encoding: yaml or json")
	flags.String("output", "", "output file (stdout if empty)")
	flags.Duration("timeout", 10*time.Second, "timeout for http(s) sources")
	return cmd
}
