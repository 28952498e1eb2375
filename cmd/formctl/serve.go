package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formengine/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve every registered form over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			reg, err := a.registry()
			if err != nil {
				return err
			}
			st, closeStore, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			opts := []server.Option{server.WithStore(st), server.WithLogger(a.logger)}
			up, err := a.uploader(ctx)
			if err != nil {
				return err
			}
			if up != nil {
				opts = append(opts, server.WithUploader(up))
			}
			themes, err := a.themes()
			if err != nil {
				return err
			}
			if themes != nil {
				opts = append(opts, server.WithThemes(themes))
			}

			return server.New(reg, opts...).Run(ctx, a.cfg.HTTP.Addr, a.cfg.HTTP.ShutdownTimeout)
		},
	}
	flags := cmd.Flags()
	flags.String("addr", "", "listen address (default :8080)")
	flags.String("database-url", "", "Postgres DSN; records stay in memory when empty")
	flags.Bool("migrate", false, "create the records table before serving")
	flags.String("bucket", "", "S3 bucket for uploaded images and files")
	flags.StringSlice("theme-file", nil, "go-theme manifest files")
	return cmd
}
