package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-formengine/internal/store"
	"github.com/goliatone/go-formengine/pkg/engine"
	"github.com/goliatone/go-formengine/pkg/renderers/tui"
)

func newFillCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fill module/form",
		Short: "Fill a form interactively and save it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			module, formName, s, err := a.lookup(args[0])
			if err != nil {
				return err
			}
			st, closeStore, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			flags := cmd.Flags()
			rec := &store.Record{Module: module, Form: formName}
			mode := engine.ModeCreate
			if raw, _ := flags.GetString("record"); raw != "" {
				id, err := uuid.Parse(raw)
				if err != nil {
					return fmt.Errorf("record: %w", err)
				}
				loaded, err := st.Load(ctx, id)
				if err != nil {
					return err
				}
				if loaded.Module != module || loaded.Form != formName {
					return fmt.Errorf("record %s belongs to %s/%s", id, loaded.Module, loaded.Form)
				}
				rec, mode = &loaded, engine.ModeEdit
			}
			if valuesPath, _ := flags.GetString("values"); valuesPath != "" {
				values, err := readValues(cmd, valuesPath)
				if err != nil {
					return err
				}
				if rec.Values == nil {
					rec.Values = map[string]any{}
				}
				for k, v := range values {
					rec.Values[k] = v
				}
			}

			save := store.SaveFunc(st, rec)
			up, err := a.uploader(ctx)
			if err != nil {
				return err
			}
			if up != nil {
				save = up.Wrap(s, save)
			}
			form, err := engine.New(s, rec.Values,
				engine.WithMode(mode),
				engine.WithSave(save),
				engine.WithLogger(a.logger),
			)
			if err != nil {
				return err
			}

			attempts, _ := flags.GetInt("attempts")
			result, err := tui.New(
				tui.WithOutput(cmd.OutOrStdout()),
				tui.WithMaxAttempts(attempts),
				tui.WithLogger(a.logger),
			).Fill(ctx, form)
			if err != nil {
				if errors.Is(err, tui.ErrAborted) {
					a.logger.Info("fill aborted", zap.String("form", args[0]))
				}
				return err
			}
			if result.OK() {
				fmt.Fprintf(cmd.OutOrStdout(), "Record %s saved.\n", rec.ID)
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.String("record", "", "id of a stored record to edit")
	flags.String("values", "", "JSON value bag to prefill (- for stdin)")
	flags.Int("attempts", 3, "submit attempts before giving up")
	flags.String("database-url", "", "Postgres DSN; records stay in memory when empty")
	flags.String("bucket", "", "S3 bucket for uploaded images and files")
	return cmd
}
