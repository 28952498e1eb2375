package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	theme "github.com/goliatone/go-theme"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-formengine/internal/catalog"
	"github.com/goliatone/go-formengine/internal/config"
	"github.com/goliatone/go-formengine/internal/logging"
	"github.com/goliatone/go-formengine/internal/media"
	"github.com/goliatone/go-formengine/internal/store"
	"github.com/goliatone/go-formengine/pkg/registry"
	"github.com/goliatone/go-formengine/pkg/renderers/html"
	"github.com/goliatone/go-formengine/pkg/schema"
)

// flagBindings maps flags onto config keys. Only flags the user set override
// the file and environment.
var flagBindings = []struct{ flag, key string }{
	{"log-level", "log.level"},
	{"schemas", "schemas.dir"},
	{"no-builtin", "schemas.builtin"},
	{"addr", "http.addr"},
	{"database-url", "database.url"},
	{"migrate", "database.migrate"},
	{"bucket", "s3.bucket"},
	{"theme-file", "theme.files"},
	{"theme", "theme.name"},
	{"variant", "theme.variant"},
}

// app carries what every command needs once flags are parsed.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	flush  func()
}

func (a *app) setup(cmd *cobra.Command) error {
	overrides := map[string]any{}
	for _, b := range flagBindings {
		f := cmd.Flags().Lookup(b.flag)
		if f == nil || !f.Changed {
			continue
		}
		switch b.flag {
		case "no-builtin":
			overrides[b.key] = f.Value.String() != "true"
		case "theme-file":
			files, err := cmd.Flags().GetStringSlice(b.flag)
			if err != nil {
				return err
			}
			overrides[b.key] = files
		default:
			overrides[b.key] = f.Value.String()
		}
	}

	file, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(file, overrides)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, flush, err := logging.Install(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	a.cfg, a.logger, a.flush = cfg, logger, flush
	return nil
}

func (a *app) close() {
	if a.flush != nil {
		a.flush()
	}
}

// registry loads the built-in catalog, when enabled, plus schemas.dir.
func (a *app) registry() (*registry.Registry, error) {
	var (
		reg *registry.Registry
		err error
	)
	if a.cfg.Schemas.Builtin {
		reg, err = catalog.Load()
		if err != nil {
			return nil, err
		}
	} else {
		reg = registry.New(registry.WithValidators(catalog.Validators()))
	}
	if dir := a.cfg.Schemas.Dir; dir != "" {
		if err := reg.LoadFS(os.DirFS(dir)); err != nil {
			return nil, err
		}
	}
	a.logger.Debug("registry loaded",
		zap.Int("schemas", reg.Len()),
		zap.Strings("modules", reg.Modules()),
	)
	return reg, nil
}

// lookup resolves a "module/form" argument.
func (a *app) lookup(arg string) (string, string, *schema.Schema, error) {
	module, form, ok := strings.Cut(arg, "/")
	if !ok || module == "" || form == "" {
		return "", "", nil, fmt.Errorf("expected module/form, got %q", arg)
	}
	reg, err := a.registry()
	if err != nil {
		return "", "", nil, err
	}
	s, err := reg.Lookup(module, form)
	if err != nil {
		return "", "", nil, err
	}
	return module, form, s, nil
}

// openStore returns Postgres when database.url is set and memory otherwise.
func (a *app) openStore(ctx context.Context) (store.Store, func(), error) {
	if a.cfg.Database.URL == "" {
		a.logger.Info("records kept in memory")
		return store.NewMemory(), func() {}, nil
	}
	pg, err := store.OpenPostgres(ctx, a.cfg.Database.URL,
		store.WithTable(a.cfg.Database.Table),
		store.WithLogger(a.logger),
	)
	if err != nil {
		return nil, nil, err
	}
	if a.cfg.Database.Migrate {
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, nil, err
		}
	}
	return pg, pg.Close, nil
}

// uploader is nil unless s3.bucket is set.
func (a *app) uploader(ctx context.Context) (*media.Uploader, error) {
	if a.cfg.S3.Bucket == "" {
		return nil, nil
	}
	return media.NewS3(ctx, media.Config{
		Bucket:    a.cfg.S3.Bucket,
		Region:    a.cfg.S3.Region,
		Prefix:    a.cfg.S3.Prefix,
		Endpoint:  a.cfg.S3.Endpoint,
		PublicURL: a.cfg.S3.PublicURL,
	}, media.WithLogger(a.logger))
}

// themes reads theme.files. A nil selector means unthemed output.
func (a *app) themes() (*html.Themes, error) {
	if len(a.cfg.Theme.Files) == 0 {
		return nil, nil
	}
	manifests := make([]*theme.Manifest, 0, len(a.cfg.Theme.Files))
	for _, path := range a.cfg.Theme.Files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("theme: %w", err)
		}
		manifest, err := html.DecodeManifest(data)
		if err != nil {
			return nil, fmt.Errorf("theme %s: %w", path, err)
		}
		manifests = append(manifests, manifest)
	}
	return html.NewThemes(a.cfg.Theme.Name, a.cfg.Theme.Variant, manifests...)
}

// readValues decodes a JSON value bag from path, or stdin for "-".
func readValues(cmd *cobra.Command, path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	var values map[string]any
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("values %s: %w", path, err)
	}
	return values, nil
}

var errInvalid = errors.New("values are invalid")
