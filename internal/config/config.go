// Package config loads formctl settings from an optional file and
// FORMENGINE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix namespaces environment overrides: http.addr is read from
// FORMENGINE_HTTP_ADDR.
const EnvPrefix = "FORMENGINE"

type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	Schemas  SchemaConfig   `mapstructure:"schemas"`
	Database DatabaseConfig `mapstructure:"database"`
	S3       S3Config       `mapstructure:"s3"`
	Log      LogConfig      `mapstructure:"log"`
	Theme    ThemeConfig    `mapstructure:"theme"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type SchemaConfig struct {
	// Dir holds extra registry documents. The built-in catalog is loaded
	// unless Builtin is false.
	Dir     string `mapstructure:"dir"`
	Builtin bool   `mapstructure:"builtin"`
}

type DatabaseConfig struct {
	// URL selects the Postgres store. Records stay in memory when empty.
	URL     string `mapstructure:"url"`
	Table   string `mapstructure:"table"`
	Migrate bool   `mapstructure:"migrate"`
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Prefix    string `mapstructure:"prefix"`
	Endpoint  string `mapstructure:"endpoint"`
	PublicURL string `mapstructure:"public_url"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type ThemeConfig struct {
	// Files are go-theme manifests (YAML or JSON).
	Files   []string `mapstructure:"files"`
	Name    string   `mapstructure:"name"`
	Variant string   `mapstructure:"variant"`
}

var defaults = map[string]any{
	"http.addr":             ":8080",
	"http.shutdown_timeout": 10 * time.Second,
	"schemas.dir":           "",
	"schemas.builtin":       true,
	"database.url":          "",
	"database.table":        "form_records",
	"database.migrate":      false,
	"s3.bucket":             "",
	"s3.region":             "",
	"s3.prefix":             "forms",
	"s3.endpoint":           "",
	"s3.public_url":         "",
	"log.level":             "info",
	"log.development":       false,
	"theme.files":           []string{},
	"theme.name":            "",
	"theme.variant":         "",
}

// Load reads file (when non-empty), applies environment overrides and then
// overrides, which the CLI fills from explicitly set flags.
func Load(file string, overrides map[string]any) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", file, err)
		}
	}
	for key, value := range overrides {
		v.Set(key, value)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	// Lists set through the environment arrive comma separated.
	cfg.Theme.Files = splitList(strings.Join(cfg.Theme.Files, ","))
	return cfg, nil
}

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		errs = append(errs, errors.New("http.addr is required"))
	}
	if c.HTTP.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("http.shutdown_timeout must not be negative"))
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if !tableName.MatchString(c.Database.Table) {
		errs = append(errs, fmt.Errorf("database.table %q is not a valid table name", c.Database.Table))
	}
	if c.Database.Migrate && c.Database.URL == "" {
		errs = append(errs, errors.New("database.migrate requires database.url"))
	}
	if c.S3.Bucket == "" && (c.S3.Endpoint != "" || c.S3.PublicURL != "") {
		errs = append(errs, errors.New("s3.endpoint and s3.public_url require s3.bucket"))
	}
	if len(c.Theme.Files) == 0 && (c.Theme.Name != "" || c.Theme.Variant != "") {
		errs = append(errs, errors.New("theme.name and theme.variant require theme.files"))
	}
	if !c.Schemas.Builtin && c.Schemas.Dir == "" {
		errs = append(errs, errors.New("schemas.dir is required when the built-in catalog is disabled"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
