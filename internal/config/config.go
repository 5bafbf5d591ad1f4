// Package config loads tristore settings from defaults, a YAML file,
// TRISTORE_* environment variables and command-line flags, in that order of
// increasing precedence, and validates the result against an embedded CUE
// schema.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/roach88/tristore/internal/backend"
)

//go:embed schema.cue
var schemaCUE string

// EnvPrefix prefixes every environment override, e.g. TRISTORE_BACKEND_KIND.
const EnvPrefix = "TRISTORE"

// ErrInvalid wraps every schema violation.
var ErrInvalid = errors.New("invalid configuration")

// Config is the merged configuration of a tristore process.
type Config struct {
	Backend   BackendConfig   `mapstructure:"backend" json:"backend"`
	SQLite    SQLiteConfig    `mapstructure:"sqlite" json:"sqlite"`
	Badger    BadgerConfig    `mapstructure:"badger" json:"badger"`
	Log       LogConfig       `mapstructure:"log" json:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" json:"telemetry"`
}

// BackendConfig selects the storage backend and where it keeps data.
type BackendConfig struct {
	Kind string `mapstructure:"kind" json:"kind"`
	Path string `mapstructure:"path" json:"path"`
}

// SQLiteConfig holds connection pragmas for the sqlite backend.
type SQLiteConfig struct {
	BusyTimeoutMS int    `mapstructure:"busy_timeout_ms" json:"busy_timeout_ms"`
	Synchronous   string `mapstructure:"synchronous" json:"synchronous"`
}

// BadgerConfig tunes the badger backend.
type BadgerConfig struct {
	InMemory   bool `mapstructure:"in_memory" json:"in_memory"`
	SyncWrites bool `mapstructure:"sync_writes" json:"sync_writes"`
}

// LogConfig sets the slog level and handler format (text or json).
type LogConfig struct {
	Level  string `mapstructure:"level" json:"level"`
	Format string `mapstructure:"format" json:"format"`
}

// TelemetryConfig controls OpenTelemetry tracing. An empty Endpoint
// exports spans to stdout.
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled" json:"enabled"`
	Endpoint    string `mapstructure:"endpoint" json:"endpoint"`
	ServiceName string `mapstructure:"service_name" json:"service_name"`
}

// SetDefaults registers the built-in values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("backend.kind", string(backend.KindMemory))
	v.SetDefault("backend.path", "")
	v.SetDefault("sqlite.busy_timeout_ms", 5000)
	v.SetDefault("sqlite.synchronous", "NORMAL")
	v.SetDefault("badger.in_memory", false)
	v.SetDefault("badger.sync_writes", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "")
	v.SetDefault("telemetry.service_name", "tristore")
}

// Load builds a Config. path may be empty to skip the file. Flags in fs
// whose names appear in flagKeys override everything else; only flags the
// user actually set take effect.
func Load(path string, fs *pflag.FlagSet, flagKeys map[string]string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if fs != nil {
		for key, name := range flagKeys {
			f := fs.Lookup(name)
			if f == nil {
				return nil, fmt.Errorf("bind flag %q: no such flag", name)
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %q: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, err := Load("", nil, nil)
	if err != nil {
		// Defaults are constants checked by tests.
		panic(err)
	}
	return cfg
}

func (c *Config) normalize() {
	c.Backend.Kind = strings.ToLower(c.Backend.Kind)
	c.SQLite.Synchronous = strings.ToUpper(c.SQLite.Synchronous)
	c.Log.Level = strings.ToLower(c.Log.Level)
	c.Log.Format = strings.ToLower(c.Log.Format)
}

// Validate checks c against the embedded CUE schema.
func (c *Config) Validate() error {
	cctx := cuecontext.New()
	schema := cctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	val := cctx.Encode(c)
	if err := val.Err(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(err)
	}
	return nil
}

// formatCUEError keeps the first CUE error, path included.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return fmt.Errorf("%w: %s", ErrInvalid, cueerrors.String(errs[0]))
}

// BackendOptions maps c onto backend.Open options.
func (c *Config) BackendOptions(logger *slog.Logger) backend.Options {
	return backend.Options{
		Kind:   backend.Kind(c.Backend.Kind),
		Path:   c.Backend.Path,
		Logger: logger,
		SQLite: backend.SQLiteOptions{
			BusyTimeout: time.Duration(c.SQLite.BusyTimeoutMS) * time.Millisecond,
			Synchronous: c.SQLite.Synchronous,
		},
		Badger: backend.BadgerOptions{
			InMemory:   c.Badger.InMemory,
			SyncWrites: c.Badger.SyncWrites,
		},
	}
}
