package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tristore/internal/backend"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tristore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "memory", cfg.Backend.Kind)
	assert.Equal(t, 5000, cfg.SQLite.BusyTimeoutMS)
	assert.Equal(t, "NORMAL", cfg.SQLite.Synchronous)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "tristore", cfg.Telemetry.ServiceName)
	assert.False(t, cfg.Telemetry.Enabled)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
backend:
  kind: sqlite
  path: /var/lib/tristore/graph.db
sqlite:
  busy_timeout_ms: 250
  synchronous: full
log:
  level: DEBUG
  format: json
`)
	cfg, err := Load(path, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Backend.Kind)
	assert.Equal(t, "/var/lib/tristore/graph.db", cfg.Backend.Path)
	assert.Equal(t, 250, cfg.SQLite.BusyTimeoutMS)
	assert.Equal(t, "FULL", cfg.SQLite.Synchronous)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "backend:\n  kind: sqlite\n  path: a.db\n")
	t.Setenv("TRISTORE_BACKEND_PATH", "b.db")
	t.Setenv("TRISTORE_LOG_LEVEL", "warn")

	cfg, err := Load(path, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Backend.Kind)
	assert.Equal(t, "b.db", cfg.Backend.Path)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("TRISTORE_BACKEND_KIND", "sqlite")
	t.Setenv("TRISTORE_BACKEND_PATH", "env.db")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("backend", "memory", "")
	fs.String("path", "", "")
	require.NoError(t, fs.Parse([]string{"--path", "flag.db"}))

	cfg, err := Load("", fs, map[string]string{
		"backend.kind": "backend",
		"backend.path": "path",
	})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Backend.Kind, "unset flag does not mask env")
	assert.Equal(t, "flag.db", cfg.Backend.Path)
}

func TestLoad_UnknownFlag(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	_, err := Load("", fs, map[string]string{"backend.kind": "nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `bind flag "nope"`)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"badger in memory needs no path", func(c *Config) {
			c.Backend.Kind = "badger"
			c.Badger.InMemory = true
		}, ""},
		{"unknown backend", func(c *Config) { c.Backend.Kind = "etcd" }, "backend.kind"},
		{"sqlite needs path", func(c *Config) { c.Backend.Kind = "sqlite" }, "backend.path"},
		{"rocksdb needs path", func(c *Config) { c.Backend.Kind = "rocksdb" }, "backend.path"},
		{"badger on disk needs path", func(c *Config) { c.Backend.Kind = "badger" }, "backend.path"},
		{"bad synchronous", func(c *Config) { c.SQLite.Synchronous = "SOMETIMES" }, "sqlite.synchronous"},
		{"negative busy timeout", func(c *Config) { c.SQLite.BusyTimeoutMS = -1 }, "sqlite.busy_timeout_ms"},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
		{"empty service name", func(c *Config) { c.Telemetry.ServiceName = "" }, "telemetry.service_name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBackendOptions(t *testing.T) {
	cfg := Default()
	cfg.Backend = BackendConfig{Kind: "sqlite", Path: "g.db"}
	cfg.SQLite.BusyTimeoutMS = 1500
	cfg.Badger.SyncWrites = true

	opts := cfg.BackendOptions(nil)
	assert.Equal(t, backend.KindSQLite, opts.Kind)
	assert.Equal(t, "g.db", opts.Path)
	assert.Equal(t, 1500*time.Millisecond, opts.SQLite.BusyTimeout)
	assert.Equal(t, "NORMAL", opts.SQLite.Synchronous)
	assert.True(t, opts.Badger.SyncWrites)
}
