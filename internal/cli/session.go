package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/tristore/internal/backend"
	"github.com/roach88/tristore/internal/config"
	"github.com/roach88/tristore/internal/store"
	"github.com/roach88/tristore/internal/telemetry"
)

// Version is reported as the service version on exported spans. Release
// builds set it with -ldflags "-X github.com/roach88/tristore/internal/cli.Version=...".
var Version = "dev"

// session is one opened store plus the logger and tracer around it.
type session struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.GraphStore
	shutdown func(context.Context) error
}

// openSession loads configuration and opens the configured store. Config
// errors are command errors (exit 2).
func openSession(cmd *cobra.Command, opts *RootOptions) (*session, error) {
	ctx := cmd.Context()

	keys := make(map[string]string, len(configFlags))
	for key, name := range configFlags {
		if cmd.Flags().Lookup(name) != nil {
			keys[key] = name
		}
	}
	cfg, err := config.Load(opts.ConfigPath, cmd.Flags(), keys)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}

	level := cfg.Log.Level
	if opts.Verbose {
		level = "debug"
	}
	logger, err := telemetry.NewLogger(level, cfg.Log.Format, cmd.ErrOrStderr())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to create logger", err)
	}

	s := &session{cfg: cfg, logger: logger}
	var storeOpts []store.Option
	storeOpts = append(storeOpts, store.WithLogger(logger))
	if cfg.Telemetry.Enabled {
		tp, shutdown, err := telemetry.InitTracing(ctx, telemetry.TracingConfig{
			ServiceName:    cfg.Telemetry.ServiceName,
			ServiceVersion: Version,
			Endpoint:       cfg.Telemetry.Endpoint,
			Writer:         cmd.ErrOrStderr(),
		})
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to initialize tracing", err)
		}
		s.shutdown = shutdown
		storeOpts = append(storeOpts, store.WithTracerProvider(tp))
	}

	b, err := backend.Open(cfg.BackendOptions(logger))
	if err != nil {
		s.close(ctx)
		return nil, WrapExitError(ExitCommandError, "failed to open backend", err)
	}
	st, err := store.Open(ctx, b, storeOpts...)
	if err != nil {
		b.Close()
		s.close(ctx)
		return nil, WrapExitError(ExitCommandError, "failed to open store", err)
	}
	s.store = st
	logger.Debug("store opened", "backend", st.BackendName(), "path", cfg.Backend.Path)
	return s, nil
}

// close flushes the store and exporter. Callers that already failed should
// still close, so close errors are logged rather than returned.
func (s *session) close(ctx context.Context) {
	var errs []error
	if s.store != nil {
		errs = append(errs, s.store.Close(ctx))
	}
	if s.shutdown != nil {
		errs = append(errs, s.shutdown(ctx))
	}
	if err := errors.Join(errs...); err != nil {
		s.logger.Error("close failed", "error", err)
	}
}
