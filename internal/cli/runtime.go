package cli

import (
	"io"
	"log/slog"

	"github.com/roach88/chartquery/internal/config"
	"github.com/roach88/chartquery/internal/engine"
	"github.com/roach88/chartquery/internal/querysql"
	"github.com/roach88/chartquery/internal/store"
)

// runtime is what every database-facing command needs.
type runtime struct {
	cfg    *config.Config
	logger *slog.Logger
	engine *engine.Engine
}

// loadRuntime reads configuration, sets up logging on logOut and builds
// the engine for the configured backend.
func loadRuntime(opts *RootOptions, logOut io.Writer) (*runtime, error) {
	cfg, err := config.Load(opts.EnvFile)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}

	logger := newLogger(cfg, opts.Verbose, logOut)
	for _, w := range cfg.Warnings {
		logger.Warn("configuration", "warning", w)
	}

	dialect, err := querysql.ParseDialect(cfg.Database.Backend)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid backend", err)
	}

	factory := store.NewDriverFactory(cfg.Database)
	eng := engine.New(
		store.NewGateway(factory, logger),
		dialect,
		engine.WithLogger(logger),
	)

	return &runtime{cfg: cfg, logger: logger, engine: eng}, nil
}

// newLogger returns a text handler on w. --verbose forces debug level,
// otherwise LOG_LEVEL decides.
func newLogger(cfg *config.Config, verbose bool, w io.Writer) *slog.Logger {
	level := cfg.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
