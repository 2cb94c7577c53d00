package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/gridstore/internal/config"
	"github.com/roach88/gridstore/internal/store"
)

// session is an initialized store plus the cleanup owed by the command.
type session struct {
	store *store.Store
	close func()
}

// loadConfig reads the config file and applies GRIDSTORE_* overrides.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	cfg.ApplyEnv(lookup)
	return cfg, nil
}

// newLogger builds the text logger used by every command. --verbose wins
// over the configured level.
func newLogger(opts *RootOptions, cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid logging level", err)
	}
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler), nil
}

// openStore loads config, constructs the store and waits for it to become
// ready within the configured init timeout.
func openStore(opts *RootOptions, cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(opts, cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	sc, err := cfg.StoreConfig(logger)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid config", err)
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	var (
		initCtx context.Context
		cancel  context.CancelFunc
	)
	if cfg.InitTimeout > 0 {
		initCtx, cancel = context.WithTimeout(parent, cfg.InitTimeout)
	} else {
		initCtx, cancel = context.WithCancel(parent)
	}

	st, err := store.New(initCtx, sc)
	if err != nil {
		cancel()
		return nil, WrapExitError(ExitCommandError, "failed to create store", err)
	}
	if err := st.Ready(initCtx); err != nil {
		cancel()
		_ = st.Close()
		return nil, WrapExitError(ExitCommandError, "store initialization failed", err)
	}

	return &session{
		store: st,
		close: func() {
			if err := st.Close(); err != nil {
				logger.Error("error closing store", "error", err)
			}
			cancel()
		},
	}, nil
}
