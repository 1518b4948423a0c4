package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/walma-app/walma/internal/completion"
	"github.com/walma-app/walma/internal/config"
	"github.com/walma-app/walma/internal/level"
	"github.com/walma-app/walma/internal/logger"
	"github.com/walma-app/walma/internal/store"
)

// loadConfig builds the config from file and environment, then applies
// persistent flags on top.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.DBPath, _ = flags.GetString("db")
	}
	if flags.Changed("levels") {
		cfg.LevelsDir, _ = flags.GetString("levels")
	}
	if flags.Changed("policy") {
		cfg.LoadPolicy, _ = flags.GetString("policy")
	}
	if flags.Changed("log-mode") {
		cfg.Log.Mode, _ = flags.GetString("log-mode")
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newLogger logs to stderr, or to the configured file when the terminal
// player owns the screen. Without a log file the player logs nothing.
func newLogger(cfg config.Config, tui bool) (*logger.Logger, error) {
	if !tui {
		return logger.New(cfg.Log.Mode)
	}
	if cfg.Log.File == "" {
		return logger.Nop(), nil
	}
	return logger.NewFile(cfg.Log.Mode, cfg.Log.File)
}

// loadCatalog loads the configured level directory, or the bundled levels.
func loadCatalog(cfg config.Config, log *logger.Logger) (*level.Catalog, error) {
	if cfg.LevelsDir == "" {
		return level.Bundled(log)
	}
	c, err := level.LoadCatalog(os.DirFS(cfg.LevelsDir), ".", cfg.Policy(), log)
	if err != nil {
		return nil, fmt.Errorf("load levels from %s: %w", cfg.LevelsDir, err)
	}
	return c, nil
}

// findLevel resolves arg as a catalog id, or as a path to a level file.
func findLevel(arg string, catalog *level.Catalog, cfg config.Config) (*level.Level, error) {
	if lvl, ok := catalog.Get(arg); ok {
		return lvl, nil
	}
	if level.IsLevelFile(arg) {
		if _, err := os.Stat(arg); err == nil {
			return level.LoadFile(arg, cfg.Policy())
		}
	}
	return nil, fmt.Errorf("no level %q (not in catalog and not a level file)", arg)
}

// openStore opens the completion event store.
func openStore(cfg config.Config) (*store.Store, error) {
	dbPath := cfg.DBPath
	if dbPath == "" {
		var err error
		if dbPath, err = store.DefaultDBPath(); err != nil {
			return nil, fmt.Errorf("resolve DB path: %w", err)
		}
	} else if err := store.EnsureDir(dbPath); err != nil {
		return nil, fmt.Errorf("create DB dir: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// newReporter stores completions in st, with retry and logging per config.
func newReporter(cfg config.Config, st *store.Store, log *logger.Logger) completion.Reporter {
	return completion.NewReporter(cfg.Report.RetryConfig(), completion.NewStoreSink(st.EventRepo()), log)
}
