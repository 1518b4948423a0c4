package cmd

import (
	"github.com/spf13/cobra"

	"github.com/walma-app/walma/internal/app"
	"github.com/walma-app/walma/internal/assets"
	"github.com/walma-app/walma/internal/level"
	"github.com/walma-app/walma/internal/screens/player"
)

var playCmd = &cobra.Command{
	Use:   "play [level-id|file]",
	Short: "Play levels in the terminal",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start := ""
		if len(args) == 1 {
			start = args[0]
		}
		return runPlay(cmd, start)
	},
}

// runPlay launches the terminal player, optionally straight into one level.
func runPlay(cmd *cobra.Command, start string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg, true)
	if err != nil {
		return err
	}
	defer log.Sync()

	catalog, err := loadCatalog(cfg, log)
	if err != nil {
		return err
	}

	var lvl *level.Level
	if start != "" {
		if lvl, err = findLevel(start, catalog, cfg); err != nil {
			return err
		}
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	return app.Run(app.Options{
		Catalog: catalog,
		Events:  st.EventRepo(),
		Start:   lvl,
		Player: player.Deps{
			Reporter:      newReporter(cfg, st, log),
			ReportTimeout: cfg.Report.Timeout,
			Resolver:      assets.NewResolver(cfg.AssetBase),
			Log:           log,
		},
	})
}
