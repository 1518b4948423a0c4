package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/walma-app/walma/internal/assets"
	"github.com/walma-app/walma/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP playback API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			cfg.HTTP.Addr, _ = cmd.Flags().GetString("addr")
		}
		log, err := newLogger(cfg, false)
		if err != nil {
			return err
		}
		defer log.Sync()

		catalog, err := loadCatalog(cfg, log)
		if err != nil {
			return err
		}
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		srvCfg := server.Config{
			Catalog:       catalog,
			Resolver:      assets.NewResolver(cfg.AssetBase),
			Reporter:      newReporter(cfg, st, log),
			ReportTimeout: cfg.Report.Timeout,
			Events:        st.EventRepo(),
			SessionTTL:    cfg.HTTP.SessionTTL,
			CompletedTTL:  cfg.HTTP.CompletedTTL,
			Log:           log,
		}
		if cfg.Math.ImageBaseURL != "" {
			loc := assets.NewMathLocator(cfg.Math.ImageBaseURL, cfg.Math.Salt)
			srvCfg.Math = &loc
			srvCfg.MathParams = cfg.Math.Params("")
		}
		srv, err := server.New(srvCfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.Run(ctx, cfg.HTTP.Addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default from config, :8080)")
}
