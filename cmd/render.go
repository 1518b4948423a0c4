package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/walma-app/walma/internal/assets"
	"github.com/walma-app/walma/internal/mathrender"
)

var renderCmd = &cobra.Command{
	Use:   "render <level-id|file>",
	Short: "Pre-render a level's math to SVG with the external renderer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log, err := newLogger(cfg, false)
		if err != nil {
			return err
		}
		defer log.Sync()

		if cfg.Renderer.Command == "" {
			return fmt.Errorf("no math renderer configured (set renderer.command or WALMA_RENDERER)")
		}

		catalog, err := loadCatalog(cfg, log)
		if err != nil {
			return err
		}
		lvl, err := findLevel(args[0], catalog, cfg)
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		outDir, _ := flags.GetString("out")
		params := cfg.Math.Params("")
		if flags.Changed("scale") {
			params.Scale, _ = flags.GetInt("scale")
		}
		if flags.Changed("wpt") {
			params.WidthPt, _ = flags.GetFloat64("wpt")
		}
		if flags.Changed("fpx") {
			params.FontPx, _ = flags.GetInt("fpx")
		}

		// Files are named by the same key the image URLs carry.
		loc := assets.NewMathLocator("", cfg.Math.Salt)
		exprs := mathrender.CollectMath(lvl)
		keys := make(map[mathrender.Expr]string, len(exprs))
		for _, e := range exprs {
			p := params
			p.Token = assets.UnitToken(lvl.ID, e.Ordinal)
			img, err := loc.Locate(e.Part, p)
			if err != nil {
				return fmt.Errorf("level %s unit %d: %w", lvl.ID, e.Ordinal, err)
			}
			keys[e] = img.Key
		}
		if len(exprs) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "%s has no math to render\n", lvl.ID)
			return nil
		}

		proc, err := mathrender.Start(mathrender.Options{
			Args:    cfg.Renderer.RendererArgs(),
			Timeout: cfg.Renderer.Timeout,
			Log:     log.With("service", "MathRenderer"),
		})
		if err != nil {
			return err
		}
		defer proc.Close()

		name := func(e mathrender.Expr) string { return keys[e] }
		dir := filepath.Join(outDir, lvl.ID)
		res, err := mathrender.RenderAll(cmd.Context(), proc, exprs, name, dir)
		if err != nil {
			return fmt.Errorf("render %s: %w", lvl.ID, err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "rendered %d of %d expressions into %s\n", res.Written, len(exprs), dir)
		for _, e := range res.Failed {
			fmt.Fprintf(out, "  failed: %v\n", e)
		}
		if len(res.Failed) > 0 {
			return fmt.Errorf("%d expression(s) failed to render", len(res.Failed))
		}
		return nil
	},
}

func init() {
	f := renderCmd.Flags()
	f.String("out", "rendered", "Output directory")
	f.Int("scale", 0, "Device pixel scale, 2 or 3 (default from config)")
	f.Float64("wpt", 0, "Content width in points (default from config)")
	f.Int("fpx", 0, "Font size in px (default from config)")
}
