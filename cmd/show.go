package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/walma-app/walma/internal/assets"
	"github.com/walma-app/walma/internal/content"
	"github.com/walma-app/walma/internal/level"
)

var showCmd = &cobra.Command{
	Use:   "show <level-id|file>",
	Short: "Print a level's units as tokenized parts",
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

		catalog, err := loadCatalog(cfg, log)
		if err != nil {
			return err
		}
		lvl, err := findLevel(args[0], catalog, cfg)
		if err != nil {
			return err
		}

		resolver := assets.NewResolver(cfg.AssetBase)
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return showJSON(cmd.OutOrStdout(), lvl, resolver)
		}
		showText(cmd.OutOrStdout(), lvl, resolver)
		return nil
	},
}

func init() {
	showCmd.Flags().Bool("json", false, "Print JSON instead of text")
}

func showText(w io.Writer, lvl *level.Level, resolver assets.Resolver) {
	fmt.Fprintf(w, "%s  (%s, schema %s, math %s)\n", lvl.DisplayTitle(), lvl.Kind, lvl.SchemaVersion, lvl.MathStyle)
	if lvl.DiagramRequest != "" {
		fmt.Fprintf(w, "diagram request: %s\n", lvl.DiagramRequest)
	}
	for _, u := range lvl.Units {
		fmt.Fprintf(w, "\n[%d] %s\n", u.Ordinal(), u.Kind())
		printParts(w, "    ", resolver.ResolveParts(u.Parts()))
		for i, opt := range u.Options() {
			marker := " "
			if opt == u.CorrectAnswer() {
				marker = "*"
			}
			fmt.Fprintf(w, "  %s option %d: %s\n", marker, i+1, content.Plain(u.OptionParts(i)))
		}
		if expl := u.Explanation(); len(expl) > 0 {
			fmt.Fprintln(w, "    explanation:")
			printParts(w, "      ", resolver.ResolveParts(expl))
		}
	}
}

func printParts(w io.Writer, indent string, parts []content.Part) {
	for _, p := range parts {
		fmt.Fprintf(w, "%s%-11s %q\n", indent, p.Kind, p.Value)
	}
}

type unitJSON struct {
	Ordinal       int            `json:"ordinal"`
	Kind          level.UnitKind `json:"kind"`
	Parts         []content.Part `json:"parts"`
	Options       []string       `json:"options,omitempty"`
	CorrectAnswer string         `json:"correctAnswer,omitempty"`
	Explanation   []content.Part `json:"explanation,omitempty"`
}

func showJSON(w io.Writer, lvl *level.Level, resolver assets.Resolver) error {
	units := make([]unitJSON, 0, len(lvl.Units))
	for _, u := range lvl.Units {
		units = append(units, unitJSON{
			Ordinal:       u.Ordinal(),
			Kind:          u.Kind(),
			Parts:         resolver.ResolveParts(u.Parts()),
			Options:       u.Options(),
			CorrectAnswer: u.CorrectAnswer(),
			Explanation:   resolver.ResolveParts(u.Explanation()),
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"id":            lvl.ID,
		"kind":          lvl.Kind,
		"title":         lvl.Title,
		"schemaVersion": lvl.SchemaVersion,
		"mathStyle":     lvl.MathStyle,
		"units":         units,
	})
}
