package cmd

import (
	"fmt"
	"time"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/spf13/cobra"
)

var levelsCmd = &cobra.Command{
	Use:   "levels",
	Short: "List available levels with completion marks",
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
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		done, err := st.EventRepo().CompletedLevels(cmd.Context())
		if err != nil {
			return fmt.Errorf("load completions: %w", err)
		}

		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("", "ID", "KIND", "UNITS", "TITLE", "LAST COMPLETED")
		for _, lvl := range catalog.List() {
			mark, last := "", ""
			if at, ok := done[lvl.ID]; ok {
				mark = "✓"
				last = at.Local().Format(time.DateTime)
			}
			t.Row(mark, lvl.ID, string(lvl.Kind), fmt.Sprint(len(lvl.Units)), lvl.DisplayTitle(), last)
		}
		fmt.Fprintln(cmd.OutOrStdout(), t.Render())
		return nil
	},
}
