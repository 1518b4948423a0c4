package cmd

import (
	"fmt"
	"time"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/spf13/cobra"

	"github.com/walma-app/walma/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent level completions",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		levelID, _ := cmd.Flags().GetString("level")
		since, _ := cmd.Flags().GetDuration("since")

		opts := store.QueryOpts{Limit: limit, LevelID: levelID}
		if since > 0 {
			opts.From = time.Now().Add(-since)
		}
		records, err := st.EventRepo().Completions(cmd.Context(), opts)
		if err != nil {
			return fmt.Errorf("query completions: %w", err)
		}
		if len(records) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No completions yet.")
			return nil
		}

		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("#", "COMPLETED", "LEVEL", "SCORE", "SESSION")
		for _, r := range records {
			score := "-"
			if r.InteractiveCount > 0 {
				score = fmt.Sprintf("%d/%d", r.CorrectCount, r.InteractiveCount)
			}
			t.Row(fmt.Sprint(r.ID), r.Timestamp.Local().Format(time.DateTime), r.LevelID, score, r.SessionID)
		}
		fmt.Fprintln(cmd.OutOrStdout(), t.Render())
		return nil
	},
}

func init() {
	f := historyCmd.Flags()
	f.Int("limit", 20, "Maximum number of completions to show (0 = all)")
	f.String("level", "", "Only show completions of this level")
	f.Duration("since", 0, "Only show completions newer than this (e.g. 168h)")
}
