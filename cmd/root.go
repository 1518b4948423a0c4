package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "walma",
	Short:         "Structured content playback for math levels",
	Long:          "walma plays review and quiz levels in the terminal or over HTTP and records completions.",
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlay(cmd, "")
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to a YAML config file (overrides WALMA_CONFIG)")
	pf.String("db", "", "Path to SQLite database file (overrides WALMA_DB)")
	pf.String("levels", "", "Directory of level files (default: bundled levels)")
	pf.String("policy", "", `Malformed unit policy: "strict" or "skip"`)
	pf.String("log-mode", "", `Log format: "dev" or "prod"`)

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(levelsCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
