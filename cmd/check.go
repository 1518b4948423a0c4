package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/walma-app/walma/internal/level"
)

var checkCmd = &cobra.Command{
	Use:   "check <files...>",
	Short: "Validate level files and report every malformed unit",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		failed := 0
		for _, name := range args {
			lvl, err := level.LoadFile(name, level.LoadStrict)
			if err == nil {
				fmt.Fprintf(out, "ok    %s  (%s, %s, %d units, schema %s)\n",
					name, lvl.ID, lvl.Kind, len(lvl.Units), lvl.SchemaVersion)
				continue
			}

			failed++
			var le *level.LoadError
			if !errors.As(err, &le) || len(le.Units) == 0 {
				fmt.Fprintf(out, "FAIL  %s: %v\n", name, err)
				continue
			}
			fmt.Fprintf(out, "FAIL  %s: %d malformed unit(s)\n", name, len(le.Units))
			for _, u := range le.Units {
				fmt.Fprintf(out, "      unit %d  %-16s %s\n", u.Ordinal, u.Field, u.Reason)
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d level file(s) failed validation", failed, len(args))
		}
		return nil
	},
}
