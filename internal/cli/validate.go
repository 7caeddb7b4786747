package cli

import (
	"fmt"

	"github.com/rising-tools/roomservice/internal/branding"
	"github.com/rising-tools/roomservice/internal/deps"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Check " + branding.DependencyFile() + " files against the schema",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fs := afero.NewOsFs()
		out := cmd.OutOrStdout()

		failed := 0
		for _, path := range args {
			result, err := deps.ValidateFile(fs, path)
			if err != nil {
				return err
			}
			if result.Valid {
				fmt.Fprintf(out, "✓ %s\n", path)
				continue
			}
			failed++
			fmt.Fprintf(out, "✗ %s\n", path)
			for _, issue := range result.Issues {
				loc := issue.Path
				if loc == "" {
					loc = "/"
				}
				fmt.Fprintf(out, "    %s: %s\n", loc, issue.Message)
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d files failed validation", failed, len(args))
		}
		return nil
	},
}
