package cli

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/rising-tools/roomservice/internal/config"
	"github.com/rising-tools/roomservice/internal/doctor"
	"github.com/rising-tools/roomservice/internal/manifest"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var doctorFix bool

func init() {
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Restore a base snippet backup left by an interrupted run")
	doctorCmd.Flags().StringVar(&workDir, "dir", ".", "Root of the repo checkout")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check tools and manifest layout of a checkout",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		config.Load()
		cfg, err := config.Resolve(workDir)
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}

		logger := newLogger(cmd.ErrOrStderr())
		if !verbose {
			logger.SetLevel(log.WarnLevel)
		}
		fs := afero.NewBasePathFs(afero.NewOsFs(), cfg.WorkDir)
		store := manifest.NewStore(fs, cfg, logger)

		if problems := doctor.New(fs, cfg, store).Run(cmd.OutOrStdout(), doctorFix); problems > 0 {
			return fmt.Errorf("%d problems found", problems)
		}
		return nil
	},
}
