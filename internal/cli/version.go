package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rising-tools/roomservice/internal/branding"
	"github.com/rising-tools/roomservice/internal/config"
	"github.com/rising-tools/roomservice/internal/updater"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	versionShort bool
	versionJSON  bool
	versionCheck bool
)

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print version number only")
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Print version info as JSON")
	versionCmd.Flags().BoolVar(&versionCheck, "check", false, "Check GitHub for a newer release")
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		if versionCheck {
			return runVersionCheck(cmd)
		}

		if versionShort {
			fmt.Fprintln(out, buildVersion)
			return nil
		}

		if versionJSON {
			info := map[string]string{
				"version": buildVersion,
				"commit":  buildCommit,
				"date":    buildDate,
			}
			data, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling version info: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		fmt.Fprintf(out, "%s version %s (commit: %s, built: %s)\n", branding.CLIName(), buildVersion, buildCommit, buildDate)
		return nil
	},
}

func runVersionCheck(cmd *cobra.Command) error {
	u := updater.New(buildVersion,
		updater.WithToken(os.Getenv("GITHUB_TOKEN")),
		updater.WithCache(afero.NewOsFs(), config.Dir(), updater.DefaultCacheMaxAge),
	)

	status, err := u.Check(cmd.Context())
	if status == nil {
		return fmt.Errorf("checking for updates: %w", err)
	}
	if err != nil {
		newLogger(cmd.ErrOrStderr()).Debug("version check not cached", "err", err)
	}

	out := cmd.OutOrStdout()
	if !status.UpdateAvailable {
		fmt.Fprintf(out, "%s %s is up to date (checked %s)\n", branding.CLIName(), status.Current, status.CheckedAt.Format(time.RFC822))
		return nil
	}
	fmt.Fprintf(out, "Update available: %s -> %s\n", status.Current, status.Latest)
	if status.URL != "" {
		fmt.Fprintf(out, "    %s\n", status.URL)
	}
	return nil
}
