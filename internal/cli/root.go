package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/rising-tools/roomservice/internal/branding"
	"github.com/rising-tools/roomservice/internal/config"
	"github.com/rising-tools/roomservice/internal/manifest"
	"github.com/rising-tools/roomservice/internal/registry"
	"github.com/rising-tools/roomservice/internal/resolver"
	"github.com/rising-tools/roomservice/internal/vcs"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var (
	verbose  bool
	depsOnly bool
	dryRun   bool
	workDir  string
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.Flags().BoolVar(&depsOnly, "deps-only", false, "Skip the registry and resolve dependencies of an already declared device tree")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would change without writing manifests or syncing (env "+branding.EnvVar(config.KeyDryRun)+")")
	rootCmd.Flags().StringVar(&workDir, "dir", ".", "Root of the repo checkout")
}

var rootCmd = &cobra.Command{
	Use:   branding.CLIName() + " <product> [deps-only]",
	Short: branding.Description(),
	Long: branding.DisplayName() + ` looks up the device tree for a lunch product in the official device
registry, declares it in .repo/local_manifests/roomservice.xml, syncs it, and then
follows every ` + branding.DependencyFile() + ` file it finds, declaring and syncing each
dependency in turn.

Pass a second argument (or --deps-only) to skip the registry and only resolve the
dependencies of a device tree that is already in the manifest.`,
	Example:       "  " + branding.CLIName() + " rising_widget\n  " + branding.CLIName() + " rising_widget deps-only",
	Args:          cobra.RangeArgs(1, 2),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runFetch,
}

func runFetch(cmd *cobra.Command, args []string) error {
	config.Load()
	if cmd.Flags().Changed("dry-run") {
		viper.Set(config.KeyDryRun, dryRun)
	}

	cfg, err := config.Resolve(workDir)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cmd.ErrOrStderr())
	if cfg.DryRun {
		logger.Warn("dry run, manifests will not be written and nothing will be synced")
	}

	fs := afero.NewBasePathFs(afero.NewOsFs(), cfg.WorkDir)
	store := manifest.NewStore(fs, cfg, logger)
	r := resolver.New(cfg, fs, store, vcs.NewGitClient(), vcs.NewRepoSyncer(cfg.WorkDir), logger)
	reg := registry.New(cfg.RegistryURL, registry.WithTimeout(cfg.RegistryTimeout))

	outcome, err := resolver.NewFetcher(reg, r).FetchDevice(cmd.Context(), args[0], depsOnly || len(args) > 1)
	if err != nil {
		return err
	}
	logger.Debug("finished", "product", args[0], "outcome", outcome)
	return nil
}

// newLogger builds the process logger. Domain packages receive it; they
// never create their own.
func newLogger(w io.Writer) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		Prefix: branding.CLIName(),
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

func versionString() string {
	if buildVersion == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", buildVersion, buildCommit, buildDate)
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	return fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(versionString()),
		fang.WithNotifySignal(os.Interrupt),
	)
}
