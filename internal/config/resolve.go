package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rising-tools/roomservice/internal/branding"
	"github.com/spf13/viper"
)

// Config is the explicit run configuration for a roomservice invocation.
type Config struct {
	WorkDir         string        `yaml:"work_dir"`
	DryRun          bool          `yaml:"dryrun"`
	Branches        []string      `yaml:"branches"`
	RegistryURL     string        `yaml:"registry_url"`
	RegistryTimeout time.Duration `yaml:"registry_timeout"`
	DevicesOrg      string        `yaml:"devices_org"`
	DefaultRemote   string        `yaml:"default_remote"`
	LookupRemote    string        `yaml:"lookup_remote"`
	DependencyFile  string        `yaml:"dependency_file"`
	Paths           Paths         `yaml:"paths"`
}

// Paths locates the repo client's manifest files, relative to WorkDir.
type Paths struct {
	RootManifest  string `yaml:"root_manifest"`
	ManifestsDir  string `yaml:"manifests_dir"`
	LocalDir      string `yaml:"local_dir"`
	LocalFragment string `yaml:"local_fragment"`
	ROMSnippet    string `yaml:"rom_snippet"`
	BaseSnippet   string `yaml:"base_snippet"`
}

// DefaultPaths returns the standard .repo layout for the branded ROM.
func DefaultPaths() Paths {
	return Paths{
		RootManifest:  ".repo/manifest.xml",
		ManifestsDir:  ".repo/manifests",
		LocalDir:      ".repo/local_manifests",
		LocalFragment: ".repo/local_manifests/roomservice.xml",
		ROMSnippet:    ".repo/manifests/snippets/" + branding.ROMSnippet() + ".xml",
		BaseSnippet:   ".repo/manifests/snippets/" + branding.BaseSnippet() + ".xml",
	}
}

// Resolve builds a Config for the checkout at workDir from the values
// currently loaded into Viper. Call Load first.
func Resolve(workDir string) (*Config, error) {
	abs, err := filepath.Abs(workDir)
	if err != nil {
		return nil, fmt.Errorf("resolving work directory %s: %w", workDir, err)
	}

	cfg := &Config{
		WorkDir:         abs,
		DryRun:          viper.GetBool(KeyDryRun),
		Branches:        splitBranches(viper.GetStringSlice(KeyBranches)),
		RegistryURL:     viper.GetString(KeyRegistryURL),
		RegistryTimeout: viper.GetDuration(KeyRegistryTimeout),
		DevicesOrg:      viper.GetString(KeyDevicesOrg),
		DefaultRemote:   viper.GetString(KeyDefaultRemote),
		LookupRemote:    viper.GetString(KeyLookupRemote),
		DependencyFile:  viper.GetString(KeyDependencyFile),
		Paths:           DefaultPaths(),
	}

	if cfg.RegistryURL == "" {
		return nil, fmt.Errorf("%s must not be empty", KeyRegistryURL)
	}
	if cfg.RegistryTimeout <= 0 {
		return nil, fmt.Errorf("%s must be positive, got %s", KeyRegistryTimeout, cfg.RegistryTimeout)
	}
	return cfg, nil
}

// splitBranches flattens entries that themselves hold space-separated names,
// which happens when a list is set as a single string in the config file.
func splitBranches(in []string) []string {
	out := []string{}
	for _, entry := range in {
		out = append(out, strings.Fields(entry)...)
	}
	return out
}
