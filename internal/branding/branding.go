// Package branding provides compile-time ROM identity values for the CLI.
//
// ROM forks edit branding.yaml in this package to point the tool at their own
// device registry, GitHub organization, and manifest snippet names. Go's
// //go:embed bakes the file into the binary.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName        string `yaml:"cli_name"`
	DisplayName    string `yaml:"display_name"`
	Description    string `yaml:"description"`
	HomeDir        string `yaml:"home_dir"`
	EnvPrefix      string `yaml:"env_prefix"`
	GoModule       string `yaml:"go_module"`
	GitHubRepo     string `yaml:"github_repo"`
	DevicesOrg     string `yaml:"devices_org"`
	RegistryURL    string `yaml:"registry_url"`
	DependencyFile string `yaml:"dependency_file"`
	ROMSnippet     string `yaml:"rom_snippet"`
	BaseSnippet    string `yaml:"base_snippet"`
}

func load() {
	once.Do(func() {
		// Hard defaults in case the embedded file is missing/empty.
		defaults = brand{
			CLIName:        "roomservice",
			DisplayName:    "RoomService",
			Description:    "Device repository and dependency fetcher for Android ROM build trees",
			HomeDir:        ".roomservice",
			EnvPrefix:      "ROOMSERVICE",
			GoModule:       "github.com/rising-tools/roomservice",
			GitHubRepo:     "rising-tools/roomservice",
			DevicesOrg:     "RisingTechOSS-devices",
			RegistryURL:    "https://raw.githubusercontent.com/RisingTechOSS-devices/official_devices/fifteen/devices.xml",
			DependencyFile: "rising.dependencies",
			ROMSnippet:     "rising",
			BaseSnippet:    "lineage",
		}
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "roomservice").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name.
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name under $HOME (e.g., ".roomservice").
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "ROOMSERVICE").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// GoModule returns the Go module path. Not consumed at runtime.
func GoModule() string { load(); return defaults.GoModule }

// GitHubRepo returns the "owner/repo" string the tool's own releases live in.
func GitHubRepo() string { load(); return defaults.GitHubRepo }

// DevicesOrg returns the GitHub organization hosting device and dependency repositories.
func DevicesOrg() string { load(); return defaults.DevicesOrg }

// RegistryURL returns the URL of the official devices XML registry.
func RegistryURL() string { load(); return defaults.RegistryURL }

// DependencyFile returns the per-repository dependency declaration file name.
func DependencyFile() string { load(); return defaults.DependencyFile }

// ROMSnippet returns the name of the ROM's manifest snippet (without .xml).
func ROMSnippet() string { load(); return defaults.ROMSnippet }

// BaseSnippet returns the name of the upstream base snippet (without .xml).
func BaseSnippet() string { load(); return defaults.BaseSnippet }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("DRYRUN") → "ROOMSERVICE_DRYRUN".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
