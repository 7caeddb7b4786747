package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rising-tools/roomservice/internal/branding"
	"github.com/spf13/viper"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Config keys. Each is also readable from ROOMSERVICE_<KEY>.
const (
	KeyDryRun          = "dryrun"
	KeyBranches        = "branches"
	KeyRegistryURL     = "registry_url"
	KeyRegistryTimeout = "registry_timeout"
	KeyDevicesOrg      = "devices_org"
	KeyDefaultRemote   = "default_remote"
	KeyLookupRemote    = "lookup_remote"
	KeyDependencyFile  = "dependency_file"
)

// Keys lists every recognized configuration key in display order.
var Keys = []string{
	KeyDryRun,
	KeyBranches,
	KeyRegistryURL,
	KeyRegistryTimeout,
	KeyDevicesOrg,
	KeyDefaultRemote,
	KeyLookupRemote,
	KeyDependencyFile,
}

// Dir returns the path to the roomservice config directory (~/.roomservice/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.roomservice/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// Load initializes Viper to read from the config file and environment.
func Load() {
	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.AutomaticEnv()
	setDefaults()

	// Ignore error if config file doesn't exist yet.
	_ = viper.ReadInConfig()
}

func setDefaults() {
	viper.SetDefault(KeyDryRun, false)
	viper.SetDefault(KeyBranches, []string{})
	viper.SetDefault(KeyRegistryURL, branding.RegistryURL())
	viper.SetDefault(KeyRegistryTimeout, 10*time.Second)
	viper.SetDefault(KeyDevicesOrg, branding.DevicesOrg())
	viper.SetDefault(KeyDefaultRemote, "devices")
	viper.SetDefault(KeyLookupRemote, "github")
	viper.SetDefault(KeyDependencyFile, branding.DependencyFile())
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// Set writes a config key-value pair and saves the config file.
func Set(key, value string) error {
	if !isKnownKey(key) {
		return fmt.Errorf("unknown config key %q", key)
	}
	if err := EnsureDir(); err != nil {
		return err
	}

	viper.Set(key, value)

	configFile := FilePath()
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func isKnownKey(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}
