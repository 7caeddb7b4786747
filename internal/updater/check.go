package updater

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

const cacheFileName = "version-check.json"

// DefaultCacheMaxAge is how long a check result is reused.
const DefaultCacheMaxAge = 24 * time.Hour

// Status is the result of a version check.
type Status struct {
	Current         string    `json:"current"`
	Latest          string    `json:"latest"`
	URL             string    `json:"url,omitempty"`
	UpdateAvailable bool      `json:"update_available"`
	CheckedAt       time.Time `json:"checked_at"`
}

// Check compares the running version with the latest release. A cached
// result for the same running version is reused while it is fresh.
func (u *Updater) Check(ctx context.Context) (*Status, error) {
	if cached := u.loadCache(); cached != nil {
		return cached, nil
	}

	release, err := u.LatestRelease(ctx)
	if err != nil {
		return nil, err
	}
	available, err := Newer(u.currentVersion, release.TagName)
	if err != nil {
		return nil, err
	}

	status := &Status{
		Current:         u.currentVersion,
		Latest:          release.TagName,
		URL:             release.HTMLURL,
		UpdateAvailable: available,
		CheckedAt:       time.Now(),
	}
	if err := u.saveCache(status); err != nil {
		return status, fmt.Errorf("caching version check: %w", err)
	}
	return status, nil
}

func (u *Updater) cachePath() string {
	return filepath.Join(u.cacheDir, cacheFileName)
}

// loadCache returns a fresh cached status, or nil.
func (u *Updater) loadCache() *Status {
	if u.cacheFs == nil {
		return nil
	}
	data, err := afero.ReadFile(u.cacheFs, u.cachePath())
	if err != nil {
		return nil
	}
	var s Status
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	if s.Current != u.currentVersion || time.Since(s.CheckedAt) > u.maxAge {
		return nil
	}
	return &s
}

func (u *Updater) saveCache(s *Status) error {
	if u.cacheFs == nil {
		return nil
	}
	if err := u.cacheFs.MkdirAll(u.cacheDir, 0755); err != nil && !errors.Is(err, os.ErrExist) {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return afero.WriteFile(u.cacheFs, u.cachePath(), data, 0644)
}
