package updater

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Newer reports whether latest is a higher semantic version than current.
// A leading "v" is ignored on either side.
func Newer(current, latest string) (bool, error) {
	cv, err := semver.NewVersion(strings.TrimPrefix(current, "v"))
	if err != nil {
		return false, fmt.Errorf("parsing current version %q: %w", current, err)
	}
	lv, err := semver.NewVersion(strings.TrimPrefix(latest, "v"))
	if err != nil {
		return false, fmt.Errorf("parsing latest version %q: %w", latest, err)
	}
	return lv.GreaterThan(cv), nil
}
