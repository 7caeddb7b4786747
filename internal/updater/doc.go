// Package updater answers "is there a newer roomservice?" for
// `roomservice version --check`. It reads the latest GitHub release, compares
// it with the running version using semver, and caches the answer for a day
// under the user config directory.
package updater
