// Package vcs shells out to git and repo: listing the branches of a remote
// repository and syncing checkout paths.
package vcs
