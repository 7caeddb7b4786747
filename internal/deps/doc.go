// Package deps reads the per-repository dependency declaration file (for
// example rising.dependencies): a JSON array of repositories a checkout
// needs, each with a target path and optional branch, remote, and override.
// Files are checked against an embedded JSON schema before decoding.
package deps
