// Package cli defines the Cobra command tree for the roomservice CLI. The
// root command fetches a device tree and its dependencies; version, config,
// and validate are registered from their own files. Commands only wire
// configuration, logging, and I/O; the work happens in internal packages.
package cli
