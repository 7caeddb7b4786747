// Package config manages roomservice settings. Values come from the
// environment (ROOMSERVICE_* variables, e.g. ROOMSERVICE_DRYRUN and
// ROOMSERVICE_BRANCHES) layered over an optional ~/.roomservice/config.yaml.
// Resolve turns them into an explicit Config that is threaded through every
// operation instead of being read from the environment at arbitrary points.
package config
