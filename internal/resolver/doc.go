// Package resolver walks dependency declaration files from a device tree,
// declares every missing repository in the local manifest fragment, and syncs
// what is not checked out yet.
//
// Resolution is breadth-first with a visited set, so dependency cycles
// terminate. Each declaration file is handled as one batch: its missing
// records are appended together and its unsynced paths are synced with a
// single repo invocation.
package resolver
