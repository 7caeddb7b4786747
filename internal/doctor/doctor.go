// Package doctor runs health checks against a repo checkout: required tools
// on PATH, the manifest layout roomservice edits, leftovers from an
// interrupted run, and the dependency files of declared projects.
package doctor

import (
	"fmt"
	"io"
	"os/exec"
	"path/filepath"

	"github.com/rising-tools/roomservice/internal/config"
	"github.com/rising-tools/roomservice/internal/deps"
	"github.com/rising-tools/roomservice/internal/manifest"
	"github.com/spf13/afero"
)

// RequiredTools are the executables a run shells out to.
var RequiredTools = []string{"git", "repo"}

// Doctor checks one checkout.
type Doctor struct {
	fs       afero.Fs
	cfg      *config.Config
	store    *manifest.Store
	lookPath func(string) (string, error)
}

// Option configures a Doctor.
type Option func(*Doctor)

// WithLookPath replaces exec.LookPath (useful for testing).
func WithLookPath(fn func(string) (string, error)) Option {
	return func(d *Doctor) {
		d.lookPath = fn
	}
}

// New creates a Doctor. fs must be rooted at the checkout, like store.
func New(fs afero.Fs, cfg *config.Config, store *manifest.Store, opts ...Option) *Doctor {
	d := &Doctor{
		fs:       fs,
		cfg:      cfg,
		store:    store,
		lookPath: exec.LookPath,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run writes a report to w and returns the number of problems found. With
// fix, a stale base snippet backup is restored.
func (d *Doctor) Run(w io.Writer, fix bool) int {
	problems := 0

	fmt.Fprintln(w, "Tools:")
	for _, tool := range RequiredTools {
		problems += d.checkTool(w, tool)
	}

	fmt.Fprintln(w, "Checkout:")
	problems += d.checkActiveManifest(w)
	problems += d.checkDefaultRevision(w)
	problems += d.checkBaseSnippet(w)
	problems += d.checkLeftovers(w, fix)

	fmt.Fprintln(w, "Dependency files:")
	problems += d.checkDependencyFiles(w)
	return problems
}

func (d *Doctor) checkTool(w io.Writer, name string) int {
	path, err := d.lookPath(name)
	if err != nil {
		fmt.Fprintf(w, "  [MISS] %s not found on PATH\n", name)
		return 1
	}
	fmt.Fprintf(w, "  [ OK ] %s (%s)\n", name, path)
	return 0
}

func (d *Doctor) checkActiveManifest(w io.Writer) int {
	path, err := d.store.ActiveManifestPath()
	if err != nil {
		fmt.Fprintf(w, "  [FAIL] active manifest: %v\n", err)
		return 1
	}
	fmt.Fprintf(w, "  [ OK ] active manifest %s\n", path)
	return 0
}

func (d *Doctor) checkDefaultRevision(w io.Writer) int {
	rev, err := d.store.DefaultRevision(d.cfg.DefaultRemote)
	if err != nil {
		fmt.Fprintf(w, "  [FAIL] %v\n", err)
		return 1
	}
	fmt.Fprintf(w, "  [ OK ] remote %q defaults to %s\n", d.cfg.DefaultRemote, rev)
	return 0
}

func (d *Doctor) checkBaseSnippet(w io.Writer) int {
	if ok, _ := afero.Exists(d.fs, d.cfg.Paths.BaseSnippet); !ok {
		fmt.Fprintf(w, "  [WARN] %s does not exist, overrides cannot disable projects in it\n", d.cfg.Paths.BaseSnippet)
		return 1
	}
	fmt.Fprintf(w, "  [ OK ] %s exists\n", d.cfg.Paths.BaseSnippet)
	return 0
}

// checkLeftovers reports files a run removes on exit. Finding them means a
// run was killed before its cleanup.
func (d *Doctor) checkLeftovers(w io.Writer, fix bool) int {
	problems := 0

	backup := d.store.BackupPath()
	if ok, _ := afero.Exists(d.fs, backup); ok {
		fmt.Fprintf(w, "  [WARN] %s left by an interrupted run\n", backup)
		if fix {
			if err := d.store.RestoreBackup(); err != nil {
				fmt.Fprintf(w, "  [FAIL] Could not restore %s: %v\n", d.cfg.Paths.BaseSnippet, err)
				problems++
			} else {
				fmt.Fprintf(w, "  [FIX ] Restored %s\n", d.cfg.Paths.BaseSnippet)
			}
		} else {
			problems++
		}
	}

	if ok, _ := afero.Exists(d.fs, d.cfg.Paths.LocalFragment); ok {
		fmt.Fprintf(w, "  [WARN] %s left by an interrupted run, the next sync will include it\n", d.cfg.Paths.LocalFragment)
		problems++
	}
	return problems
}

func (d *Doctor) checkDependencyFiles(w io.Writer) int {
	problems := 0
	checked := 0
	for _, p := range d.store.Projects() {
		file := filepath.Join(p.Path, d.cfg.DependencyFile)
		if ok, _ := afero.Exists(d.fs, file); !ok {
			continue
		}
		checked++

		result, err := deps.ValidateFile(d.fs, file)
		if err != nil {
			fmt.Fprintf(w, "  [FAIL] %s: %v\n", file, err)
			problems++
			continue
		}
		if !result.Valid {
			fmt.Fprintf(w, "  [FAIL] %s\n", file)
			for _, issue := range result.Issues {
				fmt.Fprintf(w, "         %s: %s\n", issue.Path, issue.Message)
			}
			problems++
			continue
		}
		fmt.Fprintf(w, "  [ OK ] %s\n", file)
	}
	if checked == 0 {
		fmt.Fprintln(w, "  no declared project has a dependency file")
	}
	return problems
}
