package resolver

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/rising-tools/roomservice/internal/config"
	"github.com/rising-tools/roomservice/internal/deps"
	"github.com/rising-tools/roomservice/internal/manifest"
	"github.com/rising-tools/roomservice/internal/vcs"
	"github.com/spf13/afero"
)

// State is what the resolver knows about a target path.
type State int

const (
	// NotDeclared means no manifest fragment has a project at the path.
	NotDeclared State = iota
	// DeclaredNotSynced means the path is declared but not checked out.
	DeclaredNotSynced
	// DeclaredSynced means the path is declared and checked out.
	DeclaredSynced
)

func (s State) String() string {
	switch s {
	case NotDeclared:
		return "not declared"
	case DeclaredNotSynced:
		return "declared, not synced"
	case DeclaredSynced:
		return "synced"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Result summarizes a resolution.
type Result struct {
	Visited     []string // paths whose declaration files were read, in order
	Added       []string // paths appended to the local fragment
	SyncBatches int      // repo sync invocations
}

// Resolver resolves dependency declarations against a manifest store.
type Resolver struct {
	cfg    *config.Config
	fs     afero.Fs
	store  *manifest.Store
	lister vcs.BranchLister
	syncer vcs.Syncer
	logger *log.Logger
}

// New creates a Resolver. fs must be rooted at the checkout, like store.
func New(cfg *config.Config, fs afero.Fs, store *manifest.Store, lister vcs.BranchLister, syncer vcs.Syncer, logger *log.Logger) *Resolver {
	return &Resolver{
		cfg:    cfg,
		fs:     fs,
		store:  store,
		lister: lister,
		syncer: syncer,
		logger: logger,
	}
}

// run holds the per-call traversal state.
type run struct {
	states  map[string]State
	visited map[string]bool
	queue   []string
	result  Result
}

// Resolve reads the declaration file under root and, transitively, under
// every path it declares.
func (r *Resolver) Resolve(ctx context.Context, root string) (*Result, error) {
	st := &run{
		states:  make(map[string]State),
		visited: map[string]bool{root: true},
		queue:   []string{root},
	}

	for len(st.queue) > 0 {
		if err := ctx.Err(); err != nil {
			return &st.result, err
		}
		path := st.queue[0]
		st.queue = st.queue[1:]
		st.result.Visited = append(st.result.Visited, path)

		if err := r.resolvePath(ctx, st, path); err != nil {
			return &st.result, err
		}
	}
	return &st.result, nil
}

// resolvePath handles the declaration file of a single path.
func (r *Resolver) resolvePath(ctx context.Context, st *run, path string) error {
	file := filepath.Join(path, r.cfg.DependencyFile)
	r.logger.Info("looking for dependencies", "path", path)

	records, err := deps.ParseFile(r.fs, file)
	if errors.Is(err, deps.ErrNotFound) {
		r.logger.Info("no additional dependencies", "path", path)
		return nil
	}
	if err != nil {
		return err
	}

	var entries []manifest.Entry
	var batch []string
	inBatch := make(map[string]bool)

	for _, d := range records {
		target := d.TargetPath
		state := r.state(st, target)

		if state == NotDeclared {
			entry, err := r.entry(ctx, d)
			if err != nil {
				return err
			}
			entries = append(entries, entry)
			st.states[target] = DeclaredNotSynced
			state = DeclaredNotSynced
		}

		if state != DeclaredSynced && !inBatch[target] {
			inBatch[target] = true
			batch = append(batch, target)
		}

		if !st.visited[target] {
			st.visited[target] = true
			st.queue = append(st.queue, target)
		}
	}

	if len(entries) > 0 {
		r.logger.Info("adding dependencies to manifest", "count", len(entries))
		added, err := r.store.Append(entries)
		st.result.Added = append(st.result.Added, added...)
		if err != nil {
			return fmt.Errorf("adding dependencies of %s: %w", path, err)
		}
	}

	if len(batch) > 0 {
		r.sync(ctx, st, batch)
	}

	// An override may have disabled the only project at a path seen earlier.
	for _, e := range entries {
		if e.Override != nil {
			delete(st.states, e.Override.Path)
		}
	}
	return nil
}

// state returns the cached state of path, computing it on first sight.
func (r *Resolver) state(st *run, path string) State {
	if s, ok := st.states[path]; ok {
		return s
	}

	s := NotDeclared
	if r.store.Exists(path) {
		s = DeclaredNotSynced
		if ok, _ := afero.DirExists(r.fs, path); ok {
			s = DeclaredSynced
		}
	}
	r.logger.Debug("dependency state", "path", path, "state", s)
	st.states[path] = s
	return s
}

// entry converts a declaration record into a manifest entry, looking up the
// branch when the record has none and lives on the lookup remote.
func (r *Resolver) entry(ctx context.Context, d deps.Dependency) (manifest.Entry, error) {
	e := manifest.Entry{
		Name:     d.Repository,
		Path:     d.TargetPath,
		Remote:   d.Remote,
		Revision: d.Pin(),
	}
	if d.Override != nil {
		e.Override = &manifest.Override{Repo: d.Override.Repo, Path: d.Override.Path}
	}

	if e.Revision == "" && d.RemoteOr(r.cfg.LookupRemote) == r.cfg.LookupRemote {
		branch, err := r.ResolveBranch(ctx, d.Repository)
		if err != nil {
			return e, fmt.Errorf("resolving branch for %s: %w", d.Repository, err)
		}
		e.Revision = branch
	}
	return e, nil
}

// sync checks out batch with one repo invocation. A failure is logged and
// the run continues.
func (r *Resolver) sync(ctx context.Context, st *run, batch []string) {
	r.logger.Info("syncing dependencies", "paths", batch)
	if r.cfg.DryRun {
		r.logger.Info("dry run, skipping sync")
	} else {
		st.result.SyncBatches++
		if err := r.syncer.Sync(ctx, batch); err != nil {
			r.logger.Warn("sync failed, continuing", "paths", batch, "err", err)
		}
	}
	for _, p := range batch {
		st.states[p] = DeclaredSynced
	}
}
