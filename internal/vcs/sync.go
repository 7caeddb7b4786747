package vcs

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// Syncer checks out manifest paths.
type Syncer interface {
	Sync(ctx context.Context, paths []string) error
}

// RepoSyncer implements Syncer with "repo sync --force-sync".
type RepoSyncer struct {
	binary string
	dir    string
	stdout io.Writer
	stderr io.Writer
}

// SyncOption configures a RepoSyncer.
type SyncOption func(*RepoSyncer)

// WithRepoBinary overrides the repo executable.
func WithRepoBinary(path string) SyncOption {
	return func(s *RepoSyncer) {
		s.binary = path
	}
}

// WithOutput sets where repo's output goes. Defaults to the process stdio.
func WithOutput(stdout, stderr io.Writer) SyncOption {
	return func(s *RepoSyncer) {
		s.stdout = stdout
		s.stderr = stderr
	}
}

// NewRepoSyncer creates a syncer that runs repo inside workDir.
func NewRepoSyncer(workDir string, opts ...SyncOption) *RepoSyncer {
	s := &RepoSyncer{
		binary: "repo",
		dir:    workDir,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Args returns the repo arguments used to sync paths.
func Args(paths []string) []string {
	return append([]string{"sync", "--force-sync"}, paths...)
}

// Sync runs repo sync for paths. An empty batch is a no-op.
func (s *RepoSyncer) Sync(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	cmd := exec.CommandContext(ctx, s.binary, Args(paths)...)
	cmd.Dir = s.dir
	cmd.Stdout = s.stdout
	cmd.Stderr = s.stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("repo sync failed: %w", err)
	}
	return nil
}
