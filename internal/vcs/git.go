package vcs

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

const headsPrefix = "refs/heads/"

// BranchLister lists the branch names of a remote repository.
type BranchLister interface {
	ListBranches(ctx context.Context, url string) ([]string, error)
}

// GitClient implements BranchLister with git ls-remote.
type GitClient struct {
	binary string
}

// GitOption configures a GitClient.
type GitOption func(*GitClient)

// WithGitBinary overrides the git executable.
func WithGitBinary(path string) GitOption {
	return func(c *GitClient) {
		c.binary = path
	}
}

// NewGitClient creates a client that runs the git on PATH.
func NewGitClient(opts ...GitOption) *GitClient {
	c := &GitClient{binary: "git"}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RemoteURL returns the anonymous HTTPS URL for org/repo on GitHub. The
// empty credentials keep git from prompting for a login on missing repos.
func RemoteURL(org, repo string) string {
	return fmt.Sprintf("https://:@github.com/%s/%s", org, repo)
}

// ListBranches returns the branch names advertised by url.
func (c *GitClient) ListBranches(ctx context.Context, url string) ([]string, error) {
	cmd := exec.CommandContext(ctx, c.binary, "ls-remote", "-h", url)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git ls-remote %s failed: %w: %s", url, err, strings.TrimSpace(stderr.String()))
	}
	return parseHeads(stdout.Bytes()), nil
}

// parseHeads extracts branch names from ls-remote output lines of the form
// "<sha>\trefs/heads/<branch>".
func parseHeads(out []byte) []string {
	var branches []string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 2 {
			continue
		}
		if name, ok := strings.CutPrefix(fields[1], headsPrefix); ok && name != "" {
			branches = append(branches, name)
		}
	}
	return branches
}
