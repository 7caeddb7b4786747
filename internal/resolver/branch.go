package resolver

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/rising-tools/roomservice/internal/branding"
	"github.com/rising-tools/roomservice/internal/vcs"
)

// ErrNoBranch is returned when neither the default revision nor any
// fallback branch exists on a repository.
var ErrNoBranch = errors.New("no usable branch")

// ResolveBranch picks the revision to pin repo at: the devices remote's
// default revision if the repository has that branch, otherwise the first
// configured fallback branch it has.
func (r *Resolver) ResolveBranch(ctx context.Context, repo string) (string, error) {
	def, err := r.store.DefaultRevision(r.cfg.DefaultRemote)
	if err != nil {
		return "", err
	}
	r.logger.Info("checking branch info", "repo", repo, "default", def)

	branches, err := r.lister.ListBranches(ctx, vcs.RemoteURL(r.cfg.DevicesOrg, repo))
	if err != nil {
		r.logger.Warn("could not list branches", "repo", repo, "err", err)
		branches = nil
	}

	if slices.Contains(branches, def) {
		return def, nil
	}

	for _, fallback := range r.cfg.Branches {
		if slices.Contains(branches, fallback) {
			r.logger.Info("using fallback branch", "repo", repo, "branch", fallback)
			return fallback, nil
		}
	}

	r.logger.Error("default revision not found",
		"repo", repo,
		"default", def,
		"branches", branches,
		"hint", fmt.Sprintf("set %s to a space-separated list of fallback branches", branding.EnvVar("BRANCHES")),
	)
	return "", fmt.Errorf("%w: %s has no branch %q and no fallback matched", ErrNoBranch, repo, def)
}
