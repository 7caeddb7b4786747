package resolver

import (
	"context"
	"fmt"

	"github.com/rising-tools/roomservice/internal/manifest"
	"github.com/rising-tools/roomservice/internal/registry"
)

// Outcome is how a device fetch ended without error.
type Outcome int

const (
	// OutcomeResolved means the device tree was declared and resolved.
	OutcomeResolved Outcome = iota
	// OutcomeAlreadyFetched means the device tree was already declared; its
	// dependencies were still resolved.
	OutcomeAlreadyFetched
	// OutcomeUnknownDevice means deps-only mode found no device tree.
	OutcomeUnknownDevice
	// OutcomeNotInRegistry means the registry has no repository for the device.
	OutcomeNotInRegistry
)

func (o Outcome) String() string {
	switch o {
	case OutcomeResolved:
		return "resolved"
	case OutcomeAlreadyFetched:
		return "already fetched"
	case OutcomeUnknownDevice:
		return "unknown device"
	case OutcomeNotInRegistry:
		return "not in registry"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Registry lists the repository names of the device registry.
type Registry interface {
	Fetch(ctx context.Context) ([]string, error)
}

// Fetcher runs the end-to-end flow for a lunch product.
type Fetcher struct {
	registry Registry
	resolver *Resolver
	session  *Session
}

// NewFetcher creates a Fetcher. reg is only consulted outside deps-only mode.
func NewFetcher(reg Registry, r *Resolver) *Fetcher {
	return &Fetcher{
		registry: reg,
		resolver: r,
		session:  NewSession(r.store, r.cfg.DryRun, r.logger),
	}
}

// FetchDevice declares and syncs the device tree for product, then resolves
// its dependencies. With depsOnly the registry is skipped and the device
// tree must already be declared.
func (f *Fetcher) FetchDevice(ctx context.Context, product string, depsOnly bool) (Outcome, error) {
	device := registry.DeviceFromProduct(product)
	r := f.resolver

	if depsOnly {
		path := r.store.LookupDevice(device)
		if path == "" {
			r.logger.Error("trying dependencies-only mode on a non-existing device tree?", "device", device)
			return OutcomeUnknownDevice, nil
		}
		return OutcomeResolved, f.session.Run(ctx, func(ctx context.Context) error {
			_, err := r.Resolve(ctx, path)
			return err
		})
	}

	names, err := f.registry.Fetch(ctx)
	if err != nil {
		return 0, err
	}
	match, ok := registry.MatchDevice(names, device)
	if !ok {
		r.logger.Error("repository for device not found in the registry",
			"device", device,
			"hint", "add it to "+r.cfg.Paths.LocalFragment+" manually",
		)
		return OutcomeNotInRegistry, nil
	}

	outcome := OutcomeResolved
	err = f.session.Run(ctx, func(ctx context.Context) error {
		path := match.Path()
		if r.store.Exists(path) {
			outcome = OutcomeAlreadyFetched
		}

		rev, err := r.store.DefaultRevision(r.cfg.DefaultRemote)
		if err != nil {
			return fmt.Errorf("reading default revision: %w", err)
		}
		r.logger.Info("found repository", "name", match.Repository, "path", path, "revision", rev)

		if _, err := r.store.Append([]manifest.Entry{{Name: match.Repository, Path: path, Revision: rev}}); err != nil {
			return fmt.Errorf("adding %s: %w", match.Repository, err)
		}

		st := &run{states: make(map[string]State)}
		r.sync(ctx, st, []string{path})

		_, err = r.Resolve(ctx, path)
		return err
	})
	return outcome, err
}
