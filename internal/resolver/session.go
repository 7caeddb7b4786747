package resolver

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"github.com/rising-tools/roomservice/internal/manifest"
)

// Session brackets a resolution run. The local fragment directory exists for
// the duration of the run and is removed afterwards, together with restoring
// the base snippet backup, whether or not the run succeeded.
type Session struct {
	store  *manifest.Store
	dryRun bool
	logger *log.Logger
}

// NewSession creates a Session over store.
func NewSession(store *manifest.Store, dryRun bool, logger *log.Logger) *Session {
	return &Session{store: store, dryRun: dryRun, logger: logger}
}

// Run calls fn inside the session. Cleanup errors are joined with fn's.
func (s *Session) Run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if s.dryRun {
		return fn(ctx)
	}

	if err := s.store.EnsureLocalDir(); err != nil {
		return err
	}
	defer func() {
		if cerr := s.cleanup(); cerr != nil {
			s.logger.Error("cleanup failed", "err", cerr)
			err = errors.Join(err, cerr)
		}
	}()
	return fn(ctx)
}

func (s *Session) cleanup() error {
	return errors.Join(s.store.RestoreBackup(), s.store.RemoveLocal())
}
