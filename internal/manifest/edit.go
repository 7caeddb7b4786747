package manifest

import (
	"fmt"

	"github.com/beevik/etree"
	"github.com/spf13/afero"
)

const backupSuffix = ".backup"

// BackupPath returns the path the base snippet is backed up to.
func (s *Store) BackupPath() string {
	return s.paths.BaseSnippet + backupSuffix
}

// EnsureLocalDir creates the local fragment directory. No-op in dry-run.
func (s *Store) EnsureLocalDir() error {
	if s.dryRun {
		return nil
	}
	if err := s.fs.MkdirAll(s.paths.LocalDir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", s.paths.LocalDir, err)
	}
	return nil
}

// CommentOut rewrites every project at target as an XML comment, in every
// local fragment, the active manifest, and the base snippet. The base snippet
// is backed up first. It reports whether any file changed. No-op in dry-run.
func (s *Store) CommentOut(target string) (bool, error) {
	if s.dryRun {
		return false, nil
	}
	changed, _, err := s.commentOut(target, nil)
	return changed, err
}

// Append declares each entry in the local fragment unless its path is
// already present. An entry's override is applied first, so the project it
// names is commented out before the entry is considered. It returns the
// paths that were added. No-op in dry-run.
func (s *Store) Append(entries []Entry) ([]string, error) {
	if s.dryRun {
		return nil, nil
	}

	local := s.loadOrEmpty(s.paths.LocalFragment)
	changed := false
	var added []string

	for _, e := range entries {
		if e.Override != nil && e.Override.Repo != "" && e.Override.Path != "" {
			localChanged, err := s.applyOverride(*e.Override, local)
			if err != nil {
				return added, err
			}
			changed = changed || localChanged
		}

		s.logger.Debug("checking manifest", "path", e.Path, "name", e.Name)
		if s.exists(e.Path, local) {
			s.logger.Info("already fetched", "name", e.Name, "path", e.Path)
			continue
		}

		p := e.project(s.defaultRemote)
		local.Root().AddChild(p.element())
		added = append(added, p.Path)
		changed = true
		s.logger.Info("adding dependency", "name", p.Name, "path", p.Path)
	}

	if !changed {
		return added, nil
	}
	if err := writeDocument(s.fs, s.paths.LocalFragment, local); err != nil {
		return added, err
	}
	return added, nil
}

// applyOverride comments out every project at o.Path, but only if some
// fragment holds a project matching both o.Repo and o.Path. It reports
// whether local was modified.
func (s *Store) applyOverride(o Override, local *etree.Document) (bool, error) {
	s.logger.Info("override specified", "repo", o.Repo, "path", o.Path)

	for _, file := range s.editableFragments(local) {
		doc := local
		if local == nil || file != s.paths.LocalFragment {
			doc = s.loadOrEmpty(file)
		}
		for _, el := range doc.FindElements("//project") {
			if el.SelectAttrValue("name", "") == o.Repo && el.SelectAttrValue("path", "") == o.Path {
				s.logger.Info("found overridden project", "repo", o.Repo, "path", o.Path, "file", file)
				_, localChanged, err := s.commentOut(o.Path, local)
				return localChanged, err
			}
		}
	}
	return false, nil
}

// commentOut is CommentOut with local standing in for the on-disk local
// fragment. local is mutated in place and left for the caller to write. It
// reports whether any file changed and whether local did.
func (s *Store) commentOut(target string, local *etree.Document) (changed, localChanged bool, err error) {
	if err := s.backupBaseSnippet(); err != nil {
		return false, false, err
	}

	for _, file := range s.editableFragments(local) {
		inMemory := local != nil && file == s.paths.LocalFragment

		doc := local
		if !inMemory {
			var err error
			doc, err = readDocument(s.fs, file)
			if err != nil {
				s.logger.Warn("skipping fragment", "file", file, "err", err)
				continue
			}
		}

		n, err := commentProjects(doc, target)
		if err != nil {
			return changed, localChanged, fmt.Errorf("commenting out %s in %s: %w", target, file, err)
		}
		if n == 0 {
			continue
		}
		changed = true

		if inMemory {
			localChanged = true
		} else if err := writeDocument(s.fs, file, doc); err != nil {
			return changed, localChanged, err
		}
		s.logger.Info("commented out project", "path", target, "file", file)
	}
	return changed, localChanged, nil
}

// editableFragments lists the files CommentOut may rewrite: local fragments,
// the active manifest, and the base snippet, without duplicates.
func (s *Store) editableFragments(local *etree.Document) []string {
	files := s.localFragments()
	if local != nil {
		files = append(files, s.paths.LocalFragment)
	}
	if active, err := s.ActiveManifestPath(); err == nil {
		files = append(files, active)
	}
	files = append(files, s.paths.BaseSnippet)

	seen := make(map[string]bool, len(files))
	out := files[:0]
	for _, f := range files {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

// backupBaseSnippet copies the base snippet to its backup path unless a
// backup already exists.
func (s *Store) backupBaseSnippet() error {
	backup := s.BackupPath()
	if fileExists(s.fs, backup) {
		s.logger.Debug("backup already exists", "path", backup)
		return nil
	}
	if !fileExists(s.fs, s.paths.BaseSnippet) {
		s.logger.Debug("no base snippet to back up", "path", s.paths.BaseSnippet)
		return nil
	}

	data, err := afero.ReadFile(s.fs, s.paths.BaseSnippet)
	if err != nil {
		return fmt.Errorf("reading %s for backup: %w", s.paths.BaseSnippet, err)
	}
	if err := afero.WriteFile(s.fs, backup, data, 0644); err != nil {
		return fmt.Errorf("writing backup %s: %w", backup, err)
	}
	s.logger.Info("backup created", "path", backup)
	return nil
}

// RestoreBackup moves the base snippet backup back into place, if one exists.
func (s *Store) RestoreBackup() error {
	backup := s.BackupPath()
	if !fileExists(s.fs, backup) {
		s.logger.Debug("no backup to restore", "path", backup)
		return nil
	}
	if err := s.fs.Rename(backup, s.paths.BaseSnippet); err != nil {
		return fmt.Errorf("restoring %s: %w", s.paths.BaseSnippet, err)
	}
	s.logger.Info("manifest restored", "path", s.paths.BaseSnippet)
	return nil
}

// RemoveLocal deletes the local fragment directory.
func (s *Store) RemoveLocal() error {
	if ok, _ := afero.DirExists(s.fs, s.paths.LocalDir); !ok {
		s.logger.Debug("no local manifests to remove", "path", s.paths.LocalDir)
		return nil
	}
	if err := s.fs.RemoveAll(s.paths.LocalDir); err != nil {
		return fmt.Errorf("removing %s: %w", s.paths.LocalDir, err)
	}
	s.logger.Info("removed local manifests", "path", s.paths.LocalDir)
	return nil
}
