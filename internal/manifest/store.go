package manifest

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/beevik/etree"
	"github.com/charmbracelet/log"
	"github.com/rising-tools/roomservice/internal/config"
	"github.com/spf13/afero"
)

// ErrNoRemote is returned when the ROM snippet does not configure the
// requested remote or its revision.
var ErrNoRemote = errors.New("remote not configured")

// Store locates and mutates manifest fragments under a checkout root. All
// paths it handles are relative to the root of fs.
type Store struct {
	fs            afero.Fs
	paths         config.Paths
	defaultRemote string
	dryRun        bool
	logger        *log.Logger
}

// NewStore creates a Store over fs using the layout and flags in cfg.
func NewStore(fs afero.Fs, cfg *config.Config, logger *log.Logger) *Store {
	return &Store{
		fs:            fs,
		paths:         cfg.Paths,
		defaultRemote: cfg.DefaultRemote,
		dryRun:        cfg.DryRun,
		logger:        logger,
	}
}

// ActiveManifestPath returns the manifest the repo client actually uses. A
// root manifest that directly contains <default> is authoritative; otherwise
// its <include> names the real file under the manifests directory.
func (s *Store) ActiveManifestPath() (string, error) {
	doc, err := readDocument(s.fs, s.paths.RootManifest)
	if err != nil {
		return "", err
	}

	root := doc.Root()
	if root.SelectElement("default") != nil {
		return s.paths.RootManifest, nil
	}

	include := root.SelectElement("include")
	if include == nil {
		return "", fmt.Errorf("%s has neither <default> nor <include>", s.paths.RootManifest)
	}
	name := include.SelectAttrValue("name", "")
	if name == "" {
		return "", fmt.Errorf("%s: <include> has no name", s.paths.RootManifest)
	}
	return filepath.Join(s.paths.ManifestsDir, name), nil
}

// DefaultRevision returns the normalized revision the ROM snippet configures
// for remote.
func (s *Store) DefaultRevision(remote string) (string, error) {
	doc, err := readDocument(s.fs, s.paths.ROMSnippet)
	if err != nil {
		return "", fmt.Errorf("reading default revision: %w", err)
	}

	var el *etree.Element
	for _, r := range doc.FindElements("//remote") {
		if r.SelectAttrValue("name", "") == remote {
			el = r
			break
		}
	}
	if el == nil {
		return "", fmt.Errorf("%w: %q in %s", ErrNoRemote, remote, s.paths.ROMSnippet)
	}
	rev := el.SelectAttrValue("revision", "")
	if rev == "" {
		return "", fmt.Errorf("%w: %q has no revision in %s", ErrNoRemote, remote, s.paths.ROMSnippet)
	}
	return NormalizeRevision(rev), nil
}

// LookupDevice returns the checkout path of the project whose name ends in
// _<device> (device_<manufacturer>_<device>), or "" if no fragment has one.
func (s *Store) LookupDevice(device string) string {
	pattern := regexp.MustCompile("device_.*_" + regexp.QuoteMeta(device) + "$")

	files := s.localFragments()
	if active, err := s.ActiveManifestPath(); err == nil {
		files = append(files, active)
	}

	for _, file := range files {
		for _, el := range projectElements(s.loadOrEmpty(file)) {
			if pattern.MatchString(el.SelectAttrValue("name", "")) {
				return el.SelectAttrValue("path", "")
			}
		}
	}
	return ""
}

// Exists reports whether any local fragment, the active manifest, or the ROM
// snippet already declares a project at path.
func (s *Store) Exists(path string) bool {
	return s.exists(path, nil)
}

// Projects returns every project declared in the local fragments.
func (s *Store) Projects() []Project {
	var out []Project
	for _, file := range s.localFragments() {
		for _, el := range projectElements(s.loadOrEmpty(file)) {
			out = append(out, projectFromElement(el))
		}
	}
	return out
}

// exists is Exists with local standing in for the on-disk local fragment,
// so that entries appended earlier in the same batch are seen.
func (s *Store) exists(path string, local *etree.Document) bool {
	for _, doc := range s.lookupDocuments(local) {
		for _, el := range projectElements(doc) {
			if el.SelectAttrValue("path", "") == path {
				return true
			}
		}
	}
	return false
}

func (s *Store) lookupDocuments(local *etree.Document) []*etree.Document {
	var docs []*etree.Document
	for _, file := range s.localFragments() {
		if local != nil && file == s.paths.LocalFragment {
			continue
		}
		docs = append(docs, s.loadOrEmpty(file))
	}
	if local != nil {
		docs = append(docs, local)
	}

	if active, err := s.ActiveManifestPath(); err == nil {
		docs = append(docs, s.loadOrEmpty(active))
	} else {
		s.logger.Debug("no active manifest", "err", err)
	}
	return append(docs, s.loadOrEmpty(s.paths.ROMSnippet))
}

// localFragments lists the *.xml files in the local fragment directory in
// lexical order.
func (s *Store) localFragments() []string {
	files, err := afero.Glob(s.fs, filepath.Join(s.paths.LocalDir, "*.xml"))
	if err != nil {
		s.logger.Debug("listing local fragments", "err", err)
		return nil
	}
	return files
}

// loadOrEmpty parses file, treating a missing or malformed file as an empty
// manifest.
func (s *Store) loadOrEmpty(file string) *etree.Document {
	doc, err := readDocument(s.fs, file)
	if err != nil {
		s.logger.Debug("treating fragment as empty", "file", file, "err", err)
		return newManifestDocument()
	}
	return doc
}
