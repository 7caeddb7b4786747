package manifest

import (
	"strings"

	"github.com/beevik/etree"
)

// shallowRemotePrefix marks remotes whose projects are always shallow-cloned.
// A shallow clone cannot pin a revision, so any revision is dropped.
const shallowRemotePrefix = "aosp-"

// Project is a single <project> element of a manifest.
type Project struct {
	Path       string
	Name       string
	Remote     string
	Revision   string
	CloneDepth string
}

// Override names an existing project that must be disabled before an entry
// is added.
type Override struct {
	Repo string
	Path string
}

// Entry is a request to declare a repository in the local fragment.
type Entry struct {
	Name     string
	Path     string
	Remote   string // empty selects the store's default remote
	Revision string // empty leaves the project on the remote's default
	Override *Override
}

// project builds the manifest project for e, applying the shallow-clone rule.
func (e Entry) project(defaultRemote string) Project {
	p := Project{
		Path:     e.Path,
		Name:     e.Name,
		Remote:   e.Remote,
		Revision: e.Revision,
	}
	if p.Remote == "" {
		p.Remote = defaultRemote
	}
	if strings.HasPrefix(p.Remote, shallowRemotePrefix) {
		p.CloneDepth = "1"
		p.Revision = ""
	}
	return p
}

// element renders p as a <project> element. Attribute order is stable.
func (p Project) element() *etree.Element {
	el := etree.NewElement("project")
	el.CreateAttr("path", p.Path)
	el.CreateAttr("remote", p.Remote)
	el.CreateAttr("name", p.Name)
	if p.Revision != "" {
		el.CreateAttr("revision", p.Revision)
	}
	if p.CloneDepth != "" {
		el.CreateAttr("clone-depth", p.CloneDepth)
	}
	return el
}

// projectFromElement reads a <project> element back into a Project.
func projectFromElement(el *etree.Element) Project {
	return Project{
		Path:       el.SelectAttrValue("path", ""),
		Name:       el.SelectAttrValue("name", ""),
		Remote:     el.SelectAttrValue("remote", ""),
		Revision:   el.SelectAttrValue("revision", ""),
		CloneDepth: el.SelectAttrValue("clone-depth", ""),
	}
}

// NormalizeRevision strips ref-namespace prefixes from a revision, so both
// "refs/heads/fifteen" and "refs/tags/fifteen" become "fifteen".
func NormalizeRevision(rev string) string {
	rev = strings.ReplaceAll(rev, "refs/heads/", "")
	return strings.ReplaceAll(rev, "refs/tags/", "")
}
