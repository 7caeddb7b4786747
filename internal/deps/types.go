package deps

// Dependency is one entry of a dependency declaration file.
type Dependency struct {
	Repository string    `json:"repository"`
	TargetPath string    `json:"target_path"`
	Branch     string    `json:"branch,omitempty"`
	Remote     string    `json:"remote,omitempty"`
	Override   *Override `json:"override,omitempty"`

	// Revision is accepted as an alias for Branch.
	Revision string `json:"revision,omitempty"`
}

// Override names an existing project, by repository and path, that this
// dependency replaces.
type Override struct {
	Repo string `json:"repo"`
	Path string `json:"path"`
}

// Pin returns the revision the dependency asks for, or "" if none.
func (d Dependency) Pin() string {
	if d.Branch != "" {
		return d.Branch
	}
	return d.Revision
}

// RemoteOr returns the declared remote, or def when none is declared.
func (d Dependency) RemoteOr(def string) string {
	if d.Remote != "" {
		return d.Remote
	}
	return def
}
