package deps

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
)

// ErrNotFound is returned when a checkout has no dependency declaration file.
var ErrNotFound = errors.New("no dependency file")

// InvalidError reports a declaration file that does not match the schema.
type InvalidError struct {
	Path   string
	Issues []ValidationIssue
}

func (e *InvalidError) Error() string {
	msgs := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		if issue.Path != "" {
			msgs = append(msgs, issue.Path+": "+issue.Message)
		} else {
			msgs = append(msgs, issue.Message)
		}
	}
	return fmt.Sprintf("invalid dependency file %s: %s", e.Path, strings.Join(msgs, "; "))
}

// ParseFile reads, validates, and decodes the declaration file at path.
// A missing file yields ErrNotFound.
func ParseFile(fs afero.Fs, path string) ([]Dependency, error) {
	data, err := afero.ReadFile(fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse validates and decodes declaration data. path is used in errors only.
func Parse(data []byte, path string) ([]Dependency, error) {
	result, err := Validate(data)
	if err != nil {
		return nil, fmt.Errorf("validating %s: %w", path, err)
	}
	if !result.Valid {
		return nil, &InvalidError{Path: path, Issues: result.Issues}
	}

	var out []Dependency
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parsing dependency file %s: %w", path, err)
	}
	return out, nil
}
