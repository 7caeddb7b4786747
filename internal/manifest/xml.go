package manifest

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
	"github.com/spf13/afero"
)

const (
	xmlDeclaration = `version="1.0" encoding="UTF-8"`
	indentSpaces   = 2
)

// readDocument parses the XML file at path.
func readDocument(fs afero.Fs, path string) (*etree.Document, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("parsing %s: no root element", path)
	}
	return doc, nil
}

// newManifestDocument returns a document holding an empty <manifest>.
func newManifestDocument() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateElement("manifest")
	return doc
}

// Encode serializes doc with the manifest format: an XML declaration,
// two-space indentation, and exactly one trailing newline.
func Encode(doc *etree.Document) ([]byte, error) {
	if !hasDeclaration(doc) {
		doc.InsertChildAt(0, &etree.ProcInst{Target: "xml", Inst: xmlDeclaration})
	}
	doc.Indent(indentSpaces)

	out, err := doc.WriteToString()
	if err != nil {
		return nil, fmt.Errorf("serializing manifest: %w", err)
	}
	return []byte(strings.TrimRight(out, "\n") + "\n"), nil
}

func hasDeclaration(doc *etree.Document) bool {
	for _, tok := range doc.Child {
		if pi, ok := tok.(*etree.ProcInst); ok && pi.Target == "xml" {
			return true
		}
	}
	return false
}

// writeDocument encodes doc and writes it to path, replacing prior content.
func writeDocument(fs afero.Fs, path string, doc *etree.Document) error {
	data, err := Encode(doc)
	if err != nil {
		return err
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if err := afero.WriteFile(fs, path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// projectElements returns the <project> elements directly under the root.
func projectElements(doc *etree.Document) []*etree.Element {
	return doc.Root().SelectElements("project")
}

// elementString serializes a detached copy of el without a declaration.
func elementString(el *etree.Element) (string, error) {
	d := etree.NewDocument()
	d.SetRoot(el.Copy())
	s, err := d.WriteToString()
	if err != nil {
		return "", fmt.Errorf("serializing <%s>: %w", el.Tag, err)
	}
	return s, nil
}

// commentProjects replaces every project element at target with an XML
// comment holding its serialized form, keeping its position in the parent.
// It returns the number of projects commented out.
func commentProjects(doc *etree.Document, target string) (int, error) {
	n := 0
	for _, el := range doc.FindElements("//project") {
		if el.SelectAttrValue("path", "") != target {
			continue
		}
		text, err := elementString(el)
		if err != nil {
			return n, err
		}
		// "--" is not allowed inside a comment.
		text = strings.ReplaceAll(text, "--", "- -")

		parent := el.Parent()
		idx := el.Index()
		parent.RemoveChildAt(idx)
		parent.InsertChildAt(idx, &etree.Comment{Data: " " + text + " "})
		n++
	}
	return n, nil
}

func fileExists(fs afero.Fs, path string) bool {
	info, err := fs.Stat(path)
	return err == nil && !info.IsDir()
}
