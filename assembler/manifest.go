package assembler

import (
	"fmt"
	"path"
	"strings"

	"go.yaml.in/yaml/v4"

	"github.com/openpayments/isotools/internal/codegen"
	"github.com/openpayments/isotools/internal/fileutil"
	"github.com/openpayments/isotools/internal/naming"
	"github.com/openpayments/isotools/parser"
)

// manifestHeader marks manifest files as machine-written.
const manifestHeader = "# Code generated by isotools. DO NOT EDIT.\n"

// Manifest describes one directory of the assembled tree: its child
// directories and leaf modules, name-sorted.
type Manifest struct {
	// Path is the directory's tree-relative path. Empty for the root.
	Path string `yaml:"path"`
	// Directories lists child directory names.
	Directories []string `yaml:"directories,omitempty"`
	// Modules lists leaf module names directly in this directory.
	Modules []string `yaml:"modules,omitempty"`
}

// manifestFor builds the manifest of one directory node.
func manifestFor(n *Node) Manifest {
	m := Manifest{Path: n.Path}
	for _, c := range n.Children {
		if c.IsLeaf() {
			m.Modules = append(m.Modules, c.Name)
		} else {
			m.Directories = append(m.Directories, c.Name)
		}
	}
	return m
}

// Manifests returns one manifest per directory, root first, ordered by
// path.
func (g *Graph) Manifests() []Manifest {
	dirs := g.Directories()
	manifests := make([]Manifest, 0, len(dirs))
	for _, n := range dirs {
		manifests = append(manifests, manifestFor(n))
	}
	return manifests
}

// EncodeManifest serializes a manifest to YAML with the generated-file
// header. Encoding is deterministic for a given manifest.
func EncodeManifest(m Manifest) ([]byte, error) {
	body, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("assembler: encoding manifest %q: %w", m.Path, err)
	}
	return append([]byte(manifestHeader), body...), nil
}

// Files stages the assembler's output: a manifest.yaml and a generated
// doc.go for every directory node, root included. Nothing is written to
// disk here.
func (g *Graph) Files(tree *parser.Tree) ([]fileutil.File, error) {
	var files []fileutil.File
	for _, n := range g.Directories() {
		m := manifestFor(n)

		encoded, err := EncodeManifest(m)
		if err != nil {
			return nil, err
		}
		files = append(files, fileutil.File{
			Path:    path.Join(n.Path, "manifest.yaml"),
			Content: encoded,
		})

		doc, err := renderDocFile(tree, n, m)
		if err != nil {
			return nil, err
		}
		files = append(files, fileutil.File{
			Path:    path.Join(n.Path, "doc.go"),
			Content: doc,
		})
	}
	return files, nil
}

// renderDocFile emits the doc.go that makes a directory node a documented
// Go package.
func renderDocFile(tree *parser.Tree, n *Node, m Manifest) ([]byte, error) {
	dirName := n.Name
	if dirName == "" {
		dirName = path.Base(tree.Root)
	}
	pkg := naming.PackageName(dirName)

	var b strings.Builder
	b.WriteString(codegen.Header)
	b.WriteString("\n")
	if n.Path == "" {
		fmt.Fprintf(&b, "// Package %s is the root of the unified message tree.\n", pkg)
	} else {
		fmt.Fprintf(&b, "// Package %s indexes the generated message modules under %s/.\n", pkg, n.Path)
	}
	if len(m.Modules) > 0 {
		b.WriteString("//\n// Modules:\n")
		for _, name := range m.Modules {
			fmt.Fprintf(&b, "//   - %s\n", name)
		}
	}
	if len(m.Directories) > 0 {
		b.WriteString("//\n// Subdirectories:\n")
		for _, name := range m.Directories {
			fmt.Fprintf(&b, "//   - %s\n", name)
		}
	}
	fmt.Fprintf(&b, "package %s\n", pkg)

	return codegen.Format(path.Join(n.Path, "doc.go"), []byte(b.String()))
}
