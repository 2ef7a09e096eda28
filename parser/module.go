package parser

import (
	"fmt"
	"path"
	"sort"
	"strings"
)

// TypeKind identifies the structural shape of a type definition.
type TypeKind string

const (
	// KindRecord is a struct definition with named, tagged fields.
	KindRecord TypeKind = "record"
	// KindEnum is a defined string type with an associated const block of
	// its permitted values.
	KindEnum TypeKind = "enum"
	// KindWrapper is a defined type over a basic underlying type, such as
	// Max35Text over string.
	KindWrapper TypeKind = "wrapper"
)

// Tree is the structural model of one generated module tree.
//
// Modules are kept in lexicographic path order so every consumer observes
// the same deterministic iteration order regardless of filesystem order.
type Tree struct {
	// Root is the directory the tree was loaded from.
	Root string
	// ImportBase is the Go import path prefix of the tree, used when
	// rewritten modules need to import one another.
	ImportBase string
	// Modules contains every generated module, sorted by Path.
	Modules []*Module

	byPath map[string]*Module
}

// Module is one generated source unit: a single Go package produced by the
// external translator for one schema document.
type Module struct {
	// Path is the slash-separated directory path relative to the tree root,
	// e.g. "pacs/pacs_008_001_08".
	Path string
	// Package is the Go package name.
	Package string
	// SourceFiles holds the tree-relative paths of the files the module was
	// parsed from, in parse order. Empty for modules assembled in memory.
	SourceFiles []string
	// Types holds the module's type definitions in declaration order.
	Types []*TypeDefinition

	byName map[string]*TypeDefinition
}

// NewTree builds a Tree from a set of modules, normalizing module order and
// indexes. Module and type lookups are valid after this call.
func NewTree(root, importBase string, modules []*Module) *Tree {
	t := &Tree{
		Root:       root,
		ImportBase: importBase,
		Modules:    modules,
		byPath:     make(map[string]*Module, len(modules)),
	}
	sort.Slice(t.Modules, func(i, j int) bool { return t.Modules[i].Path < t.Modules[j].Path })
	for _, m := range t.Modules {
		m.reindex()
		t.byPath[m.Path] = m
	}
	return t
}

// Module returns the module at the given tree-relative path, or nil.
func (t *Tree) Module(path string) *Module {
	return t.byPath[path]
}

// AddModule inserts a module into the tree, keeping path order and indexes
// consistent. Adding a module whose path already exists is an error.
func (t *Tree) AddModule(m *Module) error {
	if _, exists := t.byPath[m.Path]; exists {
		return fmt.Errorf("parser: module %q already exists in tree", m.Path)
	}
	m.reindex()
	t.byPath[m.Path] = m
	t.Modules = append(t.Modules, m)
	sort.Slice(t.Modules, func(i, j int) bool { return t.Modules[i].Path < t.Modules[j].Path })
	return nil
}

// RemoveModule removes the module at the given path, if present.
func (t *Tree) RemoveModule(path string) {
	if _, exists := t.byPath[path]; !exists {
		return
	}
	delete(t.byPath, path)
	for i, m := range t.Modules {
		if m.Path == path {
			t.Modules = append(t.Modules[:i], t.Modules[i+1:]...)
			break
		}
	}
}

// Lookup resolves a type reference from the perspective of a module.
// An empty ref.Module means a local reference within from.
// It returns nil when the reference does not resolve to a definition.
func (t *Tree) Lookup(from *Module, ref TypeRef) *TypeDefinition {
	if ref.IsBuiltin() {
		return nil
	}
	if ref.Module == "" {
		if from == nil {
			return nil
		}
		return from.Type(ref.Name)
	}
	target := t.byPath[ref.Module]
	if target == nil {
		return nil
	}
	return target.Type(ref.Name)
}

// TypeCount returns the total number of type definitions across all modules.
func (t *Tree) TypeCount() int {
	n := 0
	for _, m := range t.Modules {
		n += len(m.Types)
	}
	return n
}

// Type returns the named type definition, or nil.
func (m *Module) Type(name string) *TypeDefinition {
	return m.byName[name]
}

// FileName returns the canonical file path the module renders to, relative
// to the tree root. Multi-file modules and translator files with other
// names collapse into this one file when the module is rewritten; the
// superseded originals are listed in SourceFiles.
func (m *Module) FileName() string {
	return path.Join(m.Path, path.Base(m.Path)+".go")
}

// ImportPath returns the Go import path for the module given the tree's
// import base.
func (m *Module) ImportPath(importBase string) string {
	if importBase == "" {
		return m.Path
	}
	return importBase + "/" + m.Path
}

// Family returns the top-level directory the module belongs to, or the
// module's own path when it sits directly under the root.
func (m *Module) Family() string {
	if i := strings.IndexByte(m.Path, '/'); i >= 0 {
		return m.Path[:i]
	}
	return m.Path
}

// RemoveType deletes the named type definition from the module.
func (m *Module) RemoveType(name string) {
	if _, exists := m.byName[name]; !exists {
		return
	}
	delete(m.byName, name)
	for i, td := range m.Types {
		if td.Name == name {
			m.Types = append(m.Types[:i], m.Types[i+1:]...)
			break
		}
	}
}

// AddType appends a type definition, replacing any existing definition with
// the same name.
func (m *Module) AddType(td *TypeDefinition) {
	if m.byName == nil {
		m.byName = make(map[string]*TypeDefinition)
	}
	if _, exists := m.byName[td.Name]; exists {
		m.RemoveType(td.Name)
	}
	td.Module = m
	m.byName[td.Name] = td
	m.Types = append(m.Types, td)
}

// SortTypes orders the module's type definitions by name. Used for modules
// assembled by isotools itself (e.g. the hoisted common module) where no
// translator-given declaration order exists.
func (m *Module) SortTypes() {
	sort.Slice(m.Types, func(i, j int) bool { return m.Types[i].Name < m.Types[j].Name })
}

func (m *Module) reindex() {
	m.byName = make(map[string]*TypeDefinition, len(m.Types))
	for _, td := range m.Types {
		td.Module = m
		m.byName[td.Name] = td
	}
}
