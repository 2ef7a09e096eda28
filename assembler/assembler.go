package assembler

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/openpayments/isotools/isoerrors"
	"github.com/openpayments/isotools/parser"
)

// assemblerLogger is used for progress reporting in assembler functions.
// Tests can replace this with a discard logger.
var assemblerLogger = slog.Default()

// Node is one node of the assembled namespace tree: a directory that owns
// children, or a leaf module that owns none.
type Node struct {
	// Name is the node's own path element. Empty for the root.
	Name string
	// Path is the slash-separated tree-relative path. Empty for the root.
	Path string
	// Module is the generated module backing a leaf node, nil for
	// directories.
	Module *parser.Module
	// Children holds child nodes in name order. Always nil for leaves.
	Children []*Node
}

// IsLeaf reports whether the node is a leaf module.
func (n *Node) IsLeaf() bool {
	return n.Module != nil
}

// Child returns the named child node, or nil.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Graph is the assembled containment tree of one module tree.
type Graph struct {
	// Root is the tree root. Never a leaf.
	Root *Node

	byPath map[string]*Node
	leaves int
}

// Assemble derives the namespace graph from the tree's module layout.
//
// Empty branches cannot occur in the result: directory nodes exist only on
// the path from the root to some leaf module. A tree with no modules at all
// is an EmptyInputError.
func Assemble(tree *parser.Tree) (*Graph, error) {
	if len(tree.Modules) == 0 {
		return nil, &isoerrors.EmptyInputError{}
	}

	g := &Graph{
		Root:   &Node{},
		byPath: map[string]*Node{},
	}
	g.byPath[""] = g.Root

	for _, mod := range tree.Modules {
		if err := g.insert(mod); err != nil {
			return nil, err
		}
	}
	for _, n := range g.byPath {
		sort.Slice(n.Children, func(i, j int) bool { return n.Children[i].Name < n.Children[j].Name })
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}

	assemblerLogger.Info("assembled module graph",
		"modules", g.leaves,
		"directories", len(g.byPath)-g.leaves)
	return g, nil
}

// insert places one module at its path, creating directory nodes along the
// way.
func (g *Graph) insert(mod *parser.Module) error {
	parent := g.Root
	segments := strings.Split(mod.Path, "/")
	for i, seg := range segments {
		childPath := strings.Join(segments[:i+1], "/")
		last := i == len(segments)-1

		node := g.byPath[childPath]
		if node == nil {
			node = &Node{Name: seg, Path: childPath}
			parent.Children = append(parent.Children, node)
			g.byPath[childPath] = node
		}

		if last {
			if len(node.Children) > 0 {
				return fmt.Errorf("assembler: %q is both a module and a parent directory", mod.Path)
			}
			node.Module = mod
			g.leaves++
		} else if node.IsLeaf() {
			return fmt.Errorf("assembler: %q is both a module and a parent directory", node.Path)
		}
		parent = node
	}
	return nil
}

// Node returns the node at the given tree-relative path, or nil. The empty
// path is the root.
func (g *Graph) Node(path string) *Node {
	return g.byPath[path]
}

// Directories returns every directory node, root included, sorted by path.
func (g *Graph) Directories() []*Node {
	var dirs []*Node
	for _, n := range g.byPath {
		if !n.IsLeaf() {
			dirs = append(dirs, n)
		}
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Path < dirs[j].Path })
	return dirs
}

// Modules returns every leaf node, sorted by path.
func (g *Graph) Modules() []*Node {
	var leaves []*Node
	for _, n := range g.byPath {
		if n.IsLeaf() {
			leaves = append(leaves, n)
		}
	}
	sort.Slice(leaves, func(i, j int) bool { return leaves[i].Path < leaves[j].Path })
	return leaves
}

// Validate checks the containment invariants: the graph is rooted and
// acyclic, every node is reachable from the root by exactly one path, and
// every child lives directly under its parent's path.
func (g *Graph) Validate() error {
	visited := make(map[string]bool, len(g.byPath))
	var walk func(n *Node) error
	walk = func(n *Node) error {
		if visited[n.Path] {
			return fmt.Errorf("assembler: node %q reachable by more than one path", n.Path)
		}
		visited[n.Path] = true

		if n.IsLeaf() && len(n.Children) > 0 {
			return fmt.Errorf("assembler: leaf %q owns children", n.Path)
		}
		for _, c := range n.Children {
			wantPrefix := ""
			if n.Path != "" {
				wantPrefix = n.Path + "/"
			}
			if c.Path != wantPrefix+c.Name {
				return fmt.Errorf("assembler: node %q escapes its parent subtree %q", c.Path, n.Path)
			}
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(g.Root); err != nil {
		return err
	}

	if len(visited) != len(g.byPath) {
		return fmt.Errorf("assembler: %d of %d nodes unreachable from root",
			len(g.byPath)-len(visited), len(g.byPath))
	}
	return nil
}
