package assembler

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v4"

	"github.com/openpayments/isotools/isoerrors"
	"github.com/openpayments/isotools/parser"
)

func TestMain(m *testing.M) {
	assemblerLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
	os.Exit(m.Run())
}

func testTree(paths ...string) *parser.Tree {
	var mods []*parser.Module
	for _, p := range paths {
		mods = append(mods, &parser.Module{Path: p, Package: p[strings.LastIndexByte(p, '/')+1:]})
	}
	return parser.NewTree("/work/messages", "example.com/messages", mods)
}

func TestAssemble(t *testing.T) {
	tree := testTree(
		"pacs/pacs_008_001_08",
		"pacs/pacs_002_001_10",
		"camt/camt_054_001_08",
		"common",
	)

	g, err := Assemble(tree)
	require.NoError(t, err)

	root := g.Root
	require.NotNil(t, root)
	assert.False(t, root.IsLeaf())

	var names []string
	for _, c := range root.Children {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"camt", "common", "pacs"}, names, "children are name-sorted")

	assert.True(t, g.Node("common").IsLeaf())
	pacs := g.Node("pacs")
	require.NotNil(t, pacs)
	assert.False(t, pacs.IsLeaf())
	require.NotNil(t, pacs.Child("pacs_008_001_08"))
	assert.True(t, pacs.Child("pacs_008_001_08").IsLeaf())

	assert.Len(t, g.Modules(), 4)
	assert.Len(t, g.Directories(), 3) // root, pacs, camt
}

func TestAssemble_EmptyTree(t *testing.T) {
	_, err := Assemble(testTree())
	require.Error(t, err)
	assert.ErrorIs(t, err, isoerrors.ErrEmptyInput)
}

func TestAssemble_ModuleAsDirectoryConflict(t *testing.T) {
	_, err := Assemble(testTree("pacs", "pacs/pacs_008_001_08"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "both a module and a parent directory")
}

func TestManifests(t *testing.T) {
	tree := testTree(
		"pacs/pacs_008_001_08",
		"pacs/pacs_002_001_10",
		"camt/camt_054_001_08",
		"common",
	)
	g, err := Assemble(tree)
	require.NoError(t, err)

	manifests := g.Manifests()
	require.Len(t, manifests, 3)

	root := manifests[0]
	assert.Equal(t, "", root.Path)
	assert.Equal(t, []string{"camt", "pacs"}, root.Directories)
	assert.Equal(t, []string{"common"}, root.Modules)

	camt := manifests[1]
	assert.Equal(t, "camt", camt.Path)
	assert.Empty(t, camt.Directories)
	assert.Equal(t, []string{"camt_054_001_08"}, camt.Modules)

	pacs := manifests[2]
	assert.Equal(t, "pacs", pacs.Path)
	assert.Equal(t, []string{"pacs_002_001_10", "pacs_008_001_08"}, pacs.Modules,
		"modules are name-sorted regardless of insertion order")
}

func TestEncodeManifest_Deterministic(t *testing.T) {
	m := Manifest{Path: "pacs", Modules: []string{"pacs_002_001_10", "pacs_008_001_08"}}

	first, err := EncodeManifest(m)
	require.NoError(t, err)
	second, err := EncodeManifest(m)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
	assert.True(t, strings.HasPrefix(string(first), "# Code generated by isotools. DO NOT EDIT.\n"))

	var decoded Manifest
	require.NoError(t, yaml.Unmarshal(first, &decoded))
	assert.Equal(t, m, decoded)
}

func TestFiles(t *testing.T) {
	tree := testTree("pacs/pacs_008_001_08", "common")
	g, err := Assemble(tree)
	require.NoError(t, err)

	files, err := g.Files(tree)
	require.NoError(t, err)

	byPath := make(map[string]string)
	for _, f := range files {
		byPath[f.Path] = string(f.Content)
	}
	require.Len(t, byPath, 4)

	rootDoc, ok := byPath["doc.go"]
	require.True(t, ok)
	assert.Contains(t, rootDoc, "// Code generated by isotools. DO NOT EDIT.")
	assert.Contains(t, rootDoc, "package messages")
	assert.Contains(t, rootDoc, "//   - common")

	pacsDoc, ok := byPath["pacs/doc.go"]
	require.True(t, ok)
	assert.Contains(t, pacsDoc, "package pacs")
	assert.Contains(t, pacsDoc, "//   - pacs_008_001_08")

	assert.Contains(t, byPath, "manifest.yaml")
	assert.Contains(t, byPath, "pacs/manifest.yaml")
}

func TestValidate_DetectsEscapedChild(t *testing.T) {
	g, err := Assemble(testTree("pacs/a"))
	require.NoError(t, err)

	// Corrupt the graph directly: relocate a child outside its parent.
	g.Node("pacs").Children[0].Path = "camt/a"
	err = g.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes its parent subtree")
}
