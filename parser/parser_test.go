package parser

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	// Suppress expected warnings from deliberately odd fixtures.
	parserLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
	os.Exit(m.Run())
}

// writeModule writes one generated module file under root.
func writeModule(t *testing.T, root, modPath, src string) {
	t.Helper()
	dir := filepath.Join(root, filepath.FromSlash(modPath))
	require.NoError(t, os.MkdirAll(dir, 0o755))
	name := filepath.Base(dir) + ".go"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644))
}

const pacsModule = `package pacs_008_001_08

// Max35Text ...
// isotools:validate min=1,max=35
type Max35Text string

// ActiveCurrencyCode ...
// isotools:validate pattern=[A-Z]{3}
type ActiveCurrencyCode string

// ActiveCurrencyAndAmount ...
type ActiveCurrencyAndAmount struct {
	Ccy   ActiveCurrencyCode ` + "`xml:\"Ccy,attr\" json:\"ccy\" validate:\"required\"`" + `
	Value float64            ` + "`xml:\",chardata\" json:\"value\" validate:\"required\"`" + `
}

// AddressType2Code ...
type AddressType2Code string

const (
	AddressType2CodeAddr AddressType2Code = "ADDR"
	AddressType2CodePbox AddressType2Code = "PBOX"
)

// FIToFICustomerCreditTransferV08 ...
type FIToFICustomerCreditTransferV08 struct {
	XMLName xml.Name                 ` + "`xml:\"FIToFICstmrCdtTrf\"`" + `
	MsgId   Max35Text                ` + "`xml:\"MsgId\" json:\"msg_id\" validate:\"required\"`" + `
	Sttlm   *ActiveCurrencyAndAmount ` + "`xml:\"Sttlm,omitempty\" json:\"sttlm,omitempty\"`" + `
	Refs    []Max35Text              ` + "`xml:\"Refs,omitempty\" json:\"refs,omitempty\"`" + `
}
`

func TestParseTree_SingleModule(t *testing.T) {
	root := t.TempDir()
	writeModule(t, root, "pacs/pacs_008_001_08", pacsModule)

	tree, err := ParseTree(root, WithImportBase("example.com/messages"))
	require.NoError(t, err)
	require.Len(t, tree.Modules, 1)

	mod := tree.Module("pacs/pacs_008_001_08")
	require.NotNil(t, mod)
	assert.Equal(t, "pacs_008_001_08", mod.Package)
	assert.Equal(t, "pacs", mod.Family())
	assert.Equal(t, "pacs/pacs_008_001_08/pacs_008_001_08.go", mod.FileName())
	assert.Equal(t, []string{"pacs/pacs_008_001_08/pacs_008_001_08.go"}, mod.SourceFiles)
	require.Len(t, mod.Types, 5)

	wrapper := mod.Type("Max35Text")
	require.NotNil(t, wrapper)
	assert.Equal(t, KindWrapper, wrapper.Kind)
	assert.Equal(t, "string", wrapper.Underlying)
	assert.Equal(t, "min=1,max=35", wrapper.Constraint)
	assert.Equal(t, "Max35Text ...", wrapper.Doc)

	enum := mod.Type("AddressType2Code")
	require.NotNil(t, enum)
	assert.Equal(t, KindEnum, enum.Kind)
	require.Len(t, enum.Values, 2)
	assert.Equal(t, EnumValue{Name: "AddressType2CodeAddr", Value: "ADDR"}, enum.Values[0])

	record := mod.Type("ActiveCurrencyAndAmount")
	require.NotNil(t, record)
	assert.Equal(t, KindRecord, record.Kind)
	require.Len(t, record.Fields, 2)
	assert.Equal(t, "Ccy", record.Fields[0].Name)
	assert.Equal(t, "Ccy,attr", record.Fields[0].XMLTag)
	assert.Equal(t, "ccy", record.Fields[0].JSONTag)
	assert.Equal(t, "required", record.Fields[0].Validate)
	assert.Equal(t, "ActiveCurrencyCode", record.Fields[0].Type.Name)
	assert.True(t, record.Fields[1].Type.IsBuiltin())

	doc := mod.Type("FIToFICustomerCreditTransferV08")
	require.NotNil(t, doc)
	assert.True(t, doc.IsRootDocument())
	assert.Equal(t, "FIToFICstmrCdtTrf", doc.RootElement)
	// The XMLName field itself is captured as metadata, not as a field.
	require.Len(t, doc.Fields, 3)
	assert.True(t, doc.Fields[1].Type.Pointer)
	assert.True(t, doc.Fields[2].Type.Slice)
}

func TestParseTree_MultiFileModule(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "pacs", "pacs_002_001_10")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "header.go"), []byte(`package pacs_002_001_10

// GroupHeader ...
type GroupHeader struct {
	MsgId Max35Text `+"`xml:\"MsgId\" json:\"msg_id\" validate:\"required\"`"+`
}
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "codes.go"), []byte(`package pacs_002_001_10

// Max35Text ...
type Max35Text string
`), 0o644))

	tree, err := ParseTree(root, WithImportBase("example.com/messages"))
	require.NoError(t, err)

	mod := tree.Module("pacs/pacs_002_001_10")
	require.NotNil(t, mod)
	require.Len(t, mod.Types, 2)
	// Files parse in directory order; neither carries the canonical name.
	assert.Equal(t, []string{
		"pacs/pacs_002_001_10/codes.go",
		"pacs/pacs_002_001_10/header.go",
	}, mod.SourceFiles)
	assert.Equal(t, "pacs/pacs_002_001_10/pacs_002_001_10.go", mod.FileName())
}

func TestParseTree_CrossModuleReference(t *testing.T) {
	root := t.TempDir()
	writeModule(t, root, "common", `package common

// Max35Text ...
type Max35Text string
`)
	writeModule(t, root, "pacs/pacs_002_001_10", `package pacs_002_001_10

import "example.com/messages/common"

// GroupHeader ...
type GroupHeader struct {
	MsgId common.Max35Text `+"`xml:\"MsgId\" json:\"msg_id\" validate:\"required\"`"+`
}
`)

	tree, err := ParseTree(root, WithImportBase("example.com/messages"))
	require.NoError(t, err)

	mod := tree.Module("pacs/pacs_002_001_10")
	require.NotNil(t, mod)
	gh := mod.Type("GroupHeader")
	require.NotNil(t, gh)
	ref := gh.Fields[0].Type
	assert.Equal(t, "common", ref.Module)
	assert.Equal(t, "Max35Text", ref.Name)
	assert.False(t, ref.External)

	resolved := tree.Lookup(mod, ref)
	require.NotNil(t, resolved)
	assert.Equal(t, "common.Max35Text", resolved.QualifiedName())
}

func TestParseTree_ExternalReferenceIsTerminal(t *testing.T) {
	root := t.TempDir()
	writeModule(t, root, "head/head_001_001_02", `package head_001_001_02

import "time"

// Header ...
type Header struct {
	CreDt time.Time `+"`xml:\"CreDt\" json:\"cre_dt\"`"+`
}
`)

	tree, err := ParseTree(root, WithImportBase("example.com/messages"))
	require.NoError(t, err)

	ref := tree.Module("head/head_001_001_02").Type("Header").Fields[0].Type
	assert.True(t, ref.External)
	assert.True(t, ref.Terminal())
	assert.Equal(t, "time.Time", ref.Name)
	assert.Nil(t, tree.Lookup(tree.Module("head/head_001_001_02"), ref))
}

func TestParseTree_SkipsGeneratedOutput(t *testing.T) {
	root := t.TempDir()
	writeModule(t, root, "pacs/pacs_008_001_08", pacsModule)
	dir := filepath.Join(root, "pacs")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "document.go"),
		[]byte("// Code generated by isotools. DO NOT EDIT.\npackage pacs\n"), 0o644))

	tree, err := ParseTree(root, WithImportBase("example.com/messages"))
	require.NoError(t, err)
	assert.Nil(t, tree.Module("pacs"), "synthesized files must not become modules")
	assert.NotNil(t, tree.Module("pacs/pacs_008_001_08"))
}

func TestParseTree_EmptyTree(t *testing.T) {
	tree, err := ParseTree(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, tree.Modules)
	assert.Equal(t, 0, tree.TypeCount())
}

func TestParseTree_InvalidSourceIsFatal(t *testing.T) {
	root := t.TempDir()
	writeModule(t, root, "pacs/pacs_008_001_08", "package pacs_008_001_08\n\ntype Broken struct {")

	_, err := ParseTree(root)
	require.Error(t, err)
}

func TestParseTree_DeterministicModuleOrder(t *testing.T) {
	root := t.TempDir()
	writeModule(t, root, "pacs/pacs_008_001_08", "package pacs_008_001_08\n\n// A ...\ntype A string\n")
	writeModule(t, root, "camt/camt_054_001_08", "package camt_054_001_08\n\n// B ...\ntype B string\n")
	writeModule(t, root, "admi/admi_002_001_01", "package admi_002_001_01\n\n// C ...\ntype C string\n")

	tree, err := ParseTree(root)
	require.NoError(t, err)
	require.Len(t, tree.Modules, 3)
	assert.Equal(t, "admi/admi_002_001_01", tree.Modules[0].Path)
	assert.Equal(t, "camt/camt_054_001_08", tree.Modules[1].Path)
	assert.Equal(t, "pacs/pacs_008_001_08", tree.Modules[2].Path)
}

func TestTree_AddRemoveModule(t *testing.T) {
	tree := NewTree("", "example.com/messages", nil)
	mod := &Module{Path: "common", Package: "common"}
	require.NoError(t, tree.AddModule(mod))
	assert.Error(t, tree.AddModule(&Module{Path: "common"}), "duplicate path must be rejected")

	tree.RemoveModule("common")
	assert.Nil(t, tree.Module("common"))
	assert.Empty(t, tree.Modules)
}
