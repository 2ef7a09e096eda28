package pipeline

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v4"
)

func TestMain(m *testing.M) {
	pipelineLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
	os.Exit(m.Run())
}

const pacs008Source = `// Code generated by xsd2go. DO NOT EDIT.

package pacs_008_001_08

import "encoding/xml"

// Document ...
type Document struct {
	XMLName xml.Name ` + "`" + `xml:"urn:iso:std:iso:20022:tech:xsd:pacs.008.001.08 FIToFICstmrCdtTrf"` + "`" + `
	GrpHdr  GroupHeader ` + "`" + `xml:"GrpHdr" json:"grp_hdr" validate:"required"` + "`" + `
}

// GroupHeader ...
type GroupHeader struct {
	MsgId Max35Text ` + "`" + `xml:"MsgId" json:"msg_id" validate:"required"` + "`" + `
}

// Max35Text ...
// isotools:validate min=1,max=35
type Max35Text string
`

const pacs002Source = `// Code generated by xsd2go. DO NOT EDIT.

package pacs_002_001_10

import "encoding/xml"

// Document ...
type Document struct {
	XMLName xml.Name ` + "`" + `xml:"urn:iso:std:iso:20022:tech:xsd:pacs.002.001.10 FIToFIPmtStsRpt"` + "`" + `
	GrpHdr  GroupHeader ` + "`" + `xml:"GrpHdr" json:"grp_hdr" validate:"required"` + "`" + `
}

// GroupHeader ...
type GroupHeader struct {
	MsgId Max35Text ` + "`" + `xml:"MsgId" json:"msg_id" validate:"required"` + "`" + `
}

// Max35Text ...
// isotools:validate min=1,max=35
type Max35Text string
`

// writeGeneratedTree lays out a small translator-style tree with duplicated
// shapes across two pacs modules.
func writeGeneratedTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	write := func(rel, content string) {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	write("go.mod", "module example.com/messages\n\ngo 1.24\n")
	write("pacs/pacs_008_001_08/pacs_008_001_08.go", pacs008Source)
	write("pacs/pacs_002_001_10/pacs_002_001_10.go", pacs002Source)
	return root
}

func readTreeFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func TestRun(t *testing.T) {
	root := writeGeneratedTree(t)

	report, err := Run(context.Background(), Config{Root: root})
	require.NoError(t, err)

	// Max35Text and GroupHeader are each defined twice; both merge into
	// the lexicographically first module.
	require.Len(t, report.Groups, 2)
	for _, g := range report.Groups {
		assert.Equal(t, 2, g.Occurrences)
		assert.True(t, strings.HasPrefix(g.Canonical, "pacs/pacs_002_001_10."), "canonical %s", g.Canonical)
	}
	assert.Equal(t, 2, report.RemovedDefinitions)
	assert.Equal(t, 2, report.Modules)

	// The non-canonical module now imports the canonical one.
	rewritten := readTreeFile(t, root, "pacs/pacs_008_001_08/pacs_008_001_08.go")
	assert.Contains(t, rewritten, `"example.com/messages/pacs/pacs_002_001_10"`)
	assert.Contains(t, rewritten, "pacs_002_001_10.GroupHeader")
	assert.NotContains(t, rewritten, "type Max35Text")

	canonical := readTreeFile(t, root, "pacs/pacs_002_001_10/pacs_002_001_10.go")
	assert.Contains(t, canonical, "type Max35Text string")
	assert.Contains(t, canonical, "// isotools:validate min=1,max=35")

	// Manifests and envelope output exist.
	assert.Contains(t, readTreeFile(t, root, "manifest.yaml"), "- pacs")
	assert.Contains(t, readTreeFile(t, root, "pacs/manifest.yaml"), "- pacs_002_001_10")
	assert.Contains(t, readTreeFile(t, root, "pacs/doc.go"), "package pacs")

	document := readTreeFile(t, root, "pacs/document.go")
	assert.Contains(t, document, "FIToFICstmrCdtTrf *pacs_008_001_08.Document")
	assert.Contains(t, document, "func ParseDocument(data []byte) (*Document, error)")

	require.Len(t, report.Families, 1)
	assert.Equal(t, "pacs", report.Families[0].Family)
	assert.Equal(t, 2, report.Families[0].Variants)
	assert.Empty(t, report.Families[0].Error)
}

func TestRun_Idempotent(t *testing.T) {
	root := writeGeneratedTree(t)

	_, err := Run(context.Background(), Config{Root: root})
	require.NoError(t, err)

	snapshot := map[string]string{}
	for _, rel := range []string{
		"pacs/pacs_008_001_08/pacs_008_001_08.go",
		"pacs/pacs_002_001_10/pacs_002_001_10.go",
		"manifest.yaml",
		"pacs/manifest.yaml",
		"pacs/doc.go",
		"pacs/document.go",
	} {
		snapshot[rel] = readTreeFile(t, root, rel)
	}

	second, err := Run(context.Background(), Config{Root: root})
	require.NoError(t, err)
	assert.Empty(t, second.Groups, "second run has nothing left to merge")
	assert.Zero(t, second.RemovedDefinitions)

	for rel, before := range snapshot {
		assert.Equal(t, before, readTreeFile(t, root, rel), "file %s changed on second run", rel)
	}
}

func TestRun_CollapsesRenamedModuleFiles(t *testing.T) {
	root := t.TempDir()
	write := func(rel, content string) {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	write("go.mod", "module example.com/messages\n\ngo 1.24\n")
	// Translator output split across files that do not carry the module
	// directory's name. A run collapses them into the canonical file.
	write("pacs/pacs_008_001_08/types.go", pacs008Source)
	write("pacs/pacs_002_001_10/header.go", `// Code generated by xsd2go. DO NOT EDIT.

package pacs_002_001_10

import "encoding/xml"

// Document ...
type Document struct {
	XMLName xml.Name `+"`"+`xml:"urn:iso:std:iso:20022:tech:xsd:pacs.002.001.10 FIToFIPmtStsRpt"`+"`"+`
	GrpHdr  GroupHeader `+"`"+`xml:"GrpHdr" json:"grp_hdr" validate:"required"`+"`"+`
}

// GroupHeader ...
type GroupHeader struct {
	MsgId Max35Text `+"`"+`xml:"MsgId" json:"msg_id" validate:"required"`+"`"+`
}
`)
	write("pacs/pacs_002_001_10/codes.go", `// Code generated by xsd2go. DO NOT EDIT.

package pacs_002_001_10

// Max35Text ...
// isotools:validate min=1,max=35
type Max35Text string
`)

	_, err := Run(context.Background(), Config{Root: root})
	require.NoError(t, err)

	for _, rel := range []string{
		"pacs/pacs_008_001_08/types.go",
		"pacs/pacs_002_001_10/header.go",
		"pacs/pacs_002_001_10/codes.go",
	} {
		_, statErr := os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
		assert.True(t, os.IsNotExist(statErr), "superseded file %s survived the run", rel)
	}

	canonical := readTreeFile(t, root, "pacs/pacs_002_001_10/pacs_002_001_10.go")
	assert.Contains(t, canonical, "type Max35Text string")
	assert.Contains(t, canonical, "type GroupHeader struct")

	// With the originals gone the run can repeat in place.
	second, err := Run(context.Background(), Config{Root: root})
	require.NoError(t, err)
	assert.Empty(t, second.Groups)
	assert.Equal(t, canonical, readTreeFile(t, root, "pacs/pacs_002_001_10/pacs_002_001_10.go"))
}

func TestRun_SeparateOutput(t *testing.T) {
	root := writeGeneratedTree(t)
	out := t.TempDir()

	_, err := Run(context.Background(), Config{Root: root, Output: out})
	require.NoError(t, err)

	// The input tree keeps its original translator output.
	original := readTreeFile(t, root, "pacs/pacs_008_001_08/pacs_008_001_08.go")
	assert.Contains(t, original, "type Max35Text string")

	rewritten := readTreeFile(t, out, "pacs/pacs_008_001_08/pacs_008_001_08.go")
	assert.NotContains(t, rewritten, "type Max35Text")
}

func TestRun_Canceled(t *testing.T) {
	root := writeGeneratedTree(t)
	out := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, Config{Root: root, Output: out})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries, "a canceled run commits nothing")
}

func TestRun_InvalidConfig(t *testing.T) {
	_, err := Run(context.Background(), Config{})
	require.Error(t, err)

	_, err = Run(context.Background(), Config{Root: "/tmp", Placement: "scattered"})
	require.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
root: ./messages
placement: hoisted
common_module: common
subtrees:
  - pacs
  - camt
families:
  incoming:
    - pacs
drop_unreferenced: true
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "./messages", cfg.Root)
	assert.Equal(t, "hoisted", cfg.Placement)
	assert.Equal(t, "common", cfg.CommonModule)
	assert.Equal(t, []string{"pacs", "camt"}, cfg.Subtrees)
	assert.Equal(t, map[string][]string{"incoming": {"pacs"}}, cfg.Families)
	assert.True(t, cfg.DropUnreferenced)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

func TestReportEncoding(t *testing.T) {
	root := writeGeneratedTree(t)
	report, err := Run(context.Background(), Config{Root: root})
	require.NoError(t, err)

	yamlBytes, err := report.EncodeYAML()
	require.NoError(t, err)
	var decoded Report
	require.NoError(t, yaml.Unmarshal(yamlBytes, &decoded))
	assert.Equal(t, report.Groups, decoded.Groups)

	jsonBytes, err := report.EncodeJSON()
	require.NoError(t, err)
	assert.Contains(t, string(jsonBytes), `"distinct_shapes"`)
}
