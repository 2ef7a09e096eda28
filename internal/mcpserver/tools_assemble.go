package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/openpayments/isotools/assembler"
)

type assembleInput struct {
	Root       string `json:"root"                   jsonschema:"Path to the generated module tree root"`
	ImportBase string `json:"import_base,omitempty"  jsonschema:"Module import base; detected from go.mod when empty"`
}

type assembleManifest struct {
	Path        string   `json:"path"`
	Directories []string `json:"directories,omitempty"`
	Modules     []string `json:"modules,omitempty"`
}

type assembleOutput struct {
	Modules     int                `json:"modules"`
	Directories int                `json:"directories"`
	Manifests   []assembleManifest `json:"manifests"`
}

func handleAssemble(_ context.Context, _ *mcp.CallToolRequest, input assembleInput) (*mcp.CallToolResult, assembleOutput, error) {
	tree, err := parseInputTree(input.Root, input.ImportBase)
	if err != nil {
		return errResult(err), assembleOutput{}, nil
	}

	graph, err := assembler.Assemble(tree)
	if err != nil {
		return errResult(err), assembleOutput{}, nil
	}

	output := assembleOutput{
		Modules:     len(graph.Modules()),
		Directories: len(graph.Directories()),
	}
	for _, m := range graph.Manifests() {
		output.Manifests = append(output.Manifests, assembleManifest{
			Path:        m.Path,
			Directories: m.Directories,
			Modules:     m.Modules,
		})
	}
	return nil, output, nil
}
