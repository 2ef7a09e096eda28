package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/openpayments/isotools/pipeline"
)

type runInput struct {
	Root             string              `json:"root"                         jsonschema:"Path to the generated module tree root"`
	Output           string              `json:"output,omitempty"             jsonschema:"Output directory; rewrites the tree in place when empty"`
	ImportBase       string              `json:"import_base,omitempty"        jsonschema:"Module import base; detected from go.mod when empty"`
	Subtrees         []string            `json:"subtrees,omitempty"           jsonschema:"Top-level directories to restrict deduplication to"`
	Placement        string              `json:"placement,omitempty"          jsonschema:"Canonical placement: colocated or hoisted"`
	CommonModule     string              `json:"common_module,omitempty"      jsonschema:"Shared module path for hoisted placement"`
	DropUnreferenced bool                `json:"drop_unreferenced,omitempty"  jsonschema:"Also drop unexported helpers nothing references after merging"`
	Families         map[string][]string `json:"families,omitempty"           jsonschema:"Explicit envelope family grouping: family name to top-level directories"`
	SkipEnvelope     bool                `json:"skip_envelope,omitempty"      jsonschema:"Skip envelope synthesis"`
	SkipManifests    bool                `json:"skip_manifests,omitempty"     jsonschema:"Skip manifest and package doc emission"`
}

func handleRun(ctx context.Context, _ *mcp.CallToolRequest, input runInput) (*mcp.CallToolResult, pipeline.Report, error) {
	cfg := pipeline.Config{
		Root:             input.Root,
		Output:           input.Output,
		ImportBase:       input.ImportBase,
		Subtrees:         input.Subtrees,
		Placement:        input.Placement,
		CommonModule:     input.CommonModule,
		DropUnreferenced: input.DropUnreferenced,
		Families:         input.Families,
		SkipEnvelope:     input.SkipEnvelope,
		SkipManifests:    input.SkipManifests,
	}

	report, err := pipeline.Run(ctx, cfg)
	if err != nil {
		return errResult(err), pipeline.Report{}, nil
	}
	return nil, *report, nil
}
