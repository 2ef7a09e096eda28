package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/openpayments/isotools/parser"
	"github.com/openpayments/isotools/unifier"
)

type unifyInput struct {
	Root             string   `json:"root"                         jsonschema:"Path to the generated module tree root"`
	ImportBase       string   `json:"import_base,omitempty"        jsonschema:"Module import base; detected from go.mod when empty"`
	Subtrees         []string `json:"subtrees,omitempty"           jsonschema:"Top-level directories to restrict deduplication to"`
	Placement        string   `json:"placement,omitempty"          jsonschema:"Canonical placement: colocated or hoisted"`
	CommonModule     string   `json:"common_module,omitempty"      jsonschema:"Shared module path for hoisted placement"`
	DropUnreferenced bool     `json:"drop_unreferenced,omitempty"  jsonschema:"Also drop unexported helpers nothing references after merging"`
}

type unifyGroup struct {
	Canonical   string   `json:"canonical"`
	Occurrences int      `json:"occurrences"`
	Members     []string `json:"members"`
}

type unifyExclusion struct {
	Definition string `json:"definition"`
	Reason     string `json:"reason"`
	Ref        string `json:"ref,omitempty"`
}

type unifyOutput struct {
	Modules            int              `json:"modules"`
	DistinctShapes     int              `json:"distinct_shapes"`
	RemovedDefinitions int              `json:"removed_definitions"`
	Groups             []unifyGroup     `json:"groups,omitempty"`
	Exclusions         []unifyExclusion `json:"exclusions,omitempty"`
	Warnings           []string         `json:"warnings,omitempty"`
}

func handleUnify(_ context.Context, _ *mcp.CallToolRequest, input unifyInput) (*mcp.CallToolResult, unifyOutput, error) {
	tree, err := parseInputTree(input.Root, input.ImportBase)
	if err != nil {
		return errResult(err), unifyOutput{}, nil
	}

	cfg := unifier.DefaultConfig()
	cfg.Subtrees = input.Subtrees
	if input.Placement != "" {
		cfg.Placement = unifier.PlacementMode(input.Placement)
	}
	if input.CommonModule != "" {
		cfg.CommonModule = input.CommonModule
	}
	cfg.DropUnreferenced = input.DropUnreferenced

	// The tree is mutated in memory only; nothing is written back.
	result, err := unifier.Unify(tree, cfg)
	if err != nil {
		return errResult(err), unifyOutput{}, nil
	}

	output := unifyOutput{
		Modules:            len(tree.Modules),
		DistinctShapes:     result.DistinctShapes,
		RemovedDefinitions: result.RemovedDefinitions,
		Warnings:           result.Warnings.Strings(),
	}
	for _, g := range result.Groups {
		members := make([]string, 0, len(g.Members))
		for _, m := range g.Members {
			members = append(members, m.String())
		}
		output.Groups = append(output.Groups, unifyGroup{
			Canonical:   g.Canonical.String(),
			Occurrences: len(g.Members),
			Members:     members,
		})
	}
	for _, e := range result.Exclusions {
		output.Exclusions = append(output.Exclusions, unifyExclusion{
			Definition: e.Module + "." + e.TypeName,
			Reason:     string(e.Reason),
			Ref:        e.Ref,
		})
	}
	return nil, output, nil
}

// parseInputTree parses the generated tree at root for inspection tools.
func parseInputTree(root, importBase string) (*parser.Tree, error) {
	var opts []parser.Option
	if importBase != "" {
		opts = append(opts, parser.WithImportBase(importBase))
	}
	return parser.ParseTree(root, opts...)
}
