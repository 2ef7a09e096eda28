// Package mcpserver implements an MCP (Model Context Protocol) server
// that exposes isotools capabilities as MCP tools over stdio.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/openpayments/isotools"
)

const serverInstructions = `isotools MCP server: unifies duplicated type shapes across generated ISO 20022 message modules, assembles directory manifests, and synthesizes per-family document envelopes.

Tools operate on a generated tree rooted at a local directory path. The unify, assemble, and envelope tools are read-only inspections: they parse the tree and report what a run would do without writing anything. The run tool executes the full batch pipeline and commits output; commits are all-or-nothing and happen only after the post-rewrite consistency checks pass.`

// Run starts the MCP server over stdio and blocks until the client
// disconnects or the context is cancelled.
func Run(ctx context.Context) error {
	server := mcp.NewServer(
		&mcp.Implementation{Name: "isotools", Version: isotools.Version()},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)
	registerAllTools(server)
	return server.Run(ctx, &mcp.StdioTransport{})
}

func registerAllTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "unify",
		Description: "Analyze a generated module tree for structurally duplicated type definitions. Returns the duplicate groups that a run would merge, ranked by occurrence count, plus definitions excluded from deduplication (recursive shapes, unresolvable references). Read-only: nothing is rewritten.",
	}, handleUnify)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "assemble",
		Description: "Derive the namespace hierarchy of a generated module tree. Returns one manifest per directory naming its child directories and leaf modules in sorted order. Read-only: no manifests are written.",
	}, handleAssemble)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "envelope",
		Description: "Discover root document types per message family and check discriminant uniqueness. Families default to top-level directories or can be grouped explicitly (e.g. incoming/outgoing). Returns each family's variants and any discriminant collisions. Read-only: no envelope code is generated.",
	}, handleEnvelope)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "run",
		Description: "Execute the full unification pipeline over a generated module tree: deduplicate type definitions, rewrite references, emit directory manifests, and synthesize per-family document envelopes. Output is committed to the tree (or a separate output directory) only after all consistency checks pass. Returns the run report.",
	}, handleRun)
}

// errResult creates an MCP error result from an error.
func errResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
	}
}
