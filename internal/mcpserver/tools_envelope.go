package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/openpayments/isotools/envelope"
)

type envelopeInput struct {
	Root       string              `json:"root"                   jsonschema:"Path to the generated module tree root"`
	ImportBase string              `json:"import_base,omitempty"  jsonschema:"Module import base; detected from go.mod when empty"`
	Families   map[string][]string `json:"families,omitempty"     jsonschema:"Explicit family grouping: family name to top-level directories"`
}

type envelopeVariant struct {
	Name         string `json:"name"`
	Discriminant string `json:"discriminant"`
	Type         string `json:"type"`
}

type envelopeFamily struct {
	Family   string            `json:"family"`
	Dir      string            `json:"dir"`
	Package  string            `json:"package"`
	Variants []envelopeVariant `json:"variants"`
}

type envelopeFailure struct {
	Family string `json:"family"`
	Error  string `json:"error"`
}

type envelopeOutput struct {
	Families []envelopeFamily  `json:"families,omitempty"`
	Failures []envelopeFailure `json:"failures,omitempty"`
}

func handleEnvelope(_ context.Context, _ *mcp.CallToolRequest, input envelopeInput) (*mcp.CallToolResult, envelopeOutput, error) {
	tree, err := parseInputTree(input.Root, input.ImportBase)
	if err != nil {
		return errResult(err), envelopeOutput{}, nil
	}

	result, err := envelope.Synthesize(tree, envelope.Config{Families: input.Families})
	if err != nil {
		return errResult(err), envelopeOutput{}, nil
	}

	var output envelopeOutput
	for _, f := range result.Families {
		variants := make([]envelopeVariant, 0, len(f.Variants))
		for _, v := range f.Variants {
			variants = append(variants, envelopeVariant{
				Name:         v.Name,
				Discriminant: v.Discriminant,
				Type:         v.Module + "." + v.TypeName,
			})
		}
		output.Families = append(output.Families, envelopeFamily{
			Family:   f.Name,
			Dir:      f.Dir,
			Package:  f.Package,
			Variants: variants,
		})
	}
	for _, f := range result.Failures {
		output.Failures = append(output.Failures, envelopeFailure{
			Family: f.Family,
			Error:  f.Err.Error(),
		})
	}
	return nil, output, nil
}
