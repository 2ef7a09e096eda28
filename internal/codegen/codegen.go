// Package codegen provides shared helpers for emitting Go source files:
// the generated-code header and gofmt/goimports formatting.
package codegen

import (
	"fmt"

	"golang.org/x/tools/imports"
)

// Header is the first line of every file isotools synthesizes. The parser
// uses it to recognize and skip isotools output on re-parse, which keeps
// repeated pipeline runs idempotent.
const Header = "// Code generated by isotools. DO NOT EDIT.\n"

// ModuleHeader is the first line of rewritten module files. It deliberately
// avoids the Header marker: rewritten modules are real inputs on re-parse,
// only synthesized companion files (manifests, envelope documents) are
// skipped.
const ModuleHeader = "// Code generated from ISO 20022 schemas; unified by isotools. DO NOT EDIT.\n"

// Format applies goimports layout to generated source: gofmt formatting
// plus sorted, grouped import blocks. Callers emit their import blocks
// explicitly, so formatting never consults the build environment to add or
// resolve imports. The filename is used for error reporting.
func Format(filename string, src []byte) ([]byte, error) {
	formatted, err := imports.Process(filename, src, &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("codegen: formatting %s: %w", filename, err)
	}
	return formatted, nil
}
