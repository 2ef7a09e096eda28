// Package isotools provides tools for assembling a coherent, strongly-typed
// ISO 20022 message library from independently generated schema modules.
//
// An external XSD-to-struct generator translates each schema document into one
// Go package in isolation. Because every invocation runs on a single schema
// file, shared type definitions (currency codes, identifier types, amount
// wrappers, address records) are re-emitted verbatim into every module that
// needs them. isotools is the post-generation pipeline that turns that
// redundant forest into a usable library.
//
// # Overview
//
// The library consists of five primary packages:
//
//   - parser: Load a generated module tree into a structural model
//   - unifier: Detect structurally identical definitions, choose canonical
//     copies, and rewrite every reference to the canonical location
//   - assembler: Derive deterministic per-directory manifests for the
//     deduplicated tree
//   - envelope: Synthesize one discriminated-union Document type per message
//     family for format-agnostic parse dispatch
//   - pipeline: Run the full unify, assemble, and envelope sequence with
//     all-or-nothing commit semantics
//
// # Quick Start
//
// Run the full pipeline over a generated tree:
//
//	report, err := pipeline.Run(context.Background(), pipeline.Config{Root: "messages"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("merged %d duplicate groups\n", len(report.Groups))
//
// Or use the isotools CLI:
//
//	isotools run -o out messages
//	isotools unify --placement hoisted messages
//	isotools envelope --family incoming=pacs --family outgoing=camt messages
package isotools
