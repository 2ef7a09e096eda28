// Package parser loads a tree of generated ISO 20022 message modules into a
// structural model.
//
// The external XSD-to-struct generator emits one Go package per schema
// document, one directory per package. This package reads those sources with
// go/parser and extracts, for every top-level type definition, its name, kind
// (record, enumeration, or primitive wrapper), ordered field list with
// serialization aliases and validation constraints, and the cross-module
// references it makes. The resulting Tree is the input to the unifier,
// assembler, and envelope packages.
//
// Parsing never mutates the source tree. Files previously synthesized by
// isotools itself (manifests, envelope documents) carry a generated-code
// header and are skipped, which keeps repeated runs idempotent.
package parser
