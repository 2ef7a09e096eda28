// Package assembler derives the namespace hierarchy of a unified message
// tree and emits its manifests.
//
// The assembled graph is a rooted, acyclic containment tree: directory
// nodes own child directories and leaf modules, and every leaf is reachable
// from the root by exactly one path. Containment is a separate relation
// from the cross-module type references the unifier rewrites; a manifest
// never reaches outside its own subtree.
//
// For each directory the assembler produces a manifest.yaml naming the
// directory's children in sorted order, and a generated doc.go so the
// directory is a documented Go package. Output is deterministic: repeated
// runs over an unchanged tree produce byte-identical manifests.
package assembler
