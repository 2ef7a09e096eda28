// Package unifier collapses structurally identical type definitions that the
// external translator emitted redundantly across generated modules.
//
// Unification runs in three stages over an in-memory parser.Tree:
//
//  1. Signature extraction: every type definition gets a structural signature,
//     a digest of its field names, resolved field types, serialization
//     aliases, and validation constraints, in declaration order. Field types
//     that point at other generated types resolve recursively to their own
//     signatures, so comparison is structural rather than nominal.
//     Self-referential shapes and definitions with unresolvable references
//     are excluded from deduplication and kept as-is.
//  2. Duplicate resolution: definitions sharing a signature form a
//     DuplicateGroup. Each group of size two or more gets one canonical
//     member, chosen by lexicographic (module path, type name) order so
//     repeated runs are idempotent. The output is a RewriteMap covering
//     every member.
//  3. Rewriting: every reference to a non-canonical member is redirected to
//     the canonical location, then the redundant definitions are deleted.
//     Rewriting is exhaustive before any deletion, and a dangling-reference
//     check runs before Unify returns.
//
// Placement of canonical definitions is configurable: PlacementColocated
// leaves each canonical copy in the module that already owned it, while
// PlacementHoisted moves all canonical copies into one shared common module,
// mirroring the common.rs convention of the original message library.
//
// The unifier mutates only the in-memory tree; writing rewritten modules
// back to disk is the pipeline's job.
package unifier
