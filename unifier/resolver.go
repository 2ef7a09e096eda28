package unifier

import (
	"fmt"
	"sort"

	"github.com/openpayments/isotools/parser"
)

// TypeKey identifies one type definition by module path and name. Keys,
// not live pointers, flow through the RewriteMap so rewriting stays a pure
// data transformation.
type TypeKey struct {
	Module string
	Name   string
}

func (k TypeKey) String() string {
	return k.Module + "." + k.Name
}

// less orders keys lexicographically by (module path, type name), the total
// order used for canonical selection.
func (k TypeKey) less(other TypeKey) bool {
	if k.Module != other.Module {
		return k.Module < other.Module
	}
	return k.Name < other.Name
}

// keyOf returns the identity key for a definition.
func keyOf(td *parser.TypeDefinition) TypeKey {
	return TypeKey{Module: td.Module.Path, Name: td.Name}
}

// RewriteMap maps every member of every duplicate group to its canonical
// location. Canonical members map to themselves, so consumers can apply the
// map uniformly without special-casing.
type RewriteMap map[TypeKey]TypeKey

// DuplicateGroup is a set of definitions sharing one structural signature,
// with exactly one member flagged canonical.
type DuplicateGroup struct {
	// Signature is the shared structural signature.
	Signature Signature
	// Members holds the group ordered by (module path, type name).
	Members []TypeKey
	// Canonical is the surviving member: the lexicographically first under
	// colocated placement, or its hoisted location in the common module.
	Canonical TypeKey
}

// ResolveDuplicates groups definitions by signature and chooses one
// canonical member per group of size two or more.
//
// The inScope predicate restricts which definitions may participate; nil
// means all. Groups of size one are not returned and not rewritten: a type
// unique to one module keeps its local definition.
//
// Canonical selection is a deterministic total order over (module path,
// type name), so repeated runs over unchanged input always choose the same
// member. Returned groups are ordered by their canonical key.
func ResolveDuplicates(tree *parser.Tree, set *SignatureSet, inScope func(*parser.Module) bool) []DuplicateGroup {
	bySig := make(map[Signature][]TypeKey)
	for _, mod := range tree.Modules {
		if inScope != nil && !inScope(mod) {
			continue
		}
		for _, td := range mod.Types {
			if set.Excluded(td) {
				continue
			}
			sig := set.Signatures[td]
			bySig[sig] = append(bySig[sig], keyOf(td))
		}
	}

	var groups []DuplicateGroup
	for sig, members := range bySig {
		if len(members) < 2 {
			continue
		}
		sort.Slice(members, func(i, j int) bool { return members[i].less(members[j]) })
		groups = append(groups, DuplicateGroup{
			Signature: sig,
			Members:   members,
			Canonical: members[0],
		})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Canonical.less(groups[j].Canonical) })
	return groups
}

// BuildRewriteMap derives the rewrite mapping for a set of duplicate
// groups. Under hoisted placement the canonical target moves into the
// common module; name collisions between distinct shapes in the common
// module are resolved with a deterministic numeric suffix.
//
// reserved holds names already defined in the common module that no group
// may claim, so hoisting never displaces a pre-existing definition with a
// different shape. Names owned by group members are not reserved: those
// definitions merge into their group and vacate the name.
//
// The groups slice is updated in place so each group's Canonical reflects
// the final (possibly hoisted and renamed) location.
func BuildRewriteMap(groups []DuplicateGroup, placement PlacementMode, commonModule string, reserved map[string]bool) (RewriteMap, UnifyWarnings) {
	rmap := make(RewriteMap)
	var warnings UnifyWarnings

	claimed := make(map[string]bool, len(reserved))
	for name := range reserved {
		claimed[name] = true
	}
	for i := range groups {
		group := &groups[i]
		target := group.Canonical

		if placement == PlacementHoisted {
			name := target.Name
			if claimed[name] {
				base := name
				for n := 2; claimed[name]; n++ {
					name = fmt.Sprintf("%s_%d", base, n)
				}
				warnings = append(warnings, NewHoistRenameWarning(target.Module, target.Name, name, commonModule))
			}
			claimed[name] = true
			target = TypeKey{Module: commonModule, Name: name}
			group.Canonical = target
		}

		for _, member := range group.Members {
			rmap[member] = target
		}
	}

	return rmap, warnings
}
