package unifier

import (
	"fmt"
	"path"
	"unicode"

	"github.com/openpayments/isotools/isoerrors"
	"github.com/openpayments/isotools/parser"
)

// rewriter applies a RewriteMap to the in-memory tree: it redirects every
// reference to a non-canonical duplicate, relocates canonical definitions
// when placement is hoisted, and deletes the now-redundant definitions.
//
// Rewriting is exhaustive before any deletion: a definition is removed only
// after every module that referenced it has been updated, so a partially
// rewritten group is never observable.
type rewriter struct {
	tree         *parser.Tree
	rmap         RewriteMap
	groups       []DuplicateGroup
	placement    PlacementMode
	commonModule string
}

// apply runs the full rewrite. It returns the number of deleted
// definitions.
func (r *rewriter) apply() (int, error) {
	r.qualifyRefs()

	if r.placement == PlacementHoisted {
		if err := r.hoistCanonicals(); err != nil {
			return 0, err
		}
	}

	r.redirectRefs()
	removed := r.deleteNonCanonical()
	r.localizeRefs()
	return removed, nil
}

// qualifyRefs makes every intra-module reference explicit about its owning
// module, so the rewrite pass is a uniform key lookup.
func (r *rewriter) qualifyRefs() {
	for _, mod := range r.tree.Modules {
		for _, td := range mod.Types {
			for i := range td.Fields {
				ref := &td.Fields[i].Type
				if ref.Terminal() || ref.IsBuiltin() {
					continue
				}
				if ref.Module == "" {
					ref.Module = mod.Path
				}
			}
		}
	}
}

// localizeRefs is the inverse of qualifyRefs: references back into the
// owning module become local identifiers again.
func (r *rewriter) localizeRefs() {
	for _, mod := range r.tree.Modules {
		for _, td := range mod.Types {
			for i := range td.Fields {
				ref := &td.Fields[i].Type
				if ref.Module == mod.Path {
					ref.Module = ""
				}
			}
		}
	}
}

// hoistCanonicals moves each group's canonical definition into the shared
// common module, creating the module on first use.
func (r *rewriter) hoistCanonicals() error {
	common := r.tree.Module(r.commonModule)
	if common == nil {
		common = &parser.Module{
			Path:    r.commonModule,
			Package: path.Base(r.commonModule),
		}
		if err := r.tree.AddModule(common); err != nil {
			return fmt.Errorf("unifier: creating common module: %w", err)
		}
	}

	for _, group := range r.groups {
		origin := group.Members[0]
		if group.Canonical.Module != r.commonModule {
			continue
		}
		originMod := r.tree.Module(origin.Module)
		td := originMod.Type(origin.Name)
		if td == nil {
			return fmt.Errorf("unifier: canonical %s vanished before hoisting", origin)
		}
		originMod.RemoveType(origin.Name)
		// A same-shape duplicate may already sit in the common module under
		// the target name; the hoisted canonical supersedes it.
		for _, member := range group.Members {
			if member.Module == r.commonModule && member.Name == group.Canonical.Name {
				common.RemoveType(member.Name)
			}
		}
		if common.Type(group.Canonical.Name) != nil {
			return fmt.Errorf("unifier: hoist target %s.%s collides with an existing definition",
				r.commonModule, group.Canonical.Name)
		}
		td.Name = group.Canonical.Name
		common.AddType(td)
	}

	common.SortTypes()
	return nil
}

// redirectRefs rewrites every reference covered by the map to its canonical
// location.
func (r *rewriter) redirectRefs() {
	for _, mod := range r.tree.Modules {
		for _, td := range mod.Types {
			for i := range td.Fields {
				ref := &td.Fields[i].Type
				if ref.Module == "" {
					continue
				}
				key := TypeKey{Module: ref.Module, Name: ref.Name}
				if to, ok := r.rmap[key]; ok && to != key {
					ref.Module = to.Module
					ref.Name = to.Name
				}
			}
		}
	}
}

// deleteNonCanonical removes every group member that is not the canonical
// definition. Hoisted canonicals were already moved out of their origin
// module, so everything left behind by a group is redundant.
func (r *rewriter) deleteNonCanonical() int {
	removed := 0
	for _, group := range r.groups {
		for _, member := range group.Members {
			if member == group.Canonical {
				continue
			}
			mod := r.tree.Module(member.Module)
			if mod == nil {
				continue
			}
			if group.Canonical.Module == r.commonModule && r.placement == PlacementHoisted && member == group.Members[0] {
				// Already relocated by hoistCanonicals.
				continue
			}
			if mod.Type(member.Name) != nil {
				mod.RemoveType(member.Name)
				removed++
			}
		}
	}
	return removed
}

// dropUnreferenced removes unexported definitions nothing references.
// The translator occasionally emits lower-cased helper shapes that become
// orphans once their consumers are unified away.
func dropUnreferenced(tree *parser.Tree) int {
	referenced := make(map[TypeKey]bool)
	for _, mod := range tree.Modules {
		for _, td := range mod.Types {
			for _, ref := range td.References() {
				if ref.Terminal() {
					continue
				}
				key := TypeKey{Module: ref.Module, Name: ref.Name}
				if key.Module == "" {
					key.Module = mod.Path
				}
				referenced[key] = true
			}
		}
	}

	removed := 0
	for _, mod := range tree.Modules {
		// Collect first: removing while iterating Types would skip entries.
		var orphans []string
		for _, td := range mod.Types {
			if td.Name == "" || !unicode.IsLower(rune(td.Name[0])) {
				continue
			}
			if !referenced[keyOf(td)] {
				orphans = append(orphans, td.Name)
			}
		}
		for _, name := range orphans {
			mod.RemoveType(name)
			removed++
		}
	}
	return removed
}

// checkDanglingReferences verifies that every non-terminal reference in the
// tree resolves to a definition that still exists. A failure here is an
// internal invariant violation: the caller must abort without committing
// any output.
//
// Definitions in knownBroken carried unresolvable references before any
// rewriting happened. Those were already reported as exclusions and are not
// evidence of a rewrite bug, so they are skipped here.
func checkDanglingReferences(tree *parser.Tree, knownBroken map[TypeKey]bool) error {
	for _, mod := range tree.Modules {
		for _, td := range mod.Types {
			if knownBroken[keyOf(td)] {
				continue
			}
			for _, ref := range td.References() {
				if ref.Terminal() {
					continue
				}
				if tree.Lookup(mod, ref) == nil {
					display := ref.Name
					if ref.Module != "" {
						display = ref.Module + "." + ref.Name
					}
					return &isoerrors.ReferenceError{
						Module:     mod.Path,
						TypeName:   td.Name,
						Ref:        display,
						IsDangling: true,
					}
				}
			}
		}
	}
	return nil
}
