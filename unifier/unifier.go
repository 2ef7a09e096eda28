package unifier

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/openpayments/isotools/isoerrors"
	"github.com/openpayments/isotools/parser"
)

// unifierLogger is used for warnings in unifier functions.
// Tests can replace this with a discard logger to suppress expected warnings.
var unifierLogger = slog.Default()

// PlacementMode controls where the canonical copy of a unified type lives.
type PlacementMode string

const (
	// PlacementColocated keeps each canonical definition in the module that
	// already owned it (the lexicographically first member).
	PlacementColocated PlacementMode = "colocated"
	// PlacementHoisted moves every canonical definition into one shared
	// common module at the tree root.
	PlacementHoisted PlacementMode = "hoisted"
)

// ValidPlacementModes returns all valid placement mode strings.
func ValidPlacementModes() []string {
	return []string{
		string(PlacementColocated),
		string(PlacementHoisted),
	}
}

// IsValidPlacementMode checks if a placement mode string is valid.
func IsValidPlacementMode(mode string) bool {
	switch PlacementMode(mode) {
	case PlacementColocated, PlacementHoisted:
		return true
	default:
		return false
	}
}

// Config configures a unification run.
type Config struct {
	// Subtrees restricts deduplication to modules under the named top-level
	// directories, so unrelated message families are not accidentally
	// merged. Empty means the whole tree participates.
	Subtrees []string
	// Placement controls canonical copy placement.
	Placement PlacementMode
	// CommonModule is the tree-relative path of the shared module used by
	// hoisted placement.
	CommonModule string
	// DropUnreferenced removes unexported helper definitions that nothing
	// references after unification.
	DropUnreferenced bool
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Placement:    PlacementColocated,
		CommonModule: "common",
	}
}

// Result contains the outcome of one unification run.
type Result struct {
	// Groups holds every duplicate group that was merged, ordered by
	// canonical key. Groups of size one never appear here.
	Groups []DuplicateGroup
	// Exclusions lists definitions kept out of deduplication.
	Exclusions []Exclusion
	// Warnings contains non-fatal findings.
	Warnings UnifyWarnings
	// RewriteMap is the applied mapping, canonical members included as
	// identities.
	RewriteMap RewriteMap
	// RemovedDefinitions counts deleted duplicate copies, plus orphaned
	// helpers when DropUnreferenced is set.
	RemovedDefinitions int
	// DistinctShapes is the number of distinct structural signatures, which
	// unification conserves.
	DistinctShapes int
}

// AddWarning appends a structured warning and logs it.
func (r *Result) AddWarning(w *UnifyWarning) {
	r.Warnings = append(r.Warnings, w)
	unifierLogger.Warn(w.Message, "category", string(w.Category), "module", w.Module)
}

// Unify deduplicates structurally identical definitions across the tree,
// mutating it in place.
//
// Every reference to a removed definition is redirected before any deletion
// happens, and a dangling-reference check runs before Unify returns. A
// dangling reference is an internal invariant violation and surfaces as
// isoerrors.ErrDanglingReference. On error the in-memory tree may hold a
// partial rewrite and should be discarded; callers that write output stage
// files from the tree only after Unify succeeds, so nothing reaches disk.
//
// Running Unify twice over the same input is a no-op on the second run: no
// groups of size two or more remain after the first.
func Unify(tree *parser.Tree, cfg Config) (*Result, error) {
	if err := validateConfig(tree, cfg); err != nil {
		return nil, err
	}
	if cfg.CommonModule == "" {
		cfg.CommonModule = "common"
	}

	result := &Result{}

	if len(tree.Modules) == 0 {
		result.AddWarning(NewEmptySubtreeWarning(""))
		result.RewriteMap = make(RewriteMap)
		return result, nil
	}
	for _, subtree := range cfg.Subtrees {
		if !subtreeExists(tree, subtree) {
			result.AddWarning(NewEmptySubtreeWarning(subtree))
		}
	}

	set := ExtractSignatures(tree)
	result.Exclusions = set.Exclusions
	result.DistinctShapes = set.DistinctShapes()
	for _, e := range set.Exclusions {
		result.AddWarning(NewExclusionWarning(e))
	}

	groups := ResolveDuplicates(tree, set, scopePredicate(cfg.Subtrees))
	rmap, hoistWarnings := BuildRewriteMap(groups, cfg.Placement, cfg.CommonModule,
		reservedCommonNames(tree, cfg, groups))
	for _, w := range hoistWarnings {
		result.AddWarning(w)
	}
	result.Groups = groups
	result.RewriteMap = rmap

	rw := &rewriter{
		tree:         tree,
		rmap:         rmap,
		groups:       groups,
		placement:    cfg.Placement,
		commonModule: cfg.CommonModule,
	}
	removed, err := rw.apply()
	if err != nil {
		return nil, err
	}
	result.RemovedDefinitions = removed

	if cfg.DropUnreferenced {
		result.RemovedDefinitions += dropUnreferenced(tree)
	}

	knownBroken := make(map[TypeKey]bool)
	for _, e := range set.Exclusions {
		if e.Reason == ReasonUnresolvable {
			knownBroken[TypeKey{Module: e.Module, Name: e.TypeName}] = true
		}
	}
	if err := checkDanglingReferences(tree, knownBroken); err != nil {
		return nil, fmt.Errorf("unifier: post-rewrite consistency check failed: %w", err)
	}

	unifierLogger.Info("unification complete",
		"groups_merged", len(groups),
		"definitions_removed", result.RemovedDefinitions,
		"exclusions", len(set.Exclusions))
	return result, nil
}

// reservedCommonNames collects the type names a pre-existing common module
// already owns, minus any that belong to a duplicate group and therefore
// vacate their name during the merge. Hoisted canonicals must not claim a
// reserved name: the definition behind it has a different shape.
func reservedCommonNames(tree *parser.Tree, cfg Config, groups []DuplicateGroup) map[string]bool {
	if cfg.Placement != PlacementHoisted {
		return nil
	}
	common := tree.Module(cfg.CommonModule)
	if common == nil {
		return nil
	}
	inGroup := make(map[TypeKey]bool)
	for _, g := range groups {
		for _, m := range g.Members {
			inGroup[m] = true
		}
	}
	reserved := make(map[string]bool)
	for _, td := range common.Types {
		if !inGroup[TypeKey{Module: cfg.CommonModule, Name: td.Name}] {
			reserved[td.Name] = true
		}
	}
	return reserved
}

// validateConfig rejects invalid options before any work happens.
func validateConfig(tree *parser.Tree, cfg Config) error {
	if cfg.Placement != "" && !IsValidPlacementMode(string(cfg.Placement)) {
		return &isoerrors.ConfigError{
			Option:  "placement",
			Value:   string(cfg.Placement),
			Message: "must be one of: " + strings.Join(ValidPlacementModes(), ", "),
		}
	}
	for _, subtree := range cfg.Subtrees {
		if subtree == "" || strings.Contains(subtree, "/") {
			return &isoerrors.ConfigError{
				Option:  "subtrees",
				Value:   subtree,
				Message: "must be a top-level directory name",
			}
		}
	}
	_ = tree
	return nil
}

// scopePredicate builds the module filter for subtree selection.
func scopePredicate(subtrees []string) func(*parser.Module) bool {
	if len(subtrees) == 0 {
		return nil
	}
	allowed := make(map[string]bool, len(subtrees))
	for _, s := range subtrees {
		allowed[s] = true
	}
	return func(m *parser.Module) bool {
		return allowed[m.Family()]
	}
}

func subtreeExists(tree *parser.Tree, subtree string) bool {
	for _, mod := range tree.Modules {
		if mod.Family() == subtree {
			return true
		}
	}
	return false
}
