package unifier

import (
	"fmt"

	"github.com/openpayments/isotools/internal/severity"
)

// WarningCategory identifies the type of warning.
type WarningCategory string

const (
	// WarnTypeExcluded indicates a definition was excluded from
	// deduplication (unresolvable reference or recursive shape).
	WarnTypeExcluded WarningCategory = "type_excluded"
	// WarnHoistRenamed indicates a canonical definition was renamed while
	// hoisting because its name was already taken in the common module.
	WarnHoistRenamed WarningCategory = "hoist_renamed"
	// WarnEmptySubtree indicates a requested subtree contained no modules.
	WarnEmptySubtree WarningCategory = "empty_subtree"
)

// UnifyWarning represents a structured warning from the unifier package.
// It provides detailed context about non-fatal issues encountered during
// unification.
type UnifyWarning struct {
	// Category identifies the type of warning.
	Category WarningCategory
	// Module is the tree-relative path of the affected module.
	Module string
	// TypeName is the affected definition, when applicable.
	TypeName string
	// Message is a human-readable description.
	Message string
	// Severity indicates warning severity (default: SeverityWarning).
	Severity severity.Severity
	// Context provides additional details.
	Context map[string]any
}

// String returns the formatted warning message.
func (w *UnifyWarning) String() string {
	return w.Message
}

// UnifyWarnings is a collection of structured warnings.
type UnifyWarnings []*UnifyWarning

// Strings returns all warning messages.
func (ws UnifyWarnings) Strings() []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.String()
	}
	return out
}

// NewExclusionWarning creates a warning for a definition excluded from
// deduplication.
func NewExclusionWarning(e Exclusion) *UnifyWarning {
	return &UnifyWarning{
		Category: WarnTypeExcluded,
		Module:   e.Module,
		TypeName: e.TypeName,
		Message:  fmt.Sprintf("excluded %s.%s from deduplication: %s", e.Module, e.TypeName, e.describe()),
		Severity: severity.SeverityWarning,
		Context: map[string]any{
			"reason": string(e.Reason),
			"ref":    e.Ref,
		},
	}
}

// NewHoistRenameWarning creates a warning for a canonical definition renamed
// during hoisting.
func NewHoistRenameWarning(module, typeName, newName, commonModule string) *UnifyWarning {
	return &UnifyWarning{
		Category: WarnHoistRenamed,
		Module:   module,
		TypeName: typeName,
		Message: fmt.Sprintf("hoisted %s.%s as %s.%s: name already taken by a different shape",
			module, typeName, commonModule, newName),
		Severity: severity.SeverityWarning,
		Context: map[string]any{
			"new_name":      newName,
			"common_module": commonModule,
		},
	}
}

// NewEmptySubtreeWarning creates a warning for a requested subtree that
// contained no generated modules.
func NewEmptySubtreeWarning(subtree string) *UnifyWarning {
	return &UnifyWarning{
		Category: WarnEmptySubtree,
		Module:   subtree,
		Message:  fmt.Sprintf("subtree %q contains no generated modules", subtree),
		Severity: severity.SeverityInfo,
		Context: map[string]any{
			"subtree": subtree,
		},
	}
}
