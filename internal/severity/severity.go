// Package severity provides severity level constants and utilities
// for issues reported by the unifier, assembler, envelope, and pipeline
// packages.
//
//   - SeverityInfo: Informational messages about choices made
//   - SeverityWarning: Recoverable findings such as deduplication exclusions
//   - SeverityError: Findings that invalidate part of a run (one family)
//   - SeverityCritical: Invariant violations that abort the whole run
//
// The severity levels are ordered from least to most severe:
// Info < Warning < Error < Critical
package severity

// Severity indicates the severity level of an issue during unification,
// assembly, or envelope synthesis.
type Severity int

const (
	// SeverityError indicates a finding that invalidates part of a run,
	// such as an ambiguous envelope discriminant failing one family.
	SeverityError Severity = iota

	// SeverityWarning indicates recoverable findings that don't prevent
	// processing but should be addressed, such as deduplication exclusions.
	SeverityWarning

	// SeverityInfo indicates informational messages about processing choices.
	// These are non-actionable notices that may be useful for debugging.
	SeverityInfo

	// SeverityCritical indicates an internal invariant violation, such as a
	// dangling reference detected after rewriting. The run aborts without
	// committing output.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}
