// Package isoerrors provides structured error types for isotools.
//
// These error types enable programmatic error handling via errors.Is() and
// errors.As(), allowing callers to distinguish between different categories
// of errors and implement appropriate recovery strategies.
//
// # Error Categories
//
//   - ReferenceError: unresolvable or dangling cross-module type references
//   - DiscriminantError: envelope dispatch tags that collide within a family
//   - EmptyInputError: a requested subtree contains no generated modules
//   - ConfigError: invalid pipeline configuration or input options
//
// # Usage with errors.Is
//
//	result, err := unifier.Unify(tree, cfg)
//	if err != nil {
//	    var refErr *isoerrors.ReferenceError
//	    if errors.As(err, &refErr) {
//	        if refErr.IsDangling {
//	            // Internal invariant violation: nothing was committed
//	        }
//	    }
//	}
package isoerrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
// These allow quick checks without type assertions.
var (
	// ErrReference indicates a type reference failure.
	ErrReference = errors.New("reference error")

	// ErrUnresolvableReference indicates a field type that points to a
	// definition the extractor cannot locate.
	ErrUnresolvableReference = errors.New("unresolvable reference")

	// ErrDanglingReference indicates a module still references a deleted
	// definition after rewriting. This is an internal invariant violation.
	ErrDanglingReference = errors.New("dangling reference")

	// ErrAmbiguousDiscriminant indicates two root documents in one family
	// claim the same dispatch tag.
	ErrAmbiguousDiscriminant = errors.New("ambiguous discriminant")

	// ErrEmptyInput indicates a requested subtree contains no modules.
	ErrEmptyInput = errors.New("empty input")

	// ErrConfig indicates an invalid configuration.
	ErrConfig = errors.New("configuration error")
)

// ReferenceError represents a failure involving a cross-module type
// reference: either a reference that never resolved, or one left dangling
// by an incomplete rewrite.
type ReferenceError struct {
	// Module is the tree-relative path of the referencing module
	Module string
	// TypeName is the definition making the reference
	TypeName string
	// Ref is the referenced type, as "module.Name" or a bare name
	Ref string
	// IsDangling is true when the reference pointed to a definition that
	// was deleted during rewriting
	IsDangling bool
	// Message provides additional context about the failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ReferenceError) Error() string {
	msg := "unresolvable reference"
	if e.IsDangling {
		msg = "dangling reference"
	}
	if e.Ref != "" {
		msg += ": " + e.Ref
	}
	if e.Module != "" {
		msg += " from " + e.Module
		if e.TypeName != "" {
			msg += "." + e.TypeName
		}
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ReferenceError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
// Matches ErrReference, and ErrDanglingReference or
// ErrUnresolvableReference depending on the kind of failure.
func (e *ReferenceError) Is(target error) bool {
	if target == ErrReference {
		return true
	}
	if target == ErrDanglingReference && e.IsDangling {
		return true
	}
	if target == ErrUnresolvableReference && !e.IsDangling {
		return true
	}
	return false
}

// DiscriminantError represents an envelope synthesis failure caused by two
// root documents in the same family claiming the same dispatch tag.
// Ambiguous dispatch is never silently resolved.
type DiscriminantError struct {
	// Family is the envelope family the collision occurred in
	Family string
	// Discriminant is the colliding dispatch tag
	Discriminant string
	// Field is the colliding Go field name, set when two distinct tags
	// normalize to the same identifier
	Field string
	// First is the root document type that claimed the tag first
	First string
	// Second is the root document type that collided
	Second string
}

// Error returns a human-readable error message.
func (e *DiscriminantError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("ambiguous field name %q in family %q: claimed by both %s and %s",
			e.Field, e.Family, e.First, e.Second)
	}
	return fmt.Sprintf("ambiguous discriminant %q in family %q: claimed by both %s and %s",
		e.Discriminant, e.Family, e.First, e.Second)
}

// Is reports whether target matches this error type.
func (e *DiscriminantError) Is(target error) bool {
	return target == ErrAmbiguousDiscriminant
}

// EmptyInputError reports that a requested subtree contained no generated
// modules. Recoverable: the run continues and yields an empty manifest.
type EmptyInputError struct {
	// Subtree is the requested subtree path
	Subtree string
}

// Error returns a human-readable error message.
func (e *EmptyInputError) Error() string {
	if e.Subtree == "" {
		return "empty input: tree contains no generated modules"
	}
	return fmt.Sprintf("empty input: subtree %q contains no generated modules", e.Subtree)
}

// Is reports whether target matches this error type.
func (e *EmptyInputError) Is(target error) bool {
	return target == ErrEmptyInput
}

// ConfigError represents an invalid configuration or input option.
type ConfigError struct {
	// Option is the configuration option with the issue
	Option string
	// Value is the problematic value (may be nil)
	Value any
	// Message describes what is wrong
	Message string
}

// Error returns a human-readable error message.
func (e *ConfigError) Error() string {
	msg := "configuration error"
	if e.Option != "" {
		msg += ": " + e.Option
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" = %v", e.Value)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Is reports whether target matches this error type.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}
