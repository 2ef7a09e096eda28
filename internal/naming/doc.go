// Package naming provides shared identifier conversion utilities for
// isotools packages.
//
// This internal package contains the string transformations used when
// synthesizing Go source from a generated message tree: deriving package
// names from directory names, variant and constant identifiers from XML
// discriminants, and file-friendly names from type names. Functions include
// ToPascalCase, ToSnakeCase, Title, PackageName, and EscapeReserved.
//
// As an internal package, these functions are not part of the public API
// and may change without notice.
package naming
