// Package envelope synthesizes the discriminated-union entry point of each
// message family.
//
// A family groups the root document types of related modules: by default
// one family per top-level directory of the assembled tree, or an explicit
// grouping such as incoming/outgoing traffic directions from configuration.
// Each root document type carries a discriminant, the XML element name of
// its XMLName field, and discriminants must be unique within a family.
// A collision fails that family while unrelated families still synthesize.
//
// For every healthy family the package emits one document.go defining a
// Document union with one pointer variant per root type, format-agnostic
// parse dispatch (ParseDocument, UnmarshalXML, UnmarshalJSON), and a
// Validate method enforcing that exactly one variant is populated.
package envelope
