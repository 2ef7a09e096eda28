package naming

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// titleCaser performs proper Unicode title casing (strings.Title is
// deprecated).
var titleCaser = cases.Title(language.English)

// goReservedWords contains Go reserved keywords that cannot be used as
// identifiers. Predeclared identifiers like "error" are deliberately not
// included: they can be shadowed and appear routinely in generated names.
var goReservedWords = map[string]bool{
	"break": true, "case": true, "chan": true, "const": true, "continue": true,
	"default": true, "defer": true, "else": true, "fallthrough": true, "for": true,
	"func": true, "go": true, "goto": true, "if": true, "import": true,
	"interface": true, "map": true, "package": true, "range": true, "return": true,
	"select": true, "struct": true, "switch": true, "type": true, "var": true,
}

// EscapeReserved appends an underscore when the name is a Go keyword.
// The check is case-insensitive so PascalCase names like "Range" are still
// escaped when lowercased into package or file names.
func EscapeReserved(name string) string {
	if goReservedWords[strings.ToLower(name)] {
		return name + "_"
	}
	return name
}

// ToPascalCase converts a name to a valid exported Go identifier.
// Non-alphanumeric runes act as separators and trigger capitalization of
// the next letter. A leading digit is prefixed so the result is a legal
// identifier.
// Example: "pacs_008_001_08" -> "Pacs00800108"
// Example: "FIToFICstmrCdtTrf" -> "FIToFICstmrCdtTrf"
func ToPascalCase(s string) string {
	if s == "" {
		return ""
	}

	var result strings.Builder
	capitalizeNext := true
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			capitalizeNext = true
			continue
		}
		if capitalizeNext {
			result.WriteRune(unicode.ToUpper(r))
			capitalizeNext = false
		} else {
			result.WriteRune(r)
		}
	}

	name := result.String()
	if name != "" && !unicode.IsLetter(rune(name[0])) {
		name = "X" + name
	}
	return EscapeReserved(name)
}

// ToSnakeCase converts a name to snake_case, the layout used for generated
// file names. Uppercase letters are prefixed with an underscore and
// lowercased; other separators become underscores. Runs of uppercase
// letters stay together.
// Example: "PmtStsRpt" -> "pmt_sts_rpt"
func ToSnakeCase(s string) string {
	if s == "" {
		return ""
	}

	var result strings.Builder
	prevUpper := false
	for i, r := range s {
		switch {
		case unicode.IsUpper(r):
			if i > 0 && !prevUpper {
				result.WriteRune('_')
			}
			result.WriteRune(unicode.ToLower(r))
			prevUpper = true
		case r == '-' || r == '.' || r == '/' || r == ' ':
			result.WriteRune('_')
			prevUpper = false
		default:
			result.WriteRune(r)
			prevUpper = false
		}
	}
	return result.String()
}

// Title converts the input to title case with proper Unicode casing.
// Example: "payments clearing" -> "Payments Clearing"
func Title(s string) string {
	return titleCaser.String(s)
}

// PackageName derives a valid Go package name from a directory name.
// Hyphens and dots become underscores, uppercase letters are lowered, and
// anything else non-alphanumeric is dropped.
// Example: "pacs.008" -> "pacs_008"
func PackageName(dir string) string {
	var result strings.Builder
	for _, r := range dir {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			result.WriteRune(unicode.ToLower(r))
		case r == '-' || r == '.' || r == '_':
			result.WriteRune('_')
		}
	}

	name := result.String()
	if name == "" {
		return "pkg"
	}
	if !unicode.IsLetter(rune(name[0])) {
		name = "pkg_" + name
	}
	return EscapeReserved(name)
}
