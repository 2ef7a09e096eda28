package envelope

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/openpayments/isotools/internal/naming"
	"github.com/openpayments/isotools/isoerrors"
	"github.com/openpayments/isotools/parser"
)

// envelopeLogger is used for warnings in envelope functions.
// Tests can replace this with a discard logger to suppress expected warnings.
var envelopeLogger = slog.Default()

// Config configures envelope synthesis.
type Config struct {
	// Families maps a family name to the top-level directories it covers,
	// e.g. {"incoming": {"pacs", "head"}, "outgoing": {"camt"}}. When
	// empty, every top-level directory containing root documents becomes
	// its own family.
	Families map[string][]string
}

// Variant is one member of a family's document union.
type Variant struct {
	// Name is the Go field name of the variant.
	Name string
	// Discriminant is the XML element name that selects this variant.
	Discriminant string
	// Module is the tree-relative path of the defining module.
	Module string
	// TypeName is the root document type within the module.
	TypeName string
}

// Family is one synthesized document union.
type Family struct {
	// Name is the family name: a top-level directory or a configured
	// direction name.
	Name string
	// Dir is the tree-relative directory the document.go is emitted into.
	Dir string
	// Package is the Go package name of the emitted file.
	Package string
	// Variants holds the union members ordered by discriminant.
	Variants []Variant
}

// Failure records a family that could not be synthesized.
type Failure struct {
	// Family is the failed family name.
	Family string
	// Err is the cause, an AmbiguousDiscriminant collision.
	Err error
}

// Result is the outcome of envelope synthesis across all families.
type Result struct {
	// Families holds every successfully synthesized family, by name.
	Families []Family
	// Failures holds families that failed, by name. A failed family emits
	// no document.go; healthy families in the same run still do.
	Failures []Failure
}

// Failed reports whether the named family failed.
func (r *Result) Failed(family string) bool {
	for _, f := range r.Failures {
		if f.Family == family {
			return true
		}
	}
	return false
}

// Family returns the named synthesized family, or nil.
func (r *Result) Family(name string) *Family {
	for i := range r.Families {
		if r.Families[i].Name == name {
			return &r.Families[i]
		}
	}
	return nil
}

// Synthesize discovers root document types, groups them into families, and
// checks discriminant uniqueness per family.
//
// A discriminant collision is fatal for its family only: the family lands
// in Result.Failures and every other family proceeds. A tree containing no
// root documents at all is an EmptyInputError, and a Families mapping that
// claims a directory for two families is a ConfigError.
func Synthesize(tree *parser.Tree, cfg Config) (*Result, error) {
	grouping, err := familyGrouping(cfg)
	if err != nil {
		return nil, err
	}

	variantsByFamily := make(map[string][]Variant)
	for _, mod := range tree.Modules {
		family := grouping(mod)
		if family == "" {
			continue
		}
		for _, td := range mod.Types {
			if !td.IsRootDocument() {
				continue
			}
			variantsByFamily[family] = append(variantsByFamily[family], Variant{
				Name:         naming.ToPascalCase(td.RootElement),
				Discriminant: td.RootElement,
				Module:       mod.Path,
				TypeName:     td.Name,
			})
		}
	}
	if len(variantsByFamily) == 0 {
		return nil, &isoerrors.EmptyInputError{}
	}

	names := make([]string, 0, len(variantsByFamily))
	for name := range variantsByFamily {
		names = append(names, name)
	}
	sort.Strings(names)

	result := &Result{}
	for _, name := range names {
		variants := variantsByFamily[name]
		sort.Slice(variants, func(i, j int) bool {
			if variants[i].Discriminant != variants[j].Discriminant {
				return variants[i].Discriminant < variants[j].Discriminant
			}
			return variants[i].Module < variants[j].Module
		})

		if err := checkDiscriminants(name, variants); err != nil {
			result.Failures = append(result.Failures, Failure{Family: name, Err: err})
			envelopeLogger.Warn("envelope synthesis failed for family",
				"family", name, "error", err)
			continue
		}

		result.Families = append(result.Families, Family{
			Name:     name,
			Dir:      name,
			Package:  naming.PackageName(name),
			Variants: variants,
		})
	}

	envelopeLogger.Info("envelope synthesis complete",
		"families", len(result.Families),
		"failed", len(result.Failures))
	return result, nil
}

// familyGrouping builds the module-to-family mapping. The empty string
// means the module belongs to no family. A directory claimed by more than
// one family is a configuration error.
func familyGrouping(cfg Config) (func(*parser.Module) string, error) {
	if len(cfg.Families) == 0 {
		return func(m *parser.Module) string { return m.Family() }, nil
	}

	families := make([]string, 0, len(cfg.Families))
	for family := range cfg.Families {
		families = append(families, family)
	}
	sort.Strings(families)

	byDir := make(map[string]string)
	for _, family := range families {
		for _, dir := range cfg.Families[family] {
			if prev, ok := byDir[dir]; ok && prev != family {
				return nil, &isoerrors.ConfigError{
					Option:  "families",
					Value:   dir,
					Message: fmt.Sprintf("directory mapped to both %q and %q", prev, family),
				}
			}
			byDir[dir] = family
		}
	}
	return func(m *parser.Module) string {
		return byDir[m.Family()]
	}, nil
}

// checkDiscriminants verifies dispatch tags and the Go field names derived
// from them are unique within one family. Variants arrive sorted by
// discriminant, so tag collisions are adjacent; distinct tags can still
// normalize to the same field name, so names are checked with a map.
func checkDiscriminants(family string, variants []Variant) error {
	for i := 1; i < len(variants); i++ {
		if variants[i].Discriminant == variants[i-1].Discriminant {
			return &isoerrors.DiscriminantError{
				Family:       family,
				Discriminant: variants[i].Discriminant,
				First:        variants[i-1].Module + "." + variants[i-1].TypeName,
				Second:       variants[i].Module + "." + variants[i].TypeName,
			}
		}
	}
	byName := make(map[string]int, len(variants))
	for i, v := range variants {
		if j, ok := byName[v.Name]; ok {
			return &isoerrors.DiscriminantError{
				Family:       family,
				Discriminant: v.Discriminant,
				Field:        v.Name,
				First:        variants[j].Module + "." + variants[j].TypeName,
				Second:       v.Module + "." + v.TypeName,
			}
		}
		byName[v.Name] = i
	}
	return nil
}
