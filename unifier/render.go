package unifier

import (
	"fmt"
	"sort"
	"strings"

	"github.com/openpayments/isotools/internal/codegen"
	"github.com/openpayments/isotools/parser"
)

// externalImports maps the package qualifiers of known external references
// to their import paths. The translator only reaches outside the generated
// tree for these.
var externalImports = map[string]string{
	"xml":  "encoding/xml",
	"json": "encoding/json",
	"time": "time",
}

// RenderModule renders one module back to Go source. Output is canonical:
// rendering an unchanged module twice yields byte-identical files, which is
// what makes whole-tree rewrites idempotent at the file level.
func RenderModule(tree *parser.Tree, mod *parser.Module) ([]byte, error) {
	aliases, importPaths := moduleImports(tree, mod)

	var b strings.Builder
	b.WriteString(codegen.ModuleHeader)
	b.WriteString("\npackage ")
	b.WriteString(mod.Package)
	b.WriteString("\n")

	if len(importPaths) > 0 {
		b.WriteString("\nimport (\n")
		for _, p := range importPaths {
			b.WriteString("\t\"")
			b.WriteString(p)
			b.WriteString("\"\n")
		}
		b.WriteString(")\n")
	}

	for _, td := range mod.Types {
		b.WriteString("\n")
		if err := renderType(&b, mod, td, aliases); err != nil {
			return nil, fmt.Errorf("unifier: rendering %s: %w", td.QualifiedName(), err)
		}
	}

	return codegen.Format(mod.FileName(), []byte(b.String()))
}

// moduleImports collects the import block for a module: every referenced
// tree module plus known external packages. It returns the alias to use for
// each referenced module path and the sorted import paths.
func moduleImports(tree *parser.Tree, mod *parser.Module) (map[string]string, []string) {
	aliases := make(map[string]string)
	pathSet := make(map[string]bool)

	addModule := func(modPath string) {
		if _, done := aliases[modPath]; done {
			return
		}
		target := tree.Module(modPath)
		alias := modPath[strings.LastIndexByte(modPath, '/')+1:]
		if target != nil {
			alias = target.Package
		}
		aliases[modPath] = alias
		pathSet[importPathFor(tree, modPath)] = true
	}

	for _, td := range mod.Types {
		if td.IsRootDocument() {
			pathSet["encoding/xml"] = true
		}
		for _, f := range td.Fields {
			ref := f.Type
			switch {
			case ref.External:
				if qualifier, _, found := strings.Cut(ref.Name, "."); found {
					if p, known := externalImports[qualifier]; known {
						pathSet[p] = true
					}
				}
			case ref.Module != "" && ref.Module != mod.Path:
				addModule(ref.Module)
			}
		}
	}

	paths := make([]string, 0, len(pathSet))
	for p := range pathSet {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return aliases, paths
}

func importPathFor(tree *parser.Tree, modPath string) string {
	if tree.ImportBase == "" {
		return modPath
	}
	return tree.ImportBase + "/" + modPath
}

// renderType renders one definition in the translator's own layout so
// original and rewritten modules stay visually uniform.
func renderType(b *strings.Builder, mod *parser.Module, td *parser.TypeDefinition, aliases map[string]string) error {
	renderDoc(b, td)

	switch td.Kind {
	case parser.KindWrapper:
		fmt.Fprintf(b, "type %s %s\n", td.Name, td.Underlying)
	case parser.KindEnum:
		fmt.Fprintf(b, "type %s %s\n", td.Name, td.Underlying)
		b.WriteString("\nconst (\n")
		for _, v := range td.Values {
			fmt.Fprintf(b, "\t%s %s = %q\n", v.Name, td.Name, v.Value)
		}
		b.WriteString(")\n")
	case parser.KindRecord:
		fmt.Fprintf(b, "type %s struct {\n", td.Name)
		if td.IsRootDocument() {
			fmt.Fprintf(b, "\tXMLName xml.Name `xml:%q`\n", td.XMLNameTag)
		}
		for _, f := range td.Fields {
			typeName, err := renderRef(mod, f.Type, aliases)
			if err != nil {
				return err
			}
			fmt.Fprintf(b, "\t%s %s %s\n", f.Name, typeName, renderTag(f))
		}
		b.WriteString("}\n")
	default:
		return fmt.Errorf("unsupported kind %q", td.Kind)
	}
	return nil
}

func renderDoc(b *strings.Builder, td *parser.TypeDefinition) {
	for _, line := range strings.Split(td.Doc, "\n") {
		if line == "" {
			continue
		}
		b.WriteString("// ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	if td.Constraint != "" {
		b.WriteString("// isotools:validate ")
		b.WriteString(td.Constraint)
		b.WriteString("\n")
	}
}

// renderRef renders a field type, qualifying cross-module references with
// the importing module's alias for the target.
func renderRef(mod *parser.Module, ref parser.TypeRef, aliases map[string]string) (string, error) {
	name := ref.Name
	if !ref.Terminal() && ref.Module != "" && ref.Module != mod.Path {
		alias, ok := aliases[ref.Module]
		if !ok {
			return "", fmt.Errorf("no import recorded for module %s", ref.Module)
		}
		name = alias + "." + name
	}

	var prefix string
	if ref.Slice {
		prefix += "[]"
	}
	if ref.Pointer {
		prefix += "*"
	}
	return prefix + name, nil
}

// renderTag rebuilds the struct tag literal from the field's aliases and
// constraint.
func renderTag(f parser.Field) string {
	var parts []string
	if f.XMLTag != "" {
		parts = append(parts, fmt.Sprintf("xml:%q", f.XMLTag))
	}
	if f.JSONTag != "" {
		parts = append(parts, fmt.Sprintf("json:%q", f.JSONTag))
	}
	if f.Validate != "" {
		parts = append(parts, fmt.Sprintf("validate:%q", f.Validate))
	}
	if len(parts) == 0 {
		return ""
	}
	return "`" + strings.Join(parts, " ") + "`"
}
