package parser

import (
	"fmt"
	"go/ast"
	"reflect"
	"strconv"
	"strings"
)

// TypeDefinition is one named structural shape extracted from a generated
// module.
type TypeDefinition struct {
	// Name is the Go type name, unique within its module.
	Name string
	// Kind tags the structural shape.
	Kind TypeKind
	// Module is the owning module. Maintained by the Tree.
	Module *Module
	// Doc is the leading doc comment text, without comment markers.
	Doc string

	// Fields holds record fields in declaration order. Field order is
	// significant: two records with the same fields in different order are
	// distinct shapes.
	Fields []Field

	// Underlying is the basic underlying type for wrappers and enums,
	// e.g. "string".
	Underlying string
	// Constraint is the validation directive attached to a wrapper
	// declaration, e.g. "min=1,max=35".
	Constraint string
	// Values holds enum members in declaration order.
	Values []EnumValue

	// RootElement is the XML element name from an XMLName field, set only
	// on root document types. It doubles as the envelope discriminant.
	RootElement string
	// XMLNameTag is the full xml tag of the XMLName field, preserved so a
	// rewritten module round-trips the namespace.
	XMLNameTag string
}

// IsRootDocument reports whether the definition is a root document type.
func (td *TypeDefinition) IsRootDocument() bool {
	return td.RootElement != ""
}

// QualifiedName returns "module/path.Name" for diagnostics.
func (td *TypeDefinition) QualifiedName() string {
	if td.Module == nil {
		return td.Name
	}
	return td.Module.Path + "." + td.Name
}

// References returns every type reference the definition makes, in field
// declaration order. Wrappers and enums reference nothing.
func (td *TypeDefinition) References() []TypeRef {
	if td.Kind != KindRecord {
		return nil
	}
	refs := make([]TypeRef, 0, len(td.Fields))
	for _, f := range td.Fields {
		refs = append(refs, f.Type)
	}
	return refs
}

// Field is one record field: name, type reference, serialization aliases,
// and validation constraint.
type Field struct {
	Name     string
	Type     TypeRef
	XMLTag   string
	JSONTag  string
	Validate string
}

// EnumValue is one member of an enumeration: the const identifier and its
// literal value.
type EnumValue struct {
	Name  string
	Value string
}

// TypeRef is a reference to a type from a field declaration. References are
// plain data keyed by module path and name, never live pointers, so the
// rewriter can redirect them as a pure map lookup.
type TypeRef struct {
	// Module is the tree-relative path of the defining module. Empty for
	// local references, builtins, and external types.
	Module string
	// Name is the referenced type name. External references keep their
	// package qualifier, e.g. "xml.Name".
	Name string
	// Pointer marks *T (or []*T element pointers when Slice is set).
	Pointer bool
	// Slice marks []T.
	Slice bool
	// External marks a reference to a package outside the generated tree.
	External bool
}

// goBuiltins are the basic types the translator emits directly.
var goBuiltins = map[string]bool{
	"bool": true, "string": true, "byte": true, "rune": true,
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true,
	"float32": true, "float64": true, "any": true,
}

// IsBuiltin reports whether the reference names a Go basic type.
func (r TypeRef) IsBuiltin() bool {
	return goBuiltins[r.Name]
}

// Terminal reports whether the reference bottoms out outside the generated
// tree: a builtin or a known external type. Terminal references compare by
// name alone during signature computation.
func (r TypeRef) Terminal() bool {
	return r.IsBuiltin() || r.External
}

// String renders the reference the way it appears in source, without
// qualification across modules (the writer decides qualification).
func (r TypeRef) String() string {
	var b strings.Builder
	if r.Slice {
		b.WriteString("[]")
	}
	if r.Pointer {
		b.WriteByte('*')
	}
	b.WriteString(r.Name)
	return b.String()
}

// structTags extracts the xml, json, and validate tags from a raw struct
// tag literal.
func structTags(raw string) (xmlTag, jsonTag, validate string) {
	if raw == "" {
		return "", "", ""
	}
	unquoted, err := strconv.Unquote(raw)
	if err != nil {
		// Malformed tag literal; generated code should never produce one,
		// keep the raw text so the shape still compares.
		unquoted = raw
	}
	tag := reflect.StructTag(unquoted)
	return tag.Get("xml"), tag.Get("json"), tag.Get("validate")
}

// xmlElementName returns the element name from an xml struct tag, dropping
// any namespace prefix and flag suffixes.
func xmlElementName(xmlTag string) string {
	name := xmlTag
	if i := strings.IndexByte(name, ','); i >= 0 {
		name = name[:i]
	}
	if i := strings.LastIndexByte(name, ' '); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// validateDirective is the comment marker carrying wrapper constraints.
const validateDirective = "isotools:validate"

// docText flattens a doc comment group to trimmed text and extracts any
// validate directive.
func docText(cg *ast.CommentGroup) (doc, constraint string) {
	if cg == nil {
		return "", ""
	}
	var lines []string
	for _, c := range cg.List {
		line := strings.TrimSpace(strings.TrimPrefix(c.Text, "//"))
		if rest, found := strings.CutPrefix(line, validateDirective); found {
			constraint = strings.TrimSpace(rest)
			continue
		}
		lines = append(lines, line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), constraint
}

// typeRefFromExpr converts a field type expression into a TypeRef.
// imports maps file-local package aliases to tree-relative module paths;
// aliases absent from the map are external references.
func typeRefFromExpr(expr ast.Expr, imports map[string]string) (TypeRef, error) {
	var ref TypeRef
	for {
		switch t := expr.(type) {
		case *ast.StarExpr:
			ref.Pointer = true
			expr = t.X
		case *ast.ArrayType:
			if t.Len != nil {
				return ref, fmt.Errorf("unsupported array type with fixed length")
			}
			ref.Slice = true
			expr = t.Elt
		case *ast.Ident:
			ref.Name = t.Name
			return ref, nil
		case *ast.SelectorExpr:
			pkg, ok := t.X.(*ast.Ident)
			if !ok {
				return ref, fmt.Errorf("unsupported selector base %T", t.X)
			}
			if modPath, known := imports[pkg.Name]; known {
				ref.Module = modPath
				ref.Name = t.Sel.Name
			} else {
				ref.External = true
				ref.Name = pkg.Name + "." + t.Sel.Name
			}
			return ref, nil
		default:
			return ref, fmt.Errorf("unsupported field type %T", expr)
		}
	}
}

// typeDefFromSpec builds a TypeDefinition from a type declaration.
// Enum values are attached later from const blocks.
func typeDefFromSpec(spec *ast.TypeSpec, declDoc *ast.CommentGroup, imports map[string]string) (*TypeDefinition, error) {
	doc := spec.Doc
	if doc == nil {
		doc = declDoc
	}
	text, constraint := docText(doc)

	td := &TypeDefinition{
		Name:       spec.Name.Name,
		Doc:        text,
		Constraint: constraint,
	}

	switch t := spec.Type.(type) {
	case *ast.StructType:
		td.Kind = KindRecord
		for _, field := range t.Fields.List {
			if len(field.Names) == 0 {
				return nil, fmt.Errorf("type %s: embedded fields are not produced by the translator", td.Name)
			}
			var raw string
			if field.Tag != nil {
				raw = field.Tag.Value
			}
			xmlTag, jsonTag, validate := structTags(raw)

			for _, name := range field.Names {
				if name.Name == "XMLName" {
					td.RootElement = xmlElementName(xmlTag)
					td.XMLNameTag = xmlTag
					continue
				}
				ref, err := typeRefFromExpr(field.Type, imports)
				if err != nil {
					return nil, fmt.Errorf("type %s, field %s: %w", td.Name, name.Name, err)
				}
				td.Fields = append(td.Fields, Field{
					Name:     name.Name,
					Type:     ref,
					XMLTag:   xmlTag,
					JSONTag:  jsonTag,
					Validate: validate,
				})
			}
		}
	case *ast.Ident:
		if !goBuiltins[t.Name] {
			return nil, fmt.Errorf("type %s: defined over non-basic type %s", td.Name, t.Name)
		}
		td.Kind = KindWrapper
		td.Underlying = t.Name
	default:
		return nil, fmt.Errorf("type %s: unsupported declaration %T", td.Name, spec.Type)
	}

	return td, nil
}

// attachEnumValues converts wrappers that own const members into enums.
// The const block style is fixed by the translator:
//
//	const (
//		AddressType2CodeAddr AddressType2Code = "ADDR"
//		...
//	)
func attachEnumValues(byName map[string]*TypeDefinition, decl *ast.GenDecl) {
	for _, spec := range decl.Specs {
		vs, ok := spec.(*ast.ValueSpec)
		if !ok || vs.Type == nil || len(vs.Names) != 1 || len(vs.Values) != 1 {
			continue
		}
		ident, ok := vs.Type.(*ast.Ident)
		if !ok {
			continue
		}
		td := byName[ident.Name]
		if td == nil || td.Kind == KindRecord {
			continue
		}
		lit, ok := vs.Values[0].(*ast.BasicLit)
		if !ok {
			continue
		}
		value, err := strconv.Unquote(lit.Value)
		if err != nil {
			value = lit.Value
		}
		td.Kind = KindEnum
		td.Values = append(td.Values, EnumValue{Name: vs.Names[0].Name, Value: value})
	}
}
