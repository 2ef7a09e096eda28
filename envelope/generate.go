package envelope

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"text/template"

	"github.com/openpayments/isotools/internal/codegen"
	"github.com/openpayments/isotools/internal/fileutil"
	"github.com/openpayments/isotools/parser"
)

// documentTemplate is the body of a family's document.go. Imports and
// variant references are resolved by the caller; the template only lays
// out the dispatch scaffolding.
const documentTemplate = `{{.Header}}

// Package {{.Package}} exposes the document envelope of the {{.Family}}
// message family.
package {{.Package}}

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"

{{range .Imports}}	{{if .Aliased}}{{.Alias}} {{end}}"{{.Path}}"
{{end}})

// Document is the {{.Family}} family envelope. Exactly one variant is
// populated, selected by the root element of the message.
type Document struct {
{{range .Variants}}	{{.Name}} *{{.TypeRef}}
{{end}}}

// Discriminant returns the dispatch tag of the populated variant, or the
// empty string when no variant is set.
func (d *Document) Discriminant() string {
	switch {
{{range .Variants}}	case d.{{.Name}} != nil:
		return {{printf "%q" .Discriminant}}
{{end}}	}
	return ""
}

// Validate checks that exactly one variant is populated.
func (d *Document) Validate() error {
	populated := 0
{{range .Variants}}	if d.{{.Name}} != nil {
		populated++
	}
{{end}}	if populated != 1 {
		return fmt.Errorf("{{.Package}}: document must populate exactly one variant, found %d", populated)
	}
	return nil
}

// UnmarshalXML dispatches on the root element name.
func (d *Document) UnmarshalXML(dec *xml.Decoder, start xml.StartElement) error {
	switch start.Name.Local {
{{range .Variants}}	case {{printf "%q" .Discriminant}}:
		var v {{.TypeRef}}
		if err := dec.DecodeElement(&v, &start); err != nil {
			return err
		}
		d.{{.Name}} = &v
		return nil
{{end}}	}
	return fmt.Errorf("{{.Package}}: no matching document variant for element %q", start.Name.Local)
}

// MarshalXML encodes the populated variant under its own root element.
func (d Document) MarshalXML(enc *xml.Encoder, start xml.StartElement) error {
	switch {
{{range .Variants}}	case d.{{.Name}} != nil:
		return enc.Encode(*d.{{.Name}})
{{end}}	}
	return fmt.Errorf("{{.Package}}: document has no variant to marshal")
}

// UnmarshalJSON dispatches on the single discriminant key of the object.
func (d *Document) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	switch {
{{range .Variants}}	case fields[{{printf "%q" .Discriminant}}] != nil:
		var v {{.TypeRef}}
		if err := json.Unmarshal(fields[{{printf "%q" .Discriminant}}], &v); err != nil {
			return err
		}
		d.{{.Name}} = &v
		return nil
{{end}}	}
	return fmt.Errorf("{{.Package}}: no matching document variant in JSON object")
}

// MarshalJSON encodes the populated variant as a single-key object tagged
// by its discriminant.
func (d Document) MarshalJSON() ([]byte, error) {
	switch {
{{range .Variants}}	case d.{{.Name}} != nil:
		return json.Marshal(map[string]*{{.TypeRef}}{ {{printf "%q" .Discriminant}}: d.{{.Name}} })
{{end}}	}
	return nil, fmt.Errorf("{{.Package}}: document has no variant to marshal")
}

// ParseDocument parses raw message bytes in either wire format and returns
// a document with exactly one populated variant.
func ParseDocument(data []byte) (*Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("{{.Package}}: empty document")
	}

	var d Document
	var err error
	if trimmed[0] == '<' {
		err = xml.Unmarshal(trimmed, &d)
	} else {
		err = json.Unmarshal(trimmed, &d)
	}
	if err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}
`

var documentTmpl = template.Must(template.New("document").Parse(documentTemplate))

type importSpec struct {
	Alias   string
	Path    string
	Aliased bool
}

type variantData struct {
	Name         string
	Discriminant string
	TypeRef      string
}

type templateData struct {
	Header   string
	Package  string
	Family   string
	Imports  []importSpec
	Variants []variantData
}

// Render emits the family's document.go source.
func (f *Family) Render(tree *parser.Tree) ([]byte, error) {
	data := templateData{
		Header:  strings.TrimRight(codegen.Header, "\n"),
		Package: f.Package,
		Family:  f.Name,
	}

	seen := make(map[string]importSpec)
	for _, v := range f.Variants {
		mod := tree.Module(v.Module)
		if mod == nil {
			return nil, fmt.Errorf("envelope: variant %s references missing module %s", v.Name, v.Module)
		}
		importPath := mod.ImportPath(tree.ImportBase)
		if _, done := seen[v.Module]; !done {
			seen[v.Module] = importSpec{
				Alias:   mod.Package,
				Path:    importPath,
				Aliased: mod.Package != path.Base(importPath),
			}
		}
		data.Variants = append(data.Variants, variantData{
			Name:         v.Name,
			Discriminant: v.Discriminant,
			TypeRef:      mod.Package + "." + v.TypeName,
		})
	}
	for _, spec := range seen {
		data.Imports = append(data.Imports, spec)
	}
	sort.Slice(data.Imports, func(i, j int) bool { return data.Imports[i].Path < data.Imports[j].Path })

	var b strings.Builder
	if err := documentTmpl.Execute(&b, data); err != nil {
		return nil, fmt.Errorf("envelope: rendering family %s: %w", f.Name, err)
	}
	return codegen.Format(path.Join(f.Dir, "document.go"), []byte(b.String()))
}

// Files stages one document.go per synthesized family. Failed families
// contribute nothing.
func (r *Result) Files(tree *parser.Tree) ([]fileutil.File, error) {
	var files []fileutil.File
	for i := range r.Families {
		f := &r.Families[i]
		src, err := f.Render(tree)
		if err != nil {
			return nil, err
		}
		files = append(files, fileutil.File{
			Path:    path.Join(f.Dir, "document.go"),
			Content: src,
		})
	}
	return files, nil
}
