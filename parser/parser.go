package parser

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/mod/modfile"
)

// parserLogger is used for non-fatal findings while loading a tree.
// Tests can replace this with a discard logger to suppress expected warnings.
var parserLogger = slog.Default()

// generatedByIsotools marks files synthesized by isotools itself (manifests,
// envelope documents). They are skipped when a tree is re-parsed so that
// repeated pipeline runs see the same input modules.
const generatedByIsotools = "Code generated by isotools"

// options configures tree loading.
type options struct {
	importBase    string
	skipGenerated bool
}

// Option configures ParseTree.
type Option func(*options)

// WithImportBase sets the Go import path prefix of the generated tree.
// When unset, ParseTree reads the module directive from a go.mod in the tree
// root, falling back to the root directory name.
func WithImportBase(base string) Option {
	return func(o *options) { o.importBase = base }
}

// WithSkipGenerated controls whether files previously synthesized by
// isotools are skipped. Defaults to true.
func WithSkipGenerated(skip bool) Option {
	return func(o *options) { o.skipGenerated = skip }
}

// ParseTree loads every generated module under root into a Tree.
//
// One directory containing Go sources is one module. Files are parsed in
// name order so declaration order is deterministic for multi-file modules.
// Definitions the model cannot express are logged and skipped; a file that
// is not valid Go is fatal, since the translator guarantees well-formed
// output.
func ParseTree(root string, opts ...Option) (*Tree, error) {
	o := options{skipGenerated: true}
	for _, opt := range opts {
		opt(&o)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("parser: resolving root %q: %w", root, err)
	}
	if info, err := os.Stat(absRoot); err != nil {
		return nil, fmt.Errorf("parser: tree root %q: %w", root, err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("parser: tree root %q is not a directory", root)
	}

	importBase := o.importBase
	if importBase == "" {
		importBase = detectImportBase(absRoot)
	}

	files := map[string][]string{} // module path -> file paths
	err = filepath.WalkDir(absRoot, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && p != absRoot {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".go") || strings.HasSuffix(d.Name(), "_test.go") {
			return nil
		}
		rel, err := filepath.Rel(absRoot, filepath.Dir(p))
		if err != nil {
			return err
		}
		if rel == "." {
			// Files directly in the root (go.mod companions, doc stubs)
			// are not modules.
			return nil
		}
		modPath := filepath.ToSlash(rel)
		files[modPath] = append(files[modPath], p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("parser: walking %q: %w", root, err)
	}

	modPaths := make([]string, 0, len(files))
	for p := range files {
		modPaths = append(modPaths, p)
	}
	sort.Strings(modPaths)

	var modules []*Module
	fset := token.NewFileSet()
	for _, modPath := range modPaths {
		paths := files[modPath]
		sort.Strings(paths)
		mod, err := parseModule(fset, modPath, paths, importBase, o.skipGenerated)
		if err != nil {
			return nil, err
		}
		if mod != nil {
			modules = append(modules, mod)
		}
	}

	return NewTree(absRoot, importBase, modules), nil
}

// detectImportBase reads the module path from a go.mod in the tree root.
func detectImportBase(absRoot string) string {
	data, err := os.ReadFile(filepath.Join(absRoot, "go.mod"))
	if err == nil {
		if path := modfile.ModulePath(data); path != "" {
			return path
		}
	}
	return filepath.Base(absRoot)
}

// parseModule parses all source files of one module directory.
// Returns nil when every file was skipped as isotools output.
func parseModule(fset *token.FileSet, modPath string, filePaths []string, importBase string, skipGenerated bool) (*Module, error) {
	mod := &Module{Path: modPath}

	for _, filePath := range filePaths {
		src, err := os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("parser: reading %s: %w", filePath, err)
		}
		if skipGenerated && strings.Contains(string(src), generatedByIsotools) {
			continue
		}

		file, err := parser.ParseFile(fset, filePath, src, parser.ParseComments)
		if err != nil {
			return nil, fmt.Errorf("parser: %w", err)
		}
		mod.SourceFiles = append(mod.SourceFiles, path.Join(modPath, filepath.Base(filePath)))
		if mod.Package == "" {
			mod.Package = file.Name.Name
		} else if mod.Package != file.Name.Name {
			return nil, fmt.Errorf("parser: module %s: conflicting package names %s and %s",
				modPath, mod.Package, file.Name.Name)
		}

		imports := moduleImports(file, importBase)
		if err := collectDefinitions(mod, file, imports); err != nil {
			return nil, err
		}
	}

	if mod.Package == "" {
		return nil, nil
	}
	mod.reindex()
	return mod, nil
}

// moduleImports maps file-local package aliases to tree-relative module
// paths. Imports from outside the tree are left out, so references through
// them become external.
func moduleImports(file *ast.File, importBase string) map[string]string {
	imports := make(map[string]string)
	for _, imp := range file.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		rel, found := strings.CutPrefix(path, importBase+"/")
		if !found {
			continue
		}
		alias := rel[strings.LastIndexByte(rel, '/')+1:]
		if imp.Name != nil {
			alias = imp.Name.Name
		}
		imports[alias] = rel
	}
	return imports
}

// collectDefinitions extracts type definitions and enum const blocks from
// one file into the module.
func collectDefinitions(mod *Module, file *ast.File, imports map[string]string) error {
	byName := make(map[string]*TypeDefinition)
	for _, td := range mod.Types {
		byName[td.Name] = td
	}

	var funcCount int
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			switch d.Tok {
			case token.TYPE:
				for _, spec := range d.Specs {
					ts, ok := spec.(*ast.TypeSpec)
					if !ok {
						continue
					}
					td, err := typeDefFromSpec(ts, d.Doc, imports)
					if err != nil {
						parserLogger.Warn("skipping definition the model cannot express",
							"module", mod.Path, "error", err)
						continue
					}
					if existing := byName[td.Name]; existing != nil {
						return fmt.Errorf("parser: module %s: duplicate definition of %s", mod.Path, td.Name)
					}
					byName[td.Name] = td
					mod.Types = append(mod.Types, td)
				}
			case token.CONST:
				attachEnumValues(byName, d)
			}
		case *ast.FuncDecl:
			funcCount++
		}
	}

	if funcCount > 0 {
		// The translator emits pure data types; methods would be lost on
		// rewrite, so surface them loudly.
		parserLogger.Warn("module contains function declarations that will not survive rewriting",
			"module", mod.Path, "count", funcCount)
	}
	return nil
}
