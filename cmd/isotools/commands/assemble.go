package commands

import (
	"errors"
	"flag"
	"fmt"

	"github.com/openpayments/isotools/assembler"
	"github.com/openpayments/isotools/internal/cliutil"
)

// AssembleFlags contains flags for the assemble command
type AssembleFlags struct {
	ImportBase string
	Format     string
}

// SetupAssembleFlags creates and configures a FlagSet for the assemble command.
// Returns the FlagSet and an AssembleFlags struct with bound flag variables.
func SetupAssembleFlags() (*flag.FlagSet, *AssembleFlags) {
	fs := flag.NewFlagSet("assemble", flag.ContinueOnError)
	flags := &AssembleFlags{}

	fs.StringVar(&flags.ImportBase, "import-base", "", "module import base (default: detect from go.mod)")
	fs.StringVar(&flags.Format, "format", FormatText, "output format: text, json, or yaml")

	fs.Usage = func() {
		cliutil.Writef(fs.Output(), "Usage: isotools assemble [flags] <tree-root>\n\n")
		cliutil.Writef(fs.Output(), "Derive the namespace hierarchy of a generated message tree. Reports\n")
		cliutil.Writef(fs.Output(), "one manifest per directory without writing anything.\n\n")
		cliutil.Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		cliutil.Writef(fs.Output(), "\nExamples:\n")
		cliutil.Writef(fs.Output(), "  isotools assemble ./messages\n")
		cliutil.Writef(fs.Output(), "  isotools assemble --format yaml ./messages\n")
	}

	return fs, flags
}

// HandleAssemble executes the assemble command
func HandleAssemble(args []string) error {
	fs, flags := SetupAssembleFlags()

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if err := ValidateOutputFormat(flags.Format); err != nil {
		return err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("assemble command requires exactly one tree root argument")
	}

	tree, err := parseTree(fs.Arg(0), flags.ImportBase)
	if err != nil {
		return err
	}

	graph, err := assembler.Assemble(tree)
	if err != nil {
		return fmt.Errorf("assembling tree: %w", err)
	}

	manifests := graph.Manifests()
	if flags.Format != FormatText {
		return OutputStructured(manifests, flags.Format)
	}

	fmt.Printf("Modules: %d\n", len(graph.Modules()))
	fmt.Printf("Directories: %d\n", len(graph.Directories()))
	for _, m := range manifests {
		name := m.Path
		if name == "" {
			name = "(root)"
		}
		fmt.Printf("\n%s\n", name)
		for _, d := range m.Directories {
			fmt.Printf("  dir    %s\n", d)
		}
		for _, mod := range m.Modules {
			fmt.Printf("  module %s\n", mod)
		}
	}
	return nil
}
