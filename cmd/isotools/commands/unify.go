package commands

import (
	"errors"
	"flag"
	"fmt"

	"github.com/openpayments/isotools/internal/cliutil"
	"github.com/openpayments/isotools/parser"
	"github.com/openpayments/isotools/unifier"
)

// UnifyFlags contains flags for the unify command
type UnifyFlags struct {
	ImportBase       string
	Subtrees         subtreeFlag
	Placement        string
	CommonModule     string
	DropUnreferenced bool
	Format           string
	Quiet            bool
}

// SetupUnifyFlags creates and configures a FlagSet for the unify command.
// Returns the FlagSet and a UnifyFlags struct with bound flag variables.
func SetupUnifyFlags() (*flag.FlagSet, *UnifyFlags) {
	fs := flag.NewFlagSet("unify", flag.ContinueOnError)
	flags := &UnifyFlags{}

	fs.StringVar(&flags.ImportBase, "import-base", "", "module import base (default: detect from go.mod)")
	fs.Var(&flags.Subtrees, "subtree", "top-level directory to deduplicate within (can be repeated)")
	fs.StringVar(&flags.Placement, "placement", "", "canonical placement: colocated or hoisted (default: colocated)")
	fs.StringVar(&flags.CommonModule, "common-module", "", "shared module path for hoisted placement (default: common)")
	fs.BoolVar(&flags.DropUnreferenced, "drop-unreferenced", false, "also report unexported helpers nothing references after merging")
	fs.StringVar(&flags.Format, "format", FormatText, "output format: text, json, or yaml")
	fs.BoolVar(&flags.Quiet, "q", false, "quiet mode: only report merged group counts")
	fs.BoolVar(&flags.Quiet, "quiet", false, "quiet mode: only report merged group counts")

	fs.Usage = func() {
		cliutil.Writef(fs.Output(), "Usage: isotools unify [flags] <tree-root>\n\n")
		cliutil.Writef(fs.Output(), "Analyze a generated message tree for structurally duplicated type\n")
		cliutil.Writef(fs.Output(), "definitions. Reports what a run would merge without rewriting\n")
		cliutil.Writef(fs.Output(), "anything.\n\n")
		cliutil.Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		cliutil.Writef(fs.Output(), "\nExamples:\n")
		cliutil.Writef(fs.Output(), "  isotools unify ./messages\n")
		cliutil.Writef(fs.Output(), "  isotools unify --subtree pacs ./messages\n")
		cliutil.Writef(fs.Output(), "  isotools unify --format yaml ./messages\n")
	}

	return fs, flags
}

// unifyReport is the structured output of the unify command.
type unifyReport struct {
	Modules            int         `yaml:"modules" json:"modules"`
	DistinctShapes     int         `yaml:"distinct_shapes" json:"distinct_shapes"`
	RemovedDefinitions int         `yaml:"removed_definitions" json:"removed_definitions"`
	Groups             []group     `yaml:"groups,omitempty" json:"groups,omitempty"`
	Exclusions         []exclusion `yaml:"exclusions,omitempty" json:"exclusions,omitempty"`
	Warnings           []string    `yaml:"warnings,omitempty" json:"warnings,omitempty"`
}

type group struct {
	Canonical   string   `yaml:"canonical" json:"canonical"`
	Occurrences int      `yaml:"occurrences" json:"occurrences"`
	Members     []string `yaml:"members" json:"members"`
}

type exclusion struct {
	Definition string `yaml:"definition" json:"definition"`
	Reason     string `yaml:"reason" json:"reason"`
	Ref        string `yaml:"ref,omitempty" json:"ref,omitempty"`
}

// HandleUnify executes the unify command
func HandleUnify(args []string) error {
	fs, flags := SetupUnifyFlags()

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
		return fmt.Errorf("unify command requires exactly one tree root argument")
	}

	tree, err := parseTree(fs.Arg(0), flags.ImportBase)
	if err != nil {
		return err
	}

	cfg := unifier.DefaultConfig()
	cfg.Subtrees = flags.Subtrees
	if flags.Placement != "" {
		cfg.Placement = unifier.PlacementMode(flags.Placement)
	}
	if flags.CommonModule != "" {
		cfg.CommonModule = flags.CommonModule
	}
	cfg.DropUnreferenced = flags.DropUnreferenced

	// Analysis only: the tree is mutated in memory and discarded.
	result, err := unifier.Unify(tree, cfg)
	if err != nil {
		return fmt.Errorf("unifying tree: %w", err)
	}

	report := unifyReport{
		Modules:            len(tree.Modules),
		DistinctShapes:     result.DistinctShapes,
		RemovedDefinitions: result.RemovedDefinitions,
		Warnings:           result.Warnings.Strings(),
	}
	for _, g := range result.Groups {
		members := make([]string, 0, len(g.Members))
		for _, m := range g.Members {
			members = append(members, m.String())
		}
		report.Groups = append(report.Groups, group{
			Canonical:   g.Canonical.String(),
			Occurrences: len(g.Members),
			Members:     members,
		})
	}
	for _, e := range result.Exclusions {
		report.Exclusions = append(report.Exclusions, exclusion{
			Definition: e.Module + "." + e.TypeName,
			Reason:     string(e.Reason),
			Ref:        e.Ref,
		})
	}

	if flags.Format != FormatText {
		return OutputStructured(report, flags.Format)
	}

	if flags.Quiet {
		fmt.Printf("%d groups would merge, removing %d definitions\n", len(report.Groups), report.RemovedDefinitions)
		return nil
	}

	fmt.Printf("Modules: %d\n", report.Modules)
	fmt.Printf("Distinct shapes: %d\n", report.DistinctShapes)
	fmt.Printf("Definitions a run would remove: %d\n", report.RemovedDefinitions)
	if len(report.Groups) > 0 {
		fmt.Printf("\nDuplicate groups:\n")
		for _, g := range report.Groups {
			fmt.Printf("  %s (%d occurrences)\n", g.Canonical, g.Occurrences)
			for _, m := range g.Members {
				fmt.Printf("    - %s\n", m)
			}
		}
	}
	if len(report.Exclusions) > 0 {
		fmt.Printf("\nExcluded from deduplication:\n")
		for _, e := range report.Exclusions {
			if e.Ref != "" {
				fmt.Printf("  %s: %s (%s)\n", e.Definition, e.Reason, e.Ref)
			} else {
				fmt.Printf("  %s: %s\n", e.Definition, e.Reason)
			}
		}
	}
	return nil
}

// parseTree parses the generated tree at root for inspection commands.
func parseTree(root, importBase string) (*parser.Tree, error) {
	var opts []parser.Option
	if importBase != "" {
		opts = append(opts, parser.WithImportBase(importBase))
	}
	tree, err := parser.ParseTree(root, opts...)
	if err != nil {
		return nil, fmt.Errorf("parsing tree: %w", err)
	}
	return tree, nil
}
