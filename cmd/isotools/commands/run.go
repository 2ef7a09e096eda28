package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/openpayments/isotools/internal/cliutil"
	"github.com/openpayments/isotools/internal/fileutil"
	"github.com/openpayments/isotools/pipeline"
)

// RunFlags contains flags for the run command
type RunFlags struct {
	Config           string
	Output           string
	ImportBase       string
	Subtrees         subtreeFlag
	Placement        string
	CommonModule     string
	DropUnreferenced bool
	Families         familyFlag
	SkipEnvelope     bool
	SkipManifests    bool
	Report           string
	Format           string
	Quiet            bool
}

// SetupRunFlags creates and configures a FlagSet for the run command.
// Returns the FlagSet and a RunFlags struct with bound flag variables.
func SetupRunFlags() (*flag.FlagSet, *RunFlags) {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	flags := &RunFlags{
		Families: make(familyFlag),
	}

	fs.StringVar(&flags.Config, "config", "", "YAML run configuration file; flags override its values")
	fs.StringVar(&flags.Output, "o", "", "output directory (default: rewrite the tree in place)")
	fs.StringVar(&flags.Output, "output", "", "output directory (default: rewrite the tree in place)")
	fs.StringVar(&flags.ImportBase, "import-base", "", "module import base (default: detect from go.mod)")
	fs.Var(&flags.Subtrees, "subtree", "top-level directory to deduplicate within (can be repeated)")
	fs.StringVar(&flags.Placement, "placement", "", "canonical placement: colocated or hoisted (default: colocated)")
	fs.StringVar(&flags.CommonModule, "common-module", "", "shared module path for hoisted placement (default: common)")
	fs.BoolVar(&flags.DropUnreferenced, "drop-unreferenced", false, "also drop unexported helpers nothing references after merging")
	fs.Var(flags.Families, "family", "envelope family grouping (format: family=dir1,dir2, can be repeated)")
	fs.BoolVar(&flags.SkipEnvelope, "skip-envelope", false, "skip envelope synthesis")
	fs.BoolVar(&flags.SkipManifests, "skip-manifests", false, "skip manifest and package doc emission")
	fs.StringVar(&flags.Report, "report", "", "write the run report to this file instead of stdout")
	fs.StringVar(&flags.Format, "format", FormatText, "report format: text, json, or yaml")
	fs.BoolVar(&flags.Quiet, "q", false, "quiet mode: suppress the text summary")
	fs.BoolVar(&flags.Quiet, "quiet", false, "quiet mode: suppress the text summary")

	fs.Usage = func() {
		cliutil.Writef(fs.Output(), "Usage: isotools run [flags] <tree-root>\n\n")
		cliutil.Writef(fs.Output(), "Unify a generated message tree: merge duplicated type definitions,\n")
		cliutil.Writef(fs.Output(), "rewrite references, emit directory manifests, and synthesize per-family\n")
		cliutil.Writef(fs.Output(), "document envelopes. Output is committed only after all consistency\n")
		cliutil.Writef(fs.Output(), "checks pass.\n\n")
		cliutil.Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		cliutil.Writef(fs.Output(), "\nExamples:\n")
		cliutil.Writef(fs.Output(), "  isotools run ./messages\n")
		cliutil.Writef(fs.Output(), "  isotools run -o ./unified ./messages\n")
		cliutil.Writef(fs.Output(), "  isotools run --placement hoisted --common-module common ./messages\n")
		cliutil.Writef(fs.Output(), "  isotools run --subtree pacs --subtree camt ./messages\n")
		cliutil.Writef(fs.Output(), "  isotools run --family incoming=pacs,head --family outgoing=camt ./messages\n")
		cliutil.Writef(fs.Output(), "  isotools run --config run.yaml --report report.yaml --format yaml\n")
	}

	return fs, flags
}

// HandleRun executes the run command
func HandleRun(args []string) error {
	fs, flags := SetupRunFlags()

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if err := ValidateOutputFormat(flags.Format); err != nil {
		return err
	}

	cfg, err := runConfig(fs, flags)
	if err != nil {
		return err
	}

	report, err := pipeline.Run(context.Background(), cfg)
	if err != nil {
		return fmt.Errorf("running pipeline: %w", err)
	}

	if flags.Report != "" {
		if err := writeReport(report, flags.Report, flags.Format); err != nil {
			return err
		}
	}

	switch {
	case flags.Quiet:
	case flags.Format == FormatText:
		printRunSummary(cfg, report)
	case flags.Report == "":
		if err := OutputStructured(report, flags.Format); err != nil {
			return err
		}
	}
	return nil
}

// runConfig merges the optional config file with command-line flags; flags
// win where both are set.
func runConfig(fs *flag.FlagSet, flags *RunFlags) (pipeline.Config, error) {
	var cfg pipeline.Config
	if flags.Config != "" {
		loaded, err := pipeline.LoadConfig(flags.Config)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	switch fs.NArg() {
	case 0:
		if cfg.Root == "" {
			fs.Usage()
			return cfg, fmt.Errorf("run command requires a tree root argument or a config file naming one")
		}
	case 1:
		cfg.Root = fs.Arg(0)
	default:
		fs.Usage()
		return cfg, fmt.Errorf("run command takes at most one tree root argument")
	}

	if flags.Output != "" {
		cfg.Output = flags.Output
	}
	if flags.ImportBase != "" {
		cfg.ImportBase = flags.ImportBase
	}
	if len(flags.Subtrees) > 0 {
		cfg.Subtrees = flags.Subtrees
	}
	if flags.Placement != "" {
		cfg.Placement = flags.Placement
	}
	if flags.CommonModule != "" {
		cfg.CommonModule = flags.CommonModule
	}
	if flags.DropUnreferenced {
		cfg.DropUnreferenced = true
	}
	if len(flags.Families) > 0 {
		cfg.Families = flags.Families
	}
	if flags.SkipEnvelope {
		cfg.SkipEnvelope = true
	}
	if flags.SkipManifests {
		cfg.SkipManifests = true
	}
	return cfg, nil
}

// writeReport serializes the report to a file. Text format falls back to
// YAML so the file is always machine-readable.
func writeReport(report *pipeline.Report, path, format string) error {
	var data []byte
	var err error
	switch format {
	case FormatJSON:
		data, err = report.EncodeJSON()
	default:
		data, err = report.EncodeYAML()
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, fileutil.ReadableByAll); err != nil {
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	return nil
}

func printRunSummary(cfg pipeline.Config, report *pipeline.Report) {
	output := cfg.Output
	if output == "" {
		output = cfg.Root
	}

	fmt.Printf("Unified %d modules into %s\n", report.Modules, output)
	fmt.Printf("Distinct shapes: %d\n", report.DistinctShapes)
	fmt.Printf("Removed definitions: %d\n", report.RemovedDefinitions)

	if len(report.Groups) > 0 {
		fmt.Printf("\nMerged groups:\n")
		for _, g := range report.Groups {
			fmt.Printf("  %s (%d occurrences)\n", g.Canonical, g.Occurrences)
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
	if len(report.Families) > 0 {
		fmt.Printf("\nEnvelope families:\n")
		for _, f := range report.Families {
			if f.Error != "" {
				fmt.Printf("  %s: FAILED (%s)\n", f.Family, f.Error)
			} else {
				fmt.Printf("  %s: %d variants\n", f.Family, f.Variants)
			}
		}
	}
	if len(report.Warnings) > 0 {
		fmt.Printf("\nWarnings:\n")
		for _, w := range report.Warnings {
			fmt.Printf("  - %s\n", strings.TrimSpace(w))
		}
	}
}
