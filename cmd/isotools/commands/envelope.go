package commands

import (
	"errors"
	"flag"
	"fmt"

	"github.com/openpayments/isotools/envelope"
	"github.com/openpayments/isotools/internal/cliutil"
)

// EnvelopeFlags contains flags for the envelope command
type EnvelopeFlags struct {
	ImportBase string
	Families   familyFlag
	Format     string
}

// SetupEnvelopeFlags creates and configures a FlagSet for the envelope command.
// Returns the FlagSet and an EnvelopeFlags struct with bound flag variables.
func SetupEnvelopeFlags() (*flag.FlagSet, *EnvelopeFlags) {
	fs := flag.NewFlagSet("envelope", flag.ContinueOnError)
	flags := &EnvelopeFlags{
		Families: make(familyFlag),
	}

	fs.StringVar(&flags.ImportBase, "import-base", "", "module import base (default: detect from go.mod)")
	fs.Var(flags.Families, "family", "family grouping (format: family=dir1,dir2, can be repeated)")
	fs.StringVar(&flags.Format, "format", FormatText, "output format: text, json, or yaml")

	fs.Usage = func() {
		cliutil.Writef(fs.Output(), "Usage: isotools envelope [flags] <tree-root>\n\n")
		cliutil.Writef(fs.Output(), "Discover root document types per message family and check that their\n")
		cliutil.Writef(fs.Output(), "XML root element names are unambiguous. Reports each family's\n")
		cliutil.Writef(fs.Output(), "variants without generating anything.\n\n")
		cliutil.Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		cliutil.Writef(fs.Output(), "\nExamples:\n")
		cliutil.Writef(fs.Output(), "  isotools envelope ./messages\n")
		cliutil.Writef(fs.Output(), "  isotools envelope --family incoming=pacs,head --family outgoing=camt ./messages\n")
	}

	return fs, flags
}

// envelopeReport is the structured output of the envelope command.
type envelopeReport struct {
	Families []familyReport  `yaml:"families,omitempty" json:"families,omitempty"`
	Failures []failureReport `yaml:"failures,omitempty" json:"failures,omitempty"`
}

type familyReport struct {
	Family   string          `yaml:"family" json:"family"`
	Dir      string          `yaml:"dir" json:"dir"`
	Package  string          `yaml:"package" json:"package"`
	Variants []variantReport `yaml:"variants" json:"variants"`
}

type variantReport struct {
	Name         string `yaml:"name" json:"name"`
	Discriminant string `yaml:"discriminant" json:"discriminant"`
	Type         string `yaml:"type" json:"type"`
}

type failureReport struct {
	Family string `yaml:"family" json:"family"`
	Error  string `yaml:"error" json:"error"`
}

// HandleEnvelope executes the envelope command
func HandleEnvelope(args []string) error {
	fs, flags := SetupEnvelopeFlags()

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
		return fmt.Errorf("envelope command requires exactly one tree root argument")
	}

	tree, err := parseTree(fs.Arg(0), flags.ImportBase)
	if err != nil {
		return err
	}

	result, err := envelope.Synthesize(tree, envelope.Config{Families: flags.Families})
	if err != nil {
		return fmt.Errorf("synthesizing envelopes: %w", err)
	}

	var report envelopeReport
	for _, f := range result.Families {
		fr := familyReport{Family: f.Name, Dir: f.Dir, Package: f.Package}
		for _, v := range f.Variants {
			fr.Variants = append(fr.Variants, variantReport{
				Name:         v.Name,
				Discriminant: v.Discriminant,
				Type:         v.Module + "." + v.TypeName,
			})
		}
		report.Families = append(report.Families, fr)
	}
	for _, f := range result.Failures {
		report.Failures = append(report.Failures, failureReport{
			Family: f.Family,
			Error:  f.Err.Error(),
		})
	}

	if flags.Format != FormatText {
		return OutputStructured(report, flags.Format)
	}

	for _, f := range report.Families {
		fmt.Printf("%s (package %s, %s/document.go)\n", f.Family, f.Package, f.Dir)
		for _, v := range f.Variants {
			fmt.Printf("  %-24s %s\n", v.Discriminant, v.Type)
		}
	}
	for _, f := range report.Failures {
		fmt.Printf("%s: FAILED (%s)\n", f.Family, f.Error)
	}
	return nil
}
