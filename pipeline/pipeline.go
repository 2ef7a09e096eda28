package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/openpayments/isotools/assembler"
	"github.com/openpayments/isotools/envelope"
	"github.com/openpayments/isotools/internal/fileutil"
	"github.com/openpayments/isotools/isoerrors"
	"github.com/openpayments/isotools/parser"
	"github.com/openpayments/isotools/unifier"
)

// pipelineLogger is used for stage progress in pipeline functions.
// Tests can replace this with a discard logger.
var pipelineLogger = slog.Default()

// Run executes the full pipeline: parse the tree, unify duplicate shapes,
// re-render every module, assemble manifests, synthesize envelopes, and
// commit the staged output.
//
// Output is all-or-nothing: every stage writes into an in-memory staging
// set, and the set is committed only after every stage has passed. A
// dangling reference detected after rewriting aborts the run with nothing
// written. The context is checked between stages.
func Run(ctx context.Context, cfg Config) (*Report, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	output := cfg.Output
	if output == "" {
		output = cfg.Root
	}

	var parseOpts []parser.Option
	if cfg.ImportBase != "" {
		parseOpts = append(parseOpts, parser.WithImportBase(cfg.ImportBase))
	}
	tree, err := parser.ParseTree(cfg.Root, parseOpts...)
	if err != nil {
		return nil, err
	}
	pipelineLogger.Info("parsed generated tree",
		"modules", len(tree.Modules), "definitions", tree.TypeCount())

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("pipeline: canceled before unification: %w", err)
	}
	ures, err := unifier.Unify(tree, cfg.unifierConfig())
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("pipeline: canceled before rendering: %w", err)
	}
	var staged []fileutil.File
	for _, mod := range tree.Modules {
		src, err := unifier.RenderModule(tree, mod)
		if err != nil {
			return nil, err
		}
		staged = append(staged, fileutil.File{Path: mod.FileName(), Content: src})
		// A rewritten module collapses into its canonical file. Any other
		// file it was parsed from is superseded and must not survive an
		// in-place run, or the next parse would see both definitions.
		for _, f := range mod.SourceFiles {
			if f != mod.FileName() {
				staged = append(staged, fileutil.File{Path: f, Delete: true})
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("pipeline: canceled before assembly: %w", err)
	}
	if !cfg.SkipManifests {
		graph, err := assembler.Assemble(tree)
		if err != nil {
			return nil, err
		}
		files, err := graph.Files(tree)
		if err != nil {
			return nil, err
		}
		staged = append(staged, files...)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("pipeline: canceled before envelope synthesis: %w", err)
	}
	var eres *envelope.Result
	if !cfg.SkipEnvelope {
		eres, err = envelope.Synthesize(tree, envelope.Config{Families: cfg.Families})
		if errors.Is(err, isoerrors.ErrEmptyInput) {
			// A tree without root documents still unifies and assembles.
			pipelineLogger.Warn("no root documents found, skipping envelope synthesis")
			eres = nil
		} else if err != nil {
			return nil, err
		}
		if eres != nil {
			files, err := eres.Files(tree)
			if err != nil {
				return nil, err
			}
			staged = append(staged, files...)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("pipeline: canceled before commit: %w", err)
	}
	if err := fileutil.Commit(output, staged); err != nil {
		return nil, err
	}

	report := buildReport(len(tree.Modules), ures, eres)
	pipelineLogger.Info("pipeline run complete",
		"output", output,
		"files_written", len(staged),
		"groups_merged", len(report.Groups))
	return report, nil
}
