package commands

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetupRunFlags(t *testing.T) {
	fs, flags := SetupRunFlags()

	t.Run("default values", func(t *testing.T) {
		if flags.Output != "" {
			t.Errorf("expected Output to be empty by default, got '%s'", flags.Output)
		}
		if flags.Placement != "" {
			t.Errorf("expected Placement to be empty by default, got '%s'", flags.Placement)
		}
		if flags.Format != FormatText {
			t.Errorf("expected Format '%s' by default, got '%s'", FormatText, flags.Format)
		}
		if flags.Quiet {
			t.Error("expected Quiet to be false by default")
		}
		if flags.DropUnreferenced {
			t.Error("expected DropUnreferenced to be false by default")
		}
	})

	t.Run("parse flags", func(t *testing.T) {
		args := []string{
			"-o", "out",
			"--placement", "hoisted",
			"--subtree", "pacs", "--subtree", "camt",
			"--family", "incoming=pacs",
			"--skip-envelope", "-q",
			"./messages",
		}
		if err := fs.Parse(args); err != nil {
			t.Fatalf("unexpected parse error: %v", err)
		}

		if flags.Output != "out" {
			t.Errorf("expected Output 'out', got '%s'", flags.Output)
		}
		if flags.Placement != "hoisted" {
			t.Errorf("expected Placement 'hoisted', got '%s'", flags.Placement)
		}
		if len(flags.Subtrees) != 2 {
			t.Errorf("expected 2 subtrees, got %v", flags.Subtrees)
		}
		if len(flags.Families) != 1 {
			t.Errorf("expected 1 family, got %v", flags.Families)
		}
		if !flags.SkipEnvelope {
			t.Error("expected SkipEnvelope to be true")
		}
		if !flags.Quiet {
			t.Error("expected Quiet to be true")
		}
		if fs.NArg() != 1 {
			t.Errorf("expected 1 positional arg, got %d", fs.NArg())
		}
	})
}

func TestHandleRun(t *testing.T) {
	root := writeGeneratedTree(t)
	report := filepath.Join(t.TempDir(), "report.yaml")

	err := HandleRun([]string{"-q", "--report", report, "--format", "yaml", root})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The rewritten tree carries manifests and envelopes.
	for _, rel := range []string{"manifest.yaml", "doc.go", "pacs/document.go", "camt/document.go"} {
		if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel))); err != nil {
			t.Errorf("expected %s to exist: %v", rel, err)
		}
	}

	data, err := os.ReadFile(report)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	if !strings.Contains(string(data), "distinct_shapes:") {
		t.Errorf("report missing distinct_shapes: %s", data)
	}
	if !strings.Contains(string(data), "camt/camt_054_001_08.GroupHeader") {
		t.Errorf("report missing canonical group: %s", data)
	}
}

func TestHandleRun_ConfigFile(t *testing.T) {
	root := writeGeneratedTree(t)
	cfgPath := filepath.Join(t.TempDir(), "run.yaml")
	cfg := "root: " + root + "\nskip_envelope: true\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	if err := HandleRun([]string{"-q", "--config", cfgPath}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(root, "manifest.yaml")); err != nil {
		t.Errorf("expected manifest.yaml to exist: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "pacs", "document.go")); err == nil {
		t.Error("expected envelope synthesis to be skipped")
	}
}

func TestHandleRun_NoRoot(t *testing.T) {
	if err := HandleRun([]string{"-q"}); err == nil {
		t.Error("expected error when no tree root is given")
	}
}

func TestHandleRun_TooManyArgs(t *testing.T) {
	if err := HandleRun([]string{"-q", "a", "b"}); err == nil {
		t.Error("expected error for extra positional args")
	}
}

func TestHandleRun_InvalidFormat(t *testing.T) {
	if err := HandleRun([]string{"--format", "xml", "tree"}); err == nil {
		t.Error("expected error for invalid format")
	}
}

func TestHandleRun_InvalidPlacement(t *testing.T) {
	root := writeGeneratedTree(t)
	if err := HandleRun([]string{"-q", "--placement", "scattered", root}); err == nil {
		t.Error("expected error for unknown placement mode")
	}
}

func TestHandleRun_Help(t *testing.T) {
	if err := HandleRun([]string{"--help"}); err != nil {
		t.Errorf("expected nil error for --help, got %v", err)
	}
}
