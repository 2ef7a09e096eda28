package pipeline

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v4"

	"github.com/openpayments/isotools/isoerrors"
	"github.com/openpayments/isotools/unifier"
)

// Config configures one pipeline run. The zero value is not runnable; Root
// is required.
type Config struct {
	// Root is the directory of the generated tree to unify.
	Root string `yaml:"root"`
	// Output is the directory the rewritten tree is committed to. Empty
	// means in-place (Output = Root).
	Output string `yaml:"output,omitempty"`
	// ImportBase overrides the Go import path prefix of the tree. Empty
	// means detect from the tree's go.mod.
	ImportBase string `yaml:"import_base,omitempty"`

	// Subtrees restricts deduplication to the named top-level directories.
	Subtrees []string `yaml:"subtrees,omitempty"`
	// Placement is the canonical copy placement mode: "colocated" or
	// "hoisted". Empty means colocated.
	Placement string `yaml:"placement,omitempty"`
	// CommonModule is the shared module path used by hoisted placement.
	CommonModule string `yaml:"common_module,omitempty"`
	// DropUnreferenced prunes unexported helper definitions nothing
	// references after unification.
	DropUnreferenced bool `yaml:"drop_unreferenced,omitempty"`

	// Families maps family names to top-level directories for envelope
	// synthesis, e.g. incoming/outgoing. Empty means one family per
	// top-level directory.
	Families map[string][]string `yaml:"families,omitempty"`
	// SkipEnvelope disables envelope synthesis.
	SkipEnvelope bool `yaml:"skip_envelope,omitempty"`
	// SkipManifests disables manifest and doc.go emission.
	SkipManifests bool `yaml:"skip_manifests,omitempty"`
}

// LoadConfig reads a YAML run configuration file.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("pipeline: reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("pipeline: parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// validate rejects unrunnable configurations before any stage starts.
func (c Config) validate() error {
	if c.Root == "" {
		return &isoerrors.ConfigError{
			Option:  "root",
			Message: "tree root is required",
		}
	}
	if c.Placement != "" && !unifier.IsValidPlacementMode(c.Placement) {
		return &isoerrors.ConfigError{
			Option:  "placement",
			Value:   c.Placement,
			Message: "unknown placement mode",
		}
	}
	return nil
}

// unifierConfig translates the run configuration for the unifier stage.
func (c Config) unifierConfig() unifier.Config {
	ucfg := unifier.DefaultConfig()
	ucfg.Subtrees = c.Subtrees
	if c.Placement != "" {
		ucfg.Placement = unifier.PlacementMode(c.Placement)
	}
	if c.CommonModule != "" {
		ucfg.CommonModule = c.CommonModule
	}
	ucfg.DropUnreferenced = c.DropUnreferenced
	return ucfg
}
