package pipeline

import (
	"encoding/json"
	"fmt"
	"sort"

	"go.yaml.in/yaml/v4"

	"github.com/openpayments/isotools/envelope"
	"github.com/openpayments/isotools/unifier"
)

// GroupReport summarizes one merged duplicate group.
type GroupReport struct {
	// Canonical is the surviving definition, "module.Name".
	Canonical string `yaml:"canonical" json:"canonical"`
	// Occurrences is the number of modules that defined the shape.
	Occurrences int `yaml:"occurrences" json:"occurrences"`
	// Members lists every original definition, "module.Name".
	Members []string `yaml:"members" json:"members"`
}

// ExclusionReport summarizes one definition kept out of deduplication.
type ExclusionReport struct {
	Definition string `yaml:"definition" json:"definition"`
	Reason     string `yaml:"reason" json:"reason"`
	Ref        string `yaml:"ref,omitempty" json:"ref,omitempty"`
}

// FamilyReport summarizes envelope synthesis for one family.
type FamilyReport struct {
	Family   string `yaml:"family" json:"family"`
	Variants int    `yaml:"variants,omitempty" json:"variants,omitempty"`
	Error    string `yaml:"error,omitempty" json:"error,omitempty"`
}

// Report is the run summary: what was merged, what was excluded, and how
// each envelope family fared. Serialization is deterministic for a given
// run.
type Report struct {
	// Modules is the number of generated modules in the tree.
	Modules int `yaml:"modules" json:"modules"`
	// DistinctShapes is the number of distinct structural shapes, which
	// the run conserves.
	DistinctShapes int `yaml:"distinct_shapes" json:"distinct_shapes"`
	// RemovedDefinitions is the number of deleted duplicate copies.
	RemovedDefinitions int `yaml:"removed_definitions" json:"removed_definitions"`
	// Groups lists merged duplicate groups ranked by occurrence count,
	// most duplicated first.
	Groups []GroupReport `yaml:"groups,omitempty" json:"groups,omitempty"`
	// Exclusions lists definitions kept out of deduplication.
	Exclusions []ExclusionReport `yaml:"exclusions,omitempty" json:"exclusions,omitempty"`
	// Families lists per-family envelope results, failures included.
	Families []FamilyReport `yaml:"families,omitempty" json:"families,omitempty"`
	// Warnings holds the run's warning messages in emission order.
	Warnings []string `yaml:"warnings,omitempty" json:"warnings,omitempty"`
}

// buildReport folds stage results into the run summary.
func buildReport(moduleCount int, ures *unifier.Result, eres *envelope.Result) *Report {
	r := &Report{
		Modules:            moduleCount,
		DistinctShapes:     ures.DistinctShapes,
		RemovedDefinitions: ures.RemovedDefinitions,
		Warnings:           ures.Warnings.Strings(),
	}

	for _, g := range ures.Groups {
		members := make([]string, 0, len(g.Members))
		for _, m := range g.Members {
			members = append(members, m.String())
		}
		r.Groups = append(r.Groups, GroupReport{
			Canonical:   g.Canonical.String(),
			Occurrences: len(g.Members),
			Members:     members,
		})
	}
	// Rank most-duplicated first, canonical name as tie break.
	sort.SliceStable(r.Groups, func(i, j int) bool {
		if r.Groups[i].Occurrences != r.Groups[j].Occurrences {
			return r.Groups[i].Occurrences > r.Groups[j].Occurrences
		}
		return r.Groups[i].Canonical < r.Groups[j].Canonical
	})

	for _, e := range ures.Exclusions {
		r.Exclusions = append(r.Exclusions, ExclusionReport{
			Definition: e.Module + "." + e.TypeName,
			Reason:     string(e.Reason),
			Ref:        e.Ref,
		})
	}

	if eres != nil {
		for _, f := range eres.Families {
			r.Families = append(r.Families, FamilyReport{
				Family:   f.Name,
				Variants: len(f.Variants),
			})
		}
		for _, f := range eres.Failures {
			r.Families = append(r.Families, FamilyReport{
				Family: f.Family,
				Error:  f.Err.Error(),
			})
		}
		sort.Slice(r.Families, func(i, j int) bool { return r.Families[i].Family < r.Families[j].Family })
	}

	return r
}

// EncodeYAML serializes the report as YAML.
func (r *Report) EncodeYAML() ([]byte, error) {
	data, err := yaml.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("pipeline: encoding report: %w", err)
	}
	return data, nil
}

// EncodeJSON serializes the report as indented JSON.
func (r *Report) EncodeJSON() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("pipeline: encoding report: %w", err)
	}
	return append(data, '\n'), nil
}
