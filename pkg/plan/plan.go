// Package plan loads YAML import plans for batch CLI runs: a list of
// statement files, each with its own import configuration.
package plan

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/caixinha-dev/caixinha/pkg/models"
)

type Plan struct {
	Defaults   Request     `yaml:"defaults"`
	Statements []Statement `yaml:"statements"`
}

type Statement struct {
	File    string  `yaml:"file"`
	Request Request `yaml:"request"`
}

// Request mirrors models.ImportRequest in YAML form. Zero values fall
// back to the plan's defaults.
type Request struct {
	UserID     string              `yaml:"user_id"`
	CategoryID string              `yaml:"category_id"`
	Subtype    string              `yaml:"subtype"`
	SourceID   string              `yaml:"source_id"`
	FileType   string              `yaml:"file_type"`
	Strategy   string              `yaml:"duplicate_strategy"`
	Allocation []models.Allocation `yaml:"allocations"`
	CSV        models.CSVOptions   `yaml:"csv"`
}

// Load reads and validates a plan file.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}

	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}
	if len(p.Statements) == 0 {
		return nil, fmt.Errorf("plan has no statements")
	}
	return &p, nil
}

// Resolve merges a statement's request over the plan defaults and returns
// the ImportRequest for that file.
func (p *Plan) Resolve(st Statement) models.ImportRequest {
	r := st.Request
	if r.UserID == "" {
		r.UserID = p.Defaults.UserID
	}
	if r.CategoryID == "" {
		r.CategoryID = p.Defaults.CategoryID
	}
	if r.Subtype == "" {
		r.Subtype = p.Defaults.Subtype
	}
	if r.SourceID == "" {
		r.SourceID = p.Defaults.SourceID
	}
	if r.FileType == "" {
		r.FileType = p.Defaults.FileType
	}
	if r.Strategy == "" {
		r.Strategy = p.Defaults.Strategy
	}
	if len(r.Allocation) == 0 {
		r.Allocation = p.Defaults.Allocation
	}
	if r.CSV == (models.CSVOptions{}) {
		r.CSV = p.Defaults.CSV
	}

	return models.ImportRequest{
		UserID:      r.UserID,
		CategoryID:  r.CategoryID,
		Subtype:     r.Subtype,
		SourceID:    r.SourceID,
		FileType:    models.FileType(r.FileType),
		Strategy:    models.DuplicateStrategy(r.Strategy),
		Allocations: r.Allocation,
		CSV:         r.CSV,
	}
}
