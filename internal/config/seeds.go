package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/garyjia/approval-workflow/internal/domain/entity"
)

// WorkflowSeed is one workflow definition in the seed file
type WorkflowSeed struct {
	OrganizationID string             `yaml:"organization_id"`
	Name           string             `yaml:"name"`
	EntityType     string             `yaml:"entity_type"`
	Active         *bool              `yaml:"active"`
	Conditions     []entity.Condition `yaml:"conditions"`
	Steps          []entity.Step      `yaml:"steps"`
}

type seedFile struct {
	Workflows []WorkflowSeed `yaml:"workflows"`
}

// LoadWorkflowSeeds parses a YAML seed file. Unknown keys are rejected so a
// misspelt field fails at start-up instead of producing a looser workflow.
func LoadWorkflowSeeds(path string) ([]WorkflowSeed, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)

	var file seedFile
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}

	for i, seed := range file.Workflows {
		if seed.OrganizationID == "" {
			return nil, fmt.Errorf("seed file %s: workflows[%d].organization_id is required", path, i)
		}
	}

	return file.Workflows, nil
}
