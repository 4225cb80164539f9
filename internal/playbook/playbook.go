// Package playbook loads playbook documents and layers configuration from
// the global defaults file, the playbook itself, and CLI flags.
package playbook

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	crunchizeerrors "github.com/hristovelev/crunchize/internal/errors"
)

// TaskDefinition is one entry in a playbook's tasks list.
type TaskDefinition struct {
	Name     string         `yaml:"name"`
	Type     string         `yaml:"type"`
	Args     map[string]any `yaml:"args"`
	Loop     any            `yaml:"loop"`
	Input    string         `yaml:"input"`
	Batch    bool           `yaml:"batch"`
	Register string         `yaml:"register"`
}

// Playbook is the parsed document driving a run.
type Playbook struct {
	Vars   map[string]any `yaml:"vars"`
	Config Overrides      `yaml:"config"`
	Tasks  []TaskDefinition `yaml:"tasks"`
}

// Load reads and parses a playbook file, defaulting unnamed tasks to
// "Task <index>" in the order they appear.
func Load(path string) (*Playbook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, crunchizeerrors.ErrPlaybookMissing(path)
		}
		return nil, crunchizeerrors.ErrPlaybookInvalid(path, err)
	}

	var pb Playbook
	if err := yaml.Unmarshal(data, &pb); err != nil {
		return nil, crunchizeerrors.ErrPlaybookInvalid(path, err)
	}

	for i := range pb.Tasks {
		if pb.Tasks[i].Name == "" {
			pb.Tasks[i].Name = fmt.Sprintf("Task %d", i)
		}
	}

	return &pb, nil
}
