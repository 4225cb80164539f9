package playbook

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// State is the document written to dump_path at the end of a run.
type State struct {
	TaskResults map[string]any `yaml:"task_results"`
	Variables   map[string]any `yaml:"variables"`
}

// DumpState atomically writes the run's final task results and variables
// to path as YAML: write to a temp file in the same directory, then rename,
// so a crash mid-write never leaves a truncated dump at path.
func DumpState(path string, state State) error {
	data, err := yaml.Marshal(state)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create dump directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".dump-*")
	if err != nil {
		return fmt.Errorf("create temp dump file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp dump file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp dump file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp dump file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("chmod temp dump file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename dump file into place: %w", err)
	}

	success = true
	return nil
}
