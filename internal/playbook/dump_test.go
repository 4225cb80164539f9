package playbook

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestDumpStateWritesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "state.yaml")

	state := State{
		TaskResults: map[string]any{"filein": []any{"a.exr", "b.exr"}},
		Variables:   map[string]any{"root": "/plates"},
	}

	if err := DumpState(path, state); err != nil {
		t.Fatalf("DumpState() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	var got State
	if err := yaml.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got.Variables["root"] != "/plates" {
		t.Errorf("Variables = %+v", got.Variables)
	}
}

func TestDumpStateCreatesParentDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runs", "latest", "state.yaml")

	if err := DumpState(path, State{}); err != nil {
		t.Fatalf("DumpState() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
}

func TestDumpStateOverwritesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.yaml")

	first := State{Variables: map[string]any{"root": "/first"}}
	second := State{Variables: map[string]any{"root": "/second"}}

	if err := DumpState(path, first); err != nil {
		t.Fatalf("first DumpState() error = %v", err)
	}
	if err := DumpState(path, second); err != nil {
		t.Fatalf("second DumpState() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	var got State
	if err := yaml.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got.Variables["root"] != "/second" {
		t.Errorf("Variables = %+v, want root=/second", got.Variables)
	}
}

func TestDumpStateLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.yaml")

	if err := DumpState(path, State{}); err != nil {
		t.Fatalf("DumpState() error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	for _, entry := range entries {
		if entry.Name() != "state.yaml" {
			t.Errorf("unexpected leftover file in dump directory: %s", entry.Name())
		}
	}
}
