package playbook

import (
	"os"
	"path/filepath"
	"testing"

	crunchizeerrors "github.com/hristovelev/crunchize/internal/errors"
)

const samplePlaybook = `
vars:
  root: /plates

config:
  file_amount: 0.5

tasks:
  - type: filein
    args:
      pattern: "{{ root }}/**/*.exr"
  - name: reroot
    type: pathmap
    args:
      search: plates
      replace: renders
`

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "playbook.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaultsTaskNames(t *testing.T) {
	path := writeTemp(t, samplePlaybook)
	pb, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if pb.Tasks[0].Name != "Task 0" {
		t.Errorf("Tasks[0].Name = %q, want %q", pb.Tasks[0].Name, "Task 0")
	}
	if pb.Tasks[1].Name != "reroot" {
		t.Errorf("Tasks[1].Name = %q, want explicit name preserved", pb.Tasks[1].Name)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/playbook.yaml")
	ce := crunchizeerrors.AsCrunchizeError(err)
	if ce == nil || ce.Code != crunchizeerrors.CodePlaybookMissing {
		t.Fatalf("Load() error = %v, want CodePlaybookMissing", err)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeTemp(t, "tasks: [this is not: valid: yaml")
	_, err := Load(path)
	ce := crunchizeerrors.AsCrunchizeError(err)
	if ce == nil || ce.Code != crunchizeerrors.CodePlaybookInvalid {
		t.Fatalf("Load() error = %v, want CodePlaybookInvalid", err)
	}
}

func TestConfigOverridesApply(t *testing.T) {
	base := DefaultConfig()
	amount := 0.3
	overrides := Overrides{FileAmount: &amount}

	got := overrides.Apply(base)
	if got.FileAmount != 0.3 {
		t.Errorf("FileAmount = %v, want 0.3", got.FileAmount)
	}
	if got.EveryNth != base.EveryNth {
		t.Errorf("EveryNth should be unchanged, got %v", got.EveryNth)
	}
}

func TestDiscoverGlobalConfigNoFile(t *testing.T) {
	overrides, err := DiscoverGlobalConfig([]string{t.TempDir()})
	if err != nil {
		t.Fatalf("DiscoverGlobalConfig() error = %v", err)
	}
	if overrides.FileAmount != nil {
		t.Error("expected no overrides when no config file is present")
	}
}

func TestDiscoverGlobalConfigReadsFile(t *testing.T) {
	dir := t.TempDir()
	content := "every_nth: 3\nfile_amount: 0.25\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	overrides, err := DiscoverGlobalConfig([]string{dir})
	if err != nil {
		t.Fatalf("DiscoverGlobalConfig() error = %v", err)
	}
	if overrides.EveryNth == nil || *overrides.EveryNth != 3 {
		t.Errorf("EveryNth = %v, want 3", overrides.EveryNth)
	}
	if overrides.FileAmount == nil || *overrides.FileAmount != 0.25 {
		t.Errorf("FileAmount = %v, want 0.25", overrides.FileAmount)
	}
}

func TestLayeringPrecedence(t *testing.T) {
	base := DefaultConfig()

	globalAmount := 0.9
	global := Overrides{FileAmount: &globalAmount}
	cfg := global.Apply(base)

	pbAmount := 0.5
	pbOverrides := Overrides{FileAmount: &pbAmount}
	cfg = pbOverrides.Apply(cfg)

	if cfg.FileAmount != 0.5 {
		t.Errorf("playbook config should win over global, got %v", cfg.FileAmount)
	}

	cliAmount := 0.1
	cliOverrides := Overrides{FileAmount: &cliAmount}
	cfg = cliOverrides.Apply(cfg)

	if cfg.FileAmount != 0.1 {
		t.Errorf("CLI flag should win over playbook config, got %v", cfg.FileAmount)
	}
}
