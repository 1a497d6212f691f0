package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `
name: demo
version: 1.2.0
commands:
  - name: settings
    description: Manage settings
    options:
      - name: notifications
        description: Notification settings
        type: sub_command_group
        options:
          - name: enable
            description: Turn notifications on
            type: sub_command
  - name: Report
    type: message
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("manifest:loader_test - failed to write %s: %v", name, err)
	}
	return path
}

func TestDefault_IsValid(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("manifest:loader_test - default manifest invalid: %v", err)
	}
}

func TestLoad_ExplicitPathWins(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "commands.yaml", sampleYAML)
	t.Setenv(EnvFile, writeFile(t, dir, "other.yaml", "name: other\nversion: 9.0.0\n"))

	m, from, err := Load(path)
	if err != nil {
		t.Fatalf("manifest:loader_test - Load failed: %v", err)
	}
	if from != path {
		t.Errorf("manifest:loader_test - loaded from %q, want %q", from, path)
	}
	if m.Name != "demo" || m.Version != "1.2.0" {
		t.Errorf("manifest:loader_test - got %s@%s, want demo@1.2.0", m.Name, m.Version)
	}
	if len(m.Commands) != 2 {
		t.Fatalf("manifest:loader_test - expected 2 commands, got %d", len(m.Commands))
	}
	if m.Commands[1].EffectiveType() != CommandMessage {
		t.Errorf("manifest:loader_test - second command type = %s", m.Commands[1].EffectiveType())
	}
}

func TestLoad_EnvFallbackAndJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "commands.json", `{"name":"json","version":"0.1.0","commands":[{"name":"ping","description":"Ping"}]}`)
	t.Setenv(EnvFile, path)

	m, from, err := Load(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatalf("manifest:loader_test - Load failed: %v", err)
	}
	if from != path || m.Name != "json" {
		t.Errorf("manifest:loader_test - got %q from %q", m.Name, from)
	}
}

func TestLoad_SkipsUnparseable(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.yaml", "commands: [unterminated")
	good := writeFile(t, dir, "good.yaml", sampleYAML)
	t.Setenv(EnvFile, "")

	m, from, err := Load(bad, good)
	if err != nil {
		t.Fatalf("manifest:loader_test - Load failed: %v", err)
	}
	if from != good || m.Name != "demo" {
		t.Errorf("manifest:loader_test - expected demo from good.yaml, got %q from %q", m.Name, from)
	}
}

func TestLoad_DefaultWhenNothingFound(t *testing.T) {
	t.Setenv(EnvFile, "")
	saved := DefaultPaths
	DefaultPaths = []string{filepath.Join(t.TempDir(), "commands.yaml")}
	defer func() { DefaultPaths = saved }()

	m, from, err := Load()
	if err != nil {
		t.Fatalf("manifest:loader_test - Load failed: %v", err)
	}
	if from != "" {
		t.Errorf("manifest:loader_test - expected built-in manifest, loaded %q", from)
	}
	if m.Name != Default().Name {
		t.Errorf("manifest:loader_test - got %q, want default", m.Name)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadFile(filepath.Join(dir, "nope.yaml")); err == nil {
		t.Error("manifest:loader_test - expected error for missing file")
	}
	if _, err := LoadFile(writeFile(t, dir, "empty.yaml", "{}")); err == nil {
		t.Error("manifest:loader_test - expected error for empty manifest")
	}
}

func TestMarshal_RoundTripsCommands(t *testing.T) {
	data, err := Marshal(Default())
	if err != nil {
		t.Fatalf("manifest:loader_test - Marshal failed: %v", err)
	}
	m, err := Parse(data)
	if err != nil {
		t.Fatalf("manifest:loader_test - Parse failed: %v", err)
	}
	want, _ := Hash(Default())
	got, _ := Hash(m)
	if got != want {
		t.Error("manifest:loader_test - hash changed after YAML round trip")
	}
}

func TestPaths(t *testing.T) {
	m, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("manifest:loader_test - Parse failed: %v", err)
	}
	paths := m.Paths()
	if len(paths) != 1 {
		t.Fatalf("manifest:loader_test - expected 1 path, got %v", paths)
	}
	if got := paths[0]; len(got) != 3 || got[0] != "settings" || got[1] != "notifications" || got[2] != "enable" {
		t.Errorf("manifest:loader_test - path = %v", got)
	}
}
