package manifest

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

const logPrefix = "manifest:loader"

// EnvFile names the environment variable holding an explicit manifest path.
const EnvFile = "MANIFEST_FILE"

// DefaultPaths are tried after explicit paths and EnvFile.
var DefaultPaths = []string{"config/commands.yaml", "commands.yaml", "config/commands.json"}

// Load reads the first manifest it can parse. Paths passed in are tried
// first, then MANIFEST_FILE, then DefaultPaths. When nothing parses the
// built-in manifest is returned. JSON files parse as YAML.
func Load(paths ...string) (*Manifest, string, error) {
	all := make([]string, 0, len(paths)+len(DefaultPaths)+1)
	for _, p := range paths {
		if p != "" {
			all = append(all, p)
		}
	}
	if envPath := os.Getenv(EnvFile); envPath != "" {
		all = append(all, envPath)
	}
	all = append(all, DefaultPaths...)

	for _, p := range all {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}

		m, err := Parse(data)
		if err != nil {
			slog.Warn(fmt.Sprintf("%s - Failed to parse manifest %s: %v", logPrefix, p, err))
			continue
		}

		slog.Info(fmt.Sprintf("%s - Loaded manifest %s@%s from %s", logPrefix, m.Name, m.Version, p))
		return m, p, nil
	}

	slog.Info(fmt.Sprintf("%s - Using default manifest", logPrefix))
	return Default(), "", nil
}

// LoadFile reads exactly one manifest file and fails if it cannot be parsed.
func LoadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s - read %s: %w", logPrefix, path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s - parse %s: %w", logPrefix, path, err)
	}
	return m, nil
}

// Parse decodes a YAML or JSON manifest.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m.Name == "" && m.Version == "" && len(m.Commands) == 0 {
		return nil, fmt.Errorf("%s - empty manifest", logPrefix)
	}
	return &m, nil
}

// Marshal renders the manifest as YAML.
func Marshal(m *Manifest) ([]byte, error) {
	return yaml.Marshal(m)
}

// Default returns the manifest for the built-in commands.
func Default() *Manifest {
	return &Manifest{
		Name:        "interaction-router",
		Version:     "1.0.0",
		Description: "Built-in commands",
		Commands: []Command{
			{
				Name:        "ping",
				Description: "Check that the bot is responding",
			},
			{
				Name:        "help",
				Description: "List available commands",
				Options: []Option{
					{Name: "command", Description: "Only show routes starting with this command", Type: OptionString, Autocomplete: true},
				},
			},
			{
				Name:        "echo",
				Description: "Repeat a message",
				Options: []Option{
					{Name: "text", Description: "Text to repeat", Type: OptionString, Required: true},
					{Name: "ephemeral", Description: "Only show the reply to you", Type: OptionBoolean},
				},
			},
		},
	}
}
