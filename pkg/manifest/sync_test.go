package manifest

import (
	"context"
	"strings"
	"testing"

	"github.com/morezero/interaction-router/pkg/interaction"
	"github.com/morezero/interaction-router/pkg/registry"
	"github.com/morezero/interaction-router/pkg/session"
)

func TestHash_IgnoresMetadata(t *testing.T) {
	a := Default()
	b := Default()
	b.Version = "2.0.0"
	b.Description = "changed"

	ha, _ := Hash(a)
	hb, _ := Hash(b)
	if ha != hb {
		t.Error("manifest:sync_test - metadata changed the hash")
	}

	b.Commands[0].Description = "Different"
	hb, _ = Hash(b)
	if ha == hb {
		t.Error("manifest:sync_test - command change did not change the hash")
	}
}

func TestDecide(t *testing.T) {
	m := Default()
	hash, _ := Hash(m)

	tests := []struct {
		name    string
		version string
		stored  string
		hash    string
		force   bool
		want    Action
	}{
		{"first sync", "1.0.0", "", "", false, ActionSync},
		{"unchanged", "1.0.0", "1.0.0", hash, false, ActionSkip},
		{"unchanged forced", "1.0.0", "1.0.0", hash, true, ActionSync},
		{"content changed same version", "1.0.0", "1.0.0", "other", false, ActionSync},
		{"upgrade", "1.1.0", "1.0.0", hash, false, ActionSync},
		{"downgrade", "1.0.0", "1.2.0", "other", false, ActionReject},
		{"forced downgrade", "1.0.0", "1.2.0", "other", true, ActionSync},
		{"unreadable stored version", "1.0.0", "garbage", hash, false, ActionSync},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mm := *m
			mm.Version = tt.version
			d, err := Decide(DecideParams{Manifest: &mm, StoredVersion: tt.stored, StoredHash: tt.hash, Force: tt.force})
			if err != nil {
				t.Fatalf("manifest:sync_test - Decide failed: %v", err)
			}
			if d.Action != tt.want {
				t.Errorf("manifest:sync_test - action = %s (%s), want %s", d.Action, d.Reason, tt.want)
			}
			if d.Hash != hash {
				t.Errorf("manifest:sync_test - decision hash = %s, want %s", d.Hash, hash)
			}
		})
	}
}

func TestDecide_InvalidVersion(t *testing.T) {
	m := Default()
	m.Version = "latest"
	_, err := Decide(DecideParams{Manifest: m})
	if !interaction.IsCode(err, interaction.CodeInvalidArgument) {
		t.Errorf("manifest:sync_test - expected INVALID_ARGUMENT, got %v", err)
	}
}

func TestCrossCheck(t *testing.T) {
	noop := func(context.Context, *session.Context, interaction.Options) (*interaction.Message, error) {
		return nil, nil
	}
	reg := registry.NewRegistry()
	reg.MustRegister(registry.RegisterParams{Kind: interaction.KindCommand, ID: "ping", Action: registry.Plain("ping", "", noop)})
	reg.MustRegister(registry.RegisterParams{Kind: interaction.KindCommand, ID: "stats", Action: registry.Plain("stats", "", noop)})
	reg.MustRegister(registry.RegisterParams{Kind: interaction.KindComponent, ID: "echo", Action: registry.Plain("btn", "", noop)})

	issues := CrossCheck(Default(), reg.Routes())
	joined := strings.Join(issues, "\n")

	for _, want := range []string{
		`declared command "help" has no registered action`,
		`declared command "echo" has no registered action`,
		`registered command "stats" is not declared`,
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("manifest:sync_test - missing issue %q in %v", want, issues)
		}
	}
	if len(issues) != 3 {
		t.Errorf("manifest:sync_test - expected 3 issues, got %d: %v", len(issues), issues)
	}
}
