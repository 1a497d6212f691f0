package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/morezero/interaction-router/pkg/interaction"
	"github.com/morezero/interaction-router/pkg/registry"
)

// Hash returns a stable digest of the command definitions. Manifest name,
// version and description do not contribute.
func Hash(m *Manifest) (string, error) {
	data, err := json.Marshal(m.Commands)
	if err != nil {
		return "", fmt.Errorf("manifest:sync - hash: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Action is the outcome of Decide.
type Action string

const (
	ActionSync   Action = "sync"
	ActionSkip   Action = "skip"
	ActionReject Action = "reject"
)

// Decision explains what a sync run should do.
type Decision struct {
	Action Action
	Reason string
	Hash   string
}

// DecideParams holds parameters for Decide.
type DecideParams struct {
	Manifest      *Manifest
	StoredVersion string // empty when nothing was synced yet
	StoredHash    string
	Force         bool
}

// Decide compares a manifest with the last synced state.
//
//   - nothing stored: sync
//   - same version and same hash: skip (force syncs anyway)
//   - older version: reject unless forced
//   - anything else: sync
func Decide(params DecideParams) (Decision, error) {
	hash, err := Hash(params.Manifest)
	if err != nil {
		return Decision{}, err
	}
	next, err := semver.StrictNewVersion(params.Manifest.Version)
	if err != nil {
		return Decision{}, interaction.NewError(interaction.CodeInvalidArgument,
			fmt.Sprintf("manifest version %q: %v", params.Manifest.Version, err))
	}

	if params.StoredVersion == "" {
		return Decision{Action: ActionSync, Reason: "no previous sync", Hash: hash}, nil
	}
	prev, err := semver.NewVersion(params.StoredVersion)
	if err != nil {
		return Decision{Action: ActionSync, Reason: fmt.Sprintf("stored version %q unreadable", params.StoredVersion), Hash: hash}, nil
	}

	switch {
	case next.LessThan(prev):
		if params.Force {
			return Decision{Action: ActionSync, Reason: fmt.Sprintf("forced downgrade %s -> %s", prev, next), Hash: hash}, nil
		}
		return Decision{Action: ActionReject, Reason: fmt.Sprintf("manifest %s is older than synced %s", next, prev), Hash: hash}, nil
	case next.Equal(prev) && hash == params.StoredHash:
		if params.Force {
			return Decision{Action: ActionSync, Reason: "forced", Hash: hash}, nil
		}
		return Decision{Action: ActionSkip, Reason: fmt.Sprintf("%s already synced", next), Hash: hash}, nil
	case next.Equal(prev):
		return Decision{Action: ActionSync, Reason: fmt.Sprintf("commands changed without a version bump (%s)", next), Hash: hash}, nil
	default:
		return Decision{Action: ActionSync, Reason: fmt.Sprintf("upgrade %s -> %s", prev, next), Hash: hash}, nil
	}
}

// CrossCheck compares declared command paths with registered command routes.
// It returns one line per declared path with no Action and per registered
// command root missing from the manifest.
func CrossCheck(m *Manifest, routes []registry.Route) []string {
	registered := make(map[string]bool)
	for _, rt := range routes {
		if rt.Kind != interaction.KindCommand || len(rt.Path) == 0 {
			continue
		}
		registered[strings.Join(rt.Path, " ")] = true
	}

	var issues []string
	declared := make(map[string]bool)
	for _, p := range m.Paths() {
		declared[p[0]] = true
		key := strings.Join(p, " ")
		if !registered[key] {
			issues = append(issues, fmt.Sprintf("declared command %q has no registered action", key))
		}
	}
	for _, rt := range routes {
		if rt.Kind != interaction.KindCommand || len(rt.Path) == 0 {
			continue
		}
		if !declared[rt.Path[0]] {
			issues = append(issues, fmt.Sprintf("registered command %q is not declared", strings.Join(rt.Path, " ")))
			declared[rt.Path[0]] = true
		}
	}
	return issues
}
