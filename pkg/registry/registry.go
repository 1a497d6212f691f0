// Package registry maps interaction identifiers to Actions. Command and
// autocomplete entries form trees mirroring the platform's sub-command
// nesting.
package registry

import (
	"fmt"
	"log/slog"

	"github.com/morezero/interaction-router/pkg/interaction"
)

const logPrefix = "registry:registry"

// MaxDepth is the deepest command nesting the platform allows
// (command, group, sub-command).
const MaxDepth = 3

// Node is one position in a registry table.
type Node struct {
	kind     interaction.Kind
	id       string
	action   *Action
	parent   *Node
	depth    int
	children map[string]*Node
	owner    *Registry
}

// Kind returns the table the node lives in.
func (n *Node) Kind() interaction.Kind { return n.kind }

// ID returns the node identifier.
func (n *Node) ID() string { return n.id }

// Action returns the node's Action; nil for pure groups.
func (n *Node) Action() *Action { return n.action }

// Depth is 1 for top-level entries.
func (n *Node) Depth() int { return n.depth }

// Path returns the identifiers from the root down to this node.
func (n *Node) Path() []string {
	path := make([]string, n.depth)
	for cur := n; cur != nil; cur = cur.parent {
		path[cur.depth-1] = cur.id
	}
	return path
}

// Child returns the named child, if any.
func (n *Node) Child(id string) (*Node, bool) {
	c, ok := n.children[id]
	return c, ok
}

// Registry holds one table per interaction kind. It is populated during
// start-up and read-only afterwards; reads take no locks.
type Registry struct {
	tables map[interaction.Kind]map[string]*Node
	sealed bool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	tables := make(map[interaction.Kind]map[string]*Node, len(interaction.Kinds))
	for _, k := range interaction.Kinds {
		tables[k] = make(map[string]*Node)
	}
	return &Registry{tables: tables}
}

// RegisterParams holds parameters for Register.
type RegisterParams struct {
	Kind   interaction.Kind
	ID     string
	Action *Action
	// Parent nests the entry one level below an existing node.
	Parent *Node
}

func nestable(k interaction.Kind) bool {
	return k == interaction.KindCommand || k == interaction.KindAutocomplete
}

// Register inserts an Action under params.ID. A nil Action is allowed for
// command and autocomplete groups that only carry children.
func (r *Registry) Register(params RegisterParams) (*Node, error) {
	if r.sealed {
		return nil, interaction.NewError(interaction.CodeInvalidState, "registry is sealed")
	}
	if params.ID == "" {
		return nil, interaction.NewError(interaction.CodeInvalidArgument, "identifier is required")
	}
	table, ok := r.tables[params.Kind]
	if !ok {
		return nil, interaction.NewError(interaction.CodeInvalidArgument, fmt.Sprintf("unknown interaction kind %q", params.Kind))
	}
	if params.Action == nil && !nestable(params.Kind) {
		return nil, interaction.NewError(interaction.CodeInvalidArgument,
			fmt.Sprintf("%s %q needs an action", params.Kind, params.ID))
	}

	siblings := table
	depth := 1
	if p := params.Parent; p != nil {
		if p.owner != r {
			return nil, interaction.NewError(interaction.CodeInvalidArgument, "parent belongs to another registry")
		}
		if !nestable(params.Kind) || p.kind != params.Kind {
			return nil, interaction.NewError(interaction.CodeInvalidArgument,
				fmt.Sprintf("%s entries cannot be nested under a %s entry", params.Kind, p.kind))
		}
		depth = p.depth + 1
		if depth > MaxDepth {
			return nil, interaction.NewError(interaction.CodeInvalidArgument,
				fmt.Sprintf("%q would be nested %d levels deep, max is %d", params.ID, depth, MaxDepth))
		}
		if p.children == nil {
			p.children = make(map[string]*Node)
		}
		siblings = p.children
	}

	if existing, ok := siblings[params.ID]; ok {
		err := interaction.NewError(interaction.CodeConflict,
			fmt.Sprintf("%s %q is already registered", params.Kind, params.ID))
		err.Details = map[string]interface{}{"path": existing.Path()}
		return nil, err
	}

	node := &Node{kind: params.Kind, id: params.ID, parent: params.Parent, depth: depth, owner: r}
	if params.Action != nil {
		node.action = params.Action.withDefaults(params.ID)
	}
	siblings[params.ID] = node

	slog.Debug(fmt.Sprintf("%s - registered kind=%s path=%v", logPrefix, params.Kind, node.Path()))
	return node, nil
}

// MustRegister is Register for start-up code; it panics on error.
func (r *Registry) MustRegister(params RegisterParams) *Node {
	node, err := r.Register(params)
	if err != nil {
		panic(fmt.Sprintf("%s - %v", logPrefix, err))
	}
	return node
}

// Seal rejects any further registration.
func (r *Registry) Seal() { r.sealed = true }

// Lookup returns the top-level node for id.
func (r *Registry) Lookup(kind interaction.Kind, id string) (*Node, bool) {
	n, ok := r.tables[kind][id]
	return n, ok
}

// Resolve walks from the top-level id through path and returns the leaf
// Action. It fails with NOT_FOUND when a step is missing or the leaf is a
// group without an Action.
func (r *Registry) Resolve(kind interaction.Kind, id string, path []string) (*Action, error) {
	node, ok := r.Lookup(kind, id)
	if !ok {
		return nil, notFound(kind, append([]string{id}, path...), id)
	}
	for _, step := range path {
		next, ok := node.Child(step)
		if !ok {
			return nil, notFound(kind, append([]string{id}, path...), step)
		}
		node = next
	}
	if node.action == nil {
		return nil, notFound(kind, node.Path(), node.id)
	}
	return node.action, nil
}

func notFound(kind interaction.Kind, path []string, missing string) *interaction.Error {
	err := interaction.NewError(interaction.CodeNotFound, fmt.Sprintf("no %s action for %v", kind, path))
	err.Details = map[string]interface{}{"missing": missing}
	return err
}
