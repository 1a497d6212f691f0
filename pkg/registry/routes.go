package registry

import (
	"sort"
	"strings"

	"github.com/morezero/interaction-router/pkg/interaction"
)

// Route describes one registered Action.
type Route struct {
	Kind        interaction.Kind `json:"kind"`
	Path        []string         `json:"path"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Variant     string           `json:"variant"`
}

// String renders the route as "kind path...".
func (rt Route) String() string {
	return rt.Kind.String() + " " + strings.Join(rt.Path, " ")
}

// Routes lists every node that carries an Action, ordered by kind then path.
func (r *Registry) Routes() []Route {
	var out []Route
	for _, k := range interaction.Kinds {
		for _, n := range r.tables[k] {
			out = collect(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return strings.Join(out[i].Path, " ") < strings.Join(out[j].Path, " ")
	})
	return out
}

func collect(out []Route, n *Node) []Route {
	if n.action != nil {
		out = append(out, Route{
			Kind:        n.kind,
			Path:        n.Path(),
			Name:        n.action.Name,
			Description: n.action.Description,
			Variant:     n.action.Variant.String(),
		})
	}
	for _, c := range n.children {
		out = collect(out, c)
	}
	return out
}
