package structure

import (
	"fmt"
	"sort"
	"strings"

	"github.com/workstream-hq/payroll-engine-go/internal/domain/salary"
)

// buildGraph turns a structure's mappings into an adjacency list keyed by
// component id. An edge A -> B means A's percentage base is B; components
// without a base are roots. Fails when a base references a component that is
// not mapped into the structure.
func buildGraph(mappings []salary.ComponentMapping) (map[string][]string, error) {
	adj := make(map[string][]string, len(mappings))
	for _, m := range mappings {
		adj[m.ComponentID] = nil
	}

	for _, m := range mappings {
		if m.PercentageOfComponentID == nil {
			continue
		}
		base := *m.PercentageOfComponentID
		if _, ok := adj[base]; !ok {
			return nil, fmt.Errorf("%w: component %q references %q", salary.ErrInvalidReference, m.ComponentID, base)
		}
		adj[m.ComponentID] = append(adj[m.ComponentID], base)
	}

	return adj, nil
}

// DFS colors
const (
	white = iota // unvisited
	gray         // on the current path
	black        // done
)

// topologicalOrder returns an evaluation order in which every component comes
// after anything it depends on as a percentage base. Depth-first with
// three-color marking; a gray node reached again is a back-edge, reported with
// the component ids forming the cycle. Roots are seeded in sorted id order so
// the result is deterministic.
func topologicalOrder(adj map[string][]string) ([]string, error) {
	ids := make([]string, 0, len(adj))
	for id := range adj {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	color := make(map[string]int, len(adj))
	order := make([]string, 0, len(adj))
	var path []string

	var visit func(id string) error
	visit = func(id string) error {
		color[id] = gray
		path = append(path, id)

		for _, base := range adj[id] {
			switch color[base] {
			case gray:
				return fmt.Errorf("%w: %s", salary.ErrCyclicDependency, cycleString(path, base))
			case white:
				if err := visit(base); err != nil {
					return err
				}
			}
		}

		path = path[:len(path)-1]
		color[id] = black
		// Post-order append puts every base before its dependents.
		order = append(order, id)
		return nil
	}

	for _, id := range ids {
		if color[id] == white {
			if err := visit(id); err != nil {
				return nil, err
			}
		}
	}

	return order, nil
}

// cycleString renders the cycle portion of the DFS path for diagnostics,
// e.g. "a -> b -> a".
func cycleString(path []string, start string) string {
	from := 0
	for i, id := range path {
		if id == start {
			from = i
			break
		}
	}
	cycle := append(append([]string{}, path[from:]...), start)
	return strings.Join(cycle, " -> ")
}
