// Package order computes the backend emission order.
//
// The dependency graph is built over concrete live items from their
// recorded reference sets. Tarjan's algorithm finds the strongly
// connected components; the emission sequence is the SCCs in reverse
// completion order, which places every group after the groups it
// depends on. Mutual recursion is a normal outcome here, represented
// as an explicit multi-member group carrying its members' termination
// measures, never an ordering error.
//
// Iteration is by item ID and reference sets are sorted, so the output
// is bit-for-bit reproducible across runs.
package order

import (
	"slices"

	"github.com/veil-verify/veil/internal/extract"
	"github.com/veil-verify/veil/internal/ir"
)

// Group is one emission unit: a single item, or a mutually recursive
// set verified together.
type Group struct {
	// Members in ascending item ID order.
	Members []ir.ItemID
	// Recursive is true for multi-member groups and self-loops. The
	// members' termination measures combine lexicographically for the
	// cross-item termination check.
	Recursive bool
	// Measures holds each member's termination measure (nil when the
	// member declares none), indexed like Members. Only populated for
	// recursive groups.
	Measures []ir.Expr
}

// Run orders the live items. Exclusion is re-checked first because
// monomorphization can introduce references that did not exist when
// specifications were extracted; those failures are the only errors
// this phase surfaces.
func Run(arena *ir.Arena, failed map[ir.ItemID]bool) ([]Group, []*extract.SpecError) {
	errs := extract.CheckExclusions(arena, failed)

	var nodes []ir.ItemID
	emit := make(map[ir.ItemID]bool)
	for _, it := range arena.Items() {
		if !emittable(it, failed) {
			continue
		}
		nodes = append(nodes, it.ID)
		emit[it.ID] = true
	}

	// Edges point at dependencies and stay within the emittable set.
	edges := make(map[ir.ItemID][]ir.ItemID, len(nodes))
	for _, id := range nodes {
		for _, ref := range arena.Get(id).Refs {
			if emit[ref] {
				edges[id] = append(edges[id], ref)
			}
		}
	}

	sccs := tarjan(nodes, edges)

	groups := make([]Group, 0, len(sccs))
	for _, scc := range sccs {
		g := Group{Members: scc}
		g.Recursive = len(scc) > 1 || selfLoop(scc[0], edges)
		if g.Recursive {
			g.Measures = make([]ir.Expr, len(scc))
			for i, id := range scc {
				if c := arena.Get(id).Contract; c != nil {
					g.Measures[i] = c.Decreases
				}
			}
		}
		groups = append(groups, g)
	}
	return groups, errs
}

// emittable reports whether an item belongs in the backend output.
// Generic templates stay behind as instantiation sources; excluded
// items were verified unreferenced above; traits and impls carry no
// proof content of their own once calls are resolved.
func emittable(it *ir.Item, failed map[ir.ItemID]bool) bool {
	if failed[it.ID] || it.IsGeneric() {
		return false
	}
	if it.Visibility == ir.VisExcluded {
		return false
	}
	switch it.Kind {
	case ir.KindFunction, ir.KindType, ir.KindConst:
		return true
	default:
		return false
	}
}

func selfLoop(id ir.ItemID, edges map[ir.ItemID][]ir.ItemID) bool {
	for _, dep := range edges[id] {
		if dep == id {
			return true
		}
	}
	return false
}

// tarjan returns the strongly connected components in reverse
// topological order of the condensation: dependencies before
// dependents. Nodes must be sorted; within a component, members are
// re-sorted by ID before return.
func tarjan(nodes []ir.ItemID, edges map[ir.ItemID][]ir.ItemID) [][]ir.ItemID {
	var (
		index   int
		stack   []ir.ItemID
		indices = make(map[ir.ItemID]int, len(nodes))
		lowlink = make(map[ir.ItemID]int, len(nodes))
		onStack = make(map[ir.ItemID]bool, len(nodes))
		sccs    [][]ir.ItemID
	)

	var strongConnect func(ir.ItemID)
	strongConnect = func(v ir.ItemID) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range edges[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []ir.ItemID
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			slices.Sort(scc)
			sccs = append(sccs, scc)
		}
	}

	for _, v := range nodes {
		if _, visited := indices[v]; !visited {
			strongConnect(v)
		}
	}
	return sccs
}
