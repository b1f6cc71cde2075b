package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/lodestar/internal/ir"
)

// ChainCycle reports a cycle of GraphRef edges between graphs.
//
// Chain cycles are allowed: the walker holds one active node per graph
// instance and Completed is terminal, so a runtime traversal of a cycle
// stops at the first graph that is already Completed. They are reported at
// info level so authors can confirm the loop is intended.
type ChainCycle struct {
	Path    []string `json:"path"`
	Message string   `json:"message"`
	Level   string   `json:"level"`
}

// AnalyzeChains finds chain cycles with Tarjan's strongly connected
// components algorithm. Acyclic content returns an empty slice.
func AnalyzeChains(graphs []ir.Graph) []ChainCycle {
	edges := chainEdges(graphs)
	if len(edges) == 0 {
		return []ChainCycle{}
	}

	cycles := []ChainCycle{}
	for _, scc := range tarjanSCC(edges) {
		if len(scc) > 1 || slices.Contains(edges[scc[0]], scc[0]) {
			cycles = append(cycles, sccToCycle(scc, edges))
		}
	}
	slices.SortFunc(cycles, func(a, b ChainCycle) int { return strings.Compare(a.Path[0], b.Path[0]) })
	return cycles
}

// chainEdges maps graph id to the sorted, de-duplicated graphs its
// choices chain into.
func chainEdges(graphs []ir.Graph) map[string][]string {
	edges := make(map[string][]string, len(graphs))
	for _, g := range graphs {
		var targets []string
		for _, id := range g.NodeIDs() {
			for _, c := range g.Nodes[id].Choices {
				if c.Next.Graph != "" {
					targets = append(targets, c.Next.Graph)
				}
			}
		}
		slices.Sort(targets)
		edges[g.ID] = slices.Compact(targets)
	}
	return edges
}

// tarjanSCC returns the strongly connected components of edges.
// Vertices are visited in sorted order so output is deterministic.
func tarjanSCC(edges map[string][]string) [][]string {
	var (
		index   int
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var connect func(string)
	connect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range edges[v] {
			if _, visited := indices[w]; !visited {
				connect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
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

	vertices := make([]string, 0, len(edges))
	for v := range edges {
		vertices = append(vertices, v)
	}
	slices.Sort(vertices)
	for _, v := range vertices {
		if _, visited := indices[v]; !visited {
			connect(v)
		}
	}
	return sccs
}

// sccToCycle walks edges inside the component from its smallest id until
// it returns to the start.
func sccToCycle(scc []string, edges map[string][]string) ChainCycle {
	start := scc[0]
	path := []string{start}
	if len(scc) > 1 {
		members := make(map[string]bool, len(scc))
		for _, id := range scc {
			members[id] = true
		}
		visited := map[string]bool{start: true}
		current := start
		for {
			next := ""
			for _, w := range edges[current] {
				if members[w] && (!visited[w] || w == start) {
					next = w
					break
				}
			}
			if next == "" {
				break
			}
			path = append(path, next)
			if next == start {
				break
			}
			visited[next] = true
			current = next
		}
	} else {
		path = append(path, start)
	}

	return ChainCycle{
		Path:    path,
		Message: fmt.Sprintf("graph chain cycle: %s", strings.Join(path, " → ")),
		Level:   "info",
	}
}
