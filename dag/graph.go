package dag

import (
	"slices"

	"github.com/kbukum/flowkit/errors"
)

// Graph declares nodes and edges (dependency relationships). Node order is
// significant: every ordering computed from a graph breaks ties by the
// position of the node in Nodes.
type Graph struct {
	Nodes []string
	Edges []Edge
}

// Edge represents a dependency: To depends on From.
type Edge struct {
	From string
	To   string
}

// AddNode appends name unless it is already present.
func (g *Graph) AddNode(name string) {
	if !slices.Contains(g.Nodes, name) {
		g.Nodes = append(g.Nodes, name)
	}
}

// AddEdge records that to depends on from.
func (g *Graph) AddEdge(from, to string) {
	g.Edges = append(g.Edges, Edge{From: from, To: to})
}

type adjacency struct {
	index      map[string]int
	dependents [][]int
	inDegree   []int
}

func (g *Graph) adjacency() (*adjacency, error) {
	a := &adjacency{
		index:      make(map[string]int, len(g.Nodes)),
		dependents: make([][]int, len(g.Nodes)),
		inDegree:   make([]int, len(g.Nodes)),
	}
	for i, name := range g.Nodes {
		if _, dup := a.index[name]; dup {
			return nil, errors.DuplicateProcess(name)
		}
		a.index[name] = i
	}
	for _, e := range g.Edges {
		from, ok := a.index[e.From]
		if !ok {
			return nil, errors.NoSuchProcess(e.From)
		}
		to, ok := a.index[e.To]
		if !ok {
			return nil, errors.NoSuchProcess(e.To)
		}
		a.inDegree[to]++
		a.dependents[from] = append(a.dependents[from], to)
	}
	return a, nil
}

// BuildLevels uses Kahn's algorithm to group nodes by dependency level.
// Nodes within the same level do not depend on each other. A residual
// cycle fails with PIPELINE_CYCLE naming every node on a cycle.
func BuildLevels(g *Graph) ([][]string, error) {
	a, err := g.adjacency()
	if err != nil {
		return nil, err
	}

	var queue []int
	for i, deg := range a.inDegree {
		if deg == 0 {
			queue = append(queue, i)
		}
	}

	var levels [][]string
	visited := 0

	for len(queue) > 0 {
		level := make([]string, len(queue))
		for i, n := range queue {
			level[i] = g.Nodes[n]
		}
		levels = append(levels, level)
		visited += len(queue)

		var next []int
		for _, n := range queue {
			for _, dep := range a.dependents[n] {
				a.inDegree[dep]--
				if a.inDegree[dep] == 0 {
					next = append(next, dep)
				}
			}
		}
		slices.Sort(next)
		queue = next
	}

	if visited != len(g.Nodes) {
		var members []string
		for _, cycle := range Cycles(g) {
			members = append(members, cycle...)
		}
		slices.SortFunc(members, func(x, y string) int { return a.index[x] - a.index[y] })
		return nil, errors.PipelineCycle(members)
	}

	return levels, nil
}

// Sort returns the nodes in a deterministic topological order: level by
// level, and by declaration order within a level.
func Sort(g *Graph) ([]string, error) {
	levels, err := BuildLevels(g)
	if err != nil {
		return nil, err
	}
	order := make([]string, 0, len(g.Nodes))
	for _, level := range levels {
		order = append(order, level...)
	}
	return order, nil
}

// Cycles returns the strongly connected components that contain a cycle:
// components of more than one node, and single nodes with a self edge.
// Members of each component are in declaration order; components are
// ordered by their first member. Edges naming unknown nodes are ignored.
func Cycles(g *Graph) [][]string {
	index := make(map[string]int, len(g.Nodes))
	for i, name := range g.Nodes {
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	adj := make([][]int, len(g.Nodes))
	self := make([]bool, len(g.Nodes))
	for _, e := range g.Edges {
		from, ok1 := index[e.From]
		to, ok2 := index[e.To]
		if !ok1 || !ok2 {
			continue
		}
		if from == to {
			self[from] = true
		}
		adj[from] = append(adj[from], to)
	}

	t := tarjan{
		adj:     adj,
		index:   make([]int, len(g.Nodes)),
		low:     make([]int, len(g.Nodes)),
		onStack: make([]bool, len(g.Nodes)),
	}
	for i := range t.index {
		t.index[i] = -1
	}
	for i := range g.Nodes {
		if t.index[i] < 0 {
			t.visit(i)
		}
	}

	var cycles [][]string
	for _, comp := range t.components {
		if len(comp) == 1 && !self[comp[0]] {
			continue
		}
		slices.Sort(comp)
		names := make([]string, len(comp))
		for i, n := range comp {
			names[i] = g.Nodes[n]
		}
		cycles = append(cycles, names)
	}
	slices.SortFunc(cycles, func(x, y []string) int { return index[x[0]] - index[y[0]] })
	return cycles
}

type tarjan struct {
	adj        [][]int
	counter    int
	index      []int
	low        []int
	onStack    []bool
	stack      []int
	components [][]int
}

func (t *tarjan) visit(v int) {
	t.index[v] = t.counter
	t.low[v] = t.counter
	t.counter++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, w := range t.adj[v] {
		switch {
		case t.index[w] < 0:
			t.visit(w)
			t.low[v] = min(t.low[v], t.low[w])
		case t.onStack[w]:
			t.low[v] = min(t.low[v], t.index[w])
		}
	}

	if t.low[v] != t.index[v] {
		return
	}
	var comp []int
	for {
		w := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.onStack[w] = false
		comp = append(comp, w)
		if w == v {
			break
		}
	}
	t.components = append(t.components, comp)
}
