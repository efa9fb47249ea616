package topology

import (
	"slices"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/multi"
	"gonum.org/v1/gonum/graph/topo"
)

// Node and Arc are arena handles. A handle is never reused by the graph that
// issued it and is preserved by Copy.
type (
	Node int64
	Arc  int64
)

const (
	InvalidNode Node = -1
	InvalidArc  Arc  = -1
)

type ends struct {
	from, to Node
}

// Graph is a directed multigraph. Storage and connectivity queries are
// delegated to a gonum multi.DirectedGraph; Graph adds stable creation-order
// iteration and per-node arc lists so that enumeration is deterministic.
type Graph struct {
	g *multi.DirectedGraph

	nodes []Node
	arcs  []Arc
	ends  map[Arc]ends
	in    map[Node][]Arc
	out   map[Node][]Arc

	nextNode Node
	nextArc  Arc
}

func New() *Graph {
	return &Graph{
		g:    multi.NewDirectedGraph(),
		ends: make(map[Arc]ends),
		in:   make(map[Node][]Arc),
		out:  make(map[Node][]Arc),
	}
}

func (g *Graph) AddNode() Node {
	n := g.nextNode
	g.nextNode++
	g.g.AddNode(multi.Node(n))
	g.nodes = append(g.nodes, n)
	g.in[n] = nil
	g.out[n] = nil
	return n
}

// AddArc adds an arc u->v. It returns InvalidArc if either end is not a node
// of g.
func (g *Graph) AddArc(u, v Node) Arc {
	if !g.HasNode(u) || !g.HasNode(v) {
		return InvalidArc
	}
	a := g.nextArc
	g.nextArc++
	g.g.SetLine(multi.Line{F: multi.Node(u), T: multi.Node(v), UID: int64(a)})
	g.arcs = append(g.arcs, a)
	g.ends[a] = ends{from: u, to: v}
	g.out[u] = append(g.out[u], a)
	g.in[v] = append(g.in[v], a)
	return a
}

// EraseArc removes a. Erasing an unknown arc is a no-op.
func (g *Graph) EraseArc(a Arc) {
	e, ok := g.ends[a]
	if !ok {
		return
	}
	g.g.RemoveLine(int64(e.from), int64(e.to), int64(a))
	delete(g.ends, a)
	g.arcs = remove(g.arcs, a)
	g.out[e.from] = remove(g.out[e.from], a)
	g.in[e.to] = remove(g.in[e.to], a)
}

// EraseNode removes v with every arc incident to it and returns those arcs.
func (g *Graph) EraseNode(v Node) []Arc {
	if !g.HasNode(v) {
		return nil
	}
	incident := make([]Arc, 0, len(g.in[v])+len(g.out[v]))
	incident = append(incident, g.out[v]...)
	for _, a := range g.in[v] {
		if g.ends[a].from != v {
			incident = append(incident, a)
		}
	}
	for _, a := range incident {
		g.EraseArc(a)
	}
	g.g.RemoveNode(int64(v))
	g.nodes = remove(g.nodes, v)
	delete(g.in, v)
	delete(g.out, v)
	return incident
}

// Clear removes every node and arc. Handles issued before Clear stay unused.
func (g *Graph) Clear() {
	g.g = multi.NewDirectedGraph()
	g.nodes = nil
	g.arcs = nil
	g.ends = make(map[Arc]ends)
	g.in = make(map[Node][]Arc)
	g.out = make(map[Node][]Arc)
}

func (g *Graph) HasNode(v Node) bool {
	_, ok := g.in[v]
	return ok
}

func (g *Graph) HasArc(a Arc) bool {
	_, ok := g.ends[a]
	return ok
}

// Nodes returns a snapshot of the nodes in creation order.
func (g *Graph) Nodes() []Node { return slices.Clone(g.nodes) }

// Arcs returns a snapshot of the arcs in creation order.
func (g *Graph) Arcs() []Arc { return slices.Clone(g.arcs) }

// InArcs returns the arcs entering v. The slice is owned by g and is only
// valid until the next structural edit.
func (g *Graph) InArcs(v Node) []Arc { return g.in[v] }

// OutArcs returns the arcs leaving v. The slice is owned by g and is only
// valid until the next structural edit.
func (g *Graph) OutArcs(v Node) []Arc { return g.out[v] }

func (g *Graph) OutDegree(v Node) int { return len(g.out[v]) }

func (g *Graph) InDegree(v Node) int { return len(g.in[v]) }

func (g *Graph) Source(a Arc) Node {
	e, ok := g.ends[a]
	if !ok {
		return InvalidNode
	}
	return e.from
}

func (g *Graph) Target(a Arc) Node {
	e, ok := g.ends[a]
	if !ok {
		return InvalidNode
	}
	return e.to
}

// FindArc returns the oldest arc u->v, or InvalidArc if there is none.
func (g *Graph) FindArc(u, v Node) Arc {
	if !g.HasNode(u) || !g.g.HasEdgeFromTo(int64(u), int64(v)) {
		return InvalidArc
	}
	for _, a := range g.out[u] {
		if g.ends[a].to == v {
			return a
		}
	}
	return InvalidArc
}

// Adjacent reports whether an arc exists between u and v in either direction.
func (g *Graph) Adjacent(u, v Node) bool {
	return g.g.HasEdgeBetween(int64(u), int64(v))
}

func (g *Graph) CountNodes() int { return len(g.nodes) }

func (g *Graph) CountArcs() int { return len(g.arcs) }

// WeaklyConnectedComponents counts the connected components of the
// undirected closure of g. An empty graph has none.
func (g *Graph) WeaklyConnectedComponents() int {
	if len(g.nodes) == 0 {
		return 0
	}
	return len(topo.ConnectedComponents(graph.Undirect{G: g.g}))
}

// Copy returns a deep copy of g. Node and arc handles are preserved.
func (g *Graph) Copy() *Graph {
	c := &Graph{
		g:        multi.NewDirectedGraph(),
		nodes:    slices.Clone(g.nodes),
		arcs:     slices.Clone(g.arcs),
		ends:     make(map[Arc]ends, len(g.ends)),
		in:       make(map[Node][]Arc, len(g.in)),
		out:      make(map[Node][]Arc, len(g.out)),
		nextNode: g.nextNode,
		nextArc:  g.nextArc,
	}
	for _, n := range g.nodes {
		c.g.AddNode(multi.Node(n))
		c.in[n] = slices.Clone(g.in[n])
		c.out[n] = slices.Clone(g.out[n])
	}
	for _, a := range g.arcs {
		e := g.ends[a]
		c.ends[a] = e
		c.g.SetLine(multi.Line{F: multi.Node(e.from), T: multi.Node(e.to), UID: int64(a)})
	}
	return c
}

// CopyWithMaps is Copy plus cross-reference maps from the handles of g to
// the handles of the copy.
func (g *Graph) CopyWithMaps() (*Graph, map[Node]Node, map[Arc]Arc) {
	c := g.Copy()
	nodeRef := make(map[Node]Node, len(g.nodes))
	for _, n := range g.nodes {
		nodeRef[n] = n
	}
	arcRef := make(map[Arc]Arc, len(g.arcs))
	for _, a := range g.arcs {
		arcRef[a] = a
	}
	return c, nodeRef, arcRef
}

func remove[T comparable](s []T, v T) []T {
	if i := slices.Index(s, v); i >= 0 {
		return slices.Delete(s, i, i+1)
	}
	return s
}
