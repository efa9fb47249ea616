package network

import (
	"github.com/san-kum/netevo/internal/dynamo"
	"github.com/san-kum/netevo/internal/topology"
)

// stateMapper caches the enumeration of nodes and arcs used to lay out the
// flat state vector. Each table is rebuilt only after a structural edit of
// its kind.
type stateMapper struct {
	nodeOrder  []topology.Node
	nodeIndex  map[topology.Node]int
	nodesValid bool

	arcOrder  []topology.Arc
	arcIndex  map[topology.Arc]int
	arcsValid bool
}

// ValidStateIDs reports whether the node and arc tables are current.
func (s *System) ValidStateIDs() (nodes, arcs bool) {
	return s.mapper.nodesValid, s.mapper.arcsValid
}

// RefreshStateIDs rebuilds whichever enumeration tables are stale.
func (s *System) RefreshStateIDs() {
	m := &s.mapper
	if !m.nodesValid {
		m.nodeOrder = s.graph.Nodes()
		m.nodeIndex = make(map[topology.Node]int, len(m.nodeOrder))
		for i, v := range m.nodeOrder {
			m.nodeIndex[v] = i
		}
		m.nodesValid = true
	}
	if !m.arcsValid {
		m.arcOrder = s.graph.Arcs()
		m.arcIndex = make(map[topology.Arc]int, len(m.arcOrder))
		for i, a := range m.arcOrder {
			m.arcIndex[a] = i
		}
		m.arcsValid = true
	}
}

// NodeIndex returns the enumeration index of v, or -1.
func (s *System) NodeIndex(v topology.Node) int {
	s.RefreshStateIDs()
	i, ok := s.mapper.nodeIndex[v]
	if !ok {
		return -1
	}
	return i
}

// ArcIndex returns the enumeration index of a, or -1.
func (s *System) ArcIndex(a topology.Arc) int {
	s.RefreshStateIDs()
	i, ok := s.mapper.arcIndex[a]
	if !ok {
		return -1
	}
	return i
}

// NodeStateID returns the offset of v's block in the state vector, or -1 if
// v is not in s.
func (s *System) NodeStateID(v topology.Node) int {
	i := s.NodeIndex(v)
	if i < 0 {
		return -1
	}
	return s.NodeStates() * i
}

// ArcStateID returns the offset of a's block in the state vector. Arc blocks
// follow every node block.
func (s *System) ArcStateID(a topology.Arc) int {
	i := s.ArcIndex(a)
	if i < 0 {
		return -1
	}
	return s.NodeStates()*len(s.mapper.nodeOrder) + s.ArcStates()*i
}

// NodeAt returns the node with enumeration index i, or InvalidNode.
func (s *System) NodeAt(i int) topology.Node {
	s.RefreshStateIDs()
	if i < 0 || i >= len(s.mapper.nodeOrder) {
		return topology.InvalidNode
	}
	return s.mapper.nodeOrder[i]
}

// ArcAt returns the arc with enumeration index i, or InvalidArc.
func (s *System) ArcAt(i int) topology.Arc {
	s.RefreshStateIDs()
	if i < 0 || i >= len(s.mapper.arcOrder) {
		return topology.InvalidArc
	}
	return s.mapper.arcOrder[i]
}

// Derive is the aggregate update handed to simulators. Every node dynamic
// runs in enumeration order, then every arc dynamic. Entities of a kind are
// skipped entirely when that kind has zero state width. Derive writes only
// into dx.
func (s *System) Derive(x, dx dynamo.State, t float64) {
	s.RefreshStateIDs()
	if s.NodeStates() > 0 {
		for _, v := range s.mapper.nodeOrder {
			s.nodes[v].Dynamic.Derive(v, s, x, dx, t)
		}
	}
	if s.ArcStates() > 0 {
		for _, a := range s.mapper.arcOrder {
			s.arcs[a].Dynamic.Derive(a, s, x, dx, t)
		}
	}
}

// NodeBlock returns the slice of x belonging to v.
func (s *System) NodeBlock(x dynamo.State, v topology.Node) dynamo.State {
	return x.Block(s.NodeStateID(v), s.NodeStates())
}

// NodeDynamicBlock returns the leading components of v's block that its
// dynamic uses. The rest of the block is padding up to NodeStates.
func (s *System) NodeDynamicBlock(x dynamo.State, v topology.Node) dynamo.State {
	n := s.NodeStates()
	if d := s.nodes[v]; d != nil && d.Dynamic != nil {
		n = min(n, d.Dynamic.States())
	}
	return x.Block(s.NodeStateID(v), n)
}

// ArcBlock returns the slice of x belonging to a.
func (s *System) ArcBlock(x dynamo.State, a topology.Arc) dynamo.State {
	return x.Block(s.ArcStateID(a), s.ArcStates())
}
