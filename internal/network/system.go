package network

import (
	"fmt"
	"math/rand"

	"github.com/san-kum/netevo/internal/dynamo"
	"github.com/san-kum/netevo/internal/topology"
)

// System is a directed network whose nodes and arcs carry dynamics. It owns
// the topology, the per-entity data, the state mapping and a private random
// source. A System is not safe for concurrent use.
type System struct {
	graph    *topology.Graph
	nodes    map[topology.Node]*NodeData
	arcs     map[topology.Arc]*ArcData
	registry *Registry
	mapper   stateMapper
	rng      *rand.Rand
	nextKey  int
}

// Edge is an undirected edge stored as two opposing arcs. Backward runs v->u
// and Forward runs u->v for an edge added with AddEdge(u, v).
type Edge struct {
	Backward topology.Arc
	Forward  topology.Arc
}

// New returns an empty system with a fresh registry.
func New(seed int64) *System {
	return NewWithRegistry(NewRegistry(), seed)
}

// NewWithRegistry returns an empty system sharing reg.
func NewWithRegistry(reg *Registry, seed int64) *System {
	return &System{
		graph:    topology.New(),
		nodes:    make(map[topology.Node]*NodeData),
		arcs:     make(map[topology.Arc]*ArcData),
		registry: reg,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

func (s *System) Seed(seed int64)     { s.rng.Seed(seed) }
func (s *System) Rand() *rand.Rand    { return s.rng }
func (s *System) Registry() *Registry { return s.registry }

func (s *System) RegisterNodeDynamic(d NodeDynamic) error { return s.registry.RegisterNode(d) }
func (s *System) RegisterArcDynamic(d ArcDynamic) error   { return s.registry.RegisterArc(d) }

func (s *System) NodeStates() int { return s.registry.NodeStates() }
func (s *System) ArcStates() int  { return s.registry.ArcStates() }

// TotalStates is the length every state vector for s must have.
func (s *System) TotalStates() int {
	return s.NodeStates()*s.graph.CountNodes() + s.ArcStates()*s.graph.CountArcs()
}

func (s *System) NextKey() int { return s.nextKey }

func (s *System) allocKey() int {
	k := s.nextKey
	s.nextKey++
	return k
}

func (s *System) AddNode(dynamic string) (topology.Node, error) {
	return s.AddNamedNode("", dynamic)
}

// AddNamedNode adds a node using the named dynamic and installs its default
// parameters.
func (s *System) AddNamedNode(name, dynamic string) (topology.Node, error) {
	d, err := s.registry.Node(dynamic)
	if err != nil {
		return topology.InvalidNode, err
	}
	v := s.graph.AddNode()
	s.nodes[v] = &NodeData{Key: s.allocKey(), Name: name, Dynamic: d}
	s.mapper.nodesValid = false
	d.SetDefaultParams(v, s)
	return v, nil
}

func (s *System) AddArc(u, v topology.Node, dynamic string) (topology.Arc, error) {
	return s.AddNamedArc(u, v, "", dynamic)
}

// AddNamedArc adds an arc u->v using the named dynamic and installs its
// default parameters.
func (s *System) AddNamedArc(u, v topology.Node, name, dynamic string) (topology.Arc, error) {
	d, err := s.registry.Arc(dynamic)
	if err != nil {
		return topology.InvalidArc, err
	}
	a := s.graph.AddArc(u, v)
	if a == topology.InvalidArc {
		return a, fmt.Errorf("%w: arc %d->%d", dynamo.ErrUnknownEntity, u, v)
	}
	s.arcs[a] = &ArcData{Key: s.allocKey(), Name: name, Weight: 1.0, Dynamic: d}
	s.mapper.arcsValid = false
	d.SetDefaultParams(a, s)
	return a, nil
}

func (s *System) AddEdge(u, v topology.Node, dynamic string) (Edge, error) {
	return s.AddNamedEdge(u, v, "", dynamic)
}

// AddNamedEdge adds the arcs v->u and u->v with the same name and dynamic.
func (s *System) AddNamedEdge(u, v topology.Node, name, dynamic string) (Edge, error) {
	if _, err := s.registry.Arc(dynamic); err != nil {
		return Edge{topology.InvalidArc, topology.InvalidArc}, err
	}
	back, err := s.AddNamedArc(v, u, name, dynamic)
	if err != nil {
		return Edge{topology.InvalidArc, topology.InvalidArc}, err
	}
	fwd, err := s.AddNamedArc(u, v, name, dynamic)
	if err != nil {
		s.EraseArc(back)
		return Edge{topology.InvalidArc, topology.InvalidArc}, err
	}
	return Edge{Backward: back, Forward: fwd}, nil
}

// EraseNode removes v, its data and every incident arc.
func (s *System) EraseNode(v topology.Node) {
	if !s.graph.HasNode(v) {
		return
	}
	for _, a := range s.graph.EraseNode(v) {
		delete(s.arcs, a)
		s.mapper.arcsValid = false
	}
	delete(s.nodes, v)
	s.mapper.nodesValid = false
}

// EraseArc removes a and its data. The opposing arc of an undirected edge is
// left in place.
func (s *System) EraseArc(a topology.Arc) {
	if !s.graph.HasArc(a) {
		return
	}
	s.graph.EraseArc(a)
	delete(s.arcs, a)
	s.mapper.arcsValid = false
}

// Clear removes all nodes and arcs and restarts key allocation.
func (s *System) Clear() {
	s.graph.Clear()
	s.nodes = make(map[topology.Node]*NodeData)
	s.arcs = make(map[topology.Arc]*ArcData)
	s.nextKey = 0
	s.mapper.nodesValid = false
	s.mapper.arcsValid = false
}

// NodeData returns the mutable record of v, or nil if v is not in s.
func (s *System) NodeData(v topology.Node) *NodeData { return s.nodes[v] }

// ArcData returns the mutable record of a, or nil if a is not in s.
func (s *System) ArcData(a topology.Arc) *ArcData { return s.arcs[a] }

// SetNodeDynamic reassigns the dynamic of v and reinstalls default
// parameters.
func (s *System) SetNodeDynamic(v topology.Node, dynamic string) error {
	data := s.nodes[v]
	if data == nil {
		return fmt.Errorf("%w: node %d", dynamo.ErrUnknownEntity, v)
	}
	d, err := s.registry.Node(dynamic)
	if err != nil {
		return err
	}
	data.Dynamic = d
	data.Params = nil
	d.SetDefaultParams(v, s)
	return nil
}

// SetArcDynamic reassigns the dynamic of a and reinstalls default
// parameters.
func (s *System) SetArcDynamic(a topology.Arc, dynamic string) error {
	data := s.arcs[a]
	if data == nil {
		return fmt.Errorf("%w: arc %d", dynamo.ErrUnknownEntity, a)
	}
	d, err := s.registry.Arc(dynamic)
	if err != nil {
		return err
	}
	data.Dynamic = d
	data.Params = nil
	d.SetDefaultParams(a, s)
	return nil
}

func (s *System) Nodes() []topology.Node                 { return s.graph.Nodes() }
func (s *System) Arcs() []topology.Arc                   { return s.graph.Arcs() }
func (s *System) InArcs(v topology.Node) []topology.Arc  { return s.graph.InArcs(v) }
func (s *System) OutArcs(v topology.Node) []topology.Arc { return s.graph.OutArcs(v) }
func (s *System) Source(a topology.Arc) topology.Node    { return s.graph.Source(a) }
func (s *System) Target(a topology.Arc) topology.Node    { return s.graph.Target(a) }
func (s *System) FindArc(u, v topology.Node) topology.Arc {
	return s.graph.FindArc(u, v)
}
func (s *System) Adjacent(u, v topology.Node) bool { return s.graph.Adjacent(u, v) }
func (s *System) HasNode(v topology.Node) bool     { return s.graph.HasNode(v) }
func (s *System) HasArc(a topology.Arc) bool       { return s.graph.HasArc(a) }
func (s *System) CountNodes() int                  { return s.graph.CountNodes() }
func (s *System) CountArcs() int                   { return s.graph.CountArcs() }
func (s *System) OutDegree(v topology.Node) int    { return s.graph.OutDegree(v) }

// WeaklyConnectedComponents counts the components of the undirected closure.
func (s *System) WeaklyConnectedComponents() int {
	return s.graph.WeaklyConnectedComponents()
}

// Topology returns a deep copy of the bare graph.
func (s *System) Topology() *topology.Graph { return s.graph.Copy() }

// Copy returns a deep copy of s sharing the same registry. The copy's random
// source is seeded from s, so copying advances the random stream of s.
func (s *System) Copy() *System {
	c := &System{
		graph:    s.graph.Copy(),
		nodes:    make(map[topology.Node]*NodeData, len(s.nodes)),
		arcs:     make(map[topology.Arc]*ArcData, len(s.arcs)),
		registry: s.registry,
		rng:      rand.New(rand.NewSource(s.rng.Int63())),
		nextKey:  s.nextKey,
	}
	for v, d := range s.nodes {
		c.nodes[v] = d.clone()
	}
	for a, d := range s.arcs {
		c.arcs[a] = d.clone()
	}
	return c
}

// ResetKeys renumbers nodes 0..|V|-1 and arcs |V|..|V|+|E|-1 in enumeration
// order.
func (s *System) ResetKeys() {
	s.RefreshStateIDs()
	key := 0
	for _, v := range s.mapper.nodeOrder {
		s.nodes[v].Key = key
		key++
	}
	for _, a := range s.mapper.arcOrder {
		s.arcs[a].Key = key
		key++
	}
	s.nextKey = key
}

// SetNextKey sets the key counter. Callers that assign keys themselves
// must pass a value above every key in use.
func (s *System) SetNextKey(k int) {
	s.nextKey = k
}

// FindNodeByKey returns the node holding key, or InvalidNode.
func (s *System) FindNodeByKey(key int) topology.Node {
	for v, d := range s.nodes {
		if d.Key == key {
			return v
		}
	}
	return topology.InvalidNode
}
