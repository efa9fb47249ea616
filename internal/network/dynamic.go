package network

import (
	"fmt"
	"sort"

	"github.com/san-kum/netevo/internal/dynamo"
	"github.com/san-kum/netevo/internal/topology"
)

const (
	NullNodeName = "NullNode"
	NullArcName  = "NullArc"
)

// NodeDynamic defines the behaviour attached to a node. Derive receives the
// full state vectors; a dynamic reads and writes its own block at
// sys.NodeStateID(v) and may read the blocks of neighbouring entities.
type NodeDynamic interface {
	Name() string
	States() int
	SetDefaultParams(v topology.Node, sys *System)
	Derive(v topology.Node, sys *System, x, dx dynamo.State, t float64)
}

// ArcDynamic is the arc counterpart of NodeDynamic. Its block lives at
// sys.ArcStateID(a).
type ArcDynamic interface {
	Name() string
	States() int
	SetDefaultParams(a topology.Arc, sys *System)
	Derive(a topology.Arc, sys *System, x, dx dynamo.State, t float64)
}

type nullNode struct{}

func (nullNode) Name() string                                                       { return NullNodeName }
func (nullNode) States() int                                                        { return 0 }
func (nullNode) SetDefaultParams(topology.Node, *System)                            {}
func (nullNode) Derive(topology.Node, *System, dynamo.State, dynamo.State, float64) {}

type nullArc struct{}

func (nullArc) Name() string                                                      { return NullArcName }
func (nullArc) States() int                                                       { return 0 }
func (nullArc) SetDefaultParams(topology.Arc, *System)                            {}
func (nullArc) Derive(topology.Arc, *System, dynamo.State, dynamo.State, float64) {}

// Registry maps dynamic names to behaviour objects. The state widths only
// ever grow: they track the largest state count registered so far.
type Registry struct {
	nodes      map[string]NodeDynamic
	arcs       map[string]ArcDynamic
	nodeStates int
	arcStates  int
}

// NewRegistry returns a registry seeded with the null dynamics.
func NewRegistry() *Registry {
	return &Registry{
		nodes: map[string]NodeDynamic{NullNodeName: nullNode{}},
		arcs:  map[string]ArcDynamic{NullArcName: nullArc{}},
	}
}

func (r *Registry) RegisterNode(d NodeDynamic) error {
	if _, ok := r.nodes[d.Name()]; ok {
		return fmt.Errorf("%w: node dynamic %q", dynamo.ErrDuplicateDynamic, d.Name())
	}
	r.nodes[d.Name()] = d
	if d.States() > r.nodeStates {
		r.nodeStates = d.States()
	}
	return nil
}

func (r *Registry) RegisterArc(d ArcDynamic) error {
	if _, ok := r.arcs[d.Name()]; ok {
		return fmt.Errorf("%w: arc dynamic %q", dynamo.ErrDuplicateDynamic, d.Name())
	}
	r.arcs[d.Name()] = d
	if d.States() > r.arcStates {
		r.arcStates = d.States()
	}
	return nil
}

// Node looks up a node dynamic. The empty name selects the null dynamic.
func (r *Registry) Node(name string) (NodeDynamic, error) {
	if name == "" {
		name = NullNodeName
	}
	d, ok := r.nodes[name]
	if !ok {
		return nil, fmt.Errorf("%w: node dynamic %q", dynamo.ErrUnknownDynamic, name)
	}
	return d, nil
}

// Arc looks up an arc dynamic. The empty name selects the null dynamic.
func (r *Registry) Arc(name string) (ArcDynamic, error) {
	if name == "" {
		name = NullArcName
	}
	d, ok := r.arcs[name]
	if !ok {
		return nil, fmt.Errorf("%w: arc dynamic %q", dynamo.ErrUnknownDynamic, name)
	}
	return d, nil
}

func (r *Registry) NodeStates() int { return r.nodeStates }
func (r *Registry) ArcStates() int  { return r.arcStates }

func (r *Registry) NodeNames() []string {
	names := make([]string, 0, len(r.nodes))
	for name := range r.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) ArcNames() []string {
	names := make([]string, 0, len(r.arcs))
	for name := range r.arcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
