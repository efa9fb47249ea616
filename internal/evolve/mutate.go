package evolve

import (
	"math"
	"math/rand"

	"github.com/san-kum/netevo/internal/network"
	"github.com/san-kum/netevo/internal/topology"
)

// pairAttempts bounds the search for an unconnected node pair, per node.
const pairAttempts = 8

// RewireMutation moves a few undirected edges to random unconnected node
// pairs. The number of rewires is drawn from Exp(1) and clamped to
// [1, MaxRewires].
type RewireMutation struct {
	// Rand defaults to the random source of the mutated system.
	Rand       *rand.Rand
	MaxRewires int
	// ArcDynamic names the dynamic of the new edges. Empty keeps the
	// dynamic of the removed arc.
	ArcDynamic string
}

func (RewireMutation) Name() string { return "rewire" }

func (m RewireMutation) Mutate(sys *network.System, log network.ChangeLog) {
	rng := m.Rand
	if rng == nil {
		rng = sys.Rand()
	}
	limit := m.MaxRewires
	if limit <= 0 {
		limit = 10
	}
	n := min(max(int(rng.ExpFloat64()), 1), limit)
	for i := 0; i < n; i++ {
		if !rewire(sys, log, rng, m.ArcDynamic) {
			return
		}
	}
}

// rewire removes both directions of a random arc and reconnects a random
// unconnected pair. It reports false once nothing is left to rewire.
func rewire(sys *network.System, log network.ChangeLog, rng *rand.Rand, dynamic string) bool {
	arcs := sys.Arcs()
	if len(arcs) == 0 {
		return false
	}
	a := arcs[rng.Intn(len(arcs))]
	if dynamic == "" {
		dynamic = sys.ArcData(a).Dynamic.Name()
	}
	eraseLink(sys, log, a, true)

	x, y, ok := unconnectedPair(sys, rng)
	if !ok {
		return false
	}
	addLink(sys, log, x, y, dynamic, true)
	return true
}

// unconnectedPair draws distinct nodes with no arc between them in either
// direction. Once the random draws run out it scans every pair, so it only
// fails on complete graphs.
func unconnectedPair(sys *network.System, rng *rand.Rand) (topology.Node, topology.Node, bool) {
	nodes := sys.Nodes()
	if len(nodes) < 2 {
		return topology.InvalidNode, topology.InvalidNode, false
	}
	for i := 0; i < pairAttempts*len(nodes); i++ {
		x := nodes[rng.Intn(len(nodes))]
		y := nodes[rng.Intn(len(nodes))]
		if x != y && !sys.Adjacent(x, y) {
			return x, y, true
		}
	}
	var free [][2]topology.Node
	for i, x := range nodes {
		for _, y := range nodes[i+1:] {
			if !sys.Adjacent(x, y) {
				free = append(free, [2]topology.Node{x, y})
			}
		}
	}
	if len(free) == 0 {
		return topology.InvalidNode, topology.InvalidNode, false
	}
	p := free[rng.Intn(len(free))]
	return p[0], p[1], true
}

// eraseLink removes a and, when undirected is set, the opposing arc.
func eraseLink(sys *network.System, log network.ChangeLog, a topology.Arc, undirected bool) {
	u, v := sys.Source(a), sys.Target(a)
	log.EraseArc(sys, a)
	sys.EraseArc(a)
	if !undirected || u == v {
		return
	}
	if r := sys.FindArc(v, u); r != topology.InvalidArc {
		log.EraseArc(sys, r)
		sys.EraseArc(r)
	}
}

func addLink(sys *network.System, log network.ChangeLog, x, y topology.Node, dynamic string, undirected bool) {
	if undirected {
		e, err := sys.AddEdge(x, y, dynamic)
		if err != nil {
			return
		}
		log.AddArc(sys, e.Backward)
		log.AddArc(sys, e.Forward)
		return
	}
	a, err := sys.AddArc(x, y, dynamic)
	if err != nil {
		return
	}
	log.AddArc(sys, a)
}

// MutationProbs gives the chance of each operation per RandomMutation trial.
type MutationProbs struct {
	NewNode    float64
	DeleteNode float64
	NewEdge    float64
	DeleteEdge float64
	UpdateNode float64
	UpdateEdge float64
	Rewire     float64
	Duplicate  float64
}

// RandomMutation applies each operation with its probability, Trials times
// over. Operations that cannot apply, like deleting the last node, are
// skipped.
type RandomMutation struct {
	Probs       MutationProbs
	Trials      int
	NodeDynamic string
	ArcDynamic  string
	Undirected  bool
	// ParamScale is the standard deviation of the additive noise applied to
	// parameters and weights by the update operations.
	ParamScale float64
	Rand       *rand.Rand
}

func (RandomMutation) Name() string { return "random" }

func (m RandomMutation) Mutate(sys *network.System, log network.ChangeLog) {
	rng := m.Rand
	if rng == nil {
		rng = sys.Rand()
	}
	trials := max(m.Trials, 1)
	p := m.Probs
	for i := 0; i < trials; i++ {
		if rng.Float64() < p.NewNode {
			m.newNode(sys, log, rng)
		}
		if rng.Float64() < p.DeleteNode {
			m.deleteNode(sys, log, rng)
		}
		if rng.Float64() < p.NewEdge {
			if x, y, ok := unconnectedPair(sys, rng); ok {
				addLink(sys, log, x, y, m.ArcDynamic, m.Undirected)
			}
		}
		if rng.Float64() < p.DeleteEdge {
			if arcs := sys.Arcs(); len(arcs) > 0 {
				eraseLink(sys, log, arcs[rng.Intn(len(arcs))], m.Undirected)
			}
		}
		if rng.Float64() < p.UpdateNode {
			m.updateNode(sys, log, rng)
		}
		if rng.Float64() < p.UpdateEdge {
			m.updateEdge(sys, log, rng)
		}
		if rng.Float64() < p.Rewire {
			rewire(sys, log, rng, m.ArcDynamic)
		}
		if rng.Float64() < p.Duplicate {
			m.duplicate(sys, log, rng)
		}
	}
}

// newNode adds a node and links it to one existing node so the graph stays
// connected.
func (m RandomMutation) newNode(sys *network.System, log network.ChangeLog, rng *rand.Rand) {
	nodes := sys.Nodes()
	v, err := sys.AddNode(m.NodeDynamic)
	if err != nil {
		return
	}
	log.AddNode(sys, v)
	if len(nodes) > 0 {
		addLink(sys, log, nodes[rng.Intn(len(nodes))], v, m.ArcDynamic, m.Undirected)
	}
}

func (m RandomMutation) deleteNode(sys *network.System, log network.ChangeLog, rng *rand.Rand) {
	nodes := sys.Nodes()
	if len(nodes) < 2 {
		return
	}
	v := nodes[rng.Intn(len(nodes))]
	seen := make(map[topology.Arc]bool)
	for _, arcs := range [][]topology.Arc{sys.OutArcs(v), sys.InArcs(v)} {
		for _, a := range arcs {
			if !seen[a] {
				seen[a] = true
				log.EraseArc(sys, a)
			}
		}
	}
	log.EraseNode(sys, v)
	sys.EraseNode(v)
}

func (m RandomMutation) updateNode(sys *network.System, log network.ChangeLog, rng *rand.Rand) {
	nodes := sys.Nodes()
	if len(nodes) == 0 {
		return
	}
	v := nodes[rng.Intn(len(nodes))]
	d := sys.NodeData(v)
	if len(d.Params) == 0 {
		return
	}
	i := rng.Intn(len(d.Params))
	d.Params[i] += m.ParamScale * rng.NormFloat64()
	log.UpdateNode(sys, v)
}

// updateEdge perturbs the weight of a random arc, and of its opposing arc
// for undirected mutations.
func (m RandomMutation) updateEdge(sys *network.System, log network.ChangeLog, rng *rand.Rand) {
	arcs := sys.Arcs()
	if len(arcs) == 0 {
		return
	}
	a := arcs[rng.Intn(len(arcs))]
	d := sys.ArcData(a)
	d.Weight = math.Max(0, d.Weight+m.ParamScale*rng.NormFloat64())
	log.UpdateArc(sys, a)
	if !m.Undirected {
		return
	}
	u, v := sys.Source(a), sys.Target(a)
	if r := sys.FindArc(v, u); r != topology.InvalidArc && r != a {
		sys.ArcData(r).Weight = d.Weight
		log.UpdateArc(sys, r)
	}
}

// duplicate copies a random node, its dynamic and parameters, and every
// arc incident to it.
func (m RandomMutation) duplicate(sys *network.System, log network.ChangeLog, rng *rand.Rand) {
	nodes := sys.Nodes()
	if len(nodes) == 0 {
		return
	}
	v := nodes[rng.Intn(len(nodes))]
	src := sys.NodeData(v)
	c, err := sys.AddNode(src.Dynamic.Name())
	if err != nil {
		return
	}
	cd := sys.NodeData(c)
	cd.Params = append([]float64(nil), src.Params...)
	cd.Properties = append([]float64(nil), src.Properties...)
	log.AddNode(sys, c)

	out := append([]topology.Arc(nil), sys.OutArcs(v)...)
	in := append([]topology.Arc(nil), sys.InArcs(v)...)
	for _, a := range out {
		copyArc(sys, log, a, c, sys.Target(a))
	}
	for _, a := range in {
		if sys.Source(a) == v {
			continue
		}
		copyArc(sys, log, a, sys.Source(a), c)
	}
}

func copyArc(sys *network.System, log network.ChangeLog, a topology.Arc, u, v topology.Node) {
	if u == v {
		return
	}
	d := sys.ArcData(a)
	b, err := sys.AddArc(u, v, d.Dynamic.Name())
	if err != nil {
		return
	}
	bd := sys.ArcData(b)
	bd.Weight = d.Weight
	bd.Params = append([]float64(nil), d.Params...)
	log.AddArc(sys, b)
}
