// Package metrics summarises simulated network trajectories. Every Metric
// is also a sim.Observer, so it can be handed straight to a simulator.
package metrics

import (
	"math"
	"math/cmplx"

	"github.com/san-kum/netevo/internal/dynamo"
	"github.com/san-kum/netevo/internal/network"
)

type Metric interface {
	Name() string
	Observe(x dynamo.State, t float64)
	Value() float64
	Reset()
}

// PairwiseDistance is the mean Euclidean distance between the node blocks
// of every unordered node pair, over the components both node dynamics use.
// It is 0 for fewer than two nodes.
func PairwiseDistance(sys *network.System, x dynamo.State) float64 {
	nodes := sys.NodeOrder()
	if len(nodes) < 2 || sys.NodeStates() == 0 {
		return 0
	}
	total, pairs := 0.0, 0
	for i := 0; i < len(nodes); i++ {
		bi := sys.NodeDynamicBlock(x, nodes[i])
		for j := i + 1; j < len(nodes); j++ {
			bj := sys.NodeDynamicBlock(x, nodes[j])
			d := 0.0
			for k := range min(len(bi), len(bj)) {
				diff := bi[k] - bj[k]
				d += diff * diff
			}
			total += math.Sqrt(d)
			pairs++
		}
	}
	return total / float64(pairs)
}

// Order is the Kuramoto order parameter |mean(exp(i θ))| over the first
// component of every node block. It is 1 for a single node and 0 for none.
func Order(sys *network.System, x dynamo.State) float64 {
	nodes := sys.NodeOrder()
	if len(nodes) == 0 || sys.NodeStates() == 0 {
		return 0
	}
	var sum complex128
	for _, v := range nodes {
		sum += cmplx.Exp(complex(0, x[sys.NodeStateID(v)]))
	}
	return cmplx.Abs(sum) / float64(len(nodes))
}

// series averages a per-observation sample and keeps the latest one.
type series struct {
	total   float64
	last    float64
	samples int
}

func (s *series) add(v float64) {
	s.total += v
	s.last = v
	s.samples++
}

func (s *series) mean() float64 {
	if s.samples == 0 {
		return 0
	}
	return s.total / float64(s.samples)
}

func (s *series) Last() float64 { return s.last }

func (s *series) Reset() { *s = series{} }

// SyncError averages PairwiseDistance over the observed trajectory.
type SyncError struct {
	series
	name string
	sys  *network.System
}

func NewSyncError(sys *network.System) *SyncError {
	return &SyncError{name: "sync_error", sys: sys}
}

func (m *SyncError) Name() string { return m.name }

func (m *SyncError) Observe(x dynamo.State, t float64) {
	m.add(PairwiseDistance(m.sys, x))
}

func (m *SyncError) Value() float64 { return m.mean() }

// OrderParameter averages Order over the observed trajectory.
type OrderParameter struct {
	series
	name string
	sys  *network.System
}

func NewOrderParameter(sys *network.System) *OrderParameter {
	return &OrderParameter{name: "order", sys: sys}
}

func (m *OrderParameter) Name() string { return m.name }

func (m *OrderParameter) Observe(x dynamo.State, t float64) {
	m.add(Order(m.sys, x))
}

func (m *OrderParameter) Value() float64 { return m.mean() }
