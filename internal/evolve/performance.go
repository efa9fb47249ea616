package evolve

import (
	"math"
	"slices"

	"github.com/san-kum/netevo/internal/dynamo"
	"github.com/san-kum/netevo/internal/metrics"
	"github.com/san-kum/netevo/internal/network"
)

// EigenratioPerformance scores the synchronisability of a topology by the
// ratio λN/λ2 of the Laplacian spectrum, with eigenvalues ordered by
// decreasing real part. Graphs with λ2 = 0, such as disconnected ones,
// score Cap.
type EigenratioPerformance struct {
	Kind network.MatrixKind
	Cap  float64
}

func NewEigenratioPerformance() EigenratioPerformance {
	return EigenratioPerformance{Kind: network.Laplacian, Cap: 1e10}
}

func (EigenratioPerformance) Name() string          { return "eigenratio" }
func (EigenratioPerformance) Type() PerformanceType { return TopologyOnly }

func (p EigenratioPerformance) Performance(sys *network.System, _ *Trajectory) float64 {
	limit := p.Cap
	if limit <= 0 {
		limit = 1e10
	}
	vals, err := sys.Eigenvalues(p.Kind)
	if err != nil || len(vals) < 2 {
		return limit
	}
	re := make([]float64, len(vals))
	for i, v := range vals {
		re[i] = -real(v)
	}
	slices.Sort(re)
	l2, ln := re[1], re[len(re)-1]
	if l2 <= 1e-10 {
		return limit
	}
	return math.Min(ln/l2, limit)
}

// SyncPerformance is the percentage of node pairs whose state blocks differ
// by more than Delta in some component at the end of the run. Only the
// components used by both node dynamics are compared.
type SyncPerformance struct {
	Delta float64
}

func NewSyncPerformance() SyncPerformance { return SyncPerformance{Delta: 1e-3} }

func (SyncPerformance) Name() string          { return "sync" }
func (SyncPerformance) Type() PerformanceType { return DynamicsOnly }

func (p SyncPerformance) Performance(sys *network.System, traj *Trajectory) float64 {
	nodes := sys.NodeOrder()
	if len(nodes) < 2 {
		return 0
	}
	if traj == nil || len(traj.Final) != sys.TotalStates() {
		return 100
	}
	apart, pairs := 0, 0
	for i := 0; i < len(nodes); i++ {
		bi := sys.NodeDynamicBlock(traj.Final, nodes[i])
		for j := i + 1; j < len(nodes); j++ {
			bj := sys.NodeDynamicBlock(traj.Final, nodes[j])
			pairs++
			for k := range min(len(bi), len(bj)) {
				d := math.Abs(bi[k] - bj[k])
				if d > p.Delta || math.IsNaN(d) {
					apart++
					break
				}
			}
		}
	}
	return 100 * float64(apart) / float64(pairs)
}

// OrderPerformance is 1 minus the Kuramoto order parameter of the final
// phases.
type OrderPerformance struct{}

func (OrderPerformance) Name() string          { return "order" }
func (OrderPerformance) Type() PerformanceType { return DynamicsOnly }

func (OrderPerformance) Performance(sys *network.System, traj *Trajectory) float64 {
	if traj == nil || len(traj.Final) != sys.TotalStates() {
		return 1
	}
	r := metrics.Order(sys, traj.Final)
	if math.IsNaN(r) {
		return 1
	}
	return 1 - r
}

// RandomInitialStates draws Count states with every component uniform on
// [0, Scale), using the random source of the system.
type RandomInitialStates struct {
	Scale float64
	Count int
}

func (r RandomInitialStates) InitialStates(sys *network.System) []dynamo.State {
	scale := r.Scale
	if scale == 0 {
		scale = 1
	}
	out := make([]dynamo.State, max(r.Count, 1))
	rng := sys.Rand()
	for i := range out {
		x := make(dynamo.State, sys.TotalStates())
		for k := range x {
			x[k] = scale * rng.Float64()
		}
		out[i] = x
	}
	return out
}

// FixedInitialStates always returns the same states.
type FixedInitialStates []dynamo.State

func (f FixedInitialStates) InitialStates(*network.System) []dynamo.State { return f }
