package dynamics

import (
	"math"

	"github.com/san-kum/netevo/internal/dynamo"
	"github.com/san-kum/netevo/internal/network"
	"github.com/san-kum/netevo/internal/topology"
)

// AdaptiveCoupling gives an arc a strength that grows with the mismatch of
// the first state of its end nodes and decays otherwise. Node dynamics in
// this package multiply the static weight by it. It is continuous and only
// meaningful under the ODE simulators.
//
//	dw/dt = -decay w + gain |x_src - x_tgt|
//
// Params: [decay, gain].
type AdaptiveCoupling struct{ paramSet }

func NewAdaptiveCoupling() *AdaptiveCoupling {
	return &AdaptiveCoupling{newParamSet([]string{"decay", "gain"}, 0.1, 0.05)}
}

func (c *AdaptiveCoupling) Name() string { return "AdaptiveCoupling" }
func (c *AdaptiveCoupling) States() int  { return 1 }

func (c *AdaptiveCoupling) SetDefaultParams(a topology.Arc, sys *network.System) {
	sys.ArcData(a).Params = c.defaults()
}

func (c *AdaptiveCoupling) Derive(a topology.Arc, sys *network.System, x, dx dynamo.State, _ float64) {
	p := sys.ArcData(a).Params
	i := sys.ArcStateID(a)
	diff := 0.0
	if sys.NodeStates() > 0 {
		diff = math.Abs(x[sys.NodeStateID(sys.Source(a))] - x[sys.NodeStateID(sys.Target(a))])
	}
	dx[i] = -c.at(p, 0)*x[i] + c.at(p, 1)*diff
}

