package dynamics

import (
	"fmt"
	"slices"

	"github.com/san-kum/netevo/internal/dynamo"
	"github.com/san-kum/netevo/internal/network"
	"github.com/san-kum/netevo/internal/topology"
)

// paramSet holds the named defaults installed on every new entity.
type paramSet struct {
	names  []string
	values []float64
}

func newParamSet(names []string, values ...float64) paramSet {
	return paramSet{names: names, values: values}
}

// GetParams implements dynamo.Configurable
func (p *paramSet) GetParams() map[string]float64 {
	out := make(map[string]float64, len(p.names))
	for i, n := range p.names {
		out[n] = p.values[i]
	}
	return out
}

// SetParam implements dynamo.Configurable
func (p *paramSet) SetParam(name string, value float64) error {
	i := slices.Index(p.names, name)
	if i < 0 {
		return fmt.Errorf("%w: %q", dynamo.ErrUnknownParam, name)
	}
	p.values[i] = value
	return nil
}

func (p *paramSet) ParamNames() []string { return slices.Clone(p.names) }

func (p *paramSet) defaults() []float64 { return slices.Clone(p.values) }

// at returns params[i], falling back to the default when the entity carries
// fewer parameters.
func (p *paramSet) at(params []float64, i int) float64 {
	if i < len(params) {
		return params[i]
	}
	return p.values[i]
}

// weight is the effective coupling strength of a: the static weight, scaled
// by the arc state when the arc runs AdaptiveCoupling.
func weight(sys *network.System, a topology.Arc, x dynamo.State) float64 {
	d := sys.ArcData(a)
	w := d.Weight
	if _, ok := d.Dynamic.(*AdaptiveCoupling); ok && sys.ArcStates() > 0 {
		w *= x[sys.ArcStateID(a)]
	}
	return w
}

// eachInput calls fn with the state offset of the source of every in-arc
// of v and the arc's effective weight.
func eachInput(sys *network.System, v topology.Node, x dynamo.State, fn func(src int, w float64)) {
	for _, a := range sys.InArcs(v) {
		fn(sys.NodeStateID(sys.Source(a)), weight(sys, a, x))
	}
}
