package dynamics

import (
	"math"

	"github.com/san-kum/netevo/internal/dynamo"
	"github.com/san-kum/netevo/internal/network"
	"github.com/san-kum/netevo/internal/topology"
)

const twoPi = 2 * math.Pi

// KuramotoMap is a discrete phase oscillator for the Map simulator.
//
//	x' = (x + ω + K Σ w sin(x_src - x)) mod 2π
//
// Params: [ω, K].
type KuramotoMap struct{ paramSet }

func NewKuramotoMap() *KuramotoMap {
	return &KuramotoMap{newParamSet([]string{"omega", "coupling"}, 0.2, 0.1)}
}

func (k *KuramotoMap) Name() string { return "KuramotoMap" }
func (k *KuramotoMap) States() int  { return 1 }

func (k *KuramotoMap) SetDefaultParams(v topology.Node, sys *network.System) {
	sys.NodeData(v).Params = k.defaults()
}

func (k *KuramotoMap) Derive(v topology.Node, sys *network.System, x, dx dynamo.State, _ float64) {
	p := sys.NodeData(v).Params
	omega, coupling := k.at(p, 0), k.at(p, 1)
	i := sys.NodeStateID(v)
	sum := 0.0
	eachInput(sys, v, x, func(src int, w float64) {
		sum += w * math.Sin(x[src]-x[i])
	})
	next := math.Mod(x[i]+omega+coupling*sum, twoPi)
	if next < 0 {
		next += twoPi
	}
	dx[i] = next
}

// Kuramoto is the continuous phase oscillator.
//
//	dθ/dt = ω + K Σ w sin(θ_src - θ)
//
// Params: [ω, K].
type Kuramoto struct{ paramSet }

func NewKuramoto() *Kuramoto {
	return &Kuramoto{newParamSet([]string{"omega", "coupling"}, 1.0, 0.5)}
}

func (k *Kuramoto) Name() string { return "Kuramoto" }
func (k *Kuramoto) States() int  { return 1 }

func (k *Kuramoto) SetDefaultParams(v topology.Node, sys *network.System) {
	sys.NodeData(v).Params = k.defaults()
}

func (k *Kuramoto) Derive(v topology.Node, sys *network.System, x, dx dynamo.State, _ float64) {
	p := sys.NodeData(v).Params
	i := sys.NodeStateID(v)
	sum := 0.0
	eachInput(sys, v, x, func(src int, w float64) {
		sum += w * math.Sin(x[src]-x[i])
	})
	dx[i] = k.at(p, 0) + k.at(p, 1)*sum
}

// Rossler is a chaotic oscillator coupled diffusively on x and z.
// State: [x, y, z]. Params: [a, b, c, coupling].
//
//	dx/dt = -y - z + k Σ w (x_src - x)
//	dy/dt = x + a y
//	dz/dt = b + z (x - c) + k Σ w (z_src - z)
type Rossler struct{ paramSet }

func NewRossler() *Rossler {
	return &Rossler{newParamSet([]string{"a", "b", "c", "coupling"}, 0.165, 0.2, 10, 0.5)}
}

func (r *Rossler) Name() string { return "Rossler" }
func (r *Rossler) States() int  { return 3 }

func (r *Rossler) SetDefaultParams(v topology.Node, sys *network.System) {
	sys.NodeData(v).Params = r.defaults()
}

// Derive calculates the Rossler attractor derivatives.
func (r *Rossler) Derive(v topology.Node, sys *network.System, s, ds dynamo.State, _ float64) {
	p := sys.NodeData(v).Params
	a, b, c, k := r.at(p, 0), r.at(p, 1), r.at(p, 2), r.at(p, 3)
	i := sys.NodeStateID(v)
	x, y, z := s[i], s[i+1], s[i+2]

	cx, cz := 0.0, 0.0
	eachInput(sys, v, s, func(src int, w float64) {
		cx += w * (s[src] - x)
		cz += w * (s[src+2] - z)
	})

	ds[i] = -y - z + k*cx
	ds[i+1] = x + a*y
	ds[i+2] = b + z*(x-c) + k*cz
}

// Lorenz is the butterfly attractor coupled diffusively on x.
// State: [x, y, z]. Params: [sigma, rho, beta, coupling].
type Lorenz struct{ paramSet }

func NewLorenz() *Lorenz {
	return &Lorenz{newParamSet([]string{"sigma", "rho", "beta", "coupling"}, 10.0, 28.0, 8.0/3.0, 0.5)}
}

func (l *Lorenz) Name() string { return "Lorenz" }
func (l *Lorenz) States() int  { return 3 }

func (l *Lorenz) SetDefaultParams(v topology.Node, sys *network.System) {
	sys.NodeData(v).Params = l.defaults()
}

// Derive calculates the Lorenz attractor derivatives.
func (l *Lorenz) Derive(v topology.Node, sys *network.System, s, ds dynamo.State, _ float64) {
	p := sys.NodeData(v).Params
	sigma, rho, beta, k := l.at(p, 0), l.at(p, 1), l.at(p, 2), l.at(p, 3)
	i := sys.NodeStateID(v)
	x, y, z := s[i], s[i+1], s[i+2]

	cx := 0.0
	eachInput(sys, v, s, func(src int, w float64) {
		cx += w * (s[src] - x)
	})

	ds[i] = sigma*(y-x) + k*cx
	ds[i+1] = x*(rho-z) - y
	ds[i+2] = x*y - beta*z
}
