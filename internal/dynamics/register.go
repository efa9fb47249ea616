// Package dynamics provides node and arc dynamics for network systems.
//
// Node dynamics:
//
//   - [KuramotoMap]: discrete phase oscillator for the Map simulator
//   - [Kuramoto]: continuous phase oscillator
//   - [Rossler]: chaotic oscillator coupled on x and z
//   - [Lorenz]: butterfly attractor coupled on x
//
// Arc dynamics:
//
//   - [AdaptiveCoupling]: state-dependent coupling strength
//
// Every dynamic implements [dynamo.Configurable]; changing a parameter
// changes the defaults installed on entities created afterwards.
package dynamics

import (
	"errors"

	"github.com/san-kum/netevo/internal/dynamo"
	"github.com/san-kum/netevo/internal/network"
)

// NodeDynamics returns a fresh instance of every node dynamic.
func NodeDynamics() []network.NodeDynamic {
	return []network.NodeDynamic{NewKuramotoMap(), NewKuramoto(), NewRossler(), NewLorenz()}
}

// ArcDynamics returns a fresh instance of every arc dynamic.
func ArcDynamics() []network.ArcDynamic {
	return []network.ArcDynamic{NewAdaptiveCoupling()}
}

// Register adds every dynamic of this package to the registry of sys.
// Names that are already registered are left alone.
func Register(sys *network.System) error {
	return RegisterWith(sys.Registry())
}

func RegisterWith(reg *network.Registry) error {
	for _, d := range NodeDynamics() {
		if err := reg.RegisterNode(d); err != nil && !errors.Is(err, dynamo.ErrDuplicateDynamic) {
			return err
		}
	}
	for _, d := range ArcDynamics() {
		if err := reg.RegisterArc(d); err != nil && !errors.Is(err, dynamo.ErrDuplicateDynamic) {
			return err
		}
	}
	return nil
}
