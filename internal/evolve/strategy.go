package evolve

import (
	"github.com/san-kum/netevo/internal/dynamo"
	"github.com/san-kum/netevo/internal/network"
)

// Mutate alters sys in place and reports every structural edit to log.
type Mutate interface {
	Mutate(sys *network.System, log network.ChangeLog)
}

type MutateFunc func(sys *network.System, log network.ChangeLog)

func (f MutateFunc) Mutate(sys *network.System, log network.ChangeLog) { f(sys, log) }

// PerformanceType declares whether a performance needs a simulation.
type PerformanceType int

const (
	TopologyOnly PerformanceType = iota
	DynamicsOnly
	TopologyAndDynamics
)

func (t PerformanceType) String() string {
	switch t {
	case TopologyOnly:
		return "topology"
	case DynamicsOnly:
		return "dynamics"
	case TopologyAndDynamics:
		return "topology+dynamics"
	default:
		return "unknown"
	}
}

// Trajectory is the outcome of one simulation run handed to a Performance.
// States and Times are only filled when Params.RecordStates is set.
type Trajectory struct {
	Initial dynamo.State
	Final   dynamo.State
	TMax    float64
	States  []dynamo.State
	Times   []float64
}

// Performance scores a system. Lower is better. traj is nil for
// TopologyOnly performances.
type Performance interface {
	Type() PerformanceType
	Performance(sys *network.System, traj *Trajectory) float64
}

// InitialStates returns the initial conditions to simulate a system from.
// The score of a system is the mean over one run per returned state.
type InitialStates interface {
	InitialStates(sys *network.System) []dynamo.State
}

// Observer is told about the current system after every trial.
type Observer interface {
	Observe(sys *network.System, perf float64, iteration int)
}

type ObserverFunc func(sys *network.System, perf float64, iteration int)

func (f ObserverFunc) Observe(sys *network.System, perf float64, iteration int) {
	f(sys, perf, iteration)
}

// TrialObserver is optionally implemented by an Observer that also wants
// the record of each annealing trial.
type TrialObserver interface {
	ObserveTrial(iteration int, tr TrialResult)
}

// Observers forwards to each member in order.
type Observers []Observer

func (o Observers) Observe(sys *network.System, perf float64, iteration int) {
	for _, obs := range o {
		obs.Observe(sys, perf, iteration)
	}
}

func (o Observers) ObserveTrial(iteration int, tr TrialResult) {
	for _, obs := range o {
		if to, ok := obs.(TrialObserver); ok {
			to.ObserveTrial(iteration, tr)
		}
	}
}

// TrialResult records one annealing trial. DQ is Q1-Q2, positive for an
// improvement. Q2 is NaN for a trial rejected for disconnecting the graph.
type TrialResult struct {
	Q1       float64
	Q2       float64
	DQ       float64
	Accepted bool
}
