package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/san-kum/netevo/internal/config"
	"github.com/san-kum/netevo/internal/dynamics"
	"github.com/san-kum/netevo/internal/dynamo"
	"github.com/san-kum/netevo/internal/evolve"
	"github.com/san-kum/netevo/internal/gml"
	"github.com/san-kum/netevo/internal/network"
	"github.com/san-kum/netevo/internal/sim"
)

// Experiment is a network with the strategies to simulate and evolve it,
// all built from one configuration.
type Experiment struct {
	Config        *config.Config
	System        *network.System
	Simulator     sim.Simulator
	Performance   evolve.Performance
	Mutation      evolve.Mutate
	InitialStates evolve.InitialStates

	registry *Registry
}

// Build validates cfg and creates the network and strategies it names.
func Build(cfg *config.Config, reg *Registry) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if reg == nil {
		reg = NewRegistry()
	}
	sys, err := buildSystem(cfg)
	if err != nil {
		return nil, err
	}
	e := &Experiment{Config: cfg, System: sys, registry: reg}
	if e.Simulator, err = reg.GetSimulator(cfg.Simulation); err != nil {
		return nil, err
	}
	if e.Performance, err = reg.GetPerformance(cfg); err != nil {
		return nil, err
	}
	if e.Mutation, err = reg.GetMutation(cfg); err != nil {
		return nil, err
	}
	e.InitialStates = evolve.RandomInitialStates{Scale: cfg.Simulation.InitScale, Count: cfg.Simulation.Runs}
	return e, nil
}

func buildSystem(cfg *config.Config) (*network.System, error) {
	n := cfg.Network
	sys := network.New(cfg.Seed)
	if err := dynamics.Register(sys); err != nil {
		return nil, err
	}
	if err := configure(sys, n.NodeDynamic, n.NodeParams, n.ArcDynamic, n.ArcParams); err != nil {
		return nil, err
	}

	var err error
	switch n.Kind {
	case "ring":
		err = sys.RingGraph(n.Nodes, n.Neighbours, n.Undirected, n.NodeDynamic, n.ArcDynamic)
	case "random":
		err = sys.RandomGraph(n.Probability, n.Nodes, n.SelfLoops, n.Undirected, n.NodeDynamic, n.ArcDynamic)
	case "file":
		err = gml.LoadFile(n.File, sys)
	default:
		err = fmt.Errorf("unknown network kind: %s", n.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("build network: %w", err)
	}
	return sys, nil
}

// configure overrides parameter defaults of the registered dynamics before
// any entity is created.
func configure(sys *network.System, nodeDyn string, nodeParams map[string]float64, arcDyn string, arcParams map[string]float64) error {
	if len(nodeParams) > 0 {
		d, err := sys.Registry().Node(nodeDyn)
		if err != nil {
			return err
		}
		if err := setParams(d, nodeParams); err != nil {
			return fmt.Errorf("node dynamic %s: %w", d.Name(), err)
		}
	}
	if len(arcParams) > 0 {
		d, err := sys.Registry().Arc(arcDyn)
		if err != nil {
			return err
		}
		if err := setParams(d, arcParams); err != nil {
			return fmt.Errorf("arc dynamic %s: %w", d.Name(), err)
		}
	}
	return nil
}

func setParams(d any, params map[string]float64) error {
	c, ok := d.(dynamo.Configurable)
	if !ok {
		return fmt.Errorf("%w: dynamic takes no parameters", dynamo.ErrUnknownParam)
	}
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := c.SetParam(name, params[name]); err != nil {
			return err
		}
	}
	return nil
}

// SimResult is the outcome of Experiment.Simulate.
type SimResult struct {
	Initial dynamo.State
	Final   dynamo.State
	States  []dynamo.State
	Times   []float64
	Metrics map[string]float64
}

// Simulate runs the network once from a random initial state over the
// configured horizon. obs and log may be nil.
func (e *Experiment) Simulate(ctx context.Context, obs sim.Observer, log network.ChangeLog) (*SimResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	x0 := evolve.RandomInitialStates{Scale: e.Config.Simulation.InitScale}.InitialStates(e.System)[0]
	rec := &sim.Recorder{}
	ms := e.registry.DefaultMetrics(e.System)
	observers := sim.Observers{rec}
	for _, m := range ms {
		observers = append(observers, m)
	}
	if obs != nil {
		observers = append(observers, obs)
	}

	final, err := e.Simulator.Simulate(e.System, e.Config.Simulation.Horizon, x0, observers, log)
	if err != nil {
		return nil, err
	}
	res := &SimResult{
		Initial: x0,
		Final:   final,
		States:  rec.States,
		Times:   rec.Times,
		Metrics: make(map[string]float64, len(ms)),
	}
	for _, m := range ms {
		res.Metrics[m.Name()] = m.Value()
	}
	slog.Default().With(slog.String("component", "experiment")).Debug("simulation done",
		slog.Int("steps", len(res.Times)),
		slog.Any("metrics", res.Metrics))
	return res, nil
}

// Evolve anneals the network with the configured strategies. obs and log
// may be nil.
func (e *Experiment) Evolve(ctx context.Context, obs evolve.Observer, log network.ChangeLog) (*evolve.Result, error) {
	a := evolve.New(e.Config.EvolveParams(), e.Mutation, e.Performance)
	if e.Performance.Type() != evolve.TopologyOnly {
		a.Simulator = e.Simulator
		a.InitialStates = e.InitialStates
	}
	a.Observer = obs
	a.Log = log
	return a.Evolve(ctx, e.System)
}
