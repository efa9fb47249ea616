package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/netevo/internal/config"
	"github.com/san-kum/netevo/internal/evolve"
	"github.com/san-kum/netevo/internal/integrators"
	"github.com/san-kum/netevo/internal/metrics"
	"github.com/san-kum/netevo/internal/network"
	"github.com/san-kum/netevo/internal/sim"
)

// Registry maps configuration names to simulators, integrators,
// performances and mutations.
type Registry struct {
	simulators    map[string]func(config.SimulationConfig, *Registry) (sim.Simulator, error)
	steppers      map[string]func() integrators.Stepper
	errorSteppers map[string]func() integrators.ErrorStepper
	performances  map[string]func(*config.Config) evolve.Performance
	mutations     map[string]func(*config.Config) evolve.Mutate
}

func NewRegistry() *Registry {
	r := &Registry{
		simulators:    make(map[string]func(config.SimulationConfig, *Registry) (sim.Simulator, error)),
		steppers:      make(map[string]func() integrators.Stepper),
		errorSteppers: make(map[string]func() integrators.ErrorStepper),
		performances:  make(map[string]func(*config.Config) evolve.Performance),
		mutations:     make(map[string]func(*config.Config) evolve.Mutate),
	}

	r.steppers["euler"] = func() integrators.Stepper { return integrators.NewEuler() }
	r.steppers["rk4"] = func() integrators.Stepper { return integrators.NewRK4() }
	r.steppers["abm4"] = func() integrators.Stepper { return integrators.NewABM4() }

	r.errorSteppers["cash-karp"] = func() integrators.ErrorStepper { return integrators.NewCashKarp54() }
	r.errorSteppers["dormand-prince"] = func() integrators.ErrorStepper { return integrators.NewDormandPrince54() }

	r.simulators["map"] = func(config.SimulationConfig, *Registry) (sim.Simulator, error) {
		return sim.NewMap(), nil
	}
	r.simulators["ode-fixed"] = func(c config.SimulationConfig, r *Registry) (sim.Simulator, error) {
		s, err := r.GetStepper(c.Stepper)
		if err != nil {
			return nil, err
		}
		return sim.OdeFixed{Stepper: s, Dt: c.Dt}, nil
	}
	r.simulators["ode-const"] = func(c config.SimulationConfig, r *Registry) (sim.Simulator, error) {
		s, err := r.GetErrorStepper(c.Stepper)
		if err != nil {
			return nil, err
		}
		return sim.OdeConst{Stepper: s, Dense: c.Dense, AbsTol: c.AbsTol, RelTol: c.RelTol, Dt: c.Dt}, nil
	}
	r.simulators["ode-adaptive"] = func(c config.SimulationConfig, r *Registry) (sim.Simulator, error) {
		s, err := r.GetErrorStepper(c.Stepper)
		if err != nil {
			return nil, err
		}
		return sim.OdeAdaptive{Stepper: s, AbsTol: c.AbsTol, RelTol: c.RelTol, Dt: c.Dt}, nil
	}

	r.performances["eigenratio"] = func(*config.Config) evolve.Performance {
		return evolve.NewEigenratioPerformance()
	}
	r.performances["sync"] = func(c *config.Config) evolve.Performance {
		return evolve.SyncPerformance{Delta: c.Evolution.SyncDelta}
	}
	r.performances["order"] = func(*config.Config) evolve.Performance {
		return evolve.OrderPerformance{}
	}

	r.mutations["rewire"] = func(c *config.Config) evolve.Mutate {
		return evolve.RewireMutation{MaxRewires: c.Evolution.MaxRewires, ArcDynamic: c.Network.ArcDynamic}
	}
	r.mutations["random"] = func(c *config.Config) evolve.Mutate {
		return evolve.RandomMutation{
			Probs:       c.Evolution.Probabilities.MutationProbs(),
			Trials:      c.Evolution.MutationTrials,
			NodeDynamic: c.Network.NodeDynamic,
			ArcDynamic:  c.Network.ArcDynamic,
			Undirected:  c.Network.Undirected,
			ParamScale:  c.Evolution.ParamScale,
		}
	}

	return r
}

func (r *Registry) GetSimulator(c config.SimulationConfig) (sim.Simulator, error) {
	fn, ok := r.simulators[c.Method]
	if !ok {
		return nil, fmt.Errorf("unknown simulator: %s", c.Method)
	}
	return fn(c, r)
}

func (r *Registry) GetStepper(name string) (integrators.Stepper, error) {
	fn, ok := r.steppers[name]
	if !ok {
		return nil, fmt.Errorf("unknown stepper: %s", name)
	}
	return fn(), nil
}

// GetErrorStepper resolves an embedded Runge-Kutta pair. The empty name
// selects Dormand-Prince.
func (r *Registry) GetErrorStepper(name string) (integrators.ErrorStepper, error) {
	if name == "" {
		name = "dormand-prince"
	}
	fn, ok := r.errorSteppers[name]
	if !ok {
		return nil, fmt.Errorf("unknown error stepper: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetPerformance(cfg *config.Config) (evolve.Performance, error) {
	fn, ok := r.performances[cfg.Evolution.Performance]
	if !ok {
		return nil, fmt.Errorf("unknown performance: %s", cfg.Evolution.Performance)
	}
	return fn(cfg), nil
}

func (r *Registry) GetMutation(cfg *config.Config) (evolve.Mutate, error) {
	fn, ok := r.mutations[cfg.Evolution.Mutation]
	if !ok {
		return nil, fmt.Errorf("unknown mutation: %s", cfg.Evolution.Mutation)
	}
	return fn(cfg), nil
}

func keys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) ListSimulators() []string   { return keys(r.simulators) }
func (r *Registry) ListPerformances() []string { return keys(r.performances) }
func (r *Registry) ListMutations() []string    { return keys(r.mutations) }

func (r *Registry) ListSteppers() []string {
	return append(keys(r.steppers), keys(r.errorSteppers)...)
}

// DefaultMetrics are observed during every simulate run.
func (r *Registry) DefaultMetrics(sys *network.System) []metrics.Metric {
	return []metrics.Metric{
		metrics.NewSyncError(sys),
		metrics.NewOrderParameter(sys),
		metrics.NewStability(1e6),
	}
}
