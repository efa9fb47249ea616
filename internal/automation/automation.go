package automation

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/netevo/internal/config"
	"github.com/san-kum/netevo/internal/experiment"
	"github.com/san-kum/netevo/internal/storage"
)

// Scenario is a scripted sequence of simulate and evolve runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep names its starting configuration by Preset or Config (a yaml
// file) and overrides selected fields.
type ScenarioStep struct {
	Run        string             `yaml:"run"`
	Preset     string             `yaml:"preset"`
	Config     string             `yaml:"config"`
	Seed       int64              `yaml:"seed"`
	Nodes      int                `yaml:"nodes"`
	Horizon    float64            `yaml:"horizon"`
	Iterations int                `yaml:"iterations"`
	NodeParams map[string]float64 `yaml:"node_params"`
}

// StepResult summarises one executed step. RunID is empty when no store was
// given.
type StepResult struct {
	Step        int
	Run         string
	RunID       string
	Metrics     map[string]float64
	Initial     float64
	Best        float64
	Iterations  int
	Performance string
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", path)
	}
	return &scenario, nil
}

// ResolveConfig builds the configuration of the step.
func (s ScenarioStep) ResolveConfig() (*config.Config, error) {
	var cfg *config.Config
	switch {
	case s.Config != "":
		c, err := config.Load(s.Config)
		if err != nil {
			return nil, err
		}
		cfg = c
	case s.Preset != "":
		cfg = config.Lookup(s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", s.Preset)
		}
	default:
		cfg = config.DefaultConfig()
	}
	if s.Seed != 0 {
		cfg.Seed = s.Seed
	}
	if s.Nodes > 0 {
		cfg.Network.Nodes = s.Nodes
	}
	if s.Horizon > 0 {
		cfg.Simulation.Horizon = s.Horizon
	}
	if s.Iterations > 0 {
		cfg.Evolution.MaxIterations = s.Iterations
	}
	if len(s.NodeParams) > 0 {
		cfg.Network.NodeParams = s.NodeParams
	}
	return cfg, nil
}

// RunScenario executes all steps in order, saving each run to st when it
// is not nil.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, st *storage.Store) ([]StepResult, error) {
	log := slog.Default().With(slog.String("component", "automation"), slog.String("scenario", scenario.Name))
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		log.Info("running step", slog.Int("step", i+1), slog.Int("of", len(scenario.Steps)), slog.String("run", step.Run))

		cfg, err := step.ResolveConfig()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		exp, err := experiment.Build(cfg, registry)
		if err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		res := StepResult{Step: i + 1, Run: step.Run, Performance: cfg.Evolution.Performance}
		switch step.Run {
		case "simulate", "":
			res.Run = "simulate"
			sr, err := exp.Simulate(ctx, nil, nil)
			if err != nil {
				return results, fmt.Errorf("step %d run: %w", i+1, err)
			}
			res.Metrics = sr.Metrics
			if st != nil {
				meta := &storage.RunMetadata{Preset: step.Preset, Seed: cfg.Seed, NodeDynamic: cfg.Network.NodeDynamic,
					Method: cfg.Simulation.Method, Horizon: cfg.Simulation.Horizon, Metrics: sr.Metrics}
				if res.RunID, err = st.SaveSimulation(meta, exp.System, sr.States, sr.Times); err != nil {
					return results, fmt.Errorf("step %d save: %w", i+1, err)
				}
			}
		case "evolve":
			initial := exp.System.Copy()
			hist := storage.NewHistoryRecorder(1)
			er, err := exp.Evolve(ctx, hist, nil)
			if err != nil {
				return results, fmt.Errorf("step %d run: %w", i+1, err)
			}
			res.Initial, res.Best, res.Iterations = er.InitialPerformance, er.BestPerformance, er.Iterations
			if st != nil {
				meta := &storage.RunMetadata{Preset: step.Preset, Seed: cfg.Seed, NodeDynamic: cfg.Network.NodeDynamic,
					Method: cfg.Simulation.Method, Performance: cfg.Evolution.Performance, Mutation: cfg.Evolution.Mutation,
					InitialPerformance: er.InitialPerformance, FinalPerformance: er.Performance,
					BestPerformance: er.BestPerformance, Iterations: er.Iterations, Accepted: er.Accepted}
				if res.RunID, err = st.SaveEvolution(meta, initial, er.System, hist.Drain()); err != nil {
					return results, fmt.Errorf("step %d save: %w", i+1, err)
				}
			}
		default:
			return results, fmt.Errorf("step %d: unknown run %q", i+1, step.Run)
		}
		results = append(results, res)
	}

	return results, nil
}

// EnsembleResult is the outcome of evolving one seed.
type EnsembleResult struct {
	Seed       int64
	Initial    float64
	Best       float64
	Iterations int
	Accepted   int
}

// RunEnsemble evolves the configuration once per seed, with seeds
// cfg.Seed, cfg.Seed+1, ... Runs are independent and execute concurrently,
// at most GOMAXPROCS at a time. Results are ordered by seed.
func RunEnsemble(ctx context.Context, cfg *config.Config, runs int, registry *experiment.Registry) ([]EnsembleResult, error) {
	log := slog.Default().With(slog.String("component", "automation"))
	if registry == nil {
		registry = experiment.NewRegistry()
	}
	results := make([]EnsembleResult, runs)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	var done atomic.Int64
	for trial := 0; trial < runs; trial++ {
		g.Go(func() error {
			c := *cfg
			c.Seed = cfg.Seed + int64(trial)
			exp, err := experiment.Build(&c, registry)
			if err != nil {
				return err
			}
			res, err := exp.Evolve(ctx, nil, nil)
			if err != nil {
				return fmt.Errorf("seed %d: %w", c.Seed, err)
			}
			results[trial] = EnsembleResult{
				Seed:       c.Seed,
				Initial:    res.InitialPerformance,
				Best:       res.BestPerformance,
				Iterations: res.Iterations,
				Accepted:   res.Accepted,
			}

			if n := done.Add(1); n%10 == 0 {
				log.Info("ensemble progress", slog.Int64("done", n), slog.Int("of", runs))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// EnsembleStats summarises the best performances of an ensemble. Std is
// the sample standard deviation.
type EnsembleStats struct {
	Runs     int
	Improved int
	Mean     float64
	Std      float64
	Min      float64
	Max      float64
}

func Stats(results []EnsembleResult) EnsembleStats {
	if len(results) == 0 {
		return EnsembleStats{}
	}
	best := make([]float64, len(results))
	s := EnsembleStats{Runs: len(results)}
	for i, r := range results {
		best[i] = r.Best
		if r.Best < r.Initial {
			s.Improved++
		}
	}
	s.Mean, s.Std = stat.MeanStdDev(best, nil)
	if len(best) == 1 {
		s.Std = 0
	}
	s.Min, s.Max = floats.Min(best), floats.Max(best)
	return s
}
