package config

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/netevo/internal/evolve"
)

const (
	DefaultNodes      = 20
	DefaultNeighbours = 2
	DefaultDt         = 0.01
	DefaultHorizon    = 100.0
	DefaultTol        = 1e-6
	DefaultDataDir    = "data"
)

var (
	NetworkKinds = []string{"ring", "random", "file"}
	Methods      = []string{"map", "ode-fixed", "ode-const", "ode-adaptive"}
	Steppers     = []string{"euler", "rk4", "abm4", "cash-karp", "dormand-prince"}
	Performances = []string{"eigenratio", "sync", "order"}
	Mutations    = []string{"rewire", "random"}
)

type Config struct {
	Seed       int64            `yaml:"seed"`
	Network    NetworkConfig    `yaml:"network"`
	Simulation SimulationConfig `yaml:"simulation"`
	Evolution  EvolutionConfig  `yaml:"evolution"`
	Storage    StorageConfig    `yaml:"storage"`
}

type NetworkConfig struct {
	Kind        string  `yaml:"kind"`
	Nodes       int     `yaml:"nodes"`
	Neighbours  int     `yaml:"neighbours"`
	Probability float64 `yaml:"probability"`
	SelfLoops   bool    `yaml:"self_loops"`
	Undirected  bool    `yaml:"undirected"`
	NodeDynamic string  `yaml:"node_dynamic"`
	ArcDynamic  string  `yaml:"arc_dynamic"`
	File        string  `yaml:"file,omitempty"`
	// NodeParams and ArcParams override the defaults of the named dynamics.
	NodeParams map[string]float64 `yaml:"node_params,omitempty"`
	ArcParams  map[string]float64 `yaml:"arc_params,omitempty"`
}

type SimulationConfig struct {
	Method    string  `yaml:"method"`
	Stepper   string  `yaml:"stepper"`
	Dt        float64 `yaml:"dt"`
	AbsTol    float64 `yaml:"abs_tol"`
	RelTol    float64 `yaml:"rel_tol"`
	Dense     bool    `yaml:"dense"`
	Horizon   float64 `yaml:"horizon"`
	InitScale float64 `yaml:"init_scale"`
	// Runs is the number of random initial states a system is scored from.
	Runs int `yaml:"runs"`
}

type EvolutionConfig struct {
	InitialTrials         int     `yaml:"initial_trials"`
	MainTrials            int     `yaml:"main_trials"`
	AcceptTrials          int     `yaml:"accept_trials"`
	AcceptRunsNoChange    int     `yaml:"accept_runs_no_change"`
	MaxIterations         int     `yaml:"max_iterations"`
	MinTemp               float64 `yaml:"min_temp"`
	EnsureWeaklyConnected bool    `yaml:"ensure_weakly_connected"`
	SimTMax               float64 `yaml:"sim_t_max"`
	Performance           string  `yaml:"performance"`
	SyncDelta             float64 `yaml:"sync_delta"`
	Mutation              string  `yaml:"mutation"`
	MaxRewires            int     `yaml:"max_rewires"`
	MutationTrials        int     `yaml:"mutation_trials"`
	ParamScale            float64 `yaml:"param_scale"`
	Probabilities         Probs   `yaml:"probabilities"`
}

// Probs are the per-trial chances of the random mutation operations.
type Probs struct {
	NewNode    float64 `yaml:"new_node"`
	DeleteNode float64 `yaml:"delete_node"`
	NewEdge    float64 `yaml:"new_edge"`
	DeleteEdge float64 `yaml:"delete_edge"`
	UpdateNode float64 `yaml:"update_node"`
	UpdateEdge float64 `yaml:"update_edge"`
	Rewire     float64 `yaml:"rewire"`
	Duplicate  float64 `yaml:"duplicate"`
}

type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
	// DB is the path of the SQLite history database; empty disables it.
	DB string `yaml:"db,omitempty"`
}

func DefaultConfig() *Config {
	p := evolve.DefaultParams()
	return &Config{
		Seed: 1,
		Network: NetworkConfig{
			Kind:        "ring",
			Nodes:       DefaultNodes,
			Neighbours:  DefaultNeighbours,
			Probability: 0.2,
			Undirected:  true,
			NodeDynamic: "KuramotoMap",
		},
		Simulation: SimulationConfig{
			Method:    "map",
			Stepper:   "rk4",
			Dt:        DefaultDt,
			AbsTol:    DefaultTol,
			RelTol:    DefaultTol,
			Horizon:   DefaultHorizon,
			InitScale: 1,
			Runs:      1,
		},
		Evolution: EvolutionConfig{
			InitialTrials:         p.InitialTrials,
			MainTrials:            p.MainTrials,
			AcceptTrials:          p.AcceptTrials,
			AcceptRunsNoChange:    p.AcceptRunsNoChange,
			MaxIterations:         p.MaxIterations,
			MinTemp:               p.MinTemp,
			EnsureWeaklyConnected: p.EnsureWeaklyConnected,
			SimTMax:               p.SimTMax,
			Performance:           "eigenratio",
			SyncDelta:             1e-3,
			Mutation:              "rewire",
			MaxRewires:            10,
			MutationTrials:        1,
			ParamScale:            0.1,
		},
		Storage: StorageConfig{
			DataDir: DefaultDataDir,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the values that do not depend on registered dynamics.
func (c *Config) Validate() error {
	n := c.Network
	if !slices.Contains(NetworkKinds, n.Kind) {
		return fmt.Errorf("network: unknown kind %q", n.Kind)
	}
	if n.Kind == "file" && n.File == "" {
		return fmt.Errorf("network: kind file needs a file")
	}
	if n.Nodes < 0 || n.Neighbours < 0 {
		return fmt.Errorf("network: negative size (nodes %d, neighbours %d)", n.Nodes, n.Neighbours)
	}
	if n.Probability < 0 || n.Probability > 1 {
		return fmt.Errorf("network: probability %g outside [0,1]", n.Probability)
	}

	s := c.Simulation
	if !slices.Contains(Methods, s.Method) {
		return fmt.Errorf("simulation: unknown method %q", s.Method)
	}
	if s.Method != "map" {
		if !slices.Contains(Steppers, s.Stepper) {
			return fmt.Errorf("simulation: unknown stepper %q", s.Stepper)
		}
		if s.Dt <= 0 {
			return fmt.Errorf("simulation: dt must be positive, got %g", s.Dt)
		}
	}
	if s.Horizon < 0 {
		return fmt.Errorf("simulation: negative horizon %g", s.Horizon)
	}
	if s.Runs < 1 {
		return fmt.Errorf("simulation: runs must be at least 1, got %d", s.Runs)
	}

	e := c.Evolution
	if !slices.Contains(Performances, e.Performance) {
		return fmt.Errorf("evolution: unknown performance %q", e.Performance)
	}
	if !slices.Contains(Mutations, e.Mutation) {
		return fmt.Errorf("evolution: unknown mutation %q", e.Mutation)
	}
	if err := c.EvolveParams().Validate(); err != nil {
		return fmt.Errorf("evolution: %w", err)
	}
	return nil
}

// EvolveParams converts the evolution section. The temperature hooks keep
// their defaults.
func (c *Config) EvolveParams() evolve.Params {
	e := c.Evolution
	p := evolve.DefaultParams()
	p.InitialTrials = e.InitialTrials
	p.MainTrials = e.MainTrials
	p.AcceptTrials = e.AcceptTrials
	p.AcceptRunsNoChange = e.AcceptRunsNoChange
	p.MaxIterations = e.MaxIterations
	p.MinTemp = e.MinTemp
	p.EnsureWeaklyConnected = e.EnsureWeaklyConnected
	p.SimTMax = e.SimTMax
	p.Seed = c.Seed
	return p
}

// MutationProbs converts the random mutation probabilities.
func (p Probs) MutationProbs() evolve.MutationProbs {
	return evolve.MutationProbs{
		NewNode:    p.NewNode,
		DeleteNode: p.DeleteNode,
		NewEdge:    p.NewEdge,
		DeleteEdge: p.DeleteEdge,
		UpdateNode: p.UpdateNode,
		UpdateEdge: p.UpdateEdge,
		Rewire:     p.Rewire,
		Duplicate:  p.Duplicate,
	}
}
