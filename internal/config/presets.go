package config

import (
	"maps"
	"sort"
	"strings"
)

// Presets maps a group and a name to a complete configuration. Presets are
// shared; GetPreset returns a copy.
var Presets = map[string]map[string]*Config{
	"sync": {
		"rossler-ring": withDefaults(func(c *Config) {
			c.Network = NetworkConfig{
				Kind: "ring", Nodes: 10, Neighbours: 1, Undirected: true,
				NodeDynamic: "Rossler",
			}
			c.Simulation.Method = "ode-fixed"
			c.Simulation.Dt = 0.01
			c.Simulation.Horizon = 50
			c.Simulation.InitScale = 5
			c.Evolution.Performance = "sync"
			c.Evolution.SimTMax = 50
			c.Evolution.InitialTrials = 20
			c.Evolution.MainTrials = 20
			c.Evolution.MaxIterations = 500
		}),
		"kuramoto-map": withDefaults(func(c *Config) {
			c.Network = NetworkConfig{
				Kind: "random", Nodes: 15, Probability: 0.25, Undirected: true,
				NodeDynamic: "KuramotoMap",
				NodeParams:  map[string]float64{"coupling": 0.2},
			}
			c.Simulation.Method = "map"
			c.Simulation.Horizon = 200
			c.Simulation.InitScale = 6.283185307179586
			c.Evolution.Performance = "order"
			c.Evolution.SimTMax = 200
			c.Evolution.MaxIterations = 2000
		}),
	},
	"topology": {
		"eigenratio": withDefaults(func(c *Config) {
			c.Network = NetworkConfig{
				Kind: "random", Nodes: 30, Probability: 0.15, Undirected: true,
			}
			c.Evolution.Performance = "eigenratio"
			c.Evolution.Mutation = "rewire"
		}),
		"eigenratio-small": withDefaults(func(c *Config) {
			c.Network = NetworkConfig{
				Kind: "ring", Nodes: 12, Neighbours: 2, Undirected: true,
			}
			c.Evolution.Performance = "eigenratio"
			c.Evolution.InitialTrials = 20
			c.Evolution.MainTrials = 20
			c.Evolution.AcceptTrials = 5
			c.Evolution.AcceptRunsNoChange = 5
			c.Evolution.MaxIterations = 1000
		}),
	},
}

func withDefaults(edit func(*Config)) *Config {
	c := DefaultConfig()
	edit(c)
	return c
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(group, preset string) *Config {
	groupPresets, ok := Presets[group]
	if !ok {
		return nil
	}
	cfg, ok := groupPresets[preset]
	if !ok {
		return nil
	}
	return cfg.clone()
}

// Lookup resolves a "group/name" reference.
func Lookup(ref string) *Config {
	group, name, ok := strings.Cut(ref, "/")
	if !ok {
		return nil
	}
	return GetPreset(group, name)
}

func ListPresets(group string) []string {
	groupPresets, ok := Presets[group]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(groupPresets))
	for name := range groupPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All lists every preset as "group/name".
func All() []string {
	var refs []string
	for group := range Presets {
		for _, name := range ListPresets(group) {
			refs = append(refs, group+"/"+name)
		}
	}
	sort.Strings(refs)
	return refs
}

func (c *Config) clone() *Config {
	out := *c
	out.Network.NodeParams = maps.Clone(c.Network.NodeParams)
	out.Network.ArcParams = maps.Clone(c.Network.ArcParams)
	return &out
}
