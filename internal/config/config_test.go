package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Network.Kind != "ring" {
		t.Errorf("expected ring network, got %s", cfg.Network.Kind)
	}
	if cfg.Simulation.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("sync", "rossler-ring")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Network.NodeDynamic != "Rossler" {
		t.Errorf("expected Rossler nodes, got %s", cfg.Network.NodeDynamic)
	}
	if cfg.Evolution.Performance != "sync" {
		t.Errorf("expected sync performance, got %s", cfg.Evolution.Performance)
	}
}

func TestGetPresetCopies(t *testing.T) {
	a := GetPreset("sync", "kuramoto-map")
	a.Network.NodeParams["coupling"] = 99
	a.Network.Nodes = 1
	b := GetPreset("sync", "kuramoto-map")
	if b.Network.NodeParams["coupling"] != 0.2 || b.Network.Nodes != 15 {
		t.Error("editing a preset copy changed the preset")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("sync", "nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if cfg := GetPreset("nonexistent", "small"); cfg != nil {
		t.Error("expected nil for nonexistent group")
	}
	if cfg := Lookup("eigenratio"); cfg != nil {
		t.Error("expected nil for a reference without group")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets("topology")
	if len(presets) != 2 || presets[0] != "eigenratio" {
		t.Errorf("unexpected topology presets %v", presets)
	}
	if presets := ListPresets("nonexistent"); presets != nil {
		t.Error("expected nil for nonexistent group")
	}
}

func TestPresetsValid(t *testing.T) {
	all := All()
	if len(all) != 4 {
		t.Fatalf("expected 4 presets, got %v", all)
	}
	for _, ref := range all {
		cfg := Lookup(ref)
		if cfg == nil {
			t.Errorf("%s: lookup failed", ref)
			continue
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("%s: %v", ref, err)
		}
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "netevo.yaml")
	cfg := GetPreset("sync", "kuramoto-map")
	cfg.Seed = 42
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Seed != 42 || loaded.Network.Nodes != 15 || loaded.Network.NodeParams["coupling"] != 0.2 {
		t.Errorf("round trip lost values: %+v", loaded.Network)
	}
}

func TestLoadPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	data := "network:\n  kind: random\n  nodes: 7\nevolution:\n  main_trials: 3\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Network.Kind != "random" || cfg.Network.Nodes != 7 {
		t.Errorf("network not loaded: %+v", cfg.Network)
	}
	if cfg.Evolution.MainTrials != 3 || cfg.Evolution.AcceptTrials != 10 {
		t.Errorf("evolution should merge onto defaults: %+v", cfg.Evolution)
	}
	if cfg.Simulation.Method != "map" {
		t.Errorf("missing section should keep defaults, got %q", cfg.Simulation.Method)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("network: [1, 2"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		edit func(*Config)
		want string
	}{
		{"kind", func(c *Config) { c.Network.Kind = "star" }, "unknown kind"},
		{"file", func(c *Config) { c.Network.Kind = "file" }, "needs a file"},
		{"probability", func(c *Config) { c.Network.Probability = 2 }, "probability"},
		{"method", func(c *Config) { c.Simulation.Method = "sde" }, "unknown method"},
		{"stepper", func(c *Config) { c.Simulation.Method = "ode-fixed"; c.Simulation.Stepper = "leapfrog" }, "unknown stepper"},
		{"dt", func(c *Config) { c.Simulation.Method = "ode-fixed"; c.Simulation.Dt = 0 }, "dt must be positive"},
		{"runs", func(c *Config) { c.Simulation.Runs = 0 }, "runs"},
		{"performance", func(c *Config) { c.Evolution.Performance = "energy" }, "unknown performance"},
		{"mutation", func(c *Config) { c.Evolution.Mutation = "swap" }, "unknown mutation"},
		{"trials", func(c *Config) { c.Evolution.MainTrials = 0 }, "main trials"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.edit(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("got %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestEvolveParams(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 9
	cfg.Evolution.MaxIterations = 77
	p := cfg.EvolveParams()
	if p.Seed != 9 || p.MaxIterations != 77 {
		t.Errorf("unexpected params %+v", p)
	}
	if p.AcceptProb == nil || p.NewTemperature == nil {
		t.Error("temperature hooks should keep their defaults")
	}
}
