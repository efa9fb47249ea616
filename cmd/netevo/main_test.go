package main

import (
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/san-kum/netevo/internal/config"
)

func testCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	configFile, seed, iterations, dataDir = "", 0, 0, config.DefaultDataDir
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVar(&configFile, "config", "", "")
	cmd.Flags().Int64Var(&seed, "seed", 0, "")
	cmd.Flags().IntVar(&iterations, "iterations", 0, "")
	cmd.Flags().StringVar(&dataDir, "data", config.DefaultDataDir, "")
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatal(err)
	}
	return cmd
}

func TestLoadConfigPreset(t *testing.T) {
	cmd := testCommand(t, "--seed", "7", "--iterations", "50")
	cfg, name, err := loadConfig(cmd, []string{"topology/eigenratio-small"})
	if err != nil {
		t.Fatal(err)
	}
	if name != "topology/eigenratio-small" || cfg.Seed != 7 || cfg.Evolution.MaxIterations != 50 {
		t.Errorf("flags not applied: %s %+v", name, cfg.Evolution)
	}
	if cfg.Network.Nodes != 12 {
		t.Errorf("expected preset network, got %d nodes", cfg.Network.Nodes)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "netevo.yaml")
	want := config.DefaultConfig()
	want.Network.Nodes = 9
	if err := config.Save(path, want); err != nil {
		t.Fatal(err)
	}
	cmd := testCommand(t, "--config", path, "--data", "elsewhere")
	cfg, _, err := loadConfig(cmd, []string{"sync/kuramoto-map"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Network.Nodes != 9 || cfg.Storage.DataDir != "elsewhere" {
		t.Errorf("unexpected config %+v %+v", cfg.Network, cfg.Storage)
	}
}

func TestLoadConfigUnknownPreset(t *testing.T) {
	cmd := testCommand(t)
	if _, _, err := loadConfig(cmd, []string{"sync/none"}); err == nil {
		t.Error("expected error for an unknown preset")
	}
}

func TestSetupLogging(t *testing.T) {
	logLevel = "debug"
	if err := setupLogging(nil, nil); err != nil {
		t.Fatal(err)
	}
	logLevel = "loud"
	if err := setupLogging(nil, nil); err == nil {
		t.Error("expected error for an invalid level")
	}
	logLevel = "warn"
}
