package optim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/netevo/internal/config"
	"github.com/san-kum/netevo/internal/experiment"
)

func couplingExperiment(params map[string]float64) (*experiment.Experiment, error) {
	cfg := config.Lookup("sync/kuramoto-map")
	cfg.Network.Kind = "ring"
	cfg.Network.Nodes = 6
	cfg.Simulation.Horizon = 30
	cfg.Network.NodeParams = params
	return experiment.Build(cfg, nil)
}

func TestGridSearch(t *testing.T) {
	g := NewGridSearch([]string{"coupling", "omega"}, [][]float64{{0, 0.3}, {0.1, 0.2}})
	best, val, points, err := g.Search(context.Background(), couplingExperiment, "sync_error")
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 4 {
		t.Fatalf("expected 4 grid points, got %d", len(points))
	}
	if points[0].Params["coupling"] != 0 || points[3].Params["coupling"] != 0.3 || points[1].Params["omega"] != 0.2 {
		t.Errorf("grid not visited in row-major order: %+v", points)
	}
	for _, p := range points {
		if p.Err != nil {
			t.Errorf("point %v failed: %v", p.Params, p.Err)
		}
		if p.Value < val {
			t.Errorf("point %v beats the best %g", p.Params, val)
		}
	}
	if best == nil || math.IsInf(val, 1) {
		t.Errorf("no best point found")
	}
}

func TestGridSearchFailures(t *testing.T) {
	g := NewGridSearch([]string{"gamma"}, [][]float64{{1, 2}})
	best, val, points, err := g.Search(context.Background(), couplingExperiment, "sync_error")
	if err != nil {
		t.Fatal(err)
	}
	if best != nil || !math.IsInf(val, 1) || len(points) != 2 || points[0].Err == nil {
		t.Errorf("unknown parameter should fail every point: %v %g %+v", best, val, points)
	}

	g = NewGridSearch([]string{"coupling"}, [][]float64{{0.1}})
	if _, _, _, err := g.Search(context.Background(), couplingExperiment, "energy"); err == nil {
		t.Error("expected error for an unknown metric")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, _, err := g.Search(ctx, couplingExperiment, "sync_error"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected cancellation, got %v", err)
	}

	g = NewGridSearch([]string{"coupling"}, nil)
	if _, _, _, err := g.Search(context.Background(), couplingExperiment, "sync_error"); err == nil {
		t.Error("expected error for mismatched ranges")
	}
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		in   string
		want []float64
		ok   bool
	}{
		{"0:1:0.25", []float64{0, 0.25, 0.5, 0.75, 1}, true},
		{"0:0.3:0.1", []float64{0, 0.1, 0.2, 0.30000000000000004}, true},
		{"0.5", []float64{0.5}, true},
		{"1, 2,3", []float64{1, 2, 3}, true},
		{"1:0:1", nil, false},
		{"0:1:0", nil, false},
		{"a,b", nil, false},
	}
	for _, tt := range tests {
		got, err := ParseRange(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("%q: unexpected error state %v", tt.in, err)
			continue
		}
		if !tt.ok {
			continue
		}
		if len(got) != len(tt.want) {
			t.Errorf("%q: got %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if math.Abs(got[i]-tt.want[i]) > 1e-12 {
				t.Errorf("%q: got %v, want %v", tt.in, got, tt.want)
				break
			}
		}
	}
}
