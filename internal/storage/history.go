package storage

import (
	"github.com/san-kum/netevo/internal/evolve"
	"github.com/san-kum/netevo/internal/network"
)

// HistoryRecorder is an evolve.Observer that keeps the performance history
// of a run in memory. Every > 1 keeps only iterations divisible by Every;
// iteration 0 is always kept.
type HistoryRecorder struct {
	Every   int
	Samples []Sample

	Trials   int
	Accepted int
}

func NewHistoryRecorder(every int) *HistoryRecorder {
	return &HistoryRecorder{Every: every}
}

func (h *HistoryRecorder) Observe(sys *network.System, perf float64, iteration int) {
	if h.Every > 1 && iteration%h.Every != 0 {
		return
	}
	h.Samples = append(h.Samples, Sample{
		Iteration:   iteration,
		Performance: perf,
		Nodes:       sys.CountNodes(),
		Arcs:        sys.CountArcs(),
	})
}

func (h *HistoryRecorder) ObserveTrial(_ int, tr evolve.TrialResult) {
	h.Trials++
	if tr.Accepted {
		h.Accepted++
	}
}

// Performances returns the recorded performance values in order.
func (h *HistoryRecorder) Performances() []float64 {
	out := make([]float64, len(h.Samples))
	for i, s := range h.Samples {
		out[i] = s.Performance
	}
	return out
}

// Drain returns the samples recorded since the last call and forgets them.
func (h *HistoryRecorder) Drain() []Sample {
	out := h.Samples
	h.Samples = nil
	return out
}
