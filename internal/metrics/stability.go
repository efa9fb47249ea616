package metrics

import (
	"math"

	"github.com/san-kum/netevo/internal/dynamo"
)

// Stability is the fraction of observed states that are finite and bounded
// by threshold in every component. Diverged holds the time of the first
// violation, or NaN while there has been none.
type Stability struct {
	threshold float64
	bounded   int
	samples   int
	Diverged  float64
}

func NewStability(threshold float64) *Stability {
	return &Stability{threshold: threshold, Diverged: math.NaN()}
}

func (*Stability) Name() string { return "stability" }

func (s *Stability) Observe(x dynamo.State, t float64) {
	s.samples++
	if x.IsValid() && x.MaxAbs() <= s.threshold {
		s.bounded++
		return
	}
	if math.IsNaN(s.Diverged) {
		s.Diverged = t
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1
	}
	return float64(s.bounded) / float64(s.samples)
}

func (s *Stability) Reset() {
	*s = Stability{threshold: s.threshold, Diverged: math.NaN()}
}
