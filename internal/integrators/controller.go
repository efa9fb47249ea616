package integrators

import (
	"fmt"
	"math"

	"github.com/san-kum/netevo/internal/dynamo"
)

const (
	DefaultAbsTol = 1e-6
	DefaultRelTol = 1e-6
	DefaultMinDt  = 1e-12

	safety    = 0.9
	minShrink = 0.2
	maxGrow   = 5.0
)

// Controller decides whether a step of an ErrorStepper is accepted and
// proposes the next step size.
type Controller struct {
	AbsTol float64
	RelTol float64
	MinDt  float64
}

func NewController(absTol, relTol float64) Controller {
	return Controller{AbsTol: absTol, RelTol: relTol, MinDt: DefaultMinDt}
}

func (c Controller) tolerances() (abs, rel, minDt float64) {
	abs, rel, minDt = c.AbsTol, c.RelTol, c.MinDt
	if abs <= 0 && rel <= 0 {
		abs, rel = DefaultAbsTol, DefaultRelTol
	}
	if minDt <= 0 {
		minDt = DefaultMinDt
	}
	return abs, rel, minDt
}

// ErrorNorm is max_i |xerr_i| / (abs + rel*(|x_i| + dt*|dxdt_i|)).
func (c Controller) ErrorNorm(x, dxdt, xerr dynamo.State, dt float64) float64 {
	abs, rel, _ := c.tolerances()
	norm := 0.0
	for i := range xerr {
		scale := abs + rel*(math.Abs(x[i])+math.Abs(dt)*math.Abs(dxdt[i]))
		e := math.Abs(xerr[i]) / scale
		if math.IsNaN(e) {
			return math.Inf(1)
		}
		norm = math.Max(norm, e)
	}
	return norm
}

// TryStep attempts one step of size dt from (x, t). When the step is
// accepted it returns the new state and the suggested size of the next
// step; otherwise next is nil and newDt is the reduced size to retry with.
func (c Controller) TryStep(s ErrorStepper, f dynamo.DerivFunc, x dynamo.State, t, dt float64) (next dynamo.State, newDt float64, accepted bool, err error) {
	_, _, minDt := c.tolerances()
	cand, dxdt, xerr := s.StepWithError(f, x, t, dt)
	e := c.ErrorNorm(x, dxdt, xerr, dt)
	q := float64(s.ErrorOrder())

	if e > 1 {
		newDt = dt * math.Max(minShrink, safety*math.Pow(e, -1/q))
		if math.IsInf(e, 1) {
			newDt = dt * minShrink
		}
		if math.Abs(newDt) < minDt {
			return nil, newDt, false, fmt.Errorf("%w: dt=%g at t=%g", dynamo.ErrStepTooSmall, newDt, t)
		}
		return nil, newDt, false, nil
	}

	newDt = dt
	if e < 0.5 {
		grow := maxGrow
		if e > 0 {
			grow = math.Min(maxGrow, safety*math.Pow(e, -1/(q+1)))
		}
		newDt = dt * grow
	}
	return cand, newDt, true, nil
}
