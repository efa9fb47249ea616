package integrators

import "github.com/san-kum/netevo/internal/dynamo"

// Stepper advances a state by one fixed step. Step returns a new state and
// leaves x untouched.
type Stepper interface {
	Step(f dynamo.DerivFunc, x dynamo.State, t, dt float64) dynamo.State
}

// Resetter is implemented by multistep methods that carry history between
// calls.
type Resetter interface {
	Reset()
}

type Euler struct {
	dx dynamo.State
}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(f dynamo.DerivFunc, x dynamo.State, t, dt float64) dynamo.State {
	if len(e.dx) != len(x) {
		e.dx = make(dynamo.State, len(x))
	}
	f(x, e.dx, t)
	return x.AddScaled(make(dynamo.State, len(x)), dt, e.dx)
}
