package integrators

import "github.com/san-kum/netevo/internal/dynamo"

// ABM4 is the fourth order Adams-Bashforth-Moulton predictor-corrector. The
// first three steps after a Reset, or after dt changes, are taken with RK4
// to fill the derivative history. Callers must pass back the state returned
// by the previous Step; anything else requires a Reset.
type ABM4 struct {
	rk     RK4
	hist   [4]dynamo.State // f_n, f_{n-1}, f_{n-2}, f_{n-3}
	filled int
	lastDt float64
	fp     dynamo.State
	pred   dynamo.State
}

func NewABM4() *ABM4 {
	return &ABM4{}
}

func (a *ABM4) Reset() {
	a.filled = 0
	a.lastDt = 0
}

func (a *ABM4) push(f dynamo.DerivFunc, x dynamo.State, t float64) {
	last := a.hist[3]
	copy(a.hist[1:], a.hist[:3])
	if len(last) != len(x) {
		last = make(dynamo.State, len(x))
	}
	f(x, last, t)
	a.hist[0] = last
	if a.filled < 4 {
		a.filled++
	}
}

func (a *ABM4) Step(f dynamo.DerivFunc, x dynamo.State, t, dt float64) dynamo.State {
	if dt != a.lastDt || (a.hist[0] != nil && len(a.hist[0]) != len(x)) {
		a.Reset()
		a.lastDt = dt
	}
	a.push(f, x, t)
	if a.filled < 4 {
		return a.rk.Step(f, x, t, dt)
	}

	n := len(x)
	if len(a.pred) != n {
		a.pred = make(dynamo.State, n)
		a.fp = make(dynamo.State, n)
	}
	f0, f1, f2, f3 := a.hist[0], a.hist[1], a.hist[2], a.hist[3]
	h := dt / 24.0
	for i := 0; i < n; i++ {
		a.pred[i] = x[i] + h*(55*f0[i]-59*f1[i]+37*f2[i]-9*f3[i])
	}
	f(a.pred, a.fp, t+dt)

	out := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		out[i] = x[i] + h*(9*a.fp[i]+19*f0[i]-5*f1[i]+f2[i])
	}
	return out
}
