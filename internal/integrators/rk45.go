package integrators

import "github.com/san-kum/netevo/internal/dynamo"

// ErrorStepper is an embedded Runge-Kutta pair. StepWithError returns the
// propagated state, the derivative at x and the difference between the two
// embedded solutions.
type ErrorStepper interface {
	StepWithError(f dynamo.DerivFunc, x dynamo.State, t, dt float64) (next, dxdt, xerr dynamo.State)
	// ErrorOrder is the order of the embedded lower order solution.
	ErrorOrder() int
}

type tableau struct {
	c    []float64
	a    [][]float64
	b    []float64
	bErr []float64 // b minus the embedded weights
	q    int
	fsal bool
}

func newTableau(c []float64, a [][]float64, b, bHat []float64, q int, fsal bool) *tableau {
	bErr := make([]float64, len(b))
	for i := range b {
		bErr[i] = b[i] - bHat[i]
	}
	return &tableau{c: c, a: a, b: b, bErr: bErr, q: q, fsal: fsal}
}

// Cash-Karp 5(4)
var cashKarp = newTableau(
	[]float64{0, 1.0 / 5, 3.0 / 10, 3.0 / 5, 1, 7.0 / 8},
	[][]float64{
		{},
		{1.0 / 5},
		{3.0 / 40, 9.0 / 40},
		{3.0 / 10, -9.0 / 10, 6.0 / 5},
		{-11.0 / 54, 5.0 / 2, -70.0 / 27, 35.0 / 27},
		{1631.0 / 55296, 175.0 / 512, 575.0 / 13824, 44275.0 / 110592, 253.0 / 4096},
	},
	[]float64{37.0 / 378, 0, 250.0 / 621, 125.0 / 594, 0, 512.0 / 1771},
	[]float64{2825.0 / 27648, 0, 18575.0 / 48384, 13525.0 / 55296, 277.0 / 14336, 1.0 / 4},
	4, false,
)

// Dormand-Prince 5(4). The seventh stage is evaluated at the new state and
// doubles as the first stage of the next step.
var dormandPrince = newTableau(
	[]float64{0, 1.0 / 5, 3.0 / 10, 4.0 / 5, 8.0 / 9, 1, 1},
	[][]float64{
		{},
		{1.0 / 5},
		{3.0 / 40, 9.0 / 40},
		{44.0 / 45, -56.0 / 15, 32.0 / 9},
		{19372.0 / 6561, -25360.0 / 2187, 64448.0 / 6561, -212.0 / 729},
		{9017.0 / 3168, -355.0 / 33, 46732.0 / 5247, 49.0 / 176, -5103.0 / 18656},
		{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84},
	},
	[]float64{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84, 0},
	[]float64{5179.0 / 57600, 0, 7571.0 / 16695, 393.0 / 640, -92097.0 / 339200, 187.0 / 2100, 1.0 / 40},
	4, true,
)

// RungeKutta evaluates an explicit embedded tableau.
type RungeKutta struct {
	tab     *tableau
	k       []dynamo.State
	scratch dynamo.State

	// first-same-as-last cache
	lastX  dynamo.State
	lastT  float64
	cached bool
}

func NewCashKarp54() *RungeKutta {
	return &RungeKutta{tab: cashKarp}
}

func NewDormandPrince54() *RungeKutta {
	return &RungeKutta{tab: dormandPrince}
}

func (r *RungeKutta) ErrorOrder() int { return r.tab.q }

func (r *RungeKutta) Reset() { r.cached = false }

func (r *RungeKutta) ensureScratch(n int) {
	if r.k != nil && len(r.scratch) == n {
		return
	}
	r.k = make([]dynamo.State, len(r.tab.c))
	for i := range r.k {
		r.k[i] = make(dynamo.State, n)
	}
	r.scratch = make(dynamo.State, n)
	r.cached = false
}

// endDeriv returns the derivative at the state produced by the last step,
// if the tableau provides it for free.
func (r *RungeKutta) endDeriv() (dynamo.State, bool) {
	if !r.tab.fsal || !r.cached {
		return nil, false
	}
	return r.k[len(r.k)-1], true
}

func (r *RungeKutta) StepWithError(f dynamo.DerivFunc, x dynamo.State, t, dt float64) (next, dxdt, xerr dynamo.State) {
	n := len(x)
	r.ensureScratch(n)
	tab := r.tab
	stages := len(tab.c)

	if tab.fsal && r.cached && r.lastT == t && sameState(r.lastX, x) {
		copy(r.k[0], r.k[stages-1])
	} else {
		f(x, r.k[0], t)
	}

	for s := 1; s < stages; s++ {
		row := tab.a[s]
		for i := 0; i < n; i++ {
			sum := 0.0
			for j, aij := range row {
				sum += aij * r.k[j][i]
			}
			r.scratch[i] = x[i] + dt*sum
		}
		f(r.scratch, r.k[s], t+tab.c[s]*dt)
	}

	next = make(dynamo.State, n)
	xerr = make(dynamo.State, n)
	for i := 0; i < n; i++ {
		sum, esum := 0.0, 0.0
		for s := 0; s < stages; s++ {
			sum += tab.b[s] * r.k[s][i]
			esum += tab.bErr[s] * r.k[s][i]
		}
		next[i] = x[i] + dt*sum
		xerr[i] = dt * esum
	}
	dxdt = r.k[0].Clone()

	if tab.fsal {
		if len(r.lastX) != n {
			r.lastX = make(dynamo.State, n)
		}
		copy(r.lastX, next)
		r.lastT = t + dt
		r.cached = true
	}
	return next, dxdt, xerr
}

func sameState(a, b dynamo.State) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
