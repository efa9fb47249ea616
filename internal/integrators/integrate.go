package integrators

import (
	"math"

	"github.com/san-kum/netevo/internal/dynamo"
)

// gridSteps returns the number of whole steps of size dt in [t0, t1].
func gridSteps(t0, t1, dt float64) int {
	if dt <= 0 || t1 < t0 {
		return 0
	}
	return int(math.Floor((t1-t0)/dt + 1e-9))
}

func observe(obs dynamo.StepObserver, x dynamo.State, t float64) {
	if obs != nil {
		obs(x, t)
	}
}

func reset(s any) {
	if r, ok := s.(Resetter); ok {
		r.Reset()
	}
}

// IntegrateConst takes fixed steps from t0 while t0+k*dt <= t1 and observes
// the initial state and every step. It returns the final state and the
// number of steps taken.
func IntegrateConst(s Stepper, f dynamo.DerivFunc, x0 dynamo.State, t0, t1, dt float64, obs dynamo.StepObserver) (dynamo.State, int) {
	reset(s)
	x := x0.Clone()
	n := gridSteps(t0, t1, dt)
	observe(obs, x, t0)
	for i := 0; i < n; i++ {
		x = s.Step(f, x, t0+float64(i)*dt, dt)
		observe(obs, x, t0+float64(i+1)*dt)
	}
	return x, n
}

// adaptive steps from t to tEnd, landing exactly on tEnd. It returns the
// final state, the step size to continue with and the accepted step count.
func adaptive(s ErrorStepper, c Controller, f dynamo.DerivFunc, x dynamo.State, t, tEnd, dt float64, obs dynamo.StepObserver) (dynamo.State, float64, int, error) {
	accepted := 0
	for t < tEnd {
		h, last := dt, false
		if t+h >= tEnd {
			h, last = tEnd-t, true
		}
		next, newDt, ok, err := c.TryStep(s, f, x, t, h)
		if err != nil {
			return x, dt, accepted, err
		}
		if !ok {
			dt = newDt
			continue
		}
		x = next
		if last {
			t = tEnd
		} else {
			t += h
			dt = newDt
		}
		accepted++
		observe(obs, x, t)
	}
	return x, dt, accepted, nil
}

func initialDt(t0, t1, dt float64) float64 {
	if dt > 0 {
		return dt
	}
	return (t1 - t0) / 100
}

// IntegrateAdaptive lets the controller choose the step size, observes the
// initial state and every accepted step, and ends exactly at t1.
func IntegrateAdaptive(s ErrorStepper, c Controller, f dynamo.DerivFunc, x0 dynamo.State, t0, t1, dt float64, obs dynamo.StepObserver) (dynamo.State, int, error) {
	reset(s)
	x := x0.Clone()
	observe(obs, x, t0)
	if t1 <= t0 {
		return x, 0, nil
	}
	x, _, n, err := adaptive(s, c, f, x, t0, t1, initialDt(t0, t1, dt), obs)
	return x, n, err
}

// IntegrateControlledConst observes on the grid t0+k*dt and steps
// adaptively between grid points, never stepping past one.
func IntegrateControlledConst(s ErrorStepper, c Controller, f dynamo.DerivFunc, x0 dynamo.State, t0, t1, dt float64, obs dynamo.StepObserver) (dynamo.State, int, error) {
	reset(s)
	x := x0.Clone()
	observe(obs, x, t0)
	n := gridSteps(t0, t1, dt)
	inner, total := dt, 0
	for i := 1; i <= n; i++ {
		tPrev, tNext := t0+float64(i-1)*dt, t0+float64(i)*dt
		var k int
		var err error
		x, inner, k, err = adaptive(s, c, f, x, tPrev, tNext, inner, nil)
		total += k
		if err != nil {
			return x, total, err
		}
		observe(obs, x, tNext)
	}
	return x, total, nil
}

type endDeriver interface {
	endDeriv() (dynamo.State, bool)
}

// IntegrateDenseConst steps freely under the controller and produces the
// observations on the grid t0+k*dt by cubic Hermite interpolation inside
// each accepted step.
func IntegrateDenseConst(s ErrorStepper, c Controller, f dynamo.DerivFunc, x0 dynamo.State, t0, t1, dt float64, obs dynamo.StepObserver) (dynamo.State, int, error) {
	reset(s)
	x := x0.Clone()
	observe(obs, x, t0)
	n := gridSteps(t0, t1, dt)
	if n == 0 {
		return x, 0, nil
	}
	tLast := t0 + float64(n)*dt

	f0 := make(dynamo.State, len(x))
	f(x, f0, t0)
	t, h := t0, dt
	accepted, next := 0, 1
	for next <= n {
		hh, last := h, false
		if t+hh >= tLast {
			hh, last = tLast-t, true
		}
		cand, newDt, ok, err := c.TryStep(s, f, x, t, hh)
		if err != nil {
			return x, accepted, err
		}
		if !ok {
			h = newDt
			continue
		}
		accepted++
		tNew := t + hh
		if last {
			tNew = tLast
		}

		var f1 dynamo.State
		if ed, ok := s.(endDeriver); ok {
			if d, ok := ed.endDeriv(); ok {
				f1 = d.Clone()
			}
		}
		if f1 == nil {
			f1 = make(dynamo.State, len(x))
			f(cand, f1, tNew)
		}

		for next <= n {
			tg := t0 + float64(next)*dt
			if next == n && last {
				tg = tLast
			}
			if tg > tNew+1e-12*math.Max(1, math.Abs(tNew)) {
				break
			}
			observe(obs, hermite(x, cand, f0, f1, t, tNew-t, tg), tg)
			next++
		}
		x, t, f0 = cand, tNew, f1
		if !last {
			h = newDt
		}
	}
	return x, accepted, nil
}

func hermite(x0, x1, f0, f1 dynamo.State, t, h, tg float64) dynamo.State {
	th := 1.0
	if h > 0 {
		th = math.Min(1, math.Max(0, (tg-t)/h))
	}
	th2, th3 := th*th, th*th*th
	h00 := 2*th3 - 3*th2 + 1
	h10 := th3 - 2*th2 + th
	h01 := -2*th3 + 3*th2
	h11 := th3 - th2
	out := make(dynamo.State, len(x0))
	for i := range out {
		out[i] = h00*x0[i] + h10*h*f0[i] + h01*x1[i] + h11*h*f1[i]
	}
	return out
}
