package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/netevo/internal/dynamo"
)

func benchStepper(b *testing.B, s Stepper) {
	x := dynamo.State{1.0, 0.0}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = s.Step(oscillator, x, 0, 0.01)
	}
}

func BenchmarkEuler(b *testing.B) { benchStepper(b, NewEuler()) }
func BenchmarkRK4(b *testing.B)   { benchStepper(b, NewRK4()) }
func BenchmarkABM4(b *testing.B)  { benchStepper(b, NewABM4()) }

func benchEmbedded(b *testing.B, s ErrorStepper) {
	x := dynamo.State{1.0, 0.0}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x, _, _ = s.StepWithError(oscillator, x, 0, 0.01)
	}
}

func BenchmarkCashKarp54(b *testing.B)      { benchEmbedded(b, NewCashKarp54()) }
func BenchmarkDormandPrince54(b *testing.B) { benchEmbedded(b, NewDormandPrince54()) }

// ring of 50 diffusively coupled phase oscillators
func ringPhases(x, dx dynamo.State, t float64) {
	n := len(x)
	for i := range x {
		prev, next := x[(i+n-1)%n], x[(i+1)%n]
		dx[i] = 1 + 0.5*(math.Sin(prev-x[i])+math.Sin(next-x[i]))
	}
}

func BenchmarkRK4_Ring50(b *testing.B) {
	integrator := NewRK4()
	x := make(dynamo.State, 50)
	for i := range x {
		x[i] = float64(i) * 0.1
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(ringPhases, x, 0, 0.001)
	}
}

func BenchmarkAdaptive_Ring50(b *testing.B) {
	x0 := make(dynamo.State, 50)
	for i := range x0 {
		x0[i] = float64(i) * 0.1
	}
	c := NewController(1e-8, 1e-8)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := IntegrateAdaptive(NewDormandPrince54(), c, ringPhases, x0, 0, 1, 0.01, nil); err != nil {
			b.Fatal(err)
		}
	}
}
