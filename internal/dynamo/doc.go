// Package dynamo provides the numeric primitives shared across netevo.
//
// The package defines the fundamental types used to simulate a network as a
// single coupled dynamical system:
//
//   - [State]: flat vector holding every node block followed by every arc block
//   - [DerivFunc]: callback computing dx = f(x, t) (or the next state of a map)
//   - [StepObserver]: callback invoked after each accepted integration step
//
// and the sentinel errors surfaced by the network model, the simulators and
// the evolution engine. Callers test for them with [errors.Is]:
//
//	_, err := simulator.Simulate(sys, 100, x0, obs, log)
//	if errors.Is(err, dynamo.ErrStateSizeMismatch) {
//		// the run produced no output
//	}
//
// [SimulationError] adds step and time context to an integration failure.
package dynamo
