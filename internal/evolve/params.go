package evolve

import (
	"errors"
	"math"
)

// Params configures the annealing schedule.
type Params struct {
	// InitialTrials chained trials estimate the performance range before
	// annealing starts.
	InitialTrials int
	// MainTrials bounds the trials run at one temperature level.
	MainTrials int
	// AcceptTrials ends a level early once this many trials were accepted.
	AcceptTrials int
	// AcceptRunsNoChange is the number of consecutive levels without an
	// acceptance tolerated before stopping.
	AcceptRunsNoChange int
	MaxIterations      int

	MinTemp               float64
	EnsureWeaklyConnected bool
	// SimTMax is the horizon handed to the simulator.
	SimTMax float64
	// RecordStates fills Trajectory.States and Trajectory.Times.
	RecordStates bool
	// Seed drives the acceptance draws.
	Seed int64

	InitialTemperature func(minQ, maxQ float64) float64
	NewTemperature     func(temp, q1, q2 float64) float64
	// AcceptProb is the probability of accepting a trial that is worse by
	// worsening >= 0 at temperature temp > 0.
	AcceptProb func(worsening, temp float64) float64
}

func DefaultParams() Params {
	return Params{
		InitialTrials:         100,
		MainTrials:            50,
		AcceptTrials:          10,
		AcceptRunsNoChange:    10,
		MaxIterations:         100000,
		MinTemp:               0.01,
		EnsureWeaklyConnected: true,
		SimTMax:               100,
		InitialTemperature:    DefaultInitialTemperature,
		NewTemperature:        DefaultNewTemperature,
		AcceptProb:            DefaultAcceptProb,
	}
}

func DefaultInitialTemperature(minQ, maxQ float64) float64 { return 4 * maxQ }
func DefaultNewTemperature(temp, q1, q2 float64) float64   { return temp * 0.9 }
func DefaultAcceptProb(worsening, temp float64) float64    { return math.Exp(-worsening / temp) }

// withDefaults fills unset hooks.
func (p Params) withDefaults() Params {
	if p.InitialTemperature == nil {
		p.InitialTemperature = DefaultInitialTemperature
	}
	if p.NewTemperature == nil {
		p.NewTemperature = DefaultNewTemperature
	}
	if p.AcceptProb == nil {
		p.AcceptProb = DefaultAcceptProb
	}
	return p
}

func (p Params) Validate() error {
	var errs []error
	if p.InitialTrials < 0 {
		errs = append(errs, errors.New("initial trials must be non-negative"))
	}
	if p.MainTrials <= 0 {
		errs = append(errs, errors.New("main trials must be positive"))
	}
	if p.AcceptTrials <= 0 {
		errs = append(errs, errors.New("accept trials must be positive"))
	}
	if p.AcceptRunsNoChange < 0 {
		errs = append(errs, errors.New("accept runs without change must be non-negative"))
	}
	if p.MaxIterations <= 0 {
		errs = append(errs, errors.New("max iterations must be positive"))
	}
	if p.SimTMax < 0 {
		errs = append(errs, errors.New("simulation horizon must be non-negative"))
	}
	return errors.Join(errs...)
}
