package evolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"github.com/san-kum/netevo/internal/dynamo"
	"github.com/san-kum/netevo/internal/network"
	"github.com/san-kum/netevo/internal/sim"
)

// UnscoredPerformance is assigned to a system none of whose simulation
// runs produced output.
const UnscoredPerformance = 1e11

var (
	ErrNoMutation    = errors.New("evolve: no mutation strategy")
	ErrNoPerformance = errors.New("evolve: no performance")
	ErrNoSimulator   = errors.New("evolve: performance needs a simulator")
)

// Annealer searches for low-performance systems by simulated annealing.
// It is not safe for concurrent use.
type Annealer struct {
	Params        Params
	Mutate        Mutate
	Performance   Performance
	Simulator     sim.Simulator
	InitialStates InitialStates
	Observer      Observer
	Log           network.ChangeLog

	rng    *rand.Rand
	logger *slog.Logger
}

func New(params Params, mutate Mutate, perf Performance) *Annealer {
	return &Annealer{Params: params, Mutate: mutate, Performance: perf}
}

// Result is the outcome of Evolve. Best is the lowest scoring system the
// accepted lineage ever held, starting with the copy of the input.
type Result struct {
	System             *network.System
	Performance        float64
	InitialPerformance float64
	Best               *network.System
	BestPerformance    float64

	Iterations   int
	Levels       int
	Trials       int
	Accepted     int
	Disconnected int
	Degenerate   int
	Temperature  float64
}

func (a *Annealer) check() error {
	if a.Mutate == nil {
		return ErrNoMutation
	}
	if a.Performance == nil {
		return ErrNoPerformance
	}
	if a.Performance.Type() != TopologyOnly && a.Simulator == nil {
		return ErrNoSimulator
	}
	return a.Params.Validate()
}

// Evolve anneals a copy of sys; sys itself is left untouched. The context
// is checked between trials; on cancellation the result so far is returned
// together with ctx.Err().
func (a *Annealer) Evolve(ctx context.Context, sys *network.System) (*Result, error) {
	if err := a.check(); err != nil {
		return nil, err
	}
	p := a.Params.withDefaults()
	a.rng = rand.New(rand.NewSource(p.Seed))
	a.logger = slog.Default().With(slog.String("component", "evolve"))
	if a.Log == nil {
		a.Log = network.NopChangeLog{}
	}

	current := sys.Copy()
	q1 := a.score(current)
	res := &Result{
		System:             current,
		Performance:        q1,
		InitialPerformance: q1,
		Best:               current,
		BestPerformance:    q1,
	}
	a.observe(current, q1, 0)

	temp, err := a.bootstrap(ctx, current, q1)
	res.Temperature = temp
	if err != nil {
		return res, err
	}
	if temp <= 0 {
		a.logger.Info("initial temperature not positive, skipping annealing", slog.Float64("temp", temp))
		return res, nil
	}

	noChange := 0
	for temp > p.MinTemp && res.Iterations < p.MaxIterations && noChange <= p.AcceptRunsNoChange {
		accepted := 0
		q2 := q1
		for k := 0; k < p.MainTrials && accepted < p.AcceptTrials && res.Iterations < p.MaxIterations; k++ {
			if err := ctx.Err(); err != nil {
				a.finish(res, current, q1, temp)
				return res, err
			}
			res.Iterations++
			res.Trials++

			trial, q, ok := a.trial(current)
			tr := TrialResult{Q1: q1, Q2: q, DQ: q1 - q}
			switch {
			case !ok:
				res.Disconnected++
				a.Log.Rollback()
			case a.accept(q1, q, temp, res):
				tr.Accepted = true
				current, q1, q2 = trial, q, q1
				accepted++
				res.Accepted++
				a.Log.EndStep(network.StepEvo)
				a.Log.Commit()
				if q1 < res.BestPerformance {
					res.Best, res.BestPerformance = current, q1
				}
			default:
				q2 = q
				a.Log.Rollback()
			}

			if to, ok := a.Observer.(TrialObserver); ok {
				to.ObserveTrial(res.Iterations, tr)
			}
			a.observe(current, q1, res.Iterations)
		}

		if accepted == 0 {
			noChange++
		} else {
			noChange = 0
		}
		a.logger.Debug("temperature level done",
			slog.Int("level", res.Levels),
			slog.Float64("temp", temp),
			slog.Float64("performance", q1),
			slog.Int("accepted", accepted))
		temp = p.NewTemperature(temp, q1, q2)
		res.Levels++
	}

	a.finish(res, current, q1, temp)
	a.logger.Info("annealing finished",
		slog.Int("iterations", res.Iterations),
		slog.Int("accepted", res.Accepted),
		slog.Float64("performance", res.Performance),
		slog.Float64("best", res.BestPerformance))
	return res, nil
}

func (a *Annealer) finish(res *Result, current *network.System, q1, temp float64) {
	res.System = current
	res.Performance = q1
	res.Temperature = temp
}

// bootstrap runs the chained, unobserved trials that estimate the
// performance range and returns the initial temperature. The range always
// includes q1, the performance of start.
func (a *Annealer) bootstrap(ctx context.Context, start *network.System, q1 float64) (float64, error) {
	p := a.Params.withDefaults()
	minQ, maxQ := q1, q1
	scored := 0
	work := start
	for i := 0; i < p.InitialTrials; i++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		trial, q, ok := a.trial(work)
		a.Log.Rollback()
		work = trial
		if !ok || math.IsNaN(q) {
			continue
		}
		minQ = math.Min(minQ, q)
		maxQ = math.Max(maxQ, q)
		scored++
	}
	temp := p.InitialTemperature(minQ, maxQ)
	a.logger.Info("bootstrap finished",
		slog.Int("scored", scored),
		slog.Float64("min", minQ),
		slog.Float64("max", maxQ),
		slog.Float64("temp", temp))
	return temp, nil
}

// trial copies parent, mutates the copy and scores it. ok is false when
// the copy is rejected for not being weakly connected; it is then not
// scored and q is NaN.
func (a *Annealer) trial(parent *network.System) (sys *network.System, q float64, ok bool) {
	sys = parent.Copy()
	a.Mutate.Mutate(sys, a.Log)
	if a.Params.EnsureWeaklyConnected && sys.WeaklyConnectedComponents() > 1 {
		return sys, math.NaN(), false
	}
	return sys, a.score(sys), true
}

func (a *Annealer) accept(q1, q2, temp float64, res *Result) bool {
	if q2 < q1 {
		return true
	}
	if temp <= 0 {
		res.Degenerate++
		a.logger.Warn("rejecting trial",
			slog.Any("err", fmt.Errorf("%w: %g", dynamo.ErrDegenerateTemperature, temp)))
		return false
	}
	prob := a.Params.withDefaults().AcceptProb(q2-q1, temp)
	return a.rng.Float64() <= prob
}

func (a *Annealer) observe(sys *network.System, perf float64, iteration int) {
	if a.Observer != nil {
		a.Observer.Observe(sys, perf, iteration)
	}
}

// score evaluates sys, simulating it from every initial state when the
// performance depends on dynamics. Runs that fail are left out of the mean.
func (a *Annealer) score(sys *network.System) float64 {
	if a.Performance.Type() == TopologyOnly {
		return a.Performance.Performance(sys, nil)
	}
	states := a.initialStates(sys)
	total, runs := 0.0, 0
	for _, x0 := range states {
		traj, err := a.simulate(sys, x0)
		if err != nil {
			a.logger.Warn("simulation produced no output", slog.Any("err", err))
			continue
		}
		total += a.Performance.Performance(sys, traj)
		runs++
	}
	if runs == 0 {
		return UnscoredPerformance
	}
	return total / float64(runs)
}

func (a *Annealer) initialStates(sys *network.System) []dynamo.State {
	if a.InitialStates != nil {
		return a.InitialStates.InitialStates(sys)
	}
	return RandomInitialStates{Scale: 1}.InitialStates(sys)
}

func (a *Annealer) simulate(sys *network.System, x0 dynamo.State) (*Trajectory, error) {
	var obs sim.Observer
	var rec *sim.Recorder
	if a.Params.RecordStates {
		rec = &sim.Recorder{}
		obs = rec
	}
	final, err := a.Simulator.Simulate(sys, a.Params.SimTMax, x0, obs, nil)
	if err != nil {
		return nil, err
	}
	traj := &Trajectory{Initial: x0, Final: final, TMax: a.Params.SimTMax}
	if rec != nil {
		traj.States, traj.Times = rec.States, rec.Times
	}
	return traj, nil
}
