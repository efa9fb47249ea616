package sim

import (
	"errors"
	"log/slog"
	"math"

	"github.com/san-kum/netevo/internal/dynamo"
	"github.com/san-kum/netevo/internal/integrators"
	"github.com/san-kum/netevo/internal/network"
)

const defaultDt = 0.01

// Simulator runs a system forward from an initial state until tMax and
// returns the final state. The initial state is never modified. A nil
// observer or change log is ignored.
type Simulator interface {
	Simulate(sys *network.System, tMax float64, initial dynamo.State, obs Observer, log network.ChangeLog) (dynamo.State, error)
}

func logger() *slog.Logger {
	return slog.Default().With(slog.String("component", "sim"))
}

// prepare validates the initial state and makes sure the state mapping is
// current.
func prepare(sys *network.System, initial dynamo.State, strategy string) error {
	if want := sys.TotalStates(); len(initial) != want {
		logger().Warn("initial state does not match system",
			slog.String("strategy", strategy),
			slog.Int("got", len(initial)),
			slog.Int("want", want))
		return dynamo.SizeMismatch(len(initial), want)
	}
	if nodes, arcs := sys.ValidStateIDs(); !nodes || !arcs {
		sys.RefreshStateIDs()
	}
	return nil
}

func defaults(obs Observer, log network.ChangeLog) (Observer, network.ChangeLog) {
	if obs == nil {
		obs = Discard
	}
	if log == nil {
		log = network.NopChangeLog{}
	}
	return obs, log
}

// passThrough reports each observed state to the change log, closing one
// simulation step per observation, before handing it to the user observer.
type passThrough struct {
	sys   *network.System
	obs   Observer
	log   network.ChangeLog
	steps int
	t     float64
	x     dynamo.State
}

func (p *passThrough) observe(x dynamo.State, t float64) {
	p.log.NewState(p.sys, x)
	p.log.EndStep(network.StepSim)
	p.log.Commit()
	p.obs.Observe(x, t)
	p.steps++
	p.t, p.x = t, x
}

func (p *passThrough) fail(err error) error {
	if err == nil {
		return nil
	}
	return &dynamo.SimulationError{Step: p.steps, Time: p.t, State: p.x.Clone(), Wrapped: err}
}

// Map iterates a discrete map: node and arc dynamics write the next state
// into dx. Step t maps the state at t-1 to the state at t and is derived at
// time t, for t = 1..floor(tMax).
type Map struct {
	pool *StatePool
}

func NewMap() *Map {
	return &Map{}
}

func (m *Map) buffers(n int) *StatePool {
	if m.pool == nil || m.pool.Size() != n {
		m.pool = NewStatePool(n)
	}
	return m.pool
}

func (m *Map) Simulate(sys *network.System, tMax float64, initial dynamo.State, obs Observer, log network.ChangeLog) (dynamo.State, error) {
	if err := prepare(sys, initial, "map"); err != nil {
		return nil, err
	}
	obs, log = defaults(obs, log)

	pool := m.buffers(len(initial))
	x := pool.GetAndCopy(initial)
	next := pool.Get()
	defer func() {
		pool.Put(x)
		pool.Put(next)
	}()

	log.NewState(sys, x)
	log.EndStep(network.StepInit)
	log.Commit()
	obs.Observe(x, 0)
	if len(x) == 0 {
		return dynamo.State{}, nil
	}

	steps := int(math.Floor(tMax))
	for t := 1; t <= steps; t++ {
		// entities without a map keep their state
		copy(next, x)
		sys.Derive(x, next, float64(t))
		x, next = next, x
		log.NewState(sys, x)
		log.EndStep(network.StepSim)
		log.Commit()
		obs.Observe(x, float64(t))
	}
	return x.Clone(), nil
}

// OdeFixed integrates with a fixed step. Stepper defaults to RK4 and Dt to
// 0.01.
type OdeFixed struct {
	Stepper integrators.Stepper
	Dt      float64
}

func (o OdeFixed) Simulate(sys *network.System, tMax float64, initial dynamo.State, obs Observer, log network.ChangeLog) (dynamo.State, error) {
	if err := prepare(sys, initial, "ode-fixed"); err != nil {
		return nil, err
	}
	obs, log = defaults(obs, log)
	stepper, dt := o.Stepper, o.Dt
	if stepper == nil {
		stepper = integrators.NewRK4()
	}
	if dt <= 0 {
		dt = defaultDt
	}
	pt := &passThrough{sys: sys, obs: obs, log: log}
	x, _ := integrators.IntegrateConst(stepper, sys.Derive, initial, 0, tMax, dt, pt.observe)
	return x, nil
}

func controller(abs, rel float64) integrators.Controller {
	if abs <= 0 && rel <= 0 {
		abs, rel = integrators.DefaultAbsTol, integrators.DefaultRelTol
	}
	return integrators.NewController(abs, rel)
}

func errorStepper(s integrators.ErrorStepper) integrators.ErrorStepper {
	if s == nil {
		return integrators.NewDormandPrince54()
	}
	return s
}

// OdeConst integrates under error control and observes on the grid
// k*Dt. With Dense set the controller steps freely and the grid values are
// interpolated.
type OdeConst struct {
	Stepper integrators.ErrorStepper
	Dense   bool
	AbsTol  float64
	RelTol  float64
	Dt      float64
}

func (o OdeConst) Simulate(sys *network.System, tMax float64, initial dynamo.State, obs Observer, log network.ChangeLog) (dynamo.State, error) {
	if err := prepare(sys, initial, "ode-const"); err != nil {
		return nil, err
	}
	obs, log = defaults(obs, log)
	dt := o.Dt
	if dt <= 0 {
		dt = defaultDt
	}
	drive := integrators.IntegrateControlledConst
	if o.Dense {
		drive = integrators.IntegrateDenseConst
	}
	pt := &passThrough{sys: sys, obs: obs, log: log}
	x, _, err := drive(errorStepper(o.Stepper), controller(o.AbsTol, o.RelTol), sys.Derive, initial, 0, tMax, dt, pt.observe)
	return x, pt.fail(err)
}

// OdeAdaptive integrates under error control, observes every accepted step
// and ends exactly at tMax. Dt is the initial step size.
type OdeAdaptive struct {
	Stepper integrators.ErrorStepper
	AbsTol  float64
	RelTol  float64
	Dt      float64
}

func (o OdeAdaptive) Simulate(sys *network.System, tMax float64, initial dynamo.State, obs Observer, log network.ChangeLog) (dynamo.State, error) {
	if err := prepare(sys, initial, "ode-adaptive"); err != nil {
		return nil, err
	}
	obs, log = defaults(obs, log)
	pt := &passThrough{sys: sys, obs: obs, log: log}
	x, _, err := integrators.IntegrateAdaptive(errorStepper(o.Stepper), controller(o.AbsTol, o.RelTol), sys.Derive, initial, 0, tMax, o.Dt, pt.observe)
	if err != nil && errors.Is(err, dynamo.ErrStepTooSmall) {
		logger().Warn("adaptive integration stopped", slog.Float64("t", pt.t), slog.Any("err", err))
	}
	return x, pt.fail(err)
}
