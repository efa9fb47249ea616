package evolve_test

import (
	"bytes"
	"context"
	"math"
	"math/rand"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/netevo/internal/dynamics"
	"github.com/san-kum/netevo/internal/dynamo"
	"github.com/san-kum/netevo/internal/evolve"
	"github.com/san-kum/netevo/internal/network"
	"github.com/san-kum/netevo/internal/sim"
	"github.com/san-kum/netevo/internal/topology"
)

// hold is a one-state node dynamic that never changes its state.
type hold struct{}

func (hold) Name() string                                                               { return "Hold" }
func (hold) States() int                                                                { return 1 }
func (hold) SetDefaultParams(topology.Node, *network.System)                            {}
func (hold) Derive(topology.Node, *network.System, dynamo.State, dynamo.State, float64) {}

type topoPerf func(sys *network.System) float64

func (topoPerf) Type() evolve.PerformanceType { return evolve.TopologyOnly }
func (f topoPerf) Performance(sys *network.System, _ *evolve.Trajectory) float64 {
	return f(sys)
}

type dynPerf func(sys *network.System, traj *evolve.Trajectory) float64

func (dynPerf) Type() evolve.PerformanceType { return evolve.DynamicsOnly }
func (f dynPerf) Performance(sys *network.System, traj *evolve.Trajectory) float64 {
	return f(sys, traj)
}

type trialLog struct {
	iterations []int
	trials     []evolve.TrialResult
}

func (l *trialLog) Observe(_ *network.System, _ float64, iteration int) {
	l.iterations = append(l.iterations, iteration)
}

func (l *trialLog) ObserveTrial(_ int, tr evolve.TrialResult) {
	l.trials = append(l.trials, tr)
}

// lineSystem builds a path of n Hold nodes joined by undirected null edges.
func lineSystem(n int) *network.System {
	sys := network.New(1)
	Expect(sys.RegisterNodeDynamic(hold{})).To(Succeed())
	prev := topology.InvalidNode
	for i := 0; i < n; i++ {
		v, err := sys.AddNode("Hold")
		Expect(err).NotTo(HaveOccurred())
		if prev != topology.InvalidNode {
			_, err = sys.AddEdge(prev, v, "")
			Expect(err).NotTo(HaveOccurred())
		}
		prev = v
	}
	return sys
}

var addNode = evolve.MutateFunc(func(sys *network.System, log network.ChangeLog) {
	first := sys.Nodes()[0]
	v, _ := sys.AddNode("Hold")
	log.AddNode(sys, v)
	e, _ := sys.AddEdge(first, v, "")
	log.AddArc(sys, e.Backward)
	log.AddArc(sys, e.Forward)
})

var noop = evolve.MutateFunc(func(*network.System, network.ChangeLog) {})

func smallParams() evolve.Params {
	p := evolve.DefaultParams()
	p.InitialTrials = 3
	p.MainTrials = 5
	p.AcceptTrials = 5
	p.AcceptRunsNoChange = 1
	p.MaxIterations = 20
	return p
}

func never(float64, float64) float64 { return 0 }

var _ = Describe("Annealer", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("validation", func() {
		It("needs a mutation and a performance", func() {
			_, err := evolve.New(smallParams(), nil, topoPerf(func(*network.System) float64 { return 0 })).Evolve(ctx, lineSystem(2))
			Expect(err).To(MatchError(evolve.ErrNoMutation))

			_, err = evolve.New(smallParams(), noop, nil).Evolve(ctx, lineSystem(2))
			Expect(err).To(MatchError(evolve.ErrNoPerformance))
		})

		It("needs a simulator for dynamic performances", func() {
			perf := dynPerf(func(*network.System, *evolve.Trajectory) float64 { return 0 })
			_, err := evolve.New(smallParams(), noop, perf).Evolve(ctx, lineSystem(2))
			Expect(err).To(MatchError(evolve.ErrNoSimulator))
		})

		It("rejects invalid params", func() {
			p := smallParams()
			p.MainTrials = 0
			_, err := evolve.New(p, noop, topoPerf(func(*network.System) float64 { return 0 })).Evolve(ctx, lineSystem(2))
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("with an always improving mutation", func() {
		var (
			sys *network.System
			obs *trialLog
			res *evolve.Result
		)

		BeforeEach(func() {
			sys = lineSystem(2)
			obs = &trialLog{}
			perf := topoPerf(func(s *network.System) float64 { return 1 / float64(1+s.CountNodes()) })
			a := evolve.New(smallParams(), addNode, perf)
			a.Observer = obs
			var err error
			res, err = a.Evolve(ctx, sys)
			Expect(err).NotTo(HaveOccurred())
		})

		It("accepts every trial until the iteration limit", func() {
			Expect(res.Iterations).To(Equal(20))
			Expect(res.Accepted).To(Equal(20))
			Expect(res.Levels).To(Equal(4))
			Expect(res.System.CountNodes()).To(Equal(22))
		})

		It("scores the mutated trial", func() {
			Expect(res.InitialPerformance).To(BeNumerically("~", 1.0/3, 1e-12))
			Expect(res.Performance).To(BeNumerically("~", 1.0/23, 1e-12))
			Expect(res.Best).To(BeIdenticalTo(res.System))
			Expect(res.BestPerformance).To(Equal(res.Performance))
		})

		It("leaves the input untouched", func() {
			Expect(sys.CountNodes()).To(Equal(2))
		})

		It("observes the start and every trial", func() {
			Expect(obs.iterations).To(HaveLen(21))
			for i, it := range obs.iterations {
				Expect(it).To(Equal(i))
			}
			Expect(obs.trials).To(HaveLen(20))
			for _, tr := range obs.trials {
				Expect(tr.Accepted).To(BeTrue())
				Expect(tr.DQ).To(BeNumerically(">", 0))
			}
		})
	})

	It("includes the start in the bootstrap range", func() {
		var minQ, maxQ float64
		p := smallParams()
		p.InitialTemperature = func(lo, hi float64) float64 {
			minQ, maxQ = lo, hi
			return 0
		}
		perf := topoPerf(func(s *network.System) float64 { return 1 / float64(1+s.CountNodes()) })
		_, err := evolve.New(p, addNode, perf).Evolve(ctx, lineSystem(2))
		Expect(err).NotTo(HaveOccurred())
		Expect(maxQ).To(BeNumerically("~", 1.0/3, 1e-12))
		Expect(minQ).To(BeNumerically("~", 1.0/6, 1e-12))
	})

	It("cools with the performances before and after the last acceptance", func() {
		type cooling struct{ q1, q2 float64 }
		var calls []cooling
		p := smallParams()
		p.MaxIterations = 5
		p.NewTemperature = func(temp, q1, q2 float64) float64 {
			calls = append(calls, cooling{q1, q2})
			return evolve.DefaultNewTemperature(temp, q1, q2)
		}
		perf := topoPerf(func(s *network.System) float64 { return 1 / float64(1+s.CountNodes()) })
		res, err := evolve.New(p, addNode, perf).Evolve(ctx, lineSystem(2))
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Accepted).To(Equal(5))
		Expect(calls).To(HaveLen(1))
		Expect(calls[0].q1).To(BeNumerically("~", 1.0/8, 1e-12))
		Expect(calls[0].q2).To(BeNumerically("~", 1.0/7, 1e-12))
	})

	Describe("with a strictly worsening mutation", func() {
		worse := topoPerf(func(s *network.System) float64 { return float64(s.CountNodes()) })

		anneal := func(temp float64) (*evolve.Result, *trialLog) {
			p := smallParams()
			p.MinTemp = 1e-12
			p.InitialTemperature = func(float64, float64) float64 { return temp }
			p.NewTemperature = func(t, _, _ float64) float64 { return t }
			obs := &trialLog{}
			a := evolve.New(p, addNode, worse)
			a.Observer = obs
			res, err := a.Evolve(ctx, lineSystem(2))
			Expect(err).NotTo(HaveOccurred())
			return res, obs
		}

		It("accepts nothing as the temperature approaches zero", func() {
			res, obs := anneal(1e-9)
			Expect(res.Trials).To(Equal(10))
			Expect(res.Accepted).To(BeZero())
			Expect(res.Performance).To(Equal(res.InitialPerformance))
			for _, tr := range obs.trials {
				Expect(tr.DQ).To(BeNumerically("<", 0))
				Expect(tr.Accepted).To(BeFalse())
			}
		})

		It("accepts worse trials at a high temperature", func() {
			res, _ := anneal(1e9)
			Expect(res.Accepted).To(BeNumerically(">", 0))
			Expect(res.Performance).To(BeNumerically(">", res.InitialPerformance))
			Expect(res.BestPerformance).To(Equal(res.InitialPerformance))
		})
	})

	It("skips annealing when the initial temperature is not positive", func() {
		p := smallParams()
		p.InitialTemperature = func(float64, float64) float64 { return 0 }
		res, err := evolve.New(p, addNode, topoPerf(func(*network.System) float64 { return 1 })).Evolve(ctx, lineSystem(2))
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Iterations).To(BeZero())
		Expect(res.Temperature).To(BeZero())
		Expect(res.System.CountNodes()).To(Equal(2))
	})

	It("rejects trials at a non-positive temperature and keeps going", func() {
		p := smallParams()
		p.InitialTrials = 1
		p.AcceptRunsNoChange = 2
		p.MinTemp = -10
		p.InitialTemperature = func(float64, float64) float64 { return 1 }
		p.NewTemperature = func(float64, float64, float64) float64 { return -1 }
		p.AcceptProb = never
		res, err := evolve.New(p, noop, topoPerf(func(*network.System) float64 { return 1 })).Evolve(ctx, lineSystem(1))
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Trials).To(Equal(15))
		Expect(res.Degenerate).To(Equal(10))
		Expect(res.Accepted).To(BeZero())
		Expect(res.Levels).To(Equal(3))
	})

	It("never scores a trial that disconnects the graph", func() {
		calls := 0
		perf := topoPerf(func(*network.System) float64 {
			calls++
			return 1
		})
		cut := evolve.MutateFunc(func(sys *network.System, log network.ChangeLog) {
			for _, a := range sys.Arcs() {
				log.EraseArc(sys, a)
				sys.EraseArc(a)
			}
		})
		p := smallParams()
		p.InitialTrials = 2
		p.MainTrials = 4
		p.AcceptTrials = 4
		p.AcceptRunsNoChange = 0
		obs := &trialLog{}
		a := evolve.New(p, cut, perf)
		a.Observer = obs
		res, err := a.Evolve(ctx, lineSystem(3))
		Expect(err).NotTo(HaveOccurred())
		Expect(calls).To(Equal(1))
		Expect(res.Trials).To(Equal(4))
		Expect(res.Disconnected).To(Equal(4))
		Expect(res.System.WeaklyConnectedComponents()).To(Equal(1))
		for _, tr := range obs.trials {
			Expect(math.IsNaN(tr.Q2)).To(BeTrue())
		}
	})

	Describe("rewiring for the eigenratio", func() {
		var (
			sys *network.System
			buf bytes.Buffer
			res *evolve.Result
		)

		BeforeEach(func() {
			sys = network.New(7)
			Expect(dynamics.Register(sys)).To(Succeed())
			Expect(sys.RandomGraph(0.3, 12, false, true, "KuramotoMap", "")).To(Succeed())

			p := evolve.DefaultParams()
			p.InitialTrials = 10
			p.MainTrials = 10
			p.AcceptTrials = 3
			p.AcceptRunsNoChange = 2
			p.MaxIterations = 200
			buf.Reset()
			a := evolve.New(p, evolve.RewireMutation{Rand: rand.New(rand.NewSource(3))}, evolve.NewEigenratioPerformance())
			a.Log = network.NewStreamChangeLog(&buf)
			var err error
			res, err = a.Evolve(ctx, sys)
			Expect(err).NotTo(HaveOccurred())
		})

		It("never reports a best worse than the start", func() {
			Expect(res.BestPerformance).To(BeNumerically("<=", res.InitialPerformance))
			Expect(res.BestPerformance).To(BeNumerically("~",
				evolve.NewEigenratioPerformance().Performance(res.Best, nil), 1e-9))
		})

		It("keeps the number of arcs", func() {
			Expect(res.System.CountArcs()).To(Equal(sys.CountArcs()))
			Expect(res.System.CountNodes()).To(Equal(12))
		})

		It("commits one evolution step per accepted trial", func() {
			steps := 0
			for _, line := range strings.Split(buf.String(), "\n") {
				if line == "--" {
					steps++
				}
			}
			Expect(steps).To(Equal(res.Accepted))
		})
	})

	Describe("cancellation", func() {
		perf := topoPerf(func(s *network.System) float64 { return 1 / float64(1+s.CountNodes()) })

		It("stops before bootstrapping", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			res, err := evolve.New(smallParams(), addNode, perf).Evolve(cctx, lineSystem(2))
			Expect(err).To(MatchError(context.Canceled))
			Expect(res).NotTo(BeNil())
			Expect(res.Iterations).To(BeZero())
		})

		It("returns the result so far", func() {
			cctx, cancel := context.WithCancel(ctx)
			defer cancel()
			a := evolve.New(smallParams(), addNode, perf)
			a.Observer = evolve.ObserverFunc(func(_ *network.System, _ float64, iteration int) {
				if iteration == 3 {
					cancel()
				}
			})
			res, err := a.Evolve(cctx, lineSystem(2))
			Expect(err).To(MatchError(context.Canceled))
			Expect(res.Iterations).To(Equal(3))
			Expect(res.System.CountNodes()).To(Equal(5))
		})
	})

	Describe("dynamic performances", func() {
		var a *evolve.Annealer

		BeforeEach(func() {
			p := smallParams()
			p.InitialTemperature = func(float64, float64) float64 { return 0 }
			a = evolve.New(p, noop, dynPerf(func(_ *network.System, traj *evolve.Trajectory) float64 {
				return traj.Final[0]
			}))
			a.Simulator = sim.NewMap()
		})

		It("averages over the initial states", func() {
			a.InitialStates = evolve.FixedInitialStates{{1}, {3}}
			res, err := a.Evolve(ctx, lineSystem(1))
			Expect(err).NotTo(HaveOccurred())
			Expect(res.InitialPerformance).To(Equal(2.0))
		})

		It("leaves failed runs out of the mean", func() {
			a.InitialStates = evolve.FixedInitialStates{{1}, {1, 2}}
			res, err := a.Evolve(ctx, lineSystem(1))
			Expect(err).NotTo(HaveOccurred())
			Expect(res.InitialPerformance).To(Equal(1.0))
		})

		It("scores a system without any run as unscored", func() {
			a.InitialStates = evolve.FixedInitialStates{{1, 2}}
			res, err := a.Evolve(ctx, lineSystem(1))
			Expect(err).NotTo(HaveOccurred())
			Expect(res.InitialPerformance).To(Equal(evolve.UnscoredPerformance))
		})

		It("records the trajectory on request", func() {
			var states int
			a.Params.RecordStates = true
			a.Params.SimTMax = 10
			a.Performance = dynPerf(func(_ *network.System, traj *evolve.Trajectory) float64 {
				states = len(traj.States)
				return 0
			})
			a.InitialStates = evolve.FixedInitialStates{{1}}
			_, err := a.Evolve(ctx, lineSystem(1))
			Expect(err).NotTo(HaveOccurred())
			Expect(states).To(Equal(11))
		})
	})
})
