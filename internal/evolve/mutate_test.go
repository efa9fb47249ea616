package evolve

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/netevo/internal/dynamics"
	"github.com/san-kum/netevo/internal/dynamo"
	"github.com/san-kum/netevo/internal/network"
	"github.com/san-kum/netevo/internal/sim"
	"github.com/san-kum/netevo/internal/topology"
)

// countLog counts structural notifications.
type countLog struct {
	network.NopChangeLog
	addNode, addArc, eraseNode, eraseArc, update int
}

func (l *countLog) AddNode(*network.System, topology.Node)    { l.addNode++ }
func (l *countLog) AddArc(*network.System, topology.Arc)      { l.addArc++ }
func (l *countLog) EraseNode(*network.System, topology.Node)  { l.eraseNode++ }
func (l *countLog) EraseArc(*network.System, topology.Arc)    { l.eraseArc++ }
func (l *countLog) UpdateNode(*network.System, topology.Node) { l.update++ }
func (l *countLog) UpdateArc(*network.System, topology.Arc)   { l.update++ }

func ring(t *testing.T, n, k int) *network.System {
	t.Helper()
	sys := network.New(5)
	if err := dynamics.Register(sys); err != nil {
		t.Fatal(err)
	}
	if err := sys.RingGraph(n, k, true, "KuramotoMap", ""); err != nil {
		t.Fatal(err)
	}
	return sys
}

func symmetric(sys *network.System) bool {
	for _, a := range sys.Arcs() {
		if sys.FindArc(sys.Target(a), sys.Source(a)) == topology.InvalidArc {
			return false
		}
	}
	return true
}

func TestRewireMutation(t *testing.T) {
	g := NewWithT(t)
	sys := ring(t, 10, 1)
	arcs := sys.CountArcs()
	m := RewireMutation{Rand: rand.New(rand.NewSource(1))}
	for i := 0; i < 50; i++ {
		log := &countLog{}
		m.Mutate(sys, log)
		g.Expect(sys.CountArcs()).To(Equal(arcs))
		g.Expect(log.eraseArc).To(Equal(log.addArc))
		g.Expect(log.eraseArc).To(BeNumerically(">=", 2))
		g.Expect(log.eraseArc % 2).To(BeZero())
	}
	g.Expect(sys.CountNodes()).To(Equal(10))
	g.Expect(symmetric(sys)).To(BeTrue())
	for _, a := range sys.Arcs() {
		g.Expect(sys.Source(a)).NotTo(Equal(sys.Target(a)))
	}
}

func TestRewireCompleteGraph(t *testing.T) {
	g := NewWithT(t)
	sys := ring(t, 4, 3)
	g.Expect(sys.CountArcs()).To(Equal(12))
	RewireMutation{Rand: rand.New(rand.NewSource(2)), MaxRewires: 3}.Mutate(sys, network.NopChangeLog{})
	g.Expect(sys.CountArcs()).To(Equal(12))
}

func TestRewireEmpty(t *testing.T) {
	sys := network.New(1)
	for i := 0; i < 3; i++ {
		if _, err := sys.AddNode(""); err != nil {
			t.Fatal(err)
		}
	}
	log := &countLog{}
	RewireMutation{}.Mutate(sys, log)
	if sys.CountArcs() != 0 || log.addArc != 0 {
		t.Errorf("rewired a graph without arcs: %d arcs", sys.CountArcs())
	}
}

func TestRandomMutation(t *testing.T) {
	tests := []struct {
		name  string
		probs MutationProbs
		check func(g *WithT, before, after *network.System, log *countLog)
	}{
		{
			name:  "new node",
			probs: MutationProbs{NewNode: 1},
			check: func(g *WithT, before, after *network.System, log *countLog) {
				g.Expect(after.CountNodes()).To(Equal(before.CountNodes() + 3))
				g.Expect(after.CountArcs()).To(Equal(before.CountArcs() + 6))
				g.Expect(after.WeaklyConnectedComponents()).To(Equal(1))
				g.Expect(log.addNode).To(Equal(3))
			},
		},
		{
			name:  "delete node",
			probs: MutationProbs{DeleteNode: 1},
			check: func(g *WithT, before, after *network.System, log *countLog) {
				g.Expect(after.CountNodes()).To(Equal(before.CountNodes() - 3))
				g.Expect(log.eraseNode).To(Equal(3))
				g.Expect(log.eraseArc).To(Equal(before.CountArcs() - after.CountArcs()))
			},
		},
		{
			name:  "new edge",
			probs: MutationProbs{NewEdge: 1},
			check: func(g *WithT, before, after *network.System, log *countLog) {
				g.Expect(after.CountArcs()).To(Equal(before.CountArcs() + 6))
				g.Expect(symmetric(after)).To(BeTrue())
			},
		},
		{
			name:  "delete edge",
			probs: MutationProbs{DeleteEdge: 1},
			check: func(g *WithT, before, after *network.System, log *countLog) {
				g.Expect(after.CountArcs()).To(Equal(before.CountArcs() - 6))
				g.Expect(symmetric(after)).To(BeTrue())
			},
		},
		{
			name:  "update edge",
			probs: MutationProbs{UpdateEdge: 1},
			check: func(g *WithT, before, after *network.System, log *countLog) {
				g.Expect(log.update).To(Equal(6))
				for _, a := range after.Arcs() {
					r := after.FindArc(after.Target(a), after.Source(a))
					g.Expect(after.ArcData(a).Weight).To(Equal(after.ArcData(r).Weight))
				}
			},
		},
		{
			name:  "update node",
			probs: MutationProbs{UpdateNode: 1},
			check: func(g *WithT, before, after *network.System, log *countLog) {
				g.Expect(log.update).To(Equal(3))
				changed := 0
				for i := 0; i < after.CountNodes(); i++ {
					p0 := before.NodeData(before.NodeAt(i)).Params
					p1 := after.NodeData(after.NodeAt(i)).Params
					for k := range p0 {
						if p0[k] != p1[k] {
							changed++
						}
					}
				}
				g.Expect(changed).To(BeNumerically(">", 0))
			},
		},
		{
			name:  "duplicate",
			probs: MutationProbs{Duplicate: 1},
			check: func(g *WithT, before, after *network.System, log *countLog) {
				g.Expect(after.CountNodes()).To(Equal(before.CountNodes() + 3))
				g.Expect(log.addNode).To(Equal(3))
				g.Expect(log.addArc).To(Equal(after.CountArcs() - before.CountArcs()))
				g.Expect(symmetric(after)).To(BeTrue())
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)
			before := ring(t, 8, 1)
			after := before.Copy()
			log := &countLog{}
			m := RandomMutation{
				Probs:       tt.probs,
				Trials:      3,
				NodeDynamic: "KuramotoMap",
				Undirected:  true,
				ParamScale:  0.5,
				Rand:        rand.New(rand.NewSource(9)),
			}
			m.Mutate(after, log)
			tt.check(g, before, after, log)
		})
	}
}

func TestRandomMutationKeepsLastNode(t *testing.T) {
	sys := ring(t, 1, 0)
	RandomMutation{Probs: MutationProbs{DeleteNode: 1}, Trials: 5}.Mutate(sys, network.NopChangeLog{})
	if sys.CountNodes() != 1 {
		t.Errorf("got %d nodes, want 1", sys.CountNodes())
	}
}

func TestEigenratio(t *testing.T) {
	g := NewWithT(t)
	perf := NewEigenratioPerformance()
	g.Expect(perf.Type()).To(Equal(TopologyOnly))
	g.Expect(perf.Performance(ring(t, 4, 1), nil)).To(BeNumerically("~", 2, 1e-9))
	g.Expect(perf.Performance(ring(t, 5, 2), nil)).To(BeNumerically("~", 1, 1e-9))

	disconnected := ring(t, 4, 0)
	g.Expect(perf.Performance(disconnected, nil)).To(Equal(1e10))
	g.Expect(perf.Performance(ring(t, 1, 0), nil)).To(Equal(1e10))
}

// phaseState returns a full state vector for sys with the given first
// component per node. Padding and arc components hold distinct junk.
func phaseState(sys *network.System, phases ...float64) dynamo.State {
	x := make(dynamo.State, sys.TotalStates())
	for i := range x {
		x[i] = 0.37 * float64(i+1)
	}
	for i, v := range sys.NodeOrder() {
		x[sys.NodeStateID(v)] = phases[i]
	}
	return x
}

func TestSyncPerformance(t *testing.T) {
	g := NewWithT(t)
	sys := ring(t, 3, 1)
	g.Expect(sys.NodeStates()).To(Equal(3))
	perf := NewSyncPerformance()
	final := func(phases ...float64) *Trajectory { return &Trajectory{Final: phaseState(sys, phases...)} }
	g.Expect(perf.Performance(sys, final(0, 0, 0))).To(BeZero())
	g.Expect(perf.Performance(sys, final(0, 0, 1))).To(BeNumerically("~", 200.0/3, 1e-9))
	g.Expect(perf.Performance(sys, final(0, 0, math.NaN()))).To(BeNumerically("~", 200.0/3, 1e-9))
	g.Expect(perf.Performance(sys, &Trajectory{Final: dynamo.State{0}})).To(Equal(100.0))
	g.Expect(perf.Performance(sys, nil)).To(Equal(100.0))
}

func TestSyncPerformanceSimulatedRing(t *testing.T) {
	g := NewWithT(t)
	sys := ring(t, 5, 1)
	x0 := RandomInitialStates{Scale: 1}.InitialStates(sys)[0]
	for _, v := range sys.NodeOrder() {
		x0[sys.NodeStateID(v)] = 1.5
	}
	final, err := sim.NewMap().Simulate(sys, 10, x0, nil, nil)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(NewSyncPerformance().Performance(sys, &Trajectory{Final: final})).To(BeZero())
}

func TestOrderPerformance(t *testing.T) {
	g := NewWithT(t)
	sys := ring(t, 2, 1)
	var perf OrderPerformance
	g.Expect(perf.Performance(sys, &Trajectory{Final: phaseState(sys, 1, 1)})).To(BeNumerically("~", 0, 1e-12))
	g.Expect(perf.Performance(sys, &Trajectory{Final: phaseState(sys, 0, math.Pi)})).To(BeNumerically("~", 1, 1e-12))
	g.Expect(perf.Performance(sys, nil)).To(Equal(1.0))
}

func TestRandomInitialStates(t *testing.T) {
	g := NewWithT(t)
	sys := ring(t, 5, 1)
	states := RandomInitialStates{Scale: 2, Count: 3}.InitialStates(sys)
	g.Expect(states).To(HaveLen(3))
	for _, x := range states {
		g.Expect(x).To(HaveLen(sys.TotalStates()))
		for _, v := range x {
			g.Expect(v).To(And(BeNumerically(">=", 0), BeNumerically("<", 2)))
		}
	}
	g.Expect(RandomInitialStates{}.InitialStates(sys)).To(HaveLen(1))
}

func TestParams(t *testing.T) {
	g := NewWithT(t)
	g.Expect(DefaultParams().Validate()).To(Succeed())
	g.Expect(DefaultAcceptProb(0, 1)).To(Equal(1.0))
	g.Expect(DefaultAcceptProb(1, 1)).To(BeNumerically("~", math.Exp(-1), 1e-15))
	g.Expect(DefaultInitialTemperature(1, 3)).To(Equal(12.0))
	g.Expect(DefaultNewTemperature(10, 0, 0)).To(Equal(9.0))

	p := DefaultParams()
	p.MainTrials = 0
	p.MaxIterations = -1
	err := p.Validate()
	g.Expect(err).To(HaveOccurred())
	var joined interface{ Unwrap() []error }
	g.Expect(errors.As(err, &joined)).To(BeTrue())
	g.Expect(joined.Unwrap()).To(HaveLen(2))
}

func TestPerformanceTypeString(t *testing.T) {
	for typ, want := range map[PerformanceType]string{
		TopologyOnly:        "topology",
		DynamicsOnly:        "dynamics",
		TopologyAndDynamics: "topology+dynamics",
		PerformanceType(9):  "unknown",
	} {
		if got := typ.String(); got != want {
			t.Errorf("%d: got %q, want %q", typ, got, want)
		}
	}
}
