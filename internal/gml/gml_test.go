package gml

import (
	"bytes"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/netevo/internal/dynamo"
	"github.com/san-kum/netevo/internal/network"
	"github.com/san-kum/netevo/internal/topology"
)

type oscNode struct{}

func (oscNode) Name() string { return "Osc" }
func (oscNode) States() int  { return 1 }
func (oscNode) SetDefaultParams(v topology.Node, sys *network.System) {
	sys.NodeData(v).Params = []float64{2, 3}
}
func (oscNode) Derive(v topology.Node, sys *network.System, x, dx dynamo.State, t float64) {
	dx[0] = -x[0]
}

type springArc struct{}

func (springArc) Name() string { return "Spring" }
func (springArc) States() int  { return 0 }
func (springArc) SetDefaultParams(a topology.Arc, sys *network.System) {
	sys.ArcData(a).Params = []float64{0.25}
}
func (springArc) Derive(topology.Arc, *network.System, dynamo.State, dynamo.State, float64) {}

func newSystem(t *testing.T) *network.System {
	t.Helper()
	sys := network.New(1)
	if err := sys.RegisterNodeDynamic(oscNode{}); err != nil {
		t.Fatal(err)
	}
	if err := sys.RegisterArcDynamic(springArc{}); err != nil {
		t.Fatal(err)
	}
	return sys
}

func TestRoundTrip(t *testing.T) {
	g := NewWithT(t)
	sys := newSystem(t)
	g.Expect(sys.RingGraph(5, 1, false, "Osc", "Spring")).To(Succeed())
	_, err := sys.AddArc(sys.NodeAt(2), sys.NodeAt(2), "")
	g.Expect(err).NotTo(HaveOccurred())

	first := sys.NodeData(sys.NodeAt(0))
	first.Name = `hub "a" & b`
	first.Position = network.Position{X: 1.5, Y: -2, Z: 1e-9}
	first.Properties = []float64{0.1, 7}
	first.Params = []float64{0.30000000000000004, -1}
	arc := sys.ArcData(sys.ArcAt(1))
	arc.Weight = 2.75
	arc.Name = "bridge"

	var buf bytes.Buffer
	g.Expect(Save(&buf, sys)).To(Succeed())
	g.Expect(buf.String()).To(HavePrefix("Creator \"netevo "))

	loaded := newSystem(t)
	g.Expect(Load(&buf, loaded)).To(Succeed())
	g.Expect(loaded.CountNodes()).To(Equal(sys.CountNodes()))
	g.Expect(loaded.CountArcs()).To(Equal(sys.CountArcs()))
	g.Expect(loaded.NextKey()).To(Equal(sys.NextKey()))
	nodesOK, arcsOK := loaded.ValidStateIDs()
	g.Expect(nodesOK && arcsOK).To(BeTrue())

	for i := 0; i < sys.CountNodes(); i++ {
		want, got := sys.NodeData(sys.NodeAt(i)), loaded.NodeData(loaded.NodeAt(i))
		g.Expect(got.Key).To(Equal(want.Key))
		g.Expect(got.Name).To(Equal(want.Name))
		g.Expect(got.Position).To(Equal(want.Position))
		g.Expect(got.Properties).To(Equal(want.Properties))
		g.Expect(got.Params).To(Equal(want.Params))
		g.Expect(got.Dynamic.Name()).To(Equal(want.Dynamic.Name()))
	}
	for i := 0; i < sys.CountArcs(); i++ {
		wa, ga := sys.ArcAt(i), loaded.ArcAt(i)
		want, got := sys.ArcData(wa), loaded.ArcData(ga)
		g.Expect(got.Key).To(Equal(want.Key))
		g.Expect(got.Name).To(Equal(want.Name))
		g.Expect(got.Weight).To(Equal(want.Weight))
		g.Expect(got.Params).To(Equal(want.Params))
		g.Expect(got.Dynamic.Name()).To(Equal(want.Dynamic.Name()))
		g.Expect(loaded.NodeData(loaded.Source(ga)).Key).To(Equal(sys.NodeData(sys.Source(wa)).Key))
		g.Expect(loaded.NodeData(loaded.Target(ga)).Key).To(Equal(sys.NodeData(sys.Target(wa)).Key))
	}
}

func TestLoadDefaults(t *testing.T) {
	g := NewWithT(t)
	doc := `graph [
  directed 1
  # comment line
  node [ id 10 key 4 dynName "Osc" ]
  node [ id 11 ]
  edge [ source 10 target 11 dynName "Spring" ]
  edge [ source 11 target 10 key 9 weight 0.5 ]
]`
	sys := newSystem(t)
	g.Expect(Load(strings.NewReader(doc), sys)).To(Succeed())
	g.Expect(sys.CountNodes()).To(Equal(2))
	g.Expect(sys.CountArcs()).To(Equal(2))

	osc := sys.NodeData(sys.NodeAt(0))
	g.Expect(osc.Key).To(Equal(4))
	g.Expect(osc.Params).To(Equal([]float64{2, 3}))
	g.Expect(sys.NodeData(sys.NodeAt(1)).Dynamic.Name()).To(Equal(network.NullNodeName))

	spring := sys.ArcData(sys.ArcAt(0))
	g.Expect(spring.Params).To(Equal([]float64{0.25}))
	g.Expect(spring.Weight).To(Equal(1.0))
	g.Expect(sys.NodeData(sys.NodeAt(1)).Key).To(Equal(10))
	g.Expect(spring.Key).To(Equal(11))
	g.Expect(sys.ArcData(sys.ArcAt(1)).Key).To(Equal(9))
	g.Expect(sys.NextKey()).To(Equal(12))

	keyed := `graph [ node [ id 0 key 3 ] node [ id 1 key 7 ] edge [ source 0 target 1 key 5 ] ]`
	g.Expect(Load(strings.NewReader(keyed), sys)).To(Succeed())
	g.Expect(sys.NextKey()).To(Equal(8))
}

func TestLoadUnknownDynamicLeavesSystem(t *testing.T) {
	g := NewWithT(t)
	sys := newSystem(t)
	g.Expect(sys.RingGraph(3, 1, false, "Osc", "")).To(Succeed())

	doc := `graph [ node [ id 0 dynName "Missing" ] ]`
	err := Load(strings.NewReader(doc), sys)
	g.Expect(err).To(MatchError(dynamo.ErrUnknownDynamic))
	g.Expect(sys.CountNodes()).To(Equal(3))
}

func TestLoadInvalid(t *testing.T) {
	docs := map[string]string{
		"unterminated": `graph [ node [ id 0 ]`,
		"stray close":  `graph [ ] ]`,
		"no graph":     `Creator "x"`,
		"bad value":    `graph [ node [ id zero ] ]`,
		"missing id":   `graph [ node [ key 1 ] ]`,
		"dup id":       `graph [ node [ id 0 ] node [ id 0 ] ]`,
		"dangling":     `graph [ node [ id 0 ] edge [ source 0 target 3 ] ]`,
		"bad params":   `graph [ node [ id 0 dynParams "1,x" ] ]`,
		"open string":  `graph [ node [ id 0 label "abc ] ]`,
	}
	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			g := NewWithT(t)
			err := Load(strings.NewReader(doc), newSystem(t))
			g.Expect(err).To(MatchError(dynamo.ErrInvalidFile))
		})
	}
}

func TestFiles(t *testing.T) {
	g := NewWithT(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "net.gml")

	sys := newSystem(t)
	g.Expect(sys.RandomGraph(0.4, 8, false, true, "Osc", "Spring")).To(Succeed())
	g.Expect(SaveFile(path, sys)).To(Succeed())

	loaded := newSystem(t)
	g.Expect(LoadFile(path, loaded)).To(Succeed())
	g.Expect(loaded.CountArcs()).To(Equal(sys.CountArcs()))

	err := LoadFile(filepath.Join(dir, "absent.gml"), loaded)
	g.Expect(err).To(MatchError(fs.ErrNotExist))
	g.Expect(err).NotTo(MatchError(dynamo.ErrInvalidFile))
}
