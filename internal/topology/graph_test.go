package topology

import (
	"slices"
	"testing"
)

func TestGraphAddErase(t *testing.T) {
	g := New()
	a, b, c := g.AddNode(), g.AddNode(), g.AddNode()

	ab := g.AddArc(a, b)
	bc := g.AddArc(b, c)
	ca := g.AddArc(c, a)

	if g.CountNodes() != 3 || g.CountArcs() != 3 {
		t.Fatalf("counts = (%d, %d), want (3, 3)", g.CountNodes(), g.CountArcs())
	}
	if g.Source(bc) != b || g.Target(bc) != c {
		t.Errorf("arc bc has ends (%d, %d)", g.Source(bc), g.Target(bc))
	}
	if g.FindArc(a, b) != ab {
		t.Errorf("FindArc(a, b) = %d, want %d", g.FindArc(a, b), ab)
	}
	if g.FindArc(b, a) != InvalidArc {
		t.Error("FindArc(b, a) should be invalid")
	}
	if !g.Adjacent(b, a) {
		t.Error("Adjacent(b, a) should hold for arc a->b")
	}

	removed := g.EraseNode(b)
	if len(removed) != 2 || !slices.Contains(removed, ab) || !slices.Contains(removed, bc) {
		t.Errorf("EraseNode(b) removed %v, want [%d %d]", removed, ab, bc)
	}
	if g.CountArcs() != 1 || !g.HasArc(ca) {
		t.Errorf("expected only arc ca to remain, got %v", g.Arcs())
	}
	if len(g.OutArcs(a)) != 0 || len(g.InArcs(a)) != 1 {
		t.Errorf("node a adjacency not updated: in=%v out=%v", g.InArcs(a), g.OutArcs(a))
	}

	d := g.AddNode()
	if d == b {
		t.Error("node handle was reused after erase")
	}
}

func TestGraphAddArcInvalid(t *testing.T) {
	g := New()
	a := g.AddNode()
	if g.AddArc(a, Node(42)) != InvalidArc {
		t.Error("AddArc to a missing node should fail")
	}
}

func TestGraphParallelArcsAndLoops(t *testing.T) {
	g := New()
	a, b := g.AddNode(), g.AddNode()
	first := g.AddArc(a, b)
	second := g.AddArc(a, b)
	loop := g.AddArc(a, a)

	if first == second {
		t.Fatal("parallel arcs share a handle")
	}
	if g.OutDegree(a) != 3 {
		t.Errorf("OutDegree(a) = %d, want 3", g.OutDegree(a))
	}
	g.EraseArc(first)
	if g.FindArc(a, b) != second {
		t.Errorf("FindArc after erase = %d, want %d", g.FindArc(a, b), second)
	}

	removed := g.EraseNode(a)
	if len(removed) != 2 || !slices.Contains(removed, loop) {
		t.Errorf("EraseNode removed %v", removed)
	}
	if g.CountArcs() != 0 {
		t.Errorf("arcs left after erase: %v", g.Arcs())
	}
}

func TestGraphIterationOrder(t *testing.T) {
	g := New()
	nodes := []Node{g.AddNode(), g.AddNode(), g.AddNode(), g.AddNode()}
	g.EraseNode(nodes[1])
	got := g.Nodes()
	want := []Node{nodes[0], nodes[2], nodes[3]}
	if !slices.Equal(got, want) {
		t.Errorf("Nodes() = %v, want %v", got, want)
	}

	got[0] = 99
	if g.Nodes()[0] != nodes[0] {
		t.Error("Nodes() exposes internal storage")
	}
}

func TestWeaklyConnectedComponents(t *testing.T) {
	tests := []struct {
		name  string
		nodes int
		arcs  [][2]int
		want  int
	}{
		{"empty", 0, nil, 0},
		{"isolated", 3, nil, 3},
		{"chain", 3, [][2]int{{0, 1}, {2, 1}}, 1},
		{"two parts", 4, [][2]int{{0, 1}, {2, 3}}, 2},
		{"loop only", 2, [][2]int{{0, 0}}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New()
			var nodes []Node
			for i := 0; i < tt.nodes; i++ {
				nodes = append(nodes, g.AddNode())
			}
			for _, a := range tt.arcs {
				g.AddArc(nodes[a[0]], nodes[a[1]])
			}
			if got := g.WeaklyConnectedComponents(); got != tt.want {
				t.Errorf("WeaklyConnectedComponents() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGraphCopy(t *testing.T) {
	g := New()
	a, b := g.AddNode(), g.AddNode()
	ab := g.AddArc(a, b)

	c, nodeRef, arcRef := g.CopyWithMaps()
	if nodeRef[a] != a || arcRef[ab] != ab {
		t.Error("copy does not preserve handles")
	}
	if c.Source(ab) != a || c.Target(ab) != b {
		t.Error("copy lost arc ends")
	}

	c.EraseArc(ab)
	if !g.HasArc(ab) {
		t.Error("erasing from the copy changed the original")
	}
	if n := c.AddNode(); n == a || n == b {
		t.Errorf("copy reissued handle %d", n)
	}
	if c.WeaklyConnectedComponents() != 3 {
		t.Errorf("copy components = %d, want 3", c.WeaklyConnectedComponents())
	}
}
