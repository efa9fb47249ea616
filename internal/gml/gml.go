// Package gml reads and writes network systems as GML documents.
package gml

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/san-kum/netevo/internal/dynamo"
	"github.com/san-kum/netevo/internal/network"
	"github.com/san-kum/netevo/internal/topology"
)

// Version is written into the Creator header.
var Version = "0.1.0"

// Save writes sys to w. Nodes get file ids 0..n-1 in enumeration order and
// arcs refer to them through source and target.
func Save(w io.Writer, sys *network.System) error {
	sys.RefreshStateIDs()
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "Creator \"netevo %s on %s\"\n", Version, time.Now().Format(time.RFC1123))
	fmt.Fprintln(bw, "graph [")
	fmt.Fprintln(bw, "  directed 1")

	ids := make(map[topology.Node]int, sys.CountNodes())
	for i := 0; i < sys.CountNodes(); i++ {
		v := sys.NodeAt(i)
		ids[v] = i
		d := sys.NodeData(v)
		fmt.Fprintln(bw, "  node [")
		fmt.Fprintf(bw, "    id %d\n", i)
		fmt.Fprintf(bw, "    key %d\n", d.Key)
		fmt.Fprintf(bw, "    label \"%s\"\n", escape(d.Name))
		fmt.Fprintln(bw, "    graphics [")
		fmt.Fprintf(bw, "      x %s\n", formatFloat(d.Position.X))
		fmt.Fprintf(bw, "      y %s\n", formatFloat(d.Position.Y))
		fmt.Fprintf(bw, "      z %s\n", formatFloat(d.Position.Z))
		fmt.Fprintln(bw, "    ]")
		fmt.Fprintf(bw, "    properties \"%s\"\n", joinFloats(d.Properties))
		fmt.Fprintf(bw, "    dynName \"%s\"\n", escape(d.Dynamic.Name()))
		fmt.Fprintf(bw, "    dynParams \"%s\"\n", joinFloats(d.Params))
		fmt.Fprintln(bw, "  ]")
	}

	for i := 0; i < sys.CountArcs(); i++ {
		a := sys.ArcAt(i)
		d := sys.ArcData(a)
		fmt.Fprintln(bw, "  edge [")
		fmt.Fprintf(bw, "    source %d\n", ids[sys.Source(a)])
		fmt.Fprintf(bw, "    target %d\n", ids[sys.Target(a)])
		fmt.Fprintf(bw, "    key %d\n", d.Key)
		fmt.Fprintf(bw, "    label \"%s\"\n", escape(d.Name))
		fmt.Fprintf(bw, "    weight %s\n", formatFloat(d.Weight))
		fmt.Fprintf(bw, "    properties \"%s\"\n", joinFloats(d.Properties))
		fmt.Fprintf(bw, "    dynName \"%s\"\n", escape(d.Dynamic.Name()))
		fmt.Fprintf(bw, "    dynParams \"%s\"\n", joinFloats(d.Params))
		fmt.Fprintln(bw, "  ]")
	}
	fmt.Fprintln(bw, "]")
	return bw.Flush()
}

// SaveFile writes sys to path, replacing any existing file.
func SaveFile(path string, sys *network.System) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Save(f, sys); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// LoadFile replaces the contents of sys with the document at path. A missing
// file yields an error matching fs.ErrNotExist.
func LoadFile(path string, sys *network.System) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f, sys)
}

type nodeRecord struct {
	id     int64
	key    int
	hasKey bool
	label  string
	pos    network.Position
	props  []float64
	dyn    string
	params []float64
	hasPar bool
}

type edgeRecord struct {
	source, target int64
	key            int
	hasKey         bool
	label          string
	weight         float64
	props          []float64
	dyn            string
	params         []float64
	hasPar         bool
}

// Load replaces the contents of sys with the document read from r. The
// document is fully parsed and every dynamic resolved before sys is touched,
// so a failed load leaves sys unchanged.
func Load(r io.Reader, sys *network.System) error {
	src, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	root, err := parse(string(src))
	if err != nil {
		return err
	}
	g, ok := lookup(root, "graph")
	if !ok || g.kind != kindList {
		return fmt.Errorf("%w: no graph block", dynamo.ErrInvalidFile)
	}

	var nodes []nodeRecord
	var edges []edgeRecord
	seen := make(map[int64]bool)
	maxKey := -1
	for _, p := range g.list {
		switch p.key {
		case "node":
			n, err := readNode(p.val)
			if err != nil {
				return err
			}
			if seen[n.id] {
				return fmt.Errorf("%w: duplicate node id %d", dynamo.ErrInvalidFile, n.id)
			}
			seen[n.id] = true
			if n.hasKey {
				maxKey = max(maxKey, n.key)
			}
			nodes = append(nodes, n)
		case "edge":
			e, err := readEdge(p.val)
			if err != nil {
				return err
			}
			if e.hasKey {
				maxKey = max(maxKey, e.key)
			}
			edges = append(edges, e)
		}
	}

	reg := sys.Registry()
	for _, n := range nodes {
		if _, err := reg.Node(n.dyn); err != nil {
			return err
		}
	}
	for _, e := range edges {
		if !seen[e.source] || !seen[e.target] {
			return fmt.Errorf("%w: edge %d->%d refers to a missing node", dynamo.ErrInvalidFile, e.source, e.target)
		}
		if _, err := reg.Arc(e.dyn); err != nil {
			return err
		}
	}

	sys.Clear()
	next := maxKey + 1
	fresh := func() int {
		k := next
		next++
		return k
	}
	byID := make(map[int64]topology.Node, len(nodes))
	for _, n := range nodes {
		v, err := sys.AddNamedNode(n.label, n.dyn)
		if err != nil {
			return err
		}
		byID[n.id] = v
		d := sys.NodeData(v)
		d.Key = n.key
		if !n.hasKey {
			d.Key = fresh()
		}
		d.Position = n.pos
		d.Properties = n.props
		if n.hasPar {
			d.Params = n.params
		}
	}
	for _, e := range edges {
		a, err := sys.AddNamedArc(byID[e.source], byID[e.target], e.label, e.dyn)
		if err != nil {
			return err
		}
		d := sys.ArcData(a)
		d.Key = e.key
		if !e.hasKey {
			d.Key = fresh()
		}
		d.Weight = e.weight
		d.Properties = e.props
		if e.hasPar {
			d.Params = e.params
		}
	}
	sys.SetNextKey(next)
	sys.RefreshStateIDs()
	return nil
}

func readNode(v value) (nodeRecord, error) {
	var n nodeRecord
	if v.kind != kindList {
		return n, fmt.Errorf("%w: node is not a list", dynamo.ErrInvalidFile)
	}
	id, ok := lookup(v.list, "id")
	if !ok || id.kind != kindInt {
		return n, fmt.Errorf("%w: node without integer id", dynamo.ErrInvalidFile)
	}
	n.id = id.i
	var err error
	if n.key, n.hasKey, err = intField(v.list, "key"); err != nil {
		return n, err
	}
	n.label = stringField(v.list, "label")
	if gr, ok := lookup(v.list, "graphics"); ok && gr.kind == kindList {
		n.pos.X = numberField(gr.list, "x", 0)
		n.pos.Y = numberField(gr.list, "y", 0)
		n.pos.Z = numberField(gr.list, "z", 0)
	}
	if n.props, _, err = floatsField(v.list, "properties"); err != nil {
		return n, err
	}
	n.dyn = stringField(v.list, "dynName")
	n.params, n.hasPar, err = floatsField(v.list, "dynParams")
	return n, err
}

func readEdge(v value) (edgeRecord, error) {
	var e edgeRecord
	if v.kind != kindList {
		return e, fmt.Errorf("%w: edge is not a list", dynamo.ErrInvalidFile)
	}
	src, ok1 := lookup(v.list, "source")
	tgt, ok2 := lookup(v.list, "target")
	if !ok1 || !ok2 || src.kind != kindInt || tgt.kind != kindInt {
		return e, fmt.Errorf("%w: edge without integer source and target", dynamo.ErrInvalidFile)
	}
	e.source, e.target = src.i, tgt.i
	var err error
	if e.key, e.hasKey, err = intField(v.list, "key"); err != nil {
		return e, err
	}
	e.label = stringField(v.list, "label")
	e.weight = numberField(v.list, "weight", 1)
	if e.props, _, err = floatsField(v.list, "properties"); err != nil {
		return e, err
	}
	e.dyn = stringField(v.list, "dynName")
	e.params, e.hasPar, err = floatsField(v.list, "dynParams")
	return e, err
}

func intField(list []pair, key string) (int, bool, error) {
	v, ok := lookup(list, key)
	if !ok {
		return 0, false, nil
	}
	if v.kind != kindInt {
		return 0, false, fmt.Errorf("%w: %s must be an integer", dynamo.ErrInvalidFile, key)
	}
	return int(v.i), true, nil
}

func stringField(list []pair, key string) string {
	v, ok := lookup(list, key)
	if !ok || v.kind != kindString {
		return ""
	}
	return v.s
}

func numberField(list []pair, key string, def float64) float64 {
	v, ok := lookup(list, key)
	if !ok {
		return def
	}
	if f, ok := v.number(); ok {
		return f
	}
	return def
}

func floatsField(list []pair, key string) ([]float64, bool, error) {
	v, ok := lookup(list, key)
	if !ok {
		return nil, false, nil
	}
	if v.kind != kindString {
		if f, ok := v.number(); ok {
			return []float64{f}, true, nil
		}
		return nil, false, fmt.Errorf("%w: %s must be a string", dynamo.ErrInvalidFile, key)
	}
	vals, err := splitFloats(v.s)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %s: %v", dynamo.ErrInvalidFile, key, err)
	}
	return vals, true, nil
}
