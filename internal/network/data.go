package network

import "slices"

// Position is a layout hint. It is persisted but otherwise unused.
type Position struct {
	X, Y, Z float64
}

type NodeData struct {
	Key        int
	Name       string
	Position   Position
	Properties []float64
	Dynamic    NodeDynamic
	Params     []float64
}

type ArcData struct {
	Key        int
	Name       string
	Weight     float64
	Properties []float64
	Dynamic    ArcDynamic
	Params     []float64
}

func (d *NodeData) clone() *NodeData {
	c := *d
	c.Properties = slices.Clone(d.Properties)
	c.Params = slices.Clone(d.Params)
	return &c
}

func (d *ArcData) clone() *ArcData {
	c := *d
	c.Properties = slices.Clone(d.Properties)
	c.Params = slices.Clone(d.Params)
	return &c
}
