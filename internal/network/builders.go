package network

import (
	"fmt"

	"github.com/san-kum/netevo/internal/topology"
)

func (s *System) checkDynamics(nodeDyn, arcDyn string) error {
	if _, err := s.registry.Node(nodeDyn); err != nil {
		return err
	}
	if _, err := s.registry.Arc(arcDyn); err != nil {
		return err
	}
	return nil
}

func (s *System) addNodes(n int, dynamic string) ([]topology.Node, error) {
	nodes := make([]topology.Node, n)
	for i := range nodes {
		v, err := s.AddNode(dynamic)
		if err != nil {
			return nil, err
		}
		nodes[i] = v
	}
	return nodes, nil
}

// RandomGraph replaces the contents of s with an Erdos-Renyi style graph of
// n nodes. Every ordered pair (u, v) receives an arc when a uniform draw is
// below p; self-pairs are considered only when selfLoops is set. In
// undirected mode a pair receives both arcs, and only when no arc already
// joins it in either direction.
func (s *System) RandomGraph(p float64, n int, selfLoops, undirected bool, nodeDyn, arcDyn string) error {
	if n < 0 {
		return fmt.Errorf("random graph: negative node count %d", n)
	}
	if err := s.checkDynamics(nodeDyn, arcDyn); err != nil {
		return err
	}
	s.Clear()
	nodes, err := s.addNodes(n, nodeDyn)
	if err != nil {
		return err
	}
	for _, u := range nodes {
		for _, v := range nodes {
			if u == v && !selfLoops {
				continue
			}
			if s.rng.Float64() >= p {
				continue
			}
			switch {
			case !undirected || u == v:
				_, err = s.AddArc(u, v, arcDyn)
			case !s.Adjacent(u, v):
				_, err = s.AddEdge(u, v, arcDyn)
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// RingGraph replaces the contents of s with a ring of n nodes in which each
// node links to its next k neighbours. Self-pairs and repeated pairs that
// arise when k >= n/2 are skipped.
func (s *System) RingGraph(n, k int, undirected bool, nodeDyn, arcDyn string) error {
	if n < 0 || k < 0 {
		return fmt.Errorf("ring graph: invalid size n=%d k=%d", n, k)
	}
	if err := s.checkDynamics(nodeDyn, arcDyn); err != nil {
		return err
	}
	s.Clear()
	nodes, err := s.addNodes(n, nodeDyn)
	if err != nil {
		return err
	}
	for i, u := range nodes {
		for j := 1; j <= k; j++ {
			v := nodes[(i+j)%n]
			if u == v {
				continue
			}
			if undirected {
				if s.Adjacent(u, v) {
					continue
				}
				_, err = s.AddEdge(u, v, arcDyn)
			} else {
				if s.FindArc(u, v) != topology.InvalidArc {
					continue
				}
				_, err = s.AddArc(u, v, arcDyn)
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// MakeUndirected adds the reverse of every arc that lacks one. The new arc
// copies the data of its partner and receives a fresh key.
func (s *System) MakeUndirected() {
	for _, a := range s.graph.Arcs() {
		u, v := s.graph.Source(a), s.graph.Target(a)
		if u == v || s.graph.FindArc(v, u) != topology.InvalidArc {
			continue
		}
		r := s.graph.AddArc(v, u)
		d := s.arcs[a].clone()
		d.Key = s.allocKey()
		s.arcs[r] = d
		s.mapper.arcsValid = false
	}
}

// CopyTopology replaces the contents of s with the nodes and arcs of g,
// assigning the given dynamics to all of them. The returned maps translate
// handles of g into handles of s.
func (s *System) CopyTopology(g *topology.Graph, nodeDyn, arcDyn string) (map[topology.Node]topology.Node, map[topology.Arc]topology.Arc, error) {
	if err := s.checkDynamics(nodeDyn, arcDyn); err != nil {
		return nil, nil, err
	}
	s.Clear()
	nodeRef := make(map[topology.Node]topology.Node, g.CountNodes())
	for _, v := range g.Nodes() {
		nv, err := s.AddNode(nodeDyn)
		if err != nil {
			return nil, nil, err
		}
		nodeRef[v] = nv
	}
	arcRef := make(map[topology.Arc]topology.Arc, g.CountArcs())
	for _, a := range g.Arcs() {
		na, err := s.AddArc(nodeRef[g.Source(a)], nodeRef[g.Target(a)], arcDyn)
		if err != nil {
			return nil, nil, err
		}
		arcRef[a] = na
	}
	return nodeRef, arcRef, nil
}
