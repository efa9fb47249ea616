// Package network models a directed network whose nodes and arcs carry
// pluggable dynamics, and maps it onto one flat state vector.
//
// A [System] owns the topology, one [NodeData] or [ArcData] record per
// entity, a shared [Registry] of dynamics and a private random source. The
// state vector holds every node block (each [System.NodeStates] wide) in
// enumeration order followed by every arc block (each [System.ArcStates]
// wide):
//
//	| node 0 | node 1 | ... | node n-1 | arc 0 | arc 1 | ... |
//
// Offsets come from [System.NodeStateID] and [System.ArcStateID]. Adding or
// erasing entities invalidates the enumeration of that kind;
// [System.RefreshStateIDs] rebuilds it, and the offset accessors refresh
// lazily. Identity keys in NodeData and ArcData survive copies and file
// round-trips; enumeration indices do not.
//
// [System.Derive] is the aggregate update consumed by the simulators. A
// [ChangeLog] receives structural and state notifications framed by
// Commit and Rollback.
//
// # Example
//
//	sys := network.New(42)
//	_ = sys.RegisterNodeDynamic(dynamics.NewKuramotoMap())
//	_ = sys.RingGraph(20, 2, true, "KuramotoMap", "")
//	x := make(dynamo.State, sys.TotalStates())
//	sys.Derive(x, x.Clone(), 0)
package network
