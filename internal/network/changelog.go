package network

import (
	"bytes"
	"io"
	"strconv"

	"github.com/san-kum/netevo/internal/dynamo"
	"github.com/san-kum/netevo/internal/topology"
)

// StepKind marks what produced the notifications closed by EndStep.
type StepKind int

const (
	StepInit StepKind = iota
	StepSim
	StepEvo
)

func (k StepKind) String() string {
	switch k {
	case StepInit:
		return "init"
	case StepSim:
		return "sim"
	case StepEvo:
		return "evo"
	default:
		return "unknown"
	}
}

// ChangeLog receives notifications about structural edits and simulated
// states. Notifications are framed: Commit makes everything since the last
// Commit or Rollback permanent, Rollback discards it.
type ChangeLog interface {
	AddNode(sys *System, v topology.Node)
	AddArc(sys *System, a topology.Arc)
	EraseNode(sys *System, v topology.Node)
	EraseArc(sys *System, a topology.Arc)
	UpdateNode(sys *System, v topology.Node)
	UpdateArc(sys *System, a topology.Arc)
	NewState(sys *System, x dynamo.State)
	EndStep(kind StepKind)
	Rollback()
	Commit()
}

// NopChangeLog ignores every notification.
type NopChangeLog struct{}

func (NopChangeLog) AddNode(*System, topology.Node)    {}
func (NopChangeLog) AddArc(*System, topology.Arc)      {}
func (NopChangeLog) EraseNode(*System, topology.Node)  {}
func (NopChangeLog) EraseArc(*System, topology.Arc)    {}
func (NopChangeLog) UpdateNode(*System, topology.Node) {}
func (NopChangeLog) UpdateArc(*System, topology.Arc)   {}
func (NopChangeLog) NewState(*System, dynamo.State)    {}
func (NopChangeLog) EndStep(StepKind)                  {}
func (NopChangeLog) Rollback()                         {}
func (NopChangeLog) Commit()                           {}

// ChangeLogSet forwards every notification to each member in order.
type ChangeLogSet []ChangeLog

func (s ChangeLogSet) AddNode(sys *System, v topology.Node) {
	for _, l := range s {
		l.AddNode(sys, v)
	}
}

func (s ChangeLogSet) AddArc(sys *System, a topology.Arc) {
	for _, l := range s {
		l.AddArc(sys, a)
	}
}

func (s ChangeLogSet) EraseNode(sys *System, v topology.Node) {
	for _, l := range s {
		l.EraseNode(sys, v)
	}
}

func (s ChangeLogSet) EraseArc(sys *System, a topology.Arc) {
	for _, l := range s {
		l.EraseArc(sys, a)
	}
}

func (s ChangeLogSet) UpdateNode(sys *System, v topology.Node) {
	for _, l := range s {
		l.UpdateNode(sys, v)
	}
}

func (s ChangeLogSet) UpdateArc(sys *System, a topology.Arc) {
	for _, l := range s {
		l.UpdateArc(sys, a)
	}
}

func (s ChangeLogSet) NewState(sys *System, x dynamo.State) {
	for _, l := range s {
		l.NewState(sys, x)
	}
}

func (s ChangeLogSet) EndStep(kind StepKind) {
	for _, l := range s {
		l.EndStep(kind)
	}
}

func (s ChangeLogSet) Rollback() {
	for _, l := range s {
		l.Rollback()
	}
}

func (s ChangeLogSet) Commit() {
	for _, l := range s {
		l.Commit()
	}
}

// StreamChangeLog writes one comma separated line per notification. Lines
// are buffered until Commit; Rollback drops them.
//
//	N+,key            node added        N-,key     node erased
//	E+,srcKey,tgtKey  arc added         E-,...     arc erased
//	NU,key / EU,...   entity updated
//	NS,key,v...       node state        ES,srcKey,tgtKey,v...  arc state
//	---  -  --        end of init, simulation and evolution steps
type StreamChangeLog struct {
	w   io.Writer
	buf bytes.Buffer
	err error
}

func NewStreamChangeLog(w io.Writer) *StreamChangeLog {
	return &StreamChangeLog{w: w}
}

// Err returns the first write error seen by Commit.
func (l *StreamChangeLog) Err() error { return l.err }

func (l *StreamChangeLog) line(fields ...string) {
	for i, f := range fields {
		if i > 0 {
			l.buf.WriteByte(',')
		}
		l.buf.WriteString(f)
	}
	l.buf.WriteByte('\n')
}

func nodeKey(sys *System, v topology.Node) string {
	return strconv.Itoa(sys.NodeData(v).Key)
}

func arcEnds(sys *System, a topology.Arc) (string, string) {
	return nodeKey(sys, sys.Source(a)), nodeKey(sys, sys.Target(a))
}

func (l *StreamChangeLog) AddNode(sys *System, v topology.Node) {
	l.line("N+", nodeKey(sys, v))
}

func (l *StreamChangeLog) AddArc(sys *System, a topology.Arc) {
	src, tgt := arcEnds(sys, a)
	l.line("E+", src, tgt)
}

func (l *StreamChangeLog) EraseNode(sys *System, v topology.Node) {
	l.line("N-", nodeKey(sys, v))
}

func (l *StreamChangeLog) EraseArc(sys *System, a topology.Arc) {
	src, tgt := arcEnds(sys, a)
	l.line("E-", src, tgt)
}

func (l *StreamChangeLog) UpdateNode(sys *System, v topology.Node) {
	l.line("NU", nodeKey(sys, v))
}

func (l *StreamChangeLog) UpdateArc(sys *System, a topology.Arc) {
	src, tgt := arcEnds(sys, a)
	l.line("EU", src, tgt)
}

func (l *StreamChangeLog) NewState(sys *System, x dynamo.State) {
	if w := sys.NodeStates(); w > 0 {
		for _, v := range sys.NodeOrder() {
			fields := []string{"NS", nodeKey(sys, v)}
			l.line(appendValues(fields, sys.NodeBlock(x, v))...)
		}
	}
	if w := sys.ArcStates(); w > 0 {
		for _, a := range sys.Arcs() {
			src, tgt := arcEnds(sys, a)
			fields := []string{"ES", src, tgt}
			l.line(appendValues(fields, sys.ArcBlock(x, a))...)
		}
	}
}

func (l *StreamChangeLog) EndStep(kind StepKind) {
	switch kind {
	case StepInit:
		l.line("---")
	case StepSim:
		l.line("-")
	case StepEvo:
		l.line("--")
	}
}

func (l *StreamChangeLog) Rollback() { l.buf.Reset() }

func (l *StreamChangeLog) Commit() {
	if l.buf.Len() == 0 {
		return
	}
	if _, err := l.w.Write(l.buf.Bytes()); err != nil && l.err == nil {
		l.err = err
	}
	l.buf.Reset()
}

func appendValues(fields []string, vals dynamo.State) []string {
	for _, v := range vals {
		fields = append(fields, strconv.FormatFloat(v, 'g', -1, 64))
	}
	return fields
}
