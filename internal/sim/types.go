package sim

import (
	"fmt"
	"io"

	"github.com/san-kum/netevo/internal/dynamo"
)

// Observer receives every state a simulator produces. The state is only
// valid for the duration of the call.
type Observer interface {
	Observe(x dynamo.State, t float64)
}

type ObserverFunc func(x dynamo.State, t float64)

func (f ObserverFunc) Observe(x dynamo.State, t float64) { f(x, t) }

// Recorder keeps a copy of every observed state.
type Recorder struct {
	States []dynamo.State
	Times  []float64
}

func (r *Recorder) Observe(x dynamo.State, t float64) {
	r.States = append(r.States, x.Clone())
	r.Times = append(r.Times, t)
}

func (r *Recorder) Len() int { return len(r.Times) }

func (r *Recorder) Reset() {
	r.States = r.States[:0]
	r.Times = r.Times[:0]
}

// Last returns the most recent observation.
func (r *Recorder) Last() (dynamo.State, float64, bool) {
	if len(r.Times) == 0 {
		return nil, 0, false
	}
	n := len(r.Times) - 1
	return r.States[n], r.Times[n], true
}

// StreamObserver writes one "t = <t>, state = (a, b, ...)" line per
// observation.
type StreamObserver struct {
	w   io.Writer
	err error
}

func NewStreamObserver(w io.Writer) *StreamObserver {
	return &StreamObserver{w: w}
}

func (s *StreamObserver) Observe(x dynamo.State, t float64) {
	if s.err != nil {
		return
	}
	_, s.err = fmt.Fprintf(s.w, "t = %g, state = %s\n", t, x)
}

// Err returns the first write error.
func (s *StreamObserver) Err() error { return s.err }

// Observers forwards to each member in order.
type Observers []Observer

func (o Observers) Observe(x dynamo.State, t float64) {
	for _, obs := range o {
		obs.Observe(x, t)
	}
}

type discard struct{}

func (discard) Observe(dynamo.State, float64) {}

// Discard ignores every observation.
var Discard Observer = discard{}
