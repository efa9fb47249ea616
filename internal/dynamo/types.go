package dynamo

import (
	"fmt"
	"math"
)

// State is a flat vector holding the simultaneous state of every node and
// arc of a network.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// MaxAbs returns the infinity norm.
func (s State) MaxAbs() float64 {
	m := 0.0
	for _, v := range s {
		if a := math.Abs(v); a > m {
			m = a
		}
	}
	return m
}

// Block returns the sub-slice [offset, offset+width) sharing storage with s.
func (s State) Block(offset, width int) State {
	return s[offset : offset+width : offset+width]
}

// AddScaled writes s + f*d into dst and returns dst.
func (s State) AddScaled(dst State, f float64, d State) State {
	for i := range s {
		dst[i] = s[i] + f*d[i]
	}
	return dst
}

func (s State) String() string {
	out := "("
	for i, v := range s {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprint(v)
	}
	return out + ")"
}

// DerivFunc evaluates the right hand side of the system at time t, writing
// into dx. For discrete maps dx receives the next state instead.
type DerivFunc func(x, dx State, t float64)

// StepObserver is called after every accepted integration step.
type StepObserver func(x State, t float64)

// Configurable is implemented by dynamics whose default parameters can be
// changed before entities are created.
type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}
