package core

import (
	"context"
	"fmt"
)

var (
	// DefaultControl will be used by Walk if the given control is
	// nil.  Since positions only move forward, a Limit of the
	// arena size can't be reached by a well-formed composition in
	// a DefaultBlock arena.
	DefaultControl = &Control{
		Limit: DefaultBlock,
	}

	// StridesInitialCap bounds the initial capacity of
	// Walked.Strides.
	StridesInitialCap = 1024
)

// StopReason represents the possible reasons for a Walk to terminate.
type StopReason int

const (
	Done              StopReason = iota // Halted.
	Limited                             // Too many steps.
	Faulted                             // A Step reported a TotalityFault.
	MemoryLow                           // A Step reported MemLow.
	BreakpointReached                   // During a Walk.
)

func (r StopReason) String() string {
	switch r {
	case Done:
		return "Done"
	case Limited:
		return "Limited"
	case Faulted:
		return "Faulted"
	case MemoryLow:
		return "MemoryLow"
	case BreakpointReached:
		return "BreakpointReached"
	}
	return fmt.Sprintf("StopReason(%d)", int(r))
}

// Breakpoint is a *Runtime predicate.
//
// When a Breakpoint returns true for a *Runtime, then processing
// should stop at that point.
type Breakpoint func(context.Context, *Runtime) bool

// AtOffset makes a Breakpoint that fires when the position is o.
func AtOffset(o Offset) Breakpoint {
	return func(ctx context.Context, rt *Runtime) bool {
		return rt.pos == o
	}
}

// Control influences how Walk() operates.
type Control struct {
	// Limit is the maximum number of Steps that a Walk() can take.
	Limit       int
	Breakpoints map[string]Breakpoint
}

func (c *Control) Copy() *Control {
	bs := make(map[string]Breakpoint, len(c.Breakpoints))
	for id, b := range c.Breakpoints {
		bs[id] = b
	}
	return &Control{
		Limit:       c.Limit,
		Breakpoints: bs,
	}
}

// Stride represents a step that Walk has taken or attempted.
type Stride struct {
	// From is the position before the step.
	From Offset `json:"from"`

	// Result is what Step reported.
	Result Result `json:"result"`

	// Wrote is the Offset of the Word the step wrote (if any).
	Wrote Offset `json:"wrote,omitempty" yaml:",omitempty"`

	// Value is the Word written.
	Value Word `json:"value,omitempty" yaml:",omitempty"`
}

// Walked represents a sequence of strides taken by a Walk().
type Walked struct {
	// Strides contains each Stride taken and the last one
	// attempted.
	Strides []*Stride `json:"strides" yaml:",omitempty"`

	// StoppedBecause reports the reason why the Walk stopped.
	StoppedBecause StopReason `json:"stoppedBecause" yaml:",omitempty"`

	// BreakpointId is the id of the breakpoint, if any, that
	// caused this Walk to stop.
	BreakpointId string `json:"breakpoint,omitempty" yaml:",omitempty"`
}

// Last returns the Result of the last Stride attempted.
func (w *Walked) Last() (Result, bool) {
	if 0 == len(w.Strides) {
		return Result{}, false
	}
	return w.Strides[len(w.Strides)-1].Result, true
}

func newWalked(siz int) *Walked {
	if StridesInitialCap < siz {
		siz = StridesInitialCap
	}
	return &Walked{
		Strides: make([]*Stride, 0, siz),
	}
}

// Walk takes as many steps as it can, recording each one.
//
// Unlike Exec, Walk stops at the Control's Limit and at its
// Breakpoints, which are checked before each step.  The only
// returned error is the context's.
func (rt *Runtime) Walk(ctx context.Context, c *Control) (*Walked, error) {
	if c == nil {
		c = DefaultControl
	}

	walked := newWalked(c.Limit)

	for i := 0; i < c.Limit; i++ {
		if err := ctx.Err(); err != nil {
			return walked, err
		}

		for id, breakpoint := range c.Breakpoints {
			if breakpoint(ctx, rt) {
				walked.StoppedBecause = BreakpointReached
				walked.BreakpointId = id
				return walked, nil
			}
		}

		stride := &Stride{
			From: rt.pos,
		}
		stride.Result = rt.Step()
		if stride.Result.Kind == OK {
			stride.Wrote = rt.ret
			stride.Value = rt.raw[rt.ret]
		}
		walked.Strides = append(walked.Strides, stride)

		switch stride.Result.Kind {
		case Halt:
			walked.StoppedBecause = Done
			return walked, nil
		case TotalityFault:
			walked.StoppedBecause = Faulted
			return walked, nil
		case MemLow:
			walked.StoppedBecause = MemoryLow
			return walked, nil
		}
	}

	// We hit the c.Limit.
	walked.StoppedBecause = Limited

	return walked, nil
}
