/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package core

import (
	"fmt"
)

// State is the execution state of a Runtime.
type State int

const (
	NotStarted State = iota // No position yet.
	Running                 // Position names a record.
	Halted                  // Terminal until the next Seek.
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "NotStarted"
	case Running:
		return "Running"
	case Halted:
		return "Halted"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Runtime is a container for the core Morpha runtime state.
//
// A Runtime owns its arena exclusively.  It is not safe for
// concurrent use; run independent Runtimes instead.
//
// Example:
//
//	rt := NewRuntime(make([]Word, DefaultBlock))
//	r := rt.CreateMorph(OpAdd, Imm(3), Imm(4))
//	if r.Kind != OK {
//		// r.Reason says why.
//	}
//	rt.Seek(r.Offset())
//	for r = rt.Step(); r.Kind == OK; r = rt.Step() {
//	}
//	// r.Kind is Halt and r.Offset() holds 7.
type Runtime struct {
	raw []Word

	// cursor is the bump allocation point.  Records only exist
	// below it.
	cursor int

	pos   Offset
	state State

	// ret is the Result Offset of the last morph stepped.
	ret Offset
}

// NewRuntime makes a Runtime that uses all of the given block.
func NewRuntime(raw []Word) *Runtime {
	rt := &Runtime{}
	rt.Init(raw, len(raw))
	return rt
}

// Init clears any existing state from the Runtime and binds it to
// the first size Words of raw.
func (rt *Runtime) Init(raw []Word, size int) {
	*rt = Runtime{
		raw: raw[:size:size],
		ret: NoValue,
	}
}

// Raw returns the arena itself.
func (rt *Runtime) Raw() []Word {
	return rt.raw
}

// Size is the capacity of the arena in Words.
func (rt *Runtime) Size() int {
	return len(rt.raw)
}

// Cursor is the Offset that the next allocation will get.
func (rt *Runtime) Cursor() Offset {
	return Offset(rt.cursor)
}

// Free is the number of unallocated Words.
func (rt *Runtime) Free() int {
	return len(rt.raw) - rt.cursor
}

// Pos is the current position.
func (rt *Runtime) Pos() Offset {
	return rt.pos
}

func (rt *Runtime) State() State {
	return rt.state
}

// Ret is the Offset of the value most recently produced by a step,
// or NoValue.
func (rt *Runtime) Ret() Offset {
	return rt.ret
}

// Load reads the Word at o.  Offsets are supposed to be issued by
// the Runtime, so an Offset outside the arena panics.
func (rt *Runtime) Load(o Offset) Word {
	if !rt.inBounds(o) {
		panic(&BadReference{At: o, Size: len(rt.raw)})
	}
	return rt.raw[o]
}

// Store writes the Word at o.  An Offset outside the arena panics.
func (rt *Runtime) Store(o Offset, w Word) {
	if !rt.inBounds(o) {
		panic(&BadReference{At: o, Size: len(rt.raw)})
	}
	rt.raw[o] = w
}

// CreateHalt adds a halt record.  Stepping onto it halts the
// Runtime with ret as the return value Offset.
func (rt *Runtime) CreateHalt(ret Offset) Result {
	if !rt.inBounds(ret) {
		return fault(Offset(rt.cursor), &BadReference{At: ret, Size: len(rt.raw)})
	}
	return rt.alloc([]Word{KindHalt, Word(ret)})
}

// Seek sets the position to the record at o.  The Runtime is then
// Running.  If no morph, rule, or halt starts at o, the result is a
// TotalityFault and nothing changes.
func (rt *Runtime) Seek(o Offset) Result {
	if rt.kindAt(o) == 0 {
		return fault(o, &NotARecord{o})
	}
	rt.pos = o
	rt.state = Running
	rt.ret = NoValue
	return ok(o)
}

// Step moves execution forward by one unit.
//
// A morph at the position is evaluated, its value is written to its
// Result Word, and the position moves to the next record (or to the
// target of a JMP).  A rule at the position is resolved to one of
// its morphs, which is then applied the same way.  On OK, Data is
// the new position.
//
// A halt record at the position halts with that record's return
// Offset.  A position where no record starts (past the end of the
// composition) halts with the Result Offset of the last morph
// stepped.
//
// If the record at the position is malformed, the result is a
// TotalityFault with the position as Data and nothing changes.  This
// runtime never allocates while stepping, so Step doesn't report
// MemLow.
func (rt *Runtime) Step() Result {
	switch rt.state {
	case NotStarted:
		return fault(rt.pos, NoPosition)
	case Halted:
		return halt(rt.ret)
	}

	at := rt.pos
	switch rt.kindAt(at) {
	case KindHalt:
		if int(at)+HaltSize > rt.cursor {
			return fault(at, &BadReference{At: at + 1, Size: rt.cursor})
		}
		ret := Offset(rt.raw[at+1])
		if !rt.inBounds(ret) {
			// The arena was remapped to a smaller block.
			return fault(at, &BadReference{At: ret, Size: len(rt.raw)})
		}
		rt.ret = ret
		rt.state = Halted
		return halt(rt.ret)

	case KindMorph:
		m, err := rt.Morph(at)
		if err != nil {
			return fault(at, err)
		}
		return rt.apply(m, at, at+Offset(MorphSize(m.Op)))

	case KindRule:
		r, err := rt.Rule(at)
		if err != nil {
			return fault(at, err)
		}
		target, err := rt.Resolve(r)
		if err != nil {
			return fault(at, err)
		}
		m, err := rt.Morph(target)
		if err != nil {
			return fault(at, err)
		}
		return rt.apply(m, at, at+Offset(RuleSize(len(r.Conds))))
	}

	// Went past the composition.
	rt.state = Halted
	return halt(rt.ret)
}

// Exec Steps until a Step reports something other than OK.  Since
// positions only move forward, that happens within Size() steps.
func (rt *Runtime) Exec() Result {
	for {
		if r := rt.Step(); r.Kind != OK {
			return r
		}
	}
}

// Remap moves the arena to the given block, which is typically
// larger.  The live part of the old arena is copied.  If the block
// can't hold what has been allocated, the result is MemLow and
// nothing changes.  On OK, Data is the new Size.
func (rt *Runtime) Remap(block []Word) Result {
	if len(block) < rt.cursor {
		return memLow(rt.cursor - len(block))
	}
	copy(block, rt.raw[:rt.cursor])
	rt.raw = block[:len(block):len(block)]
	return Result{Kind: OK, Data: len(block)}
}
