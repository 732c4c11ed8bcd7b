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

// Word is the unit of arena memory.
type Word uint64

// Offset is an index into the arena.  Offsets are stable for the
// lifetime of the arena.
type Offset int

const (
	// DefaultBlock is a reasonable arena size in Words: a 4k page.
	DefaultBlock = 0x200

	// Otherwise is the condition that is always true.  Every rule
	// must end with it.
	Otherwise Offset = -1

	// NoValue is the return Offset reported by a Halt when no
	// morph has produced a value.
	NoValue Offset = -1
)

// Record tags.  The high bytes spell "MPH", which keeps the tags far
// away from any cell length.  Plain cells are not tagged.
const (
	KindMorph Word = 0x4d50480000000001 + iota
	KindRule
	KindHalt
)

// CellSize is the number of Words needed to encode a cell of n
// offsets.
func CellSize(n int) int {
	return n + 1
}

// HaltSize is the number of Words in a halt record.
const HaltSize = 2

func (rt *Runtime) inBounds(o Offset) bool {
	return 0 <= o && int(o) < len(rt.raw)
}

// kindAt returns the record tag at o or zero if no record starts
// there.
func (rt *Runtime) kindAt(o Offset) Word {
	if o < 0 || rt.cursor <= int(o) {
		return 0
	}
	switch w := rt.raw[o]; w {
	case KindMorph, KindRule, KindHalt:
		return w
	}
	return 0
}

// alloc writes ws at the cursor and returns their Offset.
//
// Allocation is all or nothing: if ws doesn't fit, the arena and the
// cursor are untouched and the result is MemLow with the shortfall.
func (rt *Runtime) alloc(ws []Word) Result {
	need := rt.cursor + len(ws)
	if len(rt.raw) < need {
		return memLow(need - len(rt.raw))
	}
	at := rt.cursor
	copy(rt.raw[at:need], ws)
	rt.cursor = need
	return ok(Offset(at))
}

// AllocateCell writes the given offsets as a cell.
func (rt *Runtime) AllocateCell(offsets []Offset) Result {
	return rt.alloc(appendCell(make([]Word, 0, CellSize(len(offsets))), offsets))
}

func appendCell(ws []Word, offsets []Offset) []Word {
	ws = append(ws, Word(len(offsets)))
	for _, o := range offsets {
		ws = append(ws, Word(o))
	}
	return ws
}

// Cell decodes the cell at the given Offset.
//
// Nothing marks a span of Words as a cell, so the caller should know
// that a cell lives there.  An error is returned only if the encoded
// length runs off the end of the allocated arena.
func (rt *Runtime) Cell(at Offset) ([]Offset, error) {
	if at < 0 || rt.cursor <= int(at) {
		return nil, &BadReference{At: at, Size: rt.cursor}
	}
	n := rt.raw[at]
	if Word(rt.cursor-int(at)-1) < n {
		return nil, &BadReference{At: at + Offset(n), Size: rt.cursor}
	}
	acc := make([]Offset, n)
	for i := range acc {
		acc[i] = Offset(rt.raw[int(at)+1+i])
	}
	return acc, nil
}
