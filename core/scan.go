package core

import (
	"fmt"
)

// Span is an allocation found by Scan.
type Span struct {
	At Offset `json:"at"`

	// Kind is the record tag or zero for a cell.
	Kind Word `json:"kind,omitempty" yaml:",omitempty"`

	// Size is the number of Words in the allocation.
	Size int `json:"size"`
}

// KindName returns "morph", "rule", "halt", or "cell".
func (s Span) KindName() string {
	return KindName(s.Kind)
}

// KindName returns a short name for a record tag.  Anything that
// isn't a tag is a "cell".
func KindName(k Word) string {
	switch k {
	case KindMorph:
		return "morph"
	case KindRule:
		return "rule"
	case KindHalt:
		return "halt"
	}
	return "cell"
}

// KindAt returns the record tag at o or zero if no morph, rule, or
// halt starts there.
func (rt *Runtime) KindAt(o Offset) Word {
	return rt.kindAt(o)
}

// SizeAt returns the size of the allocation starting at o.
//
// A Word that isn't a record tag is taken to be a cell length.
func (rt *Runtime) SizeAt(o Offset) (int, error) {
	if o < 0 || rt.cursor <= int(o) {
		return 0, &BadReference{At: o, Size: rt.cursor}
	}
	var n int
	switch rt.raw[o] {
	case KindMorph:
		if rt.cursor <= int(o)+1 {
			return 0, &BadReference{At: o + 1, Size: rt.cursor}
		}
		op := Operator(rt.raw[o+1])
		if !op.Valid() {
			return 0, &UnknownOperator{op}
		}
		n = MorphSize(op)
	case KindRule:
		first := o + 1
		if rt.cursor <= int(first) {
			return 0, &BadReference{At: first, Size: rt.cursor}
		}
		second := first + Offset(CellSize(int(rt.raw[first])))
		if second < first || rt.cursor <= int(second) {
			return 0, &BadReference{At: second, Size: rt.cursor}
		}
		n = 1 + CellSize(int(rt.raw[first])) + CellSize(int(rt.raw[second]))
	case KindHalt:
		n = HaltSize
	default:
		if Word(rt.cursor-int(o)-1) < rt.raw[o] {
			return 0, &BadReference{At: o, Size: rt.cursor}
		}
		n = CellSize(int(rt.raw[o]))
	}
	if n <= 0 || rt.cursor < int(o)+n {
		return 0, &BadReference{At: o + Offset(n), Size: rt.cursor}
	}
	return n, nil
}

// Scan lists the allocations from the start of the arena to the
// cursor.
//
// Allocations are contiguous, so Scan can find every one of them as
// long as nothing has been overwritten by Store.  If a length runs
// past the cursor, Scan returns what it found so far along with an
// error.
func (rt *Runtime) Scan() ([]Span, error) {
	acc := make([]Span, 0, 32)
	for o := Offset(0); int(o) < rt.cursor; {
		n, err := rt.SizeAt(o)
		if err != nil {
			return acc, fmt.Errorf("scan at %d: %w", o, err)
		}
		acc = append(acc, Span{
			At:   o,
			Kind: rt.kindAt(o),
			Size: n,
		})
		o += Offset(n)
	}
	return acc, nil
}
