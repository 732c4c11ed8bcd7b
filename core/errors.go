package core

// These errors explain TotalityFaults.  They are carried in
// Result.Reason; they are never returned on their own.

import (
	"errors"
	"fmt"
)

// UnknownOperator occurs when a morph names an Operator outside the
// closed set.
type UnknownOperator struct {
	Op Operator
}

func (e *UnknownOperator) Error() string {
	return fmt.Sprintf("unknown operator %d", uint64(e.Op))
}

// ArityError occurs when a morph has the wrong number of operands
// for its Operator.
type ArityError struct {
	Op   Operator
	Want int
	Got  int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("%s takes %d operands, not %d", e.Op, e.Want, e.Got)
}

// LengthMismatch occurs when a rule's conditions and morphs differ in
// length.
type LengthMismatch struct {
	Conds  int
	Morphs int
}

func (e *LengthMismatch) Error() string {
	return fmt.Sprintf("rule has %d conditions but %d morphs", e.Conds, e.Morphs)
}

// MissingDefault occurs when the last condition of a rule isn't
// Otherwise.
type MissingDefault struct {
	Last Offset
}

func (e *MissingDefault) Error() string {
	return fmt.Sprintf("rule has no default: last condition is %d", e.Last)
}

// NotAMorph occurs when a rule refers to something that isn't a morph.
type NotAMorph struct {
	At Offset
}

func (e *NotAMorph) Error() string {
	return fmt.Sprintf("no morph at %d", e.At)
}

// NotARecord occurs when Seek is given an Offset where no morph,
// rule, or halt starts.
type NotARecord struct {
	At Offset
}

func (e *NotARecord) Error() string {
	return fmt.Sprintf("no morph, rule, or halt at %d", e.At)
}

// BackwardJump occurs when a jump would not move strictly forward.
// A backward jump could loop forever.
type BackwardJump struct {
	From   Offset
	Target Offset
}

func (e *BackwardJump) Error() string {
	return fmt.Sprintf("jump from %d to %d does not move forward", e.From, e.Target)
}

// BadReference occurs when an Offset falls outside the arena.
type BadReference struct {
	At   Offset
	Size int
}

func (e *BadReference) Error() string {
	return fmt.Sprintf("offset %d outside [0,%d)", e.At, e.Size)
}

var (
	// EmptyRule occurs when a rule has no branches at all.
	EmptyRule = errors.New("rule has no branches")

	// DynamicJump occurs when a JMP target is a reference.  Such
	// a target can't be checked until it's too late.
	DynamicJump = errors.New("JMP target must be immediate")

	// JumpCondition occurs when a rule uses a JMP as a condition.
	JumpCondition = errors.New("JMP cannot be a condition")

	// NoPosition occurs when Step is called before Seek.
	NoPosition = errors.New("runtime not started; Seek first")
)
