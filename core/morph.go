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

// Morph is a decoded morph: the basic unit of execution.
type Morph struct {
	// At is the Offset of the morph record.
	At Offset `json:"at"`

	Op       Operator  `json:"op"`
	Operands []Operand `json:"operands"`

	// Result is the Offset of the Word that receives the morph's
	// value when the morph is stepped.
	Result Offset `json:"result"`
}

// MorphSize is the number of Words in a morph with the given
// Operator, or zero for an invalid Operator.
func MorphSize(op Operator) int {
	if !op.Valid() {
		return 0
	}
	return 4 + op.Arity()
}

// CreateMorph adds a morph to the Runtime.
//
// On success, Data is the Offset of the new morph.  A wrong operand
// count, an unknown Operator, a reference outside the arena, or a
// jump that doesn't move forward is a TotalityFault.  If the morph
// doesn't fit, the result is MemLow.
func (rt *Runtime) CreateMorph(op Operator, operands ...Operand) Result {
	at := Offset(rt.cursor)
	if err := rt.checkMorph(at, op, operands); err != nil {
		return fault(at, err)
	}

	var modes Word
	ws := make([]Word, 0, MorphSize(op))
	ws = append(ws, KindMorph, Word(op), 0)
	for i, a := range operands {
		if a.Ref {
			modes |= 1 << uint(i)
		}
		ws = append(ws, a.Value)
	}
	ws[2] = modes
	ws = append(ws, 0) // Result

	return rt.alloc(ws)
}

func (rt *Runtime) checkMorph(at Offset, op Operator, operands []Operand) error {
	if !op.Valid() {
		return &UnknownOperator{op}
	}
	if n := op.Arity(); n != len(operands) {
		return &ArityError{Op: op, Want: n, Got: len(operands)}
	}
	for _, a := range operands {
		if a.Ref && Word(len(rt.raw)) <= a.Value {
			return &BadReference{At: Offset(a.Value), Size: len(rt.raw)}
		}
	}
	if op == OpJmp {
		if operands[0].Ref {
			return DynamicJump
		}
		if target := Offset(operands[0].Value); target <= at {
			return &BackwardJump{From: at, Target: target}
		}
	}
	return nil
}

// Morph decodes the morph at the given Offset.
func (rt *Runtime) Morph(at Offset) (*Morph, error) {
	if rt.kindAt(at) != KindMorph {
		return nil, &NotAMorph{at}
	}
	if rt.cursor < int(at)+3 {
		return nil, &BadReference{At: at + 3, Size: rt.cursor}
	}
	op := Operator(rt.raw[at+1])
	if !op.Valid() {
		return nil, &UnknownOperator{op}
	}
	end := int(at) + MorphSize(op)
	if rt.cursor < end {
		return nil, &BadReference{At: Offset(end), Size: rt.cursor}
	}
	modes := rt.raw[at+2]
	m := &Morph{
		At:       at,
		Op:       op,
		Operands: make([]Operand, op.Arity()),
		Result:   Offset(end - 1),
	}
	for i := range m.Operands {
		m.Operands[i] = Operand{
			Value: rt.raw[int(at)+3+i],
			Ref:   modes&(1<<uint(i)) != 0,
		}
	}
	return m, nil
}

// Eval computes the value the morph would have if it were stepped
// now.  Nothing is written.
func (rt *Runtime) Eval(m *Morph) (Word, error) {
	return rt.eval(m)
}

// Constant reports whether the morph's value doesn't depend on the
// arena.
func (m *Morph) Constant() bool {
	if m.Op == OpOffset {
		return false
	}
	for _, a := range m.Operands {
		if a.Ref {
			return false
		}
	}
	return true
}

func (m *Morph) String() string {
	acc := m.Op.String()
	for _, a := range m.Operands {
		acc += " " + a.String()
	}
	return acc
}

// eval computes the value of the morph without writing anything.
func (rt *Runtime) eval(m *Morph) (Word, error) {
	var args [2]Word
	for i, a := range m.Operands {
		if !a.Ref {
			args[i] = a.Value
			continue
		}
		if Word(len(rt.raw)) <= a.Value {
			return 0, &BadReference{At: Offset(a.Value), Size: len(rt.raw)}
		}
		args[i] = rt.raw[a.Value]
	}
	v, ok := operators[m.Op].eval(rt.raw, args[:len(m.Operands)])
	if !ok {
		return 0, &BadReference{At: Offset(args[0]), Size: len(rt.raw)}
	}
	return v, nil
}

// apply evaluates the morph on behalf of the record at from, writes
// the value to the morph's Result, and moves to next (or the jump
// target).  Nothing changes if the evaluation fails.
func (rt *Runtime) apply(m *Morph, from, next Offset) Result {
	v, err := rt.eval(m)
	if err != nil {
		return fault(from, err)
	}
	if m.Op == OpJmp {
		next = Offset(v)
		if next <= from {
			return fault(from, &BackwardJump{From: from, Target: next})
		}
	}
	rt.raw[m.Result] = v
	rt.ret = m.Result
	rt.pos = next
	return ok(next)
}
