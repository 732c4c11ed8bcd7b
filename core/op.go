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
	"strings"
)

// Operator is a fundamental Morpha operator.
//
// Operators consume the operand Words that follow them in a morph.
// For example, OpOffset consumes one operand and OpAdd consumes two.
type Operator Word

const (
	// OpSub evaluates to the difference of its two operands
	// (modulo 2^64).
	OpSub Operator = iota

	// OpAdd evaluates to the sum of its two operands (modulo
	// 2^64).
	OpAdd

	// OpCmp compares its operands as unsigned Words.  The value
	// is 0 when they are equal, 1 when the first is greater, and
	// all ones (-1 as a signed Word) when the first is less.
	OpCmp

	// OpJmp moves the position to its operand, which must be an
	// immediate Offset past the jump.  Its value is the target.
	OpJmp

	// OpOffset recalls the Word stored at its operand,
	// interpreted as an Offset from zero.
	OpOffset

	numOperators
)

// operator is an entry in the dispatch table.
type operator struct {
	name  string
	arity int

	// cond is true when the operator can serve as a rule
	// condition.
	cond bool

	// eval computes the value.  The second return value is false
	// if the operator touched memory outside the arena.
	eval func(raw []Word, args []Word) (Word, bool)
}

var operators = [numOperators]operator{
	OpSub: {
		name:  "SUB",
		arity: 2,
		cond:  true,
		eval: func(_ []Word, args []Word) (Word, bool) {
			return args[0] - args[1], true
		},
	},
	OpAdd: {
		name:  "ADD",
		arity: 2,
		cond:  true,
		eval: func(_ []Word, args []Word) (Word, bool) {
			return args[0] + args[1], true
		},
	},
	OpCmp: {
		name:  "CMP",
		arity: 2,
		cond:  true,
		eval: func(_ []Word, args []Word) (Word, bool) {
			switch {
			case args[0] < args[1]:
				return ^Word(0), true
			case args[0] > args[1]:
				return 1, true
			}
			return 0, true
		},
	},
	OpJmp: {
		name:  "JMP",
		arity: 1,
		eval: func(_ []Word, args []Word) (Word, bool) {
			return args[0], true
		},
	},
	OpOffset: {
		name:  "OFFSET",
		arity: 1,
		cond:  true,
		eval: func(raw []Word, args []Word) (Word, bool) {
			if Word(len(raw)) <= args[0] {
				return 0, false
			}
			return raw[args[0]], true
		},
	},
}

// Valid reports whether the Operator is one of the closed set.
func (op Operator) Valid() bool {
	return op < numOperators
}

// Arity is the number of operands the Operator consumes, or -1 for
// an invalid Operator.
func (op Operator) Arity() int {
	if !op.Valid() {
		return -1
	}
	return operators[op].arity
}

func (op Operator) String() string {
	if !op.Valid() {
		return fmt.Sprintf("Operator(%d)", uint64(op))
	}
	return operators[op].name
}

// Operators returns every Operator in tag order.
func Operators() []Operator {
	acc := make([]Operator, numOperators)
	for i := range acc {
		acc[i] = Operator(i)
	}
	return acc
}

// ParseOperator finds the Operator with the given name (case
// insensitive).
func ParseOperator(s string) (Operator, error) {
	for i, o := range operators {
		if strings.EqualFold(o.name, s) {
			return Operator(i), nil
		}
	}
	return 0, fmt.Errorf("unknown operator '%s'", s)
}

// Operand is a morph argument.  An immediate Operand is used as is.
// A reference Operand names the Offset of a Word that is read when
// the morph is evaluated.
type Operand struct {
	Value Word `json:"value"`
	Ref   bool `json:"ref,omitempty" yaml:",omitempty"`
}

// Imm makes an immediate Operand.
func Imm(v Word) Operand {
	return Operand{Value: v}
}

// Ref makes a reference Operand.
func Ref(o Offset) Operand {
	return Operand{Value: Word(o), Ref: true}
}

func (a Operand) String() string {
	if a.Ref {
		return fmt.Sprintf("@%d", a.Value)
	}
	return fmt.Sprintf("%d", a.Value)
}
