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

// Rule is a decoded rule: the basic unit of control flow.
//
// Conditions are evaluated in order until one is true (nonzero).
// The morph paired with that condition is the one that's dispatched.
// The last condition is always Otherwise, which is the default.
//
// In pseudocode,
//
//	{
//	  gt{a, 0} => f1(a)
//	  _        => g(a)
//	}
//
// is a Rule with Conds [gt, Otherwise] and Morphs [f1, g].
type Rule struct {
	At     Offset   `json:"at"`
	Conds  []Offset `json:"conds"`
	Morphs []Offset `json:"morphs"`
}

// RuleSize is the number of Words in a rule with n branches
// (including the default).
func RuleSize(n int) int {
	return 1 + 2*CellSize(n)
}

// CreateRule adds a rule to the Runtime.  The two slices must have
// the same positive length, and the last condition must be
// Otherwise.
//
// Conditions must be value-producing morphs (not JMP).  Morphs must
// be morphs, and a JMP among them must target an Offset past the new
// rule.  Violations are TotalityFaults.  On success, Data is the
// Offset of the new rule.
func (rt *Runtime) CreateRule(conds, morphs []Offset) Result {
	at := Offset(rt.cursor)
	if err := rt.checkRule(at, conds, morphs); err != nil {
		return fault(at, err)
	}

	ws := make([]Word, 0, RuleSize(len(conds)))
	ws = append(ws, KindRule)
	ws = appendCell(ws, conds)
	ws = appendCell(ws, morphs)

	return rt.alloc(ws)
}

func (rt *Runtime) checkRule(at Offset, conds, morphs []Offset) error {
	if len(conds) != len(morphs) {
		return &LengthMismatch{Conds: len(conds), Morphs: len(morphs)}
	}
	if len(conds) == 0 {
		return EmptyRule
	}
	if last := conds[len(conds)-1]; last != Otherwise {
		return &MissingDefault{last}
	}
	for _, c := range conds {
		if c == Otherwise {
			continue
		}
		m, err := rt.Morph(c)
		if err != nil {
			return err
		}
		if !operators[m.Op].cond {
			return JumpCondition
		}
	}
	for _, o := range morphs {
		m, err := rt.Morph(o)
		if err != nil {
			return err
		}
		if m.Op == OpJmp {
			if target := Offset(m.Operands[0].Value); target <= at {
				return &BackwardJump{From: at, Target: target}
			}
		}
	}
	return nil
}

// Rule decodes the rule at the given Offset.
func (rt *Runtime) Rule(at Offset) (*Rule, error) {
	if rt.kindAt(at) != KindRule {
		return nil, &NotARecord{at}
	}
	conds, err := rt.Cell(at + 1)
	if err != nil {
		return nil, err
	}
	morphs, err := rt.Cell(at + 1 + Offset(CellSize(len(conds))))
	if err != nil {
		return nil, err
	}
	if len(conds) != len(morphs) {
		return nil, &LengthMismatch{Conds: len(conds), Morphs: len(morphs)}
	}
	return &Rule{
		At:     at,
		Conds:  conds,
		Morphs: morphs,
	}, nil
}

// Resolve determines which morph the rule dispatches to given the
// current arena.  It never writes to the arena.
func (rt *Runtime) Resolve(r *Rule) (Offset, error) {
	for i, c := range r.Conds {
		if c == Otherwise {
			return r.Morphs[i], nil
		}
		m, err := rt.Morph(c)
		if err != nil {
			return 0, err
		}
		v, err := rt.eval(m)
		if err != nil {
			return 0, err
		}
		if v != 0 {
			return r.Morphs[i], nil
		}
	}
	// Every Rule built by CreateRule ends with Otherwise, so we
	// only get here if somebody Stored over it.
	if len(r.Conds) == 0 {
		return 0, EmptyRule
	}
	return 0, &MissingDefault{r.Conds[len(r.Conds)-1]}
}
