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

// Distance builds a composition that computes |a - b| and returns
// the Offset where execution should start.  When the composition
// halts, the return Offset holds the distance.
//
// The composition is useful to have around.  It uses every kind of
// record except a halt:
//
//	cmp:  CMP a b
//	      JMP rule
//	ng:   SUB @cmp 1          nonzero unless a > b
//	ba:   SUB b a
//	ab:   SUB a b
//	rule: ng => ba, _ => ab
//
// Since a morph's Result Word holds its value after it's stepped,
// morphs double as variables.
func Distance(rt *Runtime, a, b Word) (Offset, error) {
	var (
		cmp  = rt.Cursor()
		jmp  = cmp + Offset(MorphSize(OpCmp))
		ng   = jmp + Offset(MorphSize(OpJmp))
		ba   = ng + Offset(MorphSize(OpSub))
		ab   = ba + Offset(MorphSize(OpSub))
		rule = ab + Offset(MorphSize(OpSub))
	)

	if need := int(rule-cmp) + RuleSize(2); rt.Free() < need {
		return cmp, memLow(need - rt.Free()).Err()
	}

	steps := []func() Result{
		func() Result { return rt.CreateMorph(OpCmp, Imm(a), Imm(b)) },
		func() Result { return rt.CreateMorph(OpJmp, Imm(Word(rule))) },
		func() Result { return rt.CreateMorph(OpSub, Ref(cmp+Offset(MorphSize(OpCmp))-1), Imm(1)) },
		func() Result { return rt.CreateMorph(OpSub, Imm(b), Imm(a)) },
		func() Result { return rt.CreateMorph(OpSub, Imm(a), Imm(b)) },
		func() Result { return rt.CreateRule([]Offset{ng, Otherwise}, []Offset{ba, ab}) },
	}
	for _, step := range steps {
		if r := step(); r.Kind != OK {
			return cmp, r.Err()
		}
	}

	return cmp, nil
}
