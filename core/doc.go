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

// Package core provides the bootstrap Morpha runtime: a tiny rewrite
// system that executes compositions built from morphs and rules over
// a single fixed arena of Words.
//
// A morph is the unit of execution.  It names an Operator and the
// operands that Operator consumes.  A rule is the unit of control
// flow.  It holds an ordered list of condition morphs and the morph
// to dispatch when that condition is true.  The last condition of
// every rule is Otherwise, so every rule has a default.
//
// Everything lives in the arena and everything is referred to by
// Offset.  To build a composition, Init a Runtime over a block, then
// use AllocateCell, CreateMorph, CreateRule, and CreateHalt.  Each of
// these returns a Result whose Data is the Offset of the new value.
// Seek to the Offset where execution should begin and then Step (or
// Exec, or Walk).
//
// Every fallible operation reports through Result.  A TotalityFault
// means the proposed value could make a composition run forever (or
// is otherwise malformed) and has been rejected.  A MemLow means the
// arena is too small; Data is the number of additional Words needed.
// In both cases the Runtime is unchanged, so the caller can Remap to
// a bigger block and retry.
//
// Control only moves forward: fall-through goes to the next record,
// and jumps must target a later Offset.  Consequently every
// composition that can be built halts within Size() steps.
//
// Arena layout:
//
//	cell   n o1 .. on
//	morph  KindMorph op modes a1 .. ak result
//	rule   KindRule n c0 .. cn-1 n m0 .. mn-1
//	halt   KindHalt ret
package core
