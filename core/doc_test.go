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

// Example demonstrates building and running a composition.
func Example() {
	rt := NewRuntime(make([]Word, DefaultBlock))

	add := rt.CreateMorph(OpAdd, Imm(3), Imm(4))
	fmt.Println(add)

	rt.Seek(add.Offset())
	fmt.Println(rt.Step())

	r := rt.Step()
	fmt.Println(r, rt.Load(r.Offset()))

	fmt.Println(rt.CreateMorph(OpAdd, Imm(1)))

	// Output:
	// OK(0)
	// OK(6)
	// HALT(5) 7
	// TOTALITY_FAULT(6): ADD takes 2 operands, not 1
}

func ExampleDistance() {
	rt := NewRuntime(make([]Word, DefaultBlock))

	entry, err := Distance(rt, 3, 10)
	if err != nil {
		panic(err)
	}
	rt.Seek(entry)

	r := rt.Exec()
	fmt.Println(r.Kind, rt.Load(r.Offset()))

	// Output:
	// HALT 7
}
