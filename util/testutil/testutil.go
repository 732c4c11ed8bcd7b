/* Copyright 2018 Comcast Cable Communications Management, LLC
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

// Package testutil has a few helpers for tests and debugging tools.
package testutil

import (
	"encoding/json"
	"fmt"
	"log"
	"testing"

	"github.com/Comcast/morpha/comp"
	"github.com/Comcast/morpha/core"
)

// JS renders its argument as JSON or as a string indicating an error.
func JS(x interface{}) string {
	bs, err := json.Marshal(&x)
	if err != nil {
		log.Printf("warning: testutil.JS error %s for %#v", err, x)
		return fmt.Sprintf("%#v", x)
	}
	return string(bs)
}

// Load reads and assembles the composition in the given file.  The
// Runtime is positioned at the composition's entry.
func Load(t testing.TB, filename string, size int) (*core.Runtime, *comp.Layout) {
	t.Helper()
	c, err := comp.ReadFile(filename)
	if err != nil {
		t.Fatal(err)
	}
	rt, l, err := comp.Load(c, size)
	if err != nil {
		t.Fatal(err)
	}
	return rt, l
}

// Value Execs the Runtime, which must halt with a return value, and
// returns that value.
func Value(t testing.TB, rt *core.Runtime) core.Word {
	t.Helper()
	r := rt.Exec()
	if r.Kind != core.Halt {
		t.Fatalf("expected a halt, not %s", r)
	}
	if r.Offset() == core.NoValue {
		t.Fatalf("halted without a value")
	}
	return rt.Load(r.Offset())
}
