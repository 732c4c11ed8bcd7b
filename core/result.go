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
	"encoding/json"
	"errors"
	"fmt"
)

// ResultKind is the closed set of outcomes of a Runtime operation.
type ResultKind int

const (
	// OK indicates expected state.  Data is operation-specific,
	// usually the Offset of a new value or the new position.
	OK ResultKind = iota

	// Halt indicates that the composition has finished.  Data is
	// the Offset of the return value (or NoValue).
	Halt

	// TotalityFault indicates that a morph or rule would make a
	// composition non-total or is otherwise malformed.  Data is
	// the Offset of the offender.  The Runtime is unchanged.
	TotalityFault

	// MemLow indicates insufficient arena space.  Data is the
	// number of additional Words required.  The Runtime is
	// unchanged.
	MemLow
)

func (k ResultKind) String() string {
	switch k {
	case OK:
		return "OK"
	case Halt:
		return "HALT"
	case TotalityFault:
		return "TOTALITY_FAULT"
	case MemLow:
		return "MEM_LOW"
	}
	return fmt.Sprintf("ResultKind(%d)", int(k))
}

// ParseResultKind is the inverse of ResultKind.String.
func ParseResultKind(s string) (ResultKind, error) {
	for k := OK; k <= MemLow; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown result kind '%s'", s)
}

// Result is the single channel through which every fallible
// operation reports.
type Result struct {
	Kind ResultKind
	Data int

	// Reason explains a TotalityFault.
	Reason error
}

func ok(o Offset) Result {
	return Result{Kind: OK, Data: int(o)}
}

func halt(ret Offset) Result {
	return Result{Kind: Halt, Data: int(ret)}
}

func fault(o Offset, reason error) Result {
	return Result{Kind: TotalityFault, Data: int(o), Reason: reason}
}

func memLow(words int) Result {
	return Result{Kind: MemLow, Data: words}
}

// Offset returns Data as an Offset.
func (r Result) Offset() Offset {
	return Offset(r.Data)
}

// Err returns nil for OK and Halt and a *ResultError otherwise.
func (r Result) Err() error {
	switch r.Kind {
	case OK, Halt:
		return nil
	}
	return &ResultError{r}
}

func (r Result) String() string {
	if r.Reason != nil {
		return fmt.Sprintf("%s(%d): %s", r.Kind, r.Data, r.Reason)
	}
	return fmt.Sprintf("%s(%d)", r.Kind, r.Data)
}

func (r Result) MarshalJSON() ([]byte, error) {
	m := map[string]interface{}{
		"kind": r.Kind.String(),
		"data": r.Data,
	}
	if r.Reason != nil {
		m["reason"] = r.Reason.Error()
	}
	return json.Marshal(m)
}

// UnmarshalJSON reads what MarshalJSON writes.  A reason comes back
// as a plain error.
func (r *Result) UnmarshalJSON(bs []byte) error {
	var x struct {
		Kind   string `json:"kind"`
		Data   int    `json:"data"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(bs, &x); err != nil {
		return err
	}
	k, err := ParseResultKind(x.Kind)
	if err != nil {
		return err
	}
	*r = Result{Kind: k, Data: x.Data}
	if x.Reason != "" {
		r.Reason = errors.New(x.Reason)
	}
	return nil
}

// ResultError wraps a TotalityFault or MemLow Result for code that
// wants an error.
type ResultError struct {
	Result Result
}

func (e *ResultError) Error() string {
	return e.Result.String()
}

func (e *ResultError) Unwrap() error {
	return e.Result.Reason
}
