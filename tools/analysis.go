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

package tools

import (
	"fmt"
	"sort"

	"github.com/Comcast/morpha/core"

	"gopkg.in/yaml.v2"
)

// Analysis is a static report on a composition.
type Analysis struct {
	Errors []string `json:"errors,omitempty" yaml:",omitempty"`

	Cells     int            `json:"cells"`
	Morphs    int            `json:"morphs"`
	Rules     int            `json:"rules"`
	Halts     int            `json:"halts"`
	Branches  int            `json:"branches"`
	Jumps     int            `json:"jumps"`
	Operators map[string]int `json:"operators"`

	// Entry is where the reachability analysis started.
	Entry core.Offset `json:"entry"`

	// Reachable is the set of positions that stepping from Entry
	// could visit, in order.
	Reachable []core.Offset `json:"reachable"`

	// MaxSteps bounds the number of Steps from Entry through the
	// Step that halts.  Since every step moves forward, no
	// position is visited twice.
	MaxSteps int `json:"maxSteps"`

	// Orphans are records that are neither reachable nor named by
	// any rule.
	Orphans []core.Offset `json:"orphans,omitempty" yaml:",omitempty"`

	// Shadowed describes rule branches that can never be taken.
	Shadowed []string `json:"shadowed,omitempty" yaml:",omitempty"`

	// Dead describes rule branches whose conditions are always
	// false.
	Dead []string `json:"dead,omitempty" yaml:",omitempty"`
}

// Analyze looks at every allocation in the arena and follows the
// control flow from the given entry.  Names are only used to make
// the report readable.
func Analyze(rt *core.Runtime, entry core.Offset, names map[string]core.Offset) (*Analysis, error) {
	a := &Analysis{
		Entry:     entry,
		Operators: make(map[string]int),
		Errors:    make([]string, 0, 8),
	}
	labels := Labels(names)

	spans, err := rt.Scan()
	if err != nil {
		a.Errors = append(a.Errors, err.Error())
	}

	var (
		successors = make(map[core.Offset][]core.Offset, len(spans))
		dispatched = make(map[core.Offset]bool)
	)

	for _, s := range spans {
		next := s.At + core.Offset(s.Size)
		switch s.Kind {
		case 0:
			a.Cells++

		case core.KindHalt:
			a.Halts++

		case core.KindMorph:
			a.Morphs++
			m, err := rt.Morph(s.At)
			if err != nil {
				a.Errors = append(a.Errors, fmt.Sprintf("morph at %d: %s", s.At, err))
				continue
			}
			a.Operators[m.Op.String()]++
			if m.Op == core.OpJmp {
				a.Jumps++
				next = core.Offset(m.Operands[0].Value)
			}
			successors[s.At] = []core.Offset{next}

		case core.KindRule:
			a.Rules++
			r, err := rt.Rule(s.At)
			if err != nil {
				a.Errors = append(a.Errors, fmt.Sprintf("rule at %d: %s", s.At, err))
				continue
			}
			a.Branches += len(r.Conds)

			taken := branches(rt, r, a, labels)
			for i, o := range r.Morphs {
				dispatched[o] = true
				if r.Conds[i] != core.Otherwise {
					dispatched[r.Conds[i]] = true
				}
				if !taken[i] {
					continue
				}
				target := next
				if m, err := rt.Morph(o); err == nil && m.Op == core.OpJmp {
					target = core.Offset(m.Operands[0].Value)
				}
				successors[s.At] = append(successors[s.At], target)
			}
		}
	}

	// Every edge goes forward, so one ordered pass finds
	// everything reachable.
	reached := map[core.Offset]bool{entry: true}
	for _, s := range spans {
		if !reached[s.At] || s.Kind == 0 {
			continue
		}
		a.Reachable = append(a.Reachable, s.At)
		if s.Kind != core.KindHalt {
			a.MaxSteps++
		}
		for _, o := range successors[s.At] {
			reached[o] = true
		}
	}
	if rt.KindAt(entry) == 0 {
		a.Errors = append(a.Errors, fmt.Sprintf("entry %d is not a record", entry))
	}
	a.MaxSteps++

	for _, s := range spans {
		if s.Kind == 0 || reached[s.At] || dispatched[s.At] {
			continue
		}
		a.Orphans = append(a.Orphans, s.At)
	}

	sort.Strings(a.Shadowed)
	sort.Strings(a.Dead)

	return a, nil
}

// branches reports which branches of the rule could be taken.
//
// A branch after an Otherwise, or after a condition that's always
// true, is shadowed.  A condition that's always false is dead.
func branches(rt *core.Runtime, r *core.Rule, a *Analysis, labels map[core.Offset]string) []bool {
	taken := make([]bool, len(r.Conds))
	shadowed := false
	for i, c := range r.Conds {
		where := fmt.Sprintf("rule %s branch %d", label(labels, r.At), i)
		if shadowed {
			a.Shadowed = append(a.Shadowed, where)
			continue
		}
		taken[i] = true
		if c == core.Otherwise {
			shadowed = true
			continue
		}
		m, err := rt.Morph(c)
		if err != nil || !m.Constant() {
			continue
		}
		v, err := rt.Eval(m)
		if err != nil {
			continue
		}
		if v == 0 {
			a.Dead = append(a.Dead, where)
			taken[i] = false
		} else {
			shadowed = true
		}
	}
	return taken
}

// YAML renders the Analysis.
func (a *Analysis) YAML() ([]byte, error) {
	return yaml.Marshal(a)
}
