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
	"io"
	"sort"
	"strings"

	"github.com/Comcast/morpha/core"
)

// Line is one allocation in a listing.
type Line struct {
	core.Span

	// Name is the name (if any) of the allocation.
	Name string `json:"name,omitempty" yaml:",omitempty"`

	// Text is a readable rendering of the allocation.
	Text string `json:"text"`
}

// Labels inverts a map from names to Offsets.  When more than one
// name has the same Offset, the first in lexical order wins.
func Labels(names map[string]core.Offset) map[core.Offset]string {
	acc := make(map[core.Offset]string, len(names))
	for name, o := range names {
		if have, already := acc[o]; already && have < name {
			continue
		}
		acc[o] = name
	}
	return acc
}

func label(labels map[core.Offset]string, o core.Offset) string {
	if o == core.Otherwise {
		return "_"
	}
	if name, have := labels[o]; have {
		return name
	}
	return fmt.Sprintf("%d", o)
}

// Listing disassembles the arena.
func Listing(rt *core.Runtime, names map[string]core.Offset) ([]*Line, error) {
	spans, err := rt.Scan()
	labels := Labels(names)
	acc := make([]*Line, 0, len(spans))
	for _, s := range spans {
		acc = append(acc, &Line{
			Span: s,
			Name: labels[s.At],
			Text: describe(rt, s, labels),
		})
	}
	return acc, err
}

func describe(rt *core.Runtime, s core.Span, labels map[core.Offset]string) string {
	switch s.Kind {
	case core.KindMorph:
		m, err := rt.Morph(s.At)
		if err != nil {
			return "MORPH? " + err.Error()
		}
		return fmt.Sprintf("%s -> %d", m, m.Result)

	case core.KindRule:
		r, err := rt.Rule(s.At)
		if err != nil {
			return "RULE? " + err.Error()
		}
		branches := make([]string, len(r.Conds))
		for i, c := range r.Conds {
			branches[i] = label(labels, c) + " => " + label(labels, r.Morphs[i])
		}
		return "RULE " + strings.Join(branches, ", ")

	case core.KindHalt:
		return fmt.Sprintf("HALT @%d", rt.Load(s.At+1))
	}

	offsets, err := rt.Cell(s.At)
	if err != nil {
		return "CELL? " + err.Error()
	}
	acc := "CELL"
	for _, o := range offsets {
		acc += fmt.Sprintf(" %d", o)
	}
	return acc
}

// WriteListing writes the lines in a column format.
func WriteListing(w io.Writer, lines []*Line) error {
	width := 0
	for _, l := range lines {
		if width < len(l.Name) {
			width = len(l.Name)
		}
	}
	for _, l := range lines {
		name := l.Name
		if name != "" {
			name += ":"
		}
		if _, err := fmt.Fprintf(w, "%04d %-*s %s\n", l.At, width+1, name, l.Text); err != nil {
			return err
		}
	}
	return nil
}

// SortedNames returns the names in Offset order.
func SortedNames(names map[string]core.Offset) []string {
	acc := make([]string, 0, len(names))
	for name := range names {
		acc = append(acc, name)
	}
	sort.Slice(acc, func(i, j int) bool {
		if names[acc[i]] == names[acc[j]] {
			return acc[i] < acc[j]
		}
		return names[acc[i]] < names[acc[j]]
	})
	return acc
}
