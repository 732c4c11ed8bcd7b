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

package tools

import (
	"fmt"
	"io"
	"strings"

	"github.com/Comcast/morpha/core"
	"github.com/Comcast/morpha/util"
)

type MermaidOpts struct {
	// ShowText will result in node labels that include the
	// disassembled record.
	ShowText bool `json:"showText"`

	// RuleFill is the fill color of for rule nodes.  Does not
	// apply if RuleClass is set.
	RuleFill string `json:"ruleFill,omitempty"`

	// RuleClass will be the CSS class for rule nodes.
	RuleClass string `json:"ruleClass,omitempty"`
}

// Mermaid makes a Mermaid (https://mermaidjs.github.io/) input file
// for the control flow of the given arena.
func Mermaid(rt *core.Runtime, names map[string]core.Offset, w io.WriteCloser, opts *MermaidOpts) error {
	if opts == nil {
		opts = &MermaidOpts{
			ShowText: true,
			RuleFill: "#bcf2db",
		}
	}

	lines, err := Listing(rt, names)
	if err != nil {
		return err
	}
	labels := Labels(names)

	util.Logf("mermaid processing %d allocations", len(lines))

	fmt.Fprintf(w, "graph TB\n")

	nid := func(o core.Offset) string {
		if rt.KindAt(o) == 0 {
			return "end"
		}
		return fmt.Sprintf("n%d", o)
	}

	for _, l := range lines {
		if l.Kind == 0 {
			continue
		}
		text := label(labels, l.At)
		if opts.ShowText {
			text += ": " + strings.Replace(l.Text, `"`, `'`, -1)
		}
		switch l.Kind {
		case core.KindRule:
			fmt.Fprintf(w, "  %s{\"%s\"}\n", nid(l.At), text)
			if opts.RuleClass != "" {
				fmt.Fprintf(w, "  class %s %s\n", nid(l.At), opts.RuleClass)
			} else if opts.RuleFill != "" {
				fmt.Fprintf(w, "  style %s fill:%s\n", nid(l.At), opts.RuleFill)
			}
		case core.KindHalt:
			fmt.Fprintf(w, "  %s((\"%s\"))\n", nid(l.At), text)
		default:
			fmt.Fprintf(w, "  %s[\"%s\"]\n", nid(l.At), text)
		}

		next := l.At + core.Offset(l.Size)
		switch l.Kind {
		case core.KindMorph:
			if m, err := rt.Morph(l.At); err == nil && m.Op == core.OpJmp {
				fmt.Fprintf(w, "  %s ==> %s\n", nid(l.At), nid(core.Offset(m.Operands[0].Value)))
			} else {
				fmt.Fprintf(w, "  %s --> %s\n", nid(l.At), nid(next))
			}
		case core.KindRule:
			r, err := rt.Rule(l.At)
			if err != nil {
				return err
			}
			for i, c := range r.Conds {
				target := next
				if m, err := rt.Morph(r.Morphs[i]); err == nil && m.Op == core.OpJmp {
					target = core.Offset(m.Operands[0].Value)
				}
				fmt.Fprintf(w, "  %s -- \"%s\" --> %s\n", nid(l.At), label(labels, c), nid(target))
			}
		}
	}

	fmt.Fprintf(w, "\n")
	util.Logf("mermaid gen done")

	return w.Close()
}
