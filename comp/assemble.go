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

package comp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Comcast/morpha/core"
	"github.com/Comcast/morpha/util"
)

// Layout says where a Composition's entries live in an arena.
type Layout struct {
	// Start is the Offset of the first entry, and End is the
	// Offset just past the last one.
	Start core.Offset `json:"start"`
	End   core.Offset `json:"end"`

	// Entry is the Offset where execution should begin, or
	// core.NoValue if the Composition has nothing to run.
	Entry core.Offset `json:"entry"`

	// At has the Offset of each entry in order.
	At []core.Offset `json:"at"`

	// Offsets maps names to Offsets.
	Offsets map[string]core.Offset `json:"offsets"`

	// Values maps names to the Offsets of their values.
	Values map[string]core.Offset `json:"values"`

	kinds []string
}

// Size is the number of Words the Composition occupies.
func (l *Layout) Size() int {
	return int(l.End - l.Start)
}

// Name finds the name of the entry at the given Offset.
func (l *Layout) Name(o core.Offset) (string, bool) {
	for name, at := range l.Offsets {
		if at == o {
			return name, true
		}
	}
	return "", false
}

// Plan computes the Layout of the Composition as if it were
// assembled starting at the given Offset.  Nothing is written.
func (c *Composition) Plan(start core.Offset) (*Layout, error) {
	l := &Layout{
		Start:   start,
		Entry:   core.NoValue,
		At:      make([]core.Offset, len(c.Entries)),
		Offsets: make(map[string]core.Offset, len(c.Entries)),
		Values:  make(map[string]core.Offset, len(c.Entries)),
		kinds:   make([]string, len(c.Entries)),
	}

	at := start
	for i, e := range c.Entries {
		if e == nil {
			return nil, fmt.Errorf("entry %d is null", i)
		}
		kind, err := e.Kind()
		if err != nil {
			return nil, err
		}
		l.kinds[i] = kind
		l.At[i] = at

		var (
			size  int
			value = core.NoValue
		)
		switch kind {
		case "cell":
			size = core.CellSize(len(e.Cell))
			value = at
		case "morph":
			op, err := core.ParseOperator(e.Morph)
			if err != nil {
				return nil, fmt.Errorf("entry %s: %w", e.label(), err)
			}
			size = core.MorphSize(op)
			value = at + core.Offset(size-1)
		case "rule":
			size = core.RuleSize(len(e.Rule))
		case "halt":
			size = core.HaltSize
			value = at + 1
		}

		if e.Name != "" {
			if _, have := l.Offsets[e.Name]; have {
				return nil, fmt.Errorf("duplicate entry %s", e.label())
			}
			l.Offsets[e.Name] = at
			if value != core.NoValue {
				l.Values[e.Name] = value
			}
		}

		if l.Entry == core.NoValue && c.Entry == "" && kind != "cell" {
			l.Entry = at
		}

		at += core.Offset(size)
	}
	l.End = at

	if c.Entry != "" {
		o, have := l.Offsets[c.Entry]
		if !have {
			return nil, fmt.Errorf("unknown entry '%s'", c.Entry)
		}
		for i, e := range c.Entries {
			if e.Name == c.Entry && l.kinds[i] == "cell" {
				return nil, fmt.Errorf("entry '%s' is a cell", c.Entry)
			}
		}
		l.Entry = o
	}

	return l, nil
}

// operand resolves a symbolic Arg against the Layout.
func (l *Layout) operand(a Arg) (core.Operand, error) {
	if a.Sym == "" {
		return core.Imm(a.Value), nil
	}

	s := a.Sym
	ref := strings.HasPrefix(s, "@")
	if ref {
		s = s[1:]
	}

	var disp core.Offset
	if i := strings.LastIndex(s, "+"); 0 < i {
		n, err := strconv.ParseUint(s[i+1:], 10, 31)
		if err != nil {
			return core.Operand{}, fmt.Errorf("bad displacement in '%s'", a.Sym)
		}
		disp = core.Offset(n)
		s = s[:i]
	}

	var o core.Offset
	if n, err := strconv.ParseUint(s, 10, 31); err == nil {
		o = core.Offset(n)
	} else if ref {
		v, have := l.Values[s]
		if !have {
			if _, have = l.Offsets[s]; have {
				return core.Operand{}, fmt.Errorf("'%s' has no value", s)
			}
			return core.Operand{}, fmt.Errorf("unknown name '%s'", s)
		}
		o = v
	} else {
		v, have := l.Offsets[s]
		if !have {
			return core.Operand{}, fmt.Errorf("unknown name '%s'", s)
		}
		o = v
	}
	o += disp

	if ref {
		return core.Ref(o), nil
	}
	return core.Imm(core.Word(o)), nil
}

// offset resolves an Arg that should name an Offset.  Whether the
// Arg was written as a reference doesn't matter.
func (l *Layout) offset(a Arg) (core.Offset, error) {
	x, err := l.operand(a)
	if err != nil {
		return 0, err
	}
	return core.Offset(x.Value), nil
}

func (l *Layout) branch(name string) (core.Offset, error) {
	if name == "" {
		return core.Otherwise, nil
	}
	o, have := l.Offsets[name]
	if !have {
		return 0, fmt.Errorf("unknown name '%s'", name)
	}
	return o, nil
}

// Assemble writes the Composition into the Runtime at its cursor.
//
// If anything goes wrong, the Runtime is restored to what it was
// before, and the error says which entry was the problem.  When the
// arena is too small, the error is a *core.ResultError with a MemLow
// Result that gives the total shortfall.
func (c *Composition) Assemble(rt *core.Runtime) (*Layout, error) {
	l, err := c.Plan(rt.Cursor())
	if err != nil {
		return nil, err
	}
	if short := l.Size() - rt.Free(); 0 < short {
		return nil, &core.ResultError{
			Result: core.Result{Kind: core.MemLow, Data: short},
		}
	}

	snap := rt.Snapshot()
	under := append([]core.Word(nil), rt.Raw()[l.Start:l.End]...)
	for i, e := range c.Entries {
		r, err := c.create(rt, l, i, e)
		if err == nil {
			err = r.Err()
		}
		if err == nil && r.Offset() != l.At[i] {
			err = fmt.Errorf("allocated at %d instead of %d", r.Offset(), l.At[i])
		}
		if err != nil {
			rt.Restore(snap, rt.Raw())
			copy(rt.Raw()[l.Start:], under)
			return nil, fmt.Errorf("entry %s: %w", e.label(), err)
		}
	}

	util.Logf("comp assembled %s: %d entries in [%d,%d)", c.Name, len(c.Entries), l.Start, l.End)

	return l, nil
}

func (c *Composition) create(rt *core.Runtime, l *Layout, i int, e *Entry) (core.Result, error) {
	switch l.kinds[i] {
	case "cell":
		offsets := make([]core.Offset, len(e.Cell))
		for j, a := range e.Cell {
			o, err := l.offset(a)
			if err != nil {
				return core.Result{}, err
			}
			offsets[j] = o
		}
		return rt.AllocateCell(offsets), nil

	case "morph":
		op, err := core.ParseOperator(e.Morph)
		if err != nil {
			return core.Result{}, err
		}
		operands := make([]core.Operand, len(e.Args))
		for j, a := range e.Args {
			if operands[j], err = l.operand(a); err != nil {
				return core.Result{}, err
			}
		}
		return rt.CreateMorph(op, operands...), nil

	case "rule":
		conds := make([]core.Offset, len(e.Rule))
		morphs := make([]core.Offset, len(e.Rule))
		for j, b := range e.Rule {
			if b == nil {
				return core.Result{}, fmt.Errorf("branch %d is null", j)
			}
			var err error
			if conds[j], err = l.branch(b.When); err != nil {
				return core.Result{}, err
			}
			if b.Do == "" {
				return core.Result{}, fmt.Errorf("branch %d has nothing to do", j)
			}
			if morphs[j], err = l.branch(b.Do); err != nil {
				return core.Result{}, err
			}
		}
		return rt.CreateRule(conds, morphs), nil

	case "halt":
		o, err := l.offset(*e.Halt)
		if err != nil {
			return core.Result{}, err
		}
		return rt.CreateHalt(o), nil
	}

	return core.Result{}, fmt.Errorf("unknown kind %s", l.kinds[i])
}

// Load makes a Runtime with an arena of at least the given size,
// assembles the Composition, and seeks to its entry (if any).
func Load(c *Composition, size int) (*core.Runtime, *Layout, error) {
	l, err := c.Plan(0)
	if err != nil {
		return nil, nil, err
	}
	if size < l.Size() {
		size = l.Size()
	}
	rt := core.NewRuntime(make([]core.Word, size))
	if l, err = c.Assemble(rt); err != nil {
		return nil, nil, err
	}
	if l.Entry != core.NoValue {
		if err := rt.Seek(l.Entry).Err(); err != nil {
			return nil, nil, err
		}
	}
	return rt, l, nil
}
