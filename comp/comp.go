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

// Package comp describes Morpha compositions in YAML (or JSON) and
// assembles them into a core.Runtime.
//
// A Composition is an ordered list of named entries.  Each entry is
// exactly one of a cell, a morph, a rule, or a halt.  Entries are
// allocated in order, so the Offset of every entry is known before
// anything is written.  That lets entries refer to each other by
// name, including forward references for jumps.
//
// An operand (or cell element) is either a number or a string:
//
//	7        the immediate 7
//	done     the immediate Offset of the entry named "done"
//	done+2   that Offset plus 2
//	@sum     a reference to the value of the entry named "sum"
//	@40      a reference to Offset 40
//
// The value of a morph is its Result Word.  The value of a halt is
// its return Offset, and the value of a cell is the cell itself (its
// length Word).  Rules don't have values.
//
// A halt takes the same kind of string.  "@sum" makes the halt
// return the value of sum.
//
// Example:
//
//	name: distance
//	entry: cmp
//	entries:
//	- name: cmp
//	  morph: CMP
//	  args: [7, 2]
//	- morph: JMP
//	  args: [choose]
//	- name: ng
//	  morph: SUB
//	  args: ["@cmp", 1]
//	- name: ba
//	  morph: SUB
//	  args: [2, 7]
//	- name: ab
//	  morph: SUB
//	  args: [7, 2]
//	- name: choose
//	  rule:
//	  - when: ng
//	    do: ba
//	  - do: ab
package comp

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"strconv"
	"strings"

	"github.com/Comcast/morpha/core"

	"github.com/jsccast/yaml"
)

// Composition is a description of a set of arena values.
type Composition struct {
	// Name is optional.
	Name string `json:"name,omitempty" yaml:",omitempty"`

	// Doc is Markdown.
	Doc string `json:"doc,omitempty" yaml:",omitempty"`

	// Entry names the record where execution begins.  If empty,
	// the first morph or rule is the entry.
	Entry string `json:"entry,omitempty" yaml:",omitempty"`

	Entries []*Entry `json:"entries"`
}

// Entry is a single value in a Composition.  Exactly one of Cell,
// Morph, Rule, and Halt should be given.
type Entry struct {
	// Name is needed only if another entry refers to this one.
	Name string `json:"name,omitempty" yaml:",omitempty"`

	Doc string `json:"doc,omitempty" yaml:",omitempty"`

	Cell []Arg `json:"cell,omitempty" yaml:",omitempty"`

	// Morph is the name of an Operator (case insensitive).
	Morph string `json:"morph,omitempty" yaml:",omitempty"`
	Args  []Arg  `json:"args,omitempty" yaml:",omitempty"`

	Rule []*Branch `json:"rule,omitempty" yaml:",omitempty"`

	Halt *Arg `json:"halt,omitempty" yaml:",omitempty"`
}

// Branch is a pair in a rule.  An empty When is Otherwise.
type Branch struct {
	When string `json:"when,omitempty" yaml:",omitempty"`
	Do   string `json:"do"`
}

// Arg is a number or a symbolic operand.  See the package
// documentation.
type Arg struct {
	Value core.Word
	Sym   string
}

// Num makes a numeric Arg.
func Num(w core.Word) Arg {
	return Arg{Value: w}
}

// Sym makes a symbolic Arg.
func Sym(s string) Arg {
	return Arg{Sym: s}
}

func (a Arg) String() string {
	if a.Sym != "" {
		return a.Sym
	}
	return strconv.FormatUint(uint64(a.Value), 10)
}

func (a Arg) MarshalJSON() ([]byte, error) {
	if a.Sym != "" {
		return json.Marshal(a.Sym)
	}
	return json.Marshal(uint64(a.Value))
}

// UnmarshalJSON accepts a string, an unsigned integer, or a negative
// integer (which wraps).
func (a *Arg) UnmarshalJSON(bs []byte) error {
	var s string
	if err := json.Unmarshal(bs, &s); err == nil {
		if s == "" {
			return fmt.Errorf("empty operand")
		}
		*a = Arg{Sym: s}
		return nil
	}
	var u uint64
	if err := json.Unmarshal(bs, &u); err == nil {
		*a = Arg{Value: core.Word(u)}
		return nil
	}
	var i int64
	if err := json.Unmarshal(bs, &i); err != nil {
		return fmt.Errorf("bad operand %s", bs)
	}
	*a = Arg{Value: core.Word(i)}
	return nil
}

func (a Arg) MarshalYAML() (interface{}, error) {
	if a.Sym != "" {
		return a.Sym, nil
	}
	return uint64(a.Value), nil
}

// UnmarshalYAML is the YAML version of UnmarshalJSON.
func (a *Arg) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var x interface{}
	if err := unmarshal(&x); err != nil {
		return err
	}
	switch vv := x.(type) {
	case string:
		if vv == "" {
			return fmt.Errorf("empty operand")
		}
		*a = Arg{Sym: vv}
	case int:
		*a = Arg{Value: core.Word(vv)}
	case int64:
		*a = Arg{Value: core.Word(vv)}
	case uint64:
		*a = Arg{Value: core.Word(vv)}
	case float64:
		if vv != float64(int64(vv)) {
			return fmt.Errorf("bad operand %v", vv)
		}
		*a = Arg{Value: core.Word(int64(vv))}
	default:
		return fmt.Errorf("bad operand %#v", x)
	}
	return nil
}

// Kind returns "cell", "morph", "rule", or "halt".  An Entry with
// none or more than one of them is an error.
func (e *Entry) Kind() (string, error) {
	var kinds []string
	if e.Cell != nil {
		kinds = append(kinds, "cell")
	}
	if e.Morph != "" {
		kinds = append(kinds, "morph")
	}
	if e.Rule != nil {
		kinds = append(kinds, "rule")
	}
	if e.Halt != nil {
		kinds = append(kinds, "halt")
	}
	switch len(kinds) {
	case 0:
		return "", fmt.Errorf("entry %s is empty", e.label())
	case 1:
		return kinds[0], nil
	}
	return "", fmt.Errorf("entry %s is a %s", e.label(), strings.Join(kinds, " and a "))
}

func (e *Entry) label() string {
	if e.Name == "" {
		return "(anonymous)"
	}
	return "'" + e.Name + "'"
}

// Parse reads a Composition from YAML or JSON.
func Parse(bs []byte) (*Composition, error) {
	var c Composition
	if err := yaml.Unmarshal(bs, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ReadFile parses the Composition in the given file.  If the
// Composition has no Name, the file's base name (without extension)
// is used.
func ReadFile(filename string) (*Composition, error) {
	bs, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	c, err := Parse(bs)
	if err != nil {
		return nil, fmt.Errorf("%s with '%s'", err, filename)
	}
	if c.Name == "" {
		name := filename
		if i := strings.LastIndex(name, "/"); 0 <= i {
			name = name[i+1:]
		}
		if i := strings.LastIndex(name, "."); 0 < i {
			name = name[:i]
		}
		c.Name = name
	}
	return c, nil
}
