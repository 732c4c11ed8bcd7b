package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/Comcast/morpha/comp"
	"github.com/Comcast/morpha/core"
	"github.com/Comcast/morpha/tools"
)

var Mods = map[string]Mod{
	"addHalt": &AddHaltMod{},
	"prefix":  &PrefixMod{},
	"analyze": &Analyzer{},
	"listing": &Lister{},
	"graph":   &Grapher{},
	"mermaid": &Mermaider{},
	"html":    &HTMLRenderer{},
}

var (
	NoMorph    = errors.New("no morph")
	HaltExists = errors.New("composition already ends with a halt")
	NameExists = errors.New("name exists")
)

type Mod interface {
	F(*comp.Composition) error
	Doc() string
	Flags() *flag.FlagSet
}

// AddHalt appends a halt entry with the given name.  If ret is empty,
// the halt returns the value of the last named morph.
//
// The Composition's Doc is updated to note that this processing has
// occurred.
func AddHalt(c *comp.Composition, name, ret string) error {
	if n := len(c.Entries); 0 < n && c.Entries[n-1].Halt != nil {
		return HaltExists
	}
	for _, e := range c.Entries {
		if name != "" && e.Name == name {
			return NameExists
		}
	}

	if ret == "" {
		for i := len(c.Entries) - 1; 0 <= i; i-- {
			if e := c.Entries[i]; e.Morph != "" && e.Name != "" {
				ret = "@" + e.Name
				break
			}
		}
		if ret == "" {
			return NoMorph
		}
	}

	halt := comp.Sym(ret)
	c.Entries = append(c.Entries, &comp.Entry{
		Name: name,
		Halt: &halt,
	})

	c.Doc += fmt.Sprintf("\n\nAdded halt returning %s.\n", ret)

	return nil
}

type AddHaltMod struct {
	Name string
	Ret  string
}

func (m *AddHaltMod) Doc() string {
	return "Add a halt at the end of the composition."
}

func (m *AddHaltMod) Flags() *flag.FlagSet {
	fs := flag.NewFlagSet("addHalt", flag.PanicOnError)
	fs.StringVar(&m.Name, "n", "done", "name for the halt")
	fs.StringVar(&m.Ret, "r", "", "return value (default is the last named morph)")
	return fs
}

func (m *AddHaltMod) F(c *comp.Composition) error {
	return AddHalt(c, m.Name, m.Ret)
}

// renameSym adds the prefix to the name in a symbolic operand.
// Numeric Offsets are unchanged.
func renameSym(s, prefix string) string {
	at := ""
	if strings.HasPrefix(s, "@") {
		at, s = "@", s[1:]
	}
	if s == "" || ('0' <= s[0] && s[0] <= '9') {
		return at + s
	}
	return at + prefix + s
}

// Prefix renames every entry (and every reference to an entry) so
// that two compositions can be assembled into one arena without
// their names colliding.
func Prefix(c *comp.Composition, prefix string) {
	rename := func(args []comp.Arg) {
		for i, a := range args {
			if a.Sym != "" {
				args[i].Sym = renameSym(a.Sym, prefix)
			}
		}
	}

	if c.Entry != "" {
		c.Entry = prefix + c.Entry
	}
	for _, e := range c.Entries {
		if e.Name != "" {
			e.Name = prefix + e.Name
		}
		rename(e.Cell)
		rename(e.Args)
		for _, b := range e.Rule {
			if b.When != "" {
				b.When = prefix + b.When
			}
			b.Do = prefix + b.Do
		}
		if e.Halt != nil && e.Halt.Sym != "" {
			e.Halt.Sym = renameSym(e.Halt.Sym, prefix)
		}
	}
}

type PrefixMod struct {
	Prefix string
}

func (m *PrefixMod) Doc() string {
	return "Prefix every name in the composition."
}

func (m *PrefixMod) Flags() *flag.FlagSet {
	fs := flag.NewFlagSet("prefix", flag.PanicOnError)
	fs.StringVar(&m.Prefix, "p", "c_", "prefix for names")
	return fs
}

func (m *PrefixMod) F(c *comp.Composition) error {
	if m.Prefix == "" {
		return errors.New("empty prefix")
	}
	Prefix(c, m.Prefix)
	return nil
}

type Analyzer struct {
}

func (m *Analyzer) F(c *comp.Composition) error {
	rt, l, err := comp.Load(c, 0)
	if err != nil {
		return err
	}
	a, err := tools.Analyze(rt, l.Entry, l.Offsets)
	if err != nil {
		return err
	}
	bs, err := a.YAML()
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%s\n", bs)

	return nil
}

func (m *Analyzer) Doc() string {
	return "Write a static analysis to stderr."
}

func (m *Analyzer) Flags() *flag.FlagSet {
	return flag.NewFlagSet("analyze", flag.PanicOnError)
}

type Lister struct {
}

func (m *Lister) F(c *comp.Composition) error {
	rt, l, err := comp.Load(c, 0)
	if err != nil {
		return err
	}
	lines, err := tools.Listing(rt, l.Offsets)
	if err != nil {
		return err
	}
	return tools.WriteListing(os.Stderr, lines)
}

func (m *Lister) Doc() string {
	return "Write the assembled arena to stderr."
}

func (m *Lister) Flags() *flag.FlagSet {
	return flag.NewFlagSet("listing", flag.PanicOnError)
}

type Grapher struct {
	OutputFilename string
}

func (m *Grapher) F(c *comp.Composition) error {
	rt, l, err := comp.Load(c, 0)
	if err != nil {
		return err
	}
	f, err := os.Create(m.OutputFilename)
	if err != nil {
		return err
	}

	return tools.Dot(rt, l.Offsets, f, core.NoValue, core.NoValue) // Will Close f.
}

func (m *Grapher) Doc() string {
	return "Write a Graphviz file."
}

func (m *Grapher) Flags() *flag.FlagSet {
	fs := flag.NewFlagSet("graph", flag.PanicOnError)
	fs.StringVar(&m.OutputFilename, "o", "comp.dot", "output filename")
	return fs
}

type Mermaider struct {
	OutputFilename string
	ShowText       bool
}

func (m *Mermaider) F(c *comp.Composition) error {
	rt, l, err := comp.Load(c, 0)
	if err != nil {
		return err
	}
	f, err := os.Create(m.OutputFilename)
	if err != nil {
		return err
	}

	return tools.Mermaid(rt, l.Offsets, f, &tools.MermaidOpts{
		ShowText: m.ShowText,
	})
}

func (m *Mermaider) Doc() string {
	return "Write a Mermaid flowchart."
}

func (m *Mermaider) Flags() *flag.FlagSet {
	fs := flag.NewFlagSet("mermaid", flag.PanicOnError)
	fs.StringVar(&m.OutputFilename, "o", "comp.mermaid", "output filename")
	fs.BoolVar(&m.ShowText, "t", true, "show record text")
	return fs
}

type HTMLRenderer struct {
	OutputFilename string
	Graph          bool
	CSS            string
}

func (m *HTMLRenderer) F(c *comp.Composition) error {
	rt, l, err := comp.Load(c, 0)
	if err != nil {
		return err
	}
	f, err := os.Create(m.OutputFilename)
	if err != nil {
		return err
	}
	defer f.Close()

	var css []string
	if m.CSS != "" {
		css = strings.Split(m.CSS, ",")
	}

	return tools.RenderCompositionPage(c, l, rt, f, css, m.Graph)
}

func (m *HTMLRenderer) Doc() string {
	return "Write an HTML page."
}

func (m *HTMLRenderer) Flags() *flag.FlagSet {
	fs := flag.NewFlagSet("html", flag.PanicOnError)
	fs.StringVar(&m.OutputFilename, "o", "comp.html", "output filename")
	fs.BoolVar(&m.Graph, "g", true, "include a graph")
	fs.StringVar(&m.CSS, "css", "", "comma-separated CSS URLs")
	return fs
}
