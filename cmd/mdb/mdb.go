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

// Package main is a command-line arena debugger in the spirit of gdb.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Comcast/morpha/comp"
	"github.com/Comcast/morpha/core"
	"github.com/Comcast/morpha/interpreters/goja"
	"github.com/Comcast/morpha/storage"
	"github.com/Comcast/morpha/storage/bolt"
	"github.com/Comcast/morpha/tools"
	"github.com/Comcast/morpha/util"
	. "github.com/Comcast/morpha/util/testutil"
)

type Opts struct {
	libDir    string
	storeFile string
	size      int
	echo      bool
}

func main() {

	opts := &Opts{}
	flag.StringVar(&opts.libDir, "l", "", "script libraries directory")
	flag.StringVar(&opts.storeFile, "p", "", "optional BoltDB filename for images")
	flag.IntVar(&opts.size, "m", core.DefaultBlock, "arena size in words")
	flag.BoolVar(&opts.echo, "e", false, "echo input")
	flag.BoolVar(&util.Logging, "v", false, "verbose logging")
	flag.Parse()

	if err := opts.run(os.Stdin, os.Stdout); err != nil {
		panic(err)
	}
}

func (opts *Opts) run(in io.Reader, w io.Writer) error {

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h, err := NewHost(ctx, opts)
	if err != nil {
		return err
	}
	defer h.store.Close(ctx)

	var (
		name = "([-a-zA-Z0-9_+]+)"

		load = regexp.MustCompile("^load +(.*)")

		script = regexp.MustCompile("^script +(.*)")

		seek = regexp.MustCompile("^seek +" + name)

		step = regexp.MustCompile("^(step|s)( +([0-9]+))?$")

		walk = regexp.MustCompile("^walk( +([0-9]+))?$")

		exec = regexp.MustCompile("^exec$")

		setBreak = regexp.MustCompile("^break +" + name)

		unbreak = regexp.MustCompile("^unbreak +" + name)

		breaks = regexp.MustCompile("^breaks$")

		state = regexp.MustCompile("^state$")

		list = regexp.MustCompile("^(list|print)$")

		peek = regexp.MustCompile("^peek +" + name + "( +([0-9]+))?$")

		poke = regexp.MustCompile("^poke +" + name + " +([0-9]+)$")

		remap = regexp.MustCompile("^remap +([0-9]+)$")

		analyze = regexp.MustCompile("^analyze$")

		dot = regexp.MustCompile("^dot +(.*)")

		save = regexp.MustCompile("^save +" + name)

		restore = regexp.MustCompile("^restore +" + name)

		images = regexp.MustCompile("^images$")

		help = regexp.MustCompile("^(help|h|\\?)$")

		debug = regexp.MustCompile("^debug(ging)? (on|off)")

		outputPrefix = "# "

		debugging = false

		say = func(format string, args ...interface{}) {
			fmt.Fprintf(w, outputPrefix+format+"\n", args...)
		}

		protest = func(format string, args ...interface{}) {
			say("error: "+format, args...)
		}
	)

	r := bufio.NewReader(in)
	for {
		line, err := r.ReadString('\n')
		if err != nil && err != io.EOF {
			return err
		}
		eof := err == io.EOF

		if opts.echo {
			fmt.Fprintln(w, strings.TrimSpace(line))
		}

		line = strings.Join(util.Fields(line), " ")

		var ss []string

		switch {
		case line == "":
		case help.MatchString(line):
			for _, s := range strings.Split(doc(), "\n") {
				say("%s", s)
			}

		case load.MatchString(line):
			ss = load.FindStringSubmatch(line)
			if err := h.Load(ss[1]); err != nil {
				protest("couldn't load %s: %s", ss[1], err)
				break
			}
			say("loaded %s: %d of %d words used, at %d", ss[1], h.rt.Cursor(), h.rt.Size(), h.rt.Pos())

		case script.MatchString(line):
			ss = script.FindStringSubmatch(line)
			if err := h.Script(ctx, ss[1]); err != nil {
				protest("couldn't build %s: %s", ss[1], err)
				break
			}
			say("built %s: %d of %d words used, at %d", ss[1], h.rt.Cursor(), h.rt.Size(), h.rt.Pos())

		case seek.MatchString(line):
			ss = seek.FindStringSubmatch(line)
			o, err := h.Resolve(ss[1])
			if err != nil {
				protest("%s", err)
				break
			}
			if err := h.rt.Seek(o).Err(); err != nil {
				protest("%s", err)
				break
			}
			say("at %s", h.Label(o))

		case step.MatchString(line):
			ss = step.FindStringSubmatch(line)
			n := 1
			if ss[3] != "" {
				n, _ = strconv.Atoi(ss[3])
			}
			walked, err := h.rt.Walk(ctx, &core.Control{Limit: n})
			if err != nil {
				protest("%s", err)
				break
			}
			Render(w, outputPrefix, h, walked)

		case walk.MatchString(line):
			ss = walk.FindStringSubmatch(line)
			ctl := h.ctl.Copy()
			if ss[2] != "" {
				ctl.Limit, _ = strconv.Atoi(ss[2])
			}
			// Step off a breakpoint before checking them.
			walked, err := h.rt.Walk(ctx, &core.Control{Limit: 1})
			if err == nil && walked.StoppedBecause == core.Limited && 1 < ctl.Limit {
				var more *core.Walked
				ctl.Limit--
				if more, err = h.rt.Walk(ctx, ctl); err == nil {
					more.Strides = append(walked.Strides, more.Strides...)
					walked = more
				}
			}
			if err != nil {
				protest("%s", err)
				break
			}
			Render(w, outputPrefix, h, walked)
			if debugging {
				say("%s", JS(walked))
			}

		case exec.MatchString(line):
			res := h.rt.Exec()
			say("%s", res)
			if res.Kind == core.Halt && res.Offset() != core.NoValue {
				say("value %d", h.rt.Load(res.Offset()))
			}

		case setBreak.MatchString(line):
			ss = setBreak.FindStringSubmatch(line)
			o, err := h.Resolve(ss[1])
			if err != nil {
				protest("%s", err)
				break
			}
			h.ctl.Breakpoints[ss[1]] = core.AtOffset(o)
			say("breakpoint %s at %d", ss[1], o)

		case unbreak.MatchString(line):
			ss = unbreak.FindStringSubmatch(line)
			if _, have := h.ctl.Breakpoints[ss[1]]; !have {
				protest("no breakpoint %s", ss[1])
				break
			}
			delete(h.ctl.Breakpoints, ss[1])

		case breaks.MatchString(line):
			ids := make([]string, 0, len(h.ctl.Breakpoints))
			for id := range h.ctl.Breakpoints {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				say("  %s", id)
			}

		case state.MatchString(line):
			say("  state:  %s", h.rt.State())
			say("  pos:    %s", h.Label(h.rt.Pos()))
			say("  ret:    %d", h.rt.Ret())
			say("  cursor: %d", h.rt.Cursor())
			say("  free:   %d", h.rt.Free())

		case list.MatchString(line):
			lines, err := tools.Listing(h.rt, h.names)
			if err != nil {
				protest("%s", err)
			}
			for _, l := range lines {
				mark := " "
				if l.At == h.rt.Pos() && h.rt.State() == core.Running {
					mark = ">"
				}
				say("%s %04d %-8s %s", mark, l.At, l.Name, l.Text)
			}

		case peek.MatchString(line):
			ss = peek.FindStringSubmatch(line)
			o, err := h.Resolve(ss[1])
			if err != nil {
				protest("%s", err)
				break
			}
			n := 1
			if ss[3] != "" {
				n, _ = strconv.Atoi(ss[3])
			}
			for i := 0; i < n; i++ {
				at := o + core.Offset(i)
				if at < 0 || int(at) >= h.rt.Size() {
					break
				}
				say("  %04d %d", at, h.rt.Load(at))
			}

		case poke.MatchString(line):
			ss = poke.FindStringSubmatch(line)
			o, err := h.Resolve(ss[1])
			if err != nil {
				protest("%s", err)
				break
			}
			v, err := strconv.ParseUint(ss[2], 10, 64)
			if err != nil {
				protest("%s", err)
				break
			}
			if o < 0 || o >= h.rt.Cursor() {
				protest("%d isn't allocated", o)
				break
			}
			h.rt.Store(o, core.Word(v))

		case remap.MatchString(line):
			ss = remap.FindStringSubmatch(line)
			n, _ := strconv.Atoi(ss[1])
			if err := h.rt.Remap(make([]core.Word, n)).Err(); err != nil {
				protest("%s", err)
				break
			}
			say("size %d", h.rt.Size())

		case analyze.MatchString(line):
			entry := h.entry
			if h.rt.State() == core.Running {
				entry = h.rt.Pos()
			}
			a, err := tools.Analyze(h.rt, entry, h.names)
			if err != nil {
				protest("%s", err)
				break
			}
			bs, err := a.YAML()
			if err != nil {
				return err // Internal error
			}
			for _, s := range strings.Split(strings.TrimSpace(string(bs)), "\n") {
				say("  %s", s)
			}

		case dot.MatchString(line):
			ss = dot.FindStringSubmatch(line)
			f, err := os.Create(ss[1])
			if err != nil {
				protest("%s", err)
				break
			}
			if err := tools.Dot(h.rt, h.names, f, h.rt.Pos(), core.NoValue); err != nil {
				protest("%s", err)
			}

		case save.MatchString(line):
			ss = save.FindStringSubmatch(line)
			if err := h.store.Put(ctx, storage.NewImage(ss[1], h.rt, h.names)); err != nil {
				protest("%s", err)
				break
			}
			say("saved %s", ss[1])

		case restore.MatchString(line):
			ss = restore.FindStringSubmatch(line)
			img, err := h.store.Get(ctx, ss[1])
			if err != nil {
				protest("%s: %s", ss[1], err)
				break
			}
			rt, err := img.Runtime(opts.size)
			if err != nil {
				protest("%s", err)
				break
			}
			h.rt, h.names = rt, img.Names
			say("restored %s at %d", ss[1], h.rt.Pos())

		case images.MatchString(line):
			names, err := h.store.List(ctx)
			if err != nil {
				protest("%s", err)
				break
			}
			for _, name := range names {
				say("  %s", name)
			}

		case debug.MatchString(line):
			ss = debug.FindStringSubmatch(line)
			switch ss[2] {
			case "on":
				debugging = true
				say("debugging")
			case "off":
				debugging = false
				say("not debugging")
			}

		default:
			protest("unsupported command: %s", line)
		}

		if eof {
			return nil
		}
	}
}

// Host holds the debugger's state.
type Host struct {
	opts  *Opts
	rt    *core.Runtime
	names map[string]core.Offset
	entry core.Offset
	ctl   *core.Control
	store storage.Storage
	goja  *goja.Interpreter
}

func NewHost(ctx context.Context, opts *Opts) (*Host, error) {
	h := &Host{
		opts:  opts,
		rt:    core.NewRuntime(make([]core.Word, opts.size)),
		names: map[string]core.Offset{},
		entry: core.NoValue,
		ctl: &core.Control{
			Limit:       opts.size + 1,
			Breakpoints: map[string]core.Breakpoint{},
		},
		goja: goja.NewInterpreter(),
	}

	if opts.libDir != "" {
		h.goja.LibraryProvider = goja.MakeFileLibraryProvider(opts.libDir)
	}

	if opts.storeFile == "" {
		h.store = storage.NewMemStorage()
	} else {
		s, err := bolt.NewStorage(opts.storeFile)
		if err != nil {
			return nil, err
		}
		h.store = s
	}
	if err := h.store.Open(ctx); err != nil {
		return nil, err
	}

	return h, nil
}

// Load replaces the Runtime with the composition in the file.
func (h *Host) Load(filename string) error {
	c, err := comp.ReadFile(filename)
	if err != nil {
		return err
	}
	rt, l, err := comp.Load(c, h.opts.size)
	if err != nil {
		return err
	}
	h.rt, h.names, h.entry = rt, l.Offsets, l.Entry
	return nil
}

// Script replaces the Runtime with what the script in the file
// builds.
func (h *Host) Script(ctx context.Context, filename string) error {
	src, err := ioutil.ReadFile(filename)
	if err != nil {
		return err
	}
	rt := core.NewRuntime(make([]core.Word, h.opts.size))
	exe, err := h.goja.Exec(ctx, rt, nil, string(src), nil)
	if err != nil {
		return err
	}
	if exe.Entry != core.NoValue {
		if err := rt.Seek(exe.Entry).Err(); err != nil {
			return err
		}
	}
	h.rt, h.names, h.entry = rt, exe.Names, exe.Entry
	return nil
}

// Resolve turns a number, a name, or name+N into an Offset.
func (h *Host) Resolve(s string) (core.Offset, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return core.Offset(n), nil
	}
	var delta int
	if i := strings.LastIndex(s, "+"); 0 < i {
		n, err := strconv.Atoi(s[i+1:])
		if err != nil {
			return core.NoValue, fmt.Errorf("bad offset %s", s)
		}
		s, delta = s[:i], n
	}
	o, have := h.names[s]
	if !have {
		return core.NoValue, fmt.Errorf("unknown name %s", s)
	}
	return o + core.Offset(delta), nil
}

// Label renders an Offset with its name, if any.
func (h *Host) Label(o core.Offset) string {
	for _, name := range tools.SortedNames(h.names) {
		if h.names[name] == o {
			return fmt.Sprintf("%d (%s)", o, name)
		}
	}
	return strconv.Itoa(int(o))
}

func doc() string {
	return `
  load FILENAME          Assemble the composition (YAML or JSON) in this file
  script FILENAME        Build an arena with the script in this file
  seek WHERE             Set the position (WHERE is N, NAME, or NAME+N)
  step [N]               Take N steps (default 1)
  walk [LIMIT]           Step until halt, fault, limit, or breakpoint
  exec                   Step until something other than OK
  break WHERE            Set a breakpoint
  unbreak WHERE          Remove a breakpoint
  breaks                 List breakpoints
  state                  Show the position and allocation state
  list                   Show a listing of the arena
  peek WHERE [N]         Show N words
  poke WHERE VALUE       Write an allocated word
  remap SIZE             Move the arena to a new block
  analyze                Show a static analysis from the position
  dot FILENAME           Write a Graphviz file
  save NAME              Save an image
  restore NAME           Restore an image
  images                 List saved images
  debug on/off           When debugging, show walking details
  help                   Show this documentation
`
}

func Render(w io.Writer, prefix string, h *Host, walked *core.Walked) {
	for i, stride := range walked.Strides {
		fmt.Fprintf(w, "%s  %02d from %-12s %s\n", prefix, i, h.Label(stride.From), stride.Result)
		if stride.Result.Kind == core.OK {
			fmt.Fprintf(w, "%s     wrote %d at %d\n", prefix, stride.Value, stride.Wrote)
		}
	}
	if walked.BreakpointId != "" {
		fmt.Fprintf(w, "%s  breakpoint %s\n", prefix, walked.BreakpointId)
	}
	fmt.Fprintf(w, "%s  stopped %v\n", prefix, walked.StoppedBecause)
}
