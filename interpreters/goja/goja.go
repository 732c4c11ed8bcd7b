// Package goja builds Morpha compositions with ECMAScript.
//
// A script can write records into a Runtime one at a time, which is
// handy when a composition is easier to generate than to write down
// (an unrolled loop, for example).  A script can also return a
// composition description, which is then assembled.
package goja

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/Comcast/morpha/comp"
	"github.com/Comcast/morpha/core"

	"github.com/dop251/goja"
)

var (
	// InterruptedMessage is the string value of Interrupted.
	InterruptedMessage = "RuntimeError: timeout"

	// Interrupted is returned by Exec if the execution is
	// interrupted.
	Interrupted = errors.New(InterruptedMessage)
)

// Interpreter runs composition-building scripts using Goja, which is
// a Go implementation of ECMAScript 5.1+.
//
// See https://github.com/dop251/goja.
type Interpreter struct {

	// Testing is used to expose or hide some runtime
	// capabilities.
	Testing bool

	// LibraryProvider is a pluggable library provider, which can
	// be used instead of the DefaultLibraryProvider.
	LibraryProvider func(ctx context.Context, i *Interpreter, libraryName string) (string, error)
}

// NewInterpreter makes a new Interpreter.
func NewInterpreter() *Interpreter {
	return &Interpreter{}
}

// ProvideLibrary resolves the library name into a library.
func (i *Interpreter) ProvideLibrary(ctx context.Context, name string) (string, error) {
	if i.LibraryProvider != nil {
		return i.LibraryProvider(ctx, i, name)
	}
	return DefaultLibraryProvider(ctx, i, name)
}

var DefaultLibraryProvider = MakeFileLibraryProvider(".")

// MakeFileLibraryProvider makes a library provider that supports
// (barely) names that are URLs with protocols of "file", "http", and
// "https". There currently is no additional control when using
// HTTP/HTTPS.
func MakeFileLibraryProvider(dir string) func(context.Context, *Interpreter, string) (string, error) {
	return func(ctx context.Context, i *Interpreter, name string) (string, error) {
		parts := strings.SplitN(name, "://", 2)
		if 2 != len(parts) {
			return "", fmt.Errorf("bad link '%s'", name)
		}
		switch parts[0] {
		case "file":
			filename := parts[1]
			bs, err := ioutil.ReadFile(dir + "/" + filename)
			if err != nil {
				return "", err
			}
			return string(bs), nil
		case "http", "https":
			req, err := http.NewRequestWithContext(ctx, "GET", name, nil)
			if err != nil {
				return "", err
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return "", err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return "", fmt.Errorf("library fetch status %s %d",
					resp.Status, resp.StatusCode)
			}
			bs, err := ioutil.ReadAll(resp.Body)
			if err != nil {
				return "", err
			}
			return string(bs), nil
		default:
			return "", fmt.Errorf("unknown protocol '%s'", parts[0])
		}
	}
}

func MakeMapLibraryProvider(srcs map[string]string) func(context.Context, *Interpreter, string) (string, error) {
	return func(ctx context.Context, i *Interpreter, name string) (string, error) {
		src, have := srcs[name]
		if !have {
			return "", fmt.Errorf("undefined library '%s'", name)
		}
		return src, nil
	}
}

func wrapSrc(src string) string {
	return fmt.Sprintf("(function() {\n%s\n}());\n", src)
}

// AsSource accepts either a string of code or a map with "code" and
// optional "requires" properties.
//
// The YAML parser https://github.com/go-yaml/yaml will return
// map[interface{}]interface{}, which is correct but inconvenient.  So
// both kinds of maps are supported.
func AsSource(src interface{}) (code string, libs []string, err error) {
	switch vv := src.(type) {
	case string:
		return vv, nil, nil
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(vv))
		for k, v := range vv {
			str, ok := k.(string)
			if !ok {
				return "", nil, fmt.Errorf("bad src key (%T)", k)
			}
			m[str] = v
		}
		return parseSource(m)
	case map[string]interface{}:
		return parseSource(vv)
	}
	return "", nil, fmt.Errorf("bad Goja source (%T)", src)
}

func parseSource(vv map[string]interface{}) (code string, libs []string, err error) {
	s, is := vv["code"].(string)
	if !is {
		return "", nil, errors.New("bad Goja code")
	}
	code = s

	switch vv := vv["requires"].(type) {
	case nil:
	case string:
		libs = []string{vv}
	case []string:
		libs = vv
	case []interface{}:
		libs = make([]string, 0, len(vv))
		for _, x := range vv {
			s, is := x.(string)
			if !is {
				return "", nil, errors.New("bad library")
			}
			libs = append(libs, s)
		}
	default:
		return "", nil, fmt.Errorf("bad requires (%T)", vv)
	}

	return code, libs, nil
}

// Compile prepends any required libraries to the code and then calls
// goja.Compile.
//
// This method can block if the interpreter's library provider blocks
// in order to obtain external libraries.
func (i *Interpreter) Compile(ctx context.Context, src interface{}) (*goja.Program, error) {
	code, libs, err := AsSource(src)
	if err != nil {
		return nil, err
	}

	code = wrapSrc(code)

	var libsSrc string
	for _, lib := range libs {
		libSrc, err := i.ProvideLibrary(ctx, lib)
		if err != nil {
			return nil, err
		}
		libsSrc += libSrc + "\n"
	}

	code = libsSrc + code

	p, err := goja.Compile("", code, true)
	if err != nil {
		return nil, errors.New(err.Error() + ": " + code)
	}

	return p, nil
}

// Execution reports what a script built.
type Execution struct {
	// Entry is the Offset that the script returned (or the entry
	// of the composition it returned), or core.NoValue.
	Entry core.Offset `json:"entry"`

	// Names are the names given with _.name() or by an assembled
	// composition.
	Names map[string]core.Offset `json:"names,omitempty"`
}

func protest(o *goja.Runtime, x interface{}) {
	panic(o.ToValue(x))
}

// Exec runs the script against the Runtime.
//
// The following properties are available from the runtime at _.
//
//	params: the given parameters.
//	cursor(): the Offset that the next allocation will get.
//	morphSize(op), ruleSize(n), cellSize(n), haltSize: sizes in Words.
//	otherwise: the condition that's always true.
//	ref(o): a reference operand for morph().
//	morph(op, args...): create a morph.  Returns its Offset.
//	result(o): the Offset of the result of the morph at o.
//	rule(conds, morphs): create a rule.
//	cell(offsets): allocate a cell.
//	halt(ret): create a halt.
//	name(s, o): record a name for an Offset.
//	assemble(composition): assemble a composition description.
//	log(x): log x as JSON.
//
// A fault or MemLow throws an exception.  The script can return an
// entry Offset or a composition description (which is assembled).
//
// For testing only:
//
//	sleep(ms): sleep for the given number of milliseconds.
//
// The Testing flag must be set to see sleep().
func (i *Interpreter) Exec(ctx context.Context, rt *core.Runtime, params map[string]interface{}, src interface{}, compiled *goja.Program) (*Execution, error) {
	exe := &Execution{
		Entry: core.NoValue,
		Names: make(map[string]core.Offset),
	}

	if compiled == nil {
		var err error
		if compiled, err = i.Compile(ctx, src); err != nil {
			return exe, err
		}
	}

	if params == nil {
		params = map[string]interface{}{}
	}

	env := map[string]interface{}{
		"ctx":       ctx,
		"params":    params,
		"haltSize":  core.HaltSize,
		"otherwise": int(core.Otherwise),
	}

	o := goja.New()

	o.Set("_", env)

	if i.Testing {
		o.Set("sleep", func(ms int) {
			time.Sleep(time.Duration(ms) * time.Millisecond)
		})
	}

	check := func(r core.Result) int {
		if err := r.Err(); err != nil {
			protest(o, err.Error())
		}
		return r.Data
	}

	offset := func(v goja.Value) core.Offset {
		n, ok := toInt(v.Export())
		if !ok {
			protest(o, fmt.Sprintf("%v is not an offset", v))
		}
		return core.Offset(n)
	}

	offsets := func(v goja.Value) []core.Offset {
		var xs []interface{}
		if err := o.ExportTo(v, &xs); err != nil {
			protest(o, err.Error())
		}
		acc := make([]core.Offset, len(xs))
		for j, x := range xs {
			n, ok := toInt(x)
			if !ok {
				protest(o, fmt.Sprintf("%v is not an offset", x))
			}
			acc[j] = core.Offset(n)
		}
		return acc
	}

	operator := func(v goja.Value) core.Operator {
		op, err := core.ParseOperator(v.String())
		if err != nil {
			protest(o, err.Error())
		}
		return op
	}

	env["cursor"] = func() int {
		return int(rt.Cursor())
	}

	env["morphSize"] = func(call goja.FunctionCall) goja.Value {
		return o.ToValue(core.MorphSize(operator(call.Argument(0))))
	}

	env["ruleSize"] = func(n int) int {
		return core.RuleSize(n)
	}

	env["cellSize"] = func(n int) int {
		return core.CellSize(n)
	}

	env["ref"] = func(call goja.FunctionCall) goja.Value {
		return o.ToValue(map[string]interface{}{
			"ref": int(offset(call.Argument(0))),
		})
	}

	env["morph"] = func(call goja.FunctionCall) goja.Value {
		op := operator(call.Argument(0))
		operands := make([]core.Operand, 0, len(call.Arguments))
		for _, arg := range call.Arguments[1:] {
			a, ok := toOperand(arg.Export())
			if !ok {
				protest(o, fmt.Sprintf("bad operand %v", arg))
			}
			operands = append(operands, a)
		}
		return o.ToValue(check(rt.CreateMorph(op, operands...)))
	}

	env["result"] = func(call goja.FunctionCall) goja.Value {
		m, err := rt.Morph(offset(call.Argument(0)))
		if err != nil {
			protest(o, err.Error())
		}
		return o.ToValue(int(m.Result))
	}

	env["rule"] = func(call goja.FunctionCall) goja.Value {
		return o.ToValue(check(rt.CreateRule(offsets(call.Argument(0)), offsets(call.Argument(1)))))
	}

	env["cell"] = func(call goja.FunctionCall) goja.Value {
		return o.ToValue(check(rt.AllocateCell(offsets(call.Argument(0)))))
	}

	env["halt"] = func(call goja.FunctionCall) goja.Value {
		return o.ToValue(check(rt.CreateHalt(offset(call.Argument(0)))))
	}

	env["name"] = func(call goja.FunctionCall) goja.Value {
		at := offset(call.Argument(1))
		exe.Names[call.Argument(0).String()] = at
		return o.ToValue(int(at))
	}

	assemble := func(x interface{}) *comp.Layout {
		c, err := asComposition(x)
		if err != nil {
			protest(o, err.Error())
		}
		l, err := c.Assemble(rt)
		if err != nil {
			protest(o, err.Error())
		}
		for name, at := range l.Offsets {
			exe.Names[name] = at
		}
		return l
	}

	env["assemble"] = func(call goja.FunctionCall) goja.Value {
		l := assemble(call.Argument(0).Export())
		return o.ToValue(map[string]interface{}{
			"entry": int(l.Entry),
			"start": int(l.Start),
			"end":   int(l.End),
		})
	}

	env["log"] = func(x interface{}) interface{} {
		js, err := json.Marshal(&x)
		if err != nil {
			log.Println("goja.log (can't marshal: " + err.Error() + ")")
		} else {
			log.Println(string(js))
		}
		return x
	}

	// We want to make sure that the following goroutine is
	// terminated as soon as possible.
	ictx, cancel := context.WithCancel(ctx)
	go func() {
		<-ictx.Done()
		// If this Exec method calls cancel() after RunProgram
		// returns, then we'll never see this
		// InterruptedMessage, which is actually the behavior
		// we want.  In this case, we weren't actually interrupted.
		o.Interrupt(InterruptedMessage)
	}()

	var (
		v   goja.Value
		err error
	)
	func() {
		// A protest during assembly of the returned composition
		// happens outside of RunProgram.
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%v", r)
			}
		}()
		if v, err = o.RunProgram(compiled); err != nil {
			return
		}
		switch x := v.Export().(type) {
		case nil:
		case map[string]interface{}:
			exe.Entry = assemble(x).Entry
		default:
			n, ok := toInt(x)
			if !ok {
				err = fmt.Errorf("%#v (%T) isn't an entry", x, x)
				return
			}
			exe.Entry = core.Offset(n)
		}
	}()
	cancel()

	if err != nil {
		if _, is := err.(*goja.InterruptedError); is {
			return nil, Interrupted
		}
		return nil, err
	}

	return exe, nil
}

// toInt accepts the integral numbers that Goja exports.
func toInt(x interface{}) (int64, bool) {
	switch vv := x.(type) {
	case int:
		return int64(vv), true
	case int64:
		return vv, true
	case uint64:
		return int64(vv), true
	case float64:
		if vv != float64(int64(vv)) {
			return 0, false
		}
		return int64(vv), true
	}
	return 0, false
}

// toOperand accepts a number (immediate) or the result of _.ref().
func toOperand(x interface{}) (core.Operand, bool) {
	if m, is := x.(map[string]interface{}); is {
		n, ok := toInt(m["ref"])
		if !ok || n < 0 {
			return core.Operand{}, false
		}
		return core.Ref(core.Offset(n)), true
	}
	n, ok := toInt(x)
	if !ok {
		return core.Operand{}, false
	}
	return core.Imm(core.Word(n)), true
}

// asComposition converts an exported object into a Composition by
// way of JSON.
func asComposition(x interface{}) (*comp.Composition, error) {
	js, err := json.Marshal(&x)
	if err != nil {
		return nil, err
	}
	var c comp.Composition
	if err = json.Unmarshal(js, &c); err != nil {
		return nil, err
	}
	return &c, nil
}
