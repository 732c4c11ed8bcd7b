package goja

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Comcast/morpha/core"
)

func run(t *testing.T, i *Interpreter, params map[string]interface{}, code interface{}) (*core.Runtime, *Execution) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	compiled, err := i.Compile(ctx, code)
	if err != nil {
		t.Fatal(err)
	}

	rt := core.NewRuntime(make([]core.Word, core.DefaultBlock))
	exe, err := i.Exec(ctx, rt, params, code, compiled)
	if err != nil {
		t.Fatal(err)
	}
	return rt, exe
}

func execute(t *testing.T, rt *core.Runtime, entry core.Offset) core.Word {
	if err := rt.Seek(entry).Err(); err != nil {
		t.Fatal(err)
	}
	r := rt.Exec()
	if r.Kind != core.Halt {
		t.Fatal(r)
	}
	return rt.Load(r.Offset())
}

func TestBuildSimple(t *testing.T) {
	code := `
var m = _.morph("ADD", _.params.a, _.params.b);
_.name("sum", m);
return m;
`
	rt, exe := run(t, NewInterpreter(), map[string]interface{}{"a": 3, "b": 4}, code)
	if exe.Entry != 0 {
		t.Fatalf("entry %d", exe.Entry)
	}
	if exe.Names["sum"] != 0 {
		t.Fatalf("names %#v", exe.Names)
	}
	if v := execute(t, rt, exe.Entry); v != 7 {
		t.Fatalf("got %d", v)
	}
}

// TestBuildUnrolled sums 1..n by generating one morph per term.
func TestBuildUnrolled(t *testing.T) {
	code := `
var first = _.morph("ADD", 0, 1);
var last = first;
for (var i = 2; i <= _.params.n; i++) {
  last = _.morph("ADD", _.ref(_.result(last)), i);
}
_.halt(_.result(last));
return first;
`
	rt, exe := run(t, NewInterpreter(), map[string]interface{}{"n": 10}, code)
	if v := execute(t, rt, exe.Entry); v != 55 {
		t.Fatalf("got %d", v)
	}
}

func TestBuildRule(t *testing.T) {
	code := `
var start = _.cursor();
var gt = _.morph("CMP", _.params.x, 5);
var big = _.morph("ADD", 100, 0);
var small = _.morph("ADD", 200, 0);
var jmp = _.morph("JMP", _.cursor() + _.morphSize("JMP"));
var r = _.rule([gt, _.otherwise], [big, small]);
if (r != jmp + _.morphSize("JMP")) { throw "bad layout"; }
if (_.cursor() != r + _.ruleSize(2)) { throw "bad size"; }
return jmp;
`
	rt, exe := run(t, NewInterpreter(), map[string]interface{}{"x": 9}, code)
	if v := execute(t, rt, exe.Entry); v != 100 {
		t.Fatalf("got %d", v)
	}

	rt, exe = run(t, NewInterpreter(), map[string]interface{}{"x": 5}, code)
	if v := execute(t, rt, exe.Entry); v != 200 {
		t.Fatalf("got %d", v)
	}
}

func TestBuildComposition(t *testing.T) {
	code := `
var entries = [];
for (var i = 0; i < 3; i++) {
  entries.push({name: "m" + i, morph: "ADD", args: [i, i]});
}
entries.push({halt: "@m2"});
return {entry: "m0", entries: entries};
`
	rt, exe := run(t, NewInterpreter(), nil, code)
	if exe.Names["m2"] != 12 {
		t.Fatalf("names %#v", exe.Names)
	}
	if v := execute(t, rt, exe.Entry); v != 4 {
		t.Fatalf("got %d", v)
	}
}

func TestBuildFault(t *testing.T) {
	code := `_.morph("ADD", 1); return 0;`

	ctx := context.Background()
	i := NewInterpreter()
	rt := core.NewRuntime(make([]core.Word, 32))
	_, err := i.Exec(ctx, rt, nil, code, nil)
	if err == nil {
		t.Fatal("didn't protest")
	}
	if !strings.Contains(err.Error(), "TOTALITY_FAULT") {
		t.Fatalf("surprised by %s", err)
	}
	if rt.Cursor() != 0 {
		t.Fatal("allocated anyway")
	}
}

func TestBuildMemLow(t *testing.T) {
	code := `for (;;) { _.morph("ADD", 1, 2); }`

	ctx := context.Background()
	rt := core.NewRuntime(make([]core.Word, 32))
	_, err := NewInterpreter().Exec(ctx, rt, nil, code, nil)
	if err == nil || !strings.Contains(err.Error(), "MEM_LOW") {
		t.Fatalf("surprised by %v", err)
	}
	if rt.Cursor() != 30 {
		t.Fatalf("cursor %d", rt.Cursor())
	}
}

func TestBuildBadComposition(t *testing.T) {
	code := `return {entries: [{morph: "MUL", args: [1, 2]}]};`

	ctx := context.Background()
	rt := core.NewRuntime(make([]core.Word, 32))
	if _, err := NewInterpreter().Exec(ctx, rt, nil, code, nil); err == nil {
		t.Fatal("didn't protest")
	}
}

func TestTimeout(t *testing.T) {
	code := `for (;;) { sleep(10); } return 0;`

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	i := NewInterpreter()
	i.Testing = true
	compiled, err := i.Compile(ctx, code)
	if err != nil {
		t.Fatal(err)
	}

	rt := core.NewRuntime(make([]core.Word, 32))
	if _, err = i.Exec(ctx, rt, nil, code, compiled); err == nil {
		t.Fatal("didn't timeout")
	}
	if msg := err.Error(); msg != InterruptedMessage {
		t.Fatalf("surprised by \"%s\"", msg)
	}
}

func TestRequireSimple(t *testing.T) {
	code := map[string]interface{}{
		"requires": []interface{}{"double"},
		"code":     `return double(21);`,
	}

	i := NewInterpreter()
	i.LibraryProvider = MakeMapLibraryProvider(map[string]string{
		"double": `
function double(x) {
  var m = _.morph("ADD", x, x);
  _.halt(_.result(m));
  return m;
}
`,
	})

	rt, exe := run(t, i, nil, code)
	if v := execute(t, rt, exe.Entry); v != 42 {
		t.Fatalf("got %d", v)
	}
}

func TestRequireMissing(t *testing.T) {
	code := map[string]interface{}{
		"requires": "nope",
		"code":     `return 0;`,
	}

	i := NewInterpreter()
	i.LibraryProvider = MakeMapLibraryProvider(nil)
	if _, err := i.Compile(context.Background(), code); err == nil {
		t.Fatal("should have complained")
	}
}

func TestRequireHTTP(t *testing.T) {

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `
function seven() { return _.morph("SUB", 10, 3); }
`)
	})

	server := httptest.NewServer(handler)
	defer server.Close()

	code := map[string]interface{}{
		"requires": []interface{}{server.URL},
		"code":     `return seven();`,
	}

	rt, exe := run(t, NewInterpreter(), nil, code)
	if v := execute(t, rt, exe.Entry); v != 7 {
		t.Fatalf("got %d", v)
	}
}

func TestAsSource(t *testing.T) {
	if _, _, err := AsSource(42); err == nil {
		t.Fatal("42?")
	}
	code, libs, err := AsSource(map[interface{}]interface{}{
		"code":     "return 1;",
		"requires": "a",
	})
	if err != nil {
		t.Fatal(err)
	}
	if code != "return 1;" || len(libs) != 1 || libs[0] != "a" {
		t.Fatal(code, libs)
	}
}
