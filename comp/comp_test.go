package comp

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/Comcast/morpha/core"

	"github.com/stretchr/testify/require"
)

func TestReadFile(t *testing.T) {
	c, err := ReadFile("testdata/distance.yaml")
	require.NoError(t, err)
	require.Equal(t, "distance", c.Name)
	require.Equal(t, "cmp", c.Entry)
	require.Len(t, c.Entries, 7)

	jmp := c.Entries[1]
	kind, err := jmp.Kind()
	require.NoError(t, err)
	require.Equal(t, "morph", kind)
	require.Equal(t, []Arg{Sym("choose")}, jmp.Args)
	require.Equal(t, []Arg{Sym("@cmp"), Num(1)}, c.Entries[2].Args)
	require.Equal(t, &Arg{Sym: "@ab"}, c.Entries[6].Halt)
}

func TestPlan(t *testing.T) {
	c, err := ReadFile("testdata/distance.yaml")
	require.NoError(t, err)

	l, err := c.Plan(10)
	require.NoError(t, err)

	require.Equal(t, core.Offset(10), l.Start)
	require.Equal(t, core.Offset(10), l.Entry)
	require.Equal(t, core.Offset(10+38), l.End)
	require.Equal(t, 38, l.Size())
	require.Equal(t, core.Offset(10+29), l.Offsets["choose"])
	require.Equal(t, core.Offset(10+28), l.Values["ab"])
	require.Equal(t, core.Offset(10+37), l.Values["done"])

	_, hasValue := l.Values["choose"]
	require.False(t, hasValue)

	name, found := l.Name(10 + 23)
	require.True(t, found)
	require.Equal(t, "ab", name)
}

func TestAssembleAndRun(t *testing.T) {
	c, err := ReadFile("testdata/distance.yaml")
	require.NoError(t, err)

	rt, l, err := Load(c, core.DefaultBlock)
	require.NoError(t, err)
	require.Equal(t, core.DefaultBlock, rt.Size())
	require.Equal(t, l.End, rt.Cursor())
	require.Equal(t, core.Running, rt.State())

	r := rt.Exec()
	require.Equal(t, core.Halt, r.Kind)
	require.Equal(t, l.Values["ab"], r.Offset())
	require.Equal(t, core.Word(5), rt.Load(r.Offset()))
}

func TestJSON(t *testing.T) {
	c, err := ReadFile("testdata/sum.json")
	require.NoError(t, err)
	require.Equal(t, "sum", c.Name)

	rt, l, err := Load(c, 0)
	require.NoError(t, err)
	require.Equal(t, l.Size(), rt.Size())
	require.Equal(t, l.Offsets["a"], l.Entry)

	r := rt.Exec()
	require.Equal(t, core.Halt, r.Kind)
	require.Equal(t, core.Word(12), rt.Load(r.Offset()))

	js, err := json.Marshal(c.Entries[1].Args)
	require.NoError(t, err)
	require.Equal(t, `["xs+1"]`, string(js))
}

func TestArgs(t *testing.T) {
	var as []Arg
	require.NoError(t, json.Unmarshal([]byte(`[1, "x", "@y+2", -1]`), &as))
	require.Equal(t, []Arg{Num(1), Sym("x"), Sym("@y+2"), {Value: ^core.Word(0)}}, as)

	require.Error(t, json.Unmarshal([]byte(`[""]`), &as))
	require.Error(t, json.Unmarshal([]byte(`[1.5]`), &as))
	require.Error(t, json.Unmarshal([]byte(`[{}]`), &as))

	require.Equal(t, "@y+2", Sym("@y+2").String())
	require.Equal(t, "42", Num(42).String())
}

func TestOperands(t *testing.T) {
	l := &Layout{
		Offsets: map[string]core.Offset{"m": 10, "r": 20},
		Values:  map[string]core.Offset{"m": 15},
	}

	for sym, want := range map[string]core.Operand{
		"m":    core.Imm(10),
		"m+3":  core.Imm(13),
		"@m":   core.Ref(15),
		"@m+1": core.Ref(16),
		"@40":  core.Ref(40),
		"r":    core.Imm(20),
	} {
		got, err := l.operand(Sym(sym))
		require.NoError(t, err, sym)
		require.Equal(t, want, got, sym)
	}

	for _, sym := range []string{"@r", "nope", "@nope", "m+x"} {
		_, err := l.operand(Sym(sym))
		require.Error(t, err, sym)
	}
}

func TestBadCompositions(t *testing.T) {
	for name, src := range map[string]string{
		"empty entry":     `entries: [{name: x}]`,
		"two kinds":       `entries: [{name: x, cell: [], halt: 0}]`,
		"unknown op":      `entries: [{morph: MUL, args: [1, 2]}]`,
		"duplicate":       `entries: [{name: x, cell: []}, {name: x, cell: []}]`,
		"unknown entry":   `{entry: y, entries: [{name: x, cell: []}]}`,
		"cell entry":      `{entry: x, entries: [{name: x, cell: []}]}`,
		"unknown name":    `entries: [{morph: ADD, args: ["@z", 1]}]`,
		"no default":      `entries: [{name: m, morph: ADD, args: [1, 1]}, {rule: [{when: m, do: m}]}]`,
		"backward jump":   `entries: [{name: j, morph: JMP, args: [j]}]`,
		"jump condition":  `entries: [{name: j, morph: JMP, args: [100]}, {rule: [{when: j, do: j}, {do: j}]}]`,
		"arity":           `entries: [{morph: ADD, args: [1]}]`,
		"missing do":      `entries: [{rule: [{}]}]`,
		"rule has values": `entries: [{name: r, rule: [{do: m}]}, {name: m, morph: ADD, args: ["@r", 1]}]`,
	} {
		t.Run(name, func(t *testing.T) {
			c, err := Parse([]byte(src))
			require.NoError(t, err)

			rt := core.NewRuntime(make([]core.Word, core.DefaultBlock))
			rt.AllocateCell([]core.Offset{7})
			rt.Raw()[5] = 42
			before := rt.Snapshot()
			raw := append([]core.Word(nil), rt.Raw()...)

			_, err = c.Assemble(rt)
			require.Error(t, err)
			require.Equal(t, before, rt.Snapshot())
			require.Equal(t, raw, rt.Raw())
		})
	}
}

func TestAssembleMemLow(t *testing.T) {
	c, err := ReadFile("testdata/distance.yaml")
	require.NoError(t, err)

	rt := core.NewRuntime(make([]core.Word, 32))
	_, err = c.Assemble(rt)

	var re *core.ResultError
	require.True(t, errors.As(err, &re))
	require.Equal(t, core.MemLow, re.Result.Kind)
	require.Equal(t, 38-32, re.Result.Data)
	require.Equal(t, core.Offset(0), rt.Cursor())

	// Grow and retry.
	require.Equal(t, core.OK, rt.Remap(make([]core.Word, 64)).Kind)
	l, err := c.Assemble(rt)
	require.NoError(t, err)
	require.Equal(t, core.Offset(38), l.End)
}
