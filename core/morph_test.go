package core

import (
	"testing"
)

func TestMorphString(t *testing.T) {
	rt := newTestRuntime(64)
	a := mustOK(t, rt.CreateMorph(OpAdd, Imm(3), Imm(4)))
	b := mustOK(t, rt.CreateMorph(OpSub, Ref(a+5), Imm(1)))

	m, err := rt.Morph(b)
	if err != nil {
		t.Fatal(err)
	}
	if s := m.String(); s != "SUB @5 1" {
		t.Fatal(s)
	}
	if m.Constant() {
		t.Fatal("shouldn't be constant")
	}

	// Eval sees the current value of the reference.
	if v, err := rt.Eval(m); err != nil || v != ^Word(0) {
		t.Fatal(v, err)
	}
	rt.Store(a+5, 10)
	if v, err := rt.Eval(m); err != nil || v != 9 {
		t.Fatal(v, err)
	}
	if rt.Load(m.Result) != 0 {
		t.Fatal("Eval wrote")
	}

	if m, _ = rt.Morph(a); !m.Constant() {
		t.Fatal("should be constant")
	}
}

func TestParseOperator(t *testing.T) {
	for _, op := range Operators() {
		got, err := ParseOperator(op.String())
		if err != nil {
			t.Fatal(err)
		}
		if got != op {
			t.Fatalf("%s != %s", got, op)
		}
	}
	if op, err := ParseOperator("cmp"); err != nil || op != OpCmp {
		t.Fatal(op, err)
	}
	if _, err := ParseOperator("MUL"); err == nil {
		t.Fatal("MUL?")
	}
	if Operator(99).Arity() != -1 || MorphSize(Operator(99)) != 0 {
		t.Fatal("invalid operator has a size")
	}
}
