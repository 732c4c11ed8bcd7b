package core

import (
	"context"
	"testing"
)

func TestWalk(t *testing.T) {
	rt := newTestRuntime(DefaultBlock)
	entry, err := Distance(rt, 7, 2)
	if err != nil {
		t.Fatal(err)
	}
	mustOK(t, rt.Seek(entry))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	walked, err := rt.Walk(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if walked.StoppedBecause != Done {
		t.Fatalf("bad reason: %s", walked.StoppedBecause)
	}
	// CMP, JMP, rule, halt.
	if n := len(walked.Strides); n != 4 {
		t.Fatalf("took %d strides", n)
	}
	last, _ := walked.Last()
	if rt.Load(last.Offset()) != 5 {
		t.Fatalf("distance %d", rt.Load(last.Offset()))
	}
	if s := walked.Strides[0]; s.Value != 1 || s.From != entry {
		t.Fatalf("first stride %#v", s)
	}

	// Positions only increase.
	for i := 1; i < len(walked.Strides); i++ {
		if walked.Strides[i].From <= walked.Strides[i-1].From {
			t.Fatalf("stride %d went backward", i)
		}
	}
}

func TestWalkLimit(t *testing.T) {
	rt := newTestRuntime(DefaultBlock)
	entry, err := Distance(rt, 7, 2)
	if err != nil {
		t.Fatal(err)
	}
	mustOK(t, rt.Seek(entry))

	walked, err := rt.Walk(context.Background(), &Control{Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if walked.StoppedBecause != Limited {
		t.Fatalf("bad reason: %s", walked.StoppedBecause)
	}
	if rt.State() != Running {
		t.Fatalf("state %s", rt.State())
	}
}

func TestWalkBreakpoint(t *testing.T) {
	rt := newTestRuntime(DefaultBlock)
	entry, err := Distance(rt, 7, 2)
	if err != nil {
		t.Fatal(err)
	}
	mustOK(t, rt.Seek(entry))

	rule := entry + Offset(MorphSize(OpCmp)+MorphSize(OpJmp)+3*MorphSize(OpSub))
	c := DefaultControl.Copy()
	c.Breakpoints["rule"] = AtOffset(rule)

	walked, err := rt.Walk(context.Background(), c)
	if err != nil {
		t.Fatal(err)
	}
	if walked.StoppedBecause != BreakpointReached {
		t.Fatalf("bad reason: %s", walked.StoppedBecause)
	}
	if walked.BreakpointId != "rule" {
		t.Fatalf("breakpoint %s", walked.BreakpointId)
	}
	if rt.Pos() != rule {
		t.Fatalf("stopped at %d", rt.Pos())
	}

	// Carry on.
	delete(c.Breakpoints, "rule")
	if walked, err = rt.Walk(context.Background(), c); err != nil {
		t.Fatal(err)
	}
	if walked.StoppedBecause != Done {
		t.Fatalf("bad reason: %s", walked.StoppedBecause)
	}
}

func TestWalkFault(t *testing.T) {
	rt := newTestRuntime(64)
	m := mustOK(t, rt.CreateMorph(OpOffset, Imm(1000)))
	mustOK(t, rt.Seek(m))

	walked, err := rt.Walk(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if walked.StoppedBecause != Faulted {
		t.Fatalf("bad reason: %s", walked.StoppedBecause)
	}
}

func TestWalkCanceled(t *testing.T) {
	rt := newTestRuntime(64)
	m := mustOK(t, rt.CreateMorph(OpAdd, Imm(1), Imm(1)))
	mustOK(t, rt.Seek(m))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := rt.Walk(ctx, nil); err == nil {
		t.Fatal("walked anyway")
	}
	if rt.Pos() != m {
		t.Fatal("stepped anyway")
	}
}
