package storage

import (
	"context"
	"testing"

	"github.com/Comcast/morpha/core"
)

func TestImpl(t *testing.T) {
	var _ Storage = &NoopStorage{}
	var _ Storage = NewMemStorage()
}

func TestMem(t *testing.T) {
	ctx := context.Background()

	rt := core.NewRuntime(make([]core.Word, core.DefaultBlock))
	entry, err := core.Distance(rt, 4, 9)
	if err != nil {
		t.Fatal(err)
	}
	rt.Seek(entry)

	s := NewMemStorage()
	if err := s.Put(ctx, NewImage("d", rt, map[string]core.Offset{"entry": entry})); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "nope"); err != NotFound {
		t.Fatal(err)
	}

	img, err := s.Get(ctx, "d")
	if err != nil {
		t.Fatal(err)
	}
	restored, err := img.Runtime(0)
	if err != nil {
		t.Fatal(err)
	}
	if restored.Size() != core.DefaultBlock {
		t.Fatalf("size %d", restored.Size())
	}
	r := restored.Exec()
	if r.Kind != core.Halt || restored.Load(r.Offset()) != 5 {
		t.Fatal(r)
	}

	// The original is untouched.
	if rt.Pos() != entry {
		t.Fatal(rt.Pos())
	}

	names, _ := s.List(ctx)
	if len(names) != 1 || names[0] != "d" {
		t.Fatal(names)
	}
	s.Rem(ctx, "d")
	if _, err := s.Get(ctx, "d"); err != NotFound {
		t.Fatal(err)
	}
}
