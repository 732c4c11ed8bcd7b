package core

import (
	"testing"
)

func TestScan(t *testing.T) {
	rt := newTestRuntime(DefaultBlock)
	cell := mustOK(t, rt.AllocateCell([]Offset{1, 2, 3}))
	entry, err := Distance(rt, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	h := mustOK(t, rt.CreateHalt(entry))

	spans, err := rt.Scan()
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"cell", "morph", "morph", "morph", "morph", "morph", "rule", "halt"}
	if len(spans) != len(want) {
		t.Fatalf("found %d spans: %#v", len(spans), spans)
	}
	for i, s := range spans {
		if s.KindName() != want[i] {
			t.Fatalf("span %d is a %s", i, s.KindName())
		}
	}
	if spans[0].At != cell || spans[0].Size != CellSize(3) {
		t.Fatalf("bad cell %#v", spans[0])
	}
	if spans[1].At != entry {
		t.Fatalf("bad entry %#v", spans[1])
	}
	if last := spans[len(spans)-1]; last.At != h || int(last.At)+last.Size != int(rt.Cursor()) {
		t.Fatalf("bad halt %#v", last)
	}
}

func TestScanTruncated(t *testing.T) {
	rt := newTestRuntime(16)
	c := mustOK(t, rt.AllocateCell([]Offset{1, 2}))
	rt.Store(c, 9)

	spans, err := rt.Scan()
	if err == nil {
		t.Fatal("should have complained")
	}
	if len(spans) != 0 {
		t.Fatalf("found %#v", spans)
	}
}
