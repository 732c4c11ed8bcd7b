package testutil

import (
	"testing"
)

type Record struct {
	Kind string
	At   int
}

func TestJS(t *testing.T) {
	tests := []struct {
		name string
		arg  interface{}
		want string
	}{
		{
			name: "simple struct",
			arg:  Record{"morph", 6},
			want: `{"Kind":"morph","At":6}`,
		},
		{
			name: "nested struct",
			arg: struct {
				Record Record
				Size   int
			}{Record{"rule", 11}, 7},
			want: `{"Record":{"Kind":"rule","At":11},"Size":7}`,
		},
		{
			name: "unmarshalable",
			arg:  make(chan int),
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := JS(tt.arg)
			if tt.want == "" {
				if got == "" {
					t.Errorf("JS() returned nothing")
				}
				return
			}
			if got != tt.want {
				t.Errorf("JS() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	rt, l := Load(t, "../../comp/testdata/sum.json", 0)
	if rt.Pos() != l.Entry {
		t.Fatalf("at %d, not %d", rt.Pos(), l.Entry)
	}
	if v := Value(t, rt); v != 12 {
		t.Fatalf("got %d", v)
	}
}
