package util

import (
	"reflect"
	"testing"
)

func TestFields(t *testing.T) {
	for line, want := range map[string][]string{
		"":                     {},
		"step":                 {"step"},
		"  seek   12 ":         {"seek", "12"},
		"peek 0 6 # the morph": {"peek", "0", "6"},
		"# all comment":        {},
	} {
		if got := Fields(line); !reflect.DeepEqual(got, want) {
			t.Fatalf("%q: %#v != %#v", line, got, want)
		}
	}
}
