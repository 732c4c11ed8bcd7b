package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestResultJSON(t *testing.T) {
	rt := newTestRuntime(16)
	r := rt.CreateMorph(OpAdd, Imm(1))

	js, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	if s := string(js); s != `{"data":0,"kind":"TOTALITY_FAULT","reason":"ADD takes 2 operands, not 1"}` {
		t.Fatal(s)
	}

	var got Result
	if err := json.Unmarshal(js, &got); err != nil {
		t.Fatal(err)
	}
	if got.String() != r.String() {
		t.Fatalf("%s != %s", got, r)
	}

	if err := json.Unmarshal([]byte(`{"kind":"MAYBE"}`), &got); err == nil {
		t.Fatal("MAYBE?")
	}
}

func TestResultErr(t *testing.T) {
	if ok(3).Err() != nil || halt(3).Err() != nil {
		t.Fatal("OK and Halt aren't errors")
	}

	err := fault(0, EmptyRule).Err()
	var re *ResultError
	if !errors.As(err, &re) || re.Result.Kind != TotalityFault {
		t.Fatal(err)
	}
	if !errors.Is(err, EmptyRule) {
		t.Fatal("lost the reason")
	}

	if s := memLow(4).String(); s != "MEM_LOW(4)" {
		t.Fatal(s)
	}
	if k, err := ParseResultKind("HALT"); err != nil || k != Halt {
		t.Fatal(k, err)
	}
}
