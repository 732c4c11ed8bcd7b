package tools

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDot(t *testing.T) {
	rt, l := distance(t)

	filename := filepath.Join(t.TempDir(), "g.dot")
	out, err := os.Create(filename)
	require.NoError(t, err)

	require.NoError(t, Dot(rt, l.Offsets, out, 6, 29))

	bs, err := os.ReadFile(filename)
	require.NoError(t, err)
	g := string(bs)

	require.True(t, strings.HasPrefix(g, "digraph G {"))
	require.Contains(t, g, `r6 -> r29 [ color="red" style="bold"`)
	require.Contains(t, g, `r29 -> r36 [ color="black" style="solid" label = <1/2 ng: ba> ]`)
	require.Contains(t, g, `r29 -> r36 [ color="black" style="solid" label = <2/2 _: ab> ]`)
	require.NotContains(t, g, "end [")
}

func TestMermaid(t *testing.T) {
	rt, l := distance(t)

	var out closingBuffer
	require.NoError(t, Mermaid(rt, l.Offsets, &out, nil))

	g := out.String()
	require.True(t, strings.HasPrefix(g, "graph TB\n"))
	require.Contains(t, g, "  n0 --> n6\n")
	require.Contains(t, g, "  n6 ==> n29\n")
	require.Contains(t, g, `  n29{"choose: RULE ng => ba, _ => ab"}`)
	require.Contains(t, g, `  n29 -- "_" --> n36`)
	require.Contains(t, g, `  n36(("done: HALT @28"))`)
}
