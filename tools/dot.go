package tools

// dot -Tpng g.dot > g.png

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"strings"

	"github.com/Comcast/morpha/core"
)

// Dot makes a Graphviz dot file for the given arena.  A really ugly
// dot file.
//
// Each morph, rule, and halt is a node.  Fall-through edges are
// dashed, jumps are bold, and rule branches are labeled with their
// conditions.  If from and to are both records, the edge between them
// is red.  Cells aren't shown.
func Dot(rt *core.Runtime, names map[string]core.Offset, w io.WriteCloser, from, to core.Offset) error {
	lines, err := Listing(rt, names)
	if err != nil {
		log.Printf("Dot listing error: %v", err)
	}
	labels := Labels(names)

	fmt.Fprintf(w, "digraph G {\n")
	fmt.Fprintf(w, `  graph [ordering=out,rankdir=TB,nodesep=0.3,ranksep=0.6]
  node [shape="record" style="rounded,filled"]
  edge [fontsize = "12"]
`)

	nid := func(o core.Offset) string {
		return fmt.Sprintf("r%d", o)
	}

	end := rt.Cursor()
	needEnd := false

	edge := func(f, t core.Offset, style, label string) {
		if rt.KindAt(t) == 0 {
			needEnd = true
		}
		color := "black"
		if f == from && t == to {
			color = "red"
		}
		node := nid(t)
		if rt.KindAt(t) == 0 {
			node = "end"
		}
		fmt.Fprintf(w, "  %s -> %s [ color=\"%s\" style=\"%s\" label = <%s> ]\n",
			nid(f), node, color, style, label)
	}

	for _, l := range lines {
		if l.Kind == 0 {
			continue
		}

		title := fmt.Sprintf("%d", l.At)
		if l.Name != "" {
			title = l.Name + " @" + title
		}
		text := strings.Replace(l.Text, ">", `&gt;`, -1)

		fillcolor := "#99ddc8"
		shape := "record"
		style := "filled"
		switch l.Kind {
		case core.KindRule:
			fillcolor = "#2d93ad"
			shape = "diamond"
		case core.KindHalt:
			fillcolor = "#f2dfbc"
			style += ",bold"
		}
		if l.At == to {
			fillcolor = "#f98b8b"
		}

		fmt.Fprintf(w, "  %s [shape=\"%s\", style=\"%s\", fillcolor=\"%s\", label=<%s<BR/><FONT POINT-SIZE='8'>%s</FONT>> ]\n",
			nid(l.At), shape, style, fillcolor, title, text)

		next := l.At + core.Offset(l.Size)
		switch l.Kind {
		case core.KindMorph:
			m, err := rt.Morph(l.At)
			if err != nil {
				return err
			}
			if m.Op == core.OpJmp {
				edge(l.At, core.Offset(m.Operands[0].Value), "bold", "jmp")
			} else {
				edge(l.At, next, "dashed", "")
			}

		case core.KindRule:
			r, err := rt.Rule(l.At)
			if err != nil {
				return err
			}
			for i, c := range r.Conds {
				target := next
				style := "solid"
				if m, err := rt.Morph(r.Morphs[i]); err == nil && m.Op == core.OpJmp {
					target = core.Offset(m.Operands[0].Value)
					style = "bold"
				}
				edge(l.At, target, style, fmt.Sprintf("%d/%d %s: %s",
					i+1, len(r.Conds), label(labels, c), label(labels, r.Morphs[i])))
			}
		}
	}

	if needEnd {
		fmt.Fprintf(w, "  end [shape=\"circle\", style=\"dashed\", label=\"%d\"]\n", end)
	}

	fmt.Fprintf(w, "}\n")
	return w.Close()
}

// PNG generates a PNG image based on output from Dot.
//
// This function with write two files: basename.dot and basename.png,
// where the basename is the given string.
func PNG(rt *core.Runtime, names map[string]core.Offset, basename string, from, to core.Offset) (string, error) {
	dotname := basename + ".dot"
	pngname := basename + ".png"

	dotfile, err := os.Create(dotname)
	if err != nil {
		return pngname, err
	}
	if err := Dot(rt, names, dotfile, from, to); err != nil {
		return pngname, err
	}
	cmd := "dot -Tpng -Gstart=1 " + dotname + " > " + pngname
	if err := exec.Command("bash", "-c", cmd).Run(); err != nil {
		return pngname, err
	}
	return pngname, nil
}
