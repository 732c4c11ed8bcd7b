package tools

import (
	"bytes"
	"fmt"
	"html"
	"io"

	"github.com/Comcast/morpha/comp"
	"github.com/Comcast/morpha/core"

	md "github.com/russross/blackfriday/v2"
)

type closingBuffer struct {
	bytes.Buffer
}

func (b *closingBuffer) Close() error {
	return nil
}

// RenderCompositionHTML writes an HTML table describing each entry
// of an assembled composition.
func RenderCompositionHTML(c *comp.Composition, l *comp.Layout, rt *core.Runtime, out io.Writer) error {
	f := func(format string, args ...interface{}) {
		fmt.Fprintf(out, format+"\n", args...)
	}

	lines, err := Listing(rt, l.Offsets)
	if err != nil {
		return err
	}
	texts := make(map[core.Offset]string, len(lines))
	for _, line := range lines {
		texts[line.At] = line.Text
	}

	f(`<div class="compDoc doc">%s</div>`, md.Run([]byte(c.Doc)))

	f(`<div class="entries"><table>`)
	for i, e := range c.Entries {
		at := l.At[i]
		kind, _ := e.Kind()
		class := "entry " + kind
		if at == l.Entry {
			class += " start"
		}
		f(`<tr class="%s"><td><span class="offset">%d</span></td>`, class, at)
		if e.Name != "" {
			f(`<td><span id="%s" class="entryName">%s</span></td><td>`, e.Name, html.EscapeString(e.Name))
		} else {
			f(`<td></td><td>`)
		}
		if e.Doc != "" {
			f(`<div class="entryDoc doc">%s</div>`, md.Run([]byte(e.Doc)))
		}
		f(`<div class="code"><pre>%s</pre></div>`, html.EscapeString(texts[at]))
		if e.Rule != nil {
			f(`<table class="branches">`)
			for j, b := range e.Rule {
				when := b.When
				if when == "" {
					when = "_"
				}
				f(`<tr><td><div class="branchNum">%d</div></td><td><code>%s</code></td><td><a href="#%s"><code>%s</code></a></td></tr>`,
					j, html.EscapeString(when), b.Do, html.EscapeString(b.Do))
			}
			f(`</table>`)
		}
		f(`</td></tr>`)
	}
	f(`</table></div>`)

	return nil
}

// RenderCompositionPage writes a complete HTML page.  If includeGraph
// is true, the page includes a Mermaid graph of the control flow.
func RenderCompositionPage(c *comp.Composition, l *comp.Layout, rt *core.Runtime, out io.Writer, cssFiles []string, includeGraph bool) error {

	if cssFiles == nil {
		cssFiles = []string{"/static/comp-html.css"}
	}

	title := html.EscapeString(c.Name)

	fmt.Fprintf(out, `<!DOCTYPE html>
<meta charset="utf-8">
<html>
  <head>
  <title>%s</title>
`, title)

	if includeGraph {
		fmt.Fprintf(out, `
  <script src="https://cdn.jsdelivr.net/npm/mermaid/dist/mermaid.min.js"></script>
  <script>mermaid.initialize({startOnLoad:true});</script>
`)
	}

	for _, cssFile := range cssFiles {
		fmt.Fprintf(out, "  <link href=\"%s\" rel=\"stylesheet\">\n", cssFile)
	}

	fmt.Fprintf(out, `
  </head>
  <body>
    <h1>%s</h1>
`, title)

	if includeGraph {
		var g closingBuffer
		if err := Mermaid(rt, l.Offsets, &g, nil); err != nil {
			return err
		}
		fmt.Fprintf(out, "<div class=\"mermaid\">\n%s</div>\n", html.EscapeString(g.String()))
	}

	if err := RenderCompositionHTML(c, l, rt, out); err != nil {
		return err
	}

	fmt.Fprintf(out, `
  </body>
</html>
`)

	return nil
}

// ReadAndRenderCompositionPage reads a composition from a file,
// assembles it, and renders it.
func ReadAndRenderCompositionPage(filename string, cssFiles []string, out io.Writer, includeGraph bool) error {
	c, err := comp.ReadFile(filename)
	if err != nil {
		return err
	}
	rt, l, err := comp.Load(c, 0)
	if err != nil {
		return err
	}
	return RenderCompositionPage(c, l, rt, out, cssFiles, includeGraph)
}
