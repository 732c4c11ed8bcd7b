// Package main is a command-line tool for working with compositions.
//
// The composition (YAML or JSON) is read from stdin.  Most
// subcommands write the (possibly modified) composition as YAML to
// stdout.  Reports go to stderr or to a file.
package main

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"sort"

	"github.com/Comcast/morpha/comp"

	"github.com/jsccast/yaml"
)

func main() {

	if len(os.Args) < 2 {
		Usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "yamltojson":
		pretty := false

		switch len(os.Args) {
		case 2:
		case 3:
			switch os.Args[2] {
			case "-p":
				pretty = true
			default:
				panic(fmt.Sprintf("unsupported args: %v", os.Args[1:]))
			}
		default:
			panic(fmt.Sprintf("unsupported args: %v", os.Args[1:]))
		}

		c := read()

		var (
			bs  []byte
			err error
		)
		if pretty {
			bs, err = json.MarshalIndent(c, "", "  ")
		} else {
			bs, err = json.Marshal(c)
		}
		check(err)
		write(bs)

	case "jsontoyaml":
		bs, err := ioutil.ReadAll(os.Stdin)
		check(err)

		var c *comp.Composition
		check(json.Unmarshal(bs, &c))

		bs, err = yaml.Marshal(c)
		check(err)
		write(bs)

	default:

		mod, have := Mods[os.Args[1]]
		if !have {
			fmt.Printf("Unknown subcommand \"%s\"\n", os.Args[1])
			Usage()
			os.Exit(1)
		}

		check(mod.Flags().Parse(os.Args[2:]))

		c := read()
		check(mod.F(c))

		bs, err := yaml.Marshal(c)
		check(err)
		write(bs)
	}
}

func read() *comp.Composition {
	bs, err := ioutil.ReadAll(os.Stdin)
	check(err)
	if len(bs) == 0 {
		bs = []byte(DefaultCompositionYAML)
	}
	c, err := comp.Parse(bs)
	check(err)
	return c
}

func write(bs []byte) {
	_, err := os.Stdout.Write(bs)
	check(err)
}

func check(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func Usage() {
	names := make([]string, 0, len(Mods))
	for name := range Mods {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("Subcommands:\n\n")
	for _, name := range names {
		mod := Mods[name]
		mod.Flags().Usage()
		fmt.Println("  " + mod.Doc())
		fmt.Println()
	}
	fmt.Println("Usage of yamltojson:")
	fmt.Printf("  -p    pretty-print\n\n")
	fmt.Printf("Usage of jsontoyaml: (no arguments)\n\n")
}

var DefaultCompositionYAML = `entries: []
`
