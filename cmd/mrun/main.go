// A simple, single-process runner that reads from stdin and writes
// to stdout.
//
// With -c, the composition in the given file runs once.  With -s,
// each line of stdin is a JSON object of params for the script in
// the given file, which builds an arena that then runs.  Each run
// writes its Response as a line of JSON.

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"os"

	"github.com/Comcast/morpha/comp"
	"github.com/Comcast/morpha/core"
	"github.com/Comcast/morpha/interpreters/goja"
	"github.com/Comcast/morpha/service"
	"github.com/Comcast/morpha/storage"
	. "github.com/Comcast/morpha/util/testutil"
)

func main() {

	var (
		compFilename   = flag.String("c", "", "composition filename (YAML or JSON)")
		scriptFilename = flag.String("s", "", "script filename")
		entry          = flag.String("n", "", "optional entry name")
		size           = flag.Int("m", core.DefaultBlock, "arena size in words")
		limit          = flag.Int("l", 0, "step limit (0 for enough)")

		diag = flag.Bool("d", false, "print diagnostics")
		echo = flag.Bool("e", false, "echo input params")

		libDir = flag.String("i", ".", "directory for script libraries")
	)

	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := service.NewService()
	s.Storage = &storage.NoopStorage{}
	s.BlockSize = *size
	s.Builder = goja.NewInterpreter()
	s.Builder.LibraryProvider = goja.MakeFileLibraryProvider(*libDir)

	process := func(req *service.Request) error {
		req.Entry = *entry
		req.Limit = *limit
		req.Trace = *diag

		resp, err := s.Run(ctx, req)
		if err != nil {
			return err
		}

		if *diag {
			for i, stride := range resp.Strides {
				fmt.Printf("# %02d from %04d %s\n", i, stride.From, stride.Result)
			}
			resp.Strides = nil
		}

		fmt.Printf("%s\n", JS(resp))
		return nil
	}

	switch {
	case *compFilename != "":
		c, err := comp.ReadFile(*compFilename)
		if err != nil {
			panic(err)
		}
		if err = process(&service.Request{Composition: c}); err != nil {
			fmt.Printf("error: %s\n", err)
			os.Exit(1)
		}

	case *scriptFilename != "":
		src, err := ioutil.ReadFile(*scriptFilename)
		if err != nil {
			panic(err)
		}

		in := bufio.NewReader(os.Stdin)
		for {
			line, err := in.ReadBytes('\n')
			if err == io.EOF {
				break
			}
			if err != nil {
				panic(err)
			}
			var params map[string]interface{}
			if err = json.Unmarshal(line, &params); err != nil {
				fmt.Printf("error: %s\n", err)
				continue
			}

			if *echo {
				fmt.Printf("in: %s\n", JS(params))
			}

			req := &service.Request{
				Script: string(src),
				Params: params,
			}
			if err = process(req); err != nil {
				fmt.Printf("error: %s\n", err)
			}
		}

	default:
		fmt.Fprintf(os.Stderr, "need -c or -s\n")
		flag.Usage()
		os.Exit(1)
	}
}
