// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"regexp"
	"runtime/debug"

	"golang.org/x/term"
	"src.elv.sh/pkg/diag"

	"github.com/parable-parser/parable/syntax"
	"github.com/parable-parser/parable/syntax/typedjson"
)

var (
	showVersion = flag.Bool("version", false, "")

	file        = flag.String("f", "", "")
	extglob     = flag.Bool("extglob", false, "")
	depth       = flag.Int("depth", 0, "")
	verbose     = flag.Bool("v", false, "")
	toJSON      = flag.Bool("tojson", false, "")
	interactive = flag.Bool("i", false, "")

	// useEditorConfig will be false if any parser flags were used.
	useEditorConfig = true

	in     io.Reader = os.Stdin
	out    io.Writer = os.Stdout
	errOut io.Writer = os.Stderr

	version = "(devel)" // to match the default from runtime/debug
)

func main() {
	os.Exit(main1())
}

func main1() int {
	flag.CommandLine.SetOutput(errOut)
	flag.Usage = func() {
		fmt.Fprint(errOut, `usage: parable [flags] 'source'
       parable [flags] -f path

Parses bash source and prints one S-expression per top-level command.
If -f names a directory, it is recursively searched for shell files,
both by filename extension and by shebang. A path of '-' reads
standard input.

  -version   show version and exit

  -f path    parse a file or directory instead of an argument
  -extglob   enable extended globbing patterns
  -depth n   nesting limit (0 for the default, <0 for none)
  -v         show the source context of parse errors
  -tojson    print the syntax tree as typed JSON
  -i         read commands interactively
`)
	}
	flag.Parse()

	if *showVersion {
		// don't overwrite the version if it was set by -ldflags=-X
		if info, ok := debug.ReadBuildInfo(); ok && version == "(devel)" {
			mod := &info.Main
			if mod.Replace != nil {
				mod = mod.Replace
			}
			if mod.Version != "" {
				version = mod.Version
			}
		}
		fmt.Fprintln(out, version)
		return 0
	}
	if os.Getenv("PARABLE_NO_EDITORCONFIG") == "true" {
		useEditorConfig = false
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "extglob", "depth":
			useEditorConfig = false
		}
	})

	switch {
	case *interactive:
		if *file != "" || flag.NArg() > 0 {
			fmt.Fprintln(errOut, "-i cannot be used with -f or an argument")
			return 1
		}
		if err := runInteractive(in, out, errOut); err != nil {
			fmt.Fprintln(errOut, "Error:", err)
			return 1
		}
		return 0
	case *file != "":
		if flag.NArg() > 0 {
			fmt.Fprintln(errOut, "-f cannot be used with an argument")
			return 1
		}
		if *file == "-" {
			src, err := io.ReadAll(bufio.NewReader(in))
			if err != nil {
				fmt.Fprintln(errOut, "Error:", err)
				return 1
			}
			return reportStatus(parseBytes(src, "<standard input>", config()))
		}
		return parsePaths(*file)
	case flag.NArg() == 1:
		return reportStatus(parseBytes([]byte(flag.Arg(0)), "", config()))
	}
	flag.Usage()
	return 1
}

func reportStatus(err error) int {
	if err != nil {
		return 1
	}
	return 0
}

// config returns the parser options given on the command line.
func config() syntax.Config {
	c := syntax.Config{MaxDepth: *depth}
	if *extglob {
		c.Mode |= syntax.Extglob
	}
	return c
}

// parseBytes parses src and prints the result to out. Parse errors are
// reported to errOut, and also returned.
func parseBytes(src []byte, name string, c syntax.Config) error {
	nodes, err := c.Parse(src, name)
	if err != nil {
		writeError(errOut, src, name, err)
		return err
	}
	return printNodes(out, nodes)
}

func printNodes(w io.Writer, nodes []syntax.Node) error {
	enc := typedjson.EncodeOptions{Indent: "\t"}
	for _, node := range nodes {
		if *toJSON {
			if err := enc.Encode(w, node); err != nil {
				return err
			}
			continue
		}
		sexp := node.Sexp()
		if sexp == "" {
			continue
		}
		if _, err := fmt.Fprintln(w, sexp); err != nil {
			return err
		}
	}
	return nil
}

var sgrSeq = regexp.MustCompile("\x1b\\[[0-9;]*m")

// writeError reports a parse error on w. With -v, the offending source
// line is shown too, styled only if w is a terminal.
func writeError(w io.Writer, src []byte, name string, err error) {
	fmt.Fprintln(w, "Error:", err)
	if !*verbose {
		return
	}
	var pe *syntax.ParseError
	if !errors.As(err, &pe) || pe.Pos < 0 || pe.Pos > len(src) {
		return
	}
	if name == "" {
		name = "input"
	}
	ctx := diag.NewContext(name, string(src), diag.PointRanging(pe.Pos))
	shown := ctx.ShowCompact("")
	if f, ok := w.(*os.File); !ok || !isTerminal(f) {
		shown = sgrSeq.ReplaceAllString(shown, "")
	}
	fmt.Fprintf(w, "    %s\n", shown)
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
