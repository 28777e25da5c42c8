// Copyright (c) 2018, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package main

import (
	"errors"
	"fmt"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/parable-parser/parable/internal"
	"github.com/parable-parser/parable/syntax"
)

// Each test has an even number of strings, which form input-output pairs for
// the interactive reader. The input string is fed to it, and bytes are read
// from its output until the expected output string is matched or an error is
// encountered.
//
// In other words, each first string is what the user types, and each following
// string is what gets printed back. Note that the first "$ " output is
// implicit.
var interactiveTests = [][]string{
	{},
	{
		"echo foo\n",
		"(command (word \"echo\") (word \"foo\"))\n",
	},
	{
		"a\n",
		"(command (word \"a\"))\n$ ",
		"b\n",
		"(command (word \"b\"))\n",
	},
	{
		"\n",
		"$ ",
		"a; b\n",
		"(semi (command (word \"a\")) (command (word \"b\")))\n",
	},
	{
		"if true\n",
		"> ",
		"then echo bar; fi\n",
		"(if (command (word \"true\")) (command (word \"echo\") (word \"bar\")))\n",
	},
	{
		"echo 'foo\n",
		"> ",
		"bar'\n",
		"(command (word \"echo\") (word \"'foo\\nbar'\"))\n",
	},
	{
		"a |\n",
		"> ",
		"b\n",
		"(pipe (command (word \"a\")) (command (word \"b\")))\n",
	},
	{
		"echo a\\\n",
		"> ",
		"b\n",
		"(command (word \"echo\") (word \"ab\"))\n",
	},
	{
		"fi\n",
		"Error: Parse error at line 1, position 0: Unexpected reserved word 'fi'\n$ ",
		"a\n",
		"(command (word \"a\"))\n",
	},
}

func TestInteractive(t *testing.T) {
	for i, tc := range interactiveTests {
		t.Run(fmt.Sprintf("%02d", i), func(t *testing.T) {
			input := internal.ChanPipe(make(chan []byte, 8))
			output := internal.ChanPipe(make(chan []byte, 8))

			errc := make(chan error)
			go func() {
				errc <- runInteractive(input, output, output)
			}()

			if err := output.ReadString("$ "); err != nil {
				t.Fatal(err)
			}

			for len(tc) > 0 {
				input.WriteString(tc[0])
				if err := output.ReadString(tc[1]); err != nil {
					t.Fatal(err)
				}
				tc = tc[2:]
			}

			// Close the input channel, so that the reader can
			// reach an EOF read and finish.
			close(input)
			if err := <-errc; err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			// Close the output channel once the reader has
			// finished.
			close(output)
		})
	}
}

func TestInteractiveEOF(t *testing.T) {
	input := internal.ChanPipe(make(chan []byte, 8))
	output := internal.ChanPipe(make(chan []byte, 8))
	input.WriteString("echo 'open\n")
	close(input)

	err := runInteractive(input, output, output)
	qt.Assert(t, err, qt.IsNil)
	close(output)

	var got string
	for bs := range output {
		got += string(bs)
	}
	qt.Assert(t, got, qt.Equals,
		"$ > Error: Parse error at line 1, position 5: Unterminated single quote\n")
}

func TestIncomplete(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"echo ${x\n", true},
		{"echo 'a\n", true},
		{"echo \"a\n", true},
		{"if true\n", true},
		{"a &&\n", true},
		{"fi\n", false},
		{"echo 99999999999999999999>out\n", false},
	}
	for _, test := range tests {
		_, err := syntax.ParseString(test.src, 0)
		qt.Assert(t, err, qt.IsNotNil, qt.Commentf("%q", test.src))
		qt.Assert(t, incomplete(test.src, err), qt.Equals, test.want, qt.Commentf("%q: %v", test.src, err))
	}
	qt.Assert(t, incomplete("a", errors.New("other")), qt.IsFalse)
}

func TestContinuedLine(t *testing.T) {
	qt.Assert(t, continuedLine(`echo \`), qt.IsTrue)
	qt.Assert(t, continuedLine(`echo \\`), qt.IsFalse)
	qt.Assert(t, continuedLine(`echo \\\`), qt.IsTrue)
	qt.Assert(t, continuedLine(`echo`), qt.IsFalse)
}
