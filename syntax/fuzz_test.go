// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

import (
	"errors"
	"io"
	"testing"
)

func FuzzParse(f *testing.F) {
	add := func(src string) { f.Add(src, false) }

	add("echo foo")
	add("'foo' \"bar\" $'baz' $\"qux\"")
	add("if foo; then bar; baz; fi")
	add("{ (foo; bar); baz; }")
	add("$foo ${bar} ${baz[@]} ${#x} ${!y} $")
	add("foo >bar <<EOF\nbaz\nEOF")
	add("foo=bar baz=(x y z)")
	add("foo && bar || baz &")
	add("foo | bar |& baz # qux")
	add("foo \\\n bar \\\\ba\\z")
	add("for ((i=0; i<3; i++)); do echo $((i*2)); done")
	add("case $x in a|b) ;; *) c ;& esac")
	add("[[ -f $a && $b =~ ^(c|d)$ ]]")
	add("coproc NAME { cat; }")
	add("echo $(cat <<EOF\nx\nEOF\n) <(ls) `pwd`")
	f.Add("echo @(a|b) !(c)", true)

	f.Fuzz(func(t *testing.T, src string, extglob bool) {
		var mode ParseMode
		if extglob {
			mode |= Extglob
		}
		nodes, err := ParseString(src, mode)
		if err != nil {
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("error is not a *ParseError: %T: %v", err, err)
			}
			if perr.Pos < 0 || perr.Pos > len(src) {
				t.Fatalf("error position %d out of range: %v", perr.Pos, err)
			}
			return
		}
		for _, node := range nodes {
			first, second := node.Sexp(), node.Sexp()
			if first != second {
				t.Fatalf("Sexp is not deterministic:\n%s\n%s", first, second)
			}
			Walk(node, func(Node) bool { return true })
			if cmd, ok := node.(Command); ok {
				if err := Fprint(io.Discard, cmd); err != nil {
					t.Fatal(err)
				}
			}
		}
	})
}
