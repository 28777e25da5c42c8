// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package typedjson_test

import (
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/parable-parser/parable/syntax"
	"github.com/parable-parser/parable/syntax/typedjson"
)

var roundtripTests = []string{
	"echo hello",
	"a && b || c &",
	"ls -l | grep foo |& wc -l",
	"(cd /tmp; ls) > out 2>&1",
	"{ a; b; }",
	"if a; then b; elif c; then d; else e; fi",
	"while read x; do echo $x; done < file",
	"until false; do :; done",
	"for i in 1 2 3; do echo $i; done",
	"for ((i = 0; i < 3; i++)); do echo $i; done",
	"select x in a b; do break; done",
	"case $x in a|b) echo ab;; *) ;; esac",
	"f() { echo ${x:-default} ${#y} ${!z}; }",
	"coproc cat",
	"! time -p true",
	"(( x += 2 * (y - 1) ))",
	"[[ -f $file && ! $a =~ ^b(c)$ ]]",
	"echo $(date) `pwd` <(ls) $'a\\n' $\"b\" $((1 + 2)) $[3]",
	"arr=(one two three)",
	"cat <<EOF\nhello $name\nEOF\n",
	"cat <<-'END'\n\tliteral\n\tEND\n",
	"exec {fd}>file 3<&- 4>&1",
}

func TestRoundtrip(t *testing.T) {
	t.Parallel()
	for _, src := range roundtripTests {
		src := src
		t.Run("", func(t *testing.T) {
			t.Parallel()
			nodes, err := syntax.ParseString(src, 0)
			qt.Assert(t, err, qt.IsNil)
			for _, node := range nodes {
				want := node.Sexp()

				sb := new(strings.Builder)
				err := typedjson.EncodeOptions{Indent: "\t"}.Encode(sb, node)
				qt.Assert(t, err, qt.IsNil)
				encoded := sb.String()
				qt.Assert(t, strings.HasPrefix(encoded, "{\n\t\"Type\": "), qt.IsTrue)

				node2, err := typedjson.Decode(strings.NewReader(encoded))
				qt.Assert(t, err, qt.IsNil)
				qt.Assert(t, node2.Sexp(), qt.Equals, want)

				// Encoding the decoded tree gives back the same JSON.
				sb.Reset()
				err = typedjson.EncodeOptions{Indent: "\t"}.Encode(sb, node2)
				qt.Assert(t, err, qt.IsNil)
				qt.Assert(t, sb.String(), qt.Equals, encoded)
			}
		})
	}
}

func TestEncodeTypes(t *testing.T) {
	t.Parallel()
	nodes, err := syntax.ParseString("echo $(true)", 0)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, nodes, qt.HasLen, 1)

	sb := new(strings.Builder)
	err = typedjson.Encode(sb, nodes[0])
	qt.Assert(t, err, qt.IsNil)
	got := sb.String()
	for _, want := range []string{
		`{"Type":"CallExpr",`,
		`"Type":"CmdSubst"`,
		`"Value":"echo"`,
	} {
		qt.Assert(t, got, qt.Contains, want)
	}
}

func TestDecodeErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in, want string
	}{
		{`{"Type":"Bogus"}`, `unknown type: "Bogus"`},
		{`{"Type":"Word","Nope":1}`, `unknown field for syntax.Word: "Nope"`},
		{`{"Type":"Word","Value":3}`, `cannot decode number into string`},
		{`{"Type":"Redirect","Fd":"x"}`, `cannot decode string into int`},
		{`{"Type":`, `unexpected EOF`},
	}
	for _, tc := range tests {
		_, err := typedjson.Decode(strings.NewReader(tc.in))
		qt.Assert(t, err, qt.ErrorMatches, tc.want)
	}
}
