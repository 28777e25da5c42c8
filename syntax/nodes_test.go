// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

import (
	"fmt"
	"testing"

	qt "github.com/frankban/quicktest"
)

func kinds(t *testing.T, src string) []string {
	t.Helper()
	nodes, err := ParseString(src, 0)
	qt.Assert(t, err, qt.IsNil)
	var got []string
	for _, node := range nodes {
		Walk(node, func(n Node) bool {
			if n != nil {
				got = append(got, n.Kind())
			}
			return true
		})
	}
	return got
}

func TestKind(t *testing.T) {
	t.Parallel()
	tests := []struct {
		src  string
		want []string
	}{
		{"echo $x", []string{"command", "word", "word", "param"}},
		{"a && b", []string{"list", "command", "word", "operator", "command", "word"}},
		{"a | b", []string{"pipeline", "command", "word", "command", "word"}},
		{"(( x + 1 ))", []string{"arith-cmd", "binary-op", "var", "number"}},
		{"(( x++ ))", []string{"arith-cmd", "post-incr", "var"}},
		{"(( --x ))", []string{"arith-cmd", "pre-decr", "var"}},
		{"[[ ! -f a ]]", []string{"cond-expr", "cond-not", "unary-test", "word"}},
		{"[[ ( a == b ) ]]", []string{"cond-expr", "cond-paren", "binary-test", "word", "word"}},
		{"f() { a; }", []string{"function", "brace-group", "list", "command", "word", "operator"}},
		{"! a", []string{"negation", "command", "word"}},
		{"cat <<EOF\nx\nEOF\n", []string{"command", "word", "heredoc"}},
		{"a > b", []string{"command", "word", "redirect", "word"}},
		{"echo ${#x} $((1))", []string{"command", "word", "word", "param-len", "word", "arith", "number"}},
		{"", []string{"empty"}},
	}
	for i, tc := range tests {
		tc := tc
		t.Run(fmt.Sprintf("%02d", i), func(t *testing.T) {
			t.Parallel()
			qt.Assert(t, kinds(t, tc.src), qt.DeepEquals, tc.want)
		})
	}
}

func TestArithSexp(t *testing.T) {
	t.Parallel()
	tests := []struct {
		src, want string
	}{
		{"1 + 2 * 3", `(binary-op "+" (number "1") (binary-op "*" (number "2") (number "3")))`},
		{"1 - 2 - 3", `(binary-op "-" (binary-op "-" (number "1") (number "2")) (number "3"))`},
		{"2 ** 3 ** 2", `(binary-op "**" (number "2") (binary-op "**" (number "3") (number "2")))`},
		{"x++", `(post-incr (var "x"))`},
		{"++x", `(pre-incr (var "x"))`},
		{"-x", `(unary-op "-" (var "x"))`},
		{"a = b = 1", `(assign "=" (var "a") (assign "=" (var "b") (number "1")))`},
		{"a += 2", `(assign "+=" (var "a") (number "2"))`},
		{"a ? b : c", `(ternary (var "a") (var "b") (var "c"))`},
		{"a ?: b", `(ternary (var "a") (empty) (var "b"))`},
		{"x, y", `(comma (var "x") (var "y"))`},
		{"a[1]", `(subscript "a" (number "1"))`},
		{"a == b", `(binary-op "==" (var "a") (var "b"))`},
		{"16#ff", `(number "16#ff")`},
	}
	for _, tc := range tests {
		nodes, err := ParseString("(( "+tc.src+" ))", 0)
		qt.Assert(t, err, qt.IsNil)
		cmd, ok := nodes[0].(*ArithmCmd)
		qt.Assert(t, ok, qt.IsTrue)
		qt.Assert(t, cmd.X.Sexp(), qt.Equals, tc.want, qt.Commentf("input: %q", tc.src))
	}
}
