// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

import (
	"fmt"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
)

var printTests = []struct {
	in, want string
}{
	{"echo   hi", "echo hi"},
	{"a&&b", "a && b"},
	{"a|b", "a | b"},
	{"a;b", "a; b"},
	{"{ a; b; }", "{ a; b; }"},
	{"(a)", "( a )"},
	{"if a;then b;fi", "if a; then\n    b;\nfi"},
	{"if a;then b;else c;fi", "if a; then\n    b;\nelse\n    c;\nfi"},
	{"while a; do b; done", "while a; do\n    b;\ndone"},
	{"until a; do b; done", "until a; do\n    b;\ndone"},
	{"f() { echo; }", "function f () \n{ \n    echo\n}"},
	{"case x in a) b;; esac", "case x in a)\n        b\n    ;;\nesac"},
	{"[[ -f x ]]", "[[ -f x ]]"},
	{"((x+1))", "((x+1))"},
	{"! a", "! a"},
	{"time -p a", "time -p a"},
	{"echo $'a\\tb'", "echo 'a\tb'"},
	{"cat <<EOF\nhi\nEOF\n", "cat <<EOF\nhi\nEOF\n"},
}

func TestFprint(t *testing.T) {
	t.Parallel()
	for i, tc := range printTests {
		tc := tc
		t.Run(fmt.Sprintf("%03d", i), func(t *testing.T) {
			t.Parallel()
			nodes, err := ParseString(tc.in, 0)
			qt.Assert(t, err, qt.IsNil)
			qt.Assert(t, nodes, qt.HasLen, 1)
			var sb strings.Builder
			err = Fprint(&sb, nodes[0].(Command))
			qt.Assert(t, err, qt.IsNil)
			qt.Assert(t, sb.String(), qt.Equals, tc.want+"\n")
		})
	}
}

func TestFprintSpaces(t *testing.T) {
	t.Parallel()
	nodes, err := ParseString("while a; do if b; then c; fi; done", 0)
	qt.Assert(t, err, qt.IsNil)
	var sb strings.Builder
	err = PrintConfig{Spaces: 2}.Fprint(&sb, nodes[0].(Command))
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, sb.String(), qt.Equals, "while a; do\n  if b; then\n    c;\n  fi;\ndone\n")
}

func TestCmdSubstFormatting(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in, want string
	}{
		{"echo $(a;b)", `(command (word "echo") (word "$(a; b)"))`},
		{"echo $(a  &&  b)", `(command (word "echo") (word "$(a && b)"))`},
		{"echo $(a|b)", `(command (word "echo") (word "$(a | b)"))`},
		{`echo "$(a)"`, `(command (word "echo") (word "\"$(a)\""))`},
	}
	for _, tc := range tests {
		got, err := sexpLines(tc.in, 0)
		qt.Assert(t, err, qt.IsNil)
		qt.Assert(t, got, qt.Equals, tc.want, qt.Commentf("input: %q", tc.in))
	}
}
