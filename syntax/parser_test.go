// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/parable-parser/parable/internal"
	"github.com/parable-parser/parable/internal/testfile"
)

func TestMain(m *testing.M) {
	internal.TestMainSetup()
	m.Run()
}

// sexpLines parses src and joins the S-expressions of its nodes with
// newlines, skipping empty ones.
func sexpLines(src string, mode ParseMode) (string, error) {
	nodes, err := ParseString(src, mode)
	if err != nil {
		return "", err
	}
	var lines []string
	for _, node := range nodes {
		if s := node.Sexp(); s != "" {
			lines = append(lines, s)
		}
	}
	return strings.Join(lines, "\n"), nil
}

var parseTests = []struct {
	in, want string
}{
	{"echo hello", `(command (word "echo") (word "hello"))`},
	{"  echo   hello  ", `(command (word "echo") (word "hello"))`},
	{"a | b |& c", `(pipe (command (word "a")) (pipe (command (word "b") (redirect ">&" 1)) (command (word "c"))))`},
	{"a && b || c", `(or (and (command (word "a")) (command (word "b"))) (command (word "c")))`},
	{"a; b; c", `(semi (semi (command (word "a")) (command (word "b"))) (command (word "c")))`},
	{"a & b", `(background (command (word "a")) (command (word "b")))`},
	{"a\nb", "(command (word \"a\"))\n(command (word \"b\"))"},
	{"a\n\n\nb\n", "(command (word \"a\"))\n(command (word \"b\"))"},
	{"# only a comment\na", `(command (word "a"))`},
	{"x=1 cmd", `(command (word "x=1") (word "cmd"))`},
	{"cmd 3< in", `(command (word "cmd") (redirect "<" "in"))`},
	{"cmd >| out", `(command (word "cmd") (redirect ">|" "out"))`},
	{"cmd &>> log", `(command (word "cmd") (redirect "&>>" "log"))`},
	{"cmd 1>&2", `(command (word "cmd") (redirect ">&" 2))`},
	{"cmd <&-", `(command (word "cmd") (redirect ">&-" 0))`},
	{"(a) > out", `(subshell (command (word "a"))) (redirect ">" "out")`},
	{"{ a; b; }", `(brace-group (semi (command (word "a")) (command (word "b"))))`},
	{
		"while true\ndo\n\techo\ndone",
		`(while (command (word "true")) (command (word "echo")))`,
	},
	{
		"for x in; do :; done",
		`(for (word "x") (in) (command (word ":")))`,
	},
	{
		"for x do :; done",
		`(for (word "x") (in (word "\"$@\"")) (command (word ":")))`,
	},
	{
		"case $x in a) b;& c) d;;& esac",
		`(case (word "$x") (pattern ((word "a")) (command (word "b"))) (pattern ((word "c")) (command (word "d"))))`,
	},
	{"function f() { :; }", `(function "f" (brace-group (command (word ":"))))`},
	{"f() ( a )", `(function "f" (subshell (command (word "a"))))`},
	{"time", `(time (command))`},
	{"! time a", `(negation (time (command (word "a"))))`},
	{"[[ a =~ ^(b|c)$ ]]", `(cond (cond-binary "=~" (cond-term "a") (cond-term "^(b|c)$")))`},
	{"[[ a < b ]]", `(cond (cond-binary "<" (cond-term "a") (cond-term "b")))`},
	{"[[ a || b ]]", `(cond (cond-or (cond-unary "-n" (cond-term "a")) (cond-unary "-n" (cond-term "b"))))`},
	{"((x++))", `(arith (word "x++"))`},
	{"echo $'a\\nb'", `(command (word "echo") (word "'a\nb'"))`},
	{"echo $[1+2]", `(command (word "echo") (word "$[1+2]"))`},
	{"echo ${#x} ${!y}", `(command (word "echo") (word "${#x}") (word "${!y}"))`},
	{"echo `date`", "(command (word \"echo\") (word \"`date`\"))"},
	{"a=( x  y )", `(command (word "a=(x y)"))`},
}

func TestParse(t *testing.T) {
	t.Parallel()
	for i, tc := range parseTests {
		tc := tc
		t.Run(fmt.Sprintf("%03d", i), func(t *testing.T) {
			t.Parallel()
			t.Logf("input: %q", tc.in)
			got, err := sexpLines(tc.in, 0)
			qt.Assert(t, err, qt.IsNil)
			qt.Assert(t, got, qt.Equals, tc.want)
		})
	}
}

func TestParseFiles(t *testing.T) {
	t.Parallel()
	paths, err := filepath.Glob(filepath.Join("testdata", "*.tests"))
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, len(paths) > 0, qt.IsTrue)
	for _, path := range paths {
		cases, err := testfile.ReadFile(path)
		qt.Assert(t, err, qt.IsNil)
		for _, c := range cases {
			c := c
			t.Run(filepath.Base(path)+"/"+c.Name, func(t *testing.T) {
				t.Parallel()
				var mode ParseMode
				if c.Extglob() {
					mode |= Extglob
				}
				got, err := sexpLines(c.Input, mode)
				if c.WantError() {
					if err == nil {
						t.Fatalf("%s:%d: expected an error, got:\n%s", path, c.Line, got)
					}
					return
				}
				if err != nil {
					t.Fatalf("%s:%d: unexpected error: %v", path, c.Line, err)
				}
				if diff := cmp.Diff(testfile.Normalize(c.Expected), testfile.Normalize(got)); diff != "" {
					t.Fatalf("%s:%d: output mismatch (-want +got):\n%s", path, c.Line, diff)
				}
			})
		}
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in, want string
	}{
		{`echo "unterminated`, "Parse error at line 1, position 5: Unterminated double quote"},
		{"fi", "Parse error at line 1, position 0: Unexpected reserved word 'fi'"},
		{"a\necho ${x", "Parse error at line 2, position 7: unexpected EOF looking for `}'"},
		{"echo 99999999999999999999>out", "Parse error at line 1, position 5: file descriptor out of range"},
	}
	for _, tc := range tests {
		_, err := ParseString(tc.in, 0)
		qt.Assert(t, err, qt.ErrorMatches, regexpQuote(tc.want), qt.Commentf("input: %q", tc.in))
	}

	for _, in := range []string{
		"a &&",
		"a |",
		"(",
		"{ a",
		"case x in",
		"if a; then b; else c",
		"while a; do b",
		"[[ -f ]]",
		"a\nb )",
	} {
		_, err := ParseString(in, 0)
		qt.Assert(t, err, qt.Not(qt.IsNil), qt.Commentf("input: %q", in))
		var perr *ParseError
		qt.Assert(t, errors.As(err, &perr), qt.IsTrue)
		qt.Assert(t, strings.HasPrefix(err.Error(), "Parse error"), qt.IsTrue)
	}
}

func regexpQuote(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`\.+*?()|[]{}^$`, r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func TestMatchedPairError(t *testing.T) {
	t.Parallel()
	for _, in := range []string{
		"echo ${x",
		"echo ${x:-y",
		"((a + b",
	} {
		_, err := ParseString(in, 0)
		var mperr *MatchedPairError
		qt.Assert(t, errors.As(err, &mperr), qt.IsTrue, qt.Commentf("input: %q, err: %v", in, err))
		var perr *ParseError
		qt.Assert(t, errors.As(err, &perr), qt.IsTrue)
		qt.Assert(t, perr, qt.Equals, &mperr.ParseError)
		qt.Assert(t, perr.Line, qt.Equals, 1)
	}

	_, err := ParseString("fi", 0)
	var mperr *MatchedPairError
	qt.Assert(t, errors.As(err, &mperr), qt.IsFalse)
}

func TestErrorFormat(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err  ParseError
		want string
	}{
		{ParseError{Message: "msg", Pos: 3, Line: 2}, "Parse error at line 2, position 3: msg"},
		{ParseError{Message: "msg", Pos: 3}, "Parse error at position 3: msg"},
		{ParseError{Message: "msg", Pos: -1}, "Parse error: msg"},
		{ParseError{Message: "msg", Pos: -1, Line: 4}, "Parse error: msg"},
	}
	for _, tc := range tests {
		err := tc.err
		qt.Assert(t, err.Error(), qt.Equals, tc.want)
	}
	mp := &MatchedPairError{ParseError{Message: "open", Pos: 0, Line: 1}}
	qt.Assert(t, mp.Error(), qt.Equals, "Parse error at line 1, position 0: open")
}

func nestedSubshells(n int) string {
	return strings.Repeat("( ", n) + "a" + strings.Repeat(" )", n)
}

func TestMaxDepth(t *testing.T) {
	t.Parallel()
	_, err := Config{MaxDepth: 3}.Parse([]byte(nestedSubshells(4)), "")
	qt.Assert(t, err, qt.ErrorMatches, ".*maximum nesting depth exceeded")

	_, err = Config{MaxDepth: 3}.Parse([]byte(nestedSubshells(3)), "")
	qt.Assert(t, err, qt.IsNil)

	_, err = ParseString(nestedSubshells(DefaultMaxDepth+1), 0)
	qt.Assert(t, err, qt.ErrorMatches, ".*maximum nesting depth exceeded")

	_, err = ParseString(nestedSubshells(DefaultMaxDepth), 0)
	qt.Assert(t, err, qt.IsNil)

	nodes, err := Config{MaxDepth: -1}.Parse([]byte(nestedSubshells(2000)), "")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, nodes, qt.HasLen, 1)

	// The limit also applies to substitutions.
	src := strings.Repeat("$(", 5) + "a" + strings.Repeat(")", 5)
	_, err = Config{MaxDepth: 4}.Parse([]byte("echo "+src), "")
	qt.Assert(t, err, qt.ErrorMatches, ".*maximum nesting depth exceeded")
}

func TestMaxDepthConstructs(t *testing.T) {
	t.Parallel()
	nest := func(open, mid, close string) func(n int) string {
		return func(n int) string {
			return strings.Repeat(open, n) + mid + strings.Repeat(close, n)
		}
	}
	tests := []struct {
		name string
		src  func(n int) string
	}{
		{"ParamExp", func(n int) string { return "echo " + nest("${x:-", "a", "}")(n) }},
		{"QuotedParamExp", func(n int) string { return "echo \"" + nest("${x:-", "a", "}")(n) + "\"" }},
		{"If", nest("if a; then ", "b", "; fi")},
		{"Elif", func(n int) string { return "if a; then b; " + strings.Repeat("elif a; then b; ", n) + "fi" }},
		{"While", nest("while a; do ", "b", "; done")},
		{"For", nest("for i in x; do ", "b", "; done")},
		{"Case", nest("case a in a) ", "b", ";; esac")},
		{"Negation", nest("! ", "a", "")},
		{"CondParen", func(n int) string { return "[[ " + nest("( ", "a", " )")(n) + " ]]" }},
		{"CondNot", func(n int) string { return "[[ " + strings.Repeat("! ", n) + "a ]]" }},
		{"CondAnd", func(n int) string { return "[[ a" + strings.Repeat(" && a", n) + " ]]" }},
		{"ArithPower", func(n int) string { return "echo $((" + strings.Repeat("2**", n) + "1))" }},
		{"ArithAssign", func(n int) string { return "echo $((" + strings.Repeat("a=", n) + "1))" }},
		{"ArithTernary", func(n int) string { return "echo $((" + strings.Repeat("a?", n) + "b))" }},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseString(tc.src(5), 0)
			qt.Assert(t, err, qt.IsNil)

			_, err = ParseString(tc.src(5000), 0)
			qt.Assert(t, err, qt.ErrorMatches, ".*maximum nesting depth exceeded")
		})
	}
}

func TestParseTree(t *testing.T) {
	t.Parallel()
	nodes, err := ParseString("echo $((1+2))", 0)
	qt.Assert(t, err, qt.IsNil)
	want := []Node{&CallExpr{Words: []*Word{
		{Value: "echo"},
		{Value: "$((1+2))", Parts: []WordPart{&ArithmExp{X: &BinaryArithm{
			Op: "+",
			X:  &ArithNumber{Value: "1"},
			Y:  &ArithNumber{Value: "2"},
		}}}},
	}}}
	qt.Assert(t, nodes, qt.CmpEquals(cmpopts.EquateEmpty()), want)

	nodes, err = ParseString("x=$((a * 2))", 0)
	qt.Assert(t, err, qt.IsNil)
	call := nodes[0].(*CallExpr)
	arith := call.Words[0].Parts[0].(*ArithmExp)
	qt.Assert(t, arith.X, qt.CmpEquals(), ArithmExpr(&BinaryArithm{
		Op: "*",
		X:  &ArithVar{Name: "a"},
		Y:  &ArithNumber{Value: "2"},
	}))
}

func TestHeredocContent(t *testing.T) {
	t.Parallel()
	heredocs := func(src string) []*HereDoc {
		nodes, err := ParseString(src, 0)
		qt.Assert(t, err, qt.IsNil)
		var hds []*HereDoc
		for _, node := range nodes {
			Walk(node, func(n Node) bool {
				if hd, ok := n.(*HereDoc); ok {
					hds = append(hds, hd)
				}
				return true
			})
		}
		return hds
	}
	ignore := cmpopts.IgnoreUnexported(HereDoc{})

	got := heredocs("cat <<EOF\nline1\nline2\nEOF\n")
	qt.Assert(t, got, qt.CmpEquals(ignore), []*HereDoc{{
		Delimiter: "EOF",
		Content:   "line1\nline2\n",
		Fd:        -1,
		Complete:  true,
	}})

	got = heredocs("cat <<-'END'\n\tkept $x\n\tEND\n")
	qt.Assert(t, got, qt.CmpEquals(ignore), []*HereDoc{{
		Delimiter: "END",
		Content:   "kept $x\n",
		Fd:        -1,
		StripTabs: true,
		Quoted:    true,
		Complete:  true,
	}})

	got = heredocs("cat <<A 3<<B\none\nA\ntwo\nB\n")
	qt.Assert(t, got, qt.HasLen, 2)
	qt.Assert(t, got[0].Content, qt.Equals, "one\n")
	qt.Assert(t, got[1].Content, qt.Equals, "two\n")
	qt.Assert(t, got[1].Fd, qt.Equals, 3)

	// An unterminated body runs until the end of the input.
	got = heredocs("cat <<EOF\nno end")
	qt.Assert(t, got, qt.HasLen, 1)
	qt.Assert(t, got[0].Content, qt.Equals, "no end\n")
}

func TestNegation(t *testing.T) {
	t.Parallel()
	for _, cmd := range []string{"true", "a | b", "{ a; }", "(a)"} {
		plain, err := sexpLines(cmd, 0)
		qt.Assert(t, err, qt.IsNil)
		double, err := sexpLines("! ! "+cmd, 0)
		qt.Assert(t, err, qt.IsNil)
		qt.Assert(t, double, qt.Equals, plain)
	}
	got, err := sexpLines("!", 0)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, got, qt.Equals, "(negation (command))")
}

func TestEmptyInput(t *testing.T) {
	t.Parallel()
	for _, in := range []string{"", "   ", "\n\n", "\t \n"} {
		nodes, err := ParseString(in, 0)
		qt.Assert(t, err, qt.IsNil)
		qt.Assert(t, nodes, qt.DeepEquals, []Node{&Empty{}})
		qt.Assert(t, nodes[0].Sexp(), qt.Equals, "")
	}
}

func TestDeterministic(t *testing.T) {
	t.Parallel()
	for _, tc := range parseTests {
		first, err := sexpLines(tc.in, 0)
		qt.Assert(t, err, qt.IsNil)
		for i := 0; i < 3; i++ {
			again, err := sexpLines(tc.in, 0)
			qt.Assert(t, err, qt.IsNil)
			qt.Assert(t, again, qt.Equals, first)
		}
	}
}

func TestParseName(t *testing.T) {
	t.Parallel()
	_, err := Parse([]byte("fi"), "script.sh", 0)
	var perr *ParseError
	qt.Assert(t, errors.As(err, &perr), qt.IsTrue)
	qt.Assert(t, perr.Filename, qt.Equals, "script.sh")
}

func TestParseConfirm(t *testing.T) {
	if testing.Short() {
		t.Skip("calling bash is slow.")
	}
	if _, err := exec.LookPath("bash"); err != nil {
		t.Skip("requires bash")
	}
	t.Parallel()
	paths, err := filepath.Glob(filepath.Join("testdata", "*.tests"))
	qt.Assert(t, err, qt.IsNil)
	for _, path := range paths {
		cases, err := testfile.ReadFile(path)
		qt.Assert(t, err, qt.IsNil)
		for _, c := range cases {
			if c.Extglob() {
				// bash -n does not apply shopt
				continue
			}
			t.Run(filepath.Base(path)+"/"+c.Name, confirmParse(c.Input, c.WantError()))
		}
	}
}

func confirmParse(in string, wantErr bool) func(*testing.T) {
	return func(t *testing.T) {
		t.Helper()
		t.Parallel()
		t.Logf("input: %s", in)

		// All the bits of shell we test should finish or fail very
		// quickly; kill bash if it somehow hangs.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		cmd := exec.CommandContext(ctx, "bash", "-n")
		killCommandOnTestExit(cmd)
		cmd.Dir = t.TempDir() // to be safe
		cmd.Stdin = strings.NewReader(in)
		var stderrBuf strings.Builder
		cmd.Stderr = &stderrBuf
		err := cmd.Run()

		if cmd.ProcessState != nil && cmd.ProcessState.ExitCode() == -1 {
			t.Fatalf("shell terminated by signal: %v", err)
		}

		// bash sometimes errors via stderr without a non-zero exit
		// code. Warnings are not errors.
		var stderrLines []string
		for _, line := range strings.Split(stderrBuf.String(), "\n") {
			line = strings.TrimSpace(line)
			if line != "" && !strings.Contains(line, "warning:") {
				stderrLines = append(stderrLines, line)
			}
		}
		if stderr := strings.Join(stderrLines, "\n"); stderr != "" {
			if err == nil {
				err = fmt.Errorf("non-fatal error: %s", stderr)
			} else {
				err = fmt.Errorf("%v: %s", err, stderr)
			}
		}

		if wantErr && err == nil {
			t.Fatalf("Expected error in bash of %q, found none", in)
		} else if !wantErr && err != nil {
			t.Fatalf("Unexpected error in bash of %q: %v", in, err)
		}
	}
}
