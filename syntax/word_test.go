// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestExpandAnsiCQuotes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{`$'a\tb'`, "'a\tb'"},
		{`$'a\nb'`, "'a\nb'"},
		{`$'\x41\x42'`, "'AB'"},
		{`$'\101'`, "'A'"},
		{`$'é'`, "'é'"},
		{`$'it\'s'`, `'it'\''s'`},
		{`$'a\0b'`, "'a'"},
		{`$'\cA'`, "'\x01'"},
		{`x$'a'y`, "x'a'y"},
		{`'$'a''`, `'$'a''`},
		{`"$'a'"`, `"$'a'"`},
		{`$$'a'`, `$$'a'`},
	}
	for _, tc := range tests {
		got := expandAnsiCQuotes(tc.in)
		qt.Assert(t, got, qt.Equals, tc.want, qt.Commentf("input: %q", tc.in))
	}
}

func TestStripLocaleDollars(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in, want string
	}{
		{`$"hi"`, `"hi"`},
		{`a$"b"c`, `a"b"c`},
		{`'$"hi"'`, `'$"hi"'`},
		{`\$"hi"`, `\$"hi"`},
		{`no dollars`, `no dollars`},
	}
	for _, tc := range tests {
		got := stripLocaleDollars(tc.in)
		qt.Assert(t, got, qt.Equals, tc.want, qt.Commentf("input: %q", tc.in))
	}
}

func TestNormalizeArrayWhitespace(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in, want string
	}{
		{"a=(  x   y )", "a=(x y)"},
		{"a+=( 1 )", "a+=(1)"},
		{"a[1]=( x )", "a[1]=(x)"},
		{"a=(\n\tx\n\ty\n)", "a=(x y)"},
		{"a=('x  y'  z)", "a=('x  y' z)"},
		{"a=()", "a=()"},
		{"echo", "echo"},
		{"1=( x )", "1=( x )"},
		{"a=b", "a=b"},
	}
	for _, tc := range tests {
		got := normalizeArrayWhitespace(tc.in)
		qt.Assert(t, got, qt.Equals, tc.want, qt.Commentf("input: %q", tc.in))
	}
}

func TestStripArithContinuations(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in, want string
	}{
		{"$((1+\\\n2))", "$((1+2))"},
		{"$((1+2))", "$((1+2))"},
		{"x\\\ny", "x\\\ny"},
	}
	for _, tc := range tests {
		got := stripArithContinuations(tc.in)
		qt.Assert(t, got, qt.Equals, tc.want, qt.Commentf("input: %q", tc.in))
	}
}

func TestShSingleQuote(t *testing.T) {
	t.Parallel()
	qt.Assert(t, shSingleQuote(""), qt.Equals, "''")
	qt.Assert(t, shSingleQuote("'"), qt.Equals, `\'`)
	qt.Assert(t, shSingleQuote("a b"), qt.Equals, "'a b'")
	qt.Assert(t, shSingleQuote("a'b"), qt.Equals, `'a'\''b'`)
}

func TestNormalizedIdempotent(t *testing.T) {
	t.Parallel()
	for _, in := range []string{
		"a=(  x   y )",
		`$'a\tb'`,
		`$"hello"`,
		"$((1+\\\n2))",
		"plain",
	} {
		once := (&Word{Value: in}).normalized()
		twice := (&Word{Value: once}).normalized()
		qt.Assert(t, twice, qt.Equals, once, qt.Commentf("input: %q", in))
	}
}
