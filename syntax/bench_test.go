// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

import (
	"io"
	"strings"
	"testing"
)

var benchSrc = "" +
	strings.Repeat("\n\n\t\t        \n", 10) +
	"# " + strings.Repeat("foo bar ", 10) + "\n" +
	strings.Repeat("longlit_", 10) + "\n" +
	"echo '" + strings.Repeat("foo bar ", 10) + "'\n" +
	`echo "` + strings.Repeat("foo bar ", 10) + `"` + "\n" +
	strings.Repeat("aa bb cc dd; ", 6) + "\n" +
	"a() { (b); { c; }; }; echo $(d; `e`)\n" +
	"foo=bar; a=b; c=d$foo${bar}e $simple ${complex:-default}\n" +
	"if a; then while b; do for c in d e; do f; done; done; fi\n" +
	"a | b && c || d | e && g || f\n" +
	"[[ -f $x && $y =~ ^z+$ ]] && (( i += 2 * (j - 1) ))\n" +
	"case $x in a|b) echo ab;; *) ;; esac\n" +
	"foo >a <b <<<c 2>&1 <<EOF\n" +
	strings.Repeat("somewhat long heredoc line\n", 10) +
	"EOF\n"

func BenchmarkParse(b *testing.B) {
	b.ReportAllocs()
	src := []byte(benchSrc)
	for i := 0; i < b.N; i++ {
		if _, err := Parse(src, "", 0); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSexp(b *testing.B) {
	b.ReportAllocs()
	nodes, err := ParseString(benchSrc, 0)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, node := range nodes {
			io.WriteString(io.Discard, node.Sexp())
		}
	}
}

func BenchmarkPrint(b *testing.B) {
	b.ReportAllocs()
	nodes, err := ParseString(benchSrc, 0)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, node := range nodes {
			cmd, ok := node.(Command)
			if !ok {
				continue
			}
			if err := Fprint(io.Discard, cmd); err != nil {
				b.Fatal(err)
			}
		}
	}
}
